// Package idgen generates the identifiers stamped on reports and tool
// calls. Report IDs are UUIDv7, so a sink that appends them sees them in
// creation order; tests swap in Sequence for stable output.
package idgen

import (
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"
)

// Generator produces unique string identifiers.
type Generator func() string

// UUIDv7 returns a Generator of RFC 9562 version 7 UUIDs.
func UUIDv7() Generator {
	return func() string {
		return uuid.Must(uuid.NewV7()).String()
	}
}

// Prefixed prepends prefix to every ID of gen.
func Prefixed(prefix string, gen Generator) Generator {
	return func() string {
		return prefix + gen()
	}
}

// Sequence counts from 1: prefix+"1", prefix+"2", ...
func Sequence(prefix string) Generator {
	var n atomic.Uint64
	return func() string {
		return prefix + strconv.FormatUint(n.Add(1), 10)
	}
}

// Default stamps reports.
var Default Generator = UUIDv7()

var requests = Prefixed("req_", UUIDv7())

// RequestID returns a fresh "req_<uuidv7>" tool call identifier.
func RequestID() string {
	return requests()
}

// IsReportID reports whether id is a version 7 UUID in canonical form.
func IsReportID(id string) bool {
	u, err := uuid.Parse(id)
	return err == nil && u.Version() == 7 && u.String() == id
}
