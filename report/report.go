// Package report defines the records the probe emits. Any consumer
// (recorders, replay drivers, agents) imports this package to read them.
package report

import (
	"github.com/hazyhaar/domsynth/selector"
	"github.com/hazyhaar/domsynth/structure"
)

// Kind names a record type in a sink envelope.
type Kind string

const (
	KindSelection Kind = "selection"
	KindOutline   Kind = "outline"
)

// Selection is the selector pair synthesised for one element.
type Selection struct {
	ID            string        `json:"id"` // UUIDv7
	PageURL       string        `json:"page_url,omitempty"`
	PageHash      string        `json:"page_hash"` // SHA-256 hex of the analysed HTML
	Target        string        `json:"target"`    // selector the caller used to designate the element
	Primary       string        `json:"primary"`
	Secondary     string        `json:"secondary"`
	PrimaryTier   selector.Tier `json:"primary_tier"`
	SecondaryTier selector.Tier `json:"secondary_tier"`
	Verified      bool          `json:"verified"` // both tiers were oracle-checked
	Anchors       []string      `json:"anchors,omitempty"`
	Timestamp     int64         `json:"timestamp"` // epoch milliseconds
}

// Outline is a structure snapshot of one subtree.
type Outline struct {
	ID         string          `json:"id"` // UUIDv7
	PageURL    string          `json:"page_url,omitempty"`
	PageHash   string          `json:"page_hash"`
	Root       string          `json:"root,omitempty"` // selector of the subtree root, empty for body
	Limit      int             `json:"limit"`
	Depth      int             `json:"depth"`
	Length     int             `json:"length"`
	Serialized string          `json:"serialized"`
	Tree       *structure.Node `json:"tree,omitempty"`
	Timestamp  int64           `json:"timestamp"`
}

// NewSelection fills a Selection from a synthesis result.
func NewSelection(id, pageURL, pageHash, target string, res selector.Result, ts int64) Selection {
	return Selection{
		ID:            id,
		PageURL:       pageURL,
		PageHash:      pageHash,
		Target:        target,
		Primary:       res.Primary,
		Secondary:     res.Secondary,
		PrimaryTier:   res.PrimaryTier,
		SecondaryTier: res.SecondaryTier,
		Verified:      res.PrimaryTier.Verified() && res.SecondaryTier.Verified(),
		Anchors:       res.Anchors(),
		Timestamp:     ts,
	}
}

// NewOutline fills an Outline from a snapshot.
func NewOutline(id, pageURL, pageHash, root string, limit int, res structure.Result, ts int64) Outline {
	return Outline{
		ID:         id,
		PageURL:    pageURL,
		PageHash:   pageHash,
		Root:       root,
		Limit:      limit,
		Depth:      res.Depth,
		Length:     res.Length,
		Serialized: res.Serialized,
		Tree:       res.Tree,
		Timestamp:  ts,
	}
}
