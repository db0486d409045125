package selector

import (
	"sync"

	"golang.org/x/net/html"

	"github.com/hazyhaar/domsynth/dom"
)

// Session keeps the blocked set of a recording session: after each call
// the anchor fragments of the result are blocked, so no two selectors of
// the session share a single-fragment anchor. Safe for concurrent use.
type Session struct {
	mu      sync.Mutex
	blocked Blocked
	opts    Options
}

// NewSession starts a session seeded with caller-supplied fragments.
func NewSession(opts Options, seed ...string) *Session {
	return &Session{blocked: NewBlocked(seed...), opts: opts}
}

// Synthesize runs Synthesize with the session's blocked set and records
// the anchors of the result. extra fragments are blocked for this call
// only and are not added to the session.
func (s *Session) Synthesize(doc *dom.Document, target *html.Node, extra ...string) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	blocked := s.blocked
	if len(extra) > 0 {
		blocked = NewBlocked(s.blocked.List()...)
		blocked.Add(extra...)
	}
	res, err := Synthesize(doc, target, blocked, s.opts)
	if err != nil {
		return Result{}, err
	}
	s.blocked.Add(res.Anchors()...)
	return res, nil
}

// Blocked returns a copy of the fragments blocked so far.
func (s *Session) Blocked() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.blocked.List()
}

// Block adds fragments to the session's blocked set.
func (s *Session) Block(fragments ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blocked.Add(fragments...)
}

// Reset clears the blocked set, keeping the options.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blocked = NewBlocked()
}
