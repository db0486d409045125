// CLAUDE:SUMMARY Writes reports as JSON-line envelopes to an io.Writer (defaults to stdout).
package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/hazyhaar/domsynth/report"
)

// Stdout writes one {"type","data"} envelope per line.
type Stdout struct {
	mu     sync.Mutex
	enc    *json.Encoder
	closer io.Closer
}

// NewStdout creates a Stdout sink. If w is nil, os.Stdout is used.
func NewStdout(w io.Writer) *Stdout {
	if w == nil {
		w = os.Stdout
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &Stdout{enc: enc}
}

// NewFile appends envelopes to the file at path.
func NewFile(path string) (*Stdout, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("sink: open %s: %w", path, err)
	}
	s := NewStdout(f)
	s.closer = f
	return s, nil
}

func (s *Stdout) SendSelection(_ context.Context, sel report.Selection) error {
	return s.write(report.KindSelection, sel)
}

func (s *Stdout) SendOutline(_ context.Context, out report.Outline) error {
	return s.write(report.KindOutline, out)
}

func (s *Stdout) write(kind report.Kind, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("sink: marshal %s: %w", kind, err)
	}
	data := bytes.TrimSuffix(buf.Bytes(), []byte("\n"))

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enc.Encode(report.Envelope{Type: kind, Data: data})
}

func (s *Stdout) Close() error {
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}
