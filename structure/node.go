// CLAUDE:SUMMARY Structure tree value types with compact, key-ordered JSON encoding.
package structure

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Attr is one collected attribute.
type Attr struct {
	Key   string
	Value string
}

// Attributes keeps collected attributes in collection order. It encodes
// as a JSON object whose keys follow that order.
type Attributes []Attr

// Get returns the value for key.
func (a Attributes) Get(key string) (string, bool) {
	for _, kv := range a {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return "", false
}

// MarshalJSON implements json.Marshaler.
func (a Attributes) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, kv := range a {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeString(&buf, kv.Key); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		if err := writeString(&buf, kv.Value); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON implements json.Unmarshaler, preserving key order.
func (a *Attributes) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("structure: attributes: want object, got %v", tok)
	}
	var out Attributes
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := kt.(string)
		if !ok {
			return fmt.Errorf("structure: attributes: bad key %v", kt)
		}
		var val string
		if err := dec.Decode(&val); err != nil {
			return fmt.Errorf("structure: attributes: %s: %w", key, err)
		}
		out = append(out, Attr{Key: key, Value: val})
	}
	*a = out
	return nil
}

// writeString encodes s as a JSON string without HTML escaping, so the
// serialised length reflects the text and not its escapes.
func writeString(buf *bytes.Buffer, s string) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	buf.Truncate(buf.Len() - 1) // Encode appends a newline.
	return nil
}

// Node is one element of a structure snapshot. Empty fields are omitted.
type Node struct {
	Tag        string     `json:"tag"`
	Attributes Attributes `json:"attributes,omitempty"`
	Children   []Node     `json:"children,omitempty"`
}

// informative reports whether the node carries more than its tag.
func (n *Node) informative() bool {
	return len(n.Attributes) > 0 || len(n.Children) > 0
}

// Count returns the number of nodes in the tree rooted at n.
func (n *Node) Count() int {
	if n == nil {
		return 0
	}
	c := 1
	for i := range n.Children {
		c += n.Children[i].Count()
	}
	return c
}

// Serialize renders the tree as compact JSON without HTML escaping. A nil
// tree renders as "".
func Serialize(tree *Node) (string, error) {
	if tree == nil {
		return "", nil
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(tree); err != nil {
		return "", fmt.Errorf("structure: serialize: %w", err)
	}
	return string(bytes.TrimSuffix(buf.Bytes(), []byte("\n"))), nil
}
