package kit

import "context"

// Call describes the invocation an endpoint serves. It travels in the
// context so middleware and handlers log the same request identity.
type Call struct {
	Transport string // "cli", "mcp" or "batch"
	Tool      string // MCP tool name, when called over MCP
	RequestID string
}

type callKey struct{}

// WithCall attaches c to ctx. Fields c leaves empty keep the value of the
// call already in ctx.
func WithCall(ctx context.Context, c Call) context.Context {
	prev, _ := ctx.Value(callKey{}).(Call)
	if c.Transport == "" {
		c.Transport = prev.Transport
	}
	if c.Tool == "" {
		c.Tool = prev.Tool
	}
	if c.RequestID == "" {
		c.RequestID = prev.RequestID
	}
	return context.WithValue(ctx, callKey{}, c)
}

// CallFrom returns the call attached to ctx. Transport defaults to "cli".
func CallFrom(ctx context.Context) Call {
	c, _ := ctx.Value(callKey{}).(Call)
	if c.Transport == "" {
		c.Transport = "cli"
	}
	return c
}

// LogAttrs renders the call as slog key/value pairs.
func (c Call) LogAttrs() []any {
	attrs := []any{"transport", c.Transport}
	if c.Tool != "" {
		attrs = append(attrs, "tool", c.Tool)
	}
	if c.RequestID != "" {
		attrs = append(attrs, "request_id", c.RequestID)
	}
	return attrs
}
