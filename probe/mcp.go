package probe

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/domsynth/idgen"
	"github.com/hazyhaar/domsynth/kit"
)

// RegisterMCP registers the probe's tools on srv.
func (p *Probe) RegisterMCP(srv *mcp.Server) {
	p.registerSelectorsTool(srv)
	p.registerStructureTool(srv)
}

// inputSchema builds a JSON Schema object with type "object".
func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

var sourceProperties = map[string]any{
	"html": map[string]any{"type": "string", "description": "Page HTML (inline mode)"},
	"url":  map[string]any{"type": "string", "description": "Page URL (http, browser, auto modes)"},
	"mode": map[string]any{"type": "string", "enum": []any{"inline", "http", "browser", "auto"}, "description": "Acquisition mode (default: inline when html is set, else auto)"},
}

// toolRequest is the flat argument shape of both tools.
type toolRequest struct {
	HTML    string   `json:"html,omitempty"`
	URL     string   `json:"url,omitempty"`
	Mode    Mode     `json:"mode,omitempty"`
	Target  string   `json:"target,omitempty"`
	Blocked []string `json:"blocked,omitempty"`
	Session bool     `json:"session,omitempty"`
	Root    string   `json:"root,omitempty"`
	Keys    []string `json:"keys,omitempty"`
	Limit   int      `json:"limit,omitempty"`
}

func (r *toolRequest) source() Source {
	return Source{HTML: r.HTML, URL: r.URL, Mode: r.Mode}
}

func withProps(extra map[string]any) map[string]any {
	out := make(map[string]any, len(sourceProperties)+len(extra))
	for k, v := range sourceProperties {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

// decodeTool decodes tool arguments and tags the context with a request ID.
func decodeTool(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
	res, err := kit.DecodeJSON[toolRequest]()(req)
	if err != nil {
		return nil, err
	}
	id := idgen.RequestID()
	res.EnrichCtx = func(ctx context.Context) context.Context {
		return kit.WithCall(ctx, kit.Call{RequestID: id})
	}
	return res, nil
}

// --- selectors ---

func (p *Probe) registerSelectorsTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "domsynth_selectors",
		Description: "Synthesise a primary and a secondary selector that re-locate one element of a page. Tiers text, anchored_text and fallback are not verified unique.",
		InputSchema: inputSchema(withProps(map[string]any{
			"target":  map[string]any{"type": "string", "description": "Selector designating exactly one element (CSS, text=\"...\", or A >> B)"},
			"blocked": map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "description": "Fragments (#id, .class, [attr=\"v\"]) never to use"},
			"session": map[string]any{"type": "boolean", "description": "Block the anchors of this result on later session calls"},
		}), []string{"target"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*toolRequest)
		return p.Selectors(ctx, SelectorRequest{
			Source:  r.source(),
			Target:  r.Target,
			Blocked: r.Blocked,
			Session: r.Session,
		})
	}

	kit.RegisterMCPTool(srv, tool, kit.Logging(p.logger, tool.Name)(endpoint), decodeTool)
}

// --- structure ---

func (p *Probe) registerStructureTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "domsynth_structure",
		Description: "Outline the shape of a page subtree as compact JSON, at the depth whose size lands closest to the limit.",
		InputSchema: inputSchema(withProps(map[string]any{
			"root":  map[string]any{"type": "string", "description": "Selector of the subtree root (default: body)"},
			"keys":  map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "description": "Attributes per element (default: id, class, placeholder); also innerText, value, name, role, tabindex"},
			"limit": map[string]any{"type": "integer", "description": "Target serialised length in characters (default 5000)"},
		}), nil),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*toolRequest)
		return p.Structure(ctx, StructureRequest{
			Source: r.source(),
			Root:   r.Root,
			Keys:   r.Keys,
			Limit:  r.Limit,
		})
	}

	kit.RegisterMCPTool(srv, tool, kit.Logging(p.logger, tool.Name)(endpoint), decodeTool)
}
