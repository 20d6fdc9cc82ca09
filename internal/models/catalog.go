package models

// ToolDefinition describes one MCP tool and its HTTP mapping, served by the
// tool catalog endpoint so clients can register tools dynamically.
type ToolDefinition struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Method      string            `json:"method"`
	Path        string            `json:"path"`
	Params      []ParamDefinition `json:"params,omitempty"`
}

// ParamDefinition describes one parameter of a catalog tool.
type ParamDefinition struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
	In          string `json:"in"` // "path", "query", or "body"
	Required    bool   `json:"required,omitempty"`
}
