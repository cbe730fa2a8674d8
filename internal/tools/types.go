// In file: internal/tools/types.go

// Package tools defines the tool-calling surface of the gateway: the schema types
// that describe a tool to an agent, the ToolExecutor contract, a registry that runs
// tools by name, and the four Hacker News story tools.
package tools

// ToolTypeFunction is the standard type for function-based tools.
const ToolTypeFunction = "function"

// Tool describes a callable function to an agent.
type Tool struct {
	// Type is almost always "function".
	Type string `json:"type"`
	// Function holds the detailed definition of the function.
	Function Function `json:"function"`
}

// Function defines the name, description, and parameters of a callable tool.
type Function struct {
	// Name is what the agent passes back to invoke the tool (e.g., "get_top_stories").
	Name string `json:"name"`
	// Description is shown to the agent and drives its decision to call the tool.
	Description string `json:"description"`
	// Parameters is the JSON Schema of the tool's arguments object.
	Parameters JSONSchema `json:"parameters"`
}

// JSONSchema is a typed subset of JSON Schema, enough to describe tool arguments.
type JSONSchema struct {
	Type        string                 `json:"type"`
	Description string                 `json:"description,omitempty"`
	Properties  map[string]*JSONSchema `json:"properties,omitempty"`
	Required    []string               `json:"required,omitempty"`
	// Minimum and Maximum bound numeric parameters.
	Minimum *int `json:"minimum,omitempty"`
	Maximum *int `json:"maximum,omitempty"`
	// Default is the value used when the caller omits the parameter.
	Default any `json:"default,omitempty"`
}

// NewFunctionTool builds a Tool of type "function".
func NewFunctionTool(name, description string, parameters JSONSchema) Tool {
	return Tool{
		Type: ToolTypeFunction,
		Function: Function{
			Name:        name,
			Description: description,
			Parameters:  parameters,
		},
	}
}

// intSchema describes a bounded integer parameter with a default.
func intSchema(description string, lo, hi, def int) *JSONSchema {
	return &JSONSchema{
		Type:        "integer",
		Description: description,
		Minimum:     &lo,
		Maximum:     &hi,
		Default:     def,
	}
}
