// In file: internal/tools/executor.go
package tools

import "context"

// ToolExecutor is the contract every tool registered with the ToolManager meets.
type ToolExecutor interface {
	// Definition returns the schema shown to the agent.
	Definition() Tool

	// Execute runs the tool with the agent-supplied JSON arguments. A non-nil
	// result is rendered as JSON for the agent; an error is rendered as an
	// Error payload by the ToolManager, never propagated to the transport.
	Execute(ctx context.Context, arguments string) (any, error)
}
