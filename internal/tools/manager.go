// In file: internal/tools/manager.go
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dileep-u-k/hn-gateway/internal/hackernews"

	"github.com/sirupsen/logrus"
)

// recordTimeout bounds a stats write made after the caller's context is gone.
const recordTimeout = 2 * time.Second

// ErrToolNotFound is returned by Execute for an unregistered tool name.
var ErrToolNotFound = errors.New("tool not found")

// Recorder receives the outcome of every tool call. The stats package provides
// a Redis-backed implementation.
type Recorder interface {
	RecordSuccess(ctx context.Context, tool string, latency time.Duration)
	RecordFailure(ctx context.Context, tool string, kind string, latency time.Duration)
}

// Result is the rendered outcome of a tool call.
type Result struct {
	// Text is indented JSON: the tool's result, or an Error payload.
	Text string
	// IsError marks Text as an Error payload.
	IsError bool
}

// ToolManager holds a registry of all available tools.
type ToolManager struct {
	tools    map[string]ToolExecutor
	recorder Recorder
	log      logrus.FieldLogger
}

// NewToolManager creates an empty registry. recorder may be nil.
func NewToolManager(recorder Recorder, log logrus.FieldLogger) *ToolManager {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &ToolManager{
		tools:    make(map[string]ToolExecutor),
		recorder: recorder,
		log:      log,
	}
}

// Register adds a tool, replacing any tool with the same name.
func (tm *ToolManager) Register(tool ToolExecutor) {
	name := tool.Definition().Function.Name
	tm.tools[name] = tool
}

// GetDefinitions returns all registered tool definitions sorted by name.
func (tm *ToolManager) GetDefinitions() []Tool {
	defs := make([]Tool, 0, len(tm.tools))
	for _, tool := range tm.tools {
		defs = append(defs, tool.Definition())
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Function.Name < defs[j].Function.Name })
	return defs
}

// Execute runs a tool by name. Tool failures never surface as errors here: they
// come back as a Result carrying an Error payload. The only error is ErrToolNotFound.
func (tm *ToolManager) Execute(ctx context.Context, name, arguments string) (Result, error) {
	tool, ok := tm.tools[name]
	if !ok {
		return Result{}, fmt.Errorf("%w: '%s'", ErrToolNotFound, name)
	}

	start := time.Now()
	out, err := tool.Execute(ctx, arguments)
	latency := time.Since(start)
	entry := tm.log.WithFields(logrus.Fields{"tool": name, "latency_ms": latency.Milliseconds()})

	if err != nil {
		payload := hackernews.NewErrorPayload(err)
		entry.WithFields(logrus.Fields{"kind": payload.Kind, "error": payload.Error}).Warn("🛠️ tool call failed")
		if tm.recorder != nil {
			recordCtx, cancel := recordContext(ctx)
			tm.recorder.RecordFailure(recordCtx, name, string(payload.Kind), latency)
			cancel()
		}
		return Result{Text: render(payload), IsError: true}, nil
	}

	entry.Info("🛠️ tool call succeeded")
	if tm.recorder != nil {
		recordCtx, cancel := recordContext(ctx)
		tm.recorder.RecordSuccess(recordCtx, name, latency)
		cancel()
	}
	return Result{Text: render(out)}, nil
}

// ToolCount returns the number of registered tools.
func (tm *ToolManager) ToolCount() int {
	return len(tm.tools)
}

// recordContext keeps the caller's values but not its cancellation, so an
// outcome is recorded even when the call ended by timeout or disconnect.
func recordContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
}

func render(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		b, _ = json.MarshalIndent(hackernews.ErrorPayload{Error: "render result: " + err.Error(), Kind: hackernews.KindInternal}, "", "  ")
	}
	return string(b)
}
