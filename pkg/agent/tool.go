package agent

import (
	"context"
	"encoding/json"
)

type ToolSpec struct {
	Name        string
	Description string
	Parameters  json.RawMessage
}

type Tool interface {
	Spec() ToolSpec
	Call(ctx context.Context, args json.RawMessage) (string, error)
}

type funcTool struct {
	spec ToolSpec
	fn   func(ctx context.Context, args json.RawMessage) (string, error)
}

// NewTool wraps a function as a Tool. parameters is a JSON schema object.
func NewTool(name, description string, parameters json.RawMessage, fn func(ctx context.Context, args json.RawMessage) (string, error)) Tool {
	return &funcTool{
		spec: ToolSpec{Name: name, Description: description, Parameters: parameters},
		fn:   fn,
	}
}

func (t *funcTool) Spec() ToolSpec {
	return t.spec
}

func (t *funcTool) Call(ctx context.Context, args json.RawMessage) (string, error) {
	return t.fn(ctx, args)
}

// RunContext carries per-request values that tools and prompts depend on.
type RunContext struct {
	ThreadID string
	UserID   uint
	Language string
}

type runContextKey struct{}

func WithRunContext(ctx context.Context, rc RunContext) context.Context {
	return context.WithValue(ctx, runContextKey{}, rc)
}

func RunContextFrom(ctx context.Context) (RunContext, bool) {
	rc, ok := ctx.Value(runContextKey{}).(RunContext)
	return rc, ok
}
