package agent

import "context"

type ModelRequest struct {
	System       string
	Messages     []Message
	Tools        []ToolSpec
	JSONResponse bool
}

// Model produces the next assistant turn. Text deltas are passed to onToken
// as they arrive; the returned message carries the full text and any tool
// calls.
type Model interface {
	Stream(ctx context.Context, req ModelRequest, onToken func(string)) (Message, error)
}
