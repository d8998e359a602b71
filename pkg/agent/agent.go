package agent

import (
	"chef-agent-api/domain"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultMaxIterations = 10
	defaultLanguage      = "English"
)

var ErrMaxIterations = errors.New("agent stopped after reaching the iteration limit")

type EventType string

const (
	EventToken      EventType = "token"
	EventModelEnd   EventType = "model_end"
	EventToolCall   EventType = "tool_call"
	EventToolResult EventType = "tool_result"
	EventInterrupt  EventType = "interrupt"
)

// Event is one step of an agent run in the order it happened.
type Event struct {
	Type       EventType
	Text       string
	ToolCall   *ToolCall
	ToolResult *Message
	Interrupt  *Interrupt
}

type Config struct {
	Name         string
	SystemPrompt string
	Model        Model
	Tools        []Tool
	// Checkpointer and Locker are required for Stream and Resume.
	Checkpointer Checkpointer
	Locker       ThreadLocker
	// InterruptOn lists tool names that need a human decision before running.
	InterruptOn   []string
	HistoryLimit  int
	MaxIterations int
	JSONResponse  bool
	Tracer        trace.Tracer
}

type Agent struct {
	name          string
	systemPrompt  string
	model         Model
	tools         map[string]Tool
	specs         []ToolSpec
	checkpointer  Checkpointer
	locker        ThreadLocker
	interruptOn   map[string]struct{}
	historyLimit  int
	maxIterations int
	jsonResponse  bool
	tracer        trace.Tracer
}

func New(cfg Config) *Agent {
	a := &Agent{
		name:          cfg.Name,
		systemPrompt:  cfg.SystemPrompt,
		model:         cfg.Model,
		tools:         make(map[string]Tool, len(cfg.Tools)),
		checkpointer:  cfg.Checkpointer,
		locker:        cfg.Locker,
		interruptOn:   make(map[string]struct{}, len(cfg.InterruptOn)),
		historyLimit:  cfg.HistoryLimit,
		maxIterations: cfg.MaxIterations,
		jsonResponse:  cfg.JSONResponse,
		tracer:        cfg.Tracer,
	}
	for _, t := range cfg.Tools {
		spec := t.Spec()
		a.tools[spec.Name] = t
		a.specs = append(a.specs, spec)
	}
	for _, name := range cfg.InterruptOn {
		a.interruptOn[name] = struct{}{}
	}
	if a.maxIterations <= 0 {
		a.maxIterations = defaultMaxIterations
	}
	if a.locker == nil {
		a.locker = NewMemoryLocker()
	}
	if a.tracer == nil {
		a.tracer = otel.Tracer("chef-agent-api/agent")
	}
	return a
}

// SystemPrompt returns the prompt for the caller's language.
func (a *Agent) SystemPrompt(language string) string {
	if language == "" || strings.EqualFold(language, defaultLanguage) {
		return a.systemPrompt
	}
	return fmt.Sprintf("%s Only respond in %s.", a.systemPrompt, language)
}

// Run is a reserved turn on one thread. Exactly one of Stream, Resume or
// Close should be called on it.
type Run struct {
	agent    *Agent
	threadID string
	release  func()
}

// Begin reserves threadID for a single turn. It fails with
// domain.ErrThreadBusy while another turn holds the thread.
func (a *Agent) Begin(ctx context.Context, threadID string) (*Run, error) {
	release, err := a.locker.Acquire(ctx, threadID)
	if err != nil {
		return nil, err
	}
	return &Run{agent: a, threadID: threadID, release: release}, nil
}

func (r *Run) Close() {
	r.release()
}

func (r *Run) Stream(ctx context.Context, input Message, emit func(Event)) error {
	defer r.release()
	return r.agent.stream(ctx, r.threadID, input, emit)
}

func (r *Run) Resume(ctx context.Context, decisions []domain.Decision, emit func(Event)) error {
	defer r.release()
	return r.agent.resume(ctx, r.threadID, decisions, emit)
}

// CheckResume reports whether decisions can answer the pending approval
// of the reserved thread, without running anything.
func (r *Run) CheckResume(ctx context.Context, decisions []domain.Decision) error {
	state, err := r.agent.load(ctx, r.threadID)
	if err != nil {
		return err
	}
	return checkDecisions(state, decisions)
}

// Stream runs one conversational turn for threadID. It returns once the run
// completes or pauses for approval. A pending approval is dropped when new
// input arrives.
func (a *Agent) Stream(ctx context.Context, threadID string, input Message, emit func(Event)) error {
	run, err := a.Begin(ctx, threadID)
	if err != nil {
		return err
	}
	return run.Stream(ctx, input, emit)
}

func (a *Agent) stream(ctx context.Context, threadID string, input Message, emit func(Event)) error {
	state, err := a.load(ctx, threadID)
	if err != nil {
		return err
	}
	if state.Pending != nil {
		log.Infof("agent %s: thread %s had a pending approval, superseded by new input", a.name, threadID)
		state.Pending = nil
	}

	if input.ID == "" {
		input.ID = uuid.NewString()
	}
	state.Messages = append(state.Messages, input)
	state.Messages = ApplyRemovals(state.Messages, TrimHistory(state.Messages, a.historyLimit))

	return a.run(ctx, threadID, state, emit)
}

// Resume answers the pending approval of threadID with one decision per
// pending action, in order, and continues the run.
func (a *Agent) Resume(ctx context.Context, threadID string, decisions []domain.Decision, emit func(Event)) error {
	run, err := a.Begin(ctx, threadID)
	if err != nil {
		return err
	}
	return run.Resume(ctx, decisions, emit)
}

func (a *Agent) resume(ctx context.Context, threadID string, decisions []domain.Decision, emit func(Event)) error {
	state, err := a.load(ctx, threadID)
	if err != nil {
		return err
	}
	if err := checkDecisions(state, decisions); err != nil {
		return err
	}
	pending := state.Pending

	idx := -1
	for i := range state.Messages {
		if state.Messages[i].ID == pending.MessageID {
			idx = i
		}
	}
	if idx < 0 {
		// the paused turn is gone; nothing to resume
		state.Pending = nil
		if err := a.save(ctx, threadID, state); err != nil {
			return err
		}
		return domain.ErrNoPendingInterrupt
	}

	decisionFor := make(map[string]domain.Decision, len(decisions))
	for i, req := range pending.ActionRequests {
		decisionFor[req.ToolCallID] = decisions[i]
	}

	assistant := &state.Messages[idx]
	for i := range assistant.ToolCalls {
		d, ok := decisionFor[assistant.ToolCalls[i].ID]
		if ok && d.Type == domain.DecisionEdit {
			assistant.ToolCalls[i].Name = d.EditedAction.Name
			if len(d.EditedAction.Args) > 0 {
				assistant.ToolCalls[i].Arguments = d.EditedAction.Args
			}
		}
	}

	state.Pending = nil
	results := make([]Message, 0, len(assistant.ToolCalls))
	for _, call := range assistant.ToolCalls {
		d, gated := decisionFor[call.ID]
		var result Message
		if gated && d.Type == domain.DecisionReject {
			feedback := d.Message
			if feedback == "" {
				feedback = fmt.Sprintf("User rejected the %s call.", call.Name)
			}
			result = ToolResultMessage(call, feedback)
		} else {
			result = a.execute(ctx, call)
		}
		results = append(results, result)
		emit(Event{Type: EventToolResult, ToolResult: &result})
	}
	state.Messages = append(state.Messages[:idx+1], append(results, state.Messages[idx+1:]...)...)

	if err := a.save(ctx, threadID, state); err != nil {
		return err
	}
	return a.run(ctx, threadID, state, emit)
}

// Invoke runs the agent once over messages without persistence or approval
// gates and returns the final assistant turn.
func (a *Agent) Invoke(ctx context.Context, messages []Message) (Message, error) {
	state := &State{Messages: append([]Message(nil), messages...)}
	if err := a.loop(ctx, state, func(Event) {}, nil); err != nil {
		return Message{}, err
	}
	for i := len(state.Messages) - 1; i >= 0; i-- {
		if state.Messages[i].Role == RoleAssistant {
			return state.Messages[i], nil
		}
	}
	return Message{}, errors.New("agent produced no answer")
}

// State returns the persisted state of a thread, or an empty one.
func (a *Agent) State(ctx context.Context, threadID string) (*State, error) {
	return a.load(ctx, threadID)
}

// Forget deletes the persisted state of a thread.
func (a *Agent) Forget(ctx context.Context, threadID string) error {
	if a.checkpointer == nil {
		return nil
	}
	return a.checkpointer.Delete(ctx, threadID)
}

func (a *Agent) run(ctx context.Context, threadID string, state *State, emit func(Event)) error {
	save := func() error { return a.save(ctx, threadID, state) }
	err := a.loop(ctx, state, emit, save)
	if serr := save(); serr != nil && err == nil {
		err = serr
	}
	return err
}

// loop alternates model calls and tool execution until the model answers
// without tool calls or a gated tool needs approval.
func (a *Agent) loop(ctx context.Context, state *State, emit func(Event), save func() error) error {
	rc, _ := RunContextFrom(ctx)
	system := a.SystemPrompt(rc.Language)

	for i := 0; i < a.maxIterations; i++ {
		state.Messages = RepairHistory(state.Messages)

		msg, err := a.callModel(ctx, system, state.Messages, emit)
		if err != nil {
			return err
		}
		state.Messages = append(state.Messages, msg)
		emit(Event{Type: EventModelEnd, Text: msg.Content})

		if !msg.HasToolCalls() {
			return nil
		}
		for j := range msg.ToolCalls {
			call := msg.ToolCalls[j]
			emit(Event{Type: EventToolCall, ToolCall: &call})
		}

		if save != nil {
			if interrupt := a.gate(msg); interrupt != nil {
				state.Pending = interrupt
				if err := save(); err != nil {
					return err
				}
				emit(Event{Type: EventInterrupt, Interrupt: interrupt})
				return nil
			}
		}

		for _, call := range msg.ToolCalls {
			result := a.execute(ctx, call)
			state.Messages = append(state.Messages, result)
			emit(Event{Type: EventToolResult, ToolResult: &result})
		}
		if save != nil {
			if err := save(); err != nil {
				return err
			}
		}
	}
	return ErrMaxIterations
}

func (a *Agent) callModel(ctx context.Context, system string, messages []Message, emit func(Event)) (Message, error) {
	ctx, span := a.tracer.Start(ctx, "agent.model", trace.WithAttributes(
		attribute.String("agent.name", a.name),
		attribute.Int("agent.messages", len(messages)),
	))
	defer span.End()

	msg, err := a.model.Stream(ctx, ModelRequest{
		System:       system,
		Messages:     messages,
		Tools:        a.specs,
		JSONResponse: a.jsonResponse,
	}, func(token string) {
		emit(Event{Type: EventToken, Text: token})
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Message{}, err
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	msg.Role = RoleAssistant
	span.SetAttributes(attribute.Int("agent.tool_calls", len(msg.ToolCalls)))
	return msg, nil
}

// gate pauses the whole batch when any call in it is gated, so no tool of
// the batch runs before the decision.
func (a *Agent) gate(msg Message) *Interrupt {
	var interrupt *Interrupt
	for _, call := range msg.ToolCalls {
		if _, ok := a.interruptOn[call.Name]; !ok {
			continue
		}
		if interrupt == nil {
			interrupt = &Interrupt{MessageID: msg.ID}
		}
		interrupt.ActionRequests = append(interrupt.ActionRequests, ActionRequest{
			ToolCallID:  call.ID,
			Name:        call.Name,
			Args:        call.ArgsOrEmpty(),
			Description: fmt.Sprintf("Tool execution requires approval\n\nTool: %s\nArgs: %s", call.Name, string(call.ArgsOrEmpty())),
		})
		interrupt.ReviewConfigs = append(interrupt.ReviewConfigs, ReviewConfig{
			ActionName:       call.Name,
			AllowedDecisions: []string{domain.DecisionApprove, domain.DecisionEdit, domain.DecisionReject},
		})
	}
	return interrupt
}

func (a *Agent) execute(ctx context.Context, call ToolCall) Message {
	ctx, span := a.tracer.Start(ctx, "agent.tool", trace.WithAttributes(
		attribute.String("agent.name", a.name),
		attribute.String("tool.name", call.Name),
	))
	defer span.End()

	tool, ok := a.tools[call.Name]
	if !ok {
		span.SetStatus(codes.Error, "unknown tool")
		return ToolResultMessage(call, fmt.Sprintf("Error: unknown tool %q", call.Name))
	}
	out, err := tool.Call(ctx, call.ArgsOrEmpty())
	if err != nil {
		log.Errorf("agent %s: tool %s failed: %v", a.name, call.Name, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return ToolResultMessage(call, "Error: "+err.Error())
	}
	return ToolResultMessage(call, out)
}

func (a *Agent) load(ctx context.Context, threadID string) (*State, error) {
	if a.checkpointer == nil {
		return nil, errors.New("agent has no checkpointer")
	}
	state, err := a.checkpointer.Load(ctx, threadID)
	if errors.Is(err, ErrCheckpointNotFound) {
		return &State{}, nil
	}
	if err != nil {
		return nil, err
	}
	return state, nil
}

func (a *Agent) save(ctx context.Context, threadID string, state *State) error {
	// persist even when the caller went away mid-run
	return a.checkpointer.Save(context.WithoutCancel(ctx), threadID, state)
}

func checkDecisions(state *State, decisions []domain.Decision) error {
	if !state.Paused() {
		return domain.ErrNoPendingInterrupt
	}
	if len(decisions) != len(state.Pending.ActionRequests) {
		return domain.ErrDecisionCountMismatch
	}
	return validateDecisions(state.Pending, decisions)
}

func validateDecisions(pending *Interrupt, decisions []domain.Decision) error {
	for i, d := range decisions {
		allowed := pending.ReviewConfigs[i].AllowedDecisions
		found := false
		for _, t := range allowed {
			if t == d.Type {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%w: %q not allowed for %s", domain.ErrInvalidDecision, d.Type, pending.ActionRequests[i].Name)
		}
		if d.Type == domain.DecisionEdit {
			if d.EditedAction == nil || d.EditedAction.Name == "" {
				return fmt.Errorf("%w: edit needs an edited action", domain.ErrInvalidDecision)
			}
			if len(d.EditedAction.Args) > 0 && !json.Valid(d.EditedAction.Args) {
				return fmt.Errorf("%w: edited args are not valid JSON", domain.ErrInvalidDecision)
			}
		}
	}
	return nil
}
