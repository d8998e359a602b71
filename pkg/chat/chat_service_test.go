package chat

import (
	"bufio"
	"bytes"
	"chef-agent-api/domain"
	"chef-agent-api/pkg/agent"
	"chef-agent-api/pkg/chef"
	"chef-agent-api/pkg/message"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedModel struct {
	replies []agent.Message
}

func (m *scriptedModel) Stream(_ context.Context, _ agent.ModelRequest, onToken func(string)) (agent.Message, error) {
	if len(m.replies) == 0 {
		return agent.Message{}, errors.New("no scripted reply")
	}
	r := m.replies[0]
	m.replies = m.replies[1:]
	for _, tok := range strings.SplitAfter(r.Content, " ") {
		if tok != "" {
			onToken(tok)
		}
	}
	return r, nil
}

type fakeThreadService struct {
	owner uint
}

func (f *fakeThreadService) CreateThread(context.Context, uint) (domain.ThreadResponse, error) {
	return domain.ThreadResponse{}, nil
}
func (f *fakeThreadService) GetThreads(context.Context, uint) ([]domain.ThreadResponse, error) {
	return nil, nil
}
func (f *fakeThreadService) GetThread(_ context.Context, id string, userID uint) (domain.ThreadResponse, error) {
	if userID != f.owner {
		return domain.ThreadResponse{}, domain.ErrThreadNotFound
	}
	return domain.ThreadResponse{ID: id, UserID: userID}, nil
}
func (f *fakeThreadService) DeleteThread(context.Context, string, uint) error { return nil }

type fakeMessageService struct {
	appended []message.NewMessage
}

func (f *fakeMessageService) CreateMessage(context.Context, domain.CreateMessageRequest, uint) (domain.MessageResponse, error) {
	return domain.MessageResponse{}, nil
}
func (f *fakeMessageService) AppendMessage(_ context.Context, msg message.NewMessage, _ uint) (domain.MessageResponse, error) {
	f.appended = append(f.appended, msg)
	return domain.MessageResponse{Content: msg.Content}, nil
}
func (f *fakeMessageService) GetMessages(context.Context, string, uint) ([]domain.MessageResponse, error) {
	return nil, nil
}
func (f *fakeMessageService) GetMessage(context.Context, string, uint) (domain.MessageResponse, error) {
	return domain.MessageResponse{}, nil
}
func (f *fakeMessageService) DeleteMessage(context.Context, string, uint) error { return nil }

type fakeStore struct {
	uploads int
}

func (f *fakeStore) Enabled() bool { return true }
func (f *fakeStore) UploadBytes(context.Context, string, []byte, string, string) (string, error) {
	f.uploads++
	return "chat-images/a.png", nil
}
func (f *fakeStore) GetPublicLinkKey(key string) string      { return "https://cdn/" + key }
func (f *fakeStore) GetObjectKeyFromLink(link string) string { return link }
func (f *fakeStore) DeleteFile(context.Context, string) error { return nil }

const threadID = "5b0c8a8e-8f5e-4f7e-9d7e-1f2a3b4c5d6e"

const chefResult = `{"recipes":[{"name":"Shakshuka","ingredients":["eggs"],"instructions":["cook"],"time_to_prepare":25},{"name":"Frittata"}],"source":"web","reasoning":"eggs"}`

type harness struct {
	svc      ChatService
	messages *fakeMessageService
	store    *fakeStore
	general  *agent.Agent
}

func newHarness(model agent.Model, tools ...agent.Tool) *harness {
	general := agent.New(agent.Config{
		Name:         "general",
		Model:        model,
		Tools:        tools,
		Checkpointer: agent.NewMemoryCheckpointer(),
		InterruptOn:  []string{chef.ToolPresentRecipes},
		HistoryLimit: 10,
	})
	messages := &fakeMessageService{}
	store := &fakeStore{}
	return &harness{
		svc:      NewChatService(general, &fakeThreadService{owner: 1}, messages, store),
		messages: messages,
		store:    store,
		general:  general,
	}
}

func drain(t *testing.T, turn *Turn) []Event {
	t.Helper()
	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)
	turn.Write(context.Background(), w)

	var events []Event
	for _, frame := range strings.Split(buf.String(), "\n\n") {
		if frame == "" {
			continue
		}
		require.True(t, strings.HasPrefix(frame, "data: "), frame)
		var e Event
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(frame, "data: ")), &e))
		events = append(events, e)
	}
	return events
}

func types(events []Event) []string {
	out := make([]string, 0, len(events))
	for _, e := range events {
		out = append(out, e.Type)
	}
	return out
}

func chefTool() agent.Tool {
	return agent.NewTool(chef.ToolCallChef, "chef", nil, func(context.Context, json.RawMessage) (string, error) {
		return chefResult, nil
	})
}

func TestStream_TextAnswerIsStreamedAndStored(t *testing.T) {
	h := newHarness(&scriptedModel{replies: []agent.Message{{Content: "Hello there cook"}}})

	turn, err := h.svc.StartStream(context.Background(), domain.ChatStreamRequest{ThreadID: threadID, Message: "hi"}, nil, 1)
	require.NoError(t, err)
	events := drain(t, turn)

	assert.Equal(t, []string{EventData, EventData, EventData}, types(events))
	assert.Equal(t, threadID, events[0].ThreadID)

	require.Len(t, h.messages.appended, 2)
	assert.Equal(t, "user", h.messages.appended[0].Role)
	assert.Equal(t, "hi", h.messages.appended[0].Content)
	assert.Equal(t, "assistant", h.messages.appended[1].Role)
	assert.Equal(t, "Hello there cook", h.messages.appended[1].Content)
}

func TestStream_ChefResultBecomesRecipeEvent(t *testing.T) {
	model := &scriptedModel{replies: []agent.Message{
		{ToolCalls: []agent.ToolCall{{ID: "c1", Name: chef.ToolCallChef, Arguments: json.RawMessage(`{"message":"eggs"}`)}}},
		{Content: chefResult},
	}}
	h := newHarness(model, chefTool())

	turn, err := h.svc.StartStream(context.Background(), domain.ChatStreamRequest{ThreadID: threadID, Message: "I have eggs"}, nil, 1)
	require.NoError(t, err)
	events := drain(t, turn)

	assert.Equal(t, []string{EventStatus, EventToolCall, EventRecipe}, types(events))
	assert.Equal(t, statusCreatingRecipe, events[0].Status)
	require.Len(t, events[2].Recipes, 1)
	r := events[2].Recipes[0]
	assert.Equal(t, "Shakshuka", r["name"])
	assert.EqualValues(t, 25, r["total_time"])

	stored := h.messages.appended[1]
	assert.Equal(t, "Shakshuka", stored.Content)
	assert.NotNil(t, stored.RecipeData)
}

func TestStream_InterruptEndsStreamThenResume(t *testing.T) {
	present := agent.NewTool(chef.ToolPresentRecipes, "present", nil, func(context.Context, json.RawMessage) (string, error) {
		return "Recipes were presented to the user.", nil
	})
	model := &scriptedModel{replies: []agent.Message{
		{ToolCalls: []agent.ToolCall{{ID: "p1", Name: chef.ToolPresentRecipes, Arguments: json.RawMessage(`{"recipes":[]}`)}}},
		{Content: "Which one would you like?"},
	}}
	h := newHarness(model, present)
	ctx := context.Background()

	turn, err := h.svc.StartStream(ctx, domain.ChatStreamRequest{ThreadID: threadID, Message: "show me"}, nil, 1)
	require.NoError(t, err)
	events := drain(t, turn)

	assert.Equal(t, []string{EventToolCall, EventInterrupt}, types(events))
	assert.Equal(t, 1, countType(events, EventInterrupt))
	require.Len(t, events[1].Interrupt.ActionRequests, 1)
	assert.Equal(t, chef.ToolPresentRecipes, events[1].Interrupt.ActionRequests[0].Name)

	_, err = h.svc.StartResume(ctx, domain.ChatResumeRequest{ThreadID: threadID}, 1)
	assert.ErrorIs(t, err, domain.ErrDecisionCountMismatch)

	turn, err = h.svc.StartResume(ctx, domain.ChatResumeRequest{
		ThreadID:  threadID,
		Decisions: []domain.Decision{{Type: domain.DecisionApprove}},
	}, 1)
	require.NoError(t, err)
	events = drain(t, turn)

	assert.NotContains(t, types(events), EventToolResult)
	assert.Contains(t, types(events), EventData)
	last := h.messages.appended[len(h.messages.appended)-1]
	assert.Equal(t, "Which one would you like?", last.Content)

	_, err = h.svc.StartResume(ctx, domain.ChatResumeRequest{
		ThreadID:  threadID,
		Decisions: []domain.Decision{{Type: domain.DecisionApprove}},
	}, 1)
	assert.ErrorIs(t, err, domain.ErrNoPendingInterrupt)
}

func TestStream_RejectsBeforeStreaming(t *testing.T) {
	h := newHarness(&scriptedModel{})
	ctx := context.Background()

	_, err := h.svc.StartStream(ctx, domain.ChatStreamRequest{ThreadID: threadID, Message: "hi"}, nil, 2)
	assert.ErrorIs(t, err, domain.ErrThreadNotFound)

	big := &domain.ChatImage{FileName: "a.png", ContentType: "image/png", Data: make([]byte, MaxImageSize+1)}
	_, err = h.svc.StartStream(ctx, domain.ChatStreamRequest{ThreadID: threadID, Message: "hi"}, big, 1)
	assert.ErrorIs(t, err, domain.ErrImageTooLarge)

	pdf := &domain.ChatImage{FileName: "a.pdf", ContentType: "application/pdf", Data: []byte("x")}
	_, err = h.svc.StartStream(ctx, domain.ChatStreamRequest{ThreadID: threadID, Message: "hi"}, pdf, 1)
	assert.ErrorIs(t, err, domain.ErrImageType)

	run, err := h.general.Begin(ctx, threadID)
	require.NoError(t, err)
	_, err = h.svc.StartStream(ctx, domain.ChatStreamRequest{ThreadID: threadID, Message: "hi"}, nil, 1)
	assert.ErrorIs(t, err, domain.ErrThreadBusy)
	run.Close()

	assert.Empty(t, h.messages.appended)
}

func TestStream_ImageIsArchivedAndSentInline(t *testing.T) {
	h := newHarness(&scriptedModel{replies: []agent.Message{{Content: "Nice tomatoes"}}})
	img := &domain.ChatImage{FileName: "a.png", ContentType: "image/png", Data: []byte{1, 2, 3}}

	turn, err := h.svc.StartStream(context.Background(), domain.ChatStreamRequest{ThreadID: threadID, Message: "what can I cook?"}, img, 1)
	require.NoError(t, err)
	drain(t, turn)

	assert.Equal(t, 1, h.store.uploads)
	assert.Equal(t, "https://cdn/chat-images/a.png", h.messages.appended[0].ImageURL)

	state, err := h.general.State(context.Background(), threadID)
	require.NoError(t, err)
	parts := state.Messages[0].Parts
	require.Len(t, parts, 2)
	assert.Equal(t, "data:image/png;base64,AQID", parts[1].ImageURL)
}

func TestStream_ModelFailureBecomesErrorEvent(t *testing.T) {
	h := newHarness(&scriptedModel{})

	turn, err := h.svc.StartStream(context.Background(), domain.ChatStreamRequest{ThreadID: threadID, Message: "hi"}, nil, 1)
	require.NoError(t, err)
	events := drain(t, turn)

	require.Len(t, events, 1)
	assert.Equal(t, EventError, events[0].Type)
	assert.Len(t, h.messages.appended, 1)
}

func countType(events []Event, typ string) int {
	n := 0
	for _, e := range events {
		if e.Type == typ {
			n++
		}
	}
	return n
}
