package agent

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// OpenAIModel streams from any OpenAI-compatible /chat/completions endpoint.
type OpenAIModel struct {
	baseURL     string
	apiKey      string
	model       string
	temperature *float64
	httpClient  *http.Client
}

type OpenAIOption func(*OpenAIModel)

func WithTemperature(t float64) OpenAIOption {
	return func(m *OpenAIModel) {
		m.temperature = &t
	}
}

func WithHTTPClient(c *http.Client) OpenAIOption {
	return func(m *OpenAIModel) {
		m.httpClient = c
	}
}

// NewOpenAIModel builds a streaming model client. baseURL should include the
// /v1 prefix.
func NewOpenAIModel(baseURL, apiKey, model string, timeout time.Duration, opts ...OpenAIOption) *OpenAIModel {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	m := &OpenAIModel{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:     strings.TrimSpace(apiKey),
		model:      strings.TrimSpace(model),
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *OpenAIModel) Stream(ctx context.Context, req ModelRequest, onToken func(string)) (Message, error) {
	if m.model == "" {
		return Message{}, errors.New("openai model name required")
	}

	body, err := json.Marshal(m.buildRequest(req))
	if err != nil {
		return Message{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return Message{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	if m.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+m.apiKey)
	}

	resp, err := m.httpClient.Do(httpReq)
	if err != nil {
		return Message{}, fmt.Errorf("openai request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp oaiErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		if errResp.Error.Message != "" {
			return Message{}, fmt.Errorf("openai api error: %s", errResp.Error.Message)
		}
		return Message{}, fmt.Errorf("openai api error: %s", resp.Status)
	}

	return readStream(resp.Body, onToken)
}

func (m *OpenAIModel) buildRequest(req ModelRequest) oaiChatRequest {
	messages := make([]oaiMessage, 0, len(req.Messages)+1)
	if strings.TrimSpace(req.System) != "" {
		messages = append(messages, oaiMessage{Role: string(RoleSystem), Content: req.System})
	}
	for _, msg := range req.Messages {
		messages = append(messages, toOAIMessage(msg))
	}

	out := oaiChatRequest{
		Model:       m.model,
		Messages:    messages,
		Stream:      true,
		Temperature: m.temperature,
	}
	for _, t := range req.Tools {
		params := t.Parameters
		if len(params) == 0 {
			params = json.RawMessage(`{"type":"object","properties":{}}`)
		}
		out.Tools = append(out.Tools, oaiTool{
			Type: "function",
			Function: oaiFunction{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  params,
			},
		})
	}
	if req.JSONResponse {
		out.ResponseFormat = &oaiResponseFormat{Type: "json_object"}
	}
	return out
}

func toOAIMessage(msg Message) oaiMessage {
	out := oaiMessage{Role: string(msg.Role)}
	switch msg.Role {
	case RoleTool:
		out.Content = msg.Content
		out.ToolCallID = msg.ToolCallID
	case RoleAssistant:
		if msg.Content != "" || len(msg.ToolCalls) == 0 {
			out.Content = msg.Content
		}
		for _, c := range msg.ToolCalls {
			tc := oaiToolCall{ID: c.ID, Type: "function"}
			tc.Function.Name = c.Name
			tc.Function.Arguments = string(c.ArgsOrEmpty())
			out.ToolCalls = append(out.ToolCalls, tc)
		}
	default:
		if len(msg.Parts) == 0 {
			out.Content = msg.Content
			break
		}
		parts := make([]oaiContentPart, 0, len(msg.Parts))
		for _, p := range msg.Parts {
			switch p.Type {
			case "image_url":
				parts = append(parts, oaiContentPart{Type: "image_url", ImageURL: &oaiImageURL{URL: p.ImageURL}})
			default:
				parts = append(parts, oaiContentPart{Type: "text", Text: p.Text})
			}
		}
		out.Content = parts
	}
	return out
}

// readStream consumes server-sent chunks until [DONE], joining text deltas and
// assembling tool calls from their indexed fragments.
func readStream(r io.Reader, onToken func(string)) (Message, error) {
	reader := bufio.NewReader(r)
	var text strings.Builder
	calls := make(map[int]*oaiToolCall)

	for {
		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return Message{}, fmt.Errorf("openai stream: %w", err)
		}
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "data:") {
			payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if payload == "[DONE]" {
				break
			}
			var chunk oaiStreamChunk
			if jerr := json.Unmarshal([]byte(payload), &chunk); jerr != nil {
				return Message{}, fmt.Errorf("openai decode chunk: %w", jerr)
			}
			if chunk.Error != nil && chunk.Error.Message != "" {
				return Message{}, fmt.Errorf("openai api error: %s", chunk.Error.Message)
			}
			for _, choice := range chunk.Choices {
				if choice.Delta.Content != "" {
					text.WriteString(choice.Delta.Content)
					if onToken != nil {
						onToken(choice.Delta.Content)
					}
				}
				for _, d := range choice.Delta.ToolCalls {
					idx := 0
					if d.Index != nil {
						idx = *d.Index
					}
					acc, ok := calls[idx]
					if !ok {
						acc = &oaiToolCall{}
						calls[idx] = acc
					}
					if d.ID != "" {
						acc.ID = d.ID
					}
					if d.Function.Name != "" && acc.Function.Name == "" {
						acc.Function.Name = d.Function.Name
					}
					acc.Function.Arguments += d.Function.Arguments
				}
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
	}

	msg := Message{ID: uuid.NewString(), Role: RoleAssistant, Content: text.String()}
	indexes := make([]int, 0, len(calls))
	for idx := range calls {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)
	for _, idx := range indexes {
		c := calls[idx]
		if c.Function.Name == "" {
			continue
		}
		id := c.ID
		if id == "" {
			id = "call_" + uuid.NewString()
		}
		args := json.RawMessage(c.Function.Arguments)
		if !json.Valid(args) {
			args = json.RawMessage(`{}`)
		}
		msg.ToolCalls = append(msg.ToolCalls, ToolCall{ID: id, Name: c.Function.Name, Arguments: args})
	}
	return msg, nil
}

// OpenAI-compatible request/response types.

type oaiChatRequest struct {
	Model          string             `json:"model"`
	Messages       []oaiMessage       `json:"messages"`
	Tools          []oaiTool          `json:"tools,omitempty"`
	Stream         bool               `json:"stream"`
	Temperature    *float64           `json:"temperature,omitempty"`
	ResponseFormat *oaiResponseFormat `json:"response_format,omitempty"`
}

type oaiMessage struct {
	Role       string        `json:"role"`
	Content    any           `json:"content"`
	ToolCalls  []oaiToolCall `json:"tool_calls,omitempty"`
	ToolCallID string        `json:"tool_call_id,omitempty"`
}

type oaiContentPart struct {
	Type     string       `json:"type"`
	Text     string       `json:"text,omitempty"`
	ImageURL *oaiImageURL `json:"image_url,omitempty"`
}

type oaiImageURL struct {
	URL string `json:"url"`
}

type oaiTool struct {
	Type     string      `json:"type"`
	Function oaiFunction `json:"function"`
}

type oaiFunction struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters"`
}

type oaiToolCall struct {
	Index    *int   `json:"index,omitempty"`
	ID       string `json:"id,omitempty"`
	Type     string `json:"type,omitempty"`
	Function struct {
		Name      string `json:"name,omitempty"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type oaiResponseFormat struct {
	Type string `json:"type"`
}

type oaiStreamChunk struct {
	Choices []struct {
		Delta struct {
			Content   string        `json:"content"`
			ToolCalls []oaiToolCall `json:"tool_calls"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

type oaiErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}
