package aisdk

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
)

// ErrEmptyResponse is returned when a model answers with no text.
var ErrEmptyResponse = errors.New("empty response from model")

var _ ChatModel = (*CompletionChatModel)(nil)

// CompletionChatModel turns a stateless chat-completions client into a ChatModel
// by keeping each session's history in memory.
type CompletionChatModel struct {
	client ModelClient
	config GenerationConfig
}

// NewCompletionChatModel wraps client. Every request carries config.
func NewCompletionChatModel(client ModelClient, config GenerationConfig) *CompletionChatModel {
	return &CompletionChatModel{client: client, config: config}
}

// StartChat opens a session seeded with history.
func (m *CompletionChatModel) StartChat(ctx context.Context, history []Turn) (ChatSession, error) {
	msgs := make([]*Message, 0, len(history))
	for _, t := range history {
		msgs = append(msgs, &Message{Role: completionRole(t.Role), Content: t.Text})
	}
	return &completionSession{model: m, history: msgs}, nil
}

// Generate runs a single request outside of any session.
func (m *CompletionChatModel) Generate(ctx context.Context, req *GenerateRequest) (string, error) {
	cfg := m.config.Merge(req)
	creq := m.newRequest(cfg, []*Message{{Role: RoleUser, Content: req.Prompt}})
	if req.ResponseSchema != nil {
		name := req.SchemaName
		if name == "" {
			name = "response"
		}
		creq.ResponseFormat = &ResponseFormat{
			Type:       "json_schema",
			JSONSchema: &JSONSchemaFormat{Name: name, Schema: req.ResponseSchema},
		}
	}

	resp, err := m.client.CreateChatCompletion(ctx, creq)
	if err != nil {
		return "", err
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

func (m *CompletionChatModel) newRequest(cfg GenerationConfig, msgs []*Message) *ChatCompletionRequest {
	all := make([]*Message, 0, len(msgs)+1)
	if cfg.SystemInstruction != "" {
		all = append(all, &Message{Role: RoleSystem, Content: cfg.SystemInstruction})
	}
	all = append(all, msgs...)
	return &ChatCompletionRequest{
		Model:       cfg.Model,
		Messages:    all,
		Temperature: cfg.Temperature,
		TopP:        cfg.TopP,
		TopK:        cfg.TopK,
		MaxTokens:   cfg.MaxOutputTokens,
		Stop:        cfg.StopSequences,
	}
}

func completionRole(role string) string {
	if role == RoleModel {
		return RoleAssistant
	}
	return role
}

type completionSession struct {
	model *CompletionChatModel

	mu      sync.Mutex
	history []*Message
}

func (s *completionSession) SendMessageStream(ctx context.Context, text string) (StreamInterface, error) {
	s.mu.Lock()
	msgs := make([]*Message, 0, len(s.history)+1)
	msgs = append(msgs, s.history...)
	s.mu.Unlock()
	user := &Message{Role: RoleUser, Content: text}
	msgs = append(msgs, user)

	req := s.model.newRequest(s.model.config, msgs)
	req.Stream = true
	stream, err := s.model.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return nil, err
	}
	return &turnStream{inner: stream, session: s, user: user}, nil
}

// commit records a finished turn.
func (s *completionSession) commit(user *Message, reply string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, user, &Message{Role: RoleAssistant, Content: reply})
}

// turnStream forwards chunks and commits the turn to the session once the
// inner stream ends cleanly.
type turnStream struct {
	inner   StreamInterface
	session *completionSession
	user    *Message
	reply   strings.Builder
	done    bool
}

func (t *turnStream) Read() (*StreamChunk, error) {
	chunk, err := t.inner.Read()
	if err != nil {
		if errors.Is(err, io.EOF) && !t.done {
			t.done = true
			if t.reply.Len() > 0 {
				t.session.commit(t.user, t.reply.String())
			}
		}
		return nil, err
	}
	t.reply.WriteString(chunk.Text())
	return chunk, nil
}

func (t *turnStream) Close() error {
	return t.inner.Close()
}
