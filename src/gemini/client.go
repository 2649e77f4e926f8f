// Package gemini implements aisdk.ChatModel on top of google.golang.org/genai.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"net/http"
	"strings"

	"github.com/elee1766/gem/src/aisdk"
	"google.golang.org/genai"
)

// KeyTestPrompt is sent when verifying an API key.
const KeyTestPrompt = "Hi, how are you?"

var (
	_ aisdk.ChatModel = (*Client)(nil)
	_ aisdk.KeyTester = (*KeyTester)(nil)
)

// Config selects the backend. Project and Location switch to Vertex AI.
type Config struct {
	APIKey   string
	Project  string
	Location string
	// BaseURL overrides the API endpoint.
	BaseURL    string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

func (c Config) clientConfig() *genai.ClientConfig {
	cc := &genai.ClientConfig{
		APIKey:     c.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: c.HTTPClient,
	}
	if c.Project != "" && c.Location != "" {
		cc.APIKey = ""
		cc.Project = c.Project
		cc.Location = c.Location
		cc.Backend = genai.BackendVertexAI
	}
	if c.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: c.BaseURL}
	}
	return cc
}

// Client is a Gemini chat model.
type Client struct {
	client *genai.Client
	gen    aisdk.GenerationConfig
	logger *slog.Logger
}

// NewClient connects to the configured backend. gen supplies the model name and
// sampling parameters of every request.
func NewClient(ctx context.Context, cfg Config, gen aisdk.GenerationConfig) (*Client, error) {
	if gen.Model == "" {
		return nil, errors.New("model is required")
	}
	client, err := genai.NewClient(ctx, cfg.clientConfig())
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		client: client,
		gen:    gen,
		logger: logger.With("component", "gemini", "model", gen.Model),
	}, nil
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.gen.Model
}

// StartChat opens a chat seeded with history.
func (c *Client) StartChat(ctx context.Context, history []aisdk.Turn) (aisdk.ChatSession, error) {
	chat, err := c.client.Chats.Create(ctx, c.gen.Model, contentConfig(c.gen), toContents(history))
	if err != nil {
		return nil, fmt.Errorf("creating chat: %w", err)
	}
	c.logger.Debug("chat started", "history", len(history))
	return &session{chat: chat, logger: c.logger}, nil
}

// Generate runs a single prompt outside of any chat.
func (c *Client) Generate(ctx context.Context, req *aisdk.GenerateRequest) (string, error) {
	cfg := contentConfig(c.gen.Merge(req))
	if req.ResponseSchema != nil {
		cfg.ResponseMIMEType = "application/json"
		cfg.ResponseSchema = toSchema(req.ResponseSchema)
	}

	res, err := c.client.Models.GenerateContent(ctx, c.gen.Model, genai.Text(req.Prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	text := res.Text()
	if strings.TrimSpace(text) == "" {
		return "", aisdk.ErrEmptyResponse
	}
	return text, nil
}

// ListModels returns the models visible to the credential.
func (c *Client) ListModels(ctx context.Context) ([]*aisdk.ModelInfo, error) {
	var models []*aisdk.ModelInfo
	for m, err := range c.client.Models.All(ctx) {
		if err != nil {
			return nil, fmt.Errorf("listing models: %w", err)
		}
		models = append(models, &aisdk.ModelInfo{
			ID:            strings.TrimPrefix(m.Name, "models/"),
			Name:          m.DisplayName,
			Description:   m.Description,
			ContextLength: int(m.InputTokenLimit),
		})
	}
	return models, nil
}

type session struct {
	chat   *genai.Chat
	logger *slog.Logger
}

func (s *session) SendMessageStream(ctx context.Context, text string) (aisdk.StreamInterface, error) {
	seq := s.chat.SendMessageStream(ctx, genai.Part{Text: text})
	return newStream(seq), nil
}

// stream adapts the SDK iterator to aisdk.StreamInterface.
type stream struct {
	next func() (*genai.GenerateContentResponse, error, bool)
	stop func()
}

func newStream(seq iter.Seq2[*genai.GenerateContentResponse, error]) *stream {
	next, stop := iter.Pull2(seq)
	return &stream{next: next, stop: stop}
}

func (s *stream) Read() (*aisdk.StreamChunk, error) {
	for {
		resp, err, ok := s.next()
		if !ok {
			return nil, io.EOF
		}
		if err != nil {
			return nil, err
		}
		text := resp.Text()
		if text == "" {
			continue
		}
		chunk := aisdk.TextChunk(text)
		chunk.ID = resp.ResponseID
		chunk.Model = resp.ModelVersion
		if len(resp.Candidates) > 0 {
			chunk.Choices[0].FinishReason = string(resp.Candidates[0].FinishReason)
		}
		return chunk, nil
	}
}

func (s *stream) Close() error {
	s.stop()
	return nil
}

// KeyTester checks Gemini API keys with a short live request.
type KeyTester struct {
	Config Config
	Model  string
}

// TestKey sends KeyTestPrompt with key and reports any failure.
func (k *KeyTester) TestKey(ctx context.Context, key string) error {
	cfg := k.Config
	cfg.APIKey = key
	cfg.Project, cfg.Location = "", ""
	client, err := genai.NewClient(ctx, cfg.clientConfig())
	if err != nil {
		return fmt.Errorf("creating genai client: %w", err)
	}
	res, err := client.Models.GenerateContent(ctx, k.Model, genai.Text(KeyTestPrompt), nil)
	if err != nil {
		return err
	}
	if res.Text() == "" {
		return aisdk.ErrEmptyResponse
	}
	return nil
}
