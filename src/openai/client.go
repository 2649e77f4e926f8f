// Package openai adapts OpenAI-compatible endpoints to aisdk.ModelClient
// through github.com/sashabaranov/go-openai.
package openai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/elee1766/gem/src/aisdk"
	"github.com/sashabaranov/go-openai"
)

var (
	_ aisdk.ModelClient = (*Client)(nil)
	_ aisdk.KeyTester   = (*Client)(nil)
)

// Config selects an OpenAI-compatible provider.
type Config struct {
	Provider string // openai, deepseek, siliconflow, dashscope, zai, ollama or any other name with BaseURL
	Model    string
	APIKey   string
	BaseURL  string
	Logger   *slog.Logger
}

// defaultBaseURLs for providers that do not live at api.openai.com.
var defaultBaseURLs = map[string]string{
	"deepseek":    "https://api.deepseek.com",
	"siliconflow": "https://api.siliconflow.cn/v1",
	"dashscope":   "https://dashscope.aliyuncs.com/compatible-mode/v1",
	"zai":         "https://open.bigmodel.cn/api/paas/v4",
	"ollama":      "http://localhost:11434/v1",
}

// baseURL returns the endpoint used for cfg.
func (cfg Config) baseURL() string {
	if cfg.BaseURL != "" {
		return cfg.BaseURL
	}
	if u, ok := defaultBaseURLs[cfg.Provider]; ok {
		return u
	}
	return ""
}

func (cfg Config) clientConfig() openai.ClientConfig {
	cc := openai.DefaultConfig(cfg.APIKey)
	if u := cfg.baseURL(); u != "" {
		cc.BaseURL = u
	}
	cc.HTTPClient = newHTTPClient()
	return cc
}

func newHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:          10,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: 60 * time.Second,
		},
	}
}

// Client is bound to one model on one provider.
type Client struct {
	config Config
	client *openai.Client
	logger *slog.Logger
}

// NewClient creates a client for cfg.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Model == "" {
		return nil, errors.New("model is required")
	}
	if cfg.Provider == "" {
		cfg.Provider = "openai"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		config: cfg,
		client: openai.NewClientWithConfig(cfg.clientConfig()),
		logger: logger.With("component", "openai_client", "provider", cfg.Provider, "model", cfg.Model),
	}, nil
}

// CreateChatCompletion sends a non-streaming request.
func (c *Client) CreateChatCompletion(ctx context.Context, req *aisdk.ChatCompletionRequest) (*aisdk.ChatCompletionResponse, error) {
	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, c.toRequest(req))
	if err != nil {
		c.logger.Error("chat completion failed", "error", err)
		return nil, fmt.Errorf("chat completion: %w", err)
	}

	out := &aisdk.ChatCompletionResponse{
		ID:      resp.ID,
		Object:  resp.Object,
		Created: resp.Created,
		Model:   resp.Model,
		Usage: aisdk.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}
	if resp.Usage.PromptTokensDetails != nil {
		out.Usage.PromptTokensCached = resp.Usage.PromptTokensDetails.CachedTokens
	}
	for _, ch := range resp.Choices {
		out.Choices = append(out.Choices, aisdk.Choice{
			Index:        ch.Index,
			Message:      aisdk.Message{Role: ch.Message.Role, Content: ch.Message.Content},
			FinishReason: string(ch.FinishReason),
		})
	}

	c.logger.Debug("chat completion received", "total_tokens", out.Usage.TotalTokens, "duration_ms", time.Since(start).Milliseconds())
	return out, nil
}

// CreateChatCompletionStream opens a streaming request.
func (c *Client) CreateChatCompletionStream(ctx context.Context, req *aisdk.ChatCompletionRequest) (aisdk.StreamInterface, error) {
	oreq := c.toRequest(req)
	oreq.Stream = true
	oreq.StreamOptions = &openai.StreamOptions{IncludeUsage: true}

	stream, err := c.client.CreateChatCompletionStream(ctx, oreq)
	if err != nil {
		c.logger.Error("create stream failed", "error", err)
		return nil, fmt.Errorf("create stream: %w", err)
	}
	return &streamAdapter{stream: stream}, nil
}

// GetModelInfo returns the bound model.
func (c *Client) GetModelInfo() *aisdk.ModelInfo {
	return &aisdk.ModelInfo{ID: c.config.Model, Name: c.config.Model}
}

// ListModels returns the provider's models.
func (c *Client) ListModels(ctx context.Context) ([]*aisdk.ModelInfo, error) {
	list, err := c.client.ListModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	models := make([]*aisdk.ModelInfo, 0, len(list.Models))
	for _, m := range list.Models {
		models = append(models, &aisdk.ModelInfo{ID: m.ID, Name: m.ID, Created: m.CreatedAt})
	}
	return models, nil
}

// TestKey lists models with key.
func (c *Client) TestKey(ctx context.Context, key string) error {
	cfg := c.config
	cfg.APIKey = key
	_, err := openai.NewClientWithConfig(cfg.clientConfig()).ListModels(ctx)
	return err
}

func (c *Client) toRequest(req *aisdk.ChatCompletionRequest) openai.ChatCompletionRequest {
	out := openai.ChatCompletionRequest{
		Model: c.config.Model,
		Stop:  req.Stop,
	}
	for _, m := range req.Messages {
		out.Messages = append(out.Messages, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}
	if req.Temperature != nil {
		out.Temperature = float32(*req.Temperature)
	}
	if req.TopP != nil {
		out.TopP = float32(*req.TopP)
	}
	if req.MaxTokens != nil {
		out.MaxTokens = *req.MaxTokens
	}
	if rf := req.ResponseFormat; rf != nil {
		switch {
		case rf.JSONSchema != nil && rf.JSONSchema.Schema != nil:
			out.ResponseFormat = &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
				JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
					Name:   rf.JSONSchema.Name,
					Schema: rf.JSONSchema.Schema,
					Strict: rf.JSONSchema.Strict,
				},
			}
		case rf.Type == "json_object":
			out.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
		}
	}
	return out
}

type streamAdapter struct {
	stream *openai.ChatCompletionStream
}

func (s *streamAdapter) Read() (*aisdk.StreamChunk, error) {
	for {
		resp, err := s.stream.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, io.EOF
			}
			return nil, err
		}
		chunk := &aisdk.StreamChunk{
			ID:      resp.ID,
			Object:  resp.Object,
			Created: resp.Created,
			Model:   resp.Model,
		}
		if resp.Usage != nil {
			chunk.Usage = &aisdk.Usage{
				PromptTokens:     resp.Usage.PromptTokens,
				CompletionTokens: resp.Usage.CompletionTokens,
				TotalTokens:      resp.Usage.TotalTokens,
			}
		}
		for _, ch := range resp.Choices {
			chunk.Choices = append(chunk.Choices, aisdk.Choice{
				Index:        ch.Index,
				Delta:        &aisdk.Message{Role: ch.Delta.Role, Content: ch.Delta.Content},
				FinishReason: string(ch.FinishReason),
			})
		}
		if len(chunk.Choices) == 0 && chunk.Usage == nil {
			continue
		}
		return chunk, nil
	}
}

func (s *streamAdapter) Close() error {
	return s.stream.Close()
}
