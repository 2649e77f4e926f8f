package aisdk

import (
	"context"

	jsonschema "github.com/swaggest/jsonschema-go"
)

// Roles used in turns and completion messages.
const (
	RoleUser      = "user"
	RoleModel     = "model"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Provider represents an AI provider interface
type Provider interface {
	GetModels(ctx context.Context) ([]*ModelInfo, error)
	Model(ctx context.Context, modelName string) (ModelClient, error)
}

// ModelClient represents a client for a specific model
type ModelClient interface {
	CreateChatCompletion(ctx context.Context, req *ChatCompletionRequest) (*ChatCompletionResponse, error)
	CreateChatCompletionStream(ctx context.Context, req *ChatCompletionRequest) (StreamInterface, error)
	GetModelInfo() *ModelInfo
}

// Turn is one replayed entry of conversation history. Role is RoleUser or RoleModel.
type Turn struct {
	Role string
	Text string
}

// ChatModel opens chat sessions and runs one-off generations.
type ChatModel interface {
	StartChat(ctx context.Context, history []Turn) (ChatSession, error)
	Generate(ctx context.Context, req *GenerateRequest) (string, error)
}

// ChatSession holds the history of one conversation on the provider side.
type ChatSession interface {
	SendMessageStream(ctx context.Context, text string) (StreamInterface, error)
}

// KeyTester verifies that a credential works against the live API.
type KeyTester interface {
	TestKey(ctx context.Context, key string) error
}

// GenerationConfig holds sampling parameters shared by every request of a model.
type GenerationConfig struct {
	Model             string
	SystemInstruction string
	Temperature       *float64
	TopP              *float64
	TopK              *int
	MaxOutputTokens   *int
	StopSequences     []string
}

// GenerateRequest is a single non-chat generation.
type GenerateRequest struct {
	Prompt            string
	SystemInstruction string
	// ResponseSchema requests JSON output conforming to the schema.
	ResponseSchema *jsonschema.Schema
	SchemaName     string
	// Optional overrides of the model's GenerationConfig.
	Temperature *float64
	TopP        *float64
	TopK        *int
}

// Default sampling parameters for chat.
const (
	DefaultTemperature = 0.6
	DefaultTopP        = 0.8
	DefaultTopK        = 30
)

// DefaultStopSequences end generation on the markers named in the system instruction.
var DefaultStopSequences = []string{"End of response", "STOP"}

// DefaultGenerationConfig returns the chat defaults for model.
func DefaultGenerationConfig(model, systemInstruction string) GenerationConfig {
	return GenerationConfig{
		Model:             model,
		SystemInstruction: systemInstruction,
		Temperature:       Ptr(DefaultTemperature),
		TopP:              Ptr(DefaultTopP),
		TopK:              Ptr(DefaultTopK),
		StopSequences:     append([]string(nil), DefaultStopSequences...),
	}
}

// Merge returns cfg with the request's overrides applied.
func (cfg GenerationConfig) Merge(req *GenerateRequest) GenerationConfig {
	out := cfg
	out.StopSequences = append([]string(nil), cfg.StopSequences...)
	if req == nil {
		return out
	}
	if req.SystemInstruction != "" {
		out.SystemInstruction = req.SystemInstruction
	}
	if req.Temperature != nil {
		out.Temperature = req.Temperature
	}
	if req.TopP != nil {
		out.TopP = req.TopP
	}
	if req.TopK != nil {
		out.TopK = req.TopK
	}
	return out
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
