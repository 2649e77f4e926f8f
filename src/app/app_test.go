package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/elee1766/gem/src/aisdk"
	"github.com/elee1766/gem/src/apperr"
	"github.com/elee1766/gem/src/config"
	"github.com/elee1766/gem/src/settings"
	"github.com/elee1766/gem/src/storage"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoModel struct{}

func (echoModel) StartChat(ctx context.Context, history []aisdk.Turn) (aisdk.ChatSession, error) {
	return echoSession{}, nil
}

func (echoModel) Generate(ctx context.Context, req *aisdk.GenerateRequest) (string, error) {
	if req.ResponseSchema != nil {
		return `{"prompts":[{"text":"Compare Go and Rust","icon":"CODE"}]}`, nil
	}
	return "Greeting", nil
}

type echoSession struct{}

func (echoSession) SendMessageStream(ctx context.Context, text string) (aisdk.StreamInterface, error) {
	return aisdk.NewTextStream("you said: ", text), nil
}

type okTester struct{}

func (okTester) TestKey(ctx context.Context, key string) error { return nil }

func testConfig(t *testing.T) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Data.Directory = t.TempDir()
	return cfg
}

func newTestApp(t *testing.T, cfg AppConfig) *App {
	t.Helper()
	if cfg.Config == nil {
		cfg.Config = testConfig(t)
	}
	if cfg.Fs == nil {
		cfg.Fs = afero.NewMemMapFs()
	}
	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

func TestNewSeedsPrompts(t *testing.T) {
	a := newTestApp(t, AppConfig{})
	n, err := storage.CountPrompts(context.Background(), a.Store.DB())
	require.NoError(t, err)
	assert.Equal(t, len(storage.DefaultPrompts), n)
}

func TestChatRequiresKey(t *testing.T) {
	a := newTestApp(t, AppConfig{})
	_, err := a.Chat(context.Background())
	require.Error(t, err)
	assert.True(t, apperr.IsAPIKey(err))
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestAPIKeyAndModelResolution(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t, AppConfig{KeyTester: okTester{}})

	require.NoError(t, a.Settings.SaveAPIKey(ctx, "AIzaSy-test-key-123"))
	key, err := a.APIKey(ctx)
	require.NoError(t, err)
	assert.Equal(t, "AIzaSy-test-key-123", key)

	model, err := a.ModelName(ctx)
	require.NoError(t, err)
	assert.Equal(t, settings.DefaultModel.Name, model)

	require.NoError(t, a.Settings.SaveModel(ctx, settings.Gemini15Pro))
	model, err = a.ModelName(ctx)
	require.NoError(t, err)
	assert.Equal(t, "gemini-1.5-pro-latest", model)

	// configuration wins over the saved values
	a.Config.API.APIKey = "from-env"
	a.Config.API.Provider = config.ProviderOpenRouter
	key, err = a.APIKey(ctx)
	require.NoError(t, err)
	assert.Equal(t, "from-env", key)
	model, err = a.ModelName(ctx)
	require.NoError(t, err)
	assert.Equal(t, "google/gemini-1.5-pro-latest", model)

	a.Config.API.Model = "anthropic/claude-3.5-haiku"
	model, err = a.ModelName(ctx)
	require.NoError(t, err)
	assert.Equal(t, "anthropic/claude-3.5-haiku", model)
}

func TestNewChatModelPerProvider(t *testing.T) {
	tests := []struct {
		provider string
		model    string
	}{
		{config.ProviderOpenRouter, ""},
		{"deepseek", "deepseek-chat"},
		{"ollama", "llama3.2"},
	}
	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			cfg := testConfig(t)
			cfg.API.Provider = tt.provider
			cfg.API.Model = tt.model
			if tt.provider != "ollama" {
				cfg.API.APIKey = "sk-test-0000000000"
			}
			a := newTestApp(t, AppConfig{Config: cfg})

			svc, err := a.Chat(context.Background())
			require.NoError(t, err)
			assert.NotNil(t, svc)
			_, ok := a.model.(*aisdk.CompletionChatModel)
			assert.True(t, ok)
		})
	}
}

func TestSubmitTitlesNewConversation(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t, AppConfig{Model: echoModel{}})

	id, err := a.Submit(ctx, "", "hello there", nil)
	require.NoError(t, err)
	require.NotEmpty(t, id)
	a.Wait()

	conv, err := storage.GetConversationByID(ctx, a.Store.DB(), id)
	require.NoError(t, err)
	assert.Equal(t, "Greeting", conv.DisplayTitle())
	assert.True(t, conv.UsedForPromptSuggestions)

	msgs, err := storage.GetMessagesByConversationID(ctx, a.Store.DB(), id)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "you said: hello there", msgs[1].Content)

	latest, err := storage.ListLatestPrompts(ctx, a.Store.DB(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Compare Go and Rust", latest[0].Text)

	// later messages do not retitle
	_, err = a.Submit(ctx, id, "again", nil)
	require.NoError(t, err)
	a.Wait()
	conv, err = storage.GetConversationByID(ctx, a.Store.DB(), id)
	require.NoError(t, err)
	assert.Equal(t, "Greeting", conv.DisplayTitle())
}

func TestCloseWritesMetrics(t *testing.T) {
	cfg := testConfig(t)
	cfg.Observability.Metrics.Textfile = filepath.Join(t.TempDir(), "gem.prom")
	a, err := New(context.Background(), AppConfig{Config: cfg, Fs: afero.NewMemMapFs(), Model: echoModel{}})
	require.NoError(t, err)

	_, err = a.Submit(context.Background(), "", "hi", nil)
	require.NoError(t, err)
	require.NoError(t, a.Close())

	data, err := os.ReadFile(cfg.Observability.Metrics.Textfile)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "gem_chat_messages_total"))
}
