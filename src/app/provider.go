package app

import (
	"context"
	"fmt"

	"github.com/elee1766/gem/src/aisdk"
	"github.com/elee1766/gem/src/apperr"
	"github.com/elee1766/gem/src/config"
	"github.com/elee1766/gem/src/gemini"
	"github.com/elee1766/gem/src/openai"
	"github.com/elee1766/gem/src/orclient"
)

// openRouterModelPrefix maps setup catalog names onto OpenRouter ids.
const openRouterModelPrefix = "google/"

// ModelName is the model requests go to: api.model when set, otherwise the
// model chosen during setup.
func (a *App) ModelName(ctx context.Context) (string, error) {
	if m := a.Config.API.Model; m != "" {
		return m, nil
	}
	chosen, err := a.Settings.Model(ctx)
	if err != nil {
		return "", err
	}
	if a.Config.API.Provider == config.ProviderOpenRouter {
		return openRouterModelPrefix + chosen.Name, nil
	}
	return chosen.Name, nil
}

// APIKey returns the configured key, falling back to the one saved during setup.
func (a *App) APIKey(ctx context.Context) (string, error) {
	if k := a.Config.API.APIKey; k != "" {
		return k, nil
	}
	if a.Config.API.Provider == "ollama" {
		return "", nil
	}
	key, err := a.Settings.APIKey(ctx)
	if err != nil {
		return "", apperr.APIKey("no API key configured, run `gem setup key`", fmt.Errorf("%w: %w", ErrNoAPIKey, err))
	}
	return key, nil
}

func (a *App) generationConfig(model string) aisdk.GenerationConfig {
	return aisdk.DefaultGenerationConfig(model, SystemInstruction)
}

func (a *App) newChatModel(ctx context.Context) (aisdk.ChatModel, error) {
	key, err := a.APIKey(ctx)
	if err != nil {
		return nil, err
	}
	model, err := a.ModelName(ctx)
	if err != nil {
		return nil, err
	}
	gen := a.generationConfig(model)
	api := a.Config.API

	switch api.Provider {
	case config.ProviderGemini, "":
		client, err := gemini.NewClient(ctx, a.geminiConfig(key), gen)
		if err != nil {
			return nil, apperr.Generic("failed to create Gemini client", err)
		}
		return client, nil

	case config.ProviderOpenRouter:
		client := a.openRouterClient(key)
		return aisdk.NewCompletionChatModel(client.BindModel(model), gen), nil

	default:
		client, err := a.openAIClient(key, model)
		if err != nil {
			return nil, apperr.Generic("failed to create client", err)
		}
		return aisdk.NewCompletionChatModel(client, gen), nil
	}
}

func (a *App) geminiConfig(key string) gemini.Config {
	return gemini.Config{
		APIKey:   key,
		Project:  a.Config.Gemini.Project,
		Location: a.Config.Gemini.Location,
		BaseURL:  a.Config.API.BaseURL,
		Logger:   a.Logger,
	}
}

func (a *App) openRouterClient(key string) *orclient.Client {
	api := a.Config.API
	return orclient.NewClient(orclient.Config{
		APIKey:            key,
		BaseURL:           api.BaseURL,
		Logger:            a.Logger,
		Timeout:           api.Timeout,
		RetryCount:        api.Retry.MaxRetries,
		RetryDelay:        api.Retry.InitialDelay,
		RequestsPerMinute: api.RateLimit.RequestsPerMinute,
		SiteName:          "gem",
	})
}

func (a *App) openAIClient(key, model string) (*openai.Client, error) {
	return openai.NewClient(openai.Config{
		Provider: a.Config.API.Provider,
		Model:    model,
		APIKey:   key,
		BaseURL:  a.Config.API.BaseURL,
		Logger:   a.Logger,
	})
}

// ListModels lists the models the provider offers to key (or the current key).
func (a *App) ListModels(ctx context.Context) ([]*aisdk.ModelInfo, error) {
	key, err := a.APIKey(ctx)
	if err != nil {
		return nil, err
	}
	model, err := a.ModelName(ctx)
	if err != nil {
		return nil, err
	}

	switch a.Config.API.Provider {
	case config.ProviderGemini, "":
		client, err := gemini.NewClient(ctx, a.geminiConfig(key), a.generationConfig(model))
		if err != nil {
			return nil, apperr.Generic("failed to create Gemini client", err)
		}
		return client.ListModels(ctx)
	case config.ProviderOpenRouter:
		return a.openRouterClient(key).ListModels(ctx)
	default:
		client, err := a.openAIClient(key, model)
		if err != nil {
			return nil, apperr.Generic("failed to create client", err)
		}
		return client.ListModels(ctx)
	}
}

// providerKeyTester checks keys against the configured provider.
type providerKeyTester struct {
	app *App
}

func (t providerKeyTester) TestKey(ctx context.Context, key string) error {
	a := t.app
	model, err := a.ModelName(ctx)
	if err != nil {
		return err
	}

	switch a.Config.API.Provider {
	case config.ProviderGemini, "":
		tester := &gemini.KeyTester{Config: a.geminiConfig(""), Model: model}
		return tester.TestKey(ctx, key)
	case config.ProviderOpenRouter:
		return a.openRouterClient(key).TestKey(ctx, key)
	default:
		client, err := a.openAIClient(key, model)
		if err != nil {
			return err
		}
		return client.TestKey(ctx, key)
	}
}
