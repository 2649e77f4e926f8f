package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
)

// CLI represents the main CLI structure
type CLI struct {
	Config   string `short:"c" type:"path" help:"Config file to load instead of the user config"`
	Provider string `help:"AI provider (gemini, openrouter, openai, deepseek, ollama, ...)"`
	Model    string `short:"m" help:"Model to use, overriding the one chosen during setup"`
	APIKey   string `help:"API key, overriding the saved key"`
	BaseURL  string `help:"Custom API base URL"`
	DataDir  string `help:"Directory holding the database and key file"`
	LogLevel string `help:"Log level (debug, info, warn, error)"`

	// Chat is the default command
	Chat ChatCmd `cmd:"" default:"1" help:"Start an interactive chat (default)"`

	Prompt        PromptCmd        `cmd:"" help:"Send a single message and print the reply"`
	Conversations ConversationsCmd `cmd:"" aliases:"conv" help:"Browse saved conversations"`
	Prompts       PromptsCmd       `cmd:"" help:"Starter prompt suggestions"`
	Setup         SetupCmd         `cmd:"" help:"Save the API key and model"`
	ModelCmd      ModelCmd         `cmd:"" name:"model" help:"List available models"`
	ConfigCmd     ConfigCmd        `cmd:"" name:"config" help:"Inspect and edit the config file"`
	Migrate       MigrateCmd       `cmd:"" help:"Database migrations"`
}

func main() {
	// a missing .env is fine
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("gem"),
		kong.Description("Chat with Gemini from the terminal"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.BindTo(ctx, (*context.Context)(nil)),
	)

	if err := kctx.Run(&cli); err != nil {
		stop()
		FatalError(createCLILogger(cli.LogLevel, "text"), err)
	}
}
