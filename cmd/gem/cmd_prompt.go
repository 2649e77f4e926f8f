package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/elee1766/gem/src/app"
	"github.com/elee1766/gem/src/chat"
	"github.com/elee1766/gem/src/config"
	"github.com/elee1766/gem/src/render"
	"github.com/elee1766/gem/src/theme"
)

// PromptCmd represents the single prompt command
type PromptCmd struct {
	Text         []string `arg:"" optional:"" help:"The message to send; read from stdin when omitted"`
	Conversation string   `short:"C" help:"Continue a conversation by ID"`
	Render       bool     `short:"r" help:"Render the finished reply as markdown instead of streaming it"`
	Raw          bool     `help:"Print only the reply text"`
}

func (p *PromptCmd) Run(ctx context.Context, cli *CLI) error {
	text := strings.TrimSpace(strings.Join(p.Text, " "))
	if text == "" {
		var err error
		if text, err = readAll(os.Stdin); err != nil {
			return err
		}
	}
	if text == "" {
		return usagef("prompt text is required")
	}

	a, err := openApp(ctx, cli, false)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	_, err = runPrompt(ctx, a, os.Stdout, os.Stderr, promptParams{
		Text:         text,
		Conversation: p.Conversation,
		Render:       p.Render,
		Raw:          p.Raw,
	})
	return err
}

type promptParams struct {
	Text         string
	Conversation string
	Render       bool
	Raw          bool
}

// runPrompt sends one message and prints the reply to out. The
// conversation id goes to info so that out holds only the reply.
func runPrompt(ctx context.Context, a *app.App, out, info io.Writer, params promptParams) (string, error) {
	console, err := consoleConfig(a.Config, out, !params.Render)
	if err != nil {
		return "", err
	}
	console.HideErrors = true
	console.RawMode = params.Raw

	sink := chat.NewChannelEventSink(100, a.Logger, chat.NewConsoleEventProcessor(console))
	conversationID, err := a.Submit(ctx, params.Conversation, params.Text, sink)
	sink.Close()
	if err != nil {
		return conversationID, err
	}

	if !params.Raw {
		fmt.Fprintf(info, "conversation %s\n", conversationID)
	}
	return conversationID, nil
}

// consoleConfig configures reply output. Streaming prints chunks as
// they arrive; otherwise the finished reply is rendered as markdown.
func consoleConfig(cfg *config.Config, out io.Writer, stream bool) (chat.ConsoleProcessorConfig, error) {
	processorConfig := chat.ConsoleProcessorConfig{
		Out:        out,
		StreamMode: stream,
	}
	if stream {
		return processorConfig, nil
	}

	t, err := theme.Lookup(cfg.Chat.Theme)
	if err != nil {
		return processorConfig, err
	}
	theme.SetTheme(t)
	processorConfig.Renderer = render.New(render.Config{
		Theme: t,
		Width: cfg.Chat.Width,
	})
	return processorConfig, nil
}
