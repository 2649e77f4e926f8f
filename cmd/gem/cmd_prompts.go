package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/elee1766/gem/src/storage"
	"github.com/elee1766/gem/src/suggest"
)

// PromptsCmd manages starter prompts
type PromptsCmd struct {
	List     PromptsListCmd     `cmd:"" default:"1" help:"Show stored starter prompts, newest first"`
	Generate PromptsGenerateCmd `cmd:"" help:"Generate starter prompts from conversations not used yet"`
}

// PromptsListCmd lists stored prompts
type PromptsListCmd struct {
	Limit  int    `short:"n" default:"4" help:"Number of prompts to show"`
	Format string `default:"text" enum:"text,json" help:"Output format (text, json)"`
}

func (c *PromptsListCmd) Run(ctx context.Context, cli *CLI) error {
	a, err := openApp(ctx, cli, false)
	if err != nil {
		return err
	}
	defer a.Close()

	prompts, err := storage.ListLatestPrompts(ctx, a.Store.DB(), c.Limit)
	if err != nil {
		return fmt.Errorf("failed to list prompts: %w", err)
	}

	if c.Format == "json" {
		return printJSON(os.Stdout, prompts)
	}
	for _, p := range prompts {
		icon := suggest.ParseIcon(p.Icon)
		fmt.Printf("%s %s  %s\n", icon.Symbol(), p.Text, mutedStyle().Render(icon.Description()))
	}
	return nil
}

// PromptsGenerateCmd runs prompt generation now
type PromptsGenerateCmd struct{}

func (c *PromptsGenerateCmd) Run(ctx context.Context, cli *CLI) error {
	a, err := openApp(ctx, cli, false)
	if err != nil {
		return err
	}
	defer a.Close()

	svc, err := a.Suggest(ctx)
	if err != nil {
		return err
	}

	stored, err := svc.GeneratePromptSuggestions(ctx)
	switch {
	case errors.Is(err, suggest.ErrNoPrompts):
		fmt.Println("The model returned no usable prompts; conversations were left for the next run.")
		return nil
	case err != nil:
		return err
	case stored == 0:
		fmt.Println("No new conversations to learn from.")
	default:
		fmt.Printf("Stored %d new prompts.\n", stored)
	}
	return nil
}
