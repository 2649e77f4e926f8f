package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/elee1766/gem/src/app"
	"github.com/elee1766/gem/src/settings"
)

// SetupCmd saves the onboarding settings
type SetupCmd struct {
	Key   SetupKeyCmd   `cmd:"" help:"Verify and save an API key"`
	Model SetupModelCmd `cmd:"" help:"Choose the Gemini model"`
	Show  SetupShowCmd  `cmd:"" default:"1" help:"Show the current setup"`
}

// SetupKeyCmd stores an API key after testing it against the provider
type SetupKeyCmd struct {
	Key string `arg:"" optional:"" help:"API key; read from stdin when omitted"`
}

func (c *SetupKeyCmd) Run(ctx context.Context, cli *CLI) error {
	key := strings.TrimSpace(c.Key)
	if key == "" {
		fmt.Fprint(os.Stderr, "API key: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && err != io.EOF {
			return fmt.Errorf("failed to read key: %w", err)
		}
		key = strings.TrimSpace(line)
	}
	if key == "" {
		return usagef("API key is required")
	}

	a, err := openApp(ctx, cli, false)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.Settings.SaveAPIKey(ctx, key); err != nil {
		return err
	}
	a.ResetModel()

	fmt.Printf("API key %s saved.\n", maskAPIKey(key))
	if a.Config.API.APIKey != "" {
		fmt.Println(mutedStyle().Render("Note: a key from the config or environment takes precedence."))
	}
	return nil
}

// SetupModelCmd stores the model choice
type SetupModelCmd struct {
	Model string `arg:"" optional:"" help:"Model name or number; lists the choices when omitted"`
}

func (c *SetupModelCmd) Run(ctx context.Context, cli *CLI) error {
	a, err := openApp(ctx, cli, false)
	if err != nil {
		return err
	}
	defer a.Close()

	if strings.TrimSpace(c.Model) == "" {
		current, err := a.Settings.Model(ctx)
		if err != nil {
			return err
		}
		return printCatalog(os.Stdout, current)
	}

	model, ok := settings.ParseModel(c.Model)
	if !ok {
		names := make([]string, 0, len(settings.Models()))
		for _, m := range settings.Models() {
			names = append(names, fmt.Sprintf("%d (%s)", m.Number, m.Name))
		}
		return usagef("unknown model %q; choose one of %s", c.Model, strings.Join(names, ", "))
	}

	if err := a.Settings.SaveModel(ctx, model); err != nil {
		return err
	}
	a.ResetModel()

	fmt.Printf("Model set to %s.\n", model.Name)
	if a.Config.API.Model != "" {
		fmt.Println(mutedStyle().Render(fmt.Sprintf("Note: api.model %q from the config takes precedence.", a.Config.API.Model)))
	}
	return nil
}

// SetupShowCmd prints the resolved setup
type SetupShowCmd struct{}

func (c *SetupShowCmd) Run(ctx context.Context, cli *CLI) error {
	a, err := openApp(ctx, cli, false)
	if err != nil {
		return err
	}
	defer a.Close()

	return printSetup(ctx, os.Stdout, a)
}

func printSetup(ctx context.Context, w io.Writer, a *app.App) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "Provider:\t%s\n", a.Config.API.Provider)

	model, err := a.ModelName(ctx)
	if err != nil {
		model = "error: " + err.Error()
	}
	fmt.Fprintf(tw, "Model:\t%s\n", model)

	fmt.Fprintf(tw, "API key:\t%s\n", describeKey(ctx, a))

	paths := a.Config.StoragePaths()
	fmt.Fprintf(tw, "Database:\t%s\n", paths.DatabasePath)
	fmt.Fprintf(tw, "Key file:\t%s\n", paths.KeyPath)
	fmt.Fprintf(tw, "Logs:\t%s\n", paths.LogDir)

	return tw.Flush()
}

func describeKey(ctx context.Context, a *app.App) string {
	if key := a.Config.API.APIKey; key != "" {
		return maskAPIKey(key) + " (config)"
	}
	key, err := a.Settings.APIKey(ctx)
	if err != nil {
		return "not set, run `gem setup key`"
	}
	return maskAPIKey(key) + " (saved)"
}
