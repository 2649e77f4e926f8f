package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/elee1766/gem/src/aisdk"
	"github.com/elee1766/gem/src/settings"
)

// ModelCmd manages model operations
type ModelCmd struct {
	List ModelListCmd `cmd:"" default:"1" help:"List available models"`
}

// ModelListCmd lists the setup catalog or the provider's models
type ModelListCmd struct {
	Remote bool   `short:"r" help:"Ask the provider for its model list"`
	Search string `short:"s" help:"Only show models whose id or name contains this"`
	Format string `default:"table" enum:"table,json" help:"Output format (table, json)"`
}

// Run executes the model list command
func (c *ModelListCmd) Run(ctx context.Context, cli *CLI) error {
	a, err := openApp(ctx, cli, false)
	if err != nil {
		return err
	}
	defer a.Close()

	if !c.Remote {
		current, err := a.Settings.Model(ctx)
		if err != nil {
			return err
		}
		if c.Format == "json" {
			return printJSON(os.Stdout, settings.Models())
		}
		return printCatalog(os.Stdout, current)
	}

	models, err := a.ListModels(ctx)
	if err != nil {
		return fmt.Errorf("failed to list models: %w", err)
	}
	models = filterModels(models, c.Search)

	if c.Format == "json" {
		return printJSON(os.Stdout, models)
	}
	return printModelsTable(os.Stdout, models)
}

func filterModels(models []*aisdk.ModelInfo, query string) []*aisdk.ModelInfo {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return models
	}
	var matches []*aisdk.ModelInfo
	for _, model := range models {
		if strings.Contains(strings.ToLower(model.ID), query) ||
			strings.Contains(strings.ToLower(model.Name), query) {
			matches = append(matches, model)
		}
	}
	return matches
}

// printCatalog prints the setup choices, marking the current one
func printCatalog(w io.Writer, current settings.AIModel) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "\tNumber\tName")
	for _, m := range settings.Models() {
		marker := ""
		if m.Number == current.Number {
			marker = "*"
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\n", marker, m.Number, m.Name)
	}
	return tw.Flush()
}

func printModelsTable(w io.Writer, models []*aisdk.ModelInfo) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tName\tContext Length")
	fmt.Fprintln(tw, "---\t----\t--------------")
	for _, model := range models {
		contextLength := "-"
		if model.ContextLength > 0 {
			contextLength = fmt.Sprint(model.ContextLength)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", model.ID, model.Name, contextLength)
	}
	return tw.Flush()
}
