package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/elee1766/gem/src/config"
)

// ConfigCmd inspects and edits the config file
type ConfigCmd struct {
	Show ConfigShowCmd `cmd:"" default:"1" help:"Print the resolved configuration"`
	Path ConfigPathCmd `cmd:"" help:"Print the config file locations"`
	Set  ConfigSetCmd  `cmd:"" help:"Set a value in the user config file"`
	Init ConfigInitCmd `cmd:"" help:"Write a default user config file"`
}

// ConfigShowCmd prints the resolved configuration
type ConfigShowCmd struct {
	Secrets bool `help:"Include the API key"`
}

func (c *ConfigShowCmd) Run(ctx context.Context, cli *CLI) error {
	m, err := config.NewManager(config.NewLoader(configPrecedence(cli)))
	if err != nil {
		return err
	}

	data, err := m.ExportConfig(c.Secrets)
	if err != nil {
		return err
	}
	if path := m.GetConfigPath(); path != "" {
		fmt.Fprintln(os.Stderr, mutedStyle().Render("# "+path))
	}
	fmt.Println(string(data))
	return nil
}

// ConfigPathCmd prints where configuration is read from
type ConfigPathCmd struct{}

func (c *ConfigPathCmd) Run(ctx context.Context, cli *CLI) error {
	p := configPrecedence(cli)
	for _, src := range []struct {
		name string
		path string
	}{
		{"system", p.SystemConfig},
		{"user", p.UserConfig},
		{"project", p.ProjectConfig},
		{"local", p.LocalConfig},
	} {
		state := "missing"
		if _, err := os.Stat(src.path); err == nil {
			state = "found"
		}
		fmt.Printf("%-8s %s (%s)\n", src.name, src.path, state)
	}
	fmt.Printf("%-8s %s_*\n", "env", p.EnvironmentPrefix)
	return nil
}

// ConfigSetCmd updates one key of the user config file
type ConfigSetCmd struct {
	Key   string `arg:"" help:"Dotted JSON key, e.g. chat.theme or api.provider"`
	Value string `arg:"" help:"Value; JSON numbers and booleans are decoded"`
}

func (c *ConfigSetCmd) Run(ctx context.Context, cli *CLI) error {
	updates, err := buildUpdate(c.Key, c.Value)
	if err != nil {
		return err
	}

	// only the user file is loaded so env and project values are not copied into it
	path := configPrecedence(cli).UserConfig
	m, err := config.NewManager(config.NewLoader(config.ConfigPrecedence{UserConfig: path}))
	if err != nil {
		return err
	}
	if err := m.Update(updates); err != nil {
		return err
	}
	if err := m.SaveTo(path); err != nil {
		return err
	}
	fmt.Printf("Set %s in %s\n", c.Key, path)
	return nil
}

// ConfigInitCmd writes the defaults to the user config file
type ConfigInitCmd struct {
	Force bool `help:"Overwrite an existing file"`
}

func (c *ConfigInitCmd) Run(ctx context.Context, cli *CLI) error {
	path := configPrecedence(cli).UserConfig
	if _, err := os.Stat(path); err == nil && !c.Force {
		return usagef("%s already exists; use --force to overwrite", path)
	}

	m, err := config.NewManagerWithConfig(config.DefaultConfig())
	if err != nil {
		return err
	}
	if err := m.SaveTo(path); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", path)
	return nil
}

func configPrecedence(cli *CLI) config.ConfigPrecedence {
	p := config.GetConfigPaths()
	if cli.Config != "" {
		p.UserConfig = cli.Config
	}
	return p
}

// buildUpdate turns a dotted key into the nested map Manager.Update takes
func buildUpdate(key, value string) (map[string]interface{}, error) {
	parts := strings.Split(strings.TrimSpace(key), ".")
	for _, part := range parts {
		if part == "" {
			return nil, usagef("invalid key %q", key)
		}
	}

	var decoded interface{}
	if err := json.Unmarshal([]byte(value), &decoded); err != nil {
		decoded = value
	}

	updates := map[string]interface{}{}
	current := updates
	for _, part := range parts[:len(parts)-1] {
		next := map[string]interface{}{}
		current[part] = next
		current = next
	}
	current[parts[len(parts)-1]] = decoded
	return updates, nil
}
