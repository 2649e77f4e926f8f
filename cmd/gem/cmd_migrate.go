package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/elee1766/gem/src/storage"
)

// MigrateCmd manages database migrations
type MigrateCmd struct {
	Up     MigrateUpCmd     `cmd:"" help:"Run pending migrations"`
	Status MigrateStatusCmd `cmd:"" help:"Show migration status"`
}

// MigrateUpCmd runs pending migrations
type MigrateUpCmd struct {
	DBPath string `help:"Database path (defaults to config)"`
}

// Run executes the migrate up command
func (c *MigrateUpCmd) Run(ctx context.Context, cli *CLI) error {
	db, err := openDatabase(cli, c.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	applied, err := db.AppliedMigrations(ctx)
	if err != nil {
		return err
	}
	version := 0
	if len(applied) > 0 {
		version = applied[len(applied)-1].Version
	}
	fmt.Printf("Database %s is at version %d\n", db.Path(), version)
	return nil
}

// MigrateStatusCmd shows migration status
type MigrateStatusCmd struct {
	DBPath string `help:"Database path (defaults to config)"`
}

// Run executes the migrate status command
func (c *MigrateStatusCmd) Run(ctx context.Context, cli *CLI) error {
	db, err := openDatabase(cli, c.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	applied, err := db.AppliedMigrations(ctx)
	if err != nil {
		return err
	}
	return printMigrations(os.Stdout, applied)
}

// openDatabase opens, and thereby migrates, the database
func openDatabase(cli *CLI, path string) (*storage.DB, error) {
	if path == "" {
		cfg, err := loadConfig(cli)
		if err != nil {
			return nil, err
		}
		path = cfg.StoragePaths().DatabasePath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	db, err := storage.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

func printMigrations(w io.Writer, applied []storage.AppliedMigration) error {
	appliedAt := make(map[int]string, len(applied))
	for _, m := range applied {
		appliedAt[m.Version] = m.AppliedAt.Local().Format("2006-01-02 15:04:05")
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Version\tName\tApplied")
	for _, m := range storage.Migrations() {
		at, ok := appliedAt[m.Version]
		if !ok {
			at = "pending"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\n", m.Version, m.Name, at)
	}
	return tw.Flush()
}
