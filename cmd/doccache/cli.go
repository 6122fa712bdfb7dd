package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/AbstractUmbra/doccache"
	"github.com/AbstractUmbra/doccache/docs"
	"github.com/AbstractUmbra/doccache/sqlite"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx      context.Context
	Stdout   io.Writer
	Stderr   io.Writer
	DB       *sqlite.DB
	Service  *docs.Service
	Packages doccache.PackageService
	Logger   *slog.Logger
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Verbose bool `short:"v" help:"Enable debug logging"`

	Lookup     LookupCmd     `cmd:"" help:"Look up a documentation symbol"`
	Add        AddCmd        `cmd:"" help:"Register a documentation package"`
	Remove     RemoveCmd     `cmd:"" help:"Remove a documentation package"`
	Refresh    RefreshCmd    `cmd:"" help:"Reload every package inventory"`
	ClearCache ClearCacheCmd `cmd:"" name:"clear-cache" help:"Clear cached pages for a package"`
	List       ListCmd       `cmd:"" help:"List registered packages"`
}

// LookupCmd is the "lookup" subcommand.
type LookupCmd struct {
	Symbol string `arg:"" help:"Symbol name to resolve"`
}

// AddCmd is the "add" subcommand.
type AddCmd struct {
	Name         string `arg:"" help:"Package name"`
	InventoryURL string `arg:"" help:"Sphinx objects.inv URL"`
	BaseURL      string `help:"Documentation base URL (defaults to the inventory URL's directory)"`
}

// RemoveCmd is the "remove" subcommand.
type RemoveCmd struct {
	Name string `arg:"" help:"Package name"`
}

// RefreshCmd is the "refresh" subcommand.
type RefreshCmd struct{}

// ClearCacheCmd is the "clear-cache" subcommand.
type ClearCacheCmd struct {
	Name string `arg:"" help:"Package name, or * for every package"`
}

// ListCmd is the "list" subcommand.
type ListCmd struct{}
