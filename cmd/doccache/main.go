package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/AbstractUmbra/doccache"
	"github.com/AbstractUmbra/doccache/docs"
	"github.com/AbstractUmbra/doccache/goquery"
	"github.com/AbstractUmbra/doccache/htmltomarkdown"
	dochttp "github.com/AbstractUmbra/doccache/http"
	docslog "github.com/AbstractUmbra/doccache/slog"
	"github.com/AbstractUmbra/doccache/sqlite"
	"github.com/alecthomas/kong"
)

func main() {
	ctx := context.Background()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Database path. Set before calling Run().
	DBPath string

	// Config file path. Empty means the default search locations.
	ConfigPath string

	// SQLite database used by SQLite service implementations.
	DB *sqlite.DB

	// Fetcher used for documentation pages, closed on exit.
	Fetcher doccache.Fetcher

	// Service for end-to-end testing.
	Service *docs.Service
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{
		DBPath: defaultDBPath(),
	}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	if m.Fetcher != nil {
		_ = m.Fetcher.Close()
	}
	if m.DB != nil {
		return m.DB.Close()
	}
	return nil
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("doccache"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'doccache --help' to see available commands")
	}

	cmd := args[0]
	if cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if cli.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := LoadConfig(m.ConfigPath)
	if err != nil {
		return err
	}

	m.DB = sqlite.NewDB(m.DBPath)
	if err := m.DB.Open(); err != nil {
		fmt.Fprintf(stderr, "Hint: Set DOCCACHE_DB to use a different database path\n")
		return fmt.Errorf("failed to open database at %q: %w", m.DBPath, err)
	}
	defer m.Close()

	packages := sqlite.NewPackageService(m.DB)
	if err := SeedPackages(ctx, packages, cfg); err != nil {
		return fmt.Errorf("failed to seed packages from config: %w", err)
	}

	m.Fetcher = docslog.NewLoggingFetcher(dochttp.NewFetcher(), logger)
	inventories := docslog.NewLoggingInventoryService(dochttp.NewInventoryService(), logger)
	cache := docslog.NewLoggingSymbolCache(sqlite.NewSymbolCache(m.DB), logger)
	stale := sqlite.NewStaleCounter(m.DB)
	extractor := goquery.NewExtractor(htmltomarkdown.NewConverter())

	m.Service = docs.NewService(
		inventories,
		m.Fetcher,
		extractor,
		cache,
		stale,
		packages,
		nil,
		logger,
		cfg.PriorityPackages...,
	)
	defer m.Service.Close(ctx)

	// Lookups resolve against the full registry; admin commands build
	// their own view as needed.
	if cmd == "lookup" || cmd == "refresh" {
		if err := m.Service.Load(ctx); err != nil {
			return fmt.Errorf("failed to load inventories: %w", err)
		}
	}

	deps.DB = m.DB
	deps.Service = m.Service
	deps.Packages = packages
	deps.Logger = logger

	return kongCtx.Run(deps)
}

func defaultDBPath() string {
	if path := os.Getenv("DOCCACHE_DB"); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "doccache.db"
	}
	dir := filepath.Join(home, ".doccache")
	_ = os.MkdirAll(dir, 0755)
	return filepath.Join(dir, "doccache.db")
}
