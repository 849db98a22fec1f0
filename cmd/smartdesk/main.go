// Package main is the SmartDesk CLI entry point.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/hyperjump/smartdesk/internal/cli"
	"github.com/hyperjump/smartdesk/internal/config"
	"github.com/hyperjump/smartdesk/internal/indexer"
	"github.com/hyperjump/smartdesk/internal/models"
	"github.com/hyperjump/smartdesk/internal/server"
	"github.com/hyperjump/smartdesk/internal/watcher"
	"github.com/hyperjump/smartdesk/pkg/utils"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/smartdesk/config.yaml"

// loadConfig loads config from path. When path is the default, config.yaml in
// the current directory wins if present, and a missing default file yields the
// built-in defaults. Returns the config and the path actually loaded ("" for
// built-in defaults).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		if path == defaultConfigPath && errors.Is(err, fs.ErrNotExist) {
			cfg = &config.Config{}
			config.ApplyDefaults(cfg)
			return cfg, "", nil
		}
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "triage":
		runTriage()
	case "search":
		runSearch()
	case "chat":
		runChat()
	case "import":
		runImport()
	case "backfill":
		runBackfill()
	case "analytics":
		runAnalytics()
	case "version", "--version", "-v":
		fmt.Printf("smartdesk version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// setup loads config, builds the logger and initializes components for a
// subcommand. It exits the process on failure.
func setup(configPath string, debugFlag bool) (*config.Config, *zap.Logger, *Components) {
	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || debugFlag
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	logger.Debug("config loaded", zap.String("config_path", resolved), zap.Bool("debug", debugMode))

	components, err := initializeComponents(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	return cfg, logger, components
}

func parseFormat(raw string) cli.OutputFormat {
	format, err := cli.ParseOutputFormat(raw)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return format
}

func runServer() {
	fset := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fset.String("config", defaultConfigPath, "config file path")
	debug := fset.Bool("debug", false, "enable debug logging")
	_ = fset.Parse(os.Args[2:])

	cfg, logger, components := setup(*configPath, *debug)
	defer logger.Sync()
	defer components.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := components.Tickets.SeedSLA(ctx, cfg.SLA); err != nil {
		logger.Fatal("Failed to seed SLA settings", zap.Error(err))
	}
	cannedSvc, err := components.openCanned(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to open canned responses", zap.Error(err))
	}

	srv := server.NewServer(server.Services{
		Triage:    components.Triage,
		Search:    components.Search,
		Indexer:   components.Indexer,
		Articles:  components.Storage,
		Tickets:   components.Tickets,
		Analytics: components.Analytics,
		Canned:    cannedSvc,
		Assist:    components.Assist,
		Gatherer:  components.Registry,
	}, &cfg.Server, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	if len(cfg.Watch.Directories) > 0 {
		recursive := cfg.Watch.RecursiveOrDefault()
		for _, dir := range cfg.Watch.Directories {
			if n, err := components.Indexer.ImportDirectory(gctx, dir, cfg.Watch.Extensions, recursive); err != nil {
				logger.Warn("initial import failed", zap.String("dir", dir), zap.Error(err))
			} else {
				logger.Info("initial import finished", zap.String("dir", dir), zap.Int("changed", n))
			}
		}
		w := watcher.NewWatcher(components.Indexer, cfg.Watch.Directories, cfg.Watch.Extensions, recursive,
			watcher.WithLogger(logger))
		g.Go(func() error { return w.Run(gctx) })
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Stop(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server stopped with error", zap.Error(err))
	}
}

func runTriage() {
	fset := flag.NewFlagSet("triage", flag.ExitOnError)
	configPath := fset.String("config", defaultConfigPath, "config file path")
	subject := fset.String("subject", "", "ticket subject (defaults to the remaining arguments)")
	body := fset.String("body", "", "ticket description")
	outputFormat := fset.String("output", "text", "output format: text or json")
	_ = fset.Parse(reorderArgs(os.Args[2:]))

	req := models.TriageRequest{Subject: *subject, Body: *body}
	if req.Subject == "" {
		req.Subject = joinArgs(fset.Args())
	}
	format := parseFormat(*outputFormat)

	_, logger, components := setup(*configPath, false)
	defer logger.Sync()
	defer components.Close()

	result, err := components.Triage.Triage(context.Background(), req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Triage failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteTriageResult(os.Stdout, result, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runSearch() {
	fset := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fset.String("config", defaultConfigPath, "config file path")
	topK := fset.Int("top-k", 0, "number of results (0 = configured default)")
	suggest := fset.Bool("suggest", false, "return title suggestions instead of full results")
	outputFormat := fset.String("output", "text", "output format: text or json")
	_ = fset.Parse(reorderArgs(os.Args[2:]))

	query := joinArgs(fset.Args())
	if query == "" {
		fmt.Fprintln(os.Stderr, "Usage: smartdesk search [flags] <query>")
		fset.PrintDefaults()
		os.Exit(1)
	}
	format := parseFormat(*outputFormat)

	_, logger, components := setup(*configPath, false)
	defer logger.Sync()
	defer components.Close()
	ctx := context.Background()

	if *suggest {
		suggestions, err := components.Search.Suggest(ctx, query)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Suggest failed: %v\n", err)
			os.Exit(1)
		}
		for _, s := range suggestions {
			fmt.Printf("%s\t%s\n", s.ID, s.Title)
		}
		return
	}

	response, err := components.Search.Search(ctx, query, *topK)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteSearchResults(os.Stdout, response, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runChat() {
	fset := flag.NewFlagSet("chat", flag.ExitOnError)
	configPath := fset.String("config", defaultConfigPath, "config file path")
	outputFormat := fset.String("output", "text", "output format: text or json")
	_ = fset.Parse(reorderArgs(os.Args[2:]))

	message := joinArgs(fset.Args())
	if message == "" {
		fmt.Fprintln(os.Stderr, "Usage: smartdesk chat [flags] <message>")
		fset.PrintDefaults()
		os.Exit(1)
	}
	format := parseFormat(*outputFormat)

	_, logger, components := setup(*configPath, false)
	defer logger.Sync()
	defer components.Close()

	reply, err := components.Assist.Reply(context.Background(), models.ChatRequest{Message: message})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Chat failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteChatReply(os.Stdout, reply, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runImport() {
	fset := flag.NewFlagSet("import", flag.ExitOnError)
	configPath := fset.String("config", defaultConfigPath, "config file path")
	recursive := fset.Bool("recursive", true, "descend into subdirectories")
	_ = fset.Parse(reorderArgs(os.Args[2:]))

	cfg, logger, components := setup(*configPath, false)
	defer logger.Sync()
	defer components.Close()

	paths := fset.Args()
	if len(paths) == 0 {
		paths = cfg.Watch.Directories
	}
	if len(paths) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: smartdesk import [flags] <file|dir>...  (or configure watch.directories)")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	n, err := importPaths(ctx, components.Indexer, paths, cfg.Watch.Extensions, *recursive)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Import failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Imported %d changed files\n", n)
}

// importPaths imports each file or directory and returns the number of
// articles created or updated.
func importPaths(ctx context.Context, idx *indexer.Indexer, paths, exts []string, recursive bool) (int, error) {
	total := 0
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return total, fmt.Errorf("failed to stat %s: %w", p, err)
		}
		if info.IsDir() {
			n, err := idx.ImportDirectory(ctx, p, exts, recursive)
			total += n
			if err != nil {
				return total, err
			}
			continue
		}
		_, changed, err := idx.ImportFile(ctx, p, exts)
		if err != nil {
			return total, err
		}
		if changed {
			total++
		}
	}
	return total, nil
}

func runBackfill() {
	fset := flag.NewFlagSet("backfill", flag.ExitOnError)
	configPath := fset.String("config", defaultConfigPath, "config file path")
	outputFormat := fset.String("output", "text", "output format: text or json")
	_ = fset.Parse(os.Args[2:])
	format := parseFormat(*outputFormat)

	_, logger, components := setup(*configPath, false)
	defer logger.Sync()
	defer components.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	report, err := components.Indexer.Backfill(ctx)
	if report != nil {
		if werr := cli.WriteBackfillReport(os.Stdout, report, format); werr != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", werr)
		}
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Backfill stopped: %v\n", err)
		os.Exit(1)
	}
}

func runAnalytics() {
	fset := flag.NewFlagSet("analytics", flag.ExitOnError)
	configPath := fset.String("config", defaultConfigPath, "config file path")
	outputFormat := fset.String("output", "text", "output format: text or json")
	_ = fset.Parse(os.Args[2:])
	format := parseFormat(*outputFormat)

	_, logger, components := setup(*configPath, false)
	defer logger.Sync()
	defer components.Close()

	summary, err := components.Analytics.Summary(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Analytics failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteAnalytics(os.Stdout, summary, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

// joinArgs joins positional args with spaces so multi-word input works with
// or without shell quoting.
func joinArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// reorderArgs moves flags that follow positional arguments to the front so
// flag.Parse sees them; the flag package stops at the first non-flag.
func reorderArgs(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

func printUsage() {
	fmt.Println(`smartdesk - Helpdesk knowledge retrieval and ticket triage

Usage:
  smartdesk server [flags]             Start the HTTP API (and the knowledge-base watcher)
  smartdesk triage [flags] <subject>   Classify a ticket into a queue and priority
  smartdesk search [flags] <query>     Search knowledge articles
  smartdesk chat [flags] <message>     Ask the assistant, answered from knowledge articles
  smartdesk import [flags] <path>...   Import files or directories as articles
  smartdesk backfill [flags]           Embed articles that have no vector yet
  smartdesk analytics [flags]          Show SLA compliance, FCR rate and agent workload
  smartdesk version                    Show version
  smartdesk help                       Show this help

Common Flags:
  --config string    Config file path (default: /usr/local/etc/smartdesk/config.yaml,
                     or ./config.yaml when present)
  --output string    Output format: text or json (triage, search, chat, backfill, analytics)

Server Flags:
  --debug            Enable debug logging

Triage Flags:
  --subject string   Ticket subject (default: remaining arguments)
  --body string      Ticket description

Search Flags:
  --top-k int        Number of results (default from config)
  --suggest          Title suggestions for search-as-you-type

Import Flags:
  --recursive        Descend into subdirectories (default: true)

Environment:
  GEMINI_API_KEY     Enables the LLM classifier, the assistant and Gemini embeddings
                     (variable name set by provider.api_key_env)

Examples:
  smartdesk server
  smartdesk triage --body "Cannot connect, urgent" VPN down
  smartdesk search --top-k 3 reset password
  smartdesk search --output json "printer jam"
  smartdesk chat how do I reset my password
  smartdesk import ~/kb
  smartdesk backfill
  smartdesk analytics --output json`)
}
