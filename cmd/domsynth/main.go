// CLAUDE:SUMMARY CLI entry point for domsynth: selector synthesis, outlines, batch targets, MCP stdio server.
// Command domsynth synthesises re-locating selectors and size-budgeted
// structure outlines for web pages.
//
// Usage:
//
//	domsynth -html page.html -target 'form button'      # selector pair
//	domsynth -url https://example.com -target '#login'  # same, fetched
//	domsynth -url https://example.com -outline -root main -keys id,role,innerText
//	domsynth -config domsynth.yaml                      # batch targets from YAML
//	domsynth -db targets.db                             # batch targets from SQLite
//	domsynth -db targets.db -watch 5s                   # re-run them when the table changes
//	domsynth -db targets.db -only 'shop-*'              # only targets whose id matches
//	domsynth -mcp                                       # MCP server on stdio
//
// Reports are written to stdout as JSON lines. Logs go to stderr.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	_ "modernc.org/sqlite"

	"github.com/hazyhaar/domsynth/probe"
)

type options struct {
	configPath string
	dbPath     string
	htmlPath   string
	url        string
	mode       string
	target     string
	blocked    string
	outline    bool
	root       string
	keys       string
	limit      int
	noBrowser  bool
	mcp        bool
	watch      time.Duration
	only       string
}

func main() {
	var o options
	flag.StringVar(&o.configPath, "config", "", "path to domsynth.yaml")
	flag.StringVar(&o.dbPath, "db", "", "SQLite database with a probe_targets table (batch mode)")
	flag.StringVar(&o.htmlPath, "html", "", "read the page from an HTML file (- for stdin)")
	flag.StringVar(&o.url, "url", "", "page URL")
	flag.StringVar(&o.mode, "mode", "", "acquisition mode: inline, http, browser, auto")
	flag.StringVar(&o.target, "target", "", "element to synthesise selectors for")
	flag.StringVar(&o.blocked, "blocked", "", "comma separated fragments never to use")
	flag.BoolVar(&o.outline, "outline", false, "emit a structure outline")
	flag.StringVar(&o.root, "root", "", "outline root selector (default: body)")
	flag.StringVar(&o.keys, "keys", "", "outline attribute keys, comma separated")
	flag.IntVar(&o.limit, "limit", 0, "outline size limit in characters")
	flag.BoolVar(&o.noBrowser, "no-browser", false, "never start Chrome")
	flag.BoolVar(&o.mcp, "mcp", false, "serve MCP tools on stdio")
	flag.StringVar(&o.only, "only", "", "batch: comma separated glob patterns on target ids")
	flag.DurationVar(&o.watch, "watch", 0, "with -db: poll the target table at this interval and re-run on change")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	var level slog.Level
	switch *logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx, logger, o)
	stop()
	if errors.Is(err, errUsage) {
		fmt.Fprintln(os.Stderr, "usage: domsynth (-html <file> | -url <url>) (-target <sel> | -outline) | -config <file> | -db <file> | -mcp")
		flag.PrintDefaults()
	} else if err != nil {
		logger.Error("domsynth: fatal", "error", err)
	}
	os.Exit(exitCode(err))
}

// errUsage reports that no mode was selected.
var errUsage = errors.New("domsynth: no mode selected")

func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errUsage):
		return 2
	default:
		return 1
	}
}

func run(ctx context.Context, logger *slog.Logger, o options) error {
	cfg, err := loadConfig(o.configPath)
	if err != nil {
		return err
	}

	if only := probe.SplitList(o.only); len(only) > 0 {
		cfg.Batch.Only = only
	}

	popts := []probe.Option{probe.WithLogger(logger)}
	if o.noBrowser {
		popts = append(popts, probe.WithoutBrowser())
	}
	if o.mcp {
		// stdout carries the protocol.
		var sinks []probe.Sink
		for _, sc := range cfg.Sinks {
			if sc.Type == "file" {
				s, err := probe.NewFileSink(sc.Path)
				if err != nil {
					return err
				}
				sinks = append(sinks, s)
			}
		}
		popts = append(popts, probe.WithSinks(sinks...))
	}

	p, err := probe.New(cfg, popts...)
	if err != nil {
		return err
	}
	defer p.Stop()

	switch {
	case o.mcp:
		return runMCP(ctx, logger, p)
	case o.target != "" || o.outline:
		return runSingle(ctx, p, o)
	case o.dbPath != "":
		return runDB(ctx, p, o.dbPath, o.watch)
	case len(cfg.Targets) > 0:
		return p.RunTargets(ctx, cfg.Targets)
	}

	return errUsage
}

func loadConfig(path string) (*probe.Config, error) {
	if path == "" {
		return probe.DefaultConfig()
	}
	cfg, err := probe.LoadConfigFile(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func runSingle(ctx context.Context, p *probe.Probe, o options) error {
	src := probe.Source{URL: o.url, Mode: probe.Mode(o.mode)}
	if o.htmlPath != "" {
		data, err := readHTML(o.htmlPath)
		if err != nil {
			return err
		}
		src.HTML = string(data)
		if src.Mode == "" {
			src.Mode = probe.ModeInline
		}
	}

	if o.target != "" {
		if _, err := p.Selectors(ctx, probe.SelectorRequest{
			Source:  src,
			Target:  o.target,
			Blocked: probe.SplitList(o.blocked),
		}); err != nil {
			return err
		}
	}
	if o.outline {
		if _, err := p.Structure(ctx, probe.StructureRequest{
			Source: src,
			Root:   o.root,
			Keys:   probe.SplitList(o.keys),
			Limit:  o.limit,
		}); err != nil {
			return err
		}
	}
	return nil
}

func readHTML(path string) ([]byte, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read html: %w", err)
	}
	return data, nil
}

func runDB(ctx context.Context, p *probe.Probe, path string, every time.Duration) error {
	db, err := probe.OpenTargetDB(path)
	if err != nil {
		return err
	}
	defer db.Close()

	if every > 0 {
		return p.WatchTargets(ctx, db, every)
	}

	targets, err := probe.LoadTargets(ctx, db)
	if err != nil {
		return err
	}
	if len(targets) == 0 {
		slog.Warn("domsynth: no active targets", "db", path)
		return nil
	}
	return p.RunTargets(ctx, targets)
}

func runMCP(ctx context.Context, logger *slog.Logger, p *probe.Probe) error {
	srv := mcp.NewServer(&mcp.Implementation{
		Name:    "domsynth",
		Version: "1.0.0",
	}, nil)
	p.RegisterMCP(srv)

	logger.Info("domsynth: MCP server on stdio")
	if err := srv.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		return fmt.Errorf("mcp: %w", err)
	}
	return nil
}
