// Command pickup-mcp reads photos of pharmacy pick lists and tells the picker
// what to pull and where it is stored.
//
// Usage:
//
//	pickup-mcp                                   # MCP over stdio
//	pickup-mcp -config pickup.yaml -http :8080   # REST API
//	pickup-mcp -import-ref locations.csv -db pickup.db
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/HabtB/Pharmacy-Pickup/internal/assist"
	"github.com/HabtB/Pharmacy-Pickup/internal/config"
	"github.com/HabtB/Pharmacy-Pickup/internal/extract"
	"github.com/HabtB/Pharmacy-Pickup/internal/imaging"
	"github.com/HabtB/Pharmacy-Pickup/internal/locate"
	"github.com/HabtB/Pharmacy-Pickup/internal/logging"
	"github.com/HabtB/Pharmacy-Pickup/internal/ocr"
	"github.com/HabtB/Pharmacy-Pickup/internal/refdata"
	"github.com/HabtB/Pharmacy-Pickup/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle --version and --help before flag parsing, as MCP clients expect
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("pickup-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			usage()
			return
		}
	}

	configPath := flag.String("config", "", "path to pickup.yaml")
	httpAddr := flag.String("http", "", "serve the REST API on this address instead of MCP over stdio")
	importRef := flag.String("import-ref", "", "import a CSV or XLSX reference table into -db and exit")
	dbPath := flag.String("db", "", "SQLite database for -import-ref")
	flag.Usage = usage
	flag.Parse()

	// stdout is for MCP protocol
	logger := logging.New(os.Stderr, logging.ParseLevel(os.Getenv(logging.EnvLevel)))
	logging.SetLogger(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var err error
	if *importRef != "" {
		err = importReference(ctx, *configPath, *importRef, *dbPath)
	} else {
		err = run(ctx, *configPath, *httpAddr)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("pickup-mcp: fatal", "error", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("pickup-mcp - pharmacy pick-list extraction server")
	fmt.Println()
	fmt.Println("Usage: pickup-mcp [options]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version, -v         Print version information")
	fmt.Println("  --help, -h            Print this help message")
	fmt.Println("  -config <path>        YAML configuration file")
	fmt.Println("  -http <addr>          Serve the REST API instead of MCP over stdio")
	fmt.Println("  -import-ref <file>    Import a reference table into -db and exit")
	fmt.Println("  -db <path>            SQLite database for -import-ref")
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Println("  PICKUP_LOG_LEVEL=debug        Log level (debug, info, warn, error)")
	fmt.Println("  PICKUP_REFERENCE_PATH=<file>  Location reference table (csv, xlsx or sqlite)")
	fmt.Println("  PICKUP_ASSIST_ENABLED=true    Verify drug names with an LLM")
	fmt.Println()
	fmt.Println("Without -http the server communicates via MCP protocol over stdin/stdout.")
}

func run(ctx context.Context, configPath, httpAddr string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if httpAddr == "" {
		httpAddr = cfg.HTTP.Addr
	}
	log := logging.Logger()
	log.Info("starting pickup-mcp", "version", Version, "commit", GitCommit)

	var engineOpts []extract.EngineOption
	if cfg.Assist.Enabled {
		checker, err := assist.NewFromConfig(cfg.Assist)
		if err != nil {
			return fmt.Errorf("assist: %w", err)
		}
		engineOpts = append(engineOpts, extract.WithNameChecker(checker))
		log.Info("name verification enabled", "provider", cfg.Assist.Provider, "model", cfg.Assist.Model)
	}
	engine, err := extract.NewEngine(cfg.ExtractOptions(), engineOpts...)
	if err != nil {
		return err
	}

	ref := server.ReferenceInfo{Path: cfg.Reference.Path}
	var rows []locate.ReferenceRow
	if cfg.Reference.Path != "" {
		if rows, err = refdata.Load(ctx, cfg.Reference); err != nil {
			return err
		}
		ref.Kind, _ = cfg.Reference.ResolvedKind()
		ref.Rows = len(rows)
	} else {
		log.Warn("no reference table configured; only refrigerated items will resolve")
	}

	p := cfg.Preprocess
	srv, err := server.New(server.Options{
		Engine:   engine,
		Resolver: locate.NewResolver(rows, cfg.LookupOptions()),
		Reader: ocr.NewEngine(ocr.Options{
			Language:       cfg.OCR.Language,
			TessdataPrefix: cfg.OCR.TessdataPrefix,
		}),
		Preprocess: imaging.PreprocessOptions{
			MinWidth:     p.MinWidth,
			Contrast:     p.Contrast,
			SharpenSigma: p.SharpenSigma,
			Denoise:      p.Denoise,
			Binarize:     p.Binarize,
		},
		SkipPreprocess: p.Disabled,
		Reference:      ref,
		Version:        Version,
	})
	if err != nil {
		return err
	}

	if httpAddr != "" {
		return srv.ListenAndServe(ctx, httpAddr)
	}
	return srv.Run(ctx)
}

// importReference copies a CSV or XLSX reference table into the SQLite store.
func importReference(ctx context.Context, configPath, src, dbPath string) error {
	if dbPath == "" {
		return errors.New("-import-ref requires -db")
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	in := cfg.Reference
	in.Path, in.Kind = src, ""
	rows, err := refdata.Load(ctx, in)
	if err != nil {
		return err
	}

	store, err := refdata.OpenStore(ctx, dbPath, cfg.Reference.Table)
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.Import(ctx, rows); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "imported %d reference rows into %s\n", len(rows), dbPath)
	return nil
}
