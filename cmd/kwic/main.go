package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gcbaptista/go-kwic/config"
	"github.com/gcbaptista/go-kwic/index"
	"github.com/gcbaptista/go-kwic/internal/alphabetize"
	"github.com/gcbaptista/go-kwic/internal/ingest"
	"github.com/gcbaptista/go-kwic/internal/render"
	"github.com/gcbaptista/go-kwic/store"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "none"
)

// options holds the command-line flags shared by batch and serve mode.
// Zero values mean "use the configuration file or its defaults".
type options struct {
	help        bool
	version     bool
	configPath  string
	parallelism int
	port        string
	dataDir     string
	files       []string
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	serve := len(args) > 0 && args[0] == "serve"
	if serve {
		args = args[1:]
	}

	opts, fs, err := parseFlags(args, stderr)
	if err != nil {
		return 2
	}
	if opts.help {
		printUsage(fs, stdout)
		return 0
	}
	if opts.version {
		fmt.Fprintf(stdout, "go-kwic %s (commit %s)\n", version, commit)
		return 0
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if serve {
		if err := runServer(ctx, cfg); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	if err := runBatch(ctx, cfg, opts.files, stdin, stdout); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func parseFlags(args []string, stderr io.Writer) (*options, *flag.FlagSet, error) {
	opts := &options{}
	fs := flag.NewFlagSet("kwic", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.BoolVar(&opts.help, "help", false, "Show help message")
	fs.BoolVar(&opts.version, "version", false, "Show version information")
	fs.StringVar(&opts.configPath, "config", "", "Path to a YAML configuration file (default: ./kwic.yaml or ./config/kwic.yaml if present)")
	fs.IntVar(&opts.parallelism, "parallelism", 0, "Maximum concurrent sort partitions (0: configured value or GOMAXPROCS)")
	fs.StringVar(&opts.port, "port", "", "Port to run the server on (serve only)")
	fs.StringVar(&opts.dataDir, "data-dir", "", "Directory to store index data (serve only)")

	if err := fs.Parse(args); err != nil {
		return nil, fs, err
	}
	opts.files = fs.Args()
	return opts, fs, nil
}

func printUsage(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprintf(w, "go-kwic - a key word in context index\n\n")
	fmt.Fprintf(w, "Usage:\n")
	fmt.Fprintf(w, "  kwic [options] [FILE...]   Print the ranked circular shifts of FILEs (stdin when none or '-')\n")
	fmt.Fprintf(w, "  kwic serve [options]       Start the HTTP API\n\n")
	fmt.Fprintf(w, "Options:\n")
	fs.SetOutput(w)
	fs.PrintDefaults()
	fmt.Fprintf(w, "\nExamples:\n")
	fmt.Fprintf(w, "  kwic titles.txt                      # Print the index of titles.txt\n")
	fmt.Fprintf(w, "  cat a.txt b.txt | kwic -parallelism 4\n")
	fmt.Fprintf(w, "  kwic serve -port 9000 -data-dir /tmp/kwic\n")
}

// loadConfig reads the configuration and applies flag overrides on top.
func loadConfig(opts *options) (*config.AppConfig, error) {
	cfg, err := config.LoadAppConfig(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.parallelism < 0 {
		return nil, fmt.Errorf("parallelism cannot be negative")
	}
	if opts.parallelism > 0 {
		cfg.Index.Parallelism = opts.parallelism
	}
	if opts.port != "" {
		cfg.Server.Port = opts.port
	}
	if opts.dataDir != "" {
		cfg.Server.DataDir = opts.dataDir
	}
	return cfg, nil
}

// runBatch reads every file in order into one corpus, ranks it and writes the
// result to out. Nothing is written when reading or ranking fails.
func runBatch(ctx context.Context, cfg *config.AppConfig, files []string, stdin io.Reader, out io.Writer) error {
	corpus := store.NewLineStore()
	if _, err := ingest.LoadFiles(ctx, files, stdin, corpus); err != nil {
		return err
	}

	settings := cfg.DefaultIndexSettings("batch")
	orderer := alphabetize.NewOrderer(alphabetize.Options{
		Parallelism:        settings.Parallelism,
		MinShiftsPerWorker: settings.MinShiftsPerWorker,
	})
	kwic, err := index.Build(ctx, corpus, orderer)
	if err != nil {
		return err
	}

	n, err := render.WriteRanking(out, kwic)
	if err != nil {
		return fmt.Errorf("failed to write output after %d lines: %w", n, err)
	}
	log.Printf("Ranked %d shifts of %d lines", n, corpus.LineCount())
	return nil
}
