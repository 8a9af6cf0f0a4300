package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"mercascan/internal/config"
	"mercascan/internal/runner"
)

var (
	cfgFile      string
	verbose      bool
	inputDir     string
	outputDir    string
	formats      string
	concurrent   int
	taxonomyPath string
	judgeMode    string
	translateURL string
	urlsFile     string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "mercascan",
		Short: "mercascan — retail page extraction and classification",
		Long: `mercascan turns saved retail product pages from Latin American
storefronts into a structured, classified dataset.

Features:
  • Body-text extraction and noise-line cleaning per page
  • Product, brand, reference, unit and price field heuristics
  • Multi-currency price parsing with country inference
  • Category canonicalization against a configurable taxonomy
  • Heuristic or LLM-backed keep/discard decisions
  • Portuguese→Spanish translation normalization
  • CSV, JSONL, per-record text and MongoDB outputs
  • Prometheus metrics endpoint`,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(processCmd())
	rootCmd.AddCommand(fetchCmd())
	rootCmd.AddCommand(classifyCmd())
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(configCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// processCmd creates the "process" subcommand.
func processCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "process [dir]",
		Short: "Process a corpus of saved product pages",
		Long:  "Extract, normalize and classify every saved page under the corpus directory.",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runProcess,
	}

	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory")
	cmd.Flags().StringVarP(&formats, "format", "f", "", "comma-separated outputs: csv, jsonl, text, mongodb")
	cmd.Flags().IntVarP(&concurrent, "concurrency", "n", 0, "number of concurrent workers")
	cmd.Flags().StringVar(&taxonomyPath, "taxonomy", "", "taxonomy file (yaml)")
	cmd.Flags().StringVar(&judgeMode, "judge", "", "judge mode: heuristic or llm")
	cmd.Flags().StringVar(&translateURL, "translate-endpoint", "", "LibreTranslate endpoint (enables translation)")

	return cmd
}

func runProcess(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyCLIOverrides(cfg)
	logger := setupLogger(cfg)
	if len(args) > 0 {
		cfg.Process.InputDir = args[0]
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger.Info("starting run",
		"input", cfg.Process.InputDir,
		"concurrency", cfg.Process.Concurrency,
		"formats", cfg.Storage.Formats,
		"judge", cfg.Judge.Mode,
	)

	r, err := runner.New(cfg, logger)
	if err != nil {
		return err
	}

	if cfg.Metrics.Enabled {
		if err := r.Metrics().StartServer(cfg.Metrics.Port, cfg.Metrics.Path); err != nil {
			logger.Warn("failed to start metrics server", "error", err)
		}
	}

	ctx, cancel := signalContext(logger)
	defer cancel()

	start := time.Now()
	summary, err := r.ProcessDir(ctx, cfg.Process.InputDir)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	logger.Info("run complete",
		"elapsed", elapsed,
		"pages", summary.Pages,
		"stored", summary.Stored,
		"kept", summary.Kept,
		"discarded", summary.Discarded,
	)

	fmt.Printf("\nRun complete in %s\n", elapsed.Round(time.Millisecond))
	fmt.Printf("   Pages:     %d processed, %d failed\n", summary.Pages, summary.Failed)
	fmt.Printf("   Records:   %d assembled, %d dropped\n", summary.Assembled, summary.Dropped)
	fmt.Printf("   Verdicts:  %d kept, %d discarded\n", summary.Kept, summary.Discarded)
	fmt.Printf("   Output:    %s\n", cfg.Storage.OutputDir)
	return nil
}

// fetchCmd creates the "fetch" subcommand.
func fetchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch [url...]",
		Short: "Download product pages for later processing",
		Long:  "Fetch the given URLs (or a file of URLs) and save the markup into the corpus directory.",
		RunE:  runFetch,
	}

	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "corpus directory to save pages into")
	cmd.Flags().StringVar(&urlsFile, "urls-file", "", "file with one URL per line")
	cmd.Flags().IntVarP(&concurrent, "concurrency", "n", 0, "number of concurrent downloads")

	return cmd
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyCLIOverrides(cfg)
	logger := setupLogger(cfg)
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	urls := append([]string(nil), args...)
	if urlsFile != "" {
		fromFile, err := readURLs(urlsFile)
		if err != nil {
			return err
		}
		urls = append(urls, fromFile...)
	}
	if len(urls) == 0 {
		return fmt.Errorf("no URLs given: pass them as arguments or via --urls-file")
	}

	r, err := runner.New(cfg, logger)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(logger)
	defer cancel()

	summary, err := r.FetchURLs(ctx, urls, cfg.Process.InputDir)
	if err != nil {
		return err
	}

	fmt.Printf("Fetched %d pages (%d failed) into %s\n",
		summary.Pages-summary.Failed, summary.Failed, cfg.Process.InputDir)
	return nil
}

// classifyCmd creates the "classify" subcommand.
func classifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify <items.csv> <decisions.csv>",
		Short: "Re-judge an existing item dataset",
		Long:  "Attach fresh category and keep/discard decisions to an already-extracted dataset.",
		Args:  cobra.ExactArgs(2),
		RunE:  runClassify,
	}

	cmd.Flags().StringVar(&taxonomyPath, "taxonomy", "", "taxonomy file (yaml)")
	cmd.Flags().StringVar(&judgeMode, "judge", "", "judge mode: heuristic or llm")

	return cmd
}

func runClassify(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyCLIOverrides(cfg)
	logger := setupLogger(cfg)
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	r, err := runner.New(cfg, logger)
	if err != nil {
		return err
	}

	summary, err := r.Classify(args[0], args[1])
	if err != nil {
		return err
	}

	fmt.Printf("Classified %d records: %d kept, %d discarded\n",
		summary.Stored, summary.Kept, summary.Discarded)
	return nil
}

// versionCmd creates the "version" subcommand.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("mercascan %s\n", config.Version)
		},
	}
}

// configCmd creates the "config" subcommand for inspecting configuration.
func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			fmt.Printf("Process:\n")
			fmt.Printf("  Input Dir:        %s\n", cfg.Process.InputDir)
			fmt.Printf("  Concurrency:      %d\n", cfg.Process.Concurrency)
			fmt.Printf("  Request Timeout:  %s\n", cfg.Process.RequestTimeout)
			fmt.Printf("  Max Retries:      %d\n", cfg.Process.MaxRetries)
			fmt.Printf("  User Agents:      %d configured\n", len(cfg.Process.UserAgents))
			fmt.Printf("\nFetcher:\n")
			fmt.Printf("  Type:             %s\n", cfg.Fetcher.Type)
			fmt.Printf("  Follow Redirects: %v\n", cfg.Fetcher.FollowRedirects)
			fmt.Printf("  Max Body Size:    %d bytes\n", cfg.Fetcher.MaxBodySize)
			fmt.Printf("\nTaxonomy:\n")
			fmt.Printf("  Path:             %s\n", orDefault(cfg.Taxonomy.Path, "(built-in)"))
			fmt.Printf("\nTranslator:\n")
			fmt.Printf("  Enabled:          %v\n", cfg.Translator.Enabled)
			fmt.Printf("  Endpoint:         %s\n", cfg.Translator.Endpoint)
			fmt.Printf("  Direction:        %s→%s\n", cfg.Translator.Source, cfg.Translator.Target)
			fmt.Printf("\nJudge:\n")
			fmt.Printf("  Mode:             %s\n", cfg.Judge.Mode)
			fmt.Printf("  Provider:         %s\n", cfg.Judge.Provider)
			fmt.Printf("\nStorage:\n")
			fmt.Printf("  Formats:          %s\n", strings.Join(cfg.Storage.Formats, ", "))
			fmt.Printf("  Output Dir:       %s\n", cfg.Storage.OutputDir)
			fmt.Printf("\nMetrics:\n")
			fmt.Printf("  Enabled:          %v\n", cfg.Metrics.Enabled)
			fmt.Printf("  Port:             %d\n", cfg.Metrics.Port)
			return nil
		},
	}
}

// setupLogger creates a structured logger per the logging config, with
// the --verbose flag forcing debug level.
func setupLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Logging.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	out := os.Stderr
	if cfg.Logging.Output == "stdout" {
		out = os.Stdout
	}

	var handler slog.Handler
	if cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}
	return slog.New(handler)
}

// applyCLIOverrides applies command-line flag values to the config.
func applyCLIOverrides(cfg *config.Config) {
	if inputDir != "" {
		cfg.Process.InputDir = inputDir
	}
	if concurrent > 0 {
		cfg.Process.Concurrency = concurrent
	}
	if outputDir != "" {
		cfg.Storage.OutputDir = outputDir
	}
	if formats != "" {
		var list []string
		for _, f := range strings.Split(formats, ",") {
			if f = strings.TrimSpace(strings.ToLower(f)); f != "" {
				list = append(list, f)
			}
		}
		cfg.Storage.Formats = list
	}
	if taxonomyPath != "" {
		cfg.Taxonomy.Path = taxonomyPath
	}
	if judgeMode != "" {
		cfg.Judge.Mode = judgeMode
	}
	if translateURL != "" {
		cfg.Translator.Enabled = true
		cfg.Translator.Endpoint = translateURL
	}
}

// signalContext cancels on SIGINT/SIGTERM.
func signalContext(logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down...", "signal", sig)
		cancel()
	}()
	return ctx, cancel
}

// readURLs loads one URL per line, skipping blanks and comments.
func readURLs(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open urls file: %w", err)
	}
	defer f.Close()

	var urls []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	return urls, scanner.Err()
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
