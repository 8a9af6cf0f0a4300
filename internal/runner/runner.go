// Package runner orchestrates extraction runs: it walks a corpus of saved
// product pages (or fetches live ones), assembles records through the
// worker pool, runs the processing pipeline and writes the outputs.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"mercascan/internal/assemble"
	"mercascan/internal/config"
	"mercascan/internal/judge"
	"mercascan/internal/observability"
	"mercascan/internal/pipeline"
	"mercascan/internal/storage"
	"mercascan/internal/taxonomy"
	"mercascan/internal/translate"
	"mercascan/internal/types"
)

// Summary reports what a run did.
type Summary struct {
	Pages     int64
	Failed    int64
	Assembled int64
	Dropped   int64
	Stored    int64
	Kept      int64
	Discarded int64
}

// Runner wires the extraction components for one run.
type Runner struct {
	cfg       *config.Config
	assembler *assemble.Assembler
	pipe      *pipeline.Pipeline
	verdict   judge.Judge
	store     storage.Storage
	metrics   *observability.Metrics
	logger    *slog.Logger
}

// New builds a runner from configuration: taxonomy, judge, translator,
// pipeline stages and storage backends.
func New(cfg *config.Config, logger *slog.Logger) (*Runner, error) {
	tax, err := taxonomy.Load(cfg.Taxonomy.Path)
	if err != nil {
		return nil, fmt.Errorf("load taxonomy: %w", err)
	}

	var translator translate.Translator
	if cfg.Translator.Enabled {
		translator = translate.NewLibreClient(translate.LibreConfig{
			Endpoint:   cfg.Translator.Endpoint,
			APIKey:     cfg.Translator.APIKey,
			Source:     cfg.Translator.Source,
			Target:     cfg.Translator.Target,
			MaxRetries: cfg.Translator.MaxRetries,
		}, logger)
	}
	normalizer := translate.NewNormalizer(translator, logger)

	heuristic := judge.NewHeuristic(tax, logger)
	var verdictJudge judge.Judge = heuristic
	if cfg.Judge.Mode == "llm" {
		client := judge.NewLLMClient(judge.LLMConfig{
			Provider:    judge.LLMProvider(cfg.Judge.Provider),
			Endpoint:    cfg.Judge.Endpoint,
			Model:       cfg.Judge.Model,
			APIKey:      cfg.Judge.APIKey,
			MaxTokens:   512,
			Temperature: cfg.Judge.Temperature,
		}, logger)
		verdictJudge = judge.NewLLMJudge(client, heuristic, logger)
	}

	// Usability triage reads the attached decision, so it must follow the
	// judge stage.
	pipe := pipeline.New(logger)
	pipe.Use(&pipeline.TrimStage{})
	pipe.Use(pipeline.NewTranslateStage(normalizer))
	pipe.Use(pipeline.NewJudgeStage(verdictJudge))
	pipe.Use(pipeline.NewUsabilityStage(cfg.Judge.DropUnusable))
	pipe.Use(pipeline.NewDedupStage())

	store, err := buildStorage(cfg, logger)
	if err != nil {
		return nil, err
	}

	return &Runner{
		cfg:       cfg,
		assembler: assemble.New(logger),
		pipe:      pipe,
		verdict:   verdictJudge,
		store:     store,
		metrics:   observability.NewMetrics(logger),
		logger:    logger.With("component", "runner"),
	}, nil
}

// Metrics exposes the run counters for the metrics endpoint.
func (r *Runner) Metrics() *observability.Metrics { return r.metrics }

func buildStorage(cfg *config.Config, logger *slog.Logger) (storage.Storage, error) {
	var backends []storage.Storage
	for _, format := range cfg.Storage.Formats {
		switch format {
		case "mongodb":
			s, err := storage.NewMongoStorage(
				cfg.Storage.MongoURI, cfg.Storage.MongoDatabase, cfg.Storage.MongoCollection, logger)
			if err != nil {
				return nil, fmt.Errorf("create mongodb storage: %w", err)
			}
			backends = append(backends, s)
		default:
			s, err := storage.NewFileStorage(format, cfg.Storage.OutputDir, logger)
			if err != nil {
				return nil, fmt.Errorf("create %s storage: %w", format, err)
			}
			backends = append(backends, s)
		}
	}
	if len(backends) == 1 {
		return backends[0], nil
	}
	return storage.NewMultiStorage(backends, logger), nil
}

// ProcessDir runs the full pipeline over every saved page in dir.
func (r *Runner) ProcessDir(ctx context.Context, dir string) (*Summary, error) {
	paths, err := listPages(dir)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no html pages found under %s", dir)
	}
	r.logger.Info("processing corpus", "dir", dir, "pages", len(paths))

	jobs := make(chan string)
	results := make(chan *types.Record)
	summary := &Summary{}

	var wg sync.WaitGroup
	for i := 0; i < r.cfg.Process.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				r.metrics.ActiveWorkers.Add(1)
				rec := r.processPage(path)
				r.metrics.ActiveWorkers.Add(-1)
				if rec != nil {
					select {
					case results <- rec:
					case <-ctx.Done():
						return
					}
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, path := range paths {
			select {
			case jobs <- path:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var records []*types.Record
	for rec := range results {
		records = append(records, rec)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	summary.Pages = r.metrics.PagesTotal.Load()
	summary.Failed = r.metrics.PagesFailed.Load()
	summary.Assembled = r.metrics.RecordsAssembled.Load()
	summary.Dropped = r.metrics.RecordsDropped.Load()
	for _, rec := range records {
		if rec.Decision.Keep() {
			summary.Kept++
			r.metrics.RecordsKept.Add(1)
		} else {
			summary.Discarded++
			r.metrics.RecordsDiscarded.Add(1)
		}
	}

	if err := r.store.Store(records); err != nil {
		return nil, fmt.Errorf("store records: %w", err)
	}
	if err := r.store.Close(); err != nil {
		return nil, fmt.Errorf("close storage: %w", err)
	}
	summary.Stored = int64(len(records))
	r.metrics.RecordsStored.Add(summary.Stored)

	return summary, nil
}

// processPage assembles and pipelines a single page. Returns nil when the
// page failed or the pipeline dropped the record.
func (r *Runner) processPage(path string) *types.Record {
	r.metrics.PagesTotal.Add(1)

	raw, err := os.ReadFile(path)
	if err != nil {
		r.metrics.PagesFailed.Add(1)
		r.logger.Warn("read page failed", "path", path, "error", err)
		return nil
	}
	r.metrics.BytesRead.Add(int64(len(raw)))

	sourceID := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	rec, err := r.assembler.Assemble(sourceID, raw)
	if err != nil {
		r.metrics.PagesFailed.Add(1)
		r.logger.Warn("assemble failed", "source_id", sourceID, "error", err)
		return nil
	}
	rec.HTMLPath = path
	r.metrics.RecordsAssembled.Add(1)

	out, err := r.pipe.Process(rec)
	if err != nil {
		r.metrics.PagesFailed.Add(1)
		r.logger.Warn("pipeline failed", "source_id", sourceID, "error", err)
		return nil
	}
	if out == nil {
		r.metrics.RecordsDropped.Add(1)
		return nil
	}
	return out
}

// listPages returns the corpus pages in a stable order.
func listPages(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".html", ".htm":
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk corpus dir: %w", err)
	}
	sort.Strings(paths)
	return paths, nil
}
