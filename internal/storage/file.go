package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"mercascan/internal/assemble"
	"mercascan/internal/types"
)

// --- CSV Storage ---

// CSVStorage writes the dataset with a fixed column order. Rows are
// buffered and written sorted on Close, so reruns over the same corpus
// produce byte-identical files.
type CSVStorage struct {
	path    string
	records []*types.Record
	mu      sync.Mutex
	logger  *slog.Logger
}

// NewCSVStorage creates a CSV dataset writer.
func NewCSVStorage(outputPath string, logger *slog.Logger) (*CSVStorage, error) {
	dir := filepath.Dir(outputPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	return &CSVStorage{
		path:   outputPath,
		logger: logger.With("component", "csv_storage"),
	}, nil
}

func (s *CSVStorage) Name() string { return "csv" }

func (s *CSVStorage) Store(records []*types.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, records...)
	s.logger.Debug("records buffered", "count", len(records), "total", len(s.records))
	return nil
}

func (s *CSVStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sort.SliceStable(s.records, func(i, j int) bool {
		pi, si := s.records[i].SortKey()
		pj, sj := s.records[j].SortKey()
		if pi != pj {
			return pi < pj
		}
		return si < sj
	})

	// The decision columns appear as soon as any record was judged;
	// unjudged records in the same file carry empty decision cells.
	columns := types.ItemColumns
	for _, rec := range s.records {
		if rec.Decision != nil {
			columns = types.DecisionColumns
			break
		}
	}

	f, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(columns); err != nil {
		return fmt.Errorf("write CSV header: %w", err)
	}
	for _, rec := range s.records {
		if err := w.Write(rec.Row(columns)); err != nil {
			return fmt.Errorf("write CSV row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}

	s.logger.Info("CSV written", "path", s.path, "records", len(s.records))
	return nil
}

// --- JSONL Storage ---

// JSONLStorage writes records as newline-delimited JSON (streaming).
type JSONLStorage struct {
	path   string
	file   *os.File
	enc    *json.Encoder
	mu     sync.Mutex
	count  int
	logger *slog.Logger
}

// NewJSONLStorage creates a streaming JSONL writer.
func NewJSONLStorage(outputPath string, logger *slog.Logger) (*JSONLStorage, error) {
	dir := filepath.Dir(outputPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return nil, fmt.Errorf("create output file: %w", err)
	}

	return &JSONLStorage{
		path:   outputPath,
		file:   f,
		enc:    json.NewEncoder(f),
		logger: logger.With("component", "jsonl_storage"),
	}, nil
}

func (s *JSONLStorage) Name() string { return "jsonl" }

func (s *JSONLStorage) Store(records []*types.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range records {
		if err := s.enc.Encode(rec); err != nil {
			return fmt.Errorf("encode JSONL: %w", err)
		}
		s.count++
	}
	return nil
}

func (s *JSONLStorage) Close() error {
	s.logger.Info("JSONL written", "path", s.path, "records", s.count)
	if s.file != nil {
		return s.file.Close()
	}
	return nil
}

// --- Text Storage ---

var unsafePathRe = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// TextStorage writes one flat "Etiqueta: valor" text file per record,
// named after the source id.
type TextStorage struct {
	dir    string
	mu     sync.Mutex
	count  int
	logger *slog.Logger
}

// NewTextStorage creates a per-record text exporter.
func NewTextStorage(dir string, logger *slog.Logger) (*TextStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &TextStorage{
		dir:    dir,
		logger: logger.With("component", "text_storage"),
	}, nil
}

func (s *TextStorage) Name() string { return "text" }

func (s *TextStorage) Store(records []*types.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range records {
		name := unsafePathRe.ReplaceAllString(rec.SourceID, "_")
		if name == "" {
			name = fmt.Sprintf("record_%04d", s.count)
		}
		path := filepath.Join(s.dir, name+".txt")
		if err := os.WriteFile(path, []byte(assemble.RenderText(rec)), 0o644); err != nil {
			return fmt.Errorf("write text export: %w", err)
		}
		rec.TxtPath = path
		s.count++
	}
	return nil
}

func (s *TextStorage) Close() error {
	s.logger.Info("text exports written", "dir", s.dir, "records", s.count)
	return nil
}

// NewFileStorage creates the appropriate file-based storage by type.
func NewFileStorage(storageType, outputDir string, logger *slog.Logger) (Storage, error) {
	switch strings.ToLower(storageType) {
	case "csv":
		return NewCSVStorage(filepath.Join(outputDir, "dataset.csv"), logger)
	case "jsonl":
		return NewJSONLStorage(filepath.Join(outputDir, "dataset.jsonl"), logger)
	case "text":
		return NewTextStorage(filepath.Join(outputDir, "txt"), logger)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}
}
