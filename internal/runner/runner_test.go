package runner

import (
	"context"
	"encoding/csv"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"mercascan/internal/config"
	"mercascan/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

const milkPage = `<html><head><title>Leche Entera</title>
<script>{"currency":"COP"}</script></head><body>
<h1>Leche Entera Alquería 1L</h1>
<p>Alquería</p>
<span>$4.500,00</span>
<h2>Descripción</h2>
<p>Leche entera ultrapasteurizada</p>
</body></html>`

const giftCardPage = `<html><head><title>Tarjeta Regalo</title></head><body>
<h1>Tarjeta regalo de $50</h1>
<span>$50</span>
</body></html>`

func testConfig(t *testing.T, inputDir, outputDir string) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Process.InputDir = inputDir
	cfg.Process.Concurrency = 2
	cfg.Storage.Formats = []string{"csv"}
	cfg.Storage.OutputDir = outputDir
	return cfg
}

func writePage(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestProcessDirEndToEnd(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := t.TempDir()
	writePage(t, inputDir, "milk_001.html", milkPage)
	writePage(t, inputDir, "gift_001.html", giftCardPage)
	writePage(t, inputDir, "notes.txt", "not a page")

	r, err := New(testConfig(t, inputDir, outputDir), testLogger)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	summary, err := r.ProcessDir(context.Background(), inputDir)
	if err != nil {
		t.Fatalf("ProcessDir: %v", err)
	}

	if summary.Pages != 2 {
		t.Errorf("pages = %d, want 2 (txt file must be ignored)", summary.Pages)
	}
	if summary.Kept != 1 || summary.Discarded != 1 {
		t.Errorf("kept/discarded = %d/%d, want 1/1", summary.Kept, summary.Discarded)
	}

	f, err := os.Open(filepath.Join(outputDir, "dataset.csv"))
	if err != nil {
		t.Fatalf("dataset missing: %v", err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want header + 2", len(rows))
	}

	// Sorted dataset: "leche" sorts before "tarjeta".
	milk, err := types.RecordFromRow(rows[0], rows[1])
	if err != nil {
		t.Fatal(err)
	}
	gift, err := types.RecordFromRow(rows[0], rows[2])
	if err != nil {
		t.Fatal(err)
	}
	if gift.Decision == nil || gift.Decision.Verdict != types.VerdictDiscard {
		t.Errorf("gift card decision = %+v, want discard", gift.Decision)
	}
	if milk.Decision == nil || milk.Decision.Category != "leche" {
		t.Errorf("milk decision = %+v", milk.Decision)
	}
	if milk.PriceAmount == nil || *milk.PriceAmount != 4500 {
		t.Errorf("milk price = %v", milk.PriceAmount)
	}
}

func TestProcessDirEmptyCorpus(t *testing.T) {
	r, err := New(testConfig(t, t.TempDir(), t.TempDir()), testLogger)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.ProcessDir(context.Background(), t.TempDir()); err == nil {
		t.Error("expected error for empty corpus")
	}
}

func TestClassifyRoundTrip(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "items.csv")
	output := filepath.Join(dir, "decisions.csv")

	amount := 4500.0
	records := []*types.Record{
		{SourceID: "a", Title: "Leche Entera Alquería 1L", ProductName: "Leche Entera Alquería 1L", PriceAmount: &amount},
		{SourceID: "b", Title: "Destornillador Phillips", ProductName: "Destornillador Phillips"},
	}

	f, err := os.Create(input)
	if err != nil {
		t.Fatal(err)
	}
	w := csv.NewWriter(f)
	w.Write(types.ItemColumns)
	for _, rec := range records {
		w.Write(rec.Row(types.ItemColumns))
	}
	w.Flush()
	f.Close()

	r, err := New(testConfig(t, dir, dir), testLogger)
	if err != nil {
		t.Fatal(err)
	}

	summary, err := r.Classify(input, output)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if summary.Kept != 1 || summary.Discarded != 1 {
		t.Errorf("kept/discarded = %d/%d", summary.Kept, summary.Discarded)
	}

	out, err := os.Open(output)
	if err != nil {
		t.Fatal(err)
	}
	defer out.Close()
	rows, err := csv.NewReader(out).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 || len(rows[0]) != len(types.DecisionColumns) {
		t.Fatalf("rows = %d, header cols = %d", len(rows), len(rows[0]))
	}

	first, err := types.RecordFromRow(rows[0], rows[1])
	if err != nil {
		t.Fatal(err)
	}
	if first.ProductName != "Destornillador Phillips" {
		t.Errorf("first row = %q, want sorted order", first.ProductName)
	}
	if first.Decision == nil || first.Decision.Category != types.CategoryNone {
		t.Errorf("decision = %+v", first.Decision)
	}
}
