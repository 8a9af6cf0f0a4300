package runner

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"

	"mercascan/internal/types"
)

// Classify re-judges an existing item dataset: it reads the CSV, attaches a
// fresh decision to every row and writes the decision dataset. Rows keep
// their extracted fields untouched.
func (r *Runner) Classify(inputCSV, outputCSV string) (*Summary, error) {
	f, err := os.Open(inputCSV)
	if err != nil {
		return nil, fmt.Errorf("open input dataset: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read input dataset: %w", err)
	}
	if len(rows) < 1 {
		return nil, fmt.Errorf("input dataset %s is empty", inputCSV)
	}

	header := rows[0]
	records := make([]*types.Record, 0, len(rows)-1)
	for i, row := range rows[1:] {
		rec, err := types.RecordFromRow(header, row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		records = append(records, rec)
	}

	summary := &Summary{Pages: int64(len(records))}
	for _, rec := range records {
		decision := r.verdict.Judge(rec)
		rec.Decision = &decision
		if rec.Decision.Keep() {
			summary.Kept++
		} else {
			summary.Discarded++
		}
	}

	sort.SliceStable(records, func(i, j int) bool {
		pi, si := records[i].SortKey()
		pj, sj := records[j].SortKey()
		if pi != pj {
			return pi < pj
		}
		return si < sj
	})

	out, err := os.Create(outputCSV)
	if err != nil {
		return nil, fmt.Errorf("create output dataset: %w", err)
	}
	defer out.Close()

	w := csv.NewWriter(out)
	if err := w.Write(types.DecisionColumns); err != nil {
		return nil, err
	}
	for _, rec := range records {
		if err := w.Write(rec.Row(types.DecisionColumns)); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}

	summary.Stored = int64(len(records))
	r.logger.Info("classification complete",
		"input", inputCSV, "output", outputCSV,
		"kept", summary.Kept, "discarded", summary.Discarded)
	return summary, nil
}
