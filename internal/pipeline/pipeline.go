// Package pipeline chains per-record processing stages: translation
// normalization, judgement, usability labeling and dedup run in order over
// each assembled record.
package pipeline

import (
	"log/slog"

	"mercascan/internal/types"
)

// Stage processes a record and returns the (possibly modified) record.
// Return nil to drop the record from the pipeline.
type Stage interface {
	// Name returns the stage's identifier.
	Name() string

	// Process transforms a record. Return nil to drop the record.
	Process(rec *types.Record) (*types.Record, error)
}

// Pipeline chains stages together.
type Pipeline struct {
	stages []Stage
	logger *slog.Logger
}

// New creates a new Pipeline.
func New(logger *slog.Logger) *Pipeline {
	return &Pipeline{
		logger: logger.With("component", "pipeline"),
	}
}

// Use adds a stage to the chain.
func (p *Pipeline) Use(stage Stage) {
	p.stages = append(p.stages, stage)
	p.logger.Debug("stage added", "name", stage.Name(), "position", len(p.stages))
}

// Process runs the record through all stages in order.
func (p *Pipeline) Process(rec *types.Record) (*types.Record, error) {
	current := rec

	for _, stage := range p.stages {
		result, err := stage.Process(current)
		if err != nil {
			return nil, &types.PipelineError{
				Stage:  stage.Name(),
				Record: current,
				Err:    err,
			}
		}
		if result == nil {
			p.logger.Debug("record dropped", "stage", stage.Name(), "source_id", rec.SourceID)
			return nil, nil
		}
		current = result
	}

	return current, nil
}

// Len returns the number of stages in the chain.
func (p *Pipeline) Len() int {
	return len(p.stages)
}
