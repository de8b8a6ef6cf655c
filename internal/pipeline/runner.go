// Package pipeline runs the emissions data-integration stages in strict
// dependency order: ingest → ownership → apa → integrate. Each stage reads
// its fixed inputs, regenerates its outputs wholesale, and records a row in
// the run ledger. Any stage error halts the run.
package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/open-asset-data/asset-pipeline/internal/config"
	"github.com/open-asset-data/asset-pipeline/internal/model"
	"github.com/open-asset-data/asset-pipeline/internal/store"
)

// Stage names, in execution order.
const (
	StageIngest    = "ingest"
	StageOwnership = "ownership"
	StageAPA       = "apa"
	StageIntegrate = "integrate"
)

// Output file names under the configured output directory.
const (
	PlantsFile      = "plants.csv"
	MappingFile     = "ownership_mapping.csv"
	MismatchesFile  = "ownership_mismatches.csv"
	APAFile         = "steel_apa_emissions.csv"
	MultiSourceFile = "steel_multi_source.csv"
	ComparisonFile  = "steel_multi_source_comparison.csv"
	DefaultsFile    = "steel_defaults.csv"
)

// Runner executes pipeline stages and records them in the run ledger.
type Runner struct {
	cfg   *config.Config
	store store.Store
	log   *zap.Logger
}

func NewRunner(cfg *config.Config, st store.Store) *Runner {
	return &Runner{
		cfg:   cfg,
		store: st,
		log:   zap.L().With(zap.String("component", "pipeline")),
	}
}

// Stages returns the stage names in dependency order.
func Stages() []string {
	return []string{StageIngest, StageOwnership, StageAPA, StageIntegrate}
}

// RunStage executes one stage and returns the number of primary output rows
// it wrote.
func (r *Runner) RunStage(ctx context.Context, name string) (int, error) {
	if err := os.MkdirAll(r.cfg.Output.Dir, 0o755); err != nil {
		return 0, eris.Wrapf(err, "pipeline: create output dir %s", r.cfg.Output.Dir)
	}

	switch name {
	case StageIngest:
		return r.ingest(ctx)
	case StageOwnership:
		return r.ownership(ctx)
	case StageAPA:
		return r.apa(ctx)
	case StageIntegrate:
		return r.integrate(ctx)
	default:
		return 0, eris.Errorf("pipeline: unknown stage %q", name)
	}
}

// Run executes the named stages in order under one ledger run, fail-fast.
// An empty list means all stages.
func (r *Runner) Run(ctx context.Context, names []string) error {
	if len(names) == 0 {
		names = Stages()
	}

	run, err := r.store.CreateRun(ctx)
	if err != nil {
		return err
	}
	r.log.Info("run started", zap.String("run_id", run.ID), zap.Strings("stages", names))

	for _, name := range names {
		if err := r.runRecorded(ctx, run.ID, name); err != nil {
			if ferr := r.store.FinishRun(ctx, run.ID, model.RunStatusFailed, err.Error()); ferr != nil {
				r.log.Error("recording run failure", zap.Error(ferr))
			}
			return eris.Wrapf(err, "pipeline: stage %s", name)
		}
	}

	if err := r.store.FinishRun(ctx, run.ID, model.RunStatusComplete, ""); err != nil {
		return err
	}
	r.log.Info("run complete", zap.String("run_id", run.ID))
	return nil
}

func (r *Runner) runRecorded(ctx context.Context, runID, name string) error {
	stage, err := r.store.StartStage(ctx, runID, name)
	if err != nil {
		return err
	}

	start := time.Now()
	rows, stageErr := r.RunStage(ctx, name)
	elapsed := time.Since(start)

	status := model.RunStatusComplete
	msg := ""
	if stageErr != nil {
		status = model.RunStatusFailed
		msg = stageErr.Error()
	}
	if err := r.store.FinishStage(ctx, stage.ID, status, rows, elapsed, msg); err != nil {
		r.log.Error("recording stage result", zap.Error(err))
	}

	if stageErr != nil {
		return stageErr
	}
	r.log.Info("stage complete",
		zap.String("stage", name),
		zap.Int("rows", rows),
		zap.Duration("elapsed", elapsed))
	return nil
}

func (r *Runner) outPath(name string) string {
	return filepath.Join(r.cfg.Output.Dir, name)
}

// years returns the inclusive analysis year window.
func (r *Runner) years() []int {
	var ys []int
	for y := r.cfg.Pipeline.StartYear; y <= r.cfg.Pipeline.EndYear; y++ {
		ys = append(ys, y)
	}
	return ys
}
