// Package core orchestrates the classification run: it obtains a fitted
// model per classifier (cached or fresh), predicts over the full dataset
// and merges every verdict column into the suspicions table.
package core

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Veraticus/quota-hawk/internal/classifier"
	"github.com/Veraticus/quota-hawk/internal/dataset"
	"github.com/Veraticus/quota-hawk/internal/model"
	"github.com/schollz/progressbar/v3"
)

// ModelCache persists fitted models keyed by classifier name. A missing key
// is a miss, not an error.
type ModelCache interface {
	Get(name string) ([]byte, bool, error)
	Put(name string, blob []byte) error
}

// ReportWriter serializes the merged suspicions table. Written exactly
// once, after every classifier has run.
type ReportWriter interface {
	Write(columns []string, rows []model.Suspicion) error
}

// Config holds orchestrator options.
type Config struct {
	// ShowProgress renders a terminal progress bar across classifiers.
	ShowProgress bool
}

// Core runs the registered classifiers in order over one dataset. The
// dataset is shared read-only; each classifier owns exactly one output
// column, so merging needs no synchronization.
type Core struct {
	cache       ModelCache
	writer      ReportWriter
	classifiers []classifier.Classifier
	cfg         Config
}

// New creates an orchestrator. cache and writer may be nil (no caching, no
// report file).
func New(cache ModelCache, writer ReportWriter, cfg Config, cs ...classifier.Classifier) *Core {
	return &Core{
		cache:       cache,
		writer:      writer,
		cfg:         cfg,
		classifiers: cs,
	}
}

// Columns returns the output column names in registration order.
func (c *Core) Columns() []string {
	names := make([]string, len(c.classifiers))
	for i, cl := range c.classifiers {
		names[i] = cl.Name()
	}
	return names
}

// Run executes every classifier and returns the merged suspicions table,
// one row per dataset record. Any fit or predict failure aborts the whole
// run; this is a batch job, partial results would be misleading.
func (c *Core) Run(ctx context.Context, ds *dataset.Dataset) ([]model.Suspicion, error) {
	slog.Info("Starting classification run",
		"records", ds.Len(),
		"classifiers", len(c.classifiers))

	suspicions := make([]model.Suspicion, ds.Len())
	for i := range ds.Records() {
		suspicions[i] = model.NewSuspicion(&ds.Records()[i])
	}

	var bar *progressbar.ProgressBar
	if c.cfg.ShowProgress {
		bar = progressbar.Default(int64(len(c.classifiers)), "classifying")
	}

	for _, cl := range c.classifiers {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if err := c.ensureFitted(cl, ds); err != nil {
			return nil, err
		}
		if err := cl.Transform(ds); err != nil {
			return nil, fmt.Errorf("%s: transform failed: %w", cl.Name(), err)
		}

		verdicts, err := cl.Predict(ds)
		if err != nil {
			return nil, fmt.Errorf("%s: predict failed: %w", cl.Name(), err)
		}
		if len(verdicts) != ds.Len() {
			return nil, fmt.Errorf("%s: got %d verdicts for %d records", cl.Name(), len(verdicts), ds.Len())
		}

		flagged := 0
		for i, v := range verdicts {
			suspicions[i].Set(cl.Name(), v)
			if v.Flagged() {
				flagged++
			}
		}
		slog.Info("Classifier finished", "classifier", cl.Name(), "flagged", flagged)

		if bar != nil {
			_ = bar.Add(1)
		}
	}

	if c.writer != nil {
		if err := c.writer.Write(c.Columns(), suspicions); err != nil {
			return nil, fmt.Errorf("failed to write suspicions: %w", err)
		}
	}

	return suspicions, nil
}

// ensureFitted restores a cached model when allowed, otherwise fits fresh
// and stores the result. Cache trouble never fails the run; refitting is
// always a safe fallback.
func (c *Core) ensureFitted(cl classifier.Classifier, ds *dataset.Dataset) error {
	useCache := c.cache != nil && !cl.AlwaysRefit()

	if useCache {
		blob, ok, err := c.cache.Get(cl.Name())
		if err != nil {
			slog.Warn("Model cache lookup failed", "classifier", cl.Name(), "error", err)
		} else if ok {
			if restoreErr := cl.RestoreModel(blob); restoreErr == nil {
				slog.Debug("Restored cached model", "classifier", cl.Name())
				return nil
			}
			slog.Warn("Cached model unreadable, refitting", "classifier", cl.Name())
		}
	}

	if err := cl.Fit(ds); err != nil {
		return fmt.Errorf("%s: fit failed: %w", cl.Name(), err)
	}

	if useCache {
		blob, err := cl.ModelState()
		if err != nil {
			slog.Warn("Failed to serialize model", "classifier", cl.Name(), "error", err)
			return nil
		}
		if err := c.cache.Put(cl.Name(), blob); err != nil {
			slog.Warn("Failed to cache model", "classifier", cl.Name(), "error", err)
		}
	}
	return nil
}
