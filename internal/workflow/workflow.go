// Package workflow runs one batch: fetch the pending records, open and
// authenticate a browser session, then create one task per record in
// fetch order.
package workflow

import (
	"context"
	"errors"
	"fmt"

	"casetasker/internal/browser"
	"casetasker/internal/config"
	"casetasker/internal/logging"
	"casetasker/internal/lookup"
	"casetasker/internal/processor"
	"casetasker/internal/records"
	"casetasker/internal/session"

	"go.uber.org/zap"
)

var (
	ErrAuthFailed   = errors.New("initial authentication failed")
	ErrReauthFailed = errors.New("re-authentication failed")
)

// RecordSource is the store as the workflow sees it.
type RecordSource interface {
	FetchPending(ctx context.Context) ([]records.CaseEvent, error)
	MarkProcessed(ctx context.Context, id string) error
}

// TableLoader loads the office-assignment table from path.
type TableLoader func(path string) (*lookup.Table, error)

// Summary counts what a run did.
type Summary struct {
	Fetched int
	Results []processor.Result
	Reauths int
	Skipped int
}

func (s *Summary) add(r processor.Result) {
	s.Results = append(s.Results, r)
}

// Count returns how many results had outcome o.
func (s Summary) Count(o processor.Outcome) int {
	n := 0
	for _, r := range s.Results {
		if r.Outcome == o {
			n++
		}
	}
	return n
}

// Workflow wires the store, the browser and the lookup table for one run.
type Workflow struct {
	cfg       *config.Config
	source    RecordSource
	opener    browser.Opener
	loadTable TableLoader
	procOpts  []processor.Option
	logs      *logging.Filter
}

// Option customizes a Workflow.
type Option func(*Workflow)

// WithTableLoader replaces lookup.Load.
func WithTableLoader(l TableLoader) Option {
	return func(w *Workflow) { w.loadTable = l }
}

// WithProcessorOptions passes options to every Processor the run builds.
func WithProcessorOptions(opts ...processor.Option) Option {
	return func(w *Workflow) { w.procOpts = append(w.procOpts, opts...) }
}

// WithLogFilter routes component loggers through f.
func WithLogFilter(f *logging.Filter) Option {
	return func(w *Workflow) { w.logs = f }
}

// New returns a Workflow. logger may be nil.
func New(cfg *config.Config, source RecordSource, opener browser.Opener, logger *zap.Logger, opts ...Option) *Workflow {
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &Workflow{
		cfg:       cfg,
		source:    source,
		opener:    opener,
		loadTable: lookup.Load,
		logs:      logging.NewFilter(logger, cfg.Logging),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run processes the pending batch once. The browser is closed exactly once
// on every path that opened it. A store fetch failure counts as an empty
// batch and is not returned.
func (w *Workflow) Run(ctx context.Context) (Summary, error) {
	var sum Summary
	log := w.logs.Get(logging.CategoryWorkflow)

	batch, err := w.source.FetchPending(ctx)
	if err != nil {
		w.logs.Get(logging.CategoryStore).Error("fetch pending records failed", zap.Error(err))
		batch = nil
	}
	sum.Fetched = len(batch)
	if len(batch) == 0 {
		log.Info("no pending records")
		return sum, nil
	}
	log.Info("pending records", zap.Int("count", len(batch)))

	driver, err := w.opener.Open(ctx)
	if err != nil {
		return sum, fmt.Errorf("open browser: %w", err)
	}
	defer func() {
		if err := driver.Close(); err != nil {
			w.logs.Get(logging.CategoryBrowser).Warn("browser close failed", zap.Error(err))
		}
	}()

	ctrl := session.New(w.cfg, driver, w.logs.Get(logging.CategorySession))
	if !ctrl.Authenticate(ctx) {
		sum.Skipped = len(batch)
		return sum, ErrAuthFailed
	}

	table, err := w.loadTable(w.cfg.Lookup.Path)
	if err != nil {
		sum.Skipped = len(batch)
		return sum, fmt.Errorf("load lookup table: %w", err)
	}
	w.logs.Get(logging.CategoryLookup).Info("lookup table loaded",
		zap.String("path", table.Source()), zap.Int("rows", table.Len()))

	proc := processor.New(w.cfg, driver, table, w.source, w.logs.Get(logging.CategoryProcessor), w.procOpts...)

	for i, rec := range batch {
		if err := ctx.Err(); err != nil {
			sum.Skipped = len(batch) - i
			return sum, err
		}

		res := proc.Process(ctx, rec)
		sum.add(res)
		if !res.NeedsReauth() || ctx.Err() != nil {
			continue
		}

		sum.Reauths++
		log.Warn("re-authenticating after unexpected failure", zap.String("id", rec.ID))
		if !ctrl.Authenticate(ctx) {
			sum.Skipped = len(batch) - i - 1
			return sum, fmt.Errorf("%w after record %s", ErrReauthFailed, rec.ID)
		}
	}
	if err := ctx.Err(); err != nil {
		log.Warn("batch interrupted", zap.Error(err))
		return sum, err
	}

	log.Info("batch finished",
		zap.Int("created", sum.Count(processor.OutcomeCreated)),
		zap.Int("failed", len(sum.Results)-sum.Count(processor.OutcomeCreated)))
	return sum, nil
}
