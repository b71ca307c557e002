// Package processor turns one pending case event into a LawSystem task and
// reports what happened as a Result. It never decides whether the run
// continues; the workflow does that from the Outcome.
package processor

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"casetasker/internal/browser"
	"casetasker/internal/config"
	"casetasker/internal/lookup"
	"casetasker/internal/records"
	"casetasker/internal/taskform"

	"go.uber.org/zap"
)

// Outcome classifies a processed record.
type Outcome int

const (
	// OutcomeCreated: task saved and record marked processed.
	OutcomeCreated Outcome = iota
	// OutcomeUnmarked: task saved but the store update failed; the record
	// stays pending and will be offered again.
	OutcomeUnmarked
	// OutcomeNavigationFailed: the task page never loaded.
	OutcomeNavigationFailed
	// OutcomeNotVerified: the form was submitted but the page check failed.
	OutcomeNotVerified
	// OutcomeFailed: anything unexpected. The session is suspect.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCreated:
		return "created"
	case OutcomeUnmarked:
		return "unmarked"
	case OutcomeNavigationFailed:
		return "navigation_failed"
	case OutcomeNotVerified:
		return "not_verified"
	case OutcomeFailed:
		return "failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Result is the per-record report.
type Result struct {
	RecordID   string
	CaseNumber string
	Outcome    Outcome
	Assignment lookup.OfficeAssignment
	LookupHit  bool
	Err        error
}

// NeedsReauth reports whether the session should be re-established before
// the next record.
func (r Result) NeedsReauth() bool {
	return r.Outcome == OutcomeFailed
}

// Resolver maps a responsible-party key to an office assignment.
type Resolver interface {
	ResolveOrDefault(key string) (lookup.OfficeAssignment, bool)
}

// Marker records a processed record in the store.
type Marker interface {
	MarkProcessed(ctx context.Context, id string) error
}

// Processor creates one task per record.
type Processor struct {
	driver   browser.Driver
	form     *taskform.Form
	resolver Resolver
	marker   Marker
	verifier Verifier
	taskURL  string
	now      func() time.Time
	logger   *zap.Logger
}

// Option customizes a Processor.
type Option func(*Processor)

// WithVerifier replaces the default page check.
func WithVerifier(v Verifier) Option {
	return func(p *Processor) { p.verifier = v }
}

// WithClock sets the time source used for the task dates.
func WithClock(now func() time.Time) Option {
	return func(p *Processor) { p.now = now }
}

// WithChoreography overrides the form timings and values read from config.
func WithChoreography(c taskform.Choreography) Option {
	return func(p *Processor) { p.form = taskform.New(p.driver, c) }
}

// New wires a Processor.
func New(cfg *config.Config, d browser.Driver, resolver Resolver, marker Marker, logger *zap.Logger, opts ...Option) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Processor{
		driver:   d,
		form:     taskform.New(d, taskform.ChoreographyFrom(cfg)),
		resolver: resolver,
		marker:   marker,
		verifier: MissingTextVerifier{},
		taskURL:  cfg.App.TaskURL,
		now:      time.Now,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// TaskURL builds the create-from-andamento address for a record.
func TaskURL(base, recordID, internalCaseID string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse task url: %w", err)
	}
	q := u.Query()
	q.Set("idAnd", recordID)
	q.Set("pId", internalCaseID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Process runs decode, resolve, navigate, fill, verify and mark for rec.
func (p *Processor) Process(ctx context.Context, rec records.CaseEvent) Result {
	res := Result{RecordID: rec.ID, CaseNumber: rec.CaseNumber}
	log := p.logger.With(zap.String("id", rec.ID), zap.String("case", rec.CaseNumber))

	meta, err := rec.DecodeMetadata()
	if err != nil {
		return p.fail(log, res, OutcomeFailed, "metadata decode failed", err)
	}

	res.Assignment, res.LookupHit = p.resolver.ResolveOrDefault(meta.ResponsiblePartyKey)
	if !res.LookupHit {
		log.Warn("lookup miss, using default assignment",
			zap.String("responsible", meta.ResponsiblePartyKey),
			zap.String("office", res.Assignment.Office))
	}

	target, err := TaskURL(p.taskURL, rec.ID, meta.InternalCaseID)
	if err != nil {
		return p.fail(log, res, OutcomeFailed, "task url invalid", err)
	}
	if err := p.driver.Navigate(ctx, target); err != nil {
		return p.fail(log, res, OutcomeNavigationFailed, "navigation to task page failed", err)
	}

	err = p.form.Fill(ctx, taskform.Values{
		Office:        res.Assignment.Office,
		InvolvedParty: res.Assignment.InvolvedParty,
		Today:         p.now(),
	})
	if err != nil {
		return p.fail(log, res, OutcomeFailed, "form fill failed", err)
	}

	ok, err := p.verifier.Verify(ctx, p.driver)
	if err != nil {
		log.Warn("page check unreadable", zap.Error(err))
	}
	if !ok {
		return p.fail(log, res, OutcomeNotVerified, "task creation not confirmed", err)
	}

	if err := p.marker.MarkProcessed(ctx, rec.ID); err != nil {
		return p.fail(log, res, OutcomeUnmarked, "task created but record not marked", err)
	}

	res.Outcome = OutcomeCreated
	log.Info("task created",
		zap.String("involved_party", res.Assignment.InvolvedParty),
		zap.String("office", res.Assignment.Office))
	return res
}

func (p *Processor) fail(log *zap.Logger, res Result, o Outcome, msg string, err error) Result {
	res.Outcome = o
	res.Err = err
	log.Error(msg, zap.Stringer("outcome", o), zap.Error(err))
	return res
}
