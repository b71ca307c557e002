// Package store reads pending case events from the RECORTES table and
// writes back the "task created" flag. Every operation opens its own
// connection and closes it before returning.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"casetasker/internal/config"
	"casetasker/internal/records"

	"go.uber.org/zap"
)

// Source is the record source backed by a relational store.
type Source struct {
	dialect dialect
	dsn     string
	cutoff  time.Time
	timeout time.Duration
	logger  *zap.Logger
}

// New creates a Source from cfg. It does not connect.
func New(cfg *config.Config, logger *zap.Logger) (*Source, error) {
	if err := cfg.ValidateStore(); err != nil {
		return nil, err
	}
	d, err := lookupDialect(cfg.Store.Driver)
	if err != nil {
		return nil, err
	}
	cutoff, err := cfg.GetCutoff()
	if err != nil {
		return nil, fmt.Errorf("parse cutoff: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Source{
		dialect: d,
		dsn:     DSN(cfg.Store),
		cutoff:  cutoff,
		timeout: cfg.GetStoreTimeout(),
		logger:  logger,
	}, nil
}

// Dialect returns the configured dialect name.
func (s *Source) Dialect() string {
	return s.dialect.name
}

func (s *Source) open(ctx context.Context) (*sql.DB, error) {
	db, err := sql.Open(s.dialect.driverName, s.dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.dialect.name, err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect %s: %w", s.dialect.name, err)
	}
	return db, nil
}

// FetchPending returns every case event eligible for a task, in store order.
func (s *Source) FetchPending(ctx context.Context) ([]records.CaseEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	db, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, s.dialect.fetchQuery, s.dialect.cutoffArg(s.cutoff))
	if err != nil {
		return nil, fmt.Errorf("query pending records: %w", err)
	}
	defer rows.Close()

	var out []records.CaseEvent
	for rows.Next() {
		var (
			id, divergence any
			caseNumber     sql.NullString
			header         sql.NullString
			meta           []byte
		)
		if err := rows.Scan(&id, &caseNumber, &header, &divergence, &meta); err != nil {
			return nil, fmt.Errorf("scan pending record: %w", err)
		}
		when, err := asTime(divergence)
		if err != nil {
			return nil, fmt.Errorf("record %s: DATA_DIV: %w", asString(id), err)
		}
		out = append(out, records.CaseEvent{
			ID:             asString(id),
			CaseNumber:     caseNumber.String,
			Header:         header.String,
			DivergenceDate: when,
			RawMetadata:    append([]byte(nil), meta...),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending records: %w", err)
	}

	s.logger.Info("pending records fetched",
		zap.Int("count", len(out)),
		zap.String("dialect", s.dialect.name))
	return out, nil
}

// MarkProcessed flags the record as converted to a task. Updating zero rows
// is logged and is not an error; the store treats repeats as no-ops.
func (s *Source) MarkProcessed(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	db, err := s.open(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update of %s: %w", id, err)
	}

	res, err := tx.ExecContext(ctx, s.dialect.markQuery, id)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("update record %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n <= 0 {
		s.logger.Warn("no record updated", zap.String("id", id))
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update of %s: %w", id, err)
	}
	return nil
}

func asString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case int64:
		return strconv.FormatInt(x, 10)
	default:
		return fmt.Sprint(x)
	}
}

var errUnsupportedTime = errors.New("unsupported time value")

func asTime(v any) (time.Time, error) {
	switch x := v.(type) {
	case time.Time:
		return x, nil
	case nil:
		return time.Time{}, nil
	case []byte:
		return asTime(string(x))
	case string:
		for _, layout := range []string{cutoffLayout, "2006-01-02 15:04:05.999999999", time.RFC3339Nano, "2006-01-02"} {
			if t, err := time.ParseInLocation(layout, x, time.Local); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("%w: %q", errUnsupportedTime, x)
	default:
		return time.Time{}, fmt.Errorf("%w: %T", errUnsupportedTime, v)
	}
}
