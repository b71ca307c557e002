package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"casetasker/internal/records"

	"go.uber.org/zap"
)

// ReplaySchemaVersion is stored in PRAGMA user_version of replay databases.
const ReplaySchemaVersion = 2

// replaySchema mirrors the columns of dbo.RECORTES that the workflow reads.
const replaySchema = `
CREATE TABLE IF NOT EXISTS RECORTES (
	ID_LAWSYSTEM    INTEGER PRIMARY KEY,
	PROCESSO        TEXT,
	CABECALHO       TEXT,
	TEXTO           TEXT,
	DATA_PUB        DATETIME,
	DATA_DIV        DATETIME,
	BO_SINCRONIZADO TEXT DEFAULT 'S',
	NU_ESTADO       INTEGER DEFAULT 2,
	IS_TAREFA       TEXT DEFAULT 'N',
	METADADOS       BLOB
)`

// column is a replay column added after the first schema version.
type column struct {
	Name string
	Def  string
}

// v1 replay files were exported before the header and metadata columns
// were synchronized.
var replayMigrations = []column{
	{"CABECALHO", "TEXT"},
	{"METADADOS", "BLOB"},
}

// ReplayEvent is a row for a replay database.
type ReplayEvent struct {
	records.CaseEvent
	Text string // TEXTO, matched against the publication markers
}

// InitReplay creates or upgrades the sqlite replay database at path. A
// replay database lets the workflow run against a copy of the pending
// batch with driver "sqlite".
func InitReplay(ctx context.Context, path string, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open replay db: %w", err)
	}
	defer db.Close()

	var version int
	if err := db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read replay schema version: %w", err)
	}

	existed := tableExists(ctx, db, "RECORTES")
	if _, err := db.ExecContext(ctx, replaySchema); err != nil {
		return fmt.Errorf("create replay schema: %w", err)
	}

	applied := 0
	if existed {
		for _, c := range replayMigrations {
			if columnExists(ctx, db, "RECORTES", c.Name) {
				continue
			}
			stmt := fmt.Sprintf("ALTER TABLE RECORTES ADD COLUMN %s %s", c.Name, c.Def)
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("add column %s: %w", c.Name, err)
			}
			applied++
		}
	}

	if version != ReplaySchemaVersion {
		if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", ReplaySchemaVersion)); err != nil {
			return fmt.Errorf("set replay schema version: %w", err)
		}
	}
	logger.Info("replay database ready",
		zap.String("path", path),
		zap.Int("from_version", version),
		zap.Int("columns_added", applied))
	return nil
}

// InsertReplay adds pending events to the replay database at path.
func InsertReplay(ctx context.Context, path string, events ...ReplayEvent) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open replay db: %w", err)
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, e := range events {
		_, err := tx.ExecContext(ctx, `INSERT INTO RECORTES
			(ID_LAWSYSTEM, PROCESSO, CABECALHO, TEXTO, DATA_DIV, METADADOS)
			VALUES (?, ?, ?, ?, ?, ?)`,
			e.ID, e.CaseNumber, e.Header, e.Text, replayTime(e.DivergenceDate), e.RawMetadata)
		if err != nil {
			return fmt.Errorf("insert replay event %s: %w", e.ID, err)
		}
	}
	return tx.Commit()
}

func tableExists(ctx context.Context, db *sql.DB, table string) bool {
	var count int
	err := db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count)
	return err == nil && count > 0
}

func columnExists(ctx context.Context, db *sql.DB, table, name string) bool {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false
	}
	defer rows.Close()
	for rows.Next() {
		var (
			cid, notnull, pk int
			colName, ctype   string
			dflt             any
		)
		if err := rows.Scan(&cid, &colName, &ctype, &notnull, &dflt, &pk); err != nil {
			continue
		}
		if colName == name {
			return true
		}
	}
	return false
}

// replayTime formats t the way DATA_DIV is stored in replay files.
func replayTime(t time.Time) string {
	return t.Format(cutoffLayout)
}
