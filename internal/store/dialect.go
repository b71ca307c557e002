package store

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"casetasker/internal/config"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/microsoft/go-mssqldb"
	_ "modernc.org/sqlite"
)

// Text markers selecting the publications that need a follow-up task.
// Electronic dispatches the lawyer already acknowledged are excluded.
const (
	markerIntimationList  = "%LISTA DE INTIMAÇÕES%"
	markerDispatch        = "%EXPEDIÇÃO ELETRÔNICA%"
	markerAcknowledged    = "%O SISTEMA REGISTROU CIÊNCIA%"
	markerYouAcknowledged = "%VOCÊ TOMOU CIÊNCIA EM%"
)

// cutoffLayout matches how DATA_DIV is written by the synchronizer.
const cutoffLayout = "2006-01-02 15:04:05"

// dialect carries the statements of one database flavor.
type dialect struct {
	name       string
	driverName string
	fetchQuery string
	markQuery  string
	cutoffArg  func(time.Time) any
}

type fetchParts struct {
	table       string
	textExpr    string // upper-cased TEXTO
	metaSelect  string // METADADOS as bytes
	metaPresent string // METADADOS not empty
	placeholder string
}

func buildFetch(p fetchParts) string {
	return fmt.Sprintf(`
	SELECT ID_LAWSYSTEM, PROCESSO, CABECALHO, DATA_DIV, %[3]s AS METADADOS
	FROM %[1]s
	WHERE BO_SINCRONIZADO = 'S'
	  AND NU_ESTADO = 2
	  AND IS_TAREFA = 'N'
	  AND %[4]s
	  AND (%[2]s LIKE '%[6]s'
	       OR (%[2]s LIKE '%[7]s'
	           AND %[2]s NOT LIKE '%[8]s'
	           AND %[2]s NOT LIKE '%[9]s'))
	  AND DATA_DIV >= %[5]s
	ORDER BY DATA_DIV, ID_LAWSYSTEM`,
		p.table, p.textExpr, p.metaSelect, p.metaPresent, p.placeholder,
		markerIntimationList, markerDispatch, markerAcknowledged, markerYouAcknowledged)
}

var dialects = map[string]dialect{
	"sqlserver": {
		name:       "sqlserver",
		driverName: "sqlserver",
		fetchQuery: buildFetch(fetchParts{
			table:       "dbo.RECORTES",
			textExpr:    "UPPER(CAST(TEXTO AS VARCHAR(MAX)))",
			metaSelect:  "CAST(METADADOS AS VARBINARY(MAX))",
			metaPresent: "CAST(METADADOS AS VARCHAR(MAX)) NOT LIKE ''",
			placeholder: "@p1",
		}),
		markQuery: `UPDATE dbo.RECORTES SET IS_TAREFA = 'S' WHERE ID_LAWSYSTEM = @p1`,
		cutoffArg: func(t time.Time) any { return t },
	},
	"postgres": {
		name:       "postgres",
		driverName: "pgx",
		fetchQuery: buildFetch(fetchParts{
			table:       "recortes",
			textExpr:    "UPPER(TEXTO)",
			metaSelect:  "METADADOS",
			metaPresent: "octet_length(METADADOS) > 0",
			placeholder: "$1",
		}),
		markQuery: `UPDATE recortes SET IS_TAREFA = 'S' WHERE ID_LAWSYSTEM = $1`,
		cutoffArg: func(t time.Time) any { return t },
	},
	"sqlite": {
		name:       "sqlite",
		driverName: "sqlite",
		fetchQuery: buildFetch(fetchParts{
			table:       "RECORTES",
			textExpr:    "UPPER(TEXTO)",
			metaSelect:  "CAST(METADADOS AS BLOB)",
			metaPresent: "length(METADADOS) > 0",
			placeholder: "?",
		}),
		markQuery: `UPDATE RECORTES SET IS_TAREFA = 'S' WHERE ID_LAWSYSTEM = ?`,
		cutoffArg: func(t time.Time) any { return t.Format(cutoffLayout) },
	},
}

func lookupDialect(name string) (dialect, error) {
	d, ok := dialects[strings.ToLower(name)]
	if !ok {
		return dialect{}, fmt.Errorf("unsupported store driver %q", name)
	}
	return d, nil
}

// DSN returns the connection string for cfg. An explicit DSN wins; for
// SQL Server one is assembled from the SQL_* parts.
func DSN(cfg config.StoreConfig) string {
	if cfg.DSN != "" {
		return cfg.DSN
	}
	if cfg.Driver != "sqlserver" {
		return ""
	}
	q := url.Values{}
	q.Set("database", cfg.Database)
	u := &url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     cfg.Server,
		RawQuery: q.Encode(),
	}
	return u.String()
}
