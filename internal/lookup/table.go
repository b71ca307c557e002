// Package lookup loads the responsible-party → office table ("de-para")
// maintained by the legal-ops team as an Excel workbook.
package lookup

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Column headers expected in the first row of the first worksheet.
const (
	ColumnResponsible   = "Responsável"
	ColumnInvolvedParty = "Envolvido"
	ColumnOffice        = "Escritório"
)

// Fallbacks used when a responsible party has no row in the table.
const (
	DefaultInvolvedParty = "Advogado Responsável"
	DefaultOffice        = "Escritório de Advocacia e Advogados Associados / Diretoria"
)

var (
	// ErrNotFound is returned when the workbook does not exist.
	ErrNotFound = errors.New("lookup workbook not found")
	// ErrMissingColumn is returned when a required header is absent.
	ErrMissingColumn = errors.New("lookup workbook is missing a required column")
)

// OfficeAssignment is one row of the table.
type OfficeAssignment struct {
	ResponsiblePartyKey string
	InvolvedParty       string
	Office              string
}

// Default is the assignment used on a lookup miss.
var Default = OfficeAssignment{
	InvolvedParty: DefaultInvolvedParty,
	Office:        DefaultOffice,
}

// Table is an ordered, read-only list of assignments. Keys may repeat; the
// first row wins.
type Table struct {
	rows   []OfficeAssignment
	source string
}

// New builds a table from rows already in memory.
func New(rows ...OfficeAssignment) *Table {
	return &Table{rows: append([]OfficeAssignment(nil), rows...)}
}

// Load reads the first worksheet of the workbook at path.
func Load(path string) (*Table, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("stat lookup workbook: %w", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open lookup workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("lookup workbook %s has no worksheets", path)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read worksheet %q: %w", sheets[0], err)
	}

	t, err := fromRows(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	t.source = path
	return t, nil
}

// fromRows interprets the first row as the header.
func fromRows(rows [][]string) (*Table, error) {
	if len(rows) == 0 {
		return &Table{}, nil
	}

	index := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		name = strings.TrimSpace(name)
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}

	cols := make([]int, 0, 3)
	for _, name := range []string{ColumnResponsible, ColumnInvolvedParty, ColumnOffice} {
		i, ok := index[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingColumn, name)
		}
		cols = append(cols, i)
	}

	cell := func(row []string, i int) string {
		if i < len(row) {
			return row[i]
		}
		return ""
	}

	t := &Table{rows: make([]OfficeAssignment, 0, len(rows)-1)}
	for _, row := range rows[1:] {
		key := cell(row, cols[0])
		if key == "" {
			continue
		}
		t.rows = append(t.rows, OfficeAssignment{
			ResponsiblePartyKey: key,
			InvolvedParty:       cell(row, cols[1]),
			Office:              cell(row, cols[2]),
		})
	}
	return t, nil
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rows)
}

// Source returns the path the table was loaded from, if any.
func (t *Table) Source() string {
	if t == nil {
		return ""
	}
	return t.source
}

// Resolve returns the first row whose key equals key exactly.
func (t *Table) Resolve(key string) (OfficeAssignment, bool) {
	if t == nil {
		return OfficeAssignment{}, false
	}
	for _, row := range t.rows {
		if row.ResponsiblePartyKey == key {
			return row, true
		}
	}
	return OfficeAssignment{}, false
}

// ResolveOrDefault resolves key and falls back to Default on a miss. Blank
// cells in a matched row are filled from Default as well. The boolean
// reports whether a row matched.
func (t *Table) ResolveOrDefault(key string) (OfficeAssignment, bool) {
	row, ok := t.Resolve(key)
	if !ok {
		d := Default
		d.ResponsiblePartyKey = key
		return d, false
	}
	if row.InvolvedParty == "" {
		row.InvolvedParty = DefaultInvolvedParty
	}
	if row.Office == "" {
		row.Office = DefaultOffice
	}
	return row, true
}
