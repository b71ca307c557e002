package lookup

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// writeWorkbook saves rows into Sheet1 of a new workbook under t.TempDir().
func writeWorkbook(t *testing.T, rows [][]string) string {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	for r, row := range rows {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue("Sheet1", cell, v))
		}
	}

	path := filepath.Join(t.TempDir(), "DE_PARA_ESCRITORIO_RESPONSAVEL.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestLoad(t *testing.T) {
	path := writeWorkbook(t, [][]string{
		{"Responsável", "Envolvido", "Escritório", "Observação"},
		{"Coordenação Cível", "Dra. Ana", "Escritório Centro / Cível", ""},
		{"Trabalhista", "Dr. Bruno", "Escritório Norte / Trabalhista", "temporário"},
		{"Coordenação Cível", "Dr. Duplicado", "Outro", ""},
	})

	table, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, table.Len())
	assert.Equal(t, path, table.Source())

	row, ok := table.Resolve("Coordenação Cível")
	require.True(t, ok)
	assert.Equal(t, "Dra. Ana", row.InvolvedParty, "first match wins")
	assert.Equal(t, "Escritório Centro / Cível", row.Office)
}

func TestLoad_ColumnOrderIndependent(t *testing.T) {
	path := writeWorkbook(t, [][]string{
		{"Escritório", " Responsável ", "Envolvido"},
		{"Escritório Sul", "Tributário", "Dr. Caio"},
	})

	table, err := Load(path)
	require.NoError(t, err)

	row, ok := table.Resolve("Tributário")
	require.True(t, ok)
	assert.Equal(t, OfficeAssignment{ResponsiblePartyKey: "Tributário", InvolvedParty: "Dr. Caio", Office: "Escritório Sul"}, row)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.xlsx"))
		assert.True(t, errors.Is(err, ErrNotFound), "got %v", err)
	})

	t.Run("missing column", func(t *testing.T) {
		path := writeWorkbook(t, [][]string{{"Responsável", "Envolvido"}, {"A", "B"}})
		_, err := Load(path)
		assert.ErrorIs(t, err, ErrMissingColumn)
	})
}

func TestResolve(t *testing.T) {
	table := New(
		OfficeAssignment{ResponsiblePartyKey: "Cível", InvolvedParty: "Dra. Ana", Office: "Centro"},
		OfficeAssignment{ResponsiblePartyKey: "Família", InvolvedParty: "", Office: "Leste"},
	)

	tests := []struct {
		name    string
		key     string
		want    OfficeAssignment
		matched bool
	}{
		{
			name:    "exact match",
			key:     "Cível",
			want:    OfficeAssignment{ResponsiblePartyKey: "Cível", InvolvedParty: "Dra. Ana", Office: "Centro"},
			matched: true,
		},
		{
			name: "case sensitive",
			key:  "cível",
			want: OfficeAssignment{ResponsiblePartyKey: "cível", InvolvedParty: DefaultInvolvedParty, Office: DefaultOffice},
		},
		{
			name: "absent",
			key:  "Penal",
			want: OfficeAssignment{ResponsiblePartyKey: "Penal", InvolvedParty: DefaultInvolvedParty, Office: DefaultOffice},
		},
		{
			name:    "blank cell falls back per field",
			key:     "Família",
			want:    OfficeAssignment{ResponsiblePartyKey: "Família", InvolvedParty: DefaultInvolvedParty, Office: "Leste"},
			matched: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := table.ResolveOrDefault(tt.key)
			assert.Equal(t, tt.matched, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve_EmptyAndNil(t *testing.T) {
	_, ok := New().Resolve("x")
	assert.False(t, ok)

	var nilTable *Table
	got, ok := nilTable.ResolveOrDefault("x")
	assert.False(t, ok)
	assert.Equal(t, DefaultOffice, got.Office)
	assert.Equal(t, 0, nilTable.Len())
}
