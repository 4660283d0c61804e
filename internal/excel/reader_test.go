package excel

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/wegpiraten/billing/internal/config"
)

// writeSourceWorkbook builds a pivot-style export: three metadata rows,
// a header row, then data.
func writeSourceWorkbook(t *testing.T) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	rows := [][]interface{}{
		{"Export"},
		{"Stand: 01.02.2026"},
		{},
		{"Pivot", "ZDNR", "Klient-Nr.", "Kosten"},
		{"", "ZD1", "K001", "100.50"},
		{"", "ZD1", "(Leer)", "50.00"},
		{},
		{"", "ZD2", "K003", "75.25"},
	}
	for i, row := range rows {
		for j, v := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(sheet, cell, v))
		}
	}

	path := filepath.Join(t.TempDir(), "export.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestLoadSourceTable(t *testing.T) {
	path := writeSourceWorkbook(t)

	table, err := LoadSourceTable(path, "")
	require.NoError(t, err)

	assert.Equal(t, []string{"ZDNR", "Klient-Nr.", "Kosten"}, table.Columns)
	require.Len(t, table.Rows, 3, "empty rows are dropped")
	assert.Equal(t, "K001", table.Rows[0]["Klient-Nr."])
	assert.Equal(t, "", table.Rows[1]["Klient-Nr."], "(Leer) becomes empty")
	assert.Equal(t, "75.25", table.Rows[2]["Kosten"])
}

func TestLoadSourceTable_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := LoadSourceTable(filepath.Join(t.TempDir(), "nope.xlsx"), "")
		assert.Error(t, err)
	})

	t.Run("no data below metadata", func(t *testing.T) {
		f := excelize.NewFile()
		defer f.Close()
		require.NoError(t, f.SetCellValue(f.GetSheetName(0), "A1", "nur titel"))
		path := filepath.Join(t.TempDir(), "empty.xlsx")
		require.NoError(t, f.SaveAs(path))

		_, err := LoadSourceTable(path, "")
		assert.Error(t, err)
	})
}

func TestReadNamedTable(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	values := [][]interface{}{
		{"Klient-Nr.", "Name"},
		{"K001", "Muster"},
		{"K002", "Beispiel"},
	}
	for i, row := range values {
		for j, v := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(sheet, cell, v))
		}
	}
	require.NoError(t, f.AddTable(sheet, &excelize.Table{
		Range: "A1:B3",
		Name:  "Klienten",
	}))
	path := filepath.Join(t.TempDir(), "stammdaten.xlsx")
	require.NoError(t, f.SaveAs(path))

	t.Run("found", func(t *testing.T) {
		table, err := ReadNamedTable(path, "Klienten")
		require.NoError(t, err)
		assert.Equal(t, []string{"Klient-Nr.", "Name"}, table.Columns)
		require.Len(t, table.Rows, 2)
		assert.Equal(t, "Beispiel", table.Rows[1]["Name"])
	})

	t.Run("unknown table", func(t *testing.T) {
		_, err := ReadNamedTable(path, "Unbekannt")
		assert.Error(t, err)
	})
}

func TestTable_CheckConsistency(t *testing.T) {
	cols := config.ColumnsConfig{
		General: []config.ColumnSpec{
			{Name: "Klient-Nr.", Type: "string"},
			{Name: "Kosten", Type: "currency", IsPosition: true, Sum: true},
		},
	}

	t.Run("valid table", func(t *testing.T) {
		table := &Table{
			Columns: []string{"Klient-Nr.", "Kosten"},
			Rows:    []map[string]string{{"Klient-Nr.": "K001", "Kosten": "1'250,50"}},
		}
		assert.NoError(t, table.CheckConsistency(cols))
	})

	t.Run("missing column", func(t *testing.T) {
		table := &Table{Columns: []string{"Klient-Nr."}}
		err := table.CheckConsistency(cols)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Kosten")
	})

	t.Run("non-numeric sum column", func(t *testing.T) {
		table := &Table{
			Columns: []string{"Klient-Nr.", "Kosten"},
			Rows:    []map[string]string{{"Kosten": "viel"}},
		}
		assert.Error(t, table.CheckConsistency(cols))
	})
}
