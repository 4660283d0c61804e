// Package excel reads the tabular data sources: the pivot-export source
// workbook (a fixed metadata block above the data table) and named Excel
// Table objects inside master data workbooks.
package excel

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/wegpiraten/billing/internal/config"
	"github.com/wegpiraten/billing/internal/mapping"
)

// metadataRows is the number of rows above the header row in the source
// workbook export.
const metadataRows = 3

// Table holds rows keyed by their header names, headers in sheet order
type Table struct {
	Columns []string
	Rows    []map[string]string
}

// LoadSourceTable reads the source workbook: three metadata rows are
// skipped, the fourth row holds the column headers (the first column is
// a pivot artifact and dropped), everything below is data. "(Leer)"
// markers become empty strings.
func LoadSourceTable(path, sheet string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open source workbook %s: %w", path, err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	raw, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	if len(raw) <= metadataRows {
		return nil, fmt.Errorf("sheet %s: no header row below the metadata block", sheet)
	}

	headerRow := raw[metadataRows]
	if len(headerRow) < 2 {
		return nil, fmt.Errorf("sheet %s: header row has no data columns", sheet)
	}
	columns := make([]string, 0, len(headerRow)-1)
	for _, h := range headerRow[1:] {
		columns = append(columns, mapping.CellString(h))
	}

	table := &Table{Columns: columns}
	for _, rawRow := range raw[metadataRows+1:] {
		row := make(map[string]string, len(columns))
		empty := true
		for i, col := range columns {
			var v string
			if i+1 < len(rawRow) {
				v = mapping.CellString(rawRow[i+1])
			}
			if v != "" {
				empty = false
			}
			row[col] = v
		}
		if empty {
			continue
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

// ReadNamedTable locates an Excel Table object by name across all sheets
// of a workbook and returns its contents, first table row as header.
func ReadNamedTable(path, tableName string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	defer f.Close()

	for _, sheet := range f.GetSheetList() {
		tables, err := f.GetTables(sheet)
		if err != nil {
			continue
		}
		for _, t := range tables {
			if t.Name != tableName {
				continue
			}
			return readRange(f, sheet, t.Range)
		}
	}
	return nil, fmt.Errorf("table %q not found in %s", tableName, path)
}

// readRange reads an A1-style range with its first row as the header
func readRange(f *excelize.File, sheet, ref string) (*Table, error) {
	firstCell, lastCell, ok := splitRange(ref)
	if !ok {
		return nil, fmt.Errorf("invalid table range %q", ref)
	}
	firstCol, firstRow, err := excelize.CellNameToCoordinates(firstCell)
	if err != nil {
		return nil, fmt.Errorf("invalid table range %q: %w", ref, err)
	}
	lastCol, lastRow, err := excelize.CellNameToCoordinates(lastCell)
	if err != nil {
		return nil, fmt.Errorf("invalid table range %q: %w", ref, err)
	}

	readRow := func(rowIdx int) ([]string, error) {
		out := make([]string, 0, lastCol-firstCol+1)
		for col := firstCol; col <= lastCol; col++ {
			cell, err := excelize.CoordinatesToCellName(col, rowIdx)
			if err != nil {
				return nil, err
			}
			v, err := f.GetCellValue(sheet, cell)
			if err != nil {
				return nil, err
			}
			out = append(out, mapping.CellString(v))
		}
		return out, nil
	}

	header, err := readRow(firstRow)
	if err != nil {
		return nil, fmt.Errorf("failed to read table header: %w", err)
	}
	table := &Table{Columns: header}
	for rowIdx := firstRow + 1; rowIdx <= lastRow; rowIdx++ {
		values, err := readRow(rowIdx)
		if err != nil {
			return nil, fmt.Errorf("failed to read table row %d: %w", rowIdx, err)
		}
		row := make(map[string]string, len(header))
		empty := true
		for i, col := range header {
			row[col] = values[i]
			if values[i] != "" {
				empty = false
			}
		}
		if empty {
			continue
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

// splitRange splits "A1:F20" into its corner cells
func splitRange(ref string) (string, string, bool) {
	for i := 0; i < len(ref); i++ {
		if ref[i] == ':' {
			return ref[:i], ref[i+1:], true
		}
	}
	return "", "", false
}

// CheckConsistency verifies once per batch that every expected column is
// present and that every summable column holds numbers. After this check
// the aggregation layer trusts the table.
func (t *Table) CheckConsistency(cols config.ColumnsConfig) error {
	present := make(map[string]bool, len(t.Columns))
	for _, c := range t.Columns {
		present[c] = true
	}
	var missing []string
	for _, spec := range cols.AllColumns() {
		if !present[spec.Name] {
			missing = append(missing, spec.Name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing expected columns: %v", missing)
	}

	for _, spec := range cols.SumColumns() {
		for i, row := range t.Rows {
			v := row[spec.Name]
			if v == "" {
				continue
			}
			if _, ok := mapping.CellFloat(v); !ok {
				return fmt.Errorf("column %q must be numeric, row %d holds %q", spec.Name, i+1, v)
			}
		}
	}
	return nil
}
