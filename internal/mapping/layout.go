package mapping

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/wegpiraten/billing/internal/config"
)

// HeaderCells holds the fixed cell addresses of the timesheet header
// block. The factory writes these cells and the importer reads them, so
// both sides must share one instance built from the same config.
// employee_id and client_id are the join keys; the rest is informative.
type HeaderCells struct {
	EmployeeName   string
	EmployeeID     string
	ReportingMonth string
	AllowedHours   string
	ServiceType    string
	ShortCode      string
	ClientID       string
}

// HeaderCellsFromConfig builds the address set from the templates config
func HeaderCellsFromConfig(cfg config.HeaderCellsConfig) HeaderCells {
	return HeaderCells{
		EmployeeName:   cfg.EmployeeName,
		EmployeeID:     cfg.EmployeeID,
		ReportingMonth: cfg.ReportingMonth,
		AllowedHours:   cfg.AllowedHours,
		ServiceType:    cfg.ServiceType,
		ShortCode:      cfg.ShortCode,
		ClientID:       cfg.ClientID,
	}
}

// RowMapping maps position row fields to their column letters. The
// template has no columns for billable hours overrides or rates; those
// are derived later by InvoiceRow.Normalize.
type RowMapping struct {
	ServiceTime    string
	ServiceDate    string
	TravelTime     string
	TravelDistance string // present in the sheet, not imported
	DirectTime     string
	IndirectTime   string
	BillableHours  string
	Notes          string // present in the sheet, not imported
}

// RowMappingFromConfig builds the column mapping from the templates config
func RowMappingFromConfig(cfg config.RowMappingConfig) RowMapping {
	return RowMapping{
		ServiceTime:    cfg.ServiceTime,
		ServiceDate:    cfg.ServiceDate,
		TravelTime:     cfg.TravelTime,
		TravelDistance: cfg.TravelDistance,
		DirectTime:     cfg.DirectTime,
		IndirectTime:   cfg.IndirectTime,
		BillableHours:  cfg.BillableHours,
		Notes:          cfg.Notes,
	}
}

// TableRange is the inclusive band of position rows in the sheet
type TableRange struct {
	StartRow int
	EndRow   int
	FirstCol string
	LastCol  string
}

// DeriveTableRange splits "A10"/"H28" style cell references into a range
func DeriveTableRange(startCell, endCell string) (TableRange, error) {
	startCol, startRow, err := excelize.SplitCellName(startCell)
	if err != nil {
		return TableRange{}, fmt.Errorf("invalid data start cell %q: %w", startCell, err)
	}
	endCol, endRow, err := excelize.SplitCellName(endCell)
	if err != nil {
		return TableRange{}, fmt.Errorf("invalid data end cell %q: %w", endCell, err)
	}
	if endRow < startRow {
		return TableRange{}, fmt.Errorf("data range %s:%s: end row before start row", startCell, endCell)
	}
	return TableRange{
		StartRow: startRow,
		EndRow:   endRow,
		FirstCol: startCol,
		LastCol:  endCol,
	}, nil
}

// ImportProfile bundles everything needed to read a filled timesheet
type ImportProfile struct {
	SheetName   string // empty means first sheet
	HeaderCells HeaderCells
	RowMapping  RowMapping
	TableRange  TableRange
}

// ProfileFromConfig assembles the import profile from the templates config
func ProfileFromConfig(cfg config.TemplatesConfig) (ImportProfile, error) {
	rng, err := DeriveTableRange(cfg.DataStartCell, cfg.DataEndCell)
	if err != nil {
		return ImportProfile{}, err
	}
	return ImportProfile{
		SheetName:   cfg.TimesheetSheetName,
		HeaderCells: HeaderCellsFromConfig(cfg.HeaderCells),
		RowMapping:  RowMappingFromConfig(cfg.RowMapping),
		TableRange:  rng,
	}, nil
}
