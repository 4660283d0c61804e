package mapping

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/wegpiraten/billing/internal/models"
)

// CellSource is the slice of excelize.File the readers need
type CellSource interface {
	GetCellValue(sheet, cell string, opts ...excelize.Options) (string, error)
}

// Header carries the values of the timesheet header block
type Header struct {
	EmployeeName   string
	EmployeeID     string
	ReportingMonth time.Time
	AllowedHours   float64
	ServiceType    string
	ShortCode      string
	ClientID       string
}

// RowReader reads the position band of a filled timesheet into validated
// invoice rows.
type RowReader struct {
	profile ImportProfile
	logger  *zap.Logger
}

// NewRowReader creates a reader for the given import profile
func NewRowReader(profile ImportProfile, logger *zap.Logger) *RowReader {
	return &RowReader{profile: profile, logger: logger}
}

// ReadHeader reads the header block and asserts the key fields once.
// Everything after this check trusts the header.
func (r *RowReader) ReadHeader(f CellSource, sheet string) (*Header, error) {
	cells := r.profile.HeaderCells

	get := func(cell string) string {
		v, err := f.GetCellValue(sheet, cell)
		if err != nil {
			r.logger.Warn("Failed to read header cell",
				zap.String("cell", cell),
				zap.Error(err))
			return ""
		}
		return CellString(v)
	}

	h := &Header{
		EmployeeName: get(cells.EmployeeName),
		EmployeeID:   get(cells.EmployeeID),
		ServiceType:  get(cells.ServiceType),
		ShortCode:    get(cells.ShortCode),
		ClientID:     get(cells.ClientID),
	}
	h.ReportingMonth = CellDate(get(cells.ReportingMonth))
	if v, ok := CellFloat(get(cells.AllowedHours)); ok {
		h.AllowedHours = v
	}

	if h.ClientID == "" {
		return nil, fmt.Errorf("header cell %s: client_id is empty", cells.ClientID)
	}
	if h.EmployeeID == "" {
		return nil, fmt.Errorf("header cell %s: employee_id is empty", cells.EmployeeID)
	}
	if h.ServiceType == "" {
		return nil, fmt.Errorf("header cell %s: service_type is empty", cells.ServiceType)
	}
	return h, nil
}

// ReadRows scans the table range and returns the valid rows. A row with
// neither a service date nor any worked time is a blank template line
// and is silently skipped; a row that fails validation is logged and
// dropped without aborting the file.
func (r *RowReader) ReadRows(f CellSource, sheet string, header *Header) []*models.InvoiceRow {
	rng := r.profile.TableRange
	mp := r.profile.RowMapping

	get := func(col string, row int) string {
		v, err := f.GetCellValue(sheet, fmt.Sprintf("%s%d", col, row))
		if err != nil {
			return ""
		}
		return v
	}

	var rows []*models.InvoiceRow
	for rowIdx := rng.StartRow; rowIdx <= rng.EndRow; rowIdx++ {
		serviceDate := CellDate(get(mp.ServiceDate, rowIdx))
		travel, _ := CellFloat(get(mp.TravelTime, rowIdx))
		direct, _ := CellFloat(get(mp.DirectTime, rowIdx))
		indirect, _ := CellFloat(get(mp.IndirectTime, rowIdx))

		row := &models.InvoiceRow{
			ClientID:     header.ClientID,
			EmployeeID:   header.EmployeeID,
			ServiceDate:  serviceDate,
			ServiceType:  header.ServiceType,
			TravelTime:   travel,
			DirectTime:   direct,
			IndirectTime: indirect,
		}
		if row.IsEmpty() {
			continue
		}
		if row.ServiceDate.IsZero() {
			// hours without a date: keep the row, date it today
			row.ServiceDate = time.Now().UTC().Truncate(24 * time.Hour)
		}
		if billable, ok := CellFloat(get(mp.BillableHours, rowIdx)); ok {
			row.BillableHours = &billable
		}

		row.Normalize()
		if err := row.Validate(); err != nil {
			r.logger.Error("Row validation failed, dropping row",
				zap.Int("row", rowIdx),
				zap.String("sheet", sheet),
				zap.Error(err))
			continue
		}
		rows = append(rows, row)
	}
	return rows
}
