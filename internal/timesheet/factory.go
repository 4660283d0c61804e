// Package timesheet creates monthly timesheet workbooks from the Excel
// template and imports the filled sheets back into the staging database.
package timesheet

import (
	"fmt"
	"path/filepath"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/wegpiraten/billing/internal/mapping"
	"github.com/wegpiraten/billing/internal/models"
)

// monthCellFormat is the number format of the reporting month cell
const monthCellFormat = "MM.YYYY"

// SheetData holds the header values written into one timesheet
type SheetData struct {
	ClientID     string
	ShortCode    string
	EmployeeName string
	EmployeeID   string
	AllowedHours float64
	ServiceType  string
}

// Factory fills the timesheet template for one client and month
type Factory struct {
	templatePath string
	sheetName    string
	cells        mapping.HeaderCells
	logger       *zap.Logger
}

// NewFactory creates a timesheet factory for the given template
func NewFactory(templatePath, sheetName string, cells mapping.HeaderCells, logger *zap.Logger) *Factory {
	return &Factory{
		templatePath: templatePath,
		sheetName:    sheetName,
		cells:        cells,
		logger:       logger,
	}
}

// CreateSheet writes one timesheet into outDir and returns its path.
// The file is named `<clientID> (<code>)_<YYYY-MM>.xlsx` so filled
// sheets sort by client and month in the imports directory. A non-empty
// password re-protects the sheet so only the unlocked entry cells are
// editable.
func (fa *Factory) CreateSheet(data SheetData, period models.MonthPeriod, outDir, password string) (string, error) {
	f, err := excelize.OpenFile(fa.templatePath)
	if err != nil {
		return "", fmt.Errorf("failed to open timesheet template: %w", err)
	}
	defer f.Close()

	sheet := fa.sheetName
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}

	if password != "" {
		// the template may ship protected; writes need it open
		if err := f.UnprotectSheet(sheet, password); err != nil {
			fa.logger.Debug("Template sheet was not protected", zap.Error(err))
		}
	}

	set := func(cell string, value interface{}) error {
		if err := f.SetCellValue(sheet, cell, value); err != nil {
			return fmt.Errorf("failed to write header cell %s: %w", cell, err)
		}
		return nil
	}
	for cell, value := range map[string]interface{}{
		fa.cells.EmployeeName: data.EmployeeName,
		fa.cells.EmployeeID:   data.EmployeeID,
		fa.cells.AllowedHours: data.AllowedHours,
		fa.cells.ServiceType:  data.ServiceType,
		fa.cells.ShortCode:    data.ShortCode,
		fa.cells.ClientID:     data.ClientID,
	} {
		if err := set(cell, value); err != nil {
			return "", err
		}
	}
	if err := set(fa.cells.ReportingMonth, period.Start); err != nil {
		return "", err
	}
	monthFmt := monthCellFormat
	style, err := f.NewStyle(&excelize.Style{CustomNumFmt: &monthFmt})
	if err != nil {
		return "", fmt.Errorf("failed to create month style: %w", err)
	}
	if err := f.SetCellStyle(sheet, fa.cells.ReportingMonth, fa.cells.ReportingMonth, style); err != nil {
		return "", fmt.Errorf("failed to style month cell: %w", err)
	}

	if password != "" {
		if err := f.ProtectSheet(sheet, &excelize.SheetProtectionOptions{
			AlgorithmName:       "SHA-512",
			Password:            password,
			SelectLockedCells:   false,
			SelectUnlockedCells: true,
			FormatCells:         false,
			InsertRows:          false,
			DeleteRows:          false,
			Sort:                false,
			AutoFilter:          false,
		}); err != nil {
			return "", fmt.Errorf("failed to protect sheet: %w", err)
		}
	}

	outPath := filepath.Join(outDir,
		fmt.Sprintf("%s (%s)_%s.xlsx", data.ClientID, data.ShortCode, period.MonthISO()))
	if err := f.SaveAs(outPath); err != nil {
		return "", fmt.Errorf("failed to save timesheet %s: %w", filepath.Base(outPath), err)
	}

	fa.logger.Debug("Timesheet created",
		zap.String("client_id", data.ClientID),
		zap.String("file", filepath.Base(outPath)))
	return outPath, nil
}
