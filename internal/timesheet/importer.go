package timesheet

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/wegpiraten/billing/internal/config"
	"github.com/wegpiraten/billing/internal/mapping"
	"github.com/wegpiraten/billing/internal/models"
	"github.com/wegpiraten/billing/internal/repository"
	"github.com/wegpiraten/billing/pkg/database"
	"github.com/wegpiraten/billing/pkg/utils"
)

// importedSubdir is where processed timesheets are moved to
const importedSubdir = "importiert"

// Importer reads filled timesheets from the imports directory into the
// staging database.
type Importer struct {
	cfg     *config.Config
	db      *database.DB
	staging *repository.StagingRepository
	reader  *mapping.RowReader
	logger  *zap.Logger
}

// NewImporter creates a timesheet importer
func NewImporter(cfg *config.Config, db *database.DB, staging *repository.StagingRepository,
	reader *mapping.RowReader, logger *zap.Logger) *Importer {
	return &Importer{
		cfg:     cfg,
		db:      db,
		staging: staging,
		reader:  reader,
		logger:  logger,
	}
}

// Run imports every *.xlsx in the imports directory. month may be empty;
// the billing month is then taken from the first readable file header.
// With replace set, previously staged rows of the month are dropped
// before the first insert. Each file is one transaction; a failed file
// is logged, left in place and the batch continues.
func (im *Importer) Run(month string, replace bool) error {
	files, err := filepath.Glob(filepath.Join(im.cfg.ImportsDir(), "*.xlsx"))
	if err != nil {
		return fmt.Errorf("failed to scan imports directory: %w", err)
	}
	sort.Strings(files)
	if len(files) == 0 {
		return fmt.Errorf("no timesheets found in %s", im.cfg.ImportsDir())
	}

	importedDir, err := utils.EnsureDir(filepath.Join(im.cfg.ImportsDir(), importedSubdir))
	if err != nil {
		return err
	}

	var (
		period     models.MonthPeriod
		havePeriod bool
	)
	if month != "" {
		period, err = models.ParseBillingMonth(month)
		if err != nil {
			return err
		}
		havePeriod = true
	}

	var imported []*models.InvoiceRow
	for _, file := range files {
		rows, fileMonth, err := im.readFile(file)
		if err != nil {
			im.logger.Error("Import failed, file left in place",
				zap.String("file", filepath.Base(file)),
				zap.Error(err))
			continue
		}
		if !havePeriod {
			if fileMonth.IsZero() {
				im.logger.Error("File header carries no reporting month, file left in place",
					zap.String("file", filepath.Base(file)))
				continue
			}
			period = periodOf(fileMonth)
			havePeriod = true
		}
		if replace {
			if err := im.clearPeriod(period); err != nil {
				return err
			}
			replace = false
		}

		if err := im.db.WithTransaction(func(tx *sql.Tx) error {
			_, err := im.staging.InsertRows(tx, rows)
			return err
		}); err != nil {
			im.logger.Error("Insert failed, file left in place",
				zap.String("file", filepath.Base(file)),
				zap.Error(err))
			continue
		}

		moved, err := utils.MoveWithStamp(file, importedDir)
		if err != nil {
			return err
		}
		im.logger.Info("Timesheet imported",
			zap.String("file", filepath.Base(moved)),
			zap.Int("rows", len(rows)))
		imported = append(imported, rows...)
	}

	if len(imported) == 0 {
		return fmt.Errorf("no timesheet rows imported")
	}

	exportPath, err := im.writeExport(imported, period)
	if err != nil {
		return err
	}
	im.logger.Info("Import batch finished",
		zap.String("month", period.MonthISO()),
		zap.Int("rows", len(imported)),
		zap.String("export", filepath.Base(exportPath)))
	return nil
}

// readFile reads one filled timesheet into validated rows
func (im *Importer) readFile(path string) ([]*models.InvoiceRow, time.Time, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to open timesheet: %w", err)
	}
	defer f.Close()

	sheet := im.cfg.Templates.TimesheetSheetName
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	header, err := im.reader.ReadHeader(f, sheet)
	if err != nil {
		return nil, time.Time{}, err
	}
	rows := im.reader.ReadRows(f, sheet, header)
	return rows, header.ReportingMonth, nil
}

// clearPeriod drops previously staged rows of the billing month
func (im *Importer) clearPeriod(period models.MonthPeriod) error {
	return im.db.WithTransaction(func(tx *sql.Tx) error {
		n, err := im.staging.DeleteByPeriod(tx, period)
		if err != nil {
			return err
		}
		if n > 0 {
			im.logger.Info("Replaced staged rows",
				zap.String("month", period.MonthDot()),
				zap.Int64("deleted", n))
		}
		return nil
	})
}

// exportHeaders are the columns of the import export workbook
var exportHeaders = []string{
	"Klient-Nr.", "Mitarbeiter-Nr.", "Datum", "Leistungsart",
	"Wegzeit", "Direkte Zeit", "Indirekte Zeit", "Verrechenbare Stunden", "Total Stunden",
}

// writeExport dumps the imported rows into a review workbook so the
// result of an import run can be checked without opening the database.
func (im *Importer) writeExport(rows []*models.InvoiceRow, period models.MonthPeriod) (string, error) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	for i, h := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return "", fmt.Errorf("failed to write export header: %w", err)
		}
	}
	for i, row := range rows {
		values := []interface{}{
			row.ClientID,
			row.EmployeeID,
			row.ServiceDate.Format("02.01.2006"),
			row.ServiceType,
			row.TravelTime,
			row.DirectTime,
			row.IndirectTime,
			deref(row.BillableHours),
			deref(row.TotalHours),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return "", fmt.Errorf("failed to write export row %d: %w", i+2, err)
			}
		}
	}

	outDir, err := utils.EnsureDir(im.cfg.OutputDir())
	if err != nil {
		return "", err
	}
	outPath := filepath.Join(outDir, fmt.Sprintf("importierte_daten_%s.xlsx", period.MonthISO()))
	if err := f.SaveAs(outPath); err != nil {
		return "", fmt.Errorf("failed to save export workbook: %w", err)
	}
	return outPath, nil
}

// periodOf returns the month period containing t
func periodOf(t time.Time) models.MonthPeriod {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return models.MonthPeriod{Start: start, End: start.AddDate(0, 1, 0).AddDate(0, 0, -1)}
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
