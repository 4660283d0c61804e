package timesheet

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/wegpiraten/billing/internal/config"
	"github.com/wegpiraten/billing/internal/excel"
	"github.com/wegpiraten/billing/internal/mapping"
	"github.com/wegpiraten/billing/internal/models"
	"github.com/wegpiraten/billing/internal/secrets"
	"github.com/wegpiraten/billing/pkg/utils"
)

// clientEntity names the entity table config the batch reads from
const clientEntity = "clients"

// Batch creates one timesheet per active client for a billing month
type Batch struct {
	cfg     *config.Config
	factory *Factory
	store   *secrets.Store
	logger  *zap.Logger
}

// NewBatch creates a timesheet batch
func NewBatch(cfg *config.Config, factory *Factory, store *secrets.Store, logger *zap.Logger) *Batch {
	return &Batch{
		cfg:     cfg,
		factory: factory,
		store:   store,
		logger:  logger,
	}
}

// Run creates the timesheets of one month from the client master table.
// A client is active when their exit date is empty or not before the
// month start. Per-client failures are logged and the batch continues.
func (b *Batch) Run(month string) error {
	period, err := models.ParseBillingMonth(month)
	if err != nil {
		return err
	}

	entity, ok := b.cfg.Entities[clientEntity]
	if !ok {
		return fmt.Errorf("entity table %q is not configured", clientEntity)
	}
	table, err := excel.ReadNamedTable(b.cfg.MasterWorkbookPath(), entity.ExcelTable)
	if err != nil {
		return err
	}

	outDir, err := utils.EnsureDir(b.cfg.OutputDir())
	if err != nil {
		return err
	}
	password, err := b.sheetPassword()
	if err != nil {
		return err
	}

	col := func(field string) string { return columnFor(entity.Fields, field) }
	created := 0
	for _, row := range table.Rows {
		if !activeInMonth(row[col("exit_date")], period) {
			continue
		}
		data := SheetData{
			ClientID:     row[col("client_id")],
			ShortCode:    row[col("short_code")],
			EmployeeName: row[col("employee_name")],
			EmployeeID:   row[col("employee_id")],
			ServiceType:  row[col("service_type")],
		}
		if v, ok := mapping.CellFloat(row[col("allowed_hours")]); ok {
			data.AllowedHours = v
		}
		if data.ClientID == "" {
			b.logger.Warn("Client row without client id, skipping")
			continue
		}

		if _, err := b.factory.CreateSheet(data, period, outDir, password); err != nil {
			b.logger.Error("Timesheet failed, continuing batch",
				zap.String("client_id", data.ClientID),
				zap.Error(err))
			continue
		}
		created++
	}

	if created == 0 {
		return fmt.Errorf("no active clients for %s", period.MonthDot())
	}
	b.logger.Info("Timesheet batch finished",
		zap.String("month", period.MonthDot()),
		zap.Int("created", created))
	return nil
}

// sheetPassword resolves the protection password: the encrypted secret
// wins, the plaintext fallback covers setups without a Fernet key.
func (b *Batch) sheetPassword() (string, error) {
	pw, err := b.store.GetDecrypted("SHEET_PASSWORD_ENC")
	if err != nil {
		return "", err
	}
	if pw == "" {
		pw = b.store.Get("SHEET_PASSWORD", "")
	}
	return pw, nil
}

// columnFor resolves the source column name of a target field
func columnFor(fields []config.FieldSpec, field string) string {
	for _, f := range fields {
		if f.Field == field {
			return f.Column
		}
	}
	return ""
}

// activeInMonth reports whether a client with the given exit date still
// receives a timesheet for the period.
func activeInMonth(exitDate string, period models.MonthPeriod) bool {
	if exitDate == "" {
		return true
	}
	d := mapping.CellDate(exitDate)
	if d.IsZero() {
		return true
	}
	return !d.Before(period.Start)
}
