package invoice

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/wegpiraten/billing/internal/aggregate"
	"github.com/wegpiraten/billing/internal/config"
	"github.com/wegpiraten/billing/internal/document"
	"github.com/wegpiraten/billing/internal/excel"
	"github.com/wegpiraten/billing/internal/mapping"
	"github.com/wegpiraten/billing/internal/models"
	"github.com/wegpiraten/billing/internal/repository"
	"github.com/wegpiraten/billing/pkg/utils"
)

// Processor drives one monthly billing batch: load, group, render,
// convert, merge, summarize, archive.
type Processor struct {
	cfg       *config.Config
	factory   *Factory
	converter *document.Converter
	summary   *document.SummaryWriter
	logger    *zap.Logger

	staging *repository.StagingRepository
	clients *repository.ClientRepository
	payers  *repository.PayerRepository
}

// NewProcessor creates a batch processor reading from the source workbook
func NewProcessor(cfg *config.Config, factory *Factory, converter *document.Converter,
	summary *document.SummaryWriter, logger *zap.Logger) *Processor {
	return &Processor{
		cfg:       cfg,
		factory:   factory,
		converter: converter,
		summary:   summary,
		logger:    logger,
	}
}

// UseStaging switches the row source to the staging database. Client and
// payer master data fill the columns the workbook export would carry.
func (p *Processor) UseStaging(staging *repository.StagingRepository,
	clients *repository.ClientRepository, payers *repository.PayerRepository) {
	p.staging = staging
	p.clients = clients
	p.payers = payers
}

// Run executes the billing batch for one month. Per-group failures are
// logged and the batch continues; the run fails only when nothing could
// be billed at all.
func (p *Processor) Run(ctx context.Context, month string) error {
	period, err := models.ParseBillingMonth(month)
	if err != nil {
		return err
	}

	tmpDir, err := utils.EnsureDir(p.cfg.TmpDir())
	if err != nil {
		return err
	}
	outputDir, err := utils.EnsureDir(p.cfg.OutputDir())
	if err != nil {
		return err
	}
	if err := utils.ClearDir(tmpDir); err != nil {
		return err
	}

	table, err := p.loadRows(period)
	if err != nil {
		return err
	}
	if err := table.CheckConsistency(p.cfg.Columns); err != nil {
		return fmt.Errorf("source data check failed: %w", err)
	}
	if len(table.Rows) == 0 {
		return fmt.Errorf("no billable rows for %s", period.MonthDot())
	}

	groups := aggregate.GroupRows(table.Rows, p.cfg.Columns.PayerKey, p.cfg.Columns.ClientKey)
	p.logger.Info("Billing batch started",
		zap.String("month", period.MonthDot()),
		zap.Int("rows", len(table.Rows)),
		zap.Int("payers", len(groups)))

	invoiceDate := time.Now()
	costColumn := p.cfg.Columns.CostColumn()
	var (
		entries    []document.SummaryEntry
		mergedPDFs []string
	)
	for _, payerGroup := range groups {
		var clientPDFs []string
		for _, clientGroup := range payerGroup.Clients {
			pdf, entry, err := p.processClient(ctx, period, invoiceDate, payerGroup.Key, clientGroup, tmpDir, costColumn)
			if err != nil {
				p.logger.Error("Invoice failed, continuing batch",
					zap.String("payer", payerGroup.Key),
					zap.String("client", clientGroup.Key),
					zap.Error(err))
				continue
			}
			clientPDFs = append(clientPDFs, pdf)
			entries = append(entries, entry)
		}
		if len(clientPDFs) == 0 {
			p.logger.Warn("No invoices for payer", zap.String("payer", payerGroup.Key))
			continue
		}

		merged := filepath.Join(outputDir,
			fmt.Sprintf("Rechnungen_%s_%s.pdf", payerGroup.Key, period.MonthDot()))
		if err := document.MergePDFs(clientPDFs, merged); err != nil {
			p.logger.Error("Merge failed, continuing batch",
				zap.String("payer", payerGroup.Key),
				zap.Error(err))
			continue
		}
		mergedPDFs = append(mergedPDFs, merged)
		p.logger.Info("Payer invoices merged",
			zap.String("payer", payerGroup.Key),
			zap.Int("invoices", len(clientPDFs)))
	}

	if len(entries) == 0 {
		return fmt.Errorf("billing batch produced no invoices for %s", period.MonthDot())
	}

	summaryPath, err := p.summary.Write(entries, outputDir)
	if err != nil {
		return err
	}

	zipPath := filepath.Join(outputDir, fmt.Sprintf("Rechnungen_%s_bis_%s.zip",
		period.Start.Format("02.01.2006"), period.End.Format("02.01.2006")))
	if err := document.ZipFiles(append(mergedPDFs, summaryPath), zipPath); err != nil {
		return err
	}

	p.logger.Info("Billing batch finished",
		zap.String("month", period.MonthDot()),
		zap.Int("invoices", len(entries)),
		zap.String("archive", filepath.Base(zipPath)))
	return nil
}

// processClient renders, converts and verifies one client invoice
func (p *Processor) processClient(ctx context.Context, period models.MonthPeriod,
	invoiceDate time.Time, payerKey string, group aggregate.ClientGroup,
	tmpDir, costColumn string) (string, document.SummaryEntry, error) {

	first := group.Rows[0]
	ictx := &Context{
		InvoiceID:        NewInvoiceID(period, group.Key),
		InvoiceDate:      invoiceDate,
		InvoiceMonth:     period.MonthDot(),
		PeriodStart:      period.Start,
		PeriodEnd:        period.End,
		ServiceRequester: fieldValue(first, p.cfg.Columns.General, "service_requester"),
		CareType:         fieldValue(first, p.cfg.Columns.General, "care_type"),
		Provider:         p.provider(),
		Payer:            payerFromRow(first, payerKey, p.cfg.Columns.Payer),
		Client:           clientFromRow(first, group.Key, p.cfg.Columns.Client),
		Positions:        aggregate.Positions(group.Rows, p.cfg.Columns.PositionColumns()),
		Totals:           aggregate.Totals(group.Rows, p.cfg.Columns.SumColumns()),
	}

	docx, err := p.factory.Render(ictx)
	if err != nil {
		return "", document.SummaryEntry{}, err
	}

	pdfName := fmt.Sprintf("Rechnung_%s_%s_%s", payerKey, group.Key, period.MonthDot())
	pdf, err := p.converter.ToPDF(ctx, docx, tmpDir, pdfName)
	if err != nil {
		return "", document.SummaryEntry{}, err
	}
	if err := document.Verify(pdf); err != nil {
		return "", document.SummaryEntry{}, err
	}

	entry := document.SummaryEntry{
		InvoiceDate:  invoiceDate,
		PayerKey:     payerKey,
		ClientKey:    group.Key,
		InvoiceMonth: period.MonthDot(),
		TotalCosts:   ictx.CostTotal(costColumn),
	}
	return pdf, entry, nil
}

// provider builds the service provider entity from the configuration
func (p *Processor) provider() *models.Payer {
	return models.NewPayer(models.Entity{
		Name:    p.cfg.Provider.Name,
		Street:  p.cfg.Provider.Street,
		ZipCity: p.cfg.Provider.ZipCity,
	}, p.cfg.Provider.IBAN)
}

// loadRows loads the billing rows from the configured source
func (p *Processor) loadRows(period models.MonthPeriod) (*excel.Table, error) {
	if p.staging != nil {
		return p.loadFromStaging(period)
	}
	return p.loadFromWorkbook(period)
}

// loadFromWorkbook reads the pivot export and keeps the rows of the
// billing month. Exports usually hold exactly one month; the filter
// guards against stale rows.
func (p *Processor) loadFromWorkbook(period models.MonthPeriod) (*excel.Table, error) {
	table, err := excel.LoadSourceTable(p.cfg.SourceWorkbookPath(), p.cfg.Database.SheetName)
	if err != nil {
		return nil, err
	}

	dateColumn := ""
	for _, spec := range p.cfg.Columns.General {
		if spec.Type == "date" {
			dateColumn = spec.Name
			break
		}
	}
	if dateColumn == "" {
		return table, nil
	}

	kept := table.Rows[:0]
	skipped := 0
	for _, row := range table.Rows {
		d := mapping.CellDate(row[dateColumn])
		if d.IsZero() || !period.Contains(d) {
			skipped++
			continue
		}
		kept = append(kept, row)
	}
	if skipped > 0 {
		p.logger.Warn("Rows outside billing month skipped",
			zap.String("month", period.MonthDot()),
			zap.Int("skipped", skipped))
	}
	table.Rows = kept
	return table, nil
}

// loadFromStaging rebuilds the source table shape from the staging
// database, joining client and payer master data for the entity columns.
func (p *Processor) loadFromStaging(period models.MonthPeriod) (*excel.Table, error) {
	rows, err := p.staging.ListByPeriod(period)
	if err != nil {
		return nil, err
	}

	cols := p.cfg.Columns
	table := &excel.Table{Columns: columnNames(cols)}
	clientCache := make(map[string]*models.Client)
	payerCache := make(map[string]*models.Payer)

	for _, row := range rows {
		client, ok := clientCache[row.ClientID]
		if !ok {
			client, err = p.clients.GetByID(row.ClientID)
			if err != nil {
				return nil, err
			}
			clientCache[row.ClientID] = client
		}
		if client == nil {
			p.logger.Warn("Staged row references unknown client, skipping",
				zap.String("client_id", row.ClientID))
			continue
		}
		payer, ok := payerCache[client.PayerID]
		if !ok {
			payer, err = p.payers.GetByID(client.PayerID)
			if err != nil {
				return nil, err
			}
			payerCache[client.PayerID] = payer
		}
		if payer == nil {
			p.logger.Warn("Client references unknown payer, skipping",
				zap.String("client_id", row.ClientID),
				zap.String("payer_id", client.PayerID))
			continue
		}

		out := make(map[string]string, len(table.Columns))
		out[cols.PayerKey] = payer.Key
		out[cols.ClientKey] = client.Key
		for _, spec := range cols.Payer {
			out[spec.Name] = payerField(payer, spec.Field)
		}
		for _, spec := range cols.Client {
			out[spec.Name] = clientField(client, spec.Field)
		}
		for _, spec := range cols.General {
			out[spec.Name] = stagedField(row, spec)
		}
		table.Rows = append(table.Rows, out)
	}
	return table, nil
}

// columnNames lists all configured column names, grouping keys included
func columnNames(cols config.ColumnsConfig) []string {
	specs := cols.AllColumns()
	names := make([]string, 0, len(specs)+2)
	names = append(names, cols.PayerKey, cols.ClientKey)
	for _, spec := range specs {
		if spec.Name == cols.PayerKey || spec.Name == cols.ClientKey {
			continue
		}
		names = append(names, spec.Name)
	}
	return names
}

// fieldValue returns the cell of the column mapped to the given field
func fieldValue(row aggregate.Row, specs []config.ColumnSpec, field string) string {
	for _, spec := range specs {
		if spec.Field == field {
			return row[spec.Name]
		}
	}
	return ""
}

// payerFromRow builds the payer entity from a source row
func payerFromRow(row aggregate.Row, key string, specs []config.ColumnSpec) *models.Payer {
	e := models.Entity{Key: key}
	for _, spec := range specs {
		applyEntityField(&e, spec.Field, row[spec.Name])
	}
	return models.NewPayer(e, "")
}

// clientFromRow builds the client entity from a source row
func clientFromRow(row aggregate.Row, key string, specs []config.ColumnSpec) *models.Client {
	e := models.Entity{Key: key}
	var firstName, lastName, birthDate, ssn string
	for _, spec := range specs {
		v := row[spec.Name]
		switch spec.Field {
		case "first_name":
			firstName = v
		case "last_name":
			lastName = v
		case "birth_date":
			birthDate = v
		case "social_security_number":
			ssn = v
		default:
			applyEntityField(&e, spec.Field, v)
		}
	}
	return models.NewClient(e, firstName, lastName, birthDate, ssn)
}

// applyEntityField writes one value into the matching entity field
func applyEntityField(e *models.Entity, field, value string) {
	switch field {
	case "name":
		e.Name = value
	case "name_2":
		e.Name2 = value
	case "street":
		e.Street = value
	case "zip":
		e.Zip = value
	case "city":
		e.City = value
	case "zip_city":
		e.ZipCity = value
	}
}

// payerField renders one payer master data field as a table cell
func payerField(p *models.Payer, field string) string {
	switch field {
	case "name":
		return p.Name
	case "name_2":
		return p.Name2
	case "street":
		return p.Street
	case "zip":
		return p.Zip
	case "city":
		return p.City
	case "zip_city":
		return p.ZipCity
	}
	return ""
}

// clientField renders one client master data field as a table cell
func clientField(c *models.Client, field string) string {
	switch field {
	case "name":
		return c.Name
	case "first_name":
		return c.FirstName
	case "last_name":
		return c.LastName
	case "birth_date":
		return c.BirthDate
	case "social_security_number":
		return c.SocialSecurityNumber
	case "street":
		return c.Street
	case "zip":
		return c.Zip
	case "city":
		return c.City
	case "zip_city":
		return c.ZipCity
	}
	return ""
}

// stagedField renders one staged row field per the column spec format
func stagedField(row *models.InvoiceRow, spec config.ColumnSpec) string {
	formatFloat := func(v float64) string {
		return strconv.FormatFloat(v, 'f', spec.Decimals, 64)
	}
	switch spec.Field {
	case "client_id":
		return row.ClientID
	case "employee_id":
		return row.EmployeeID
	case "service_date":
		return row.ServiceDate.Format("02.01.2006")
	case "service_type":
		return row.ServiceType
	case "travel_time":
		return formatFloat(row.TravelTime)
	case "direct_time":
		return formatFloat(row.DirectTime)
	case "indirect_time":
		return formatFloat(row.IndirectTime)
	case "billable_hours":
		if row.BillableHours != nil {
			return formatFloat(*row.BillableHours)
		}
	case "hourly_rate":
		if row.HourlyRate != nil {
			return row.HourlyRate.StringFixed(int32(spec.Decimals))
		}
	case "total_hours":
		if row.TotalHours != nil {
			return formatFloat(*row.TotalHours)
		}
	case "total_costs":
		if row.TotalCosts != nil {
			return row.TotalCosts.StringFixed(int32(spec.Decimals))
		}
	}
	return ""
}
