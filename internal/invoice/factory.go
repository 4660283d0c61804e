package invoice

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	docx "github.com/lukasjarosch/go-docx"
	"go.uber.org/zap"

	"github.com/wegpiraten/billing/internal/config"
)

// Factory renders filled invoice documents from the Word template
type Factory struct {
	templatePath   string
	slipImageEntry string
	tmpDir         string
	columns        config.ColumnsConfig
	dateFormat     string
	slip           *SlipRenderer
	logger         *zap.Logger
}

// NewFactory creates an invoice factory. The template must exist; this
// is checked once here, not per invoice.
func NewFactory(cfg *config.Config, slip *SlipRenderer, logger *zap.Logger) (*Factory, error) {
	templatePath := filepath.Join(cfg.TemplateDir(), cfg.Templates.InvoiceTemplate)
	if _, err := os.Stat(templatePath); err != nil {
		return nil, fmt.Errorf("invoice template not found: %s", templatePath)
	}
	return &Factory{
		templatePath:   templatePath,
		slipImageEntry: cfg.Templates.SlipImageEntry,
		tmpDir:         cfg.TmpDir(),
		columns:        cfg.Columns,
		dateFormat:     "02.01.2006",
		slip:           slip,
		logger:         logger,
	}, nil
}

// Render fills the Word template with the invoice context and writes the
// result as a DOCX into the temp directory. The payment slip PNG is
// rendered first and swapped in for the template's placeholder image.
func (fa *Factory) Render(ctx *Context) (string, error) {
	doc, err := docx.Open(fa.templatePath)
	if err != nil {
		return "", fmt.Errorf("failed to open invoice template: %w", err)
	}

	if err := doc.ReplaceAll(fa.placeholders(ctx)); err != nil {
		return "", fmt.Errorf("failed to fill invoice template: %w", err)
	}

	outPath := filepath.Join(fa.tmpDir, fmt.Sprintf("invoice_%s.docx", uuid.NewString()))
	if err := doc.WriteToFile(outPath); err != nil {
		return "", fmt.Errorf("failed to write invoice document: %w", err)
	}

	slipPNG := filepath.Join(fa.tmpDir, fmt.Sprintf("slip_%s.png", uuid.NewString()))
	if err := fa.slip.Render(ctx, fa.columns.CostColumn(), slipPNG); err != nil {
		return "", err
	}
	defer os.Remove(slipPNG)

	if err := replaceDocxImage(outPath, fa.slipImageEntry, slipPNG); err != nil {
		return "", err
	}

	fa.logger.Debug("Invoice rendered",
		zap.String("invoice_id", ctx.InvoiceID),
		zap.String("docx", filepath.Base(outPath)))
	return outPath, nil
}

// placeholders builds the template replacement map. Position rows are
// rendered as one tab-separated block; the template lays them out in a
// fixed-width table cell.
func (fa *Factory) placeholders(ctx *Context) docx.PlaceholderMap {
	m := docx.PlaceholderMap{
		"invoice_id":        ctx.InvoiceID,
		"invoice_date":      ctx.InvoiceDate.Format(fa.dateFormat),
		"invoice_month":     ctx.InvoiceMonth,
		"start_inv_period":  ctx.PeriodStart.Format(fa.dateFormat),
		"end_inv_period":    ctx.PeriodEnd.Format(fa.dateFormat),
		"service_requester": ctx.ServiceRequester,
		"care_type":         ctx.CareType,

		"provider_name":     ctx.Provider.Name,
		"provider_street":   ctx.Provider.Street,
		"provider_zip_city": ctx.Provider.ZipCity,
		"provider_iban":     ctx.Provider.IBAN,

		"payer_key":      ctx.Payer.Key,
		"payer_name":     ctx.Payer.Name,
		"payer_name_2":   ctx.Payer.Name2,
		"payer_street":   ctx.Payer.Street,
		"payer_zip_city": ctx.Payer.ZipCity,

		"client_key":        ctx.Client.Key,
		"client_name":       ctx.Client.Name,
		"client_street":     ctx.Client.Street,
		"client_zip_city":   ctx.Client.ZipCity,
		"client_birth_date": ctx.Client.BirthDate,
		"client_ssn":        ctx.Client.SocialSecurityNumber,

		"positions": fa.positionBlock(ctx.Positions),
	}
	for _, col := range fa.columns.SumColumns() {
		key := "sum_" + normalizeKey(col.Name)
		m[key] = ctx.Totals[col.Name].StringFixed(int32(col.Decimals))
	}
	return m
}

// positionBlock renders the position rows in column-spec order
func (fa *Factory) positionBlock(positions []map[string]string) string {
	cols := fa.columns.PositionColumns()
	lines := make([]string, 0, len(positions))
	for _, pos := range positions {
		fields := make([]string, 0, len(cols))
		for _, col := range cols {
			fields = append(fields, pos[col.Name])
		}
		lines = append(lines, strings.Join(fields, "\t"))
	}
	return strings.Join(lines, "\n")
}

// normalizeKey lowercases a column name into a placeholder-safe key
func normalizeKey(name string) string {
	s := strings.ToLower(name)
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, ".", "")
	return s
}
