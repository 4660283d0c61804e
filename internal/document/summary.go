package document

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// summarySheet is the sheet and table name of the overview workbook
const summarySheet = "Rechnungsübersicht"

// SummaryEntry is one line of the invoice overview workbook
type SummaryEntry struct {
	InvoiceDate  time.Time
	PayerKey     string
	ClientKey    string
	InvoiceMonth string
	TotalCosts   decimal.Decimal
}

// SummaryWriter writes the per-run invoice overview workbook
type SummaryWriter struct {
	currencyFormat string
	dateFormat     string
	logger         *zap.Logger
}

// NewSummaryWriter creates a summary writer with the configured formats
func NewSummaryWriter(currencyFormat, dateFormat string, logger *zap.Logger) *SummaryWriter {
	if currencyFormat == "" {
		currencyFormat = `#,##0.00 "CHF"`
	}
	if dateFormat == "" {
		dateFormat = "DD.MM.YY"
	}
	return &SummaryWriter{
		currencyFormat: currencyFormat,
		dateFormat:     dateFormat,
		logger:         logger,
	}
}

// Write renders the overview as a styled Excel table with a grand total
// below the amount column and returns the written file path.
func (w *SummaryWriter) Write(entries []SummaryEntry, outputDir string) (string, error) {
	if len(entries) == 0 {
		return "", fmt.Errorf("no invoices to summarize")
	}

	// All invoices of one run should share a billing month; flag mixed runs.
	month := entries[0].InvoiceMonth
	for _, e := range entries[1:] {
		if e.InvoiceMonth != month {
			w.logger.Warn("Summary contains multiple billing months",
				zap.String("first", month),
				zap.String("other", e.InvoiceMonth))
			month = "gemischt"
			break
		}
	}

	f := excelize.NewFile()
	defer f.Close()
	f.SetSheetName(f.GetSheetName(0), summarySheet)

	headers := []string{"Rechnungsdatum", "ZD-Nr", "Klienten-Nr", "Abrechnungsmonat", "Rechnungsbetrag"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(summarySheet, cell, h); err != nil {
			return "", fmt.Errorf("failed to write summary header: %w", err)
		}
	}

	dateStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &w.dateFormat})
	if err != nil {
		return "", fmt.Errorf("failed to create date style: %w", err)
	}
	currencyStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &w.currencyFormat})
	if err != nil {
		return "", fmt.Errorf("failed to create currency style: %w", err)
	}

	for i, e := range entries {
		row := i + 2
		amount, _ := e.TotalCosts.Float64()
		values := []interface{}{e.InvoiceDate, e.PayerKey, e.ClientKey, e.InvoiceMonth, amount}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(summarySheet, cell, v); err != nil {
				return "", fmt.Errorf("failed to write summary row %d: %w", row, err)
			}
		}
	}

	lastRow := len(entries) + 1
	if err := f.SetCellStyle(summarySheet, "A2", fmt.Sprintf("A%d", lastRow), dateStyle); err != nil {
		return "", fmt.Errorf("failed to style date column: %w", err)
	}
	if err := f.SetCellStyle(summarySheet, "E2", fmt.Sprintf("E%d", lastRow+1), currencyStyle); err != nil {
		return "", fmt.Errorf("failed to style amount column: %w", err)
	}

	showStripes := true
	if err := f.AddTable(summarySheet, &excelize.Table{
		Range:           fmt.Sprintf("A1:E%d", lastRow),
		Name:            "Rechnungsuebersicht",
		StyleName:       "TableStyleMedium9",
		ShowRowStripes:  &showStripes,
		ShowFirstColumn: false,
		ShowLastColumn:  false,
	}); err != nil {
		return "", fmt.Errorf("failed to add summary table: %w", err)
	}

	totalRow := lastRow + 1
	if err := f.SetCellValue(summarySheet, fmt.Sprintf("D%d", totalRow), "Gesamt"); err != nil {
		return "", fmt.Errorf("failed to write total label: %w", err)
	}
	if err := f.SetCellFormula(summarySheet, fmt.Sprintf("E%d", totalRow),
		fmt.Sprintf("SUM(E2:E%d)", lastRow)); err != nil {
		return "", fmt.Errorf("failed to write total formula: %w", err)
	}

	outPath := filepath.Join(outputDir, fmt.Sprintf("Rechnungsuebersicht_%s.xlsx", month))
	if err := f.SaveAs(outPath); err != nil {
		return "", fmt.Errorf("failed to save summary workbook: %w", err)
	}

	w.logger.Info("Summary workbook written",
		zap.String("file", filepath.Base(outPath)),
		zap.Int("invoices", len(entries)))
	return outPath, nil
}
