// Package invoice renders per-client invoices and drives the monthly
// billing batch: group, render, convert, merge, summarize, archive.
package invoice

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wegpiraten/billing/internal/models"
)

// Context carries everything one invoice document needs
type Context struct {
	InvoiceID    string
	InvoiceDate  time.Time
	InvoiceMonth string
	PeriodStart  time.Time
	PeriodEnd    time.Time

	ServiceRequester string
	CareType         string

	Provider *models.Payer
	Payer    *models.Payer
	Client   *models.Client

	Positions []map[string]string
	Totals    map[string]decimal.Decimal
}

// NewInvoiceID builds the invoice number from the billing period and the
// client key: R<MM><YY>_<clientID>.
func NewInvoiceID(period models.MonthPeriod, clientID string) string {
	if clientID == "" {
		clientID = "K000"
	}
	return fmt.Sprintf("R%s_%s", period.Start.Format("0106"), clientID)
}

// CostTotal returns the summed costs of the invoice, zero when the cost
// column was not aggregated.
func (c *Context) CostTotal(costColumn string) decimal.Decimal {
	if c.Totals == nil {
		return decimal.Zero
	}
	return c.Totals[costColumn]
}
