package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceRow is one billable activity line, either read from a filled
// timesheet or from the staging table. Optional fields stay nil until
// Normalize derives them.
type InvoiceRow struct {
	ClientID    string
	EmployeeID  string
	ServiceDate time.Time
	ServiceType string

	TravelTime   float64
	DirectTime   float64
	IndirectTime float64

	BillableHours *float64
	HourlyRate    *decimal.Decimal
	TotalHours    *float64
	TotalCosts    *decimal.Decimal
}

// Normalize fills the derived fields:
// billable_hours = direct + indirect (travel time is not billable),
// total_hours = travel + direct + indirect,
// total_costs = billable_hours * hourly_rate when a rate is present.
// Explicitly supplied values are left alone.
func (r *InvoiceRow) Normalize() {
	if r.BillableHours == nil {
		v := r.DirectTime + r.IndirectTime
		r.BillableHours = &v
	}
	if r.TotalHours == nil {
		v := r.TravelTime + r.DirectTime + r.IndirectTime
		r.TotalHours = &v
	}
	if r.TotalCosts == nil && r.HourlyRate != nil {
		v := decimal.NewFromFloat(*r.BillableHours).Mul(*r.HourlyRate)
		r.TotalCosts = &v
	}
}

// Validate checks the fields a staged row must carry
func (r *InvoiceRow) Validate() error {
	if r.ClientID == "" {
		return fmt.Errorf("client_id is empty")
	}
	if r.EmployeeID == "" {
		return fmt.Errorf("employee_id is empty")
	}
	if r.ServiceDate.IsZero() {
		return fmt.Errorf("service_date is missing")
	}
	return nil
}

// IsEmpty reports whether the row carries neither a date nor any worked
// time. Such rows are blank template lines and are skipped on import.
func (r *InvoiceRow) IsEmpty() bool {
	return r.ServiceDate.IsZero() &&
		r.TravelTime+r.DirectTime+r.IndirectTime == 0
}
