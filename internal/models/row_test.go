package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvoiceRow_Normalize(t *testing.T) {
	t.Run("derives billable and total hours", func(t *testing.T) {
		row := &InvoiceRow{
			TravelTime:   0.5,
			DirectTime:   2.0,
			IndirectTime: 1.0,
		}
		row.Normalize()

		require.NotNil(t, row.BillableHours)
		require.NotNil(t, row.TotalHours)
		assert.Equal(t, 3.0, *row.BillableHours, "travel time is not billable")
		assert.Equal(t, 3.5, *row.TotalHours)
		assert.Nil(t, row.TotalCosts, "no rate, no costs")
	})

	t.Run("derives total costs from rate", func(t *testing.T) {
		rate := decimal.NewFromFloat(120.50)
		row := &InvoiceRow{
			DirectTime:   1.5,
			IndirectTime: 0.5,
			HourlyRate:   &rate,
		}
		row.Normalize()

		require.NotNil(t, row.TotalCosts)
		assert.True(t, row.TotalCosts.Equal(decimal.NewFromFloat(241.00)),
			"expected 241.00, got %s", row.TotalCosts)
	})

	t.Run("keeps explicit billable override", func(t *testing.T) {
		override := 1.25
		row := &InvoiceRow{
			DirectTime:    2.0,
			IndirectTime:  2.0,
			BillableHours: &override,
		}
		row.Normalize()

		assert.Equal(t, 1.25, *row.BillableHours)
		assert.Equal(t, 4.0, *row.TotalHours)
	})
}

func TestInvoiceRow_Validate(t *testing.T) {
	valid := InvoiceRow{
		ClientID:    "K001",
		EmployeeID:  "M001",
		ServiceDate: time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
	}

	t.Run("valid row", func(t *testing.T) {
		row := valid
		assert.NoError(t, row.Validate())
	})

	t.Run("missing client", func(t *testing.T) {
		row := valid
		row.ClientID = ""
		assert.Error(t, row.Validate())
	})

	t.Run("missing employee", func(t *testing.T) {
		row := valid
		row.EmployeeID = ""
		assert.Error(t, row.Validate())
	})

	t.Run("missing date", func(t *testing.T) {
		row := valid
		row.ServiceDate = time.Time{}
		assert.Error(t, row.Validate())
	})
}

func TestInvoiceRow_IsEmpty(t *testing.T) {
	assert.True(t, (&InvoiceRow{}).IsEmpty())
	assert.False(t, (&InvoiceRow{DirectTime: 0.25}).IsEmpty(),
		"hours without a date is not a blank line")
	assert.False(t, (&InvoiceRow{
		ServiceDate: time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
	}).IsEmpty(), "a date without hours is not a blank line")
}
