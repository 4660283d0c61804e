package repository

import (
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/wegpiraten/billing/internal/models"
)

// StagingRepository handles the invoice_data staging table
type StagingRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewStagingRepository creates a new staging repository
func NewStagingRepository(db *sql.DB, logger *zap.Logger) *StagingRepository {
	return &StagingRepository{
		db:     db,
		logger: logger,
	}
}

const insertRowQuery = `
	INSERT INTO invoice_data (
		client_id, employee_id, service_date, service_type,
		travel_time, direct_time, indirect_time, billable_hours,
		hourly_rate, total_hours, total_costs
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

// InsertRows inserts all rows within the given transaction. The caller
// owns the transaction; one failed row fails the whole insert so the
// import of a file stays atomic.
func (r *StagingRepository) InsertRows(tx *sql.Tx, rows []*models.InvoiceRow) (int, error) {
	stmt, err := tx.Prepare(insertRowQuery)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	count := 0
	for _, row := range rows {
		_, err := stmt.Exec(
			row.ClientID,
			row.EmployeeID,
			row.ServiceDate.Format("2006-01-02"),
			row.ServiceType,
			row.TravelTime,
			row.DirectTime,
			row.IndirectTime,
			derefFloat(row.BillableHours),
			nullDecimal(row.HourlyRate),
			nullFloat(row.TotalHours),
			nullDecimal(row.TotalCosts),
		)
		if err != nil {
			r.logger.Error("Failed to insert staging row",
				zap.String("client_id", row.ClientID),
				zap.Error(err))
			return count, fmt.Errorf("failed to insert row: %w", err)
		}
		count++
	}
	return count, nil
}

const listByPeriodQuery = `
	SELECT client_id, employee_id, service_date, service_type,
		travel_time, direct_time, indirect_time, billable_hours,
		hourly_rate, total_hours, total_costs
	FROM invoice_data
	WHERE service_date BETWEEN ? AND ?
	ORDER BY client_id, service_date
`

// ListByPeriod returns the staged rows whose service date falls inside
// the billing period.
func (r *StagingRepository) ListByPeriod(period models.MonthPeriod) ([]*models.InvoiceRow, error) {
	rows, err := r.db.Query(listByPeriodQuery,
		period.Start.Format("2006-01-02"),
		period.End.Format("2006-01-02"))
	if err != nil {
		r.logger.Error("Failed to query staging rows", zap.Error(err))
		return nil, fmt.Errorf("failed to query staging rows: %w", err)
	}
	defer rows.Close()

	var out []*models.InvoiceRow
	for rows.Next() {
		row, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate staging rows: %w", err)
	}
	return out, nil
}

const deleteByPeriodQuery = `
	DELETE FROM invoice_data WHERE service_date BETWEEN ? AND ?
`

// DeleteByPeriod removes staged rows of a billing period, used before a
// re-import of the same month.
func (r *StagingRepository) DeleteByPeriod(tx *sql.Tx, period models.MonthPeriod) (int64, error) {
	res, err := tx.Exec(deleteByPeriodQuery,
		period.Start.Format("2006-01-02"),
		period.End.Format("2006-01-02"))
	if err != nil {
		return 0, fmt.Errorf("failed to delete staging rows: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted rows: %w", err)
	}
	return n, nil
}

func scanRow(rows *sql.Rows) (*models.InvoiceRow, error) {
	var (
		row         models.InvoiceRow
		serviceDate string
		billable    float64
		hourlyRate  sql.NullFloat64
		totalHours  sql.NullFloat64
		totalCosts  sql.NullFloat64
	)
	err := rows.Scan(
		&row.ClientID,
		&row.EmployeeID,
		&serviceDate,
		&row.ServiceType,
		&row.TravelTime,
		&row.DirectTime,
		&row.IndirectTime,
		&billable,
		&hourlyRate,
		&totalHours,
		&totalCosts,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan staging row: %w", err)
	}
	row.ServiceDate = mustParseDate(serviceDate)
	row.BillableHours = &billable
	if hourlyRate.Valid {
		d := decimal.NewFromFloat(hourlyRate.Float64)
		row.HourlyRate = &d
	}
	if totalHours.Valid {
		row.TotalHours = &totalHours.Float64
	}
	if totalCosts.Valid {
		d := decimal.NewFromFloat(totalCosts.Float64)
		row.TotalCosts = &d
	}
	row.Normalize()
	return &row, nil
}
