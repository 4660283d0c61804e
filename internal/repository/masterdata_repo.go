package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/wegpiraten/billing/internal/mapping"
	"github.com/wegpiraten/billing/internal/models"
)

// ClientRepository reads normalized client master data
type ClientRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewClientRepository creates a new client repository
func NewClientRepository(db *sql.DB, logger *zap.Logger) *ClientRepository {
	return &ClientRepository{
		db:     db,
		logger: logger,
	}
}

const getClientQuery = `
	SELECT client_id, payer_id, first_name, last_name, street, zip_city,
		birth_date, social_security_number
	FROM clients
	WHERE client_id = ?
`

// GetByID returns one client, or nil when unknown
func (r *ClientRepository) GetByID(clientID string) (*models.Client, error) {
	var (
		key, firstName, lastName     string
		payerID                      sql.NullString
		street, zipCity              string
		birthDate, socialSecurityNum sql.NullString
	)
	err := r.db.QueryRow(getClientQuery, clientID).Scan(
		&key, &payerID, &firstName, &lastName, &street, &zipCity,
		&birthDate, &socialSecurityNum,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to load client", zap.String("client_id", clientID), zap.Error(err))
		return nil, fmt.Errorf("failed to load client %s: %w", clientID, err)
	}
	c := models.NewClient(
		models.Entity{Key: key, Street: street, ZipCity: zipCity},
		firstName, lastName, birthDate.String, socialSecurityNum.String,
	)
	c.PayerID = payerID.String
	return c, nil
}

// PayerRepository reads normalized payer master data
type PayerRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPayerRepository creates a new payer repository
func NewPayerRepository(db *sql.DB, logger *zap.Logger) *PayerRepository {
	return &PayerRepository{
		db:     db,
		logger: logger,
	}
}

const getPayerQuery = `
	SELECT payer_id, name, name_2, street, zip_city
	FROM payers
	WHERE payer_id = ?
`

// GetByID returns one payer, or nil when unknown
func (r *PayerRepository) GetByID(payerID string) (*models.Payer, error) {
	var (
		key, name       string
		name2           sql.NullString
		street, zipCity string
	)
	err := r.db.QueryRow(getPayerQuery, payerID).Scan(&key, &name, &name2, &street, &zipCity)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to load payer", zap.String("payer_id", payerID), zap.Error(err))
		return nil, fmt.Errorf("failed to load payer %s: %w", payerID, err)
	}
	return models.NewPayer(models.Entity{
		Key:     key,
		Name:    name,
		Name2:   name2.String,
		Street:  street,
		ZipCity: zipCity,
	}, ""), nil
}

// EmployeeRepository reads normalized employee master data
type EmployeeRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewEmployeeRepository creates a new employee repository
func NewEmployeeRepository(db *sql.DB, logger *zap.Logger) *EmployeeRepository {
	return &EmployeeRepository{
		db:     db,
		logger: logger,
	}
}

const getEmployeeQuery = `
	SELECT employee_id, first_name, last_name
	FROM employees
	WHERE employee_id = ?
`

// GetByID returns one employee, or nil when unknown
func (r *EmployeeRepository) GetByID(employeeID string) (*models.Employee, error) {
	var key, firstName, lastName string
	err := r.db.QueryRow(getEmployeeQuery, employeeID).Scan(&key, &firstName, &lastName)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to load employee", zap.String("employee_id", employeeID), zap.Error(err))
		return nil, fmt.Errorf("failed to load employee %s: %w", employeeID, err)
	}
	e := &models.Employee{
		Entity:    models.Entity{Key: key},
		FirstName: firstName,
		LastName:  lastName,
	}
	e.Name = lastName + ", " + firstName
	return e, nil
}

// helpers shared by the repositories

func derefFloat(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullDecimal(v *decimal.Decimal) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v.InexactFloat64(), Valid: true}
}

func mustParseDate(s string) time.Time {
	return mapping.CellDate(s)
}
