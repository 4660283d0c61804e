package database

import (
	"fmt"

	"go.uber.org/zap"
)

// schemaStatements defines the fixed staging schema. Master data tables
// (payers, clients, employees) are created by the masterdata importer
// from the entity configuration; invoice_data is the staging table every
// timesheet import writes into and the invoice run reads from.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS invoice_data (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		client_id TEXT NOT NULL,
		employee_id TEXT NOT NULL,
		service_date TEXT NOT NULL,
		service_type TEXT NOT NULL,
		travel_time REAL NOT NULL DEFAULT 0,
		direct_time REAL NOT NULL DEFAULT 0,
		indirect_time REAL NOT NULL DEFAULT 0,
		billable_hours REAL NOT NULL DEFAULT 0,
		hourly_rate REAL,
		total_hours REAL,
		total_costs REAL,
		imported_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);`,
	`CREATE INDEX IF NOT EXISTS idx_invoice_data_service_date
		ON invoice_data (service_date);`,
	`CREATE INDEX IF NOT EXISTS idx_invoice_data_client
		ON invoice_data (client_id);`,
}

// EnsureSchema creates the staging tables if they do not exist yet.
func (db *DB) EnsureSchema() error {
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(stmt); err != nil {
			db.logger.Error("Failed to apply schema statement", zap.Error(err))
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	db.logger.Debug("Staging schema ensured")
	return nil
}
