// Package masterdata loads the configured master data tables from the
// Excel workbook into normalized SQLite tables.
package masterdata

import (
	"database/sql"
	"fmt"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/wegpiraten/billing/internal/config"
	"github.com/wegpiraten/billing/internal/excel"
	"github.com/wegpiraten/billing/internal/mapping"
	"github.com/wegpiraten/billing/pkg/database"
)

// Importer refreshes the master data tables from the master workbook
type Importer struct {
	cfg    *config.Config
	db     *database.DB
	logger *zap.Logger
}

// NewImporter creates a master data importer
func NewImporter(cfg *config.Config, db *database.DB, logger *zap.Logger) *Importer {
	return &Importer{
		cfg:    cfg,
		db:     db,
		logger: logger,
	}
}

// Run imports every configured entity table. Each entity is a full
// refresh in one transaction: drop, create, insert. A failed entity
// aborts the run; half-refreshed master data is worse than stale data.
func (im *Importer) Run() error {
	if len(im.cfg.Entities) == 0 {
		return fmt.Errorf("no entity tables configured")
	}

	// deterministic import order
	names := make([]string, 0, len(im.cfg.Entities))
	for name := range im.cfg.Entities {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		entity := im.cfg.Entities[name]
		if err := im.importEntity(name, entity); err != nil {
			return fmt.Errorf("failed to import entity %s: %w", name, err)
		}
	}
	return nil
}

// importEntity refreshes one target table from its named Excel table
func (im *Importer) importEntity(name string, entity config.EntityTableConfig) error {
	table, err := excel.ReadNamedTable(im.cfg.MasterWorkbookPath(), entity.ExcelTable)
	if err != nil {
		return err
	}

	return im.db.WithTransaction(func(tx *sql.Tx) error {
		if _, err := tx.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s", entity.Target)); err != nil {
			return fmt.Errorf("failed to drop %s: %w", entity.Target, err)
		}
		if _, err := tx.Exec(createStatement(entity)); err != nil {
			return fmt.Errorf("failed to create %s: %w", entity.Target, err)
		}

		stmt, err := tx.Prepare(insertStatement(entity))
		if err != nil {
			return fmt.Errorf("failed to prepare insert for %s: %w", entity.Target, err)
		}
		defer stmt.Close()

		count := 0
		for i, row := range table.Rows {
			values := make([]interface{}, 0, len(entity.Fields))
			for _, field := range entity.Fields {
				v, err := convertValue(row[field.Column], field)
				if err != nil {
					return fmt.Errorf("row %d, column %q: %w", i+1, field.Column, err)
				}
				values = append(values, v)
			}
			if _, err := stmt.Exec(values...); err != nil {
				return fmt.Errorf("failed to insert row %d into %s: %w", i+1, entity.Target, err)
			}
			count++
		}

		im.logger.Info("Master data table refreshed",
			zap.String("entity", name),
			zap.String("table", entity.Target),
			zap.Int("rows", count))
		return nil
	})
}

// createStatement builds the typed CREATE TABLE for an entity
func createStatement(entity config.EntityTableConfig) string {
	cols := make([]string, 0, len(entity.Fields))
	var keys []string
	for _, field := range entity.Fields {
		cols = append(cols, fmt.Sprintf("%s %s", field.Field, sqliteType(field.Type)))
		if field.PrimaryKey {
			keys = append(keys, field.Field)
		}
	}
	if len(keys) > 0 {
		cols = append(cols, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(keys, ", ")))
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", entity.Target, strings.Join(cols, ", "))
}

// insertStatement builds the parameterized INSERT for an entity
func insertStatement(entity config.EntityTableConfig) string {
	cols := make([]string, 0, len(entity.Fields))
	marks := make([]string, 0, len(entity.Fields))
	for _, field := range entity.Fields {
		cols = append(cols, field.Field)
		marks = append(marks, "?")
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		entity.Target, strings.Join(cols, ", "), strings.Join(marks, ", "))
}

// sqliteType maps a config field type to its SQLite column type
func sqliteType(t string) string {
	switch t {
	case "float":
		return "REAL"
	case "int", "bool":
		return "INTEGER"
	default:
		return "TEXT"
	}
}

// convertValue converts one cell into its typed database value. Empty
// cells become empty strings for text fields and NULL otherwise. Float
// cells land in int columns as ints when they are integral, a leftover
// of Excel storing every number as float.
func convertValue(cell string, field config.FieldSpec) (interface{}, error) {
	cell = mapping.CellString(cell)
	switch field.Type {
	case "float":
		if cell == "" {
			return nil, nil
		}
		v, ok := mapping.CellFloat(cell)
		if !ok {
			return nil, fmt.Errorf("%q is not a number", cell)
		}
		return v, nil
	case "int":
		if cell == "" {
			return nil, nil
		}
		v, ok := mapping.CellFloat(cell)
		if !ok {
			return nil, fmt.Errorf("%q is not a number", cell)
		}
		if v != math.Trunc(v) {
			return nil, fmt.Errorf("%q is not an integer", cell)
		}
		return int64(v), nil
	case "bool":
		if cell == "" {
			return nil, nil
		}
		switch strings.ToLower(cell) {
		case "1", "true", "ja", "x", "wahr":
			return int64(1), nil
		default:
			return int64(0), nil
		}
	default:
		return cell, nil
	}
}
