package masterdata

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/wegpiraten/billing/internal/config"
	"github.com/wegpiraten/billing/pkg/database"
)

func writeMasterWorkbook(t *testing.T, dataDir string) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	values := [][]interface{}{
		{"Klient-Nr.", "Nachname", "Tarif"},
		{"K001", "Muster", "120,50"},
		{"K002", "Beispiel", ""},
	}
	for i, row := range values {
		for j, v := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(sheet, cell, v))
		}
	}
	require.NoError(t, f.AddTable(sheet, &excelize.Table{Range: "A1:C3", Name: "Klienten"}))
	require.NoError(t, f.SaveAs(filepath.Join(dataDir, "stammdaten.xlsx")))
}

func TestImporter_Run(t *testing.T) {
	root := t.TempDir()
	dataDir := filepath.Join(root, "data")
	require.NoError(t, os.MkdirAll(dataDir, 0o755))
	writeMasterWorkbook(t, dataDir)

	cfg := &config.Config{
		Structure: config.StructureConfig{ProjectRoot: root, DataPath: "data"},
		Database:  config.DatabaseConfig{MasterWorkbook: "stammdaten.xlsx", SQLiteName: "test.db"},
		Entities: map[string]config.EntityTableConfig{
			"clients": {
				ExcelTable: "Klienten",
				Target:     "clients",
				Fields: []config.FieldSpec{
					{Column: "Klient-Nr.", Field: "client_id", Type: "str", PrimaryKey: true},
					{Column: "Nachname", Field: "last_name", Type: "str"},
					{Column: "Tarif", Field: "hourly_rate", Type: "float"},
				},
			},
		},
	}

	db, err := database.New(database.Config{
		Path:            cfg.SQLitePath(),
		MaxOpenConns:    1,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Minute,
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, NewImporter(cfg, db, zap.NewNop()).Run())

	var lastName string
	var rate *float64
	require.NoError(t, db.QueryRow(
		"SELECT last_name, hourly_rate FROM clients WHERE client_id = 'K001'").
		Scan(&lastName, &rate))
	assert.Equal(t, "Muster", lastName)
	require.NotNil(t, rate)
	assert.Equal(t, 120.50, *rate)

	require.NoError(t, db.QueryRow(
		"SELECT last_name, hourly_rate FROM clients WHERE client_id = 'K002'").
		Scan(&lastName, &rate))
	assert.Nil(t, rate, "empty cell lands as NULL")

	// a second run is a clean refresh, not a duplicate insert
	require.NoError(t, NewImporter(cfg, db, zap.NewNop()).Run())
	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM clients").Scan(&count))
	assert.Equal(t, 2, count)
}
