package masterdata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wegpiraten/billing/internal/config"
)

func clientsEntity() config.EntityTableConfig {
	return config.EntityTableConfig{
		ExcelTable: "Klienten",
		Target:     "clients",
		Fields: []config.FieldSpec{
			{Column: "Klient-Nr.", Field: "client_id", Type: "str", PrimaryKey: true},
			{Column: "Nachname", Field: "last_name", Type: "str"},
			{Column: "Tarif", Field: "hourly_rate", Type: "float"},
			{Column: "Stunden", Field: "allowed_hours", Type: "int"},
			{Column: "Aktiv", Field: "active", Type: "bool"},
		},
	}
}

func TestCreateStatement(t *testing.T) {
	stmt := createStatement(clientsEntity())
	assert.Equal(t,
		"CREATE TABLE clients (client_id TEXT, last_name TEXT, hourly_rate REAL, "+
			"allowed_hours INTEGER, active INTEGER, PRIMARY KEY (client_id))",
		stmt)
}

func TestInsertStatement(t *testing.T) {
	stmt := insertStatement(clientsEntity())
	assert.Equal(t,
		"INSERT INTO clients (client_id, last_name, hourly_rate, allowed_hours, active) "+
			"VALUES (?, ?, ?, ?, ?)",
		stmt)
}

func TestConvertValue(t *testing.T) {
	t.Run("strings", func(t *testing.T) {
		v, err := convertValue(" Muster ", config.FieldSpec{Type: "str"})
		require.NoError(t, err)
		assert.Equal(t, "Muster", v)

		v, err = convertValue("(Leer)", config.FieldSpec{Type: "str"})
		require.NoError(t, err)
		assert.Equal(t, "", v)
	})

	t.Run("floats", func(t *testing.T) {
		v, err := convertValue("120,50", config.FieldSpec{Type: "float"})
		require.NoError(t, err)
		assert.Equal(t, 120.50, v)

		v, err = convertValue("", config.FieldSpec{Type: "float"})
		require.NoError(t, err)
		assert.Nil(t, v, "empty numeric cell is NULL")

		_, err = convertValue("viel", config.FieldSpec{Type: "float"})
		assert.Error(t, err)
	})

	t.Run("ints accept integral floats", func(t *testing.T) {
		v, err := convertValue("12.0", config.FieldSpec{Type: "int"})
		require.NoError(t, err)
		assert.Equal(t, int64(12), v)

		_, err = convertValue("12.5", config.FieldSpec{Type: "int"})
		assert.Error(t, err)
	})

	t.Run("bools", func(t *testing.T) {
		for _, s := range []string{"1", "true", "Ja", "x", "WAHR"} {
			v, err := convertValue(s, config.FieldSpec{Type: "bool"})
			require.NoError(t, err)
			assert.Equal(t, int64(1), v, s)
		}
		v, err := convertValue("nein", config.FieldSpec{Type: "bool"})
		require.NoError(t, err)
		assert.Equal(t, int64(0), v)

		v, err = convertValue("", config.FieldSpec{Type: "bool"})
		require.NoError(t, err)
		assert.Nil(t, v)
	})
}
