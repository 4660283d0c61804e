package aggregate

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wegpiraten/billing/internal/config"
)

func sampleRows() []Row {
	return []Row{
		{"ZDNR": "ZD2", "Klient-Nr.": "K003", "Kosten": "100.50", "Stunden": "2"},
		{"ZDNR": "ZD1", "Klient-Nr.": "K001", "Kosten": "80.25", "Stunden": "1,5"},
		{"ZDNR": "ZD1", "Klient-Nr.": "K002", "Kosten": "50.00", "Stunden": "1"},
		{"ZDNR": "ZD1", "Klient-Nr.": "K001", "Kosten": "19.75", "Stunden": "0,5"},
	}
}

func TestGroupRows(t *testing.T) {
	groups := GroupRows(sampleRows(), "ZDNR", "Klient-Nr.")
	require.Len(t, groups, 2)

	// payer order is deterministic
	assert.Equal(t, "ZD1", groups[0].Key)
	assert.Equal(t, "ZD2", groups[1].Key)

	require.Len(t, groups[0].Clients, 2)
	assert.Equal(t, "K001", groups[0].Clients[0].Key)
	assert.Len(t, groups[0].Clients[0].Rows, 2)
	assert.Equal(t, "K002", groups[0].Clients[1].Key)
	assert.Len(t, groups[0].Rows, 3)
}

func TestTotals(t *testing.T) {
	sumCols := []config.ColumnSpec{
		{Name: "Kosten", Type: "currency", Sum: true, IsPosition: true},
		{Name: "Stunden", Type: "numeric", Sum: true, IsPosition: true},
	}

	t.Run("group total equals sum of member rows", func(t *testing.T) {
		groups := GroupRows(sampleRows(), "ZDNR", "Klient-Nr.")
		for _, pg := range groups {
			expected := Totals(pg.Rows, sumCols)
			var clientSum decimal.Decimal
			for _, cg := range pg.Clients {
				clientSum = clientSum.Add(Totals(cg.Rows, sumCols)["Kosten"])
			}
			assert.True(t, expected["Kosten"].Equal(clientSum),
				"payer %s: %s != %s", pg.Key, expected["Kosten"], clientSum)
		}
	})

	t.Run("comma decimals and blanks", func(t *testing.T) {
		rows := []Row{
			{"Stunden": "1,5"},
			{"Stunden": ""},
			{"Stunden": "(Leer)"},
			{"Stunden": "2"},
		}
		totals := Totals(rows, sumCols)
		assert.True(t, totals["Stunden"].Equal(decimal.NewFromFloat(3.5)))
		assert.True(t, totals["Kosten"].IsZero())
	})
}

func TestPositions(t *testing.T) {
	posCols := []config.ColumnSpec{
		{Name: "Kosten", IsPosition: true},
	}
	positions := Positions(sampleRows(), posCols)
	require.Len(t, positions, 4)
	assert.Equal(t, "100.50", positions[0]["Kosten"])
	_, hasPayer := positions[0]["ZDNR"]
	assert.False(t, hasPayer, "non-position columns are not extracted")
}
