package mapping

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCellString(t *testing.T) {
	assert.Equal(t, "Wert", CellString("  Wert  "))
	assert.Equal(t, "", CellString("(Leer)"))
	assert.Equal(t, "", CellString("   "))
}

func TestCellFloat(t *testing.T) {
	tests := []struct {
		input string
		want  float64
		ok    bool
	}{
		{"1.5", 1.5, true},
		{"1,5", 1.5, true},
		{"1'250.75", 1250.75, true},
		{"1'250,75", 1250.75, true},
		{" 42 ", 42, true},
		{"-0,25", -0.25, true},
		{"", 0, false},
		{"(Leer)", 0, false},
		{"abc", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := CellFloat(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCellDate(t *testing.T) {
	t.Run("swiss layout", func(t *testing.T) {
		assert.Equal(t,
			time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
			CellDate("15.01.2026"))
	})

	t.Run("iso layout", func(t *testing.T) {
		assert.Equal(t,
			time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
			CellDate("2026-01-15"))
	})

	t.Run("excel serial", func(t *testing.T) {
		// serial 45658 is 2025-01-01 in the 1900 date system
		assert.Equal(t,
			time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			CellDate("45658"))
	})

	t.Run("garbage is zero", func(t *testing.T) {
		assert.True(t, CellDate("kein datum").IsZero())
		assert.True(t, CellDate("").IsZero())
		assert.True(t, CellDate("(Leer)").IsZero())
	})
}
