package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wegpiraten/billing/internal/config"
)

func TestDeriveTableRange(t *testing.T) {
	t.Run("valid range", func(t *testing.T) {
		rng, err := DeriveTableRange("A10", "H28")
		require.NoError(t, err)
		assert.Equal(t, 10, rng.StartRow)
		assert.Equal(t, 28, rng.EndRow)
		assert.Equal(t, "A", rng.FirstCol)
		assert.Equal(t, "H", rng.LastCol)
	})

	t.Run("end before start", func(t *testing.T) {
		_, err := DeriveTableRange("A10", "H5")
		assert.Error(t, err)
	})

	t.Run("garbage cell", func(t *testing.T) {
		_, err := DeriveTableRange("10A", "H28")
		assert.Error(t, err)
	})
}

func TestProfileFromConfig(t *testing.T) {
	cfg := config.TemplatesConfig{
		TimesheetSheetName: "Stundenblatt",
		HeaderCells:        config.HeaderCellsConfig{ClientID: "G8"},
		RowMapping:         config.RowMappingConfig{ServiceDate: "B"},
		DataStartCell:      "A10",
		DataEndCell:        "H28",
	}
	profile, err := ProfileFromConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, "Stundenblatt", profile.SheetName)
	assert.Equal(t, "G8", profile.HeaderCells.ClientID)
	assert.Equal(t, "B", profile.RowMapping.ServiceDate)
	assert.Equal(t, 10, profile.TableRange.StartRow)
}
