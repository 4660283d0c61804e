package cmd

import (
	"github.com/spf13/cobra"

	"github.com/wegpiraten/billing/internal/masterdata"
)

var masterdataCmd = &cobra.Command{
	Use:   "masterdata",
	Short: "Refresh the master data tables from the master workbook",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()
		return masterdata.NewImporter(cfg, db, logger).Run()
	},
}

func init() {
	rootCmd.AddCommand(masterdataCmd)
}
