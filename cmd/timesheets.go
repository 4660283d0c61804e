package cmd

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/wegpiraten/billing/internal/mapping"
	"github.com/wegpiraten/billing/internal/models"
	"github.com/wegpiraten/billing/internal/repository"
	"github.com/wegpiraten/billing/internal/timesheet"
)

var importReplace bool

var timesheetsCmd = &cobra.Command{
	Use:   "timesheets",
	Short: "Create and import timesheets",
}

var timesheetsCreateCmd = &cobra.Command{
	Use:   "create <month>",
	Short: "Create one timesheet per active client",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		month := args[0]
		if _, err := models.ParseBillingMonth(month); err != nil {
			return err
		}

		templatePath := filepath.Join(cfg.TemplateDir(), cfg.Templates.TimesheetTemplate)
		factory := timesheet.NewFactory(
			templatePath,
			cfg.Templates.TimesheetSheetName,
			mapping.HeaderCellsFromConfig(cfg.Templates.HeaderCells),
			logger,
		)
		return timesheet.NewBatch(cfg, factory, store, logger).Run(month)
	},
}

var timesheetsImportCmd = &cobra.Command{
	Use:   "import [month]",
	Short: "Import the filled timesheets into the staging database",
	Long: `Reads every timesheet in the imports directory into the staging
database. When no month is given it is taken from the first file's
header. Imported files are moved to the importiert subdirectory.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		month := ""
		if len(args) == 1 {
			month = args[0]
			if _, err := models.ParseBillingMonth(month); err != nil {
				return err
			}
		}

		profile, err := mapping.ProfileFromConfig(cfg.Templates)
		if err != nil {
			return err
		}
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		importer := timesheet.NewImporter(
			cfg,
			db,
			repository.NewStagingRepository(db.DB, logger),
			mapping.NewRowReader(profile, logger),
			logger,
		)
		return importer.Run(month, importReplace)
	},
}

func init() {
	timesheetsImportCmd.Flags().BoolVar(&importReplace, "replace", false,
		"drop previously staged rows of the month before importing")
	timesheetsCmd.AddCommand(timesheetsCreateCmd)
	timesheetsCmd.AddCommand(timesheetsImportCmd)
	rootCmd.AddCommand(timesheetsCmd)
}
