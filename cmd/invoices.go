package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/wegpiraten/billing/internal/document"
	"github.com/wegpiraten/billing/internal/invoice"
	"github.com/wegpiraten/billing/internal/models"
	"github.com/wegpiraten/billing/internal/repository"
)

var invoicesFromDB bool

var invoicesCmd = &cobra.Command{
	Use:   "invoices <month>",
	Short: "Run the monthly invoice batch",
	Long: `Renders one invoice per client, converts it to PDF, merges the
invoices per payer and archives everything with a summary workbook.
The month is given as MM.YYYY or YYYY-MM.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		month := args[0]
		if _, err := models.ParseBillingMonth(month); err != nil {
			return err
		}

		slip := invoice.NewSlipRenderer(cfg.FontDir(), cfg.Formatting.Currency, logger)
		factory, err := invoice.NewFactory(cfg, slip, logger)
		if err != nil {
			return err
		}
		converter := document.NewConverter("", logger)
		summary := document.NewSummaryWriter(cfg.Formatting.CurrencyFormat, cfg.Formatting.DateFormat, logger)
		processor := invoice.NewProcessor(cfg, factory, converter, summary, logger)

		if invoicesFromDB {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()
			processor.UseStaging(
				repository.NewStagingRepository(db.DB, logger),
				repository.NewClientRepository(db.DB, logger),
				repository.NewPayerRepository(db.DB, logger),
			)
		}
		return processor.Run(context.Background(), month)
	},
}

func init() {
	invoicesCmd.Flags().BoolVar(&invoicesFromDB, "from-db", false,
		"bill the staged timesheet rows instead of the source workbook")
	rootCmd.AddCommand(invoicesCmd)
}
