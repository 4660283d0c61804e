// Package cmd wires the billing toolkit subcommands.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wegpiraten/billing/internal/config"
	"github.com/wegpiraten/billing/internal/secrets"
	"github.com/wegpiraten/billing/pkg/database"
	"github.com/wegpiraten/billing/pkg/utils"
)

var (
	cfgFile string
	envFile string

	cfg    *config.Config
	store  *secrets.Store
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "billing",
	Short: "Invoicing and timesheet toolkit",
	Long: `billing creates monthly timesheets, imports the filled sheets into a
staging database and renders the monthly invoices with payment slips,
merged per payer and archived for dispatch.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return err
		}
		logger, err = utils.NewLogger(utils.LoggerConfig{
			Level:      cfg.Logger.Level,
			OutputPath: cfg.Logger.OutputPath,
			Format:     cfg.Logger.Format,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		store, err = secrets.NewStore(envFile)
		if err != nil {
			return err
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "path to the config file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "path to the .env file")
}

// openDB opens the staging database and ensures its schema
func openDB() (*database.DB, error) {
	db, err := database.New(database.Config{
		Path:            cfg.SQLitePath(),
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}
	if err := db.EnsureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
