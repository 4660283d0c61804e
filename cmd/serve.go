package cmd

import (
	"github.com/spf13/cobra"

	"github.com/wegpiraten/billing/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local launcher web UI",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		server, err := web.NewServer(cfg, store, logger)
		if err != nil {
			return err
		}
		return server.Run()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
