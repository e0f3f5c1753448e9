package main

import (
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations and exit",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, dbConn, err := openDB(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer dbConn.Close()
		logger.Info("migrations up to date")
		return nil
	},
}
