package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export event standings as CSV to the configured bucket",
	Long: `Export renders the pivot standings of an event (optionally one stage) as
CSV, uploads it to Cloudflare R2 and prints the public URL.`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().String("event", "", "event ID (required)")
	exportCmd.Flags().String("stage", "", "limit the export to one stage")
	exportCmd.MarkFlagRequired("event")
}

func runExport(cmd *cobra.Command, args []string) error {
	eventFlag, _ := cmd.Flags().GetString("event")
	stageFlag, _ := cmd.Flags().GetString("stage")

	eventID, err := uuid.Parse(eventFlag)
	if err != nil {
		return fmt.Errorf("invalid --event %q: %w", eventFlag, err)
	}
	var stageID *uuid.UUID
	if stageFlag != "" {
		id, err := uuid.Parse(stageFlag)
		if err != nil {
			return fmt.Errorf("invalid --stage %q: %w", stageFlag, err)
		}
		stageID = &id
	}

	ctx := cmd.Context()
	cfg, dbConn, err := openDB(ctx, false)
	if err != nil {
		return err
	}
	a, err := newApp(ctx, cfg, dbConn, nil)
	if err != nil {
		dbConn.Close()
		return err
	}
	defer a.close()

	result, err := a.exports.ExportStandings(ctx, eventID, stageID)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s (%d rows)\n", result.URL, result.Rows)
	return nil
}
