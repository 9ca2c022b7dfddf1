package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"hotpix/internal/config"
	"hotpix/internal/importer"
	"hotpix/internal/photos"
)

func newImportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "import <directory>",
		Short: "Import every photo under a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			return ctx.withTracker(func(cfg *config.Config, tracker *importer.Tracker, _ *photos.Store) error {
				session, runErr := tracker.StartImport(cmd.Context(), source)
				if session != nil {
					printSessionSummary(cmd, session)
				}
				return runErr
			})
		},
	}
}

func printSessionSummary(cmd *cobra.Command, session *photos.ImportSession) {
	out := cmd.OutOrStdout()
	rows := [][]string{
		{"Session", session.ID},
		{"Source", session.SourcePath},
		{"Status", string(session.Status)},
		{"Files found", strconv.FormatInt(session.TotalFilesFound, 10)},
		{"Imported", strconv.FormatInt(session.ImagesImported, 10)},
		{"Duplicates skipped", strconv.FormatInt(session.DuplicatesSkipped, 10)},
		{"RAW companions", strconv.FormatInt(session.RawFilesSkipped, 10)},
		{"Standalone RAW skipped", strconv.FormatInt(session.SingleRawSkipped, 10)},
		{"Errors", strconv.FormatInt(session.ErrorsCount, 10)},
	}
	fmt.Fprintln(out, renderTable(out, []string{"Field", "Value"}, rows, []columnAlignment{alignLeft, alignLeft}))
	if session.ErrorLog != "" {
		fmt.Fprintln(out, "Errors:")
		fmt.Fprintln(out, session.ErrorLog)
	}
	if session.FatalReason != "" {
		fmt.Fprintf(out, "Fatal: %s\n", session.FatalReason)
	}
}
