package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"hotpix/internal/config"
	"hotpix/internal/photos"
)

func newSessionsCommand(ctx *commandContext) *cobra.Command {
	sessionsCmd := &cobra.Command{
		Use:   "sessions",
		Short: "Inspect import sessions",
	}
	sessionsCmd.AddCommand(newSessionsListCommand(ctx))
	sessionsCmd.AddCommand(newSessionsShowCommand(ctx))
	sessionsCmd.AddCommand(newSessionsCancelCommand(ctx))
	return sessionsCmd
}

func newSessionsListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List import sessions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, store *photos.Store) error {
				sessions, err := store.ListSessions(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(sessions) == 0 {
					fmt.Fprintln(out, "No import sessions recorded")
					return nil
				}
				rows := make([][]string, 0, len(sessions))
				for _, s := range sessions {
					rows = append(rows, []string{
						s.ID,
						string(s.Status),
						strconv.FormatInt(s.TotalFilesFound, 10),
						strconv.FormatInt(s.ImagesImported, 10),
						strconv.FormatInt(s.ErrorsCount, 10),
						formatTime(&s.CreatedAt),
					})
				}
				headers := []string{"ID", "Status", "Found", "Imported", "Errors", "Started"}
				aligns := []columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft}
				fmt.Fprintln(out, renderTable(out, headers, rows, aligns))
				return nil
			})
		},
	}
}

func newSessionsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <session-id>",
		Short: "Show one session's counters and errors",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, store *photos.Store) error {
				session, err := store.GetSession(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if session == nil {
					return fmt.Errorf("session %s not found", args[0])
				}
				out := cmd.OutOrStdout()
				rows := [][]string{
					{"ID", session.ID},
					{"Source", session.SourcePath},
					{"Status", string(session.Status)},
					{"Files found", strconv.FormatInt(session.TotalFilesFound, 10)},
					{"Imported", strconv.FormatInt(session.ImagesImported, 10)},
					{"Duplicates skipped", strconv.FormatInt(session.DuplicatesSkipped, 10)},
					{"RAW companions", strconv.FormatInt(session.RawFilesSkipped, 10)},
					{"Standalone RAW skipped", strconv.FormatInt(session.SingleRawSkipped, 10)},
					{"Errors", strconv.FormatInt(session.ErrorsCount, 10)},
					{"Cancel requested", yesNo(session.CancelRequested)},
					{"Started", formatTime(&session.CreatedAt)},
					{"Completed", formatTime(session.CompletedAt)},
				}
				fmt.Fprintln(out, renderTable(out, []string{"Field", "Value"}, rows, nil))
				if session.ErrorLog != "" {
					fmt.Fprintln(out, "Errors:")
					fmt.Fprintln(out, session.ErrorLog)
				}
				if session.FatalReason != "" {
					fmt.Fprintf(out, "Fatal: %s\n", session.FatalReason)
				}
				return nil
			})
		},
	}
}

func newSessionsCancelCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <session-id>",
		Short: "Request cancellation of a running session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, store *photos.Store) error {
				if err := store.RequestCancel(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cancellation requested for session %s\n", args[0])
				return nil
			})
		},
	}
}
