package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/taxpilot-ai/taxpilot/internal/common"
	"github.com/taxpilot-ai/taxpilot/internal/config"
	"github.com/taxpilot-ai/taxpilot/internal/model"
)

func sessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Inspect stored interview sessions",
	}

	cmd.AddCommand(sessionsListCmd())
	cmd.AddCommand(sessionsShowCmd())
	cmd.AddCommand(sessionsDeleteCmd())

	return cmd
}

func sessionsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored sessions, most recent first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := buildStore(config.Load())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			sessions, err := store.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list sessions: %w", err)
			}

			if len(sessions) == 0 {
				fmt.Println("No stored sessions.")
				return nil
			}

			for _, s := range sessions {
				fmt.Println(sessionSummary(s))
			}
			return nil
		},
	}
}

func sessionsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <session-id>",
		Short: "Print the full state of one session as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := buildStore(config.Load())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			state, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to load session: %w", err)
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(state)
		},
	}
}

func sessionsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <session-id>",
		Short: "Delete a stored session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := buildStore(config.Load())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.Delete(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("failed to delete session: %w", err)
			}
			fmt.Printf("Deleted session %s\n", args[0])
			return nil
		},
	}
}

// sessionSummary renders one list line for a stored session.
func sessionSummary(s model.Return) string {
	status := "in progress"
	switch {
	case s.NeedsReview:
		status = "needs review"
	case s.Completed:
		status = "completed"
	}

	line := fmt.Sprintf("%s  stage=%s  status=%s", s.SessionID, s.Stage, status)
	if s.Name != "" {
		line += fmt.Sprintf("  name=%q", s.Name)
	}
	if s.TotalIncome > 0 {
		line += fmt.Sprintf("  income=%s", common.Dollars(s.TotalIncome, 2))
	}
	return line
}
