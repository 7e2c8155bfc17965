package main

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/taxpilot-ai/taxpilot/internal/tui"
)

func chatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with a running TaxPilot service",
		Long: `Open an interactive terminal chat against a running service.

Start the service first with 'taxpilot serve'. Pass --session to resume a
previous conversation; otherwise a fresh session is created.`,
		RunE: runChat,
	}

	cmd.Flags().String("url", "http://localhost:8000", "base URL of the service")
	cmd.Flags().String("session", "", "session id to resume")
	_ = viper.BindPFlag("chat.url", cmd.Flags().Lookup("url"))

	return cmd
}

func runChat(cmd *cobra.Command, _ []string) error {
	sessionID, err := cmd.Flags().GetString("session")
	if err != nil {
		return fmt.Errorf("failed to read session flag: %w", err)
	}

	client := tui.NewAgentClient(viper.GetString("chat.url"), 90*time.Second)
	m := tui.NewChatModel(client, sessionID)

	if _, err := tea.NewProgram(m, tea.WithContext(cmd.Context())).Run(); err != nil {
		return fmt.Errorf("chat session failed: %w", err)
	}
	return nil
}
