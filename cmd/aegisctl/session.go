package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kivosy/aegis/internal/store"
)

func newSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect and reset the active session",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the active session counters",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			pool, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			s, err := store.NewSessionStore(pool).Current(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("session:         %s\nstarted:         %s\nmessages:        %d\nlearnings:       %d\nsecurity alerts: %d\n",
				s.ID, s.StartedAt.Format("2006-01-02 15:04:05"), s.MessageCount, s.LearningCount, s.SecurityAlerts)
			return nil
		},
	}

	reset := &cobra.Command{
		Use:   "reset",
		Short: "Close the active session and start a fresh one",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			pool, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			s, err := store.NewSessionStore(pool).Reset(ctx)
			if err != nil {
				return err
			}
			fmt.Println("new session:", s.ID)
			return nil
		},
	}

	cmd.AddCommand(show, reset)
	return cmd
}
