package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kivosy/aegis/internal/store"
)

func newAuditCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Show recent command gating decisions",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			pool, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			entries, err := store.NewAuditStore(pool, 0).ListRecent(ctx, limit)
			if err != nil {
				return err
			}

			if len(entries) == 0 {
				fmt.Println("audit trail is empty")
				return nil
			}
			for _, e := range entries {
				fmt.Printf("%s  %-16s %-16s %s  %s\n",
					e.CreatedAt.Format("2006-01-02 15:04:05"),
					e.Status, e.CommandType, e.CommandArgs, e.Reason)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "number of entries to show")
	return cmd
}
