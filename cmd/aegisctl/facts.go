package main

import (
	"fmt"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/kivosy/aegis/internal/config"
	"github.com/kivosy/aegis/internal/security"
	"github.com/kivosy/aegis/internal/store"
)

// Facts below this confidence with near-empty content are noise and get
// removed by clean.
const (
	lowConfidenceCutoff = 0.3
	minContentRunes     = 10
)

func newFactsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "facts",
		Short: "Inspect and maintain the verified fact store",
	}
	cmd.AddCommand(newFactsListCmd(), newFactsRmCmd(), newFactsCleanCmd())
	return cmd
}

func newFactsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all stored facts",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			pool, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			facts, err := store.NewFactStore(pool).List(ctx)
			if err != nil {
				return err
			}

			if len(facts) == 0 {
				fmt.Println("no facts stored")
				return nil
			}
			for _, f := range facts {
				fmt.Printf("%s  [%s] conf=%.2f reinforced=%d  %s\n",
					f.ID, f.Type, f.Confidence, f.ReinforcementCount, f.Content)
			}
			fmt.Printf("\n%d facts\n", len(facts))
			return nil
		},
	}
}

func newFactsRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <fact-id>",
		Short: "Delete a single fact by ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid fact id: %w", err)
			}

			ctx := cmd.Context()
			pool, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := store.NewFactStore(pool).Delete(ctx, id); err != nil {
				return err
			}
			fmt.Println("deleted", id)
			return nil
		},
	}
}

func newFactsCleanCmd() *cobra.Command {
	var apply bool

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove facts that contradict core truths or carry no signal",
		Long:  "Scans every stored fact against the truth table and flags contradictions plus low-confidence noise. Dry run by default; pass --apply to delete.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			pool, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			extensions, err := security.LoadExtensions(config.TruthsFile())
			if err != nil {
				return err
			}
			truths := security.NewTruthTable(extensions...)

			factStore := store.NewFactStore(pool)
			facts, err := factStore.List(ctx)
			if err != nil {
				return err
			}

			removed := 0
			for _, f := range facts {
				reason := ""
				if valid, correction := truths.VerifyClaim(f.Content); !valid {
					reason = "contradicts core truth: " + correction
				} else if f.Confidence < lowConfidenceCutoff && utf8.RuneCountInString(f.Content) < minContentRunes {
					reason = "low-confidence noise"
				}
				if reason == "" {
					continue
				}

				removed++
				fmt.Printf("flagged %s  %s\n  reason: %s\n", f.ID, f.Content, reason)
				if apply {
					if err := factStore.Delete(ctx, f.ID); err != nil {
						return fmt.Errorf("delete fact %s: %w", f.ID, err)
					}
				}
			}

			if apply {
				fmt.Printf("\nremoved %d of %d facts\n", removed, len(facts))
			} else {
				fmt.Printf("\n[dry run] would remove %d of %d facts; pass --apply to delete\n", removed, len(facts))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&apply, "apply", false, "actually delete flagged facts (default is dry run)")
	return cmd
}
