package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kivosy/aegis/internal/config"
	"github.com/kivosy/aegis/internal/domain"
	"github.com/kivosy/aegis/internal/security"
)

func newTruthsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "truths",
		Short: "Inspect and extend the immutable truth set",
	}
	cmd.AddCommand(newTruthsListCmd(), newTruthsAddCmd())
	return cmd
}

func newTruthsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show the active truth set, built-in plus extensions",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Load(); err != nil {
				return err
			}
			extensions, err := security.LoadExtensions(config.TruthsFile())
			if err != nil {
				return err
			}
			for _, t := range security.NewTruthTable(extensions...).Truths() {
				fmt.Printf("%-16s %s\n", t.Key, t.Statement)
			}
			return nil
		},
	}
}

func newTruthsAddCmd() *cobra.Command {
	var (
		subjects   []string
		attributes []string
		correction string
	)

	cmd := &cobra.Command{
		Use:   "add <key> <statement>",
		Short: "Append a truth extension to the truths file",
		Long:  "Adds an immutable truth, optionally with a contradiction rule (subjects plus attributes whose co-occurrence in a claim rejects it). The server picks the file up on next start.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Load(); err != nil {
				return err
			}
			path := config.TruthsFile()
			if path == "" {
				return fmt.Errorf("TRUTHS_FILE is not configured")
			}

			extensions, err := security.LoadExtensions(path)
			if err != nil {
				return err
			}

			key, statement := args[0], args[1]
			for _, ext := range extensions {
				if ext.Truth.Key == key {
					return fmt.Errorf("truth %q already exists in %s", key, path)
				}
			}

			ext := security.TruthExtension{
				Truth: domain.CoreTruth{
					Key:        key,
					Statement:  statement,
					Confidence: 1.0,
					Immutable:  true,
				},
			}
			if len(subjects) > 0 && len(attributes) > 0 {
				if correction == "" {
					correction = "[MASTER TRUTH VIOLATION] " + statement
				}
				ext.Rule = security.ContradictionRule{
					TruthKey:   key,
					Subjects:   subjects,
					Attributes: attributes,
					Correction: correction,
				}
			}
			extensions = append(extensions, ext)

			data, err := json.MarshalIndent(extensions, "", "  ")
			if err != nil {
				return err
			}
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return fmt.Errorf("write truths file: %w", err)
			}

			fmt.Printf("added truth %q to %s (%d extensions total)\n", key, path, len(extensions))
			fmt.Println("restart the server to load it")
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&subjects, "subjects", nil, "contradiction subjects (keywords)")
	cmd.Flags().StringSliceVar(&attributes, "attributes", nil, "contradiction attributes (keywords)")
	cmd.Flags().StringVar(&correction, "correction", "", "correction text shown when the rule fires")
	return cmd
}
