package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:           "aegisctl",
		Short:         "Administrative tool for the aegis trust pipeline",
		Long:          "aegisctl operates on the fact store, truth table, and audit trail out of band. It is the only sanctioned way to remove facts or extend the truth set.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newFactsCmd(),
		newTruthsCmd(),
		newAuditCmd(),
		newSessionCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
