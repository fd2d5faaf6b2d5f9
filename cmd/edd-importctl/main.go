package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "edd-importctl",
	Short: "Offline tools for the EDD copro import",
	Long: `edd-importctl runs the lot registry / owner reference / contact directory
reconciliation over local workbooks, without touching storage or the database.`,
	SilenceUsage: true,
}

func main() {
	rootCmd.AddCommand(newRunCmd())
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
