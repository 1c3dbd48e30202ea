package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sells-group/bridge-geocode/internal/normalize"
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize TEXT...",
	Short: "Print the lookup key of each argument",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, a := range args {
			if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", a, normalize.Key(a)); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(normalizeCmd)
}
