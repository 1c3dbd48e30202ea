package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/bridge-geocode/internal/refindex"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build the reference indices and show their sizes",
	RunE: func(cmd *cobra.Command, args []string) error {
		indices, err := buildIndices(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		formatIndexCounts(cmd.OutOrStdout(), indices)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(indexCmd)
}

// formatIndexCounts writes one line per index in priority order.
func formatIndexCounts(out io.Writer, indices []*refindex.Index) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "PRIORITY\tSOURCE\tENTRIES")
	_, _ = fmt.Fprintln(w, "--------\t------\t-------")
	for i, ix := range indices {
		_, _ = fmt.Fprintf(w, "%d\t%s\t%d\n", i+1, ix.Label(), ix.Len())
	}
	_ = w.Flush()
}
