package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/bridge-geocode/internal/match"
	"github.com/sells-group/bridge-geocode/internal/normalize"
	"github.com/sells-group/bridge-geocode/internal/refindex"
)

var matchOutput string

// matchResult is one resolved name as printed by the match command.
type matchResult struct {
	Name     string          `yaml:"name"`
	Key      string          `yaml:"key"`
	Matched  bool            `yaml:"matched"`
	Strategy match.Strategy  `yaml:"strategy,omitempty"`
	Matching string          `yaml:"matching_key,omitempty"`
	Entry    *refindex.Entry `yaml:"entry,omitempty"`
}

var matchCmd = &cobra.Command{
	Use:   "match NAME...",
	Short: "Resolve bridge names against the reference indices",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if matchOutput != "text" && matchOutput != "yaml" {
			return eris.Errorf("unknown output format %q", matchOutput)
		}

		indices, err := buildIndices(cmd.Context(), cfg)
		if err != nil {
			return err
		}

		results := resolveNames(match.NewResolver(indices...), args)
		if matchOutput == "yaml" {
			return writeMatchYAML(cmd.OutOrStdout(), results)
		}
		formatMatchResults(cmd.OutOrStdout(), results)
		return nil
	},
}

func init() {
	matchCmd.Flags().StringVarP(&matchOutput, "output", "o", "text", "output format: text or yaml")
	rootCmd.AddCommand(matchCmd)
}

func resolveNames(r *match.Resolver, names []string) []matchResult {
	out := make([]matchResult, 0, len(names))
	for _, name := range names {
		mr := matchResult{Name: name, Key: normalize.Key(name)}
		if hit, ok := r.Resolve(name); ok {
			entry := hit.Entry
			mr.Matched = true
			mr.Strategy = hit.Strategy
			mr.Matching = hit.Key
			mr.Entry = &entry
		}
		out = append(out, mr)
	}
	return out
}

func writeMatchYAML(out io.Writer, results []matchResult) error {
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(results); err != nil {
		return eris.Wrap(err, "encode yaml")
	}
	return eris.Wrap(enc.Close(), "encode yaml")
}

func formatMatchResults(out io.Writer, results []matchResult) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tSTRATEGY\tSOURCE\tREFERENCE\tLAT\tLON")
	for _, r := range results {
		if !r.Matched {
			_, _ = fmt.Fprintf(w, "%s\t-\t-\t-\t-\t-\n", r.Name)
			continue
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.6f\t%.6f\n",
			r.Name, r.Strategy, r.Entry.Source, r.Entry.RawName, r.Entry.Lat, r.Entry.Lon)
	}
	_ = w.Flush()
}
