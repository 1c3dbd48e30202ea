package main

import (
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/bridge-geocode/internal/dataset"
	"github.com/sells-group/bridge-geocode/internal/enrich"
	"github.com/sells-group/bridge-geocode/internal/match"
	"github.com/sells-group/bridge-geocode/internal/report"
)

var (
	runDryRun    bool
	runUnmatched string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Geocode the configured bridge data files",
	Long:  "Builds the reference indices, fills in coordinates for every bridge that lacks them, writes the data files back and reports unmatched bridges as CSV.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		runID := uuid.New().String()
		restore := zap.ReplaceGlobals(zap.L().With(zap.String("run_id", runID)))
		defer restore()
		log := zap.L().With(zap.String("component", "run"))

		indices, err := buildIndices(ctx, cfg)
		if err != nil {
			return err
		}
		resolver := match.NewResolver(indices...)

		docs, err := dataset.LoadAll(cfg.Data.Files)
		if err != nil {
			return eris.Wrap(err, "load data files")
		}

		var total enrich.Result
		for _, doc := range docs {
			res := enrich.Enrich(doc.Bridges, resolver)
			total.Add(res)
			log.Info("data file geocoded",
				zap.String("path", doc.Path),
				zap.Int("matched", res.Matched),
				zap.Int("unmatched", len(res.Unmatched)),
			)

			if runDryRun {
				continue
			}
			if err := doc.Save(); err != nil {
				return err
			}
			log.Info("data file updated", zap.String("path", doc.Path))
		}

		path := runUnmatched
		if path == "" {
			path = cfg.Data.UnmatchedCSV
		}
		written, err := report.WriteUnmatchedFile(path, total.Unmatched)
		if err != nil {
			return err
		}
		if written {
			log.Info("unmatched bridges written", zap.String("path", path), zap.Int("count", len(total.Unmatched)))
		}

		report.WriteSummary(cmd.OutOrStdout(), total)
		return nil
	},
}

func init() {
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "match and report without writing the data files")
	runCmd.Flags().StringVar(&runUnmatched, "unmatched", "", "unmatched CSV path (default data.unmatched_csv)")
	rootCmd.AddCommand(runCmd)
}
