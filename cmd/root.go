package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/bridge-geocode/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "bridge-geocode",
	Short: "Fill in missing coordinates for Berlin bridge records",
	Long:  "Matches bridge names from the bridge data files against Wikipedia's list of Berlin bridges and the Geoportal structure layer, writes coordinates back and reports what could not be matched.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
