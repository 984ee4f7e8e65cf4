package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/shell-match/internal/config"
)

var (
	cfg     *config.Config
	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "shellmatch",
	Short: "Match customer accounts to ZoomInfo shell accounts",
	Long:  "Scores every customer Account against a collection of ZoomInfo-enriched shell Accounts on website, name and address, picks the best shell, and exports the results.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.LoadFile(cfgFile)
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
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml if present)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
