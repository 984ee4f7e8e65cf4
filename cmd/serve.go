package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/shell-match/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the matching HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		assessOn := cfg.Assess.Enabled
		if assessOn {
			if err := cfg.Validate("assess"); err != nil {
				zap.L().Warn("llm assessment disabled", zap.Error(err))
				assessOn = false
			}
		}

		env, err := initEnv(ctx, cfg, envOptions{Assess: assessOn})
		if err != nil {
			return err
		}
		defer env.Close()

		srv := server.New(server.Deps{
			Config:     cfg,
			Pipeline:   env.Pipeline,
			Salesforce: env.Salesforce,
			Assessor:   env.Assessor,
			Store:      env.Store,
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}
		return srv.ListenAndServe(ctx, port)
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
