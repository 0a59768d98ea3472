// Package cli implements the e2ectl command, the operator companion of
// the integration suites: probe a deployment, seed it with data, or fire
// one-off authenticated requests.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bengeek06/waterfall-e2e/internal/config"
)

var (
	envFile string

	cfg *config.Config
	log *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:           "e2ectl",
	Short:         "Operate a Waterfall test deployment",
	Long:          "e2ectl talks to a running Waterfall deployment with the same configuration the integration suites use (WEB_URL, LOGIN, PASSWORD).",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		var err error
		cfg, err = config.LoadFile(envFile)
		if err != nil {
			return fmt.Errorf("load configuration: %w", err)
		}
		log, err = buildLogger(cfg.LogLevel)
		return err
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env.test",
		"dotenv file with the deployment settings")
	rootCmd.AddCommand(probeCmd, seedCmd, requestCmd)
}

func buildLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		lvl = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	c := zap.NewDevelopmentConfig()
	c.Level = lvl
	return c.Build()
}

// requireTarget fails fast when no deployment is configured; every
// subcommand needs one.
func requireTarget() error {
	if !cfg.Configured() {
		return fmt.Errorf("WEB_URL is not set (use --env-file or the environment)")
	}
	return nil
}
