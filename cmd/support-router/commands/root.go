// Package commands holds the support-router command tree.
package commands

import (
	"fmt"

	"support-router/internal/common/config"

	"github.com/spf13/cobra"
)

var version = "dev"

func SetVersion(v string) {
	version = v
}

type rootOptions struct {
	configPath string
	logLevel   string
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "support-router",
		Short: "Route customer-service queries to FAQ and order handlers",
		Long: `support-router classifies customer queries as FAQ, order status or unclear,
answers them from the knowledge base and order book, asks for clarification once and
hands repeated unclear queries to human support.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Config file (default: configs/config.yaml)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Override logging.level")

	cmd.AddCommand(newChatCmd(opts))
	cmd.AddCommand(newEvaluateCmd(opts))
	cmd.AddCommand(newServeCmd(opts))

	return cmd
}

func Execute() error {
	return NewRootCmd().Execute()
}

func (o *rootOptions) loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if o.configPath != "" {
		cfg, err = config.LoadFromFile(o.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("config load failed: %w", err)
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	return cfg, nil
}
