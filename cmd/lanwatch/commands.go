// cmd/lanwatch/commands.go
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/tamzrod/lanwatch/internal/agent"
	"github.com/tamzrod/lanwatch/internal/config"
	"github.com/tamzrod/lanwatch/internal/logging"
	"github.com/tamzrod/lanwatch/internal/metrics"
)

type options struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:          "lanwatch",
		Short:        "Chat-controlled LAN watcher: status reports, telemetry and subnet sweeps",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "lanwatch.yaml", "Path to lanwatch.yaml")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Override log.level")

	root.AddCommand(newRunCmd(opts), newCheckCmd(opts))
	return root
}

func newRunCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the agent until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			log := logging.New("main")

			m := metrics.New()
			a, closer, err := agent.Build(cfg, m)
			if err != nil {
				return errors.WithMessage(err, "build agent")
			}
			defer func() {
				if err := closer(); err != nil {
					log.WithError(err).Warn("close failed")
				}
			}()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			log.WithField("state", cfg.State.Path).Info("starting")
			return agent.RunWithMetrics(ctx, a, cfg.Metrics.Addr, m.Handler())
		},
	}
}

func newCheckCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the configuration file and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "config ok: principal=%d probe=%s state=%s\n",
				cfg.Auth.PrincipalID, cfg.Scan.Probe.Method, cfg.State.Path)
			return nil
		},
	}
}

// loadConfig reads the config file and applies logging settings from it,
// with --log-level taking precedence.
func loadConfig(opts *options) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}

	level := cfg.Log.Level
	if opts.logLevel != "" {
		level = opts.logLevel
	}
	_ = logging.Set(logging.Level(level))
	_ = logging.Set(logging.Format(cfg.Log.Format))

	return cfg, nil
}
