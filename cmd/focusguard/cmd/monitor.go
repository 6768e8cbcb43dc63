package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/psantana5/focusguard/internal/config"
	"github.com/psantana5/focusguard/internal/desktop"
	"github.com/psantana5/focusguard/internal/guard"
	"github.com/psantana5/focusguard/internal/monitor"
	"github.com/psantana5/focusguard/internal/procs"
	"github.com/psantana5/focusguard/internal/shell"
	"github.com/psantana5/focusguard/pkg/shutdown"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Run the relaunch loop in the foreground",
	Long: `Monitor checks every configured target once per interval and relaunches
any that are not running. After the pause threshold it posts one notification
and idles for the pause duration before starting over.

The login agent installed by 'focusguard start' runs this command through the
generated monitor script. It runs until SIGINT or SIGTERM.`,
	Hidden: true,
	Args:   cobra.NoArgs,
	RunE:   runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
}

func runMonitor(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadRuntime()
	if err != nil {
		return err
	}
	logger = logger.WithField("run", uuid.NewString())

	specs, err := config.LoadTargets(cfg.TargetsFile)
	if err != nil {
		return err
	}
	runner := shell.ExecRunner{}
	targets, err := guard.BuildTargets(specs, runner)
	if err != nil {
		return err
	}

	metrics := monitor.NewMetrics()
	loop, err := monitor.New(monitor.Config{
		Targets:        targets,
		CheckInterval:  cfg.CheckInterval,
		PauseThreshold: cfg.PauseThreshold,
		PauseDuration:  cfg.PauseDuration,
		Lister:         procs.SystemLister{},
		Notifier:       desktop.NewScriptNotifier(runner),
		Logger:         logger,
		Metrics:        metrics,
		Textfile:       cfg.MetricsTextfile,
	})
	if err != nil {
		return err
	}

	mgr := shutdown.New(10*time.Second, logger)
	ctx, cancel := mgr.NotifyContext(cmd.Context())
	defer cancel()

	if cfg.MetricsAddr != "" {
		srv := monitor.NewServer(cfg.MetricsAddr, loop, metrics, logger)
		if err := srv.Start(); err != nil {
			return err
		}
		mgr.Register("status server", srv.Shutdown)
	}
	if cfg.MetricsTextfile != "" {
		path := cfg.MetricsTextfile
		mgr.Register("metrics textfile", func(ctx context.Context) error {
			return metrics.WriteTextfile(path)
		})
	}

	err = loop.Run(ctx)
	mgr.Shutdown()

	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("monitor: %w", err)
	}
	return nil
}
