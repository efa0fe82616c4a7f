// Package cli holds the geotask cobra commands.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/nhle/geotask/internal/app"
	"github.com/nhle/geotask/internal/logging"
	"github.com/nhle/geotask/internal/model"
	"github.com/nhle/geotask/internal/notify"
)

var (
	configPath string
	logLevel   string
	logFile    string
	backend    string
	serverURL  string

	cfg       *model.AppConfig
	logger    *slog.Logger
	logCloser io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "geotask",
	Short: "GeoTask - location-aware task lists",
	Long: `GeoTask keeps task lists in sync with a backend and reminds you of a
list when you arrive at the place it is anchored to.

Run 'geotask' without arguments to launch the interactive TUI.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := model.LoadConfig(configPath)
		if err != nil {
			return err
		}

		if cmd.Flags().Changed("log-level") {
			loaded.Log.Level = logLevel
		}
		if cmd.Flags().Changed("log-file") {
			loaded.Log.File = logFile
		}
		if cmd.Flags().Changed("backend") {
			loaded.Backend.Mode = backend
		}
		if cmd.Flags().Changed("server") {
			loaded.Backend.ServerURL = serverURL
		}
		if err := loaded.Validate(); err != nil {
			return err
		}
		cfg = loaded

		l, closer, err := logging.Setup(cfg.Log)
		if err != nil {
			return fmt.Errorf("initializing logger: %w", err)
		}
		logger, logCloser = l, closer

		logger.Info("geotask started", "command", cmd.Name(), "backend", cfg.Backend.Mode)
		return nil
	},
	RunE: runTUI,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			logger.Info("geotask exiting", "command", cmd.Name())
		}
		if logCloser != nil {
			_ = logCloser.Close()
		}
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", model.DefaultConfigPath(), "Path to config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Path to log file (empty logs to stderr)")
	rootCmd.PersistentFlags().StringVar(&backend, "backend", "", "Backend mode (local, remote)")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "Backend URL in remote mode")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(listsCmd)
	rootCmd.AddCommand(locateCmd)
	rootCmd.AddCommand(remindersCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
}

func runTUI(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// The program does not exist until the runtime is built, so reminders
	// reach it through this forwarder.
	var program atomic.Pointer[tea.Program]
	toUI := notify.Func(func(_ context.Context, n model.Notification) error {
		if p := program.Load(); p != nil {
			p.Send(app.ReminderMsg{Notification: n})
		}
		return nil
	})

	rt, err := newRuntime(ctx, cfg, logger, toUI)
	if err != nil {
		return err
	}
	defer rt.Close()

	rt.Arm(ctx)
	rt.sampler.Start(ctx)
	defer rt.sampler.Stop()

	m := app.New(ctx, app.Deps{
		Engine:        rt.engine,
		Sessions:      rt.sessions,
		Sampler:       rt.sampler,
		Geofence:      rt.geo,
		Notifications: rt.notifications,
		Logger:        logger,
	})
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	program.Store(p)

	logger.Info("launching TUI")
	if _, err := p.Run(); err != nil {
		logger.Error("TUI error", "error", err)
		return fmt.Errorf("running TUI: %w", err)
	}
	logger.Info("TUI exited normally")
	return nil
}
