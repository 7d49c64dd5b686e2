package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/existflow/edugo/internal/config"
	"github.com/existflow/edugo/internal/logger"
	"github.com/existflow/edugo/internal/notify"
	"github.com/existflow/edugo/internal/tui"
	"github.com/spf13/cobra"
)

var (
	logLevel   string
	logFile    string
	logConsole bool
	serverURL  string
	apiKey     string
)

var rootCmd = &cobra.Command{
	Use:   "edugo",
	Short: "EduGo - Browse, buy and follow online courses from the terminal",
	Long: `EduGo is a terminal client for the EduGo learning marketplace.
Browse the catalog, buy courses with a simulated card, keep favorites
and play course content.

Run 'edugo' without arguments to launch the interactive catalog.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Load config from file (or defaults if not exists)
		loaded, err := config.Load()
		if err != nil {
			logger.Warn("Failed to load config, using defaults", logger.F("error", err))
			loaded = config.DefaultConfig()
		}

		// Override with CLI flags if provided
		configChanged := false
		if cmd.Flags().Changed("log-level") {
			loaded.LogLevel = logLevel
			configChanged = true
		}
		if cmd.Flags().Changed("log-file") {
			loaded.LogFile = logFile
			configChanged = true
		}
		if cmd.Flags().Changed("log-console") {
			loaded.LogConsole = logConsole
			configChanged = true
		}
		if cmd.Flags().Changed("server") {
			loaded.ServerURL = serverURL
			configChanged = true
		}
		if cmd.Flags().Changed("api-key") {
			loaded.APIKey = apiKey
			configChanged = true
		}

		// Save config if changed via CLI flags
		if configChanged {
			if err := loaded.Save(); err != nil {
				logger.Warn("Failed to save config", logger.F("error", err))
			}
		}
		cfg = loaded

		logConfig := logger.Config{
			Level:      logger.ParseLevel(cfg.LogLevel),
			FilePath:   cfg.LogFile,
			MaxSize:    10 * 1024 * 1024, // 10MB
			MaxAge:     7,
			MaxBackups: 5,
			Console:    cfg.LogConsole,
		}

		if err := logger.Init(logConfig); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		logger.Info("EduGo started", logger.F("command", cmd.Name()))
		return nil
	},

	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app) error {
			logger.Info("Launching TUI")
			m := tui.NewModel(tui.Deps{
				Gateway:         a.gw,
				Sessions:        a.sessions,
				Notifier:        notify.Multi{notify.LogNotifier{}, notify.NewReceiptNotifier(a.db, nil)},
				RefreshInterval: cfg.RefreshInterval(),
				Timeout:         cfg.Timeout(),
			})
			p := tea.NewProgram(m, tea.WithAltScreen())

			if _, err := p.Run(); err != nil {
				logger.Error("TUI error", logger.F("error", err))
				return fmt.Errorf("failed to run TUI: %w", err)
			}

			logger.Info("TUI exited normally")
			return nil
		})
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Info("EduGo exiting", logger.F("command", cmd.Name()))
		_ = logger.Close()
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Add logging flags
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (DEBUG, INFO, WARN, ERROR)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Path to log file")
	rootCmd.PersistentFlags().BoolVar(&logConsole, "log-console", false, "Enable console logging")

	// Backend flags, persisted like the logging ones
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "Backend base URL")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "Backend API key")

	// Add subcommands
	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(coursesCmd)
	rootCmd.AddCommand(buyCmd)
	rootCmd.AddCommand(cardsCmd)
	rootCmd.AddCommand(favoritesCmd)
	rootCmd.AddCommand(mineCmd)
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(receiptsCmd)
	rootCmd.AddCommand(configCmd)
}
