package cmd

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonandersen/tradedesk/internal/api"
	"github.com/jonandersen/tradedesk/internal/feed"
	"github.com/jonandersen/tradedesk/internal/keyring"
	"github.com/jonandersen/tradedesk/internal/tui"
)

func init() {
	uiCmd := &cobra.Command{
		Use:   "ui",
		Short: "Interactive terminal UI",
		Long: `Launch the trading desk.

The market board updates live from the server's push channel. Your
portfolio updates whenever the server reports a change for the configured
email.

Keyboard shortcuts:
  1/2      Switch between Market and Portfolio
  ↑/↓      Navigate rows
  enter/t  Trade the selected symbol
  b/s      Buy or sell in the trade dialog (ctrl+b/ctrl+s while typing)
  esc      Close the trade dialog
  q        Quit`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUI()
		},
	}

	uiCmd.SilenceUsage = true
	rootCmd.AddCommand(uiCmd)
}

func runUI() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := newFileLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	store := keyring.NewEnvStore(keyring.NewSystemStore())
	token, err := keyring.SessionToken(store)
	if err != nil {
		return err
	}

	listener, err := feed.NewClient(cfg.ServerURL, token, logger.Named("feed"))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go listener.Run(ctx)

	orders := api.NewClient(cfg.ServerURL, token).WithTokenRefresher(func() (string, error) {
		return keyring.SessionToken(store)
	})

	logger.Info("starting ui",
		zap.String("server", cfg.ServerURL),
		zap.String("email", cfg.Email),
		zap.Int("symbols", len(cfg.Symbols)),
	)

	p := tea.NewProgram(tui.New(cfg, listener.Events(), orders, logger), tea.WithAltScreen())
	_, err = p.Run()
	return err
}
