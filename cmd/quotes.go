package cmd

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonandersen/tradedesk/internal/config"
	"github.com/jonandersen/tradedesk/internal/feed"
	"github.com/jonandersen/tradedesk/internal/keyring"
	"github.com/jonandersen/tradedesk/internal/output"
	"github.com/jonandersen/tradedesk/pkg/tradeapi"
)

// quotesOptions holds dependencies for the quotes command.
type quotesOptions struct {
	serverURL string
	token     string
	currency  string
	symbols   config.Symbols
	jsonMode  bool
	logger    *zap.Logger
}

var quoteHeaders = []string{"Symbol", "Name", "Price", "Change", "Signal", "Stop Loss", "Volume"}

func newQuotesCmd(opts *quotesOptions) *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "quotes",
		Short: "Print live market snapshots",
		Long: `Connect to the server's push channel and print the next market snapshots.

Examples:
  tradedesk quotes              # Print the next snapshot
  tradedesk quotes --count 5    # Print five snapshots as they arrive
  tradedesk quotes --json       # Output in JSON format`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if count < 1 {
				return fmt.Errorf("count must be at least 1")
			}
			return runQuotes(cmd, *opts, count)
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 1, "Number of snapshots to print")
	cmd.SilenceUsage = true

	return cmd
}

func runQuotes(cmd *cobra.Command, opts quotesOptions, count int) error {
	logger := opts.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	listener, err := feed.NewClient(opts.serverURL, opts.token, logger)
	if err != nil {
		return err
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	defer cancel()
	go listener.Run(ctx)

	formatter := output.New(cmd.OutOrStdout(), opts.jsonMode)
	printed := 0
	for ev := range listener.Events() {
		switch ev := ev.(type) {
		case feed.Updates:
			if printed > 0 && !opts.jsonMode {
				_, _ = fmt.Fprintln(cmd.OutOrStdout())
			}
			if err := formatter.Table(quoteHeaders, quoteRows(opts, ev.Stocks)); err != nil {
				return err
			}
			printed++
			if printed == count {
				return nil
			}
		case feed.StatusChange:
			// A one-shot command does not wait out reconnects.
			if ev.Status == feed.StatusReconnecting && ev.Err != nil {
				return fmt.Errorf("feed unavailable: %w", ev.Err)
			}
		}
	}
	return errors.New("feed closed before any snapshot arrived")
}

// quoteRows orders configured symbols first, then any others alphabetically.
func quoteRows(opts quotesOptions, stocks map[string]tradeapi.Quote) [][]string {
	order := make([]string, 0, len(stocks))
	for _, s := range opts.symbols {
		if _, ok := stocks[s.Symbol]; ok && !slices.Contains(order, s.Symbol) {
			order = append(order, s.Symbol)
		}
	}
	var rest []string
	for sym := range stocks {
		if !slices.Contains(order, sym) {
			rest = append(rest, sym)
		}
	}
	sort.Strings(rest)
	order = append(order, rest...)

	rows := make([][]string, 0, len(order))
	for _, sym := range order {
		q := stocks[sym]
		name := q.Name
		if name == "" {
			name = opts.symbols.Name(sym)
		}
		signal := q.TradeSignal
		if signal == "" {
			signal = tradeapi.Placeholder
		}
		stop := tradeapi.Placeholder
		if q.StopLoss.Valid && !q.StopLoss.Decimal.IsZero() {
			stop = tradeapi.FormatCurrency(opts.currency, q.StopLoss.Decimal)
		}
		rows = append(rows, []string{
			sym,
			name,
			tradeapi.FormatCurrency(opts.currency, q.Price),
			tradeapi.FormatPercent(q.Change),
			signal,
			stop,
			tradeapi.FormatVolume(int64(q.Volume)),
		})
	}
	return rows
}

func init() {
	opts := &quotesOptions{}
	quotesCmd := newQuotesCmd(opts)
	quotesCmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		token, err := keyring.SessionToken(keyring.NewEnvStore(keyring.NewSystemStore()))
		if err != nil {
			return err
		}
		logger, err := newFileLogger(cfg)
		if err != nil {
			return err
		}

		opts.serverURL = cfg.ServerURL
		opts.token = token
		opts.currency = cfg.CurrencySymbol
		opts.symbols = cfg.Symbols
		opts.jsonMode = GetJSONMode()
		opts.logger = logger
		return nil
	}
	rootCmd.AddCommand(quotesCmd)
}
