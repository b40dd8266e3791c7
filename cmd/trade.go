package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonandersen/tradedesk/internal/api"
	"github.com/jonandersen/tradedesk/internal/config"
	"github.com/jonandersen/tradedesk/internal/keyring"
	"github.com/jonandersen/tradedesk/internal/output"
	"github.com/jonandersen/tradedesk/pkg/tradeapi"
)

// tradeOptions holds dependencies for the trade commands.
type tradeOptions struct {
	baseURL        string
	authToken      string
	currency       string
	tradingEnabled bool
	jsonMode       bool
}

// resolve fills opts from config, the keyring and global flags.
func (opts *tradeOptions) resolve() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	token, err := keyring.SessionToken(keyring.NewEnvStore(keyring.NewSystemStore()))
	if err != nil {
		return err
	}
	if token == "" {
		return fmt.Errorf("no session token configured. Run: tradedesk configure")
	}

	opts.baseURL = cfg.ServerURL
	opts.authToken = token
	opts.currency = cfg.CurrencySymbol
	opts.tradingEnabled = cfg.IsTradingEnabled()
	opts.jsonMode = GetJSONMode()
	return nil
}

// newTradeCmd creates the trade command with buy and sell subcommands.
func newTradeCmd(opts *tradeOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trade",
		Short: "Place market orders",
		Long: `Buy or sell at the server's current price.

Examples:
  tradedesk trade buy TCS.NS --quantity 10 --yes    # Buy 10 shares
  tradedesk trade sell TCS.NS --quantity 5 --yes    # Sell 5 shares`,
	}

	cmd.AddCommand(newTradeActionCmd(opts, tradeapi.ActionBuy))
	cmd.AddCommand(newTradeActionCmd(opts, tradeapi.ActionSell))
	return cmd
}

func newTradeActionCmd(opts *tradeOptions, action string) *cobra.Command {
	var quantity int
	var skipConfirm bool

	cmd := &cobra.Command{
		Use:   action + " SYMBOL",
		Short: fmt.Sprintf("%s shares at the current price", strings.ToUpper(action[:1])+action[1:]),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrade(cmd, *opts, action, args[0], quantity, skipConfirm)
		},
	}

	cmd.Flags().IntVarP(&quantity, "quantity", "q", 0, "Number of shares (required)")
	cmd.Flags().BoolVarP(&skipConfirm, "yes", "y", false, "Skip confirmation prompt")
	cmd.SilenceUsage = true

	return cmd
}

func runTrade(cmd *cobra.Command, opts tradeOptions, action, symbol string, quantity int, skipConfirm bool) error {
	// Check trading is enabled
	if !opts.tradingEnabled {
		return config.ErrTradingDisabled
	}

	if quantity <= 0 {
		return fmt.Errorf("quantity must be a positive whole number (use --quantity flag)")
	}

	symbol = strings.ToUpper(symbol)

	// Show order preview (not in JSON mode)
	if !opts.jsonMode {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "\nOrder Preview:\n")
		_ = output.New(cmd.OutOrStdout(), false).Fields([]output.Field{
			{Label: "Action", Value: strings.ToUpper(action)},
			{Label: "Symbol", Value: symbol},
			{Label: "Quantity", Value: fmt.Sprintf("%d shares", quantity)},
		})
		_, _ = fmt.Fprintln(cmd.OutOrStdout())
	}

	// Require confirmation unless --yes flag is set
	if !skipConfirm {
		return fmt.Errorf("order requires confirmation (use --yes to confirm)")
	}

	ctx, cancel := context.WithTimeout(context.Background(), api.DefaultTimeout)
	defer cancel()

	client := api.NewClient(opts.baseURL, opts.authToken)
	result, err := client.PlaceOrder(ctx, tradeapi.OrderRequest{
		Action:   action,
		Symbol:   symbol,
		Quantity: quantity,
	})
	if err != nil {
		if msg, ok := tradeapi.RejectionMessage(err); ok {
			return fmt.Errorf("order rejected: %s", msg)
		}
		var apiErr *tradeapi.APIError
		if errors.As(err, &apiErr) {
			switch {
			case apiErr.IsUnauthorized():
				return fmt.Errorf("session token was not accepted. Run: tradedesk configure")
			case apiErr.IsNotFound():
				return fmt.Errorf("no order endpoint at %s (check server_url): %w", opts.baseURL, err)
			}
		}
		return fmt.Errorf("failed to place order: %w", err)
	}

	formatter := output.New(cmd.OutOrStdout(), opts.jsonMode)
	if opts.jsonMode {
		out := map[string]any{
			"status":     "executed",
			"action":     action,
			"symbol":     symbol,
			"quantity":   quantity,
			"request_id": result.RequestID,
		}
		if p := result.Response.Portfolio; p != nil {
			out["portfolio"] = p
		}
		return formatter.Print(out)
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Order executed!\n")
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  %s %d shares of %s\n", strings.ToUpper(action), quantity, symbol)
	_ = formatter.Fields([]output.Field{{Label: "Request ID", Value: result.RequestID}})

	p := result.Response.Portfolio
	if p == nil {
		return nil
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "\nBalance: %s\n\n", tradeapi.FormatCurrency(opts.currency, p.Balance))
	if len(p.Holdings) == 0 {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No holdings")
		return nil
	}
	rows := make([][]string, 0, len(p.Holdings))
	for _, h := range p.Holdings {
		rows = append(rows, []string{
			h.Symbol,
			fmt.Sprintf("%d", h.Quantity),
			tradeapi.FormatCurrency(opts.currency, h.AvgPrice),
		})
	}
	return formatter.Table([]string{"Symbol", "Qty", "Avg Price"}, rows)
}

func init() {
	opts := &tradeOptions{}
	tradeCmd := newTradeCmd(opts)
	tradeCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return opts.resolve()
	}
	rootCmd.AddCommand(tradeCmd)
}
