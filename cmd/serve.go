package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonandersen/tradedesk/internal/logging"
	"github.com/jonandersen/tradedesk/internal/simserver"
)

// EnvRedisAddr supplies the default for --redis.
const EnvRedisAddr = "REDIS_ADDR"

type serveOptions struct {
	addr      string
	redisAddr string
	interval  time.Duration
	seed      int64
}

func newServeCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the development trading server",
		Long: `Run a local trading server for development and demos.

Prices for the configured symbols follow a random walk and are pushed to
every connected client. Orders are filled at the current price. Viewers are
identified by their bearer token.

Portfolios live in memory unless --redis (or REDIS_ADDR) is set.

Examples:
  tradedesk serve
  tradedesk serve --addr :8080 --interval 1s
  tradedesk serve --redis localhost:6379`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", simserver.DefaultOptions().Addr, "Listen address")
	cmd.Flags().StringVar(&opts.redisAddr, "redis", os.Getenv(EnvRedisAddr), "Redis address for portfolio storage")
	cmd.Flags().DurationVar(&opts.interval, "interval", simserver.DefaultOptions().TickInterval, "Price tick interval")
	cmd.Flags().Int64Var(&opts.seed, "seed", 0, "Random seed for prices (0 picks one)")
	cmd.SilenceUsage = true

	return cmd
}

func runServe(opts serveOptions) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.NewConsole(debug)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, opts.redisAddr, logger)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	simOpts := simserver.DefaultOptions()
	simOpts.Addr = opts.addr
	simOpts.TickInterval = opts.interval
	simOpts.Symbols = cfg.Symbols
	if opts.seed != 0 {
		simOpts.Seed = opts.seed
	}

	return simserver.New(simOpts, store, logger).Run(ctx)
}

func openStore(ctx context.Context, addr string, logger *zap.Logger) (simserver.PortfolioStore, error) {
	if addr == "" {
		logger.Info("using in-memory portfolio store")
		return simserver.NewMemoryStore(), nil
	}

	rdb := redis.NewClient(&redis.Options{Addr: addr})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	logger.Info("using redis portfolio store", zap.String("addr", addr))
	return simserver.NewRedisStore(rdb), nil
}

func init() {
	rootCmd.AddCommand(newServeCmd())
}
