// Package simserver is a development trading server: a random-walk market
// broadcast over websocket and a /trade endpoint with simple bookkeeping.
package simserver

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/jonandersen/tradedesk/internal/config"
	"github.com/jonandersen/tradedesk/pkg/tradeapi"
)

// Options configures a Server.
type Options struct {
	Addr         string
	TickInterval time.Duration
	Symbols      []config.Symbol
	Seed         int64
}

// DefaultOptions returns options for a local server on :5000.
func DefaultOptions() Options {
	return Options{
		Addr:         ":5000",
		TickInterval: 2 * time.Second,
		Symbols:      config.DefaultSymbols(),
		Seed:         time.Now().UnixNano(),
	}
}

// Server wires the market, hub and store behind a gin router.
type Server struct {
	opts   Options
	market *Market
	hub    *Hub
	store  PortfolioStore
	locks  *userLocks
	logger *zap.Logger
	now    func() time.Time

	upgrader websocket.Upgrader
}

// New creates a server. The caller owns store.
func New(opts Options, store PortfolioStore, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = DefaultOptions().TickInterval
	}
	if len(opts.Symbols) == 0 {
		opts.Symbols = config.DefaultSymbols()
	}
	return &Server{
		opts:   opts,
		market: NewMarket(opts.Symbols, opts.Seed),
		hub:    NewHub(logger),
		store:  store,
		locks:  newUserLocks(),
		logger: logger,
		now:    time.Now,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// Router returns the HTTP handler.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())

	router.GET("/ws", s.handleWebSocket)
	router.POST("/trade", s.handleTrade)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "clients": s.hub.Count()})
	})
	return router
}

// Tick advances the market once and broadcasts the snapshot.
func (s *Server) Tick() {
	snapshot := s.market.Tick(s.now())
	if err := s.hub.BroadcastEvent(tradeapi.EventUpdates, tradeapi.UpdatesEvent{Stocks: snapshot}); err != nil {
		s.logger.Error("failed to broadcast updates", zap.Error(err))
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{Addr: s.opts.Addr, Handler: s.Router()}

	go s.runTicker(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("simulator started", zap.String("addr", s.opts.Addr), zap.Int("symbols", len(s.opts.Symbols)))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.hub.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("shutdown complete")
	return nil
}

func (s *Server) runTicker(ctx context.Context) {
	ticker := time.NewTicker(s.opts.TickInterval)
	defer ticker.Stop()

	s.Tick()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick()
		}
	}
}

// bearerIdentity returns the viewer identity carried by the Authorization header.
func bearerIdentity(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
}

func (s *Server) handleWebSocket(c *gin.Context) {
	identity := bearerIdentity(c.Request)

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	var initial [][]byte
	if snapshot := s.market.Snapshot(); len(snapshot) > 0 {
		if msg, err := encodeEvent(tradeapi.EventUpdates, tradeapi.UpdatesEvent{Stocks: snapshot}); err == nil {
			initial = append(initial, msg)
		}
	}
	if identity != "" {
		p, err := s.store.Get(c.Request.Context(), identity)
		if err != nil {
			s.logger.Error("failed to load portfolio", zap.String("email", identity), zap.Error(err))
		} else if msg, err := encodeEvent(tradeapi.EventPortfolioUpdate, tradeapi.PortfolioEvent{Email: identity, Portfolio: p}); err == nil {
			initial = append(initial, msg)
		}
	}

	client := NewClient(conn, s.hub, s.logger, identity)
	s.hub.Register(client, initial...)
	client.Start()
	s.logger.Info("client connected", zap.String("client", client.ID()), zap.String("email", client.Identity()))
}

func (s *Server) handleTrade(c *gin.Context) {
	email := bearerIdentity(c.Request)
	if email == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var req tradeapi.OrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	price, ok := s.market.Price(req.Symbol)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": ErrMsgInvalidSymbol})
		return
	}

	unlock := s.locks.lock(email)
	defer unlock()

	ctx := c.Request.Context()
	portfolio, err := s.store.Get(ctx, email)
	if err != nil {
		s.logger.Error("failed to load portfolio", zap.String("email", email), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load portfolio"})
		return
	}

	if err := applyTrade(&portfolio, req, price, s.now()); err != nil {
		var rej *TradeError
		if errors.As(err, &rej) {
			s.logger.Info("trade rejected", zap.String("email", email), zap.String("symbol", req.Symbol), zap.String("reason", rej.Message))
			c.JSON(http.StatusBadRequest, gin.H{"error": rej.Message})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if err := s.store.Save(ctx, email, portfolio); err != nil {
		s.logger.Error("failed to save portfolio", zap.String("email", email), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save portfolio"})
		return
	}

	s.logger.Info("trade executed",
		zap.String("email", email),
		zap.String("action", req.Action),
		zap.String("symbol", req.Symbol),
		zap.Int("quantity", req.Quantity),
		zap.String("price", price.String()),
		zap.String("request_id", c.GetHeader("X-Request-ID")),
	)

	if err := s.hub.BroadcastEvent(tradeapi.EventPortfolioUpdate, tradeapi.PortfolioEvent{Email: email, Portfolio: portfolio}); err != nil {
		s.logger.Error("failed to broadcast portfolio", zap.Error(err))
	}

	c.JSON(http.StatusOK, tradeapi.OrderResponse{
		Success: true,
		Portfolio: &tradeapi.Portfolio{
			Balance:  portfolio.Balance,
			Holdings: portfolio.Holdings,
		},
	})
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
