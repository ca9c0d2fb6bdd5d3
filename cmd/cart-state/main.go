package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/cart-state-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/cart-state-go/internal/config"
	"github.com/andreasstove999/ecommerce-system/cart-state-go/internal/events"
	"github.com/andreasstove999/ecommerce-system/cart-state-go/internal/httpapi"
	"github.com/andreasstove999/ecommerce-system/cart-state-go/internal/logging"
	"github.com/andreasstove999/ecommerce-system/cart-state-go/internal/metrics"
	"github.com/andreasstove999/ecommerce-system/cart-state-go/internal/session"
	"github.com/andreasstove999/ecommerce-system/cart-state-go/internal/storage"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.App.Name, cfg.App.LogLevel, cfg.App.LogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("cart-state stopped", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	kv, err := storage.Open(ctx, cfg.Storage, logger)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer func() {
		if err := kv.Close(); err != nil {
			logger.Warn("storage close error", zap.Error(err))
		}
	}()

	m := metrics.New()

	var publisher *events.Publisher
	if cfg.Rabbit.URL != "" {
		conn, err := events.Dial(cfg.Rabbit.URL)
		if err != nil {
			return err
		}
		defer conn.Close()

		publisher, err = events.NewPublisher(conn, cfg.Rabbit.Exchange, cfg.Rabbit.RoutingKey, logger)
		if err != nil {
			return fmt.Errorf("create publisher: %w", err)
		}
		defer func() {
			if err := publisher.Close(); err != nil {
				logger.Warn("publisher close error", zap.Error(err))
			}
		}()
	}

	sessions, err := session.NewManager(kv,
		cart.StorageKey(cfg.Cart.Namespace, cfg.Cart.StateVersion),
		cfg.Session.MaxActive,
		session.WithLogger(logger),
		session.WithSizeObserver(m.SetActiveSessions),
		session.WithStoreOptions(func(sessionID string) []cart.Option {
			opts := []cart.Option{
				cart.WithRecorder(m),
				cart.WithAllowEmptyCheckout(cfg.Cart.AllowEmptyCheckout),
			}
			if publisher != nil {
				opts = append(opts, cart.WithCheckoutHook(publisher.CheckoutHook(sessionID)))
			}
			return opts
		}),
	)
	if err != nil {
		return err
	}

	router := httpapi.NewRouter(httpapi.Deps{
		Logger:   logger,
		Sessions: sessions,
		Metrics:  m,
		Cookie: httpapi.CookieOptions{
			Name:   cfg.Session.CookieName,
			MaxAge: cfg.Session.CookieMaxAge,
			Secure: cfg.Session.CookieSecure,
		},
		CORSAllowOrigins: cfg.HTTP.CORSAllowOrigins,
		RequestTimeout:   cfg.HTTP.RequestTimeout,
	})

	srv := &http.Server{
		Addr:         cfg.App.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("cart-state listening", zap.String("addr", cfg.App.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown error", zap.Error(err))
	}
	return nil
}
