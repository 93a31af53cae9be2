// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jason-s-yu/walletfriends/internal/auth"
	"github.com/jason-s-yu/walletfriends/internal/cache"
	"github.com/jason-s-yu/walletfriends/internal/config"
	"github.com/jason-s-yu/walletfriends/internal/database"
	"github.com/jason-s-yu/walletfriends/internal/friends"
	"github.com/jason-s-yu/walletfriends/internal/handlers"
	"github.com/jason-s-yu/walletfriends/internal/identity"
	"github.com/jason-s-yu/walletfriends/internal/notify"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

func main() {
	logger := logrus.New()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("invalid configuration: %v", err)
	}
	logger.SetLevel(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("database: %v", err)
	}
	defer pool.Close()
	logger.Info("connected to database")

	if cfg.Migrate {
		if err := database.Migrate(ctx, pool); err != nil {
			logger.Fatalf("database: %v", err)
		}
	}

	var sessions *auth.Sessions
	if cfg.SessionKeyPath != "" {
		sessions, err = auth.NewSessionsFromPath(cfg.SessionKeyPath, cfg.TokenExpire)
	} else {
		logger.Warn("SESSION_KEY_PATH is not set: session tokens are only valid on this instance")
		sessions, err = auth.NewSessions(cfg.TokenExpire)
	}
	if err != nil {
		logger.Fatalf("auth: %v", err)
	}

	users := database.NewUserStore(pool)
	hub := notify.NewHub(logger)

	var (
		walletCache identity.Cache
		notifier    friends.Notifier = hub
		bus         *cache.EventBus
	)
	if cfg.RedisAddr != "" {
		rdb, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			logger.Fatalf("redis: %v", err)
		}
		defer rdb.Close()
		walletCache = cache.NewWalletCache(rdb)
		bus = cache.NewEventBus(rdb, cfg.EventsChannel, logger)
		notifier = bus
		logger.WithField("addr", cfg.RedisAddr).Info("connected to redis")
	}

	resolver := identity.NewResolver(users, walletCache, cfg.ResolverCacheTTL, logger)
	svc := friends.NewService(resolver, database.NewFriendStore(pool), friends.Options{
		EnforceParticipant: cfg.EnforceParticipant,
		Notifier:           notifier,
		Logger:             logger,
	})
	if !cfg.EnforceParticipant {
		logger.Warn("ENFORCE_PARTICIPANT is off: cancel/accept do not check that the caller is a party to the request")
	}

	srv := &handlers.Server{
		Friends:  svc,
		Users:    users,
		Resolver: resolver,
		Hub:      hub,
		Sessions: sessions,
		Logger:   logger,

		MessageWindow:  cfg.MessageWindow,
		OriginPatterns: cfg.AllowedOrigins,
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Infof("Running on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if bus != nil {
		g.Go(func() error {
			return bus.Run(gctx, hub.Notify)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Fatalf("server exited: %v", err)
	}
	logger.Info("server stopped")
}
