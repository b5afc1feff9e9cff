package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/emilythestrangee/feedback-board/backend/internal/auth"
	"github.com/emilythestrangee/feedback-board/backend/internal/cache"
	"github.com/emilythestrangee/feedback-board/backend/internal/config"
	"github.com/emilythestrangee/feedback-board/backend/internal/database"
	"github.com/emilythestrangee/feedback-board/backend/internal/feed"
	"github.com/emilythestrangee/feedback-board/backend/internal/handlers"
	"github.com/emilythestrangee/feedback-board/backend/internal/logging"
	"github.com/emilythestrangee/feedback-board/backend/internal/metrics"
	"github.com/emilythestrangee/feedback-board/backend/internal/notify"
	"github.com/emilythestrangee/feedback-board/backend/internal/server"
	"github.com/emilythestrangee/feedback-board/backend/internal/store"
)

var migrateOnStart bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the change feed",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&migrateOnStart, "migrate", false, "Run migrations before serving")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	if err := cfg.ValidateServer(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dsn := cfg.DB.DSN()
	db, err := database.New(dsn, logging.Gorm(logger, verbose), logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if migrateOnStart {
		if err := database.Migrate(ctx, db, dsn); err != nil {
			return err
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg, "board")

	st := store.New(db.GetDB())
	authSvc := auth.NewService(st, auth.NewTokens(cfg.JWTSecret), auth.ConfirmerFromConfig(cfg, logger), cfg.InviteCode, logger)

	hub := feed.NewHub(logger.Named("feed"), m)
	listener := feed.NewListener(dsn, hub, logger.Named("listener"), m)

	var tags cache.TagCache = cache.Nop{}
	var sinks []feed.Sink
	if cfg.RedisURL != "" {
		rc, err := cache.NewRedisTagCache(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer rc.Close()
		tags = rc
		sinks = append(sinks, cache.InvalidationSink{Cache: rc})
	}
	if len(cfg.KafkaBrokers) > 0 {
		ks := feed.NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer ks.Close()
		sinks = append(sinks, ks)
	}
	if cfg.DiscordEnabled() {
		d, err := notify.NewDiscord(cfg.DiscordWebhookID, cfg.DiscordWebhookToken, cfg.PublicURL)
		if err != nil {
			return err
		}
		sinks = append(sinks, d)
	}

	h := handlers.NewHandler(handlers.Deps{
		Store:   st,
		Auth:    authSvc,
		Tags:    tags,
		Hub:     hub,
		Metrics: m,
		Log:     logger,
		Origins: cfg.CORSOrigins,
	})
	srv := server.NewServer(server.Options{
		Port:        cfg.Port,
		CORSOrigins: cfg.CORSOrigins,
		DB:          db,
		Handler:     h,
		Auth:        authSvc,
		Gatherer:    reg,
		Log:         logger,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return hub.Run(gctx) })
	g.Go(func() error { return listener.Run(gctx) })
	for _, s := range sinks {
		g.Go(func() error { return feed.RunSink(gctx, hub, s, logger) })
	}
	g.Go(func() error {
		logger.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
