package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	genaiadapter "labelcheck/internal/adapters/genai"
	httpadapter "labelcheck/internal/adapters/http"
	"labelcheck/internal/adapters/memory"
	pg "labelcheck/internal/adapters/postgres"
	"labelcheck/internal/config"
	"labelcheck/internal/metrics"
	"labelcheck/internal/normalize"
	"labelcheck/internal/ports"
	"labelcheck/internal/services/assessment"
	authsvc "labelcheck/internal/services/auth"
	reportsvc "labelcheck/internal/services/reports"
	"labelcheck/internal/uploads"
	"labelcheck/internal/workers/sweeper"
)

// DATABASE_URL value that selects the in-process store.
const memoryStore = "memory"

const shutdownGrace = 10 * time.Second

type store interface {
	ports.UserRepository
	ports.SessionRepository
	ports.ReportRepository
	ports.SessionPurger
}

// openStore returns nil when no store is configured.
func openStore(ctx context.Context, cfg config.Config, log *zap.Logger) (store, func(), error) {
	switch cfg.DatabaseURL {
	case "":
		log.Warn("DATABASE_URL not set; accounts and saved reports are disabled")
		return nil, func() {}, nil
	case memoryStore:
		log.Warn("using in-memory store; data is lost on restart")
		return memory.New(), func() {}, nil
	}
	db, err := pg.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("db connect: %w", err)
	}
	if cfg.MigrateOnStart {
		if err := db.Migrate(ctx, log); err != nil {
			db.Close()
			return nil, nil, err
		}
	}
	return db, db.Close, nil
}

func serve(ctx context.Context) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	st, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	m := metrics.New()

	var model ports.ModelClient
	if cfg.ModelConfigured() {
		c, err := genaiadapter.New(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, log)
		if err != nil {
			return err
		}
		model = c
	} else {
		log.Warn("GEMINI_API_KEY not set; analysis runs in demo mode")
	}
	schema := normalize.AssessmentSchema
	if !cfg.RequireCitations {
		schema = schema.Relaxed()
	}
	assess := assessment.New(model,
		assessment.WithTimeout(cfg.ModelTimeout),
		assessment.WithSchema(schema),
		assessment.WithLogger(log),
		assessment.WithMetrics(m))

	// Interface values stay nil unless a store exists.
	var (
		auth    ports.Auth
		reports ports.Reports
	)
	if st != nil {
		auth = authsvc.New(st, st, cfg.SessionTTL, log)
		reports = reportsvc.New(st, log)
	}

	srv := httpadapter.New(assess, auth, reports, m, log, httpadapter.Options{
		Limits:        uploads.Limits{MaxFileBytes: cfg.MaxUploadBytes, MaxFiles: cfg.MaxUploadFiles},
		CORSOrigins:   cfg.CORSOrigins,
		SecureCookies: !cfg.Development(),
	})
	httpSrv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		// Model calls can take most of ModelTimeout; leave room to write the answer.
		WriteTimeout: cfg.ModelTimeout + 30*time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", zap.String("addr", cfg.ListenAddr),
			zap.Bool("model", assess.Live()), zap.Bool("store", st != nil))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})
	if st != nil {
		g.Go(func() error {
			return sweeper.Run(gctx, sweeper.New(st, log), cfg.SessionSweep)
		})
	}
	return g.Wait()
}
