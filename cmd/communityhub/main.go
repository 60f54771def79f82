package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/example/community-hub/internal/application"
	"github.com/example/community-hub/internal/config"
	httptransport "github.com/example/community-hub/internal/http"
	"github.com/example/community-hub/internal/metrics"
	"github.com/example/community-hub/internal/notification"
	"github.com/example/community-hub/internal/persistence/sqlite"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	if err := run(logger); err != nil {
		logger.Error("service exited", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	store, err := sqlite.Open(cfg.SQLiteDSN)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := store.Migrate(context.Background()); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	registry := prometheus.NewRegistry()
	serviceMetrics := metrics.New(registry)

	dispatcher := notification.NewDispatcher(cfg.NotifyBuffer, notification.LogSender(logger), logger, func() {
		serviceMetrics.NotificationsDropped.Inc()
	})

	memberRepo := sqlite.NewMemberRepository(store)
	sessionRepo := sqlite.NewSessionRepository(store)
	eventRepo := sqlite.NewEventRepository(store)
	ledger := sqlite.NewRegistrationLedger(store)
	resourceRepo := sqlite.NewResourceRepository(store)
	reservationRepo := sqlite.NewReservationRepository(store)

	idGenerator := uuid.NewString
	now := time.Now

	admissionService := application.NewAdmissionService(memberRepo, eventRepo, ledger, dispatcher, idGenerator, now, logger)
	checkInService := application.NewCheckInService(ledger, now, logger)
	eventService := application.NewEventService(eventRepo, idGenerator, now)
	memberService := application.NewMemberService(memberRepo, nil, idGenerator, now)
	authService := application.NewAuthService(memberRepo, sessionRepo, nil, idGenerator, now, cfg.SessionTTL, logger)
	reservationService := application.NewReservationService(resourceRepo, reservationRepo, idGenerator, now)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Auth:          httptransport.NewAuthHandler(authService, logger),
		Events:        httptransport.NewEventHandler(eventService, logger),
		Registrations: httptransport.NewRegistrationHandler(admissionService, checkInService, serviceMetrics, logger),
		Members:       httptransport.NewMemberHandler(memberService, logger),
		Resources:     httptransport.NewResourceHandler(reservationService, logger),
		Sessions:      authService,
		Health: func(w http.ResponseWriter, r *http.Request) {
			if err := store.Ping(r.Context()); err != nil {
				http.Error(w, "storage unreachable", http.StatusServiceUnavailable)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		},
		Metrics:    metrics.Handler(registry),
		Middleware: []func(http.Handler) http.Handler{httptransport.RequestLogger(logger)},
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		logger.Info("community hub API listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})

	group.Go(func() error {
		if err := dispatcher.Run(groupCtx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("notification dispatcher: %w", err)
		}
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	return group.Wait()
}
