package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/stopwatch-io/stopwatch-ce/internal/api"
	"github.com/stopwatch-io/stopwatch-ce/internal/auth"
	"github.com/stopwatch-io/stopwatch-ce/internal/billing"
	"github.com/stopwatch-io/stopwatch-ce/internal/clock"
	"github.com/stopwatch-io/stopwatch-ce/internal/config"
	"github.com/stopwatch-io/stopwatch-ce/internal/database"
	"github.com/stopwatch-io/stopwatch-ce/internal/email"
	"github.com/stopwatch-io/stopwatch-ce/internal/invoice"
	"github.com/stopwatch-io/stopwatch-ce/internal/metrics"
	"github.com/stopwatch-io/stopwatch-ce/internal/repository"
	"github.com/stopwatch-io/stopwatch-ce/internal/timer"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := config.Load(configPathFlag); err != nil {
		return err
	}
	cfg := config.Get()

	clk, err := clock.New(cfg.App.Timezone)
	if err != nil {
		return fmt.Errorf("invalid timezone %q: %w", cfg.App.Timezone, err)
	}

	db, err := database.Open(database.Options{
		Driver:       cfg.Database.Driver,
		Host:         cfg.Database.Host,
		Port:         cfg.Database.Port,
		Name:         cfg.Database.Name,
		User:         cfg.Database.User,
		Password:     cfg.Database.Password,
		Path:         cfg.Database.Path,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
	})
	if err != nil {
		return err
	}
	defer db.Close()

	sessions := repository.NewSQLSessionRepository(db)
	records := repository.NewSQLTimeRecordRepository(db)
	phases := repository.NewSQLPhaseRepository(db)
	catalog := repository.NewSQLCatalogRepository(db)
	projects := repository.NewSQLProjectRepository(db)
	users := repository.NewSQLUserRepository(db)
	permissions := repository.NewSQLPermissionRepository(db)
	store := repository.NewSQLTimerStore(db)
	intervals := repository.NewSQLIntervalReader(db)
	archiver := repository.NewArchiver(catalog, users)

	sequencer := timer.NewSequencer(phases)
	timerSvc := timer.NewService(sessions, records, store, sequencer, clk)
	authSvc := auth.NewService(users, sessions, permissions, store, clk)
	aggregator := billing.NewAggregator(phases, intervals, clk)
	assembler := invoice.NewAssembler(aggregator, projects)

	var mailer email.Deliverer
	if cfg.Email.Enabled {
		mailer = email.NewService(email.Config{
			Host:     cfg.Email.SMTP.Host,
			Port:     fmt.Sprintf("%d", cfg.Email.SMTP.Port),
			Username: cfg.Email.SMTP.User,
			Password: cfg.Email.SMTP.Password,
			From:     cfg.Email.From,
			UseTLS:   cfg.Email.SMTP.TLS,
		})
	} else {
		// Outbound mail lands in the log instead of a mailbox.
		mailer = &email.Recorder{}
		log.Println("email delivery disabled; invoices will not be sent")
	}

	m := metrics.New(prometheus.DefaultRegisterer)

	handlers := api.NewHandlers(api.Deps{
		Auth:      authSvc,
		Timer:     timerSvc,
		Sequencer: sequencer,
		Bills:     aggregator,
		Invoices:  assembler,
		Mailer:    mailer,
		Projects:  projects,
		Catalog:   catalog,
		Phases:    phases,
		Records:   records,
		Sessions:  sessions,
		Users:     users,
		Archiver:  archiver,
		Metrics:   m,
		Clock:     clk,
		Cookie: api.CookieSettings{
			Name:   cfg.Session.CookieName,
			Secure: cfg.Session.Secure,
			MaxAge: int(cfg.Session.MaxAge.Seconds()),
		},
	})

	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	router := api.NewRouter(handlers, sessions, m, metricsPath)

	// Idle sessions age out on a schedule; sessions with an open timer
	// are left alone.
	scheduler := cron.New()
	_, err = scheduler.AddFunc(cfg.Session.CleanupInterval, func() {
		cutoff := clk.Now().Add(-cfg.Session.MaxAge)
		n, err := sessions.DeleteOlderThan(context.Background(), cutoff)
		if err != nil {
			log.Printf("session cleanup failed: %v", err)
			return
		}
		if n > 0 {
			log.Printf("session cleanup removed %d stale sessions", n)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid cleanup schedule %q: %w", cfg.Session.CleanupInterval, err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	srv := &http.Server{
		Addr:         cfg.Server.GetServerAddr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	log.Println("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(ctx)
}
