package cmd

import (
	"context"
	"fmt"
	"time"

	"prizedraw/application"
	"prizedraw/config"
	"prizedraw/database"
	"prizedraw/domain/interfaces"
	"prizedraw/domain/services"
	"prizedraw/infrastructure"
	"prizedraw/repository"
	"prizedraw/web"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	log.Info("Starting prize draw service...")

	// Load configuration
	cfg := config.Get()

	// Initialize database connection
	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	log.Info("Database connection established")

	// Initialize event bus and unit of work factory
	eventBus := infrastructure.NewBus()
	uowFactory := repository.NewUnitOfWorkFactory(db, func() interfaces.TransactionalEventPublisher {
		return infrastructure.NewTransactionalPublisher(eventBus)
	})

	clock := services.SystemClock()

	// Sweep abandoned draw sessions when a TTL is configured
	var sweeper *cron.Cron
	if cfg.SessionTTLHours > 0 {
		sweeper = cron.New()
		ttl := time.Duration(cfg.SessionTTLHours) * time.Hour
		_, err := sweeper.AddFunc("@every 1h", func() {
			sweepSessions(uowFactory, clock, ttl)
		})
		if err != nil {
			return fmt.Errorf("failed to schedule session sweep: %w", err)
		}
		sweeper.Start()
		log.WithField("ttlHours", cfg.SessionTTLHours).Info("Session sweep scheduled")
	}

	// Start the HTTP server; blocks until ctx is cancelled
	server := web.NewServer(cfg, uowFactory, eventBus, clock)
	log.WithField("environment", cfg.Environment).Info("Service running")
	err = server.Start(ctx)

	if sweeper != nil {
		sweepCtx := sweeper.Stop()
		select {
		case <-sweepCtx.Done():
		case <-time.After(5 * time.Second):
			log.Warn("Session sweep did not finish before shutdown")
		}
	}

	return err
}

// sweepSessions deletes unused sessions older than the TTL in one
// transaction.
func sweepSessions(uowFactory application.UnitOfWorkFactory, clock interfaces.Clock, ttl time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	uow := uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		log.WithError(err).Error("Session sweep failed to begin transaction")
		return
	}

	cutoff := clock.Now().Add(-ttl)
	swept, err := uow.SessionRepository().DeleteUnusedBefore(ctx, cutoff)
	if err != nil {
		log.WithError(err).Error("Session sweep failed")
		_ = uow.Rollback()
		return
	}
	if err := uow.Commit(); err != nil {
		log.WithError(err).Error("Session sweep failed to commit")
		return
	}
	if swept > 0 {
		log.WithField("swept", swept).Info("Removed abandoned draw sessions")
	}
}
