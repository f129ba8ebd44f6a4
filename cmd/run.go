package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/sirupsen/logrus"

	"chipbank/config"
	"chipbank/database"
	"chipbank/events"
	"chipbank/promo"
	"chipbank/repository"
	"chipbank/service"
)

// App bundles the wired service layer. Frontends (CLI tooling, an HTTP
// surface, bot integrations) consume these interfaces rather than touching
// repositories directly.
type App struct {
	Accounts  service.AccountService
	Transfers service.TransferService
	Bonuses   service.BonusService
	Games     service.GameService
}

var defaultApp *App

// Services returns the service layer wired by Run. It is nil until Run
// has finished initialization.
func Services() *App {
	return defaultApp
}

// Run initializes and starts the application
func Run(ctx context.Context) error {
	log.Println("Starting chipbank...")

	// Load configuration
	cfg := config.Get()

	// Initialize database connection
	log.Println("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Println("Database connection established successfully")

	// Initialize event bus
	log.Println("Initializing event bus...")
	eventBus := events.NewBus()
	registerEventLogging(eventBus)
	log.Println("Event bus initialized successfully")

	// Initialize unit of work factory
	log.Println("Initializing unit of work factory...")
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)
	log.Println("Unit of work factory initialized successfully")

	// Initialize promotional event support
	boostProvider := promo.NewStaticProvider(cfg)
	promo.NewRecorder().Register(eventBus)

	// Initialize services
	log.Println("Initializing services...")
	defaultApp = &App{
		Accounts:  service.NewAccountService(uowFactory, boostProvider, cfg),
		Transfers: service.NewTransferService(uowFactory),
		Bonuses:   service.NewBonusService(uowFactory, boostProvider),
		Games:     service.NewGameService(uowFactory),
	}
	log.Println("Services initialized successfully")

	// Wait for context cancellation
	log.Printf("Chipbank is running in %s mode...", cfg.Environment)
	<-ctx.Done()

	// Cleanup resources
	log.Println("Shutting down...")

	// Give cleanup operations time to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Close database connection
	log.Println("Closing database connection...")
	db.Close()

	select {
	case <-shutdownCtx.Done():
		log.Println("Shutdown timeout exceeded")
	case <-time.After(1 * time.Second):
		log.Println("Shutdown completed")
	}

	return nil
}

// registerEventLogging subscribes post-commit observers for audit logging
// and downstream side effects like achievement rechecks. Handlers run on
// their own goroutines and never affect the committed transaction.
func registerEventLogging(bus *events.Bus) {
	bus.Subscribe(events.EventTypeTransferCompleted, func(ctx context.Context, event events.Event) {
		e, ok := event.(events.TransferCompletedEvent)
		if !ok {
			return
		}
		logrus.WithFields(logrus.Fields{
			"transferID": e.TransferID,
			"senderID":   e.SenderID,
			"receiverID": e.ReceiverID,
			"amount":     e.Amount,
		}).Info("Transfer completed, scheduling achievement recheck")
	})

	bus.Subscribe(events.EventTypeGameClosed, func(ctx context.Context, event events.Event) {
		e, ok := event.(events.GameClosedEvent)
		if !ok {
			return
		}
		logrus.WithFields(logrus.Fields{
			"gameSessionID": e.GameSessionID,
			"hostID":        e.HostID,
			"players":       len(e.UserIDs),
			"totalPot":      e.TotalPot,
		}).Info("Game closed, scheduling achievement recheck for participants")
	})

	bus.Subscribe(events.EventTypeBonusGranted, func(ctx context.Context, event events.Event) {
		e, ok := event.(events.BonusGrantedEvent)
		if !ok {
			return
		}
		logrus.WithFields(logrus.Fields{
			"userID": e.UserID,
			"kind":   e.Kind,
			"amount": e.ActualAmount,
		}).Debug("Bonus granted")
	})
}
