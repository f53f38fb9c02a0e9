package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"workhub/internal/config"
	"workhub/internal/database"
	"workhub/internal/invitations"
	"workhub/internal/issues"
	"workhub/internal/models"
	"workhub/internal/notify"
	"workhub/internal/server"
	"workhub/internal/server/routes"
)

func gracefulShutdown(apiServer *http.Server, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Listen for the interrupt signal.
	<-ctx.Done()

	log.Println("shutting down gracefully, press Ctrl+C again to force")
	stop() // Allow Ctrl+C to force shutdown

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown with error: %v", err)
	}

	log.Println("Server exiting")

	// Notify the main goroutine that the shutdown is complete
	done <- true
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.New(cfg.DBString)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if cfg.RunMigrations {
		if err := models.RunMigrations(db.DB()); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
		version, dirty, err := models.MigrationVersion(db.DB())
		if err != nil {
			log.Printf("Could not read migration version: %v", err)
		} else {
			log.Printf("Database schema at version %d (dirty=%t)", version, dirty)
		}
	}

	repo, err := models.NewDB(db.DB(), cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize GORM: %v", err)
	}

	policy, err := issues.PolicyByName(cfg.IssueTransitionPolicy)
	if err != nil {
		log.Fatalf("Invalid issue policy: %v", err)
	}

	services, dispatcher := routes.NewServices(repo, db, routes.Options{
		BaseURL:     cfg.AppBaseURL,
		Concurrency: cfg.FanoutConcurrency,
		Policy:      policy,
		Courier:     invitations.LogCourier{},
	})

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	sweeper := notify.NewDeadlineSweeper(repo, dispatcher, cfg.DeadlineWindow)
	go sweeper.Run(sweepCtx, cfg.DeadlineSweepInterval)

	apiServer := server.NewServer(cfg, db, services)

	// Create a done channel to signal when the shutdown is complete
	done := make(chan bool, 1)

	// Run graceful shutdown in a separate goroutine
	go gracefulShutdown(apiServer, done)

	log.Printf("Server listening on %s", apiServer.Addr)
	err = apiServer.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("http server error: %s", err)
	}

	// Wait for the graceful shutdown to complete
	<-done
	stopSweep()
	log.Println("Graceful shutdown complete.")
}
