package main

import (
	"context"
	"log"

	"github.com/craftline/marketplace/internal/database"
	router "github.com/craftline/marketplace/internal/http"
	"github.com/craftline/marketplace/internal/logger"
	"github.com/craftline/marketplace/internal/services"
	"github.com/craftline/marketplace/internal/utils"
)

func main() {
	ctx := context.Background()
	config := NewConfig()

	if err := logger.Initialize(config.logLevel, config.env); err != nil {
		log.Fatalf("Logger wasn't initialized due to %s", err)
	}

	db, err := database.New(ctx, config.dsn)

	if err != nil {
		log.Fatalf("Database wasn't initialized due to %s", err)
	}

	if err := db.RunMigrations(); err != nil {
		log.Fatalf("Migrations weren't run due to %s", err)
	}

	log.Printf("Running server on %s\n", config.endpoint)

	jobQueueService := services.NewJobQueueService(ctx, 100, 2)
	notifierService := services.NewNotifierService(db, jobQueueService, config.fulfillmentEndpoint, config.fulfillmentToken)

	if err := notifierService.StartRedelivery(ctx); err != nil {
		log.Fatalf("Starting status change redelivery was failed due to %s", err)
	}

	utils.HandleTerminationProcess(func() {
		jobQueueService.Shutdown()
	})

	router.New(
		router.Config{Endpoint: config.endpoint},
		services.NewAuthService(db),
		services.NewJWTService(config.authSecretKey),
		services.NewOrderService(db),
		notifierService,
	).Run()
}
