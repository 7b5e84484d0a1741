package main

import (
	"context"
	"log"

	"talkwrite-be/internal/bootstrap"
	"talkwrite-be/internal/config"
	"talkwrite-be/internal/model"
	"talkwrite-be/internal/server"
	"talkwrite-be/internal/tracer"
	"talkwrite-be/pkg/database"

	"github.com/fatih/color"
)

func main() {
	// 0. Initialize Tracer
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Database
	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.Document{},
		&model.DocumentShare{},
	); err != nil {
		log.Panicf("Unable to migrate schema: %v", err)
	}

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg)

	// 4. Start Background Services
	go func() {
		log.Println("Background: Starting Consumer Service...")
		if err := container.ConsumerService.Consume(context.Background()); err != nil {
			log.Printf("Background Consumer Error: %v", err)
		}
	}()

	// 5. Initialize Server
	srv := server.New(cfg, container)

	color.Cyan("talkwrite backend ready (env: %s)", cfg.App.Environment)

	// 6. Run Server
	log.Fatal(srv.Run())
}
