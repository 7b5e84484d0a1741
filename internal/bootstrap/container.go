package bootstrap

import (
	"context"
	"log"

	"talkwrite-be/internal/config"
	"talkwrite-be/internal/controller"
	"talkwrite-be/internal/pkg/logger"
	"talkwrite-be/internal/repository/memory"
	"talkwrite-be/internal/repository/unitofwork"
	"talkwrite-be/internal/service"
	"talkwrite-be/internal/websocket"
	pktNats "talkwrite-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const savedEventsTopic = "document_saved"

type Container struct {
	// Controllers
	AuthController     *controller.AuthController
	DocumentController *controller.DocumentController

	// Background Services (exposed for main.go to run)
	ConsumerService service.IConsumerService

	// WebSockets
	WebSocketHub     *websocket.Hub
	WebSocketHandler *websocket.Handler
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 2.5 Infrastructure
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}

	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}

	accessCache := memory.NewAccessCache()

	// 3. Services
	publisherService := service.NewPublisherService(savedEventsTopic, pubSub)
	consumerService := service.NewConsumerService(pubSub, savedEventsTopic, sysLogger)

	authService := service.NewAuthService(uowFactory, cfg.Auth)
	documentService := service.NewDocumentService(uowFactory, publisherService, natsPub, accessCache)

	// 3.5 WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/rooms.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	wsHandler := websocket.NewHandler(wsHub, authService, documentService, wsLogger)

	// 4. Controllers
	return &Container{
		AuthController:     controller.NewAuthController(authService, sysLogger),
		DocumentController: controller.NewDocumentController(documentService, sysLogger),

		ConsumerService: consumerService,

		WebSocketHub:     wsHub,
		WebSocketHandler: wsHandler,
	}
}
