package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"

	"go-civicfix/analytics"
	"go-civicfix/config"
	"go-civicfix/escalation"
	"go-civicfix/ingest"
	"go-civicfix/logging"
	"go-civicfix/notify"
	"go-civicfix/photos"
	"go-civicfix/routes"
	"go-civicfix/store"
	"go-civicfix/vision"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file loaded, relying on process environment")
	}

	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level)

	ctx := context.Background()

	var st store.Store
	switch cfg.Store.Backend {
	case "memory":
		st = store.NewMemoryStore()
		logger.Warn("using in-memory store, data is not persisted")
	default:
		fs, err := store.NewFirestoreStore(ctx)
		if err != nil {
			logger.Fatalf("Failed to initialize Firestore: %v", err)
		}
		defer fs.Close()
		st = fs
	}

	photoStore, err := photos.NewDiskStore(cfg.Photos.Dir)
	if err != nil {
		logger.Fatalf("Failed to initialize photo store: %v", err)
	}

	visionClient := vision.NewOpenAIClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.RPM)

	var notifier notify.Notifier
	if cfg.Telegram.BotToken != "" && cfg.Telegram.ChatID != "" {
		notifier = notify.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
	} else {
		notifier = notify.NewLogNotifier(logging.Component(logger, "notify"))
	}

	ingestSvc := ingest.NewService(st, photoStore, visionClient, visionClient,
		logging.Component(logger, "ingest"))
	if cfg.OpenAI.TimeoutSeconds > 0 {
		ingestSvc.OracleTimeout = time.Duration(cfg.OpenAI.TimeoutSeconds) * time.Second
	}

	monitor := escalation.NewMonitor(st, notifier, logging.Component(logger, "escalation"))
	if err := monitor.Start(ctx, cfg.Escalation.CronSpec); err != nil {
		logger.Fatalf("Failed to start escalation monitor: %v", err)
	}
	defer monitor.Stop()

	analyticsSvc := analytics.NewService(st, logging.Component(logger, "analytics"))

	r := routes.SetupRouter(ingestSvc, monitor, analyticsSvc)
	if err := r.Run(cfg.Server.Addr); err != nil {
		logger.Fatal("Failed to start server: ", err)
	}
}
