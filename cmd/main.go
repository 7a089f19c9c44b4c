package main

import (
	"context"
	"log"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"complaintdesk/backend/internal/api/handler"
	"complaintdesk/backend/internal/audit"
	"complaintdesk/backend/internal/complaint"
	"complaintdesk/backend/internal/config"
	"complaintdesk/backend/internal/directory"
	"complaintdesk/backend/internal/fanout"
	"complaintdesk/backend/internal/livefeed"
	"complaintdesk/backend/internal/localization"
	"complaintdesk/backend/internal/models"
	"complaintdesk/backend/internal/resolution"
	"complaintdesk/backend/internal/storage"
	"complaintdesk/backend/internal/telegram"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupDependencies(cfg *config.Config) (*gorm.DB, *redis.Client) {
	db, err := gorm.Open(postgres.Open(cfg.PostgresDSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect PostgreSQL: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
		DB:   cfg.RedisDB,
	})
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Fatalf("Failed to connect Redis: %v", err)
	}

	err = db.AutoMigrate(
		&models.Complaint{},
		&models.NotificationRef{},
		&models.Employee{},
		&models.BlockedUser{},
		&models.AuditRecord{},
	)
	if err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Database and Redis connections established, migrations complete.")
	return db, rdb
}

func main() {
	log.Println("Starting ComplaintDesk Backend...")

	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Error loading .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	db, rdb := setupDependencies(cfg)
	s := storage.NewService(db, rdb)

	localizer, err := localization.NewLocalizer()
	if err != nil {
		log.Fatalf("Failed to load locales: %v", err)
	}

	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		log.Fatalf("Failed to start Telegram bot: %v", err)
	}

	// Domain wiring: storage at the bottom, the resolution coordinator on top.
	dir := directory.NewService(s, cfg.AdminID)
	client := telegram.NewClient(bot, localizer, cfg.AuditChat)
	complaints := complaint.NewService(s, dir)
	tracker := fanout.NewTracker(s, client, config.DeliveryTimeout)
	emitter := audit.NewEmitter(s, client)
	coordinator := resolution.NewCoordinator(complaints, tracker, emitter, dir, client, localizer)

	botService := telegram.NewBotService(bot, client, s, dir, complaints, tracker, coordinator, localizer)

	hub := livefeed.NewHub(s)
	go hub.Run()
	go botService.Run()

	r := gin.Default()
	h := handler.NewHandler(s, dir, complaints, coordinator, hub, cfg.JWTSecret, cfg.AdminKey)
	h.Register(r)

	server := &http.Server{
		Addr:           cfg.HTTPAddr,
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	log.Fatal(server.ListenAndServe())
}
