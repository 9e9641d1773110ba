package main

import (
	"log"

	"referral-bot/internal/bot"
	"referral-bot/internal/config"
	"referral-bot/internal/database"
	"referral-bot/internal/store"
	"referral-bot/internal/web"
	"referral-bot/internal/worker"
)

func main() {
	// Load Configuration
	cfg := config.LoadConfig()

	// Connect to Database
	db, err := database.ConnectPostgres(cfg)
	if err != nil {
		log.Fatalf("Could not connect to database: %v", err)
	}

	// Connect to Redis
	rdb, err := database.ConnectRedis(cfg)
	if err != nil {
		log.Fatalf("Could not connect to redis: %v", err)
	}

	st := store.New(db)

	tgBot, err := bot.NewBot(cfg, st)
	if err != nil {
		log.Fatalf("Could not create bot: %v", err)
	}

	// Background low-stock alerts
	checker := worker.NewChecker(st, rdb, tgBot.Instance, cfg.AdminIDs)
	go checker.Start()

	// Web verification server
	server := web.NewServer(st)
	go func() {
		if err := server.Start(":" + cfg.HTTPPort); err != nil {
			log.Fatalf("Web server stopped: %v", err)
		}
	}()

	log.Println("Service started successfully")
	tgBot.Start()
}
