package main

import (
	"context"
	"errors"
	"log"
	"os"

	"github.com/joho/godotenv"

	"codecast-bot/bot"
	"codecast-bot/config"
	"codecast-bot/pipeline"
	"codecast-bot/session"
	"codecast-bot/upload"
)

func main() {
	// Load .env (local dev only — deployments use real env vars)
	_ = godotenv.Load()

	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := os.MkdirAll(cfg.Paths.Videos, 0755); err != nil {
		log.Fatalf("Failed to create dir %s: %v", cfg.Paths.Videos, err)
	}

	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		log.Fatal("TELEGRAM_BOT_TOKEN environment variable not set")
	}

	synth, err := pipeline.NewOpenAISynthesizer(cfg)
	if err != nil {
		log.Fatalf("Failed to init speech synthesis: %v", err)
	}

	pipe := pipeline.New(cfg, synth, pipeline.ExecRunner{})
	uploader := upload.NewClient(cfg)
	sessions := session.NewRegistry()

	b, err := bot.New(token, cfg, sessions, pipe, uploader)
	if err != nil {
		log.Fatalf("Failed to start bot: %v", err)
	}

	log.Println("🎬 Codecast bot running")
	if err := b.Run(context.Background()); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("Bot stopped: %v", err)
	}
}
