package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"docuchat/internal/config"
	"docuchat/internal/embedding"
	"docuchat/internal/llmservice"
	"docuchat/internal/rag"
	"docuchat/internal/server"
	"docuchat/internal/session"
)

const configFilePath = "./configs/config.yaml"

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Caller().Logger()

	configPath := flag.String("config", configFilePath, "Path to the config file")
	addr := flag.String("addr", "", "Listen address, overrides config")
	flag.Parse()

	// .env is optional
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	embedder, err := embedding.NewEmbedder(&cfg.EmbedLLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing embedder")
	}

	generator, err := llmservice.NewClient(&cfg.ChatLLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing chat client")
	}

	store := session.NewStore(session.Options{
		MaxSessions:        cfg.Session.MaxSessions,
		TTL:                time.Duration(cfg.Session.TTLMinutes) * time.Minute,
		FallbackLastActive: cfg.Session.FallbackLastActive,
	})
	store.StartSweeper(context.Background(), time.Duration(cfg.Session.SweepMinutes)*time.Minute)

	svc := rag.NewService(store, embedder, generator, cfg.RAG)

	e := server.New(svc)
	log.Info().Str("addr", cfg.Server.Addr).Msg("Starting server")
	if err := e.Start(cfg.Server.Addr); err != nil {
		log.Fatal().Err(err).Msg("Server stopped")
	}
}
