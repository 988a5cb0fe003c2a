package main

import (
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"meetscribe/internal/ai"
	"meetscribe/internal/api"
	"meetscribe/internal/audio"
	"meetscribe/internal/config"
	"meetscribe/internal/logging"
	"meetscribe/internal/repository"
	"meetscribe/internal/service"
	"meetscribe/internal/storage"
)

func main() {
	// Load .env file if it exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Info().Msg("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	logging.Setup(cfg.LogLevel)

	// Default to release mode unless explicitly overridden
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	files, err := storage.New(cfg.StorageRoot)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to prepare storage")
	}

	client, err := ai.NewClient(ai.Config{
		BaseURL:            cfg.BaseURL,
		Model:              cfg.Model,
		TranscriptionModel: cfg.TranscriptionModel,
		MaxTokens:          cfg.MaxTokens,
		Temperature:        cfg.Temperature,
		RetryAttempts:      cfg.RetryAttempts,
		RetryDelay:         cfg.RetryDelay,
		RequestTimeout:     cfg.RequestTimeout,
	}, cfg.APIKeys)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize OpenAI client")
	}

	repos := service.Repositories{
		Meetings:   repository.NewMeetingRepository(filepath.Join(cfg.StorageRoot, "meetings.json")),
		Recordings: repository.NewRecordingRepository(),
		Reports:    repository.NewReportRepository(),
		Templates:  repository.NewTemplateRepository(),
	}

	meetings := service.NewMeetingService(repos, files, audio.NewSplitter(cfg.ChunkThresholdBytes), client, cfg.TranscribeConcurrency)
	translation := service.NewTranslationService(client)
	templates := service.NewTemplateService(repos.Templates, files)

	r := gin.Default()
	r.Use(api.CORS(), api.Metrics())
	api.RegisterRoutes(r, api.NewHandler(meetings, translation, templates, files, client.Pool()))

	log.Info().
		Str("port", cfg.Port).
		Int("keys", client.Pool().Size()).
		Str("storage", cfg.StorageRoot).
		Msg("meetscribe backend running")
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("failed to start server")
	}
}
