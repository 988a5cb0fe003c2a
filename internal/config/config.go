package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Number of OPENAI_API_KEY_<n> slots scanned before falling back to the
// unnumbered OPENAI_API_KEY.
const APIKeySlots = 3

type Config struct {
	Port string

	// OpenAI access
	APIKeys            []string
	BaseURL            string
	Model              string
	TranscriptionModel string
	MaxTokens          int
	Temperature        float32

	// Retry policy
	RetryAttempts  int
	RetryDelay     time.Duration
	RequestTimeout time.Duration

	// Audio splitting
	ChunkThresholdBytes int64

	// Meeting processing
	TranscribeConcurrency int

	// Storage and logging
	StorageRoot string
	LogLevel    string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:                  getEnv("PORT", "8080"),
		APIKeys:               loadAPIKeys(),
		BaseURL:               getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		Model:                 getEnv("OPENAI_MODEL", "gpt-4"),
		TranscriptionModel:    getEnv("OPENAI_TRANSCRIPTION_MODEL", "whisper-1"),
		MaxTokens:             getEnvInt("OPENAI_MAX_TOKENS", 4000),
		Temperature:           float32(getEnvFloat("OPENAI_TEMPERATURE", 0.7)),
		RetryAttempts:         getEnvInt("OPENAI_RETRY_ATTEMPTS", 3),
		RetryDelay:            time.Duration(getEnvInt("OPENAI_RETRY_DELAY_MS", 1000)) * time.Millisecond,
		RequestTimeout:        time.Duration(getEnvInt("OPENAI_REQUEST_TIMEOUT_SECONDS", 90)) * time.Second,
		ChunkThresholdBytes:   int64(getEnvInt("AUDIO_CHUNK_THRESHOLD_BYTES", 20*1024*1024)),
		TranscribeConcurrency: getEnvInt("TRANSCRIBE_CONCURRENCY", 2),
		StorageRoot:           getEnv("STORAGE_ROOT", "./data"),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
	}

	// Validate required environment variables
	if len(cfg.APIKeys) == 0 {
		return nil, fmt.Errorf("no OpenAI API key configured. Set OPENAI_API_KEY_1..%d or OPENAI_API_KEY in the environment or .env file", APIKeySlots)
	}
	if cfg.RetryAttempts < 1 {
		return nil, fmt.Errorf("OPENAI_RETRY_ATTEMPTS must be at least 1, got %d", cfg.RetryAttempts)
	}
	if cfg.RetryDelay < 0 {
		return nil, fmt.Errorf("OPENAI_RETRY_DELAY_MS must not be negative")
	}
	if cfg.ChunkThresholdBytes <= 0 {
		return nil, fmt.Errorf("AUDIO_CHUNK_THRESHOLD_BYTES must be positive, got %d", cfg.ChunkThresholdBytes)
	}
	if cfg.TranscribeConcurrency < 1 {
		return nil, fmt.Errorf("TRANSCRIBE_CONCURRENCY must be at least 1, got %d", cfg.TranscribeConcurrency)
	}

	return cfg, nil
}

// loadAPIKeys reads the numbered key slots in order. Gaps are allowed
// (OPENAI_API_KEY_1 and OPENAI_API_KEY_3 without _2 yields two keys). The
// unnumbered OPENAI_API_KEY is used only when every slot is empty.
func loadAPIKeys() []string {
	var keys []string
	for i := 1; i <= APIKeySlots; i++ {
		if key := trimmedEnv(fmt.Sprintf("OPENAI_API_KEY_%d", i)); key != "" {
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		if key := trimmedEnv("OPENAI_API_KEY"); key != "" {
			keys = append(keys, key)
		}
	}
	return keys
}

func trimmedEnv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
