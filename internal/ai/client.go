package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"meetscribe/internal/logging"
	"meetscribe/internal/metrics"
)

// Config carries the OpenAI access settings and the retry policy.
type Config struct {
	BaseURL            string
	Model              string
	TranscriptionModel string
	MaxTokens          int
	Temperature        float32
	RetryAttempts      int
	RetryDelay         time.Duration
	RequestTimeout     time.Duration
}

func (cfg *Config) applyDefaults() {
	if cfg.Model == "" {
		cfg.Model = openai.GPT4
	}
	if cfg.TranscriptionModel == "" {
		cfg.TranscriptionModel = openai.Whisper1
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 4000
	}
	if cfg.RetryAttempts == 0 {
		cfg.RetryAttempts = 3
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = 90 * time.Second
	}
}

// Client performs transcription and completion calls against the OpenAI API,
// rotating across the key pool with bounded retry on rate limits and
// transport failures.
type Client struct {
	cfg  Config
	pool *KeyPool
	api  []*openai.Client // one SDK client per credential, pool slot order
	log  zerolog.Logger
}

// NewClient builds a client over the given API keys. Zero-valued config
// fields fall back to the usual defaults.
func NewClient(cfg Config, keys []string) (*Client, error) {
	cfg.applyDefaults()

	pool, err := NewKeyPool(keys)
	if err != nil {
		return nil, err
	}

	c := &Client{
		cfg:  cfg,
		pool: pool,
		log:  logging.Component("openai"),
	}
	for _, key := range keys {
		sdkCfg := openai.DefaultConfig(key)
		if cfg.BaseURL != "" {
			sdkCfg.BaseURL = cfg.BaseURL
		}
		sdkCfg.HTTPClient = &http.Client{Timeout: cfg.RequestTimeout}
		c.api = append(c.api, openai.NewClientWithConfig(sdkCfg))
	}
	return c, nil
}

// Pool exposes the credential pool for stats reporting.
func (c *Client) Pool() *KeyPool { return c.pool }

// Transcribe converts one audio file to text. A non-empty language code is
// passed to the transcription model as a hint.
func (c *Client) Transcribe(ctx context.Context, filePath, language string) (string, error) {
	c.log.Info().Str("file", filepath.Base(filePath)).Str("language", language).Msg("transcribing audio")
	text, err := execute(ctx, c, "transcription", func(ctx context.Context, api *openai.Client) (string, error) {
		resp, err := api.CreateTranscription(ctx, openai.AudioRequest{
			Model:    c.cfg.TranscriptionModel,
			FilePath: filePath,
			Language: language,
		})
		if err != nil {
			return "", err
		}
		return resp.Text, nil
	})
	if err != nil {
		return "", err
	}
	c.log.Info().Int("chars", len(text)).Msg("transcription complete")
	return text, nil
}

// TranslateText translates text into the target language. An empty source
// language lets the model detect it.
func (c *Client) TranslateText(ctx context.Context, text, targetLanguage, sourceLanguage string) (string, error) {
	c.log.Info().Str("target", targetLanguage).Int("chars", len(text)).Msg("translating text")
	return c.complete(ctx, "translation", translationPrompt(text, targetLanguage, sourceLanguage))
}

// GenerateReport writes a meeting report from a transcript, following the
// example template. Set multipart when the transcript was assembled from
// several audio chunks of one session.
func (c *Client) GenerateReport(ctx context.Context, transcript, template, language string, multipart bool) (string, error) {
	c.log.Info().
		Str("language", language).
		Int("transcript_chars", len(transcript)).
		Int("template_chars", len(template)).
		Bool("multipart", multipart).
		Msg("generating report")
	return c.complete(ctx, "report", reportPrompt(transcript, template, language, multipart))
}

// complete issues a single-message chat completion and returns the trimmed
// first choice.
func (c *Client) complete(ctx context.Context, operation, prompt string) (string, error) {
	return execute(ctx, c, operation, func(ctx context.Context, api *openai.Client) (string, error) {
		resp, err := api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: c.cfg.Model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			MaxTokens:   c.cfg.MaxTokens,
			Temperature: c.cfg.Temperature,
		})
		if err != nil {
			return "", err
		}
		if len(resp.Choices) == 0 {
			return "", fmt.Errorf("OpenAI returned no choices")
		}
		return strings.TrimSpace(resp.Choices[0].Message.Content), nil
	})
}

// execute runs one logical API call through the retry loop. Each attempt
// acquires its own credential so a retry after a rate limit lands on a
// different, non-blocked key. 429 blocks the key and backs off; other HTTP
// errors fail immediately; transport errors back off and retry; a success
// unblocks the key it used.
func execute[T any](ctx context.Context, c *Client, operation string, call func(ctx context.Context, api *openai.Client) (T, error)) (T, error) {
	var zero T
	metrics.APIRequests.WithLabelValues(operation).Inc()
	start := time.Now()
	defer func() {
		metrics.APIRequestDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}()
	fail := func(err error) (T, error) {
		metrics.APIFailures.WithLabelValues(operation).Inc()
		return zero, err
	}

	for attempt := 1; attempt <= c.cfg.RetryAttempts; attempt++ {
		var cred *Credential
		var result T
		err := c.pool.WithCredential(func(acquired *Credential) error {
			cred = acquired
			r, err := call(ctx, c.api[acquired.Index])
			if err != nil {
				return err
			}
			result = r
			return nil
		})
		if err == nil {
			c.pool.Unblock(cred)
			return result, nil
		}
		if cred == nil {
			// Acquire itself failed; there is no key to rotate to.
			return fail(err)
		}

		status, message := statusOf(err)
		switch {
		case status == http.StatusTooManyRequests:
			metrics.RateLimitHits.Inc()
			c.pool.MarkFailed(cred, true)
			if attempt < c.cfg.RetryAttempts {
				c.log.Warn().Int("attempt", attempt).Int("key", cred.Index+1).Msg("rate limited, rotating key")
				if err := c.backoff(ctx, attempt); err != nil {
					return fail(err)
				}
				metrics.APIRetries.Inc()
				continue
			}
			return fail(&RateLimitError{Attempts: attempt})
		case status >= http.StatusBadRequest:
			// Hard HTTP errors are not retried; only rate limits and
			// transport failures drive the loop.
			c.pool.MarkFailed(cred, false)
			return fail(&RequestError{StatusCode: status, Message: message})
		default:
			if attempt < c.cfg.RetryAttempts {
				c.log.Warn().Err(err).Int("attempt", attempt).Msg("transport error, retrying")
				if berr := c.backoff(ctx, attempt); berr != nil {
					return fail(berr)
				}
				metrics.APIRetries.Inc()
				continue
			}
			return fail(&RequestError{Err: err})
		}
	}
	return fail(ErrRetriesExhausted)
}

// statusOf extracts the HTTP status and provider message from an SDK error.
// Transport failures report status 0.
func statusOf(err error) (int, string) {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode, apiErr.Message
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode, reqErr.Error()
	}
	return 0, ""
}

// backoff sleeps RetryDelay × attempt, honoring context cancellation.
func (c *Client) backoff(ctx context.Context, attempt int) error {
	timer := time.NewTimer(c.cfg.RetryDelay * time.Duration(attempt))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
