// Package generator produces grounded answers by sending the assembled
// prompt to a language-model backend, retrying on rate limits.
package generator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"

	"docqa/internal/config"
	"docqa/internal/models"
)

// ErrRateLimited marks a throttling signal from the backend. It is the only
// error kind the generator retries.
var ErrRateLimited = errors.New("rate limited by LLM backend")

// Error marks any other language-model failure. Fatal, surfaced immediately.
type Error struct {
	Err error
}

func (e *Error) Error() string { return fmt.Sprintf("generation: %v", e.Err) }
func (e *Error) Unwrap() error { return e.Err }

const (
	maxAttempts = 3
	// Linear backoff: 20s, then 40s between attempts.
	backoffStep = 20 * time.Second

	defaultModel   = "gemini-2.5-flash"
	placeholderKey = "your-gemini-api-key-here"
)

// completeFunc sends one prompt to the backend and returns the answer text.
type completeFunc func(ctx context.Context, prompt string) (string, error)

// Generator holds a lazily created LLM client, reused for the process
// lifetime and safe to share once initialized.
type Generator struct {
	cfg *config.LLMConfig

	once     sync.Once
	complete completeFunc
	initErr  error

	sleep func(time.Duration)
}

func NewGenerator(cfg *config.LLMConfig) *Generator {
	return &Generator{cfg: cfg, sleep: time.Sleep}
}

// Generate builds the prompt for the question and chunks and completes it.
// On a rate-limit signal it retries up to 3 attempts with linearly growing
// backoff; any other failure, or retry exhaustion, propagates. There is no
// fallback answer.
func (g *Generator) Generate(ctx context.Context, question string, chunks []models.RetrievedResult) (string, error) {
	g.once.Do(func() {
		if g.complete == nil {
			g.complete, g.initErr = newGeminiBackend(ctx, g.cfg)
		}
	})
	if g.initErr != nil {
		return "", g.initErr
	}

	prompt := BuildPrompt(question, chunks)
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		text, err := g.complete(ctx, prompt)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if !errors.Is(err, ErrRateLimited) {
			return "", err
		}
		if attempt < maxAttempts {
			wait := backoffStep * time.Duration(attempt)
			log.Warn().Dur("backoff", wait).Int("attempt", attempt).Msg("Rate limited, retrying")
			g.sleep(wait)
		}
	}
	return "", lastErr
}

// newGeminiBackend validates the credential and builds the genai-backed
// completion function. A missing or placeholder credential fails here,
// before any network call.
func newGeminiBackend(ctx context.Context, cfg *config.LLMConfig) (completeFunc, error) {
	key := cfg.Key
	if key == "" {
		key = os.Getenv(cfg.KeyEnv)
	}
	if err := validateCredential(key, cfg.KeyEnv); err != nil {
		return nil, err
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  key,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, &Error{Err: err}
	}
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	return func(ctx context.Context, prompt string) (string, error) {
		resp, err := client.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
		if err != nil {
			if isRateLimited(err) {
				return "", fmt.Errorf("%w: %v", ErrRateLimited, err)
			}
			return "", &Error{Err: err}
		}
		return resp.Text(), nil
	}, nil
}

func validateCredential(key, keyEnv string) error {
	if key == "" || key == placeholderKey {
		return fmt.Errorf("%w: LLM API key is not set, export %s", config.ErrInvalid, keyEnv)
	}
	return nil
}

func isRateLimited(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests
	}
	return strings.Contains(err.Error(), "429")
}
