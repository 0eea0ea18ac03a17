// Package ai provides the text-completion backend used for qualitative analysis.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"repohealth/logger"
)

// Completer turns a prompt into free text.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// OllamaConfig holds the configuration for an Ollama-compatible chat endpoint.
type OllamaConfig struct {
	BaseURL string        // e.g. http://localhost:11434 or https://ollama.com
	Model   string        // e.g. qwen3, llama3.1
	Token   string        // Bearer token for hosted endpoints (empty = no auth)
	Timeout time.Duration // bound on one completion call (0 = none)
}

// OllamaClient implements Completer against the Ollama /api/chat endpoint.
type OllamaClient struct {
	cfg        OllamaConfig
	httpClient *http.Client
}

// NewOllamaClient creates a new Ollama-backed completer.
func NewOllamaClient(cfg OllamaConfig) *OllamaClient {
	return &OllamaClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// ModelName returns the chat model identifier.
func (o *OllamaClient) ModelName() string {
	return o.cfg.Model
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
}

// Complete sends prompt as a single user message and returns the reply text.
func (o *OllamaClient) Complete(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model:    o.cfg.Model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
		Stream:   false,
	})
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.cfg.BaseURL+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if o.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+o.cfg.Token)
	}

	start := time.Now()
	resp, err := o.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama chat: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("ollama API error (%d): %s", resp.StatusCode, string(body))
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("ollama chat decode: %w", err)
	}

	logger.Named("ai").Debug("Completion received",
		zap.String("model", o.cfg.Model),
		zap.Int("chars", len(out.Message.Content)),
		zap.Duration("elapsed", time.Since(start)))
	return out.Message.Content, nil
}
