package summarizer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// OllamaHostEnv overrides the local ollama endpoint.
const OllamaHostEnv = "SITEDIGEST_OLLAMA_HOST"

const defaultOllamaHost = "http://localhost:11434"

// Ollama talks to a local ollama server's chat API.
type Ollama struct {
	model   string
	baseURL string
	http    *http.Client
}

func NewOllama(model, baseURL string) *Ollama {
	if baseURL == "" {
		baseURL = defaultOllamaHost
	}
	return &Ollama{model: model, baseURL: baseURL, http: &http.Client{}}
}

type ollamaRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
}

type ollamaResponse struct {
	Message Message `json:"message"`
	Error   string  `json:"error"`
}

func (o *Ollama) Chat(ctx context.Context, messages []Message) (string, error) {
	payload, err := json.Marshal(ollamaRequest{Model: o.model, Messages: messages, Stream: false})
	if err != nil {
		return "", fmt.Errorf("failed to encode ollama request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build ollama request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read ollama response: %w", err)
	}

	var parsed ollamaResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode ollama response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if parsed.Error != "" {
			return "", fmt.Errorf("ollama: %s", parsed.Error)
		}
		return "", fmt.Errorf("ollama: unexpected status %d", resp.StatusCode)
	}
	return parsed.Message.Content, nil
}
