// Package summarizer generates page summaries through an LLM backend
// selected by a provider URI.
package summarizer

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"

	"golang.org/x/time/rate"
)

// ModelAPIKeyEnv names the environment variable holding the API key passed
// to backends that need one.
const ModelAPIKeyEnv = "SITEDIGEST_MODEL_API_KEY"

// Message is one chat turn sent to a provider.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Provider is a chat-capable LLM backend.
type Provider interface {
	Chat(ctx context.Context, messages []Message) (string, error)
}

// ParseProviderURI resolves a provider URI of the form scheme://tag@model,
// e.g. ollama://8b@qwen3 selects the ollama backend with model "qwen3:8b".
// The scheme picks the backend; host and userinfo combine into the model
// name the way the backend expects.
func ParseProviderURI(raw string) (Provider, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid provider URI %q: %w", raw, err)
	}

	model := u.Host
	if model == "" {
		return nil, fmt.Errorf("provider URI %q does not name a model", raw)
	}
	if user := u.User.Username(); user != "" {
		model = model + ":" + user
	}

	switch u.Scheme {
	case "ollama":
		return NewOllama(model, os.Getenv(OllamaHostEnv)), nil
	case "openai":
		return NewOpenAI(model, os.Getenv(ModelAPIKeyEnv), os.Getenv(OpenAIBaseURLEnv)), nil
	default:
		return nil, fmt.Errorf("unknown provider backend %q in %q", u.Scheme, raw)
	}
}

// Summarizer applies a prompt template and a rate limit around a Provider.
type Summarizer struct {
	provider Provider
	template string
	limiter  *rate.Limiter
}

// New builds a Summarizer. An empty template selects DefaultTemplate; an
// rpm of zero means unlimited.
func New(provider Provider, template string, rpm int) *Summarizer {
	if template == "" {
		template = DefaultTemplate
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if rpm > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(rpm)/60.0), 1)
	}
	return &Summarizer{provider: provider, template: template, limiter: limiter}
}

// TemplateDigest tags summaries with the prompt template that produced them.
func (s *Summarizer) TemplateDigest() string {
	return PromptDigest(s.template)
}

// Summarize produces a summary of the page text. The template's {url} and
// {text} placeholders are substituted; if the template has no {text}
// placeholder, the text goes out as a second message.
func (s *Summarizer) Summarize(ctx context.Context, pageURL, text string) (string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	prompt := strings.ReplaceAll(s.template, "{url}", pageURL)
	prompt = strings.ReplaceAll(prompt, "{text}", text)

	messages := []Message{{Role: "user", Content: prompt}}
	if !strings.Contains(s.template, "{text}") {
		messages = append(messages, Message{Role: "user", Content: text})
	}

	response, err := s.provider.Chat(ctx, messages)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(StripThink(response)), nil
}
