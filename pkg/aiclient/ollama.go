package aiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/ollama/ollama/api"
)

const defaultTimeout = 300 * time.Second // vision models on CPU are slow

// OllamaClient runs prompts against an Ollama server with schema-constrained
// output.
type OllamaClient struct {
	client *api.Client
	model  string
}

// NewOllamaClient creates a client for the given server URL and model name.
func NewOllamaClient(serverURL, model string) (*OllamaClient, error) {
	parsed, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	base := &url.URL{Scheme: parsed.Scheme, Host: parsed.Host}
	return &OllamaClient{
		client: api.NewClient(base, http.DefaultClient),
		model:  model,
	}, nil
}

// Invoke sends the image and prompt with the schema as the response format
// and decodes the reply into out.
func (c *OllamaClient) Invoke(ctx context.Context, imagePath, prompt string, schema json.RawMessage, out any) (string, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultTimeout)
		defer cancel()
	}

	imgBytes, err := os.ReadFile(imagePath)
	if err != nil {
		return "", fmt.Errorf("failed to read image: %w", err)
	}

	stream := false
	req := &api.ChatRequest{
		Model: c.model,
		Messages: []api.Message{
			{
				Role:    "user",
				Content: prompt,
				Images:  []api.ImageData{api.ImageData(imgBytes)},
			},
		},
		Stream: &stream,
		Format: schema,
	}

	var content string
	err = c.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		content += resp.Message.Content
		return nil
	})
	if err != nil {
		return "", classifyOllamaError(err)
	}
	if content == "" {
		return "", newMalformedError("", errors.New("empty response from ollama"))
	}

	cleaned := sanitizeModelJSON(content)
	if err := json.Unmarshal([]byte(cleaned), out); err != nil {
		return "", newMalformedError(content, err)
	}
	return c.model, nil
}

func classifyOllamaError(err error) error {
	var status api.StatusError
	if errors.As(err, &status) {
		if status.StatusCode == http.StatusTooManyRequests {
			return &UnavailableError{
				Reason: "ollama rate limit reached — wait a moment and try again",
				Err:    err,
			}
		}
		return &UnavailableError{
			Reason: fmt.Sprintf("ollama request failed (status %d): %s", status.StatusCode, status.ErrorMessage),
			Err:    err,
		}
	}
	return &UnavailableError{
		Reason: fmt.Sprintf("ollama is unreachable: %v — check that the server is running and OLLAMA_URL is correct", err),
		Err:    err,
	}
}
