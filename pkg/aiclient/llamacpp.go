package aiclient

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

// LlamaCppClient talks to a llama.cpp server through its OpenAI-compatible
// chat completions endpoint, constraining output with a JSON schema.
type LlamaCppClient struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type responseFormat struct {
	Type       string          `json:"type"`
	JSONSchema *jsonSchemaSpec `json:"json_schema,omitempty"`
}

type jsonSchemaSpec struct {
	Name   string          `json:"name"`
	Schema json.RawMessage `json:"schema"`
}

type chatCompletionRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature,omitempty"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
	Stream         bool            `json:"stream"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// NewLlamaCppClient creates a client for the given server URL and model name.
func NewLlamaCppClient(serverURL, model string) (*LlamaCppClient, error) {
	if serverURL == "" {
		serverURL = "http://localhost:8080"
	}
	return &LlamaCppClient{
		baseURL:    strings.TrimSuffix(serverURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}, nil
}

// Invoke sends the image and prompt with a json_schema response format and
// decodes the reply into out.
func (c *LlamaCppClient) Invoke(ctx context.Context, imagePath, prompt string, schema json.RawMessage, out any) (string, error) {
	imgBytes, err := os.ReadFile(imagePath)
	if err != nil {
		return "", fmt.Errorf("failed to read image: %w", err)
	}
	imgB64 := base64.StdEncoding.EncodeToString(imgBytes)

	req := chatCompletionRequest{
		Model: c.model,
		Messages: []chatMessage{
			{
				Role: "user",
				Content: []contentPart{
					{Type: "text", Text: prompt},
					{Type: "image_url", ImageURL: &imageURL{URL: "data:image/jpeg;base64," + imgB64}},
				},
			},
		},
		Temperature: 0.7,
		MaxTokens:   4096,
		ResponseFormat: &responseFormat{
			Type:       "json_schema",
			JSONSchema: &jsonSchemaSpec{Name: "response", Schema: schema},
		},
		Stream: false,
	}

	body, err := c.sendRequest(ctx, "/v1/chat/completions", req)
	if err != nil {
		return "", err
	}

	var resp chatCompletionResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", newMalformedError(string(body), err)
	}
	if len(resp.Choices) == 0 {
		return "", newMalformedError(string(body), errors.New("no choices in response"))
	}

	content := resp.Choices[0].Message.Content
	if content == "" {
		return "", newMalformedError("", errors.New("empty response from llama.cpp server"))
	}
	cleaned := sanitizeModelJSON(content)
	if err := json.Unmarshal([]byte(cleaned), out); err != nil {
		return "", newMalformedError(content, err)
	}
	return c.model, nil
}

func (c *LlamaCppClient) sendRequest(ctx context.Context, endpoint string, payload any) ([]byte, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &UnavailableError{
			Reason: fmt.Sprintf("llama.cpp server is unreachable: %v", err),
			Err:    err,
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &UnavailableError{Reason: fmt.Sprintf("failed to read response: %v", err), Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		reason := fmt.Sprintf("llama.cpp server returned status %d: %s", resp.StatusCode, string(body))
		if resp.StatusCode == http.StatusTooManyRequests {
			reason += " — wait a moment and try again"
		}
		return nil, &UnavailableError{Reason: reason}
	}
	return body, nil
}
