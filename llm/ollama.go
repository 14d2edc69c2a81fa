package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/siherrmann/lexrag/helper"
)

const (
	// DefaultOllamaURL is the local Ollama endpoint
	DefaultOllamaURL = "http://localhost:11434"
	// DefaultOllamaModel is the default generation model
	DefaultOllamaModel = "llama3.2"

	defaultCallTimeout = 60 * time.Second
	defaultMaxRetries  = 3
)

// OllamaClient calls a local Ollama server for text generation.
// Every call carries a per-call deadline and transient failures are
// retried with exponential backoff.
type OllamaClient struct {
	BaseURL     string
	Model       string
	CallTimeout time.Duration
	MaxRetries  uint64
	httpClient  *http.Client
}

// NewOllamaClient creates a client for the given Ollama base URL and model.
// Empty arguments fall back to the defaults.
func NewOllamaClient(baseURL string, model string) *OllamaClient {
	if baseURL == "" {
		baseURL = DefaultOllamaURL
	}
	if model == "" {
		model = DefaultOllamaModel
	}
	return &OllamaClient{
		BaseURL:     baseURL,
		Model:       model,
		CallTimeout: defaultCallTimeout,
		MaxRetries:  defaultMaxRetries,
		httpClient:  &http.Client{},
	}
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
}

// Generate sends the prompt to the Ollama generate endpoint and returns the
// generated text. Server errors with status >= 500 are retried, client errors
// are not.
func (c *OllamaClient) Generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{
		Model:  c.Model,
		Prompt: prompt,
		Stream: false,
	})
	if err != nil {
		return "", helper.NewError("marshal request", err)
	}

	var response string
	operation := func() error {
		callCtx, cancel := context.WithTimeout(ctx, c.CallTimeout)
		defer cancel()

		request, err := http.NewRequestWithContext(callCtx, http.MethodPost, c.BaseURL+"/api/generate", bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(helper.NewError("create request", err))
		}
		request.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(request)
		if err != nil {
			return helper.NewError("send request", err)
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return helper.NewError("read response", err)
		}

		if resp.StatusCode >= 500 {
			return helper.NewError("server error", fmt.Errorf("status %d: %s", resp.StatusCode, string(respBody)))
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(helper.NewError("request failed", fmt.Errorf("status %d: %s", resp.StatusCode, string(respBody))))
		}

		var parsed generateResponse
		err = json.Unmarshal(respBody, &parsed)
		if err != nil {
			return backoff.Permanent(helper.NewError("unmarshal response", err))
		}
		if parsed.Error != "" {
			return backoff.Permanent(helper.NewError("model error", fmt.Errorf("%s", parsed.Error)))
		}

		response = parsed.Response
		return nil
	}

	// MaxRetries counts total attempts, so retry one less than that.
	// Zero still means a single attempt.
	retries := uint64(0)
	if c.MaxRetries > 0 {
		retries = c.MaxRetries - 1
	}
	err = backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), retries), ctx))
	if err != nil {
		return "", helper.NewError("generate", err)
	}

	return response, nil
}
