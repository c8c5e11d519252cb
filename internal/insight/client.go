package insight

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/theblitlabs/automl-studio/pkg/logger"
)

// Client talks to an OpenAI-compatible chat completions endpoint to annotate
// analysis and training results with natural-language commentary. A nil
// client is valid and means the feature is unconfigured.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewClient returns nil when no API key is configured, so callers can treat
// the client's presence as the feature flag.
func NewClient(baseURL, apiKey, model string) *Client {
	if apiKey == "" {
		return nil
	}
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		httpClient: &http.Client{
			Timeout: 2 * time.Minute,
		},
	}
}

// Available reports whether the commentary feature is configured.
func (c *Client) Available() bool { return c != nil }

func (c *Client) complete(ctx context.Context, system, user string) (string, error) {
	log := logger.WithComponent("insight")

	req := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: 0.4,
	}

	reqBody, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/chat/completions", bytes.NewBuffer(reqBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("completion request failed with status: %d", resp.StatusCode)
	}

	var response chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if response.Error != nil {
		return "", fmt.Errorf("completion error: %s", response.Error.Message)
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("completion returned no choices")
	}

	log.Debug().Str("model", c.model).Msg("Generated commentary")
	return response.Choices[0].Message.Content, nil
}

// DataInsights summarizes an analysis verdict for a non-expert reader.
func (c *Client) DataInsights(ctx context.Context, analysisJSON string) (string, error) {
	system := "You are a data science assistant. Explain analysis results clearly and concisely for a non-expert audience."
	user := fmt.Sprintf(
		"Here is the automated analysis of an uploaded dataset:\n\n%s\n\nSummarize what this dataset looks like, what kind of prediction problem it suggests, and any data quality concerns.",
		analysisJSON,
	)
	return c.complete(ctx, system, user)
}

// ExplainModel turns a training leaderboard into a plain-language summary.
func (c *Client) ExplainModel(ctx context.Context, problemType, bestModel, metricsJSON string) (string, error) {
	system := "You are a machine learning assistant. Explain model results in plain language without jargon."
	user := fmt.Sprintf(
		"A model search for a %s problem selected %s as the best model. The full leaderboard was:\n\n%s\n\nExplain what the winning model does, how to read these metrics, and how reliable the model looks.",
		problemType, bestModel, metricsJSON,
	)
	return c.complete(ctx, system, user)
}

// Recommendations suggests next steps given the dataset's characteristics.
func (c *Client) Recommendations(ctx context.Context, analysisJSON string) (string, error) {
	system := "You are a data science assistant. Give practical, prioritized recommendations."
	user := fmt.Sprintf(
		"Given this dataset analysis:\n\n%s\n\nRecommend concrete next steps: preprocessing to apply, features worth engineering, and which model families to try first.",
		analysisJSON,
	)
	return c.complete(ctx, system, user)
}

// Ask answers a free-form question, optionally grounded in prior results.
func (c *Client) Ask(ctx context.Context, question, contextJSON string) (string, error) {
	system := "You are a helpful data science assistant answering questions about a user's dataset and models."
	user := question
	if contextJSON != "" {
		user = fmt.Sprintf("Context:\n%s\n\nQuestion: %s", contextJSON, question)
	}
	return c.complete(ctx, system, user)
}
