// Package openai provides a vision.Client implementation backed by an
// OpenAI-compatible API. Images are sent inline as base64 data URLs. The
// client first tries the Responses API and falls back to the multimodal
// Chat Completions API when the primary route fails, so it works against
// providers that only implement the older surface.
package openai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/kike-0203/watchy-solver-clean/pkg/serrors"
	"github.com/kike-0203/watchy-solver-clean/pkg/vision"
)

const (
	// DefaultBaseURL is the OpenAI API root used when Options.BaseURL is empty.
	DefaultBaseURL = "https://api.openai.com/v1"
	// DefaultModel is the vision model used when Options.Model is empty.
	DefaultModel = "gpt-4o-mini"
)

// Prompt is the instruction sent alongside every image. The device audience
// is Spanish-speaking, so the model is asked to answer in Spanish-flavored
// LaTeX with no surrounding commentary.
const Prompt = "Analiza cuidadosamente el texto o ecuación en la imagen y responde " +
	"explicando la solución de manera breve y en formato matemático LaTeX, " +
	"sin texto adicional ni comentarios. Si es una ecuación diferencial, resuélvela paso a paso."

// Options configures the client.
type Options struct {
	// BaseURL is the API root, e.g. "https://api.openai.com/v1".
	BaseURL string
	// APIKey is the bearer token for the provider.
	APIKey string
	// Model names the vision-capable model to query.
	Model string
}

// Client talks to an OpenAI-compatible REST API and fulfills the
// vision.Client interface. It is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
}

// Ensure Client conforms to the vision.Client interface at compile time.
var _ vision.Client = (*Client)(nil)

// New constructs a Client using the provided http.Client and options.
func New(httpClient *http.Client, opts Options) *Client {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	model := opts.Model
	if model == "" {
		model = DefaultModel
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     opts.APIKey,
		model:      model,
	}
}

// Solve sends the image to the model and returns the solution text.
func (c *Client) Solve(ctx context.Context, image []byte) (string, error) {
	dataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(image)

	text, err := c.solveResponses(ctx, dataURL)
	if err == nil {
		return text, nil
	}
	// Quota rejections apply account-wide, not per route.
	if errors.Is(err, serrors.ErrRateLimited) || ctx.Err() != nil {
		return "", err
	}

	return c.solveChat(ctx, dataURL)
}

// solveResponses queries the Responses API.
func (c *Client) solveResponses(ctx context.Context, dataURL string) (string, error) {
	type contentItem struct {
		Type     string `json:"type"`
		Text     string `json:"text,omitempty"`
		ImageURL string `json:"image_url,omitempty"`
	}
	type message struct {
		Role    string        `json:"role"`
		Content []contentItem `json:"content"`
	}
	body := struct {
		Model string    `json:"model"`
		Input []message `json:"input"`
	}{
		Model: c.model,
		Input: []message{{
			Role: "user",
			Content: []contentItem{
				{Type: "input_text", Text: Prompt},
				{Type: "input_image", ImageURL: dataURL},
			},
		}},
	}

	b, err := c.post(ctx, c.baseURL+"/responses", body)
	if err != nil {
		return "", err
	}

	var res struct {
		OutputText string `json:"output_text"`
		Output     []struct {
			Content []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"content"`
		} `json:"output"`
	}
	if err := json.Unmarshal(b, &res); err != nil {
		return "", fmt.Errorf("could not decode responses payload: %w", err)
	}
	if text := strings.TrimSpace(res.OutputText); text != "" {
		return text, nil
	}
	for _, out := range res.Output {
		for _, item := range out.Content {
			if text := strings.TrimSpace(item.Text); text != "" {
				return text, nil
			}
		}
	}

	return "", serrors.With(serrors.ErrUnavailable, "model returned no output text")
}

// solveChat queries the multimodal Chat Completions API.
func (c *Client) solveChat(ctx context.Context, dataURL string) (string, error) {
	type imageURL struct {
		URL string `json:"url"`
	}
	type contentItem struct {
		Type     string    `json:"type"`
		Text     string    `json:"text,omitempty"`
		ImageURL *imageURL `json:"image_url,omitempty"`
	}
	type message struct {
		Role    string        `json:"role"`
		Content []contentItem `json:"content"`
	}
	body := struct {
		Model    string    `json:"model"`
		Messages []message `json:"messages"`
	}{
		Model: c.model,
		Messages: []message{{
			Role: "user",
			Content: []contentItem{
				{Type: "text", Text: Prompt},
				{Type: "image_url", ImageURL: &imageURL{URL: dataURL}},
			},
		}},
	}

	b, err := c.post(ctx, c.baseURL+"/chat/completions", body)
	if err != nil {
		return "", err
	}

	var res struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(b, &res); err != nil {
		return "", fmt.Errorf("could not decode chat payload: %w", err)
	}
	if len(res.Choices) == 0 {
		return "", serrors.With(serrors.ErrUnavailable, "model returned no choices")
	}
	text := strings.TrimSpace(res.Choices[0].Message.Content)
	if text == "" {
		return "", serrors.With(serrors.ErrUnavailable, "model returned empty content")
	}

	return text, nil
}

// post sends a JSON request and returns the raw body of a 2xx response.
func (c *Client) post(ctx context.Context, url string, payload any) ([]byte, error) {
	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("could not marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(string(bodyBytes)))
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, serrors.Wrap(serrors.ErrUnavailable, err, "could not reach model provider")
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("could not read response body: %w", err)
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, serrors.With(serrors.ErrRateLimited, "rate limited: %s", strings.TrimSpace(string(b)))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, serrors.With(serrors.ErrUnavailable,
			"provider returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	return b, nil
}
