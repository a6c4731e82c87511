package suggest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const httpTimeout = 10 * time.Second

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/models/gemini-1.5-flash:generateContent"

// destinationCount is how many candidate destinations each suggestion
// request asks for. The model may return fewer.
const destinationCount = 3

// Client asks the Gemini generateContent API for candidate destinations.
// It returns the raw model text; parsing is left to the caller.
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewClient constructs a Client with the given API key.
func NewClient(apiKey string) *Client {
	return NewClientWithURL(defaultBaseURL, apiKey)
}

// NewClientWithURL constructs a Client pointing at a custom base URL (for tests).
func NewClientWithURL(baseURL, apiKey string) *Client {
	return &Client{apiKey: apiKey, baseURL: baseURL, client: &http.Client{Timeout: httpTimeout}}
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

func buildPrompt(tripLengthDays int, origin string) string {
	return fmt.Sprintf(
		"Suggest exactly %d geographically diverse international flight destinations "+
			"for a %d-day trip departing from the airport with IATA code %s. "+
			"Respond with only a JSON array where each element has the keys "+
			"\"city\" (display name with country) and \"iataCode\" (3-letter airport code). "+
			"No prose, no explanation.",
		destinationCount, tripLengthDays, origin,
	)
}

// Suggest requests candidate destinations for the given trip length and
// departure airport and returns the model's raw text reply.
func (c *Client) Suggest(ctx context.Context, tripLengthDays int, origin string) (string, error) {
	payload, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: buildPrompt(tripLengthDays, origin)}}}},
	})
	if err != nil {
		return "", fmt.Errorf("marshaling suggestion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"?key="+c.apiKey, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("creating suggestion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("requesting suggestions: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("suggestion request returned status %d: %s", resp.StatusCode, body)
	}

	var raw generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return "", fmt.Errorf("decoding suggestion response: %w", err)
	}

	if len(raw.Candidates) == 0 || len(raw.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("suggestion response contained no content")
	}

	return raw.Candidates[0].Content.Parts[0].Text, nil
}
