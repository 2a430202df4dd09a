package translate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// GoogleEndpoint is the public translate endpoint used by browser widgets.
const GoogleEndpoint = "https://translate.googleapis.com/translate_a/single"

// Google calls the free Google Translate endpoint.
type Google struct {
	baseURL string
	client  *http.Client
}

// NewGoogle creates the provider. An empty baseURL selects GoogleEndpoint.
func NewGoogle(client *http.Client, baseURL string) *Google {
	if client == nil {
		client = http.DefaultClient
	}
	if baseURL == "" {
		baseURL = GoogleEndpoint
	}
	return &Google{baseURL: baseURL, client: client}
}

func (g *Google) Name() string { return "google" }

func (g *Google) Translate(ctx context.Context, text, from, to string) (string, error) {
	params := url.Values{}
	params.Set("client", "gtx")
	params.Set("sl", from)
	params.Set("tl", to)
	params.Set("dt", "t")
	params.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+params.Encode(), http.NoBody)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("HTTP error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("google translate returned status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("error reading response: %w", err)
	}

	translation, err := parseGoogleResponse(body)
	if err != nil {
		return "", fmt.Errorf("error parsing response: %w", err)
	}
	return translation, nil
}

// parseGoogleResponse joins the translated segments of the nested-array
// payload: [[["segment","source",...],...],...].
func parseGoogleResponse(body []byte) (string, error) {
	var response []interface{}
	if err := json.Unmarshal(body, &response); err != nil {
		return "", err
	}

	if len(response) == 0 {
		return "", errors.New("empty response from Google Translate")
	}

	segments, ok := response[0].([]interface{})
	if !ok {
		return "", errors.New("unexpected response format")
	}

	var result strings.Builder
	for _, segment := range segments {
		if parts, ok := segment.([]interface{}); ok && len(parts) > 0 {
			if translated, ok := parts[0].(string); ok {
				result.WriteString(translated)
			}
		}
	}
	return result.String(), nil
}
