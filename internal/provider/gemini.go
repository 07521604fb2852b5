package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const geminiDefaultURL = "https://generativelanguage.googleapis.com"

// GeminiProvider speaks the Google generateContent API. The API has no
// assistant-authored system turns mid-conversation, so the whole message
// sequence is flattened into a single prompt in one user turn.
type GeminiProvider struct {
	baseURL string
	model   string
	client  *http.Client
}

func NewGemini(baseURL, model string, timeout time.Duration) *GeminiProvider {
	if baseURL == "" {
		baseURL = geminiDefaultURL
	}
	return &GeminiProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  &http.Client{Timeout: timeout},
	}
}

func (g *GeminiProvider) Name() string { return "gemini" }

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

func (g *GeminiProvider) Complete(ctx context.Context, apiKey string, msgs []Message) (string, error) {
	var prompt strings.Builder
	for i, m := range msgs {
		if i > 0 {
			prompt.WriteString("\n\n")
		}
		prompt.WriteString(m.Content)
	}

	payload, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: prompt.String()}}}},
	})
	if err != nil {
		return "", err
	}

	apiURL := fmt.Sprintf("%s/v1beta/models/%s:generateContent", g.baseURL, g.model)
	req, err := http.NewRequestWithContext(ctx, "POST", apiURL, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", transportError(g.Name(), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", transportError(g.Name(), err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", statusError(g.Name(), resp.StatusCode, body)
	}

	var out geminiResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", &APIError{Provider: g.Name(), Kind: KindBadRequest, Status: resp.StatusCode, Message: "unparsable response body"}
	}
	if len(out.Candidates) == 0 {
		return "", emptyCompletionError(g.Name())
	}
	var text strings.Builder
	for _, part := range out.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}
	if strings.TrimSpace(text.String()) == "" {
		return "", emptyCompletionError(g.Name())
	}
	return strings.TrimSpace(text.String()), nil
}
