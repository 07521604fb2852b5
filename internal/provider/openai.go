package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"
)

// OpenAIProvider speaks the OpenAI-compatible chat/completions protocol.
// OpenRouter and most self-hosted gateways expose this shape.
type OpenAIProvider struct {
	name    string
	baseURL string
	model   string
	client  *http.Client
}

func NewOpenAI(name, baseURL, model string, timeout time.Duration) *OpenAIProvider {
	return &OpenAIProvider{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  &http.Client{Timeout: timeout},
	}
}

func (o *OpenAIProvider) Name() string { return o.name }

type oaiRequest struct {
	Model       string       `json:"model"`
	Messages    []oaiMessage `json:"messages"`
	Temperature float64      `json:"temperature"`
}

type oaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type oaiResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		Text string `json:"text"`
	} `json:"choices"`
}

func (o *OpenAIProvider) Complete(ctx context.Context, apiKey string, msgs []Message) (string, error) {
	oaiMsgs := make([]oaiMessage, len(msgs))
	for i, m := range msgs {
		oaiMsgs[i] = oaiMessage{Role: string(m.Role), Content: m.Content}
	}

	payload, err := json.Marshal(oaiRequest{Model: o.model, Messages: oaiMsgs, Temperature: 0})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", o.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return "", transportError(o.name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", transportError(o.name, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", statusError(o.name, resp.StatusCode, body)
	}

	var out oaiResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", &APIError{Provider: o.name, Kind: KindBadRequest, Status: resp.StatusCode, Message: "unparsable response body"}
	}
	if len(out.Choices) == 0 {
		return "", emptyCompletionError(o.name)
	}
	text := strings.TrimSpace(out.Choices[0].Message.Content)
	if text == "" {
		// Older completion-style backends put the text one level up.
		text = strings.TrimSpace(out.Choices[0].Text)
	}
	if text == "" {
		return "", emptyCompletionError(o.name)
	}
	return text, nil
}
