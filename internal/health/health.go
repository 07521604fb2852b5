// Package health probes the external collaborators — LM provider endpoints
// and the record store — so misconfiguration shows up at startup instead of
// on the first user request.
package health

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

type Status struct {
	Target    string
	Reachable bool
	Error     string
	Latency   time.Duration
}

// CheckProvider verifies that a provider endpoint answers at all. For
// OpenAI-compatible endpoints it lists /models; for Anthropic and Gemini a
// HEAD-weight GET against the API root is enough to prove DNS, TLS, and
// routing work. Auth failures still count as reachable.
func CheckProvider(ctx context.Context, name, providerType, baseURL, apiKey string) Status {
	s := Status{Target: name}
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	switch providerType {
	case "openai":
		s.Reachable, s.Error = probe(ctx, strings.TrimRight(baseURL, "/")+"/models", map[string]string{"Authorization": "Bearer " + apiKey})
	case "anthropic":
		if baseURL == "" {
			baseURL = "https://api.anthropic.com"
		}
		s.Reachable, s.Error = probe(ctx, strings.TrimRight(baseURL, "/")+"/v1/models", map[string]string{"x-api-key": apiKey, "anthropic-version": "2023-06-01"})
	case "gemini":
		if baseURL == "" {
			baseURL = "https://generativelanguage.googleapis.com"
		}
		s.Reachable, s.Error = probe(ctx, strings.TrimRight(baseURL, "/")+"/v1beta/models", map[string]string{"x-goog-api-key": apiKey})
	default:
		s.Error = fmt.Sprintf("unknown provider type: %s", providerType)
	}

	s.Latency = time.Since(start)
	return s
}

// CheckStore verifies the record table answers with the configured token.
func CheckStore(ctx context.Context, baseURL, token, baseID, tableID string) Status {
	s := Status{Target: "store"}
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if baseURL == "" {
		baseURL = "https://api.airtable.com"
	}
	url := fmt.Sprintf("%s/v0/%s/%s?maxRecords=1", strings.TrimRight(baseURL, "/"), baseID, tableID)
	reachable, errMsg := probe(ctx, url, map[string]string{"Authorization": "Bearer " + token})
	// The store is only healthy if the token actually works.
	s.Reachable = reachable && errMsg == ""
	s.Error = errMsg
	s.Latency = time.Since(start)
	return s
}

func probe(ctx context.Context, url string, headers map[string]string) (reachable bool, errMsg string) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return false, err.Error()
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false, err.Error()
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 500 {
		return true, fmt.Sprintf("HTTP %d", resp.StatusCode)
	}
	if resp.StatusCode == 401 || resp.StatusCode == 403 {
		return true, fmt.Sprintf("HTTP %d (check credentials)", resp.StatusCode)
	}
	return true, ""
}
