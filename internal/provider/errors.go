package provider

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ErrorKind classifies a failed provider call for the retry loop.
type ErrorKind int

const (
	KindTransport ErrorKind = iota
	KindRateLimited
	KindServerError
	KindUnauthorized
	KindBadRequest
	KindEmptyCompletion
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindRateLimited:
		return "rate_limited"
	case KindServerError:
		return "server_error"
	case KindUnauthorized:
		return "unauthorized"
	case KindBadRequest:
		return "bad_request"
	case KindEmptyCompletion:
		return "empty_completion"
	}
	return "unknown"
}

// APIError is a single failed call against one backend. Message never
// contains the credential used for the call.
type APIError struct {
	Provider string
	Kind     ErrorKind
	Status   int
	Message  string
}

func (e *APIError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s: HTTP %d (%s): %s", e.Provider, e.Status, e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Provider, e.Kind, e.Message)
}

// Retryable reports whether the failure is transient: worth retrying on the
// same credential. Unauthorized/BadRequest mean the request or credential is
// bad and repeating it cannot help; EmptyCompletion means the backend is up
// but useless, so the executor moves on.
func (e *APIError) Retryable() bool {
	switch e.Kind {
	case KindTransport, KindRateLimited, KindServerError:
		return true
	}
	return false
}

// statusError builds an APIError from a non-2xx response, extracting the
// human-readable message common provider error bodies carry.
func statusError(providerName string, status int, body []byte) *APIError {
	var errResp struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
		Message string `json:"message"`
	}
	msg := ""
	if json.Unmarshal(body, &errResp) == nil {
		msg = errResp.Error.Message
		if msg == "" {
			msg = errResp.Message
		}
	}
	if msg == "" {
		msg = friendlyStatus(status, body)
	}
	return &APIError{Provider: providerName, Kind: classifyStatus(status), Status: status, Message: msg}
}

func classifyStatus(status int) ErrorKind {
	switch {
	case status == 429:
		return KindRateLimited
	case status == 401 || status == 403:
		return KindUnauthorized
	case status >= 500, status == 529:
		return KindServerError
	default:
		return KindBadRequest
	}
}

func friendlyStatus(status int, body []byte) string {
	switch status {
	case 401:
		return "authentication failed — check your API key"
	case 403:
		return "access denied — your API key may not have the required permissions"
	case 404:
		return "model or endpoint not found"
	case 429:
		return "rate limited — too many requests"
	case 500:
		return "internal server error on the provider side"
	case 502, 503:
		return "provider service temporarily unavailable"
	case 529:
		return "provider is overloaded"
	}
	s := string(body)
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}

// transportError normalizes network-level failures to readable messages.
func transportError(providerName string, err error) *APIError {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "connection refused"):
		msg = "connection refused (is the service running?)"
	case strings.Contains(msg, "no such host"):
		msg = "host not found (check the URL)"
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline exceeded"):
		msg = "connection timed out"
	case strings.Contains(msg, "EOF"):
		msg = "connection closed unexpectedly"
	case strings.Contains(msg, "reset by peer"):
		msg = "connection reset by server"
	}
	return &APIError{Provider: providerName, Kind: KindTransport, Message: msg}
}

func emptyCompletionError(providerName string) *APIError {
	return &APIError{Provider: providerName, Kind: KindEmptyCompletion, Message: "response contained no completion text"}
}
