// Package store is the client for the remote record table holding saved
// memories. The table is Airtable-shaped: records are opaque-id + field map,
// inserted via POST and searched with a filterByFormula substring predicate
// over the Reference field. The table is the sole source of truth; nothing
// is cached client-side.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const airtableDefaultURL = "https://api.airtable.com"

// ErrUnavailable wraps every failed store call. It is never recovered
// locally: a retrieval grounded in a partial view is worse than an error.
var ErrUnavailable = errors.New("memory store unavailable")

// Record is one stored memory as the table returns it.
type Record struct {
	ID     string         `json:"id"`
	Fields map[string]any `json:"fields"`
}

type Client struct {
	baseURL string
	token   string
	baseID  string
	tableID string
	client  *http.Client
	log     zerolog.Logger
}

func NewClient(baseURL, token, baseID, tableID string, timeout time.Duration, log zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = airtableDefaultURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		baseID:  baseID,
		tableID: tableID,
		client:  &http.Client{Timeout: timeout},
		log:     log,
	}
}

func (c *Client) tableURL() string {
	return fmt.Sprintf("%s/v0/%s/%s", c.baseURL, c.baseID, c.tableID)
}

type insertRequest struct {
	Records []struct {
		Fields map[string]any `json:"fields"`
	} `json:"records"`
}

type recordPage struct {
	Records []Record `json:"records"`
	Offset  string   `json:"offset,omitempty"`
}

// Insert writes one record and returns its store-assigned id.
func (c *Client) Insert(ctx context.Context, fields map[string]any) (string, error) {
	var body insertRequest
	body.Records = append(body.Records, struct {
		Fields map[string]any `json:"fields"`
	}{Fields: fields})
	payload, err := json.Marshal(body)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.tableURL(), bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	var page recordPage
	if err := c.do(req, &page); err != nil {
		return "", err
	}
	if len(page.Records) == 0 {
		return "", fmt.Errorf("%w: insert returned no record", ErrUnavailable)
	}
	c.log.Debug().Str("record_id", page.Records[0].ID).Msg("memory stored")
	return page.Records[0].ID, nil
}

// SearchReference returns every record whose Reference field contains the
// keyword as a case-insensitive substring, following pagination cursors
// until the table is exhausted.
func (c *Client) SearchReference(ctx context.Context, keyword string) ([]Record, error) {
	formula := referenceFormula(keyword)

	var records []Record
	offset := ""
	for {
		q := url.Values{}
		q.Set("filterByFormula", formula)
		if offset != "" {
			q.Set("offset", offset)
		}

		req, err := http.NewRequestWithContext(ctx, "GET", c.tableURL()+"?"+q.Encode(), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+c.token)

		var page recordPage
		if err := c.do(req, &page); err != nil {
			return nil, err
		}
		records = append(records, page.Records...)
		if page.Offset == "" {
			return records, nil
		}
		offset = page.Offset
	}
}

// referenceFormula builds the substring predicate. FIND returns a position
// (0 when absent), which the table treats as a boolean.
func referenceFormula(keyword string) string {
	safe := strings.ReplaceAll(strings.ToLower(keyword), `'`, `\'`)
	return fmt.Sprintf(`FIND('%s', LOWER({Reference}))`, safe)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt := string(body)
		if len(excerpt) > 200 {
			excerpt = excerpt[:200] + "..."
		}
		return fmt.Errorf("%w: HTTP %d: %s", ErrUnavailable, resp.StatusCode, excerpt)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: unparsable response: %v", ErrUnavailable, err)
	}
	return nil
}
