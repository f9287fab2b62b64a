package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gigtally/tally_backend/utils"
	"github.com/google/uuid"
)

type Client struct {
	baseURL   string
	apiKey    string
	apiKeyHdr string
	http      *http.Client
}

func NewClient() (*Client, error) {
	baseURL := strings.TrimSpace(os.Getenv("EXTRACTION_API_BASE_URL"))
	if baseURL == "" {
		return nil, errors.New("EXTRACTION_API_BASE_URL is not set")
	}
	apiKeyHeader := strings.TrimSpace(os.Getenv("EXTRACTION_API_KEY_HEADER"))
	if apiKeyHeader == "" {
		apiKeyHeader = "X-API-Key"
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiKey:    strings.TrimSpace(os.Getenv("EXTRACTION_API_KEY")),
		apiKeyHdr: apiKeyHeader,
		http:      &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// NewClientWithBase is used by tests to point the client at a stub server.
func NewClientWithBase(baseURL string) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiKeyHdr: "X-API-Key",
		http:      &http.Client{Timeout: 30 * time.Second},
	}
}

// Extract sends raw text upstream and returns unvalidated candidates.
// A 429 from the service is propagated as RateLimited and never retried
// here; the quota belongs to the upstream account, not to this service.
func (c *Client) Extract(ctx context.Context, text string) ([]RawCandidate, error) {
	if strings.TrimSpace(text) == "" {
		return nil, utils.NewValidationError("text", "must not be empty")
	}

	payload, err := json.Marshal(ExtractRequest{Text: text})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/extract", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set(c.apiKeyHdr, c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, utils.ErrorRateLimited
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("extraction api error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed ExtractResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, err
	}

	// Upstream ids are convenience only; make sure every candidate has one.
	for i := range parsed.Entries {
		if strings.TrimSpace(parsed.Entries[i].Id) == "" {
			parsed.Entries[i].Id = uuid.NewString()
		}
	}
	return parsed.Entries, nil
}
