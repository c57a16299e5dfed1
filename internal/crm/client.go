package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	// ErrAuth covers 401 and 403 responses from the remote API.
	ErrAuth = errors.New("authentication or permission denied")
	// ErrNotFound covers 404 responses.
	ErrNotFound = errors.New("resource not found")
	// ErrRemote covers every other non-2xx response.
	ErrRemote = errors.New("remote api error")
	// ErrValidation covers client-side rejections made before any request.
	ErrValidation = errors.New("validation failed")
)

type Options struct {
	BaseURL    string
	APIKey     string
	APIVersion string
	LocationID string
	CompanyID  string
	Timeout    time.Duration
	PageLimit  int
	MaxPages   int
	// ForgiveWriteForbidden treats a 403 on contact writes as applied.
	// The upstream is known to return 403 on some writes that succeed;
	// this stays off unless explicitly configured.
	ForgiveWriteForbidden bool
}

// Client talks to the remote CRM. Each call is at-most-once; there are
// no retries and every method takes a context.
type Client struct {
	baseURL    string
	apiKey     string
	apiVersion string
	locationID string
	companyID  string
	pageLimit  int
	maxPages   int
	forgive403 bool
	httpClient *http.Client
	log        *slog.Logger
}

func NewClient(opts Options, log *slog.Logger) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.PageLimit <= 0 {
		opts.PageLimit = 100
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = 20
	}
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		apiKey:     opts.APIKey,
		apiVersion: opts.APIVersion,
		locationID: opts.LocationID,
		companyID:  opts.CompanyID,
		pageLimit:  opts.PageLimit,
		maxPages:   opts.MaxPages,
		forgive403: opts.ForgiveWriteForbidden,
		httpClient: &http.Client{Timeout: opts.Timeout},
		log:        log,
	}
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload interface{}) ([]byte, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("crm marshal payload: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("crm create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Version", c.apiVersion)
	if c.companyID != "" {
		req.Header.Set("Company-Id", c.companyID)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("crm request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("crm read response: %w", err)
	}

	if err := classifyStatus(resp.StatusCode, raw); err != nil {
		return raw, err
	}
	return raw, nil
}

func classifyStatus(status int, body []byte) error {
	switch {
	case status >= http.StatusOK && status < http.StatusMultipleChoices:
		return nil
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: status=%d", ErrAuth, status)
	case status == http.StatusNotFound:
		return ErrNotFound
	default:
		text := strings.TrimSpace(string(body))
		if len(text) > 512 {
			text = text[:512]
		}
		return fmt.Errorf("%w: status=%d body=%s", ErrRemote, status, text)
	}
}

// IsForbidden reports whether err carries an HTTP 403, as opposed to a 401.
func IsForbidden(err error) bool {
	return errors.Is(err, ErrAuth) && strings.Contains(err.Error(), "status=403")
}

func (c *Client) locationQuery() url.Values {
	q := url.Values{}
	if c.locationID != "" {
		q.Set("locationId", c.locationID)
	}
	return q
}
