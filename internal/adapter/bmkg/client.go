package bmkg

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/eruvierda/weather-map-leaflet/internal/domain"
)

// MaxBodySize is the largest response body accepted.
const MaxBodySize = 10 << 20

var (
	// ErrFetch wraps transport-level failures: DNS, connection, timeout, or a body read error.
	ErrFetch = errors.New("fetch failed")
	// ErrBodyTooLarge is returned, wrapped in ErrFetch, when a body exceeds MaxBodySize.
	ErrBodyTooLarge = errors.New("body too large")
)

// Client retrieves BMKG maritime pages, port endpoints and Open-Meteo forecasts over HTTP.
type Client struct {
	httpClient *http.Client
	userAgent  string
	logger     *slog.Logger
}

// NewClient creates a BMKG client with the given request timeout and User-Agent.
func NewClient(timeout time.Duration, userAgent string, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		userAgent: userAgent,
		logger:    logger,
	}
}

// Fetch issues a GET for url and returns the response as a Page.
// Non-200 responses are not errors: the page carries the status for the caller to record.
func (c *Client) Fetch(ctx context.Context, url string) (domain.Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return domain.Page{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/json;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "id-ID,id;q=0.9,en;q=0.8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Page{}, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodySize+1))
	if err != nil {
		return domain.Page{}, fmt.Errorf("%w: read body: %w", ErrFetch, err)
	}
	if len(body) > MaxBodySize {
		return domain.Page{}, fmt.Errorf("%w: %w: exceeds %d bytes", ErrFetch, ErrBodyTooLarge, MaxBodySize)
	}

	c.logger.Debug("page fetched",
		"url", url,
		"status", resp.StatusCode,
		"content_type", resp.Header.Get("Content-Type"),
		"bytes", len(body),
	)

	return domain.Page{
		URL:         url,
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
		FetchedAt:   domain.Now(),
	}, nil
}
