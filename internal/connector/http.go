package connector

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"crosspost/internal/domain"
)

const maxErrorBody = 512

// Client performs JSON requests against a platform API and classifies every
// failure into a *domain.PublishError.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	userAgent  string
	now        func() time.Time
}

type ClientConfig struct {
	Timeout       time.Duration
	RatePerSecond float64
	Burst         int
	UserAgent     string
}

func NewClient(cfg ClientConfig) *Client {
	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = "Crosspost/1.0"
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(limit, burst),
		userAgent:  ua,
		now:        time.Now,
	}
}

// Do sends body as JSON and decodes a successful response into out.
func (c *Client) Do(ctx context.Context, method, url string, headers http.Header, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return classifyTransportError(ctx, err)
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return domain.ContentRejected(fmt.Sprintf("encode payload: %v", err))
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return domain.ContentRejected(fmt.Sprintf("create request: %v", err))
	}
	for k, vs := range headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return classifyTransportError(ctx, err)
	}
	defer resp.Body.Close()

	if perr := ClassifyResponse(resp, c.now()); perr != nil {
		return perr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return domain.Transient(fmt.Sprintf("decode response: %v", err))
	}
	return nil
}

// ClassifyResponse maps a non-2xx response onto the publish error taxonomy.
// It returns nil for successful responses.
func ClassifyResponse(resp *http.Response, now time.Time) *domain.PublishError {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	detail := fmt.Sprintf("status %d", resp.StatusCode)
	if msg := readErrorBody(resp.Body); msg != "" {
		detail += ": " + msg
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return domain.AuthRejected(detail)
	case http.StatusTooManyRequests:
		return domain.RateLimited(ParseRetryAfter(resp.Header.Get("Retry-After"), now), detail)
	case http.StatusBadRequest, http.StatusNotFound, http.StatusConflict,
		http.StatusRequestEntityTooLarge, http.StatusUnprocessableEntity:
		return domain.ContentRejected(detail)
	case http.StatusRequestTimeout:
		return domain.Transient(detail)
	}
	if resp.StatusCode >= 500 {
		return domain.Transient(detail)
	}
	return domain.ContentRejected(detail)
}

// ParseRetryAfter understands both delta-seconds and HTTP-date forms.
func ParseRetryAfter(v string, now time.Time) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := t.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}

func classifyTransportError(ctx context.Context, err error) *domain.PublishError {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return domain.Transient("timeout")
	}
	if errors.Is(err, context.Canceled) {
		return domain.Transient("cancelled")
	}
	return domain.Transient(fmt.Sprintf("request failed: %v", err))
}

func readErrorBody(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
