// Package fetch retrieves ARPANSA UV-index resources from the data.gov.au
// CKAN catalogue. Each monitored city has one CKAN package whose resources
// are yearly CSV files named "<City>-<YYYY>.csv".
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"sort"
	"time"

	"golang.org/x/time/rate"
)

// DefaultBaseURL is the production CKAN endpoint.
const DefaultBaseURL = "https://data.gov.au/data"

// Resource is one yearly CSV published in a city's CKAN package.
type Resource struct {
	Year int
	URL  string
	Name string
}

// Client lists and downloads CKAN resources. A shared rate limiter spaces out
// requests so per-city fan-out cannot hammer the catalogue, and transient
// failures (429/5xx, network errors) are retried with capped exponential
// backoff.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter

	retryMax   int
	retryBase  time.Duration
	retryCap   time.Duration
}

// Options configures a Client. Zero values fall back to defaults.
type Options struct {
	BaseURL     string
	Timeout     time.Duration
	RPS         float64
	Burst       int
	RetryMax    int
	RetryBase   time.Duration
	RetryMaxCap time.Duration
}

// NewClient builds a Client from options.
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.RPS <= 0 {
		opts.RPS = 4
	}
	if opts.Burst <= 0 {
		opts.Burst = 2
	}
	if opts.RetryMax <= 0 {
		opts.RetryMax = 3
	}
	if opts.RetryBase <= 0 {
		opts.RetryBase = 500 * time.Millisecond
	}
	if opts.RetryMaxCap <= 0 {
		opts.RetryMaxCap = 4 * time.Second
	}
	return &Client{
		baseURL:    opts.BaseURL,
		httpClient: &http.Client{Timeout: opts.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(opts.RPS), opts.Burst),
		retryMax:   opts.RetryMax,
		retryBase:  opts.RetryBase,
		retryCap:   opts.RetryMaxCap,
	}
}

type packageShowResponse struct {
	Success bool `json:"success"`
	Result  struct {
		Resources []struct {
			Name string `json:"name"`
			URL  string `json:"url"`
		} `json:"resources"`
	} `json:"result"`
}

// ListYearResources queries a CKAN package and returns the resources whose
// names match "<fileLabel>-<YYYY>.csv" for a year in the requested set,
// sorted by year. An existing package with no matching years returns an empty
// slice, not an error.
func (c *Client) ListYearResources(ctx context.Context, packageID, fileLabel string, years []int) ([]Resource, error) {
	body, err := c.get(ctx, c.baseURL+"/api/3/action/package_show?id="+packageID)
	if err != nil {
		return nil, fmt.Errorf("list package %s: %w", packageID, err)
	}
	var parsed packageShowResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode package %s: %w", packageID, err)
	}

	wanted := make(map[int]bool, len(years))
	for _, y := range years {
		wanted[y] = true
	}
	nameRe := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(fileLabel) + `-(\d{4})\.csv$`)

	var out []Resource
	for _, res := range parsed.Result.Resources {
		m := nameRe.FindStringSubmatch(res.Name)
		if m == nil {
			continue
		}
		year := atoi4(m[1])
		if !wanted[year] {
			continue
		}
		out = append(out, Resource{Year: year, URL: res.URL, Name: res.Name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out, nil
}

// Download fetches one resource and returns its raw bytes.
func (c *Client) Download(ctx context.Context, url string) ([]byte, error) {
	body, err := c.get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", url, err)
	}
	return body, nil
}

// get performs a rate-limited GET with retries on transient failures.
func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	backoff := c.retryBase
	var lastErr error
	for attempt := 1; attempt <= c.retryMax; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
		body, retryable, err := c.getOnce(ctx, url)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retryable || attempt == c.retryMax {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > c.retryCap {
			backoff = c.retryCap
		}
	}
	return nil, lastErr
}

func (c *Client) getOnce(ctx context.Context, url string) (body []byte, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Network-level failures are worth retrying unless the context died.
		return nil, ctx.Err() == nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, true, fmt.Errorf("unexpected status %s", resp.Status)
	}
	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, false, fmt.Errorf("unexpected status %s: %s", resp.Status, snippet)
	}
	body, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("read body: %w", err)
	}
	return body, false, nil
}

func atoi4(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		n = n*10 + int(s[i]-'0')
	}
	return n
}
