package arxiv

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/juju/clock"
	"github.com/juju/retry"

	"paperscribe/internal/domain"
	"paperscribe/internal/ports"
)

const (
	defaultBaseURL = "https://export.arxiv.org/api/query"

	// The arXiv API asks for no more than one request every three seconds.
	minRequestInterval = 3 * time.Second

	maxAttempts     = 3
	retryBaseDelay  = 2 * time.Second
	queryDateLayout = "20060102150405"
)

// Client fetches papers from the arXiv API. All requests from one client
// share a single minimum-interval rate gate, regardless of which category
// or caller issued them.
type Client struct {
	baseURL    string
	http       *http.Client
	clock      clock.Clock
	gate       *rateGate
	parser     *Parser
	logger     *slog.Logger
	retryDelay time.Duration
}

var _ ports.PaperSource = (*Client)(nil)

// NewClient wires an HTTP client and clock; nil arguments get defaults.
func NewClient(httpClient *http.Client, clk clock.Clock, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if clk == nil {
		clk = clock.WallClock
	}
	return &Client{
		baseURL:    defaultBaseURL,
		http:       httpClient,
		clock:      clk,
		gate:       &rateGate{clock: clk, interval: minRequestInterval},
		parser:     NewParser(logger),
		logger:     logger,
		retryDelay: retryBaseDelay,
	}
}

// FetchCategories fetches each category in turn, deduplicating by paper ID
// across categories (first occurrence wins). A category that fails is logged
// and skipped so the remaining categories still contribute their results.
//
// The submittedDate range in the query is best-effort only: the upstream
// filter is known to lag, so callers re-filter on each paper's published
// timestamp.
func (c *Client) FetchCategories(ctx context.Context, categories []string, since time.Time, maxPerCategory int) ([]domain.Paper, error) {
	seen := map[string]struct{}{}
	results := make([]domain.Paper, 0)

	for _, category := range categories {
		papers, err := c.fetchCategory(ctx, category, since, maxPerCategory)
		if err != nil {
			if c.logger != nil {
				c.logger.Error("fetch category", "category", category, "error", err)
			}
			continue
		}
		if c.logger != nil {
			c.logger.Debug("fetched category", "category", category, "count", len(papers))
		}
		for _, paper := range papers {
			if _, ok := seen[paper.ID]; ok {
				continue
			}
			seen[paper.ID] = struct{}{}
			results = append(results, paper)
		}
	}

	return results, nil
}

// FetchByQuery runs a free-text search ordered by submission date.
func (c *Client) FetchByQuery(ctx context.Context, query string, maxResults int) ([]domain.Paper, error) {
	params := url.Values{}
	params.Set("search_query", "all:"+query)
	params.Set("start", "0")
	params.Set("max_results", strconv.Itoa(maxResults))
	params.Set("sortBy", "submittedDate")
	params.Set("sortOrder", "descending")

	body, err := c.get(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("query %q: %w", query, err)
	}
	return c.parser.Parse(body), nil
}

// FetchByID looks up a single paper; a missing id yields (nil, nil).
func (c *Client) FetchByID(ctx context.Context, id string) (*domain.Paper, error) {
	params := url.Values{}
	params.Set("id_list", id)
	params.Set("max_results", "1")

	body, err := c.get(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("fetch id %s: %w", id, err)
	}

	papers := c.parser.Parse(body)
	if len(papers) == 0 {
		return nil, nil
	}
	return &papers[0], nil
}

func (c *Client) fetchCategory(ctx context.Context, category string, since time.Time, maxResults int) ([]domain.Paper, error) {
	sinceStr := since.UTC().Format(queryDateLayout)
	nowStr := c.clock.Now().UTC().Format(queryDateLayout)

	params := url.Values{}
	params.Set("search_query", fmt.Sprintf("cat:%s AND submittedDate:[%s TO %s]", category, sinceStr, nowStr))
	params.Set("start", "0")
	params.Set("max_results", strconv.Itoa(maxResults))
	params.Set("sortBy", "submittedDate")
	params.Set("sortOrder", "descending")

	body, err := c.get(ctx, params)
	if err != nil {
		return nil, err
	}
	return c.parser.Parse(body), nil
}

// get performs one rate-gated GET with bounded exponential backoff on
// transient failures. Non-retryable statuses fail immediately.
func (c *Client) get(ctx context.Context, params url.Values) (string, error) {
	var body string

	err := retry.Call(retry.CallArgs{
		Clock:       c.clock,
		Attempts:    maxAttempts,
		Delay:       c.retryDelay,
		BackoffFunc: retry.DoubleDelay,
		Stop:        ctx.Done(),
		IsFatalError: func(err error) bool {
			return !isTransient(err)
		},
		Func: func() error {
			if err := c.gate.wait(ctx); err != nil {
				return err
			}
			b, err := c.doGet(ctx, params)
			if err != nil {
				return err
			}
			body = b
			return nil
		},
	})
	if err != nil {
		return "", fmt.Errorf("arxiv request: %w", retry.LastError(err))
	}

	return body, nil
}

func (c *Client) doGet(ctx context.Context, params url.Values) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "paperscribe/1.0")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))
		return "", &statusError{code: resp.StatusCode}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	return string(raw), nil
}

type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("arxiv returned status %d", e.code)
}

// isTransient classifies throttling, 5xx and network/timeout errors as
// retryable; every other failure is surfaced immediately.
func isTransient(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.code == http.StatusTooManyRequests || se.code >= http.StatusInternalServerError
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var ne net.Error
	return errors.As(err, &ne)
}

// rateGate enforces the shared minimum spacing between request starts.
// Callers serialize through the mutex, so concurrent pipelines can never
// issue requests faster than the configured interval.
type rateGate struct {
	mu       sync.Mutex
	clock    clock.Clock
	interval time.Duration
	last     time.Time
}

func (g *rateGate) wait(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.last.IsZero() {
		if wait := g.interval - g.clock.Now().Sub(g.last); wait > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-g.clock.After(wait):
			}
		}
	}

	g.last = g.clock.Now()
	return nil
}
