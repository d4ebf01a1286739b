package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"todo-svc/internal/todo"
)

// RemoteCollector copies tasks from another todo-svc collection service.
type RemoteCollector struct {
	Base     string
	Category string
	Client   *http.Client
	MaxRetry int
}

func NewRemoteCollector(base string) *RemoteCollector {
	return &RemoteCollector{
		Base:     strings.TrimRight(base, "/"),
		Client:   &http.Client{Timeout: 10 * time.Second},
		MaxRetry: 3,
	}
}

func (c *RemoteCollector) Collect(ctx context.Context, sink Sink) (int, error) {
	endpoint := c.Base + "/api/todos"
	if cat := todo.NormalizeCategory(c.Category); cat != "" {
		endpoint += "?" + url.Values{"category": {cat}}.Encode()
	}
	body, err := c.doGETWithRetry(ctx, endpoint)
	if err != nil {
		return 0, fmt.Errorf("fetching %s: %w", endpoint, err)
	}
	var tasks []todo.Task
	if err := json.Unmarshal(body, &tasks); err != nil {
		return 0, fmt.Errorf("decoding %s: %w", endpoint, err)
	}
	return importTasks(ctx, sink, tasks)
}

// doGETWithRetry retries transport errors, 429 and 5xx with a linear backoff.
func (c *RemoteCollector) doGETWithRetry(ctx context.Context, urlStr string) ([]byte, error) {
	maxRetry := c.MaxRetry
	if maxRetry < 1 {
		maxRetry = 1
	}
	var lastErr error
	for i := 0; i < maxRetry; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(200*i) * time.Millisecond):
			}
		}
		b, retry, err := c.get(ctx, urlStr)
		if err == nil {
			return b, nil
		}
		lastErr = err
		if !retry {
			break
		}
	}
	if lastErr == nil {
		lastErr = errors.New("unknown error")
	}
	return nil, lastErr
}

func (c *RemoteCollector) get(ctx context.Context, urlStr string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, ctx.Err() == nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, true, fmt.Errorf("http %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("http %d", resp.StatusCode)
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, err
	}
	return b, false, nil
}
