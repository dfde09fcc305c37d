// Package directory looks users up in the user service. The chat core only
// needs existence checks for the target participant of a new conversation.
package directory

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
)

type Directory interface {
	Exists(ctx context.Context, userID string) (bool, error)
}

// HTTPDirectory queries the user service. Transient failures (network, 5xx)
// are retried with exponential backoff; 404 means the user does not exist and
// is not retried.
type HTTPDirectory struct {
	baseURL    string
	http       *http.Client
	maxElapsed time.Duration
}

func NewHTTPDirectory(baseURL string, timeout time.Duration) *HTTPDirectory {
	return &HTTPDirectory{
		baseURL:    baseURL,
		http:       &http.Client{Timeout: timeout},
		maxElapsed: 3 * timeout,
	}
}

func (d *HTTPDirectory) Exists(ctx context.Context, userID string) (bool, error) {
	url := fmt.Sprintf("%s/api/users/%s", d.baseURL, userID)

	var exists bool
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := d.http.Do(req)
		if err != nil {
			return err
		}
		defer func() {
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
		}()
		switch {
		case resp.StatusCode == http.StatusOK:
			exists = true
			return nil
		case resp.StatusCode == http.StatusNotFound:
			exists = false
			return nil
		case resp.StatusCode >= 500:
			return fmt.Errorf("user service returned %d", resp.StatusCode)
		default:
			return backoff.Permanent(fmt.Errorf("user service returned %d", resp.StatusCode))
		}
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = d.maxElapsed
	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return false, err
	}
	return exists, nil
}

// StaticDirectory is a fixed user set for tests and standalone development.
type StaticDirectory struct {
	mu    sync.RWMutex
	users map[string]struct{}
}

func NewStaticDirectory(userIDs ...string) *StaticDirectory {
	d := &StaticDirectory{users: make(map[string]struct{})}
	for _, id := range userIDs {
		d.users[id] = struct{}{}
	}
	return d
}

func (d *StaticDirectory) Add(userID string) {
	d.mu.Lock()
	d.users[userID] = struct{}{}
	d.mu.Unlock()
}

func (d *StaticDirectory) Exists(ctx context.Context, userID string) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.users[userID]
	return ok, nil
}
