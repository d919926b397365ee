package netcheck

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"phishguard/internal/domain/models"
	"phishguard/pkg/logger"
)

var redirectStatuses = map[int]bool{
	http.StatusMovedPermanently:  true,
	http.StatusFound:             true,
	http.StatusSeeOther:          true,
	http.StatusTemporaryRedirect: true,
	http.StatusPermanentRedirect: true,
}

// RedirectClient walks redirect chains with HEAD requests, never fetching
// response bodies.
type RedirectClient struct {
	client  *http.Client
	maxHops int
	logger  *logger.Logger
}

// NewRedirectClient creates a redirect chain walker. timeout applies per
// hop.
func NewRedirectClient(timeout time.Duration, maxHops int, log *logger.Logger) *RedirectClient {
	if maxHops <= 0 {
		maxHops = 10
	}
	return &RedirectClient{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		maxHops: maxHops,
		logger:  log.WithComponent("redirect-client"),
	}
}

// Follow returns the chain of redirects starting at rawURL, bounded by the
// configured hop limit.
func (c *RedirectClient) Follow(ctx context.Context, rawURL string) ([]models.Redirection, error) {
	var hops []models.Redirection
	current := rawURL

	for i := 0; i < c.maxHops; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodHead, current, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to build request for %s: %w", current, err)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			// Hops collected so far are still meaningful on a mid-chain
			// failure, but a dead first hop is a failed check.
			if len(hops) > 0 {
				return hops, nil
			}
			return nil, fmt.Errorf("failed to reach %s: %w", current, err)
		}
		resp.Body.Close()

		if !redirectStatuses[resp.StatusCode] {
			break
		}

		location, err := resp.Location()
		if err != nil {
			break
		}

		next := location.String()
		hops = append(hops, models.Redirection{
			From:   current,
			To:     next,
			Status: resp.StatusCode,
		})
		current = next
	}

	return hops, nil
}
