// wait.go implements post-launch readiness polling.
//
// A fixed sleep before probing would either waste time on a warm model
// cache or fire too early on a cold one (the first launch downloads the
// model, which can take minutes). Instead, the health endpoint is polled
// with exponential backoff under a hard deadline, and exceeding the
// deadline is a distinct, typed failure.
package probe

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mmr-tortoise/embedctl/internal/model"
)

const (
	// initialPollInterval is the delay before the first retry.
	initialPollInterval = 500 * time.Millisecond

	// maxPollInterval caps the backoff growth so a slow model load is
	// still detected within a few seconds of completing.
	maxPollInterval = 5 * time.Second
)

// WaitReady polls GET /health until the service reports healthy or the
// timeout elapses. The poll interval doubles after each failed attempt,
// starting at initialPollInterval and capped at maxPollInterval.
//
// Returns a CLIError with ExitReadinessTimeout when the deadline is
// exceeded, carrying the last probe error for diagnosis. A cancelled
// context returns its error unchanged.
func (c *Client) WaitReady(ctx context.Context, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	interval := initialPollInterval

	var lastErr error
	for attempt := 1; ; attempt++ {
		report, err := c.Health(ctx)
		if err == nil && report.Status == "healthy" {
			log.Debug().
				Int("attempt", attempt).
				Str("model", report.Model).
				Msg("service reported healthy")
			return nil
		}

		if err != nil {
			lastErr = err
		} else {
			lastErr = fmt.Errorf("service reported status %q", report.Status)
		}
		log.Debug().
			Int("attempt", attempt).
			Dur("next_retry_in", interval).
			Err(lastErr).
			Msg("service not ready yet")

		if time.Now().Add(interval).After(deadline) {
			return model.WrapCLIError(
				model.ExitReadinessTimeout,
				fmt.Sprintf("service did not become healthy within %s", timeout),
				lastErr,
			)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}

		interval *= 2
		if interval > maxPollInterval {
			interval = maxPollInterval
		}
	}
}
