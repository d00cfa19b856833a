package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/starford/marca/internal/apperr"
	"github.com/starford/marca/internal/models"
)

var errChallenge = errors.New("captcha challenge")

// searchWithRetry repeats attempt while the registry answers with a CAPTCHA
// page, at most CaptchaAttempts times with CaptchaDelay between attempts.
// Any other failure ends the loop immediately.
func (c *Client) searchWithRetry(ctx context.Context, q models.SearchQuery) (*Page, error) {
	var (
		page     *Page
		attempts int
	)

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(c.cfg.CaptchaDelay), uint64(c.cfg.CaptchaAttempts-1)),
		ctx,
	)

	err := backoff.RetryNotify(func() error {
		attempts++
		p, err := c.attempt(ctx, q)
		if err != nil {
			return backoff.Permanent(err)
		}
		if p.Captcha {
			return errChallenge
		}
		page = p
		return nil
	}, policy, func(_ error, wait time.Duration) {
		c.logger.Warn("registry: captcha challenge, retrying",
			slog.String("marca", q.Name),
			slog.Int("attempt", attempts),
			slog.Duration("wait", wait))
	})

	var appErr *apperr.Error
	switch {
	case err == nil:
		return page, nil
	case errors.As(err, &appErr):
		return nil, err
	case ctx.Err() != nil:
		return nil, apperr.New(apperr.ErrTimeout, opSearch, ctx.Err())
	case errors.Is(err, errChallenge):
		return nil, apperr.New(apperr.ErrCaptcha, opSearch, fmt.Errorf("challenge persisted after %d attempts", attempts))
	default:
		return nil, apperr.New(apperr.ErrUpstream, opSearch, err)
	}
}
