package fetcher

import (
	"context"
	"errors"
	"time"

	"github.com/jonesrussell/exposure-watch/internal/logger"
	"github.com/jonesrussell/exposure-watch/internal/retry"
)

// Retrying retries transient fetch failures within a single call.
type Retrying struct {
	next   Fetcher
	config retry.Config
	log    logger.Logger
}

// NewRetrying wraps next. cfg.IsRetryable is replaced by IsTransient.
func NewRetrying(next Fetcher, cfg retry.Config, log logger.Logger) *Retrying {
	if log == nil {
		log = logger.NewNop()
	}
	cfg.IsRetryable = IsTransient
	return &Retrying{next: next, config: cfg, log: log}
}

// Fetch calls the wrapped Fetcher until it succeeds or fails permanently.
// The returned error wraps the last *FetchError.
func (r *Retrying) Fetch(ctx context.Context, url string, v Validators) (*Response, error) {
	cfg := r.config
	cfg.OnRetry = func(attempt int, delay time.Duration, err error) {
		r.log.Debug("Retrying fetch",
			logger.String("url", url),
			logger.Int("attempt", attempt),
			logger.Duration("delay", delay),
			logger.Error(err),
		)
	}

	var resp *Response
	err := retry.Retry(ctx, cfg, func(ctx context.Context) error {
		var fetchErr error
		resp, fetchErr = r.next.Fetch(ctx, url, v)
		return fetchErr
	})
	if err != nil {
		return nil, err
	}

	return resp, nil
}

// IsTransient reports whether err is a FetchError worth retrying.
func IsTransient(err error) bool {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Transient()
	}
	return false
}
