package summarize

import (
	"context"
	"time"

	"github.com/otherjamesbrown/meetsum/pkg/logging"
)

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// RetryOption configures WithRetry.
type RetryOption func(*retrySummarizer)

// WithSleep replaces the wait between attempts.
func WithSleep(fn SleepFunc) RetryOption {
	return func(r *retrySummarizer) {
		r.sleep = fn
	}
}

// WithRetryLogger sets the logger used to report retries.
func WithRetryLogger(l logging.Logger) RetryOption {
	return func(r *retrySummarizer) {
		r.logger = l
	}
}

type retrySummarizer struct {
	next        Summarizer
	maxAttempts int
	sleep       SleepFunc
	logger      logging.Logger
}

// WithRetry wraps s so that a failed call is retried up to maxAttempts times,
// waiting 2^attempt seconds before each retry. The last error is returned as is.
func WithRetry(s Summarizer, maxAttempts int, opts ...RetryOption) Summarizer {
	if maxAttempts < 0 {
		maxAttempts = 0
	}
	r := &retrySummarizer{
		next:        s,
		maxAttempts: maxAttempts,
		sleep:       sleepContext,
		logger:      logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *retrySummarizer) Summarize(ctx context.Context, text string) (*Result, error) {
	var lastErr error
	for attempt := 0; attempt <= r.maxAttempts; attempt++ {
		result, err := r.next.Summarize(ctx, text)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if attempt < r.maxAttempts {
			delay := time.Duration(1<<attempt) * time.Second
			r.logger.Warn("Retrying summary generation",
				logging.F("delay", delay),
				logging.F("attempt", attempt+1),
				logging.F("max_attempts", r.maxAttempts),
				logging.Err(err))
			if r.sleep(ctx, delay) != nil {
				return nil, lastErr
			}
		}
	}
	return nil, lastErr
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type timeoutSummarizer struct {
	next    Summarizer
	timeout time.Duration
}

// WithTimeout bounds every call to s by d. A timed-out call returns an error
// matching context.DeadlineExceeded and is retried like any other failure.
func WithTimeout(s Summarizer, d time.Duration) Summarizer {
	if d <= 0 {
		return s
	}
	return &timeoutSummarizer{next: s, timeout: d}
}

func (t *timeoutSummarizer) Summarize(ctx context.Context, text string) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.Summarize(ctx, text)
}
