package modelgw

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	golog "github.com/bioagentic/orchestrator/log"
)

// RetryPolicy bounds Call's retry loop. Zero values fall back to the
// package defaults (3 attempts, 500ms..20s jittered exponential backoff);
// a zero AttemptTimeout means an attempt has no deadline of its own.
type RetryPolicy struct {
	MaxAttempts    int
	MinWait        time.Duration
	MaxWait        time.Duration
	AttemptTimeout time.Duration
}

func (p RetryPolicy) orDefaults() RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 3
	}
	if p.MinWait <= 0 {
		p.MinWait = 500 * time.Millisecond
	}
	if p.MaxWait <= 0 {
		p.MaxWait = 20 * time.Second
	}
	return p
}

// attemptResult carries a single attempt's outcome across the worker
// goroutine boundary.
type attemptResult struct {
	resp *Response
	err  error
}

// Call issues req against the provider described by cfg, retrying
// transient failures with jittered exponential backoff. Each attempt runs
// in its own goroutine, bounded by policy.AttemptTimeout when it is set
// (otherwise only by ctx): if an attempt
// does not return before its timeout, Call gives up on it and starts the
// next attempt without waiting for the stranded goroutine to exit. It will
// eventually finish and its result is discarded. This trades a leaked
// goroutine per timed-out attempt for never blocking the caller on a
// provider that hangs indefinitely.
func Call(ctx context.Context, cfg ProviderConfig, req Request, policy RetryPolicy) (*Response, error) {
	policy = policy.orDefaults()
	client, err := NewClient(cfg)
	if err != nil {
		return nil, err
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = policy.MinWait
	bo.MaxInterval = policy.MaxWait
	bo.MaxElapsedTime = 0 // bounded by MaxAttempts via WithMaxRetries, not wall-clock
	bounded := backoff.WithMaxRetries(bo, uint64(policy.MaxAttempts-1))

	var (
		lastErr   error
		finalResp *Response
		attempt   int
	)

	err = backoff.Retry(func() error {
		attempt++
		resultCh := make(chan attemptResult, 1)
		var (
			attemptCtx context.Context
			cancel     context.CancelFunc
		)
		if policy.AttemptTimeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, policy.AttemptTimeout)
		} else {
			attemptCtx, cancel = context.WithCancel(ctx)
		}
		defer cancel()

		go func() {
			resp, cerr := client.Complete(attemptCtx, req)
			resultCh <- attemptResult{resp: resp, err: cerr}
		}()

		select {
		case res := <-resultCh:
			if res.err != nil {
				lastErr = res.err
				return res.err // any Complete error is retryable: network, rate limit, provider 5xx
			}
			finalResp = res.resp
			lastErr = nil
			return nil
		case <-attemptCtx.Done():
			lastErr = fmt.Errorf("modelgw: attempt %d timed out after %s", attempt, policy.AttemptTimeout)
			golog.Warn("model gateway attempt %d on provider %s timed out, abandoning worker", attempt, cfg.Provider)
			return lastErr
		}
	}, bounded)

	if err != nil {
		return nil, fmt.Errorf("modelgw: all attempts failed: %w", lastErr)
	}
	if finalResp == nil {
		return nil, errors.New("modelgw: no response and no error, this is a bug")
	}
	return finalResp, nil
}
