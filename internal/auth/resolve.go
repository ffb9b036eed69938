package auth

import (
	"context"
	stderrors "errors"
	"time"
)

// ErrResolveTimeout is returned when session resolution exceeds its budget.
var ErrResolveTimeout = stderrors.New("session resolution timed out")

type resolveResult struct {
	session *Session
	err     error
}

// ResolveWithin runs resolve with a deadline and returns exactly one decision.
// A result arriving after the deadline is dropped; the caller has already moved
// on as unauthenticated.
func ResolveWithin(ctx context.Context, timeout time.Duration, resolve func(context.Context) (*Session, error)) (*Session, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan resolveResult, 1)
	go func() {
		s, err := resolve(ctx)
		done <- resolveResult{session: s, err: err}
	}()

	select {
	case r := <-done:
		return r.session, r.err
	case <-ctx.Done():
		return nil, ErrResolveTimeout
	}
}
