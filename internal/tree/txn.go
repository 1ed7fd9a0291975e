package tree

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrAborted may be returned by a transaction function to leave the value untouched.
	ErrAborted = errors.New("transaction aborted")
	// ErrContention is returned when a transaction keeps losing the race.
	ErrContention = errors.New("transaction contention")
)

const maxTransactionAttempts = 25

// Transaction applies fn to the value at path atomically. fn receives a copy of
// the current value and returns the replacement; it is called again whenever a
// concurrent writer changed the value in between. Errors from fn end the
// transaction and are returned unchanged.
func Transaction(ctx context.Context, s Store, path string, fn func(current any) (any, error)) (any, error) {
	for attempt := 0; attempt < maxTransactionAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		current, err := s.Get(ctx, path)
		if err != nil {
			return nil, err
		}
		next, err := fn(Clone(current))
		if err != nil {
			return nil, err
		}
		ok, err := s.CompareAndSwap(ctx, path, current, next)
		if err != nil {
			return nil, err
		}
		if ok {
			return next, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrContention, path)
}
