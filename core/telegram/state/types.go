package state

import (
	"context"
	"errors"
)

// ErrNoUser is returned when an update carries no sender to key the state by.
var ErrNoUser = errors.New("state: update without sender")

// Store keeps one state value per user. Get on a user without state returns
// the zero value and no error.
type Store[T any] interface {
	Get(ctx context.Context, userID int64) (T, error)
	Set(ctx context.Context, userID int64, value T) error
	Clear(ctx context.Context, userID int64) error
}
