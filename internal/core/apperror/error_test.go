package apperror

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKind(t *testing.T) {
	assert.Equal(t, "", Kind(nil))
	assert.Equal(t, CodeInternal, Kind(errors.New("boom")))
	assert.Equal(t, CodeValidation, Kind(NewValidation("bad")))

	wrapped := fmt.Errorf("apply movement: %w", NewInsufficientStock("i", "w", "5", "2"))
	assert.Equal(t, CodeInsufficientStock, Kind(wrapped))
	assert.Equal(t, http.StatusUnprocessableEntity, GetHTTPStatus(wrapped))
}

func TestDependencyUnavailable_KeepsCause(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := NewDependencyUnavailable("database", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, http.StatusServiceUnavailable, err.HTTPStatus)
	assert.Equal(t, "database", err.Details["dependency"])
}

func TestRetryConflictOnce(t *testing.T) {
	ctx := context.Background()

	t.Run("second attempt succeeds", func(t *testing.T) {
		calls := 0
		err := RetryConflictOnce(ctx, func(context.Context) error {
			calls++
			if calls == 1 {
				return NewConflict("race")
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 2, calls)
	})

	t.Run("retries only once", func(t *testing.T) {
		calls := 0
		err := RetryConflictOnce(ctx, func(context.Context) error {
			calls++
			return NewConflict("race")
		})
		assert.True(t, IsConflict(err))
		assert.Equal(t, 2, calls)
	})

	t.Run("other errors are not retried", func(t *testing.T) {
		calls := 0
		err := RetryConflictOnce(ctx, func(context.Context) error {
			calls++
			return NewValidation("nope")
		})
		assert.Equal(t, CodeValidation, Kind(err))
		assert.Equal(t, 1, calls)
	})
}
