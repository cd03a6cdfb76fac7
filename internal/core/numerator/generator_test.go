package numerator

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"stockerp/internal/core/apperror"
)

type mockCounter struct {
	mock.Mock
}

func (m *mockCounter) Next(ctx context.Context, key string) (int64, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(int64), args.Error(1)
}

func fixedService(counter Counter) *Service {
	svc := NewService(counter)
	svc.now = func() time.Time { return time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC) }
	svc.random = func() int { return 7 }
	return svc
}

func TestNextDocNumber_Primary(t *testing.T) {
	counter := new(mockCounter)
	counter.On("Next", mock.Anything, "PO_2026").Return(int64(42), nil).Once()

	svc := fixedService(counter)
	svc.Register("purchase_order", DefaultConfig("PO"))

	res, err := svc.NextDocNumber(context.Background(), "purchase_order")
	require.NoError(t, err)
	assert.Equal(t, "PO-2026-00042", res.Number)
	assert.False(t, res.UsedFallback)
	counter.AssertExpectations(t)
}

func TestNextDocNumber_WithoutYear(t *testing.T) {
	counter := new(mockCounter)
	counter.On("Next", mock.Anything, "CC").Return(int64(3), nil).Once()

	svc := fixedService(counter)
	svc.Register("cycle_count", Config{Prefix: "CC", PadWidth: 4})

	res, err := svc.NextDocNumber(context.Background(), "cycle_count")
	require.NoError(t, err)
	assert.Equal(t, "CC-0003", res.Number)
}

func TestNextDocNumber_FallbackIsObservable(t *testing.T) {
	counter := new(mockCounter)
	counter.On("Next", mock.Anything, mock.Anything).Return(int64(0), apperror.NewDependencyUnavailable("postgres", errors.New("connection refused")))

	svc := fixedService(counter)
	svc.Register("goods_receipt", DefaultConfig("GRN"))

	res, err := svc.NextDocNumber(context.Background(), "goods_receipt")
	require.NoError(t, err)
	assert.True(t, res.UsedFallback)

	millis := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC).UnixMilli()
	assert.Equal(t, "GRN-"+strconv.FormatInt(millis, 10)+"-007", res.Number)
}

func TestNextDocNumber_FallbackFormat(t *testing.T) {
	counter := new(mockCounter)
	counter.On("Next", mock.Anything, mock.Anything).Return(int64(0), apperror.NewDependencyUnavailable("postgres", errors.New("i/o timeout")))

	svc := NewService(counter)
	res, err := svc.NextDocNumber(context.Background(), "SO")
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^SO-\d{13}-\d{3}$`), res.Number)
}

func TestNextDocNumber_CancellationPropagates(t *testing.T) {
	counter := new(mockCounter)
	counter.On("Next", mock.Anything, mock.Anything).Return(int64(0), context.Canceled)

	svc := fixedService(counter)
	_, err := svc.NextDocNumber(context.Background(), "PO")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNextDocNumber_OnlyUnavailableCounterFallsBack(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"deadline", context.DeadlineExceeded},
		{"wrapped deadline", apperror.NewDependencyUnavailable("postgres", context.DeadlineExceeded)},
		{"sql error", errors.New(`relation "sys_sequences" does not exist`)},
		{"conflict", apperror.NewConflict("concurrent update, retry the request")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			counter := new(mockCounter)
			counter.On("Next", mock.Anything, mock.Anything).Return(int64(0), tt.err)

			res, err := fixedService(counter).NextDocNumber(context.Background(), "PO")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.err)
			assert.Empty(t, res.Number)
		})
	}
}

func TestMemoryCounter_IncreasesPerKey(t *testing.T) {
	c := NewMemoryCounter()
	ctx := context.Background()

	a1, _ := c.Next(ctx, "A")
	a2, _ := c.Next(ctx, "A")
	b1, _ := c.Next(ctx, "B")

	assert.Equal(t, int64(1), a1)
	assert.Equal(t, int64(2), a2)
	assert.Equal(t, int64(1), b1)
}
