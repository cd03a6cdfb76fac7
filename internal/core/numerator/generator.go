package numerator

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"stockerp/internal/core/apperror"
	"stockerp/pkg/logger"
)

// Counter is the atomic sequence primitive of the persistent store.
// Values returned for one key are strictly increasing.
type Counter interface {
	Next(ctx context.Context, key string) (int64, error)
}

// Result is the outcome of a numbering request.
// UsedFallback is set when the counter was unavailable and the number was
// synthesized locally; such numbers are unique only with high probability.
type Result struct {
	Number       string `json:"number"`
	UsedFallback bool   `json:"usedFallback"`
}

// Service issues document numbers per document type.
type Service struct {
	counter Counter

	mu      sync.RWMutex
	configs map[string]Config

	now    func() time.Time
	random func() int
}

// NewService creates a numbering service over the given counter.
func NewService(counter Counter) *Service {
	return &Service{
		counter: counter,
		configs: make(map[string]Config),
		now:     time.Now,
		random:  func() int { return rand.IntN(1000) },
	}
}

// Register sets the numbering format of a document type.
func (s *Service) Register(docType string, cfg Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.configs[docType] = cfg
}

func (s *Service) config(docType string) Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if cfg, ok := s.configs[docType]; ok {
		return cfg
	}
	return DefaultConfig(docType)
}

// NextDocNumber returns the next number for docType.
// Pattern: PREFIX-YEAR-XXXXX (e.g. PO-2026-00001).
//
// When the counter is unavailable (apperror.CodeDependencyUnavailable) the number
// falls back to PREFIX-unixMillis-NNN and Result.UsedFallback is set.
// Cancellation, deadlines and every other counter error are returned.
func (s *Service) NextDocNumber(ctx context.Context, docType string) (Result, error) {
	cfg := s.config(docType)
	period := s.now().UTC()

	num, err := s.counter.Next(ctx, sequenceKey(cfg, period))
	if err == nil {
		return Result{Number: formatNumber(cfg, period, num)}, nil
	}

	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return Result{}, err
	}
	if !apperror.Is(err, apperror.CodeDependencyUnavailable) {
		return Result{}, fmt.Errorf("next %s number: %w", docType, err)
	}

	number := fmt.Sprintf("%s-%d-%03d", cfg.Prefix, period.UnixMilli(), s.random()%1000)
	logger.Warn(ctx, "document counter unavailable, using fallback number",
		"doc_type", docType,
		"number", number,
		"error", err,
	)
	return Result{Number: number, UsedFallback: true}, nil
}

// sequenceKey builds the counter key; sequences reset yearly when the year is part of the number.
func sequenceKey(cfg Config, period time.Time) string {
	if cfg.IncludeYear {
		return fmt.Sprintf("%s_%s", cfg.Prefix, period.Format("2006"))
	}
	return cfg.Prefix
}

func formatNumber(cfg Config, period time.Time, num int64) string {
	padWidth := cfg.PadWidth
	if padWidth == 0 {
		padWidth = 5
	}

	if cfg.IncludeYear {
		return fmt.Sprintf("%s-%s-%0*d", cfg.Prefix, period.Format("2006"), padWidth, num)
	}
	return fmt.Sprintf("%s-%0*d", cfg.Prefix, padWidth, num)
}

// MemoryCounter is an in-process Counter used with the in-memory store.
type MemoryCounter struct {
	mu     sync.Mutex
	values map[string]int64
}

// NewMemoryCounter creates an empty in-process counter.
func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{values: make(map[string]int64)}
}

// Next implements Counter.
func (c *MemoryCounter) Next(_ context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key]++
	return c.values[key], nil
}
