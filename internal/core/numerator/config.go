// Package numerator provides document auto-numbering.
package numerator

// Strategy defines the counter allocation strategy of a database-backed counter.
type Strategy int

const (
	// StrategyStrict uses UPSERT ... RETURNING for every number.
	// Numbers are sequential without gaps.
	StrategyStrict Strategy = iota

	// StrategyCached allocates ranges of numbers in memory.
	// Much faster, but may produce gaps if the process restarts.
	StrategyCached
)

// ParseStrategy maps a configuration value to a Strategy. Unknown values mean strict.
func ParseStrategy(s string) Strategy {
	if s == "cached" {
		return StrategyCached
	}
	return StrategyStrict
}

// Options configures a database-backed counter.
type Options struct {
	Strategy Strategy
	// RangeSize is the number of values reserved at once by StrategyCached.
	// Default is 50.
	RangeSize int64
}

// DefaultOptions returns standard options (Strict).
func DefaultOptions() Options {
	return Options{Strategy: StrategyStrict, RangeSize: 50}
}

// Config holds the numbering format of one document type.
type Config struct {
	// Prefix starts every number (e.g. "PO", "GRN")
	Prefix string

	// IncludeYear adds the year to the number and resets the sequence yearly
	IncludeYear bool

	// PadWidth is the minimum width of the sequence part (default 5)
	PadWidth int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig(prefix string) Config {
	return Config{
		Prefix:      prefix,
		IncludeYear: true,
		PadWidth:    5,
	}
}
