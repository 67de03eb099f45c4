package generator

import "time"

// Config drives the synthetic account dataset generator.
type Config struct {
	NumAccounts     int
	DormantFraction float64
	MissingFraction float64
	AsOf            time.Time
	Seed            int64
}

// DefaultConfig returns baseline settings that produce a realistic mixed
// batch: mostly active accounts, a dormant tail, and a sprinkle of missing
// dates.
func DefaultConfig() Config {
	return Config{
		NumAccounts:     500,
		DormantFraction: 0.3,
		MissingFraction: 0.1,
		Seed:            42,
	}
}
