package refine

import "fmt"

const (
	// DefaultThreshold is the rating a critique must reach for the session to stop early.
	DefaultThreshold = 5

	// DefaultMaxIters is the default round budget.
	DefaultMaxIters = 3
)

// Config holds the per-session refinement settings.
type Config struct {
	// Threshold is the minimum critique rating (1 to 5) that ends the session as satisfied.
	Threshold int `yaml:"threshold" json:"threshold"`

	// MaxIters is the maximum number of rounds. Must be positive.
	MaxIters int `yaml:"max_iters" json:"max_iters"`
}

// DefaultConfig returns a Config with threshold 5 and a budget of 3 rounds.
func DefaultConfig() Config {
	return Config{
		Threshold: DefaultThreshold,
		MaxIters:  DefaultMaxIters,
	}
}

// WithThreshold returns a copy of c with the given threshold.
func (c Config) WithThreshold(threshold int) Config {
	c.Threshold = threshold
	return c
}

// WithMaxIters returns a copy of c with the given round budget.
func (c Config) WithMaxIters(maxIters int) Config {
	c.MaxIters = maxIters
	return c
}

// WithDefaults returns a copy of c where zero fields take their default values.
func (c Config) WithDefaults() Config {
	if c.Threshold == 0 {
		c.Threshold = DefaultThreshold
	}
	if c.MaxIters == 0 {
		c.MaxIters = DefaultMaxIters
	}
	return c
}

// Validate reports whether c is usable. Errors wrap [ErrInvalidConfig].
func (c Config) Validate() error {
	if c.Threshold < MinRating || c.Threshold > MaxRating {
		return fmt.Errorf("%w: threshold %d is outside %d..%d",
			ErrInvalidConfig, c.Threshold, MinRating, MaxRating)
	}
	if c.MaxIters < 1 {
		return fmt.Errorf("%w: max_iters must be positive, got %d", ErrInvalidConfig, c.MaxIters)
	}
	return nil
}
