package retry

import "time"

// Defaults reproduce a 20^attempt second schedule with up to one second of jitter.
const (
	DefaultMaxAttempts = 3
	DefaultBase        = 20.0
	DefaultUnit        = time.Second
	DefaultMaxJitter   = time.Second
)

// Config parameterizes the retry schedule. After failed attempt k (0-based)
// the controller waits Base^k * Unit plus a jitter in [0, MaxJitter).
type Config struct {
	MaxAttempts int           `json:"max_attempts" mapstructure:"max_attempts" validate:"gte=1"`
	Base        float64       `json:"base" mapstructure:"base" validate:"gte=1"`
	Unit        time.Duration `json:"unit" mapstructure:"unit" validate:"gte=0"`
	MaxJitter   time.Duration `json:"max_jitter" mapstructure:"max_jitter" validate:"gte=0"`

	// MaxDelay caps a single backoff before jitter; zero means uncapped.
	MaxDelay time.Duration `json:"max_delay" mapstructure:"max_delay" validate:"gte=0"`
}

// DefaultConfig returns the default retry schedule.
func DefaultConfig() Config {
	return Config{
		MaxAttempts: DefaultMaxAttempts,
		Base:        DefaultBase,
		Unit:        DefaultUnit,
		MaxJitter:   DefaultMaxJitter,
	}
}
