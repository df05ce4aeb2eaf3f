package backoff

import (
	"math"
	"math/rand/v2"
	"time"
)

// Strategy calculates the delay before a retry.
// Implementations should be safe for concurrent use.
type Strategy interface {
	// NextInterval returns the delay before retry number attempt (1-based).
	NextInterval(attempt int) time.Duration
}

// Exponential implements exponential backoff with jitter.
type Exponential struct {
	InitialInterval time.Duration `env:"INITIAL" envDefault:"1s"`
	MaxInterval     time.Duration `env:"MAX" envDefault:"30s"`
	Multiplier      float64       `env:"MULTIPLIER" envDefault:"2"`
	JitterFactor    float64       `env:"JITTER" envDefault:"0.2"`
}

// NextInterval returns min(InitialInterval * Multiplier^(attempt-1) * (1 ± JitterFactor), MaxInterval).
func (e Exponential) NextInterval(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	initial := e.InitialInterval
	if initial <= 0 {
		initial = time.Second
	}

	maxInterval := e.MaxInterval
	if maxInterval <= 0 {
		maxInterval = 30 * time.Second
	}

	multiplier := e.Multiplier
	if multiplier < 1 {
		multiplier = 2
	}

	interval := float64(initial) * math.Pow(multiplier, float64(attempt-1))

	// Zero jitter is allowed for deterministic delays.
	if e.JitterFactor > 0 {
		interval *= 1 + (rand.Float64()*2-1)*e.JitterFactor
	}

	if interval > float64(maxInterval) {
		interval = float64(maxInterval)
	}

	return time.Duration(interval)
}

// Constant always waits the same interval.
type Constant time.Duration

func (c Constant) NextInterval(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	return time.Duration(c)
}

// Default returns the reconnect policy used by the push adapter.
func Default() Strategy {
	return Exponential{
		InitialInterval: time.Second,
		MaxInterval:     30 * time.Second,
		Multiplier:      2,
		JitterFactor:    0.2,
	}
}
