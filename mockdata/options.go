package mockdata

import (
	"math/rand/v2"
	"time"
)

// Option configures Generate.
type Option func(*config)

type config struct {
	rng          *rand.Rand
	now          func() time.Time
	invoiceCount int
}

// WithSeed makes generation reproducible for a given seed and clock.
func WithSeed(seed uint64) Option {
	return func(c *config) {
		c.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
}

// WithRand injects the random source directly.
func WithRand(rng *rand.Rand) Option {
	return func(c *config) {
		if rng != nil {
			c.rng = rng
		}
	}
}

// WithClock injects the wall clock used for invoice dates and forecast months.
func WithClock(now func() time.Time) Option {
	return func(c *config) {
		if now != nil {
			c.now = now
		}
	}
}

// WithInvoiceCount overrides the number of generated invoices.
func WithInvoiceCount(n int) Option {
	return func(c *config) {
		if n >= 0 {
			c.invoiceCount = n
		}
	}
}

func applyOptions(opts []Option) *config {
	cfg := &config{
		now:          time.Now,
		invoiceCount: DefaultInvoiceCount,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.rng == nil {
		cfg.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return cfg
}
