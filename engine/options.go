package engine

// Option configures Execute.
type Option func(*options)

type options struct {
	DefaultMeasure string
	MoneyMeasures  map[string]bool // measures rendered as USD
}

// WithDefaultMeasure sets the measure used when QuerySpec.Measure is empty.
func WithDefaultMeasure(measure string) Option {
	return func(c *options) {
		c.DefaultMeasure = measure
	}
}

// WithMoneyMeasures marks measures whose values are formatted as currency.
func WithMoneyMeasures(keys ...string) Option {
	return func(c *options) {
		c.MoneyMeasures = make(map[string]bool, len(keys))
		for _, k := range keys {
			c.MoneyMeasures[k] = true
		}
	}
}

func applyOptions(opts []Option) *options {
	cfg := &options{
		DefaultMeasure: "amount",
		MoneyMeasures:  map[string]bool{"amount": true},
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// formatMeasure renders v as USD for money measures and as a plain number otherwise.
func (c *options) formatMeasure(measure string, v float64) string {
	if c.MoneyMeasures[measure] {
		return FormatUSDFloat(v)
	}
	return FormatNumber(v)
}
