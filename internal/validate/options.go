package validate

// DefaultMaxDepth bounds tree nesting when no explicit limit is given. It
// matches the wire codec's default so a plan that decodes also validates
// without tuning.
const DefaultMaxDepth = 256

type config struct {
	maxDepth int
}

// Option configures Validate.
type Option func(*config)

// WithMaxDepth overrides the nesting ceiling. Values below 1 are ignored.
func WithMaxDepth(n int) Option {
	return func(c *config) {
		if n >= 1 {
			c.maxDepth = n
		}
	}
}

func newConfig(opts []Option) config {
	c := config{maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}
