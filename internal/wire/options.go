package wire

// DefaultMaxDepth bounds tree nesting when no explicit limit is given.
// Plans and expressions can nest arbitrarily, so both directions of the
// codec refuse to recurse past the ceiling instead of exhausting the stack.
const DefaultMaxDepth = 256

type config struct {
	maxDepth int
}

// Option configures Encode and Decode.
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
