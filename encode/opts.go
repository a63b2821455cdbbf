package encode

type Option func(*encState)

// WithColors turns on colored output.
func WithColors(c *Colors) Option {
	return func(es *encState) {
		es.color = c.Color
	}
}

// WithIndent sets the indent width, default 2.
func WithIndent(n int) Option {
	return func(es *encState) {
		es.indent = n
	}
}
