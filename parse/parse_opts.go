package parse

type Option func(*options)

type options struct {
	sourceFile  string
	nextOrdinal func() int
}

// WithSourceFile stamps every parsed node with the originating file.
func WithSourceFile(name string) Option {
	return func(o *options) {
		o.sourceFile = name
	}
}

// WithOrdinals supplies the ordinal counter. Builds that parse several
// files share one counter so reading order stays globally consistent
// across inclusion boundaries.
func WithOrdinals(next func() int) Option {
	return func(o *options) {
		o.nextOrdinal = next
	}
}

func makeOptions(opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.nextOrdinal == nil {
		n := 0
		o.nextOrdinal = func() int {
			n++
			return n - 1
		}
	}
	return o
}
