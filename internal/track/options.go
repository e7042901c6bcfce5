package track

import "flatlands/internal/logging"

// Option configures track loading and construction.
type Option func(*options)

type options struct {
	geodetic bool
	scale    float64
	log      *logging.Logger
}

func newOptions(opts []Option) options {
	o := options{scale: 1}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logging.Discard()
	}
	return o
}

// WithGeodetic treats the normalised source coordinates as longitude and
// latitude in degrees and reprojects them to local metres.
func WithGeodetic() Option {
	return func(o *options) { o.geodetic = true }
}

// WithLogger sets the logger used for load and query diagnostics.
func WithLogger(l *logging.Logger) Option {
	return func(o *options) { o.log = l }
}

// withScale records the source scale on tracks built by the loader.
func withScale(s float64) Option {
	return func(o *options) { o.scale = s }
}
