package imagefile

import (
	"log/slog"

	"github.com/jpfielding/imagefile.go/pkg/imagefile/engine"
	"github.com/jpfielding/imagefile.go/pkg/imagefile/format"
	"github.com/jpfielding/imagefile.go/pkg/pixel"
)

type options struct {
	registry *format.Registry
	engine   engine.Engine
	logger   *slog.Logger
}

// Option configures Open and NewImage.
type Option func(*options)

// WithRegistry replaces the process-wide registry.
func WithRegistry(r *format.Registry) Option {
	return func(o *options) { o.registry = r }
}

// WithEngine replaces the reference pixel engine. The default engine logs
// through the session logger.
func WithEngine(e engine.Engine) Option {
	return func(o *options) { o.engine = e }
}

// WithLogger sets the logger for dispatch, load and save events.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

func newOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.registry == nil {
		o.registry = Registry()
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.engine == nil {
		o.engine = pixel.New(pixel.WithLogger(o.logger))
	}
	return o
}
