package converter

import (
	"github.com/gofhir/qconvert/pkg/logger"
	"github.com/gofhir/qconvert/pkg/metrics"
	"github.com/gofhir/qconvert/pkg/registry"
)

// Option configures a conversion.
type Option func(*Options)

// Options holds the conversion settings.
type Options struct {
	// ConversionTag appends a meta.tag recording the conversion.
	ConversionTag bool

	// PreserveExtensions keeps fields the target version cannot express as
	// inter-version extensions and recovers them on the way back.
	PreserveExtensions bool

	// Registry resolves chains; the default registry when nil.
	Registry *registry.Registry

	// Logger receives per-step debug output; the default logger when nil.
	Logger *logger.Logger

	// Metrics records per-step and per-conversion counters when set.
	Metrics *metrics.Metrics
}

// DefaultOptions returns the default configuration.
func DefaultOptions() *Options {
	return &Options{
		ConversionTag:      true,
		PreserveExtensions: false,
	}
}

// WithConversionTag enables or disables the conversion history tag.
func WithConversionTag(enable bool) Option {
	return func(o *Options) {
		o.ConversionTag = enable
	}
}

// WithPreserveExtensions enables inter-version extension preservation.
func WithPreserveExtensions(enable bool) Option {
	return func(o *Options) {
		o.PreserveExtensions = enable
	}
}

// WithRegistry resolves chains against r instead of the default registry.
func WithRegistry(r *registry.Registry) Option {
	return func(o *Options) {
		o.Registry = r
	}
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

// WithMetrics records conversion counters into m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Options) {
		o.Metrics = m
	}
}

func buildOptions(opts []Option) *Options {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.Registry == nil {
		o.Registry = registry.Default()
	}
	if o.Logger == nil {
		o.Logger = logger.Default()
	}
	return o
}
