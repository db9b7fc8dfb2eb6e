package formstate

import "log/slog"

// Option configures a Form, FlatForm or List.
type Option func(*options)

type options struct {
	initial              map[string]any
	items                []Item
	logger               *slog.Logger
	noValidationOnChange bool
	keys                 KeyGenerator
}

func buildOptions(opts []Option) options {
	o := options{}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	if o.keys == nil {
		o.keys = UUIDKeys{}
	}
	return o
}

// WithInitialValues seeds a Form or FlatForm. The map is deep-copied and
// missing schema fields are filled with defaults.
func WithInitialValues(values map[string]any) Option {
	return func(o *options) { o.initial = values }
}

// WithItems seeds a List. Items without a key are assigned one.
func WithItems(items ...Item) Option {
	return func(o *options) { o.items = items }
}

// WithLogger routes engine diagnostics to l. A nil logger keeps the default,
// which discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithoutValidationOnChange stores values on change without running rules.
// Errors then only change through the explicit validate calls.
func WithoutValidationOnChange() Option {
	return func(o *options) { o.noValidationOnChange = true }
}

// WithKeyGenerator sets how List assigns item keys. The default is UUIDKeys.
func WithKeyGenerator(k KeyGenerator) Option {
	return func(o *options) {
		if k != nil {
			o.keys = k
		}
	}
}
