package reconcile

import (
	"log/slog"

	"github.com/phobologic/layoutsync/internal/idgen"
	"github.com/phobologic/layoutsync/internal/model"
)

type options struct {
	idAttr         model.QName
	keys           idgen.Generator
	logger         *slog.Logger
	checkIntegrity bool
}

// Option configures reconciliation.
type Option func(*options)

// WithIDAttr sets the attribute holding a tag's declared id.
// Defaults to android:id.
func WithIDAttr(attr model.QName) Option {
	return func(o *options) { o.idAttr = attr }
}

// WithKeys sets the generator used for keys of newly created components.
// Defaults to UUIDv7.
func WithKeys(gen idgen.Generator) Option {
	return func(o *options) { o.keys = gen }
}

// WithLogger sets the logger for per-pass debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithIntegrityChecks turns on structural assertions after every build.
// A violation panics.
func WithIntegrityChecks(enabled bool) Option {
	return func(o *options) { o.checkIntegrity = enabled }
}

func newOptions(opts []Option) options {
	o := options{
		idAttr: model.AndroidID,
		keys:   idgen.UUIDv7(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
