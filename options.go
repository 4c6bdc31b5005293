package hl7v2

import (
	"github.com/gofhir/hl7v2/pkg/delim"
)

// Option configures a Parser.
type Option func(*Options)

// Options holds all configuration for parsing and encoding.
type Options struct {
	// Tolerance flags
	AllowComplex     bool
	IgnoreExtra      bool
	LaxUnderstanding bool
	Strict           bool
	Silent           bool
	FlatXML          bool

	// Recover substitutes a catch-all segment when a segment fails to decode.
	// It has no effect in strict mode.
	Recover bool

	// Reader
	SegmentFilter      []string
	ContinuationMarker string

	// Encoding
	Delimiters        delim.Delimiters
	SegmentTerminator string

	// DefaultVersion is used when the header carries no version.
	DefaultVersion string

	// Verbose logs every recovered condition.
	Verbose bool
}

// DefaultOptions returns the default configuration.
func DefaultOptions() *Options {
	return &Options{
		Recover:            true,
		ContinuationMarker: "ADD",
		Delimiters:         delim.Default(),
		SegmentTerminator:  "\r",
		DefaultVersion:     "2.5",
	}
}

// NewOptions builds Options from the defaults and the given options.
func NewOptions(opts ...Option) *Options {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	o.normalize()
	return o
}

// normalize enforces combinations that cannot hold together.
func (o *Options) normalize() {
	// The XML path never reaches full structural strictness.
	if o.FlatXML {
		o.Strict = false
	}
}

// Clone returns a copy of the options.
func (o *Options) Clone() *Options {
	c := *o
	if o.SegmentFilter != nil {
		c.SegmentFilter = append([]string(nil), o.SegmentFilter...)
	}
	return &c
}

// Lenient reports whether unknown tags may fall back to a catch-all segment.
func (o *Options) Lenient() bool {
	return !o.Strict
}

// --- Tolerance Options ---

// WithAllowComplex permits delimiter characters inside primitive values.
func WithAllowComplex(enable bool) Option {
	return func(o *Options) {
		o.AllowComplex = enable
	}
}

// WithIgnoreExtra tolerates trailing content made only of delimiters.
func WithIgnoreExtra(enable bool) Option {
	return func(o *Options) {
		o.IgnoreExtra = enable
	}
}

// WithLaxUnderstanding treats unparseable numeric and date values as absent.
func WithLaxUnderstanding(enable bool) Option {
	return func(o *Options) {
		o.LaxUnderstanding = enable
	}
}

// WithStrict escalates every reportable condition to fatal.
func WithStrict(enable bool) Option {
	return func(o *Options) {
		o.Strict = enable
	}
}

// WithSilent suppresses fatal escalation; offending content is left absent.
func WithSilent(enable bool) Option {
	return func(o *Options) {
		o.Silent = enable
	}
}

// WithFlatXML marks XML input as flat (segments not nested in groups).
// Strict is forced off.
func WithFlatXML(enable bool) Option {
	return func(o *Options) {
		o.FlatXML = enable
	}
}

// WithRecover enables catch-all substitution for segments that fail to decode.
func WithRecover(enable bool) Option {
	return func(o *Options) {
		o.Recover = enable
	}
}

// WithVerbose logs every recovered condition.
func WithVerbose(enable bool) Option {
	return func(o *Options) {
		o.Verbose = enable
	}
}

// --- Reader Options ---

// WithSegmentFilter keeps only the named segments. Header segments are always kept.
func WithSegmentFilter(names ...string) Option {
	return func(o *Options) {
		o.SegmentFilter = append([]string(nil), names...)
	}
}

// WithContinuationMarker sets the 3-character continuation line marker.
func WithContinuationMarker(marker string) Option {
	return func(o *Options) {
		if len(marker) == 3 {
			o.ContinuationMarker = marker
		}
	}
}

// --- Encoding Options ---

// WithDelimiters sets the delimiters used for messages built programmatically.
func WithDelimiters(d delim.Delimiters) Option {
	return func(o *Options) {
		if d.Validate() == nil {
			o.Delimiters = d
		}
	}
}

// WithSegmentTerminator sets the terminator emitted after each encoded segment.
func WithSegmentTerminator(term string) Option {
	return func(o *Options) {
		if term != "" {
			o.SegmentTerminator = term
		}
	}
}

// WithDefaultVersion sets the version used when the header has none.
func WithDefaultVersion(v string) Option {
	return func(o *Options) {
		if Version(v).IsValid() {
			o.DefaultVersion = v
		}
	}
}

// --- Presets ---

// StrictPreset returns options with no tolerance and verbose diagnostics.
func StrictPreset() []Option {
	return []Option{
		WithStrict(true),
		WithSilent(false),
		WithAllowComplex(false),
		WithIgnoreExtra(false),
		WithLaxUnderstanding(false),
		WithRecover(false),
		WithVerbose(true),
	}
}

// LaxPreset returns options with maximum tolerance: catch-all recovery and
// silence on ambiguous content.
func LaxPreset() []Option {
	return []Option{
		WithStrict(false),
		WithSilent(true),
		WithIgnoreExtra(true),
		WithLaxUnderstanding(true),
		WithRecover(true),
	}
}
