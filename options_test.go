package hl7v2

import (
	"testing"

	"github.com/gofhir/hl7v2/pkg/delim"
)

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()

	if opts.Strict {
		t.Error("Strict should be false by default")
	}
	if opts.Silent {
		t.Error("Silent should be false by default")
	}
	if !opts.Recover {
		t.Error("Recover should be true by default")
	}
	if opts.ContinuationMarker != "ADD" {
		t.Errorf("ContinuationMarker = %q; want %q", opts.ContinuationMarker, "ADD")
	}
	if opts.SegmentTerminator != "\r" {
		t.Errorf("SegmentTerminator = %q; want %q", opts.SegmentTerminator, "\r")
	}
	if opts.Delimiters != delim.Default() {
		t.Errorf("Delimiters = %+v; want defaults", opts.Delimiters)
	}
	if opts.DefaultVersion != "2.5" {
		t.Errorf("DefaultVersion = %q; want %q", opts.DefaultVersion, "2.5")
	}
}

func TestOptionSetters(t *testing.T) {
	custom := delim.Delimiters{Field: '#', Component: '$', Repetition: '*', Escape: '@', Subcomponent: '!'}
	opts := NewOptions(
		WithAllowComplex(true),
		WithIgnoreExtra(true),
		WithLaxUnderstanding(true),
		WithSilent(true),
		WithSegmentFilter("MSH", "PID"),
		WithContinuationMarker("CON"),
		WithDelimiters(custom),
		WithSegmentTerminator("\n"),
		WithDefaultVersion("2.3"),
	)

	if !opts.AllowComplex || !opts.IgnoreExtra || !opts.LaxUnderstanding || !opts.Silent {
		t.Errorf("tolerance flags not applied: %+v", opts)
	}
	if len(opts.SegmentFilter) != 2 {
		t.Errorf("SegmentFilter = %v; want 2 names", opts.SegmentFilter)
	}
	if opts.ContinuationMarker != "CON" {
		t.Errorf("ContinuationMarker = %q; want CON", opts.ContinuationMarker)
	}
	if opts.Delimiters != custom {
		t.Errorf("Delimiters = %+v; want %+v", opts.Delimiters, custom)
	}
	if opts.SegmentTerminator != "\n" {
		t.Errorf("SegmentTerminator = %q; want LF", opts.SegmentTerminator)
	}
	if opts.DefaultVersion != "2.3" {
		t.Errorf("DefaultVersion = %q; want 2.3", opts.DefaultVersion)
	}
}

func TestOptionSettersRejectInvalid(t *testing.T) {
	opts := NewOptions(
		WithContinuationMarker("TOOLONG"),
		WithDelimiters(delim.Delimiters{Field: '|', Component: '|'}),
		WithSegmentTerminator(""),
		WithDefaultVersion("9.9"),
	)
	if opts.ContinuationMarker != "ADD" {
		t.Errorf("ContinuationMarker = %q; want ADD", opts.ContinuationMarker)
	}
	if opts.Delimiters != delim.Default() {
		t.Error("invalid delimiters should be ignored")
	}
	if opts.SegmentTerminator != "\r" {
		t.Error("empty terminator should be ignored")
	}
	if opts.DefaultVersion != "2.5" {
		t.Error("unknown version should be ignored")
	}
}

func TestFlatXMLForcesStrictOff(t *testing.T) {
	opts := NewOptions(WithStrict(true), WithFlatXML(true))
	if opts.Strict {
		t.Error("FlatXML must force Strict off")
	}
	if !opts.Lenient() {
		t.Error("Lenient() should be true when Strict is off")
	}
}

func TestPresets(t *testing.T) {
	strict := NewOptions(StrictPreset()...)
	if !strict.Strict || strict.Silent || strict.IgnoreExtra || strict.Recover || !strict.Verbose {
		t.Errorf("StrictPreset produced %+v", strict)
	}

	lax := NewOptions(LaxPreset()...)
	if lax.Strict || !lax.Silent || !lax.IgnoreExtra || !lax.LaxUnderstanding || !lax.Recover {
		t.Errorf("LaxPreset produced %+v", lax)
	}
}

func TestOptionsClone(t *testing.T) {
	opts := NewOptions(WithSegmentFilter("PID"))
	c := opts.Clone()
	c.SegmentFilter[0] = "OBX"
	if opts.SegmentFilter[0] != "PID" {
		t.Error("Clone() must not share the segment filter")
	}
}
