package hl7v2

import (
	"testing"

	"github.com/gofhir/hl7v2/pkg/delim"
)

func TestVersion_IsValid(t *testing.T) {
	tests := []struct {
		version Version
		want    bool
	}{
		{V21, true},
		{V23, true},
		{V251, true},
		{V28, true},
		{Version("3.0"), false},
		{Version(""), false},
	}

	for _, tt := range tests {
		if got := tt.version.IsValid(); got != tt.want {
			t.Errorf("Version(%q).IsValid() = %v; want %v", tt.version, got, tt.want)
		}
	}
}

func TestParseVersion(t *testing.T) {
	tests := []struct {
		raw    string
		want   Version
		wantOK bool
	}{
		{"2.3", V23, true},
		{" 2.5.1 ", V251, true},
		{"2.4^USA", V24, true},
		{"", "", false},
		{"X", "X", false},
	}

	for _, tt := range tests {
		got, ok := ParseVersion(tt.raw)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParseVersion(%q) = %q, %v; want %q, %v", tt.raw, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestParseVersionField(t *testing.T) {
	custom := delim.Delimiters{Field: '#', Component: '*', Repetition: '!', Escape: '%', Subcomponent: '$'}
	tests := []struct {
		field  string
		d      delim.Delimiters
		want   Version
		wantOK bool
	}{
		{"2.5^USA", delim.Default(), V25, true},
		{"2.5*USA", custom, V25, true},
		{"2.3.1!2.4", custom, V231, true},
		{"2.5*USA", delim.Default(), "2.5*USA", false},
	}

	for _, tt := range tests {
		got, ok := ParseVersionField(tt.field, tt.d)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParseVersionField(%q) = %q, %v; want %q, %v", tt.field, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestVersion_Before(t *testing.T) {
	if !V23.Before(V231) {
		t.Error("2.3 should be before 2.3.1")
	}
	if V28.Before(V25) {
		t.Error("2.8 should not be before 2.5")
	}
}

func TestVersion_Composites(t *testing.T) {
	if got := V23.MessageTypeComposite(); got != "CM_MSG" {
		t.Errorf("2.3 MessageTypeComposite() = %q; want CM_MSG", got)
	}
	if got := V251.MessageTypeComposite(); got != "MSG" {
		t.Errorf("2.5.1 MessageTypeComposite() = %q; want MSG", got)
	}
	if got := V27.TimestampComposite(); got != "DTM" {
		t.Errorf("2.7 TimestampComposite() = %q; want DTM", got)
	}
	if got := Version("9").TimestampComposite(); got != "TS" {
		t.Errorf("unknown TimestampComposite() = %q; want TS", got)
	}
}

func TestVersions(t *testing.T) {
	all := Versions()
	for i := 1; i < len(all); i++ {
		if !all[i-1].Before(all[i]) {
			t.Errorf("Versions() not ordered at %s, %s", all[i-1], all[i])
		}
	}
}
