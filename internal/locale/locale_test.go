package locale

import "testing"

func TestNewDefaultsEmptyTag(t *testing.T) {
	l, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if l.String() != DefaultTag {
		t.Fatalf("expected %s, got %s", DefaultTag, l.String())
	}
}

func TestNewRejectsGarbage(t *testing.T) {
	if _, err := New("not a tag!!"); err == nil {
		t.Fatal("expected error for malformed tag")
	}
}

func TestFormatStateNumeric(t *testing.T) {
	tests := []struct {
		tag  string
		raw  string
		unit string
		want string
	}{
		{"en-US", "12345.6", "", "12,345.6"},
		{"de-DE", "12345.6", "", "12.345,6"},
		{"en-US", "21", "°C", "21 °C"},
		{"en-US", "0.50", "", "0.50"},
	}
	for _, tt := range tests {
		got := MustNew(tt.tag).FormatState(tt.raw, tt.unit)
		if got != tt.want {
			t.Errorf("%s %q: expected %q, got %q", tt.tag, tt.raw, tt.want, got)
		}
	}
}

func TestFormatStateText(t *testing.T) {
	got := MustNew("en-US").FormatState("on", "")
	if got != "on" {
		t.Fatalf("expected on, got %q", got)
	}
}

func TestNilLocaleFormats(t *testing.T) {
	var l *Locale
	if got := l.FormatState("1000", "W"); got != "1,000 W" {
		t.Fatalf("expected 1,000 W, got %q", got)
	}
}
