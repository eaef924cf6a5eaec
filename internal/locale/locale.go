package locale

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// DefaultTag is used when the host does not report a language.
const DefaultTag = "en-US"

// #region locale
// Locale is the localization/formatting context published by the host.
// Hosts publish a new *Locale when the language changes; consumers compare
// pointers, so a Locale must not be mutated after publication.
type Locale struct {
	tag     language.Tag
	printer *message.Printer
}

// New parses a BCP 47 tag and builds a formatting context for it.
func New(tag string) (*Locale, error) {
	if strings.TrimSpace(tag) == "" {
		tag = DefaultTag
	}
	t, err := language.Parse(tag)
	if err != nil {
		return nil, fmt.Errorf("parse locale %q: %w", tag, err)
	}
	return &Locale{tag: t, printer: message.NewPrinter(t)}, nil
}

// MustNew is New for tags known at compile time.
func MustNew(tag string) *Locale {
	l, err := New(tag)
	if err != nil {
		panic(err)
	}
	return l
}

// Tag returns the language tag of the context.
func (l *Locale) Tag() language.Tag {
	if l == nil {
		return language.Make(DefaultTag)
	}
	return l.tag
}

// String returns the canonical BCP 47 form of the tag.
func (l *Locale) String() string {
	return l.Tag().String()
}

// #endregion locale

// #region format
// FormatState renders a raw entity state for display. Numeric states are
// formatted with the locale's grouping and decimal separators, keeping the
// precision the platform reported; unit is appended when non-empty.
func (l *Locale) FormatState(raw, unit string) string {
	text := raw
	if f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil {
		text = l.printerOrDefault().Sprint(number.Decimal(f,
			number.MinFractionDigits(fractionDigits(raw)),
			number.MaxFractionDigits(fractionDigits(raw)),
		))
	}
	if unit == "" {
		return text
	}
	return text + " " + unit
}

func (l *Locale) printerOrDefault() *message.Printer {
	if l == nil || l.printer == nil {
		return message.NewPrinter(language.Make(DefaultTag))
	}
	return l.printer
}

func fractionDigits(raw string) int {
	raw = strings.TrimSpace(raw)
	i := strings.IndexByte(raw, '.')
	if i < 0 || strings.ContainsAny(raw, "eE") {
		return 0
	}
	return len(raw) - i - 1
}

// #endregion format
