package core

import (
	"strconv"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DefaultDateTimeFormat is used when a gallery does not configure one.
const DefaultDateTimeFormat = "02 Jan 2006 15:04:05"

// RawDateTimeLayout is the sortable ISO-8601 form stored as a raw value.
const RawDateTimeLayout = "2006-01-02T15:04:05"

// Formatter turns values into display strings using gallery settings.
type Formatter struct {
	layout  string
	printer *message.Printer
}

// NewFormatter returns a Formatter for the gallery settings.
func NewFormatter(s GallerySettings) *Formatter {
	layout := s.DateTimeFormat
	if layout == "" {
		layout = DefaultDateTimeFormat
	}
	tag, err := language.Parse(s.Locale)
	if err != nil {
		tag = language.AmericanEnglish
	}
	return &Formatter{layout: layout, printer: message.NewPrinter(tag)}
}

// DateTime formats t with the gallery layout; the raw value is ISO-8601.
func (f *Formatter) DateTime(t time.Time) MetaValue {
	return MetaValue{Formatted: t.Format(f.layout), Raw: t.Format(RawDateTimeLayout)}
}

// Int formats n with locale digit grouping.
func (f *Formatter) Int(n int64) string {
	return f.printer.Sprintf("%d", n)
}

// Float formats v with prec decimals and locale separators.
func (f *Formatter) Float(v float64, prec int) string {
	return f.printer.Sprintf("%.*f", prec, v)
}

// Sprintf exposes the locale-aware printer.
func (f *Formatter) Sprintf(format string, args ...any) string {
	return f.printer.Sprintf(format, args...)
}

// Number renders v as a plain, invariant decimal with no trailing zeros. It
// is used for raw values.
func Number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
