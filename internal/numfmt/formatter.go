// Package numfmt formats and parses locale-grouped numbers for the invoice form.
package numfmt

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Fraction digits per value kind
const (
	CurrencyPlaces = 2
	QuantityPlaces = 3
	NumberPlaces   = 4
)

// Formatter renders decimals with the grouping and decimal separators of a locale
type Formatter struct {
	tag     language.Tag
	group   rune
	decimal rune
}

// New creates a formatter for a BCP 47 locale. Unknown locales fall back to Romanian.
func New(locale string) *Formatter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.Romanian
	}
	group, dec := separators(tag)
	return &Formatter{tag: tag, group: group, decimal: dec}
}

// separators probes the x/text printer for the locale symbols
func separators(tag language.Tag) (rune, rune) {
	p := message.NewPrinter(tag)
	probe := p.Sprintf("%v", number.Decimal(1234567.5, number.MinFractionDigits(1), number.MaxFractionDigits(1)))

	var seps []rune
	for _, r := range probe {
		if !unicode.IsDigit(r) {
			seps = append(seps, r)
		}
	}
	if len(seps) < 2 || seps[0] == seps[len(seps)-1] {
		return '.', ','
	}
	return seps[0], seps[len(seps)-1]
}

// Locale returns the formatter's language tag
func (f *Formatter) Locale() language.Tag {
	return f.tag
}

// FormatCurrency renders d with 2 fraction digits
func (f *Formatter) FormatCurrency(d decimal.Decimal) string {
	return f.format(d, CurrencyPlaces)
}

// FormatQuantity renders d with 3 fraction digits
func (f *Formatter) FormatQuantity(d decimal.Decimal) string {
	return f.format(d, QuantityPlaces)
}

// FormatNumber renders d with 4 fraction digits
func (f *Formatter) FormatNumber(d decimal.Decimal) string {
	return f.format(d, NumberPlaces)
}

// ParseCurrency parses a localized amount, rounded to 2 places
func (f *Formatter) ParseCurrency(s string) (decimal.Decimal, error) {
	return f.parse(s, CurrencyPlaces)
}

// ParseQuantity parses a localized quantity, rounded to 3 places
func (f *Formatter) ParseQuantity(s string) (decimal.Decimal, error) {
	return f.parse(s, QuantityPlaces)
}

// ParseNumber parses a localized number, rounded to 4 places
func (f *Formatter) ParseNumber(s string) (decimal.Decimal, error) {
	return f.parse(s, NumberPlaces)
}

func (f *Formatter) format(d decimal.Decimal, places int32) string {
	s := d.Round(places).StringFixed(places)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteRune(f.group)
		}
		b.WriteRune(r)
	}
	if frac != "" {
		b.WriteRune(f.decimal)
		b.WriteString(frac)
	}
	return b.String()
}

func (f *Formatter) parse(s string, places int32) (decimal.Decimal, error) {
	raw := s
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}

	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = s[1 : len(s)-1]
	}
	s = strings.Map(func(r rune) rune {
		switch {
		case unicode.IsSpace(r), r == '\u00a0', r == '\u202f', r == '\'', r == '\u2019':
			return -1
		case r == '\u2212':
			return '-'
		}
		return r
	}, s)
	if strings.HasPrefix(s, "-") {
		neg = !neg
		s = s[1:]
	} else if strings.HasSuffix(s, "-") {
		neg = !neg
		s = s[:len(s)-1]
	} else if strings.HasPrefix(s, "+") {
		s = s[1:]
	}

	digits := 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '.' || r == ',':
		default:
			return decimal.Zero, fmt.Errorf("invalid number %q", raw)
		}
	}
	if digits == 0 {
		return decimal.Zero, fmt.Errorf("invalid number %q", raw)
	}

	d, err := decimal.NewFromString(f.normalize(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid number %q: %w", raw, err)
	}
	if neg {
		d = d.Neg()
	}
	return d.Round(places), nil
}

// normalize rewrites s to a plain "1234.56" form.
// With both separators present the last one is the decimal mark; with a single
// kind, repeated occurrences are grouping and a lone locale group mark followed by
// exactly three digits is grouping too.
func (f *Formatter) normalize(s string) string {
	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")

	switch {
	case lastDot >= 0 && lastComma >= 0:
		decSep, groupSep := ".", ","
		if lastComma > lastDot {
			decSep, groupSep = ",", "."
		}
		s = strings.ReplaceAll(s, groupSep, "")
		return strings.Replace(s, decSep, ".", 1)

	case lastDot >= 0 || lastComma >= 0:
		sep := "."
		idx := lastDot
		if lastComma >= 0 {
			sep, idx = ",", lastComma
		}
		if strings.Count(s, sep) > 1 {
			return strings.ReplaceAll(s, sep, "")
		}
		if string(f.group) == sep && len(s)-idx-1 == 3 {
			return strings.ReplaceAll(s, sep, "")
		}
		return strings.Replace(s, sep, ".", 1)
	}
	return s
}
