package numfmt_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/efactura-editor/internal/numfmt"
)

func TestFormatCurrency_Romanian(t *testing.T) {
	f := numfmt.New("ro")

	tests := []struct {
		in       string
		expected string
	}{
		{"0", "0,00"},
		{"1234.56", "1.234,56"},
		{"1234567.891", "1.234.567,89"},
		{"-1234.5", "-1.234,50"},
		{"999.999", "1.000,00"},
		{"12", "12,00"},
		{"-0.001", "0,00"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.expected, f.FormatCurrency(decimal.RequireFromString(tt.in)))
		})
	}
}

func TestFormatQuantityAndNumber(t *testing.T) {
	f := numfmt.New("ro")

	assert.Equal(t, "2,500", f.FormatQuantity(decimal.RequireFromString("2.5")))
	assert.Equal(t, "4,9750", f.FormatNumber(decimal.RequireFromString("4.975")))
	assert.Equal(t, "1.000,000", f.FormatQuantity(decimal.NewFromInt(1000)))
}

func TestFormatCurrency_English(t *testing.T) {
	f := numfmt.New("en")
	assert.Equal(t, "1,234.56", f.FormatCurrency(decimal.RequireFromString("1234.56")))
}

func TestNew_UnknownLocaleFallsBack(t *testing.T) {
	f := numfmt.New("not a locale!!")
	assert.Equal(t, "1.234,56", f.FormatCurrency(decimal.RequireFromString("1234.56")))
}

func TestParseCurrency(t *testing.T) {
	f := numfmt.New("ro")

	tests := []struct {
		name     string
		in       string
		expected string
	}{
		{"empty is zero", "", "0"},
		{"plain", "12", "12"},
		{"ro decimal", "12,5", "12.5"},
		{"ro grouped", "1.234,56", "1234.56"},
		{"en grouped", "1,234.56", "1234.56"},
		{"lone group mark", "1.234", "1234"},
		{"lone dot decimal", "12.50", "12.5"},
		{"repeated group", "1.234.567", "1234567"},
		{"spaces and nbsp", "1\u00a0234 567,89", "1234567.89"},
		{"apostrophe grouping", "1'234.5", "1234.5"},
		{"leading minus", "-1.234,56", "-1234.56"},
		{"trailing minus", "1.234,56-", "-1234.56"},
		{"parentheses", "(1.234,56)", "-1234.56"},
		{"unicode minus", "\u22127,25", "-7.25"},
		{"rounds to cents", "3,14159", "3.14"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.ParseCurrency(tt.in)
			require.NoError(t, err)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.expected)), "got %s", got)
		})
	}
}

func TestParseCurrency_Invalid(t *testing.T) {
	f := numfmt.New("ro")

	for _, in := range []string{"abc", "12a", "-", ",,"} {
		_, err := f.ParseCurrency(in)
		assert.Error(t, err, in)
	}
}

func TestParseCurrency_InvertsFormat(t *testing.T) {
	for _, locale := range []string{"ro", "en"} {
		f := numfmt.New(locale)
		for _, v := range []string{"0", "0.01", "-0.01", "1234.56", "-1234.56", "1000000", "-987654321.99", "100.10"} {
			d := decimal.RequireFromString(v)
			got, err := f.ParseCurrency(f.FormatCurrency(d))
			require.NoError(t, err)
			assert.True(t, got.Equal(d), "%s: %s -> %s", locale, v, got)
		}
	}
}

func TestParseQuantityAndNumber(t *testing.T) {
	f := numfmt.New("ro")

	q, err := f.ParseQuantity("1,2345")
	require.NoError(t, err)
	assert.True(t, q.Equal(decimal.RequireFromString("1.235")))

	n, err := f.ParseNumber("4,97501")
	require.NoError(t, err)
	assert.True(t, n.Equal(decimal.RequireFromString("4.975")))
}
