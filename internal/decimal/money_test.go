package decimal_test

import (
	"testing"

	dec "github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/efactura-editor/internal/decimal"
)

func TestFromString(t *testing.T) {
	d, err := decimal.FromString(" 123456.78 ")
	require.NoError(t, err)
	assert.True(t, d.Equal(dec.RequireFromString("123456.78")))

	_, err = decimal.FromString("not-a-number")
	require.Error(t, err)
}

func TestRound2_Symmetric(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"1.005", "1.01"},
		{"-1.005", "-1.01"},
		{"2.344", "2.34"},
		{"-2.344", "-2.34"},
		{"0", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			result := decimal.Round2(dec.RequireFromString(tt.in))
			assert.True(t, result.Equal(dec.RequireFromString(tt.expected)), "got %s", result)
		})
	}
}

func TestMul(t *testing.T) {
	a := dec.NewFromInt(100)
	b := dec.NewFromFloat(0.15)
	result := decimal.Mul(a, b)
	assert.True(t, result.Equal(dec.NewFromInt(15)))
}

func TestLineAmount(t *testing.T) {
	result := decimal.LineAmount(dec.RequireFromString("2.5"), dec.RequireFromString("10.10"), dec.RequireFromString("1.25"))
	assert.True(t, result.Equal(dec.RequireFromString("24")), "got %s", result)

	negative := decimal.LineAmount(dec.NewFromInt(-3), dec.NewFromInt(10), dec.Zero)
	assert.True(t, negative.Equal(dec.NewFromInt(-30)))
}

func TestCalculateVAT(t *testing.T) {
	tests := []struct {
		name     string
		base     string
		rate     string
		expected string
	}{
		{"19% of 100", "100", "19", "19"},
		{"19% of 1050", "1050", "19", "199.5"},
		{"9% of 33.33", "33.33", "9", "3"},
		{"19% of 10.55 rounds down", "10.55", "19", "2"},
		{"5% of -200", "-200", "5", "-10"},
		{"0% of 1000", "1000", "0", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := decimal.CalculateVAT(dec.RequireFromString(tt.base), dec.RequireFromString(tt.rate))
			assert.True(t, result.Equal(dec.RequireFromString(tt.expected)),
				"expected %s, got %s", tt.expected, result)
		})
	}
}

func TestMultiplierFactor(t *testing.T) {
	result := decimal.MultiplierFactor(dec.NewFromInt(10), dec.NewFromInt(200))
	assert.True(t, result.Equal(dec.NewFromInt(5)))

	result = decimal.MultiplierFactor(dec.NewFromInt(-10), dec.NewFromInt(-30))
	assert.True(t, result.Equal(dec.RequireFromString("33.33")))

	assert.True(t, decimal.MultiplierFactor(dec.NewFromInt(10), dec.Zero).IsZero())
}

func TestSum(t *testing.T) {
	values := []dec.Decimal{
		dec.RequireFromString("100.10"),
		dec.RequireFromString("200.20"),
		dec.RequireFromString("-50.05"),
	}
	result := decimal.Sum(values)
	assert.True(t, result.Equal(dec.RequireFromString("250.25")))

	assert.True(t, decimal.Sum(nil).IsZero())
}

func TestIsPositive(t *testing.T) {
	assert.True(t, decimal.IsPositive(dec.NewFromInt(1)))
	assert.False(t, decimal.IsPositive(dec.Zero))
	assert.False(t, decimal.IsPositive(dec.NewFromInt(-1)))
}

func TestIsNonNegative(t *testing.T) {
	assert.True(t, decimal.IsNonNegative(dec.NewFromInt(1)))
	assert.True(t, decimal.IsNonNegative(dec.Zero))
	assert.False(t, decimal.IsNonNegative(dec.NewFromInt(-1)))
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "0.00", decimal.Format2(dec.Zero))
	assert.Equal(t, "1234.50", decimal.Format2(dec.RequireFromString("1234.5")))
	assert.Equal(t, "-3.00", decimal.Format2(dec.NewFromInt(-3)))

	assert.Equal(t, "10.00", decimal.FormatPrice(dec.NewFromInt(10)))
	assert.Equal(t, "10.125", decimal.FormatPrice(dec.RequireFromString("10.1250")))

	assert.Equal(t, "2", decimal.FormatQty(dec.RequireFromString("2.000")))
	assert.Equal(t, "2.5", decimal.FormatQty(dec.RequireFromString("2.500")))
}
