package commission

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func share(name, pct string) Share {
	return Share{Name: name, Percent: decimal.RequireFromString(pct)}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "plain", input: "1200000", expected: "1200000"},
		{name: "grouping separators", input: "1,200,000", expected: "1200000"},
		{name: "spaces and decimals", input: " 1 200 000.50 ", expected: "1200000.5"},
		{name: "percent suffix", input: "3%", expected: "3"},
		{name: "garbage is zero", input: "abc", expected: "0"},
		{name: "empty is zero", input: "", expected: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseAmount(tt.input).String())
		})
	}
}

func TestCalculate_TwoParticipants(t *testing.T) {
	b := Calculate("1,200,000", "3", []Share{share("A", "60"), share("B", "40")})

	assert.Equal(t, "36000.00", b.TotalString())
	require.Len(t, b.Payouts, 2)
	assert.Equal(t, "A", b.Payouts[0].Name)
	assert.Equal(t, "21600.00", b.Payouts[0].AmountString())
	assert.Equal(t, "B", b.Payouts[1].Name)
	assert.Equal(t, "14400.00", b.Payouts[1].AmountString())
}

func TestCalculate_SkipsEmptySlots(t *testing.T) {
	b := Calculate("1000", "10", []Share{share("A", "100"), {Name: "  "}, {}})

	require.Len(t, b.Payouts, 1)
	assert.Equal(t, "100.00", b.Payouts[0].AmountString())
}

func TestCalculate_NonNumericInputIsZero(t *testing.T) {
	b := Calculate("n/a", "3", []Share{share("A", "100")})

	assert.Equal(t, "0.00", b.TotalString())
	assert.Equal(t, "0.00", b.Payouts[0].AmountString())
}

func TestCalculate_RoundsHalfAwayFromZero(t *testing.T) {
	// total = 0.125 -> each third is 0.041666..., a half is 0.0625
	b := Calculate("12.5", "1", []Share{share("A", "50"), share("B", "50")})

	assert.Equal(t, "0.06", b.Payouts[0].AmountString())

	b = Calculate("1", "1", []Share{share("A", "50"), share("B", "50")})
	assert.Equal(t, "0.01", b.Payouts[0].AmountString())
}

func TestCalculate_PayoutSumWithinRoundingError(t *testing.T) {
	cases := []struct {
		net    string
		rate   string
		shares []Share
	}{
		{"999,999", "2.5", []Share{share("A", "33.33"), share("B", "33.33"), share("C", "33.34")}},
		{"1,234,567.89", "3.1", []Share{share("A", "25"), share("B", "25"), share("C", "25"), share("D", "25")}},
		{"7", "7", []Share{share("A", "70"), share("B", "30")}},
	}

	for _, c := range cases {
		b := Calculate(c.net, c.rate, c.shares)
		sum := decimal.Zero
		for _, p := range b.Payouts {
			sum = sum.Add(p.Amount)
		}
		exact := ParseAmount(c.net).Mul(ParseAmount(c.rate)).Div(decimal.NewFromInt(100))
		bound := decimal.RequireFromString("0.005").Mul(decimal.NewFromInt(int64(len(b.Payouts))))
		assert.True(t, sum.Sub(exact).Abs().LessThanOrEqual(bound),
			"sum %s too far from %s", sum, exact)
	}
}

func TestValidShares(t *testing.T) {
	tests := []struct {
		name     string
		shares   []Share
		expected bool
	}{
		{name: "exactly 100", shares: []Share{share("A", "60"), share("B", "40")}, expected: true},
		{name: "99.99", shares: []Share{share("A", "59.99"), share("B", "40")}, expected: true},
		{name: "100.01", shares: []Share{share("A", "60.01"), share("B", "40")}, expected: true},
		{name: "99.98", shares: []Share{share("A", "59.98"), share("B", "40")}, expected: false},
		{name: "100.02", shares: []Share{share("A", "60.02"), share("B", "40")}, expected: false},
		{name: "95", shares: []Share{share("A", "55"), share("B", "40")}, expected: false},
		{name: "empty slot share ignored", shares: []Share{share("A", "100"), {Name: "", Percent: decimal.NewFromInt(20)}}, expected: true},
		{name: "no participants", shares: nil, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidShares(tt.shares))
		})
	}
}

func TestFastCommission(t *testing.T) {
	total := decimal.RequireFromString("36000")

	assert.Equal(t, "18000.00", FastCommission(total, decimal.NewFromInt(DefaultFastPercent)).StringFixed(2))
	assert.Equal(t, "10800.00", FastCommission(total, decimal.NewFromInt(30)).StringFixed(2))
}
