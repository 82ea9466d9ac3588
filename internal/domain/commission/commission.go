package commission

import (
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultFastPercent is the fast-commission percentage used when a project has no setting.
const DefaultFastPercent = 50

var (
	hundred   = decimal.NewFromInt(100)
	tolerance = decimal.RequireFromString("0.01")
)

// Share is one weighted participant in a split.
type Share struct {
	Name    string          `json:"name"`
	Code    string          `json:"code,omitempty"`
	Percent decimal.Decimal `json:"percent"`
}

// IsEmpty reports whether the slot was left unfilled.
func (s Share) IsEmpty() bool {
	return strings.TrimSpace(s.Name) == ""
}

// Payout is the computed amount for one share.
type Payout struct {
	Share
	Amount decimal.Decimal `json:"amount"`
}

// AmountString renders the payout with exactly two decimals.
func (p Payout) AmountString() string {
	return p.Amount.StringFixed(2)
}

// Breakdown is the result of a commission calculation.
type Breakdown struct {
	NetPrice decimal.Decimal `json:"netPrice"`
	Rate     decimal.Decimal `json:"rate"`
	Total    decimal.Decimal `json:"total"`
	Payouts  []Payout        `json:"payouts"`
}

// TotalString renders the total commission with exactly two decimals.
func (b Breakdown) TotalString() string {
	return b.Total.StringFixed(2)
}

// ParseAmount parses user-entered numbers leniently. Grouping separators and
// whitespace are stripped; anything still unparsable counts as zero.
func ParseAmount(raw string) decimal.Decimal {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ',', '_', ' ', '\t', '\u00a0':
			return -1
		}
		return r
	}, raw)
	cleaned = strings.TrimSuffix(cleaned, "%")
	if cleaned == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// Calculate splits netPrice*rate/100 across the named shares. Empty slots are
// skipped. Each payout is rounded half away from zero to two places.
func Calculate(netPrice, rate string, shares []Share) Breakdown {
	net := ParseAmount(netPrice)
	r := ParseAmount(rate)
	total := net.Mul(r).Div(hundred)

	payouts := make([]Payout, 0, len(shares))
	for _, s := range shares {
		if s.IsEmpty() {
			continue
		}
		payouts = append(payouts, Payout{
			Share:  s,
			Amount: total.Mul(s.Percent).Div(hundred).Round(2),
		})
	}

	return Breakdown{
		NetPrice: net,
		Rate:     r,
		Total:    total.Round(2),
		Payouts:  payouts,
	}
}

// SumShares totals the percentages of the named shares.
func SumShares(shares []Share) decimal.Decimal {
	sum := decimal.Zero
	for _, s := range shares {
		if s.IsEmpty() {
			continue
		}
		sum = sum.Add(s.Percent)
	}
	return sum
}

// ValidShares reports whether the named shares total 100 within 0.01.
func ValidShares(shares []Share) bool {
	return SumShares(shares).Sub(hundred).Abs().LessThanOrEqual(tolerance)
}

// FastCommission is the share of the total commission paid out early.
func FastCommission(total decimal.Decimal, percent decimal.Decimal) decimal.Decimal {
	return total.Mul(percent).Div(hundred).Round(2)
}
