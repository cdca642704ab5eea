package domain

import "github.com/shopspring/decimal"

// PlatformFeeRate is the platform's share of every sale.
var PlatformFeeRate = decimal.RequireFromString("0.08")

type Split struct {
	AmountCents       int64
	PlatformFeeCents  int64
	ArtistPayoutCents int64
}

// SplitRevenue rounds the fee half away from zero and gives the remainder to
// the artist, so fee + payout always equals amount.
func SplitRevenue(amountCents int64) Split {
	fee := decimal.NewFromInt(amountCents).Mul(PlatformFeeRate).Round(0).IntPart()
	return Split{
		AmountCents:       amountCents,
		PlatformFeeCents:  fee,
		ArtistPayoutCents: amountCents - fee,
	}
}

// EvenShare divides a captured total across n products.
func EvenShare(totalCents int64, n int) int64 {
	if n <= 0 {
		return 0
	}
	return decimal.NewFromInt(totalCents).Div(decimal.NewFromInt(int64(n))).Round(0).IntPart()
}

// ApplyDiscount returns price reduced by pct percent, rounded to whole cents.
func ApplyDiscount(priceCents int64, pct int) int64 {
	if pct <= 0 {
		return priceCents
	}
	if pct >= 100 {
		return 0
	}
	factor := decimal.NewFromInt(int64(100 - pct)).Div(decimal.NewFromInt(100))
	return decimal.NewFromInt(priceCents).Mul(factor).Round(0).IntPart()
}
