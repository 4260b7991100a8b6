package utils

// ComputeTotals returns the tax amount and tax-inclusive total for base.
// Tax is zero unless apply is set.
func ComputeTotals(base, ratePercent float64, apply bool) (gst, total float64) {
	base = RoundMoney(base)
	if apply && ratePercent > 0 {
		gst = RoundMoney(base * ratePercent / 100)
	}
	return gst, RoundMoney(base + gst)
}

// SumAmounts adds line-item amounts and rounds once at the end.
func SumAmounts(amounts ...float64) float64 {
	var sum float64
	for _, a := range amounts {
		sum += a
	}
	return RoundMoney(sum)
}

// EffectiveRate recovers the percentage that produced gst on base, rounded to
// 2 decimals. Zero when base is not positive.
func EffectiveRate(base, gst float64) float64 {
	if base <= 0 {
		return 0
	}
	return RoundMoney(gst / base * 100)
}
