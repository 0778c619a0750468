package client

import "math"

// Discount returns the whole-number percentage saved against originalPrice.
// ok is false when there is nothing to show: no original price, an original
// price of zero, or a price that is not actually lower.
func Discount(price float64, originalPrice *float64) (percent int, ok bool) {
	if originalPrice == nil || *originalPrice == 0 {
		return 0, false
	}
	original := *originalPrice
	percent = int(math.Round((original - price) / original * 100))
	if percent <= 0 {
		return 0, false
	}
	return percent, true
}
