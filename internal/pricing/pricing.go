// Package pricing computes per-runner prices in pence GBP. Groups of
// four or more get the group discount; all arithmetic is integer so
// identical inputs always produce identical prices.
package pricing

const (
	// GroupDiscountThreshold is the group size at which the discount applies
	GroupDiscountThreshold = 4
	// GroupDiscountPercent is the discount for qualifying groups
	GroupDiscountPercent = 10
)

// UnitPrice returns the per-runner price in pence for a group of the
// given size. Rounding is half-up on integer pence.
func UnitPrice(basePence int64, quantity int) int64 {
	if quantity < GroupDiscountThreshold {
		return basePence
	}
	discounted := basePence * (100 - GroupDiscountPercent)
	return (discounted + 50) / 100
}

// Total returns the charge for the whole group
func Total(basePence int64, quantity int) int64 {
	return UnitPrice(basePence, quantity) * int64(quantity)
}

// Discounted reports whether the group qualifies for the discount
func Discounted(quantity int) bool {
	return quantity >= GroupDiscountThreshold
}
