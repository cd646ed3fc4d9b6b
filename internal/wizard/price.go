package wizard

import "math"

// ChildPriceFactor weights a child against an adult.
const ChildPriceFactor = 0.5

// TotalPrice is unitPrice x durationDays x (adults + 0.5 x children), rounded to cents.
func TotalPrice(unitPrice float64, durationDays, adults, children int) float64 {
	travelers := float64(adults) + float64(children)*ChildPriceFactor
	total := unitPrice * float64(durationDays) * travelers
	return math.Round(total*100) / 100
}
