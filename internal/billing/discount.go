package billing

import "github.com/Sumit21adm/School-Management-System-sub005/internal/models"

// Discount is a resolved per-fee-type override. For PERCENTAGE, Value is a
// whole percent in [0,100]; for FIXED, Value is minor currency units.
type Discount struct {
	Type  models.DiscountType
	Value int64
}

// percentageOf rounds amount*percent/100 half away from zero using integer
// arithmetic only.
func percentageOf(amount, percent int64) int64 {
	return (amount*percent + 50) / 100
}

// ItemDiscount computes the discount for one structure line. The result
// never exceeds the line amount.
func ItemDiscount(amount int64, d Discount) int64 {
	var off int64
	switch d.Type {
	case models.DiscountTypePercentage:
		off = percentageOf(amount, d.Value)
	case models.DiscountTypeFixed:
		off = d.Value
	}
	if off > amount {
		off = amount
	}
	if off < 0 {
		off = 0
	}
	return off
}
