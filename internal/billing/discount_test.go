package billing

import (
	"testing"

	"github.com/Sumit21adm/School-Management-System-sub005/internal/models"
)

func TestItemDiscount(t *testing.T) {
	tests := []struct {
		name     string
		amount   int64
		discount Discount
		want     int64
	}{
		{"ten percent", 100000, Discount{models.DiscountTypePercentage, 10}, 10000},
		{"full waiver", 100000, Discount{models.DiscountTypePercentage, 100}, 100000},
		{"rounds half up", 999, Discount{models.DiscountTypePercentage, 33}, 330},
		{"rounds half away from zero", 50, Discount{models.DiscountTypePercentage, 33}, 17},
		{"fixed amount", 100000, Discount{models.DiscountTypeFixed, 2500}, 2500},
		{"fixed capped at line amount", 1000, Discount{models.DiscountTypeFixed, 5000}, 1000},
		{"negative fixed floors at zero", 1000, Discount{models.DiscountTypeFixed, -500}, 0},
		{"unknown type is zero", 1000, Discount{"", 50}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ItemDiscount(tt.amount, tt.discount); got != tt.want {
				t.Errorf("ItemDiscount(%d, %+v) = %d, want %d", tt.amount, tt.discount, got, tt.want)
			}
		})
	}
}
