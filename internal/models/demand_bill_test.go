package models

import "testing"

func TestRecomputeStatus(t *testing.T) {
	tests := []struct {
		name string
		net  int64
		paid int64
		want BillStatus
	}{
		{"nothing paid", 100000, 0, BillStatusPending},
		{"partially paid", 100000, 40000, BillStatusPartiallyPaid},
		{"fully paid", 100000, 100000, BillStatusPaid},
		{"zero net bill counts as paid", 0, 0, BillStatusPaid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bill := DemandBill{NetAmount: tt.net, PaidAmount: tt.paid}
			bill.RecomputeStatus()
			if bill.Status != tt.want {
				t.Errorf("RecomputeStatus(net=%d, paid=%d) = %s, want %s", tt.net, tt.paid, bill.Status, tt.want)
			}
		})
	}
}

func TestRecomputeStatusClearsOverdue(t *testing.T) {
	bill := DemandBill{NetAmount: 100000, PaidAmount: 0, Status: BillStatusOverdue}
	bill.PaidAmount = 50000
	bill.RecomputeStatus()
	if bill.Status != BillStatusPartiallyPaid {
		t.Errorf("payment on overdue bill left status %s, want PARTIALLY_PAID", bill.Status)
	}
}

func TestOutstanding(t *testing.T) {
	bill := DemandBill{NetAmount: 100000, PaidAmount: 30000}
	if got := bill.Outstanding(); got != 70000 {
		t.Errorf("Outstanding = %d, want 70000", got)
	}
}
