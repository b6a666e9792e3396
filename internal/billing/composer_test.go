package billing

import (
	"context"
	"testing"
	"time"

	"github.com/Sumit21adm/School-Management-System-sub005/internal/models"
)

func testStudent(id uint) models.Student {
	return models.Student{
		ID:        id,
		Name:      "Asha Verma",
		ClassName: "5",
		Section:   "A",
		SessionID: 1,
		Status:    models.StudentStatusActive,
	}
}

func composeFor(t *testing.T, store *fakeStore, student *models.Student, feeTypeIDs []uint) *ComposeResult {
	t.Helper()
	composer := NewBillComposer(store, NewMemoryLocker())
	result, err := composer.Compose(context.Background(), ComposeInput{
		Student:    student,
		SessionID:  1,
		Month:      4,
		Year:       2026,
		DueDate:    time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC),
		FeeTypeIDs: feeTypeIDs,
	})
	if err != nil {
		t.Fatalf("Compose returned error: %v", err)
	}
	return result
}

func TestComposeAppliesDiscounts(t *testing.T) {
	store := newFakeStore()
	student := store.addStudent(testStudent(5))
	store.setLines(1, "5",
		StructureLine{FeeTypeID: 1, FeeTypeName: "Tuition", Amount: 100000},
		StructureLine{FeeTypeID: 2, FeeTypeName: "Transport", Amount: 50000},
	)
	store.discounts = []models.StudentFeeDiscount{
		{StudentID: 5, SessionID: 1, FeeTypeID: 1, Type: models.DiscountTypePercentage, Value: 10, IsActive: true},
		{StudentID: 5, SessionID: 1, FeeTypeID: 2, Type: models.DiscountTypeFixed, Value: 5000, IsActive: true},
	}

	result := composeFor(t, store, student, nil)
	if result.Status != ComposeCreated {
		t.Fatalf("expected created, got %s (%s)", result.Status, result.Reason)
	}

	bill := result.Bill
	if bill.TotalAmount != 150000 {
		t.Errorf("TotalAmount = %d, want 150000", bill.TotalAmount)
	}
	if bill.Discount != 15000 {
		t.Errorf("Discount = %d, want 15000", bill.Discount)
	}
	if bill.NetAmount != 135000 {
		t.Errorf("NetAmount = %d, want 135000", bill.NetAmount)
	}
	if bill.Status != models.BillStatusPending {
		t.Errorf("Status = %s, want PENDING", bill.Status)
	}
	if bill.BillNo != "BILL-2026-04-5" {
		t.Errorf("BillNo = %q, want BILL-2026-04-5", bill.BillNo)
	}
	if len(bill.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(bill.Items))
	}
	if bill.Items[0].DiscountAmount != 10000 || bill.Items[1].DiscountAmount != 5000 {
		t.Errorf("item discounts = %d, %d; want 10000, 5000",
			bill.Items[0].DiscountAmount, bill.Items[1].DiscountAmount)
	}
}

func TestComposeRollsForwardDues(t *testing.T) {
	store := newFakeStore()
	student := store.addStudent(testStudent(5))
	store.setLines(1, "5", StructureLine{FeeTypeID: 1, FeeTypeName: "Tuition", Amount: 100000})
	store.addBill(models.DemandBill{
		StudentID: 5, SessionID: 1, Month: 3, Year: 2026,
		NetAmount: 100000, PaidAmount: 70000,
		Status: models.BillStatusPartiallyPaid,
	})

	result := composeFor(t, store, student, nil)
	bill := result.Bill
	if bill.PreviousDues != 30000 {
		t.Errorf("PreviousDues = %d, want 30000", bill.PreviousDues)
	}
	if bill.NetAmount != 130000 {
		t.Errorf("NetAmount = %d, want 130000", bill.NetAmount)
	}
}

func TestComposeIncludesOverdueInDues(t *testing.T) {
	store := newFakeStore()
	student := store.addStudent(testStudent(5))
	store.setLines(1, "5", StructureLine{FeeTypeID: 1, FeeTypeName: "Tuition", Amount: 100000})
	store.addBill(models.DemandBill{
		StudentID: 5, SessionID: 1, Month: 2, Year: 2026,
		NetAmount: 100000, PaidAmount: 0,
		Status: models.BillStatusOverdue,
	})

	result := composeFor(t, store, student, nil)
	if result.Bill.PreviousDues != 100000 {
		t.Errorf("PreviousDues = %d, want 100000", result.Bill.PreviousDues)
	}
}

func TestComposeAppliesAdvance(t *testing.T) {
	// The student overpaid earlier: 10000 billed, 30000 collected, so 20000
	// of credit exists. A new 30000 bill opens with 20000 already paid.
	store := newFakeStore()
	student := store.addStudent(testStudent(5))
	store.setLines(1, "5", StructureLine{FeeTypeID: 1, FeeTypeName: "Tuition", Amount: 30000})
	store.addBill(models.DemandBill{
		StudentID: 5, SessionID: 1, Month: 3, Year: 2026,
		NetAmount: 10000, PaidAmount: 10000,
		Status: models.BillStatusPaid,
	})
	store.addTxn(models.FeeTransaction{
		StudentID: 5, SessionID: 1, Amount: 30000,
		Status: models.TransactionStatusSettled,
	})

	result := composeFor(t, store, student, nil)
	bill := result.Bill
	if bill.AdvanceApplied != 20000 {
		t.Errorf("AdvanceApplied = %d, want 20000", bill.AdvanceApplied)
	}
	if bill.NetAmount != 30000 {
		t.Errorf("NetAmount = %d, want 30000", bill.NetAmount)
	}
	if bill.PaidAmount != 20000 {
		t.Errorf("PaidAmount = %d, want 20000", bill.PaidAmount)
	}
	if bill.Status != models.BillStatusPartiallyPaid {
		t.Errorf("Status = %s, want PARTIALLY_PAID", bill.Status)
	}
	if bill.Outstanding() != 10000 {
		t.Errorf("Outstanding = %d, want 10000", bill.Outstanding())
	}
}

func TestComposeAdvanceCappedAtNet(t *testing.T) {
	store := newFakeStore()
	student := store.addStudent(testStudent(5))
	store.setLines(1, "5", StructureLine{FeeTypeID: 1, FeeTypeName: "Tuition", Amount: 10000})
	store.addTxn(models.FeeTransaction{
		StudentID: 5, SessionID: 1, Amount: 50000,
		Status: models.TransactionStatusSettled,
	})

	result := composeFor(t, store, student, nil)
	bill := result.Bill
	if bill.AdvanceApplied != 10000 {
		t.Errorf("AdvanceApplied = %d, want 10000", bill.AdvanceApplied)
	}
	if bill.Status != models.BillStatusPaid {
		t.Errorf("Status = %s, want PAID", bill.Status)
	}
}

func TestComposeSkipOutcomes(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(*fakeStore)
		feeTypeIDs []uint
		wantReason string
	}{
		{
			name:       "no structure for class",
			setup:      func(s *fakeStore) {},
			wantReason: SkipNoStructure,
		},
		{
			name: "selection matches nothing",
			setup: func(s *fakeStore) {
				s.setLines(1, "5", StructureLine{FeeTypeID: 1, FeeTypeName: "Tuition", Amount: 10000})
			},
			feeTypeIDs: []uint{99},
			wantReason: SkipNoStructure,
		},
		{
			name: "all lines zero",
			setup: func(s *fakeStore) {
				s.setLines(1, "5",
					StructureLine{FeeTypeID: 1, FeeTypeName: "Tuition", Amount: 0},
					StructureLine{FeeTypeID: 2, FeeTypeName: "Transport", Amount: 0},
				)
			},
			wantReason: SkipZeroTotal,
		},
		{
			name: "bill already exists",
			setup: func(s *fakeStore) {
				s.setLines(1, "5", StructureLine{FeeTypeID: 1, FeeTypeName: "Tuition", Amount: 10000})
				s.addBill(models.DemandBill{
					StudentID: 5, SessionID: 1, Month: 4, Year: 2026,
					NetAmount: 10000, Status: models.BillStatusPending,
				})
			},
			wantReason: SkipDuplicate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			student := store.addStudent(testStudent(5))
			tt.setup(store)

			result := composeFor(t, store, student, tt.feeTypeIDs)
			if result.Status != ComposeSkipped {
				t.Fatalf("expected skipped, got %s", result.Status)
			}
			if result.Reason != tt.wantReason {
				t.Errorf("Reason = %q, want %q", result.Reason, tt.wantReason)
			}
		})
	}
}

func TestComposeOmitsZeroAmountLines(t *testing.T) {
	store := newFakeStore()
	student := store.addStudent(testStudent(5))
	store.setLines(1, "5",
		StructureLine{FeeTypeID: 1, FeeTypeName: "Tuition", Amount: 10000},
		StructureLine{FeeTypeID: 2, FeeTypeName: "Library", Amount: 0},
	)

	result := composeFor(t, store, student, nil)
	if len(result.Bill.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(result.Bill.Items))
	}
	if result.Bill.Items[0].FeeTypeID != 1 {
		t.Errorf("kept item fee type = %d, want 1", result.Bill.Items[0].FeeTypeID)
	}
}

func TestComposeSelectsFeeTypes(t *testing.T) {
	store := newFakeStore()
	student := store.addStudent(testStudent(5))
	store.setLines(1, "5",
		StructureLine{FeeTypeID: 1, FeeTypeName: "Tuition", Amount: 100000},
		StructureLine{FeeTypeID: 2, FeeTypeName: "Transport", Amount: 50000},
		StructureLine{FeeTypeID: 3, FeeTypeName: "Library", Amount: 20000},
	)

	result := composeFor(t, store, student, []uint{1, 3})
	bill := result.Bill
	if bill.TotalAmount != 120000 {
		t.Errorf("TotalAmount = %d, want 120000", bill.TotalAmount)
	}
	if len(bill.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(bill.Items))
	}
}
