package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Sumit21adm/School-Management-System-sub005/internal/models"
)

// Skip reasons reported by the composer. These are expected outcomes in
// heterogeneous batches, not errors.
const (
	SkipNoStructure = "no structure"
	SkipZeroTotal   = "zero total"
	SkipDuplicate   = "duplicate"
)

// ComposeStatus is the outcome class of a single composition.
type ComposeStatus string

const (
	ComposeCreated ComposeStatus = "created"
	ComposeSkipped ComposeStatus = "skipped"
)

// ComposeInput describes one bill to compose.
type ComposeInput struct {
	Student    *models.Student
	SessionID  uint
	Month      int
	Year       int
	DueDate    time.Time
	FeeTypeIDs []uint
}

// ComposeResult is the outcome of one composition attempt.
type ComposeResult struct {
	Status ComposeStatus
	Reason string
	Bill   *models.DemandBill
}

// BillComposer merges the fee structure, discounts, prior dues and advance
// credit into one new demand bill. The dues read, advance read and bill
// insert run inside a single transaction while the student's lock is held,
// so two concurrent compositions (or a composition racing a payment) can
// never double-apply the same credit.
type BillComposer struct {
	store  Store
	locker Locker
	clock  func() time.Time
}

func NewBillComposer(store Store, locker Locker) *BillComposer {
	return &BillComposer{store: store, locker: locker, clock: time.Now}
}

// BillNo builds the deterministic bill number for a period. At most one bill
// exists per (student, session, month, year), so the number is unique.
func BillNo(year, month int, studentID uint) string {
	return fmt.Sprintf("BILL-%d-%02d-%d", year, month, studentID)
}

// Compose runs steps 1-9 of the billing algorithm for one student.
func (c *BillComposer) Compose(ctx context.Context, in ComposeInput) (*ComposeResult, error) {
	release, err := c.locker.LockStudent(ctx, in.Student.ID)
	if err != nil {
		return nil, fmt.Errorf("lock student %d: %w", in.Student.ID, err)
	}
	defer release()

	var result *ComposeResult
	err = c.store.InTransaction(ctx, func(tx Store) error {
		var txErr error
		result, txErr = c.composeLocked(ctx, tx, in)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (c *BillComposer) composeLocked(ctx context.Context, tx Store, in ComposeInput) (*ComposeResult, error) {
	student := in.Student

	// Idempotency guard, re-checked under the lock.
	exists, err := tx.Bills().ExistsForPeriod(ctx, student.ID, in.SessionID, in.Month, in.Year)
	if err != nil {
		return nil, err
	}
	if exists {
		return &ComposeResult{Status: ComposeSkipped, Reason: SkipDuplicate}, nil
	}

	lines, err := NewFeeStructureResolver(tx.Structures()).Resolve(ctx, in.SessionID, student.ClassName)
	if err != nil {
		return nil, err
	}
	lines = selectLines(lines, in.FeeTypeIDs)
	if len(lines) == 0 {
		return &ComposeResult{Status: ComposeSkipped, Reason: SkipNoStructure}, nil
	}

	feeTypeIDs := make([]uint, 0, len(lines))
	for _, line := range lines {
		feeTypeIDs = append(feeTypeIDs, line.FeeTypeID)
	}
	discounts, err := NewDiscountResolver(tx.Discounts()).Resolve(ctx, student.ID, in.SessionID, feeTypeIDs)
	if err != nil {
		return nil, err
	}

	var totalAmount, totalDiscount int64
	items := make([]models.DemandBillItem, 0, len(lines))
	for _, line := range lines {
		// Zero-amount structure lines are omitted entirely.
		if line.Amount <= 0 {
			continue
		}
		var off int64
		if d, ok := discounts[line.FeeTypeID]; ok {
			off = ItemDiscount(line.Amount, d)
		}
		totalAmount += line.Amount
		totalDiscount += off
		items = append(items, models.DemandBillItem{
			FeeTypeID:      line.FeeTypeID,
			Amount:         line.Amount,
			DiscountAmount: off,
			Description:    line.FeeTypeName,
		})
	}
	if totalAmount == 0 {
		return &ComposeResult{Status: ComposeSkipped, Reason: SkipZeroTotal}, nil
	}

	previousDues, err := NewDuesAggregator(tx.Bills()).PreviousDues(ctx, student.ID, in.SessionID)
	if err != nil {
		return nil, err
	}

	netAmount := totalAmount - totalDiscount + previousDues

	advance, err := NewAdvanceBalanceCalculator(tx.Bills(), tx.Transactions()).Advance(ctx, student.ID, in.SessionID)
	if err != nil {
		return nil, err
	}
	advanceApplied := advance
	if advanceApplied > netAmount {
		advanceApplied = netAmount
	}

	bill := &models.DemandBill{
		UUID:           uuid.New().String(),
		BillNo:         BillNo(in.Year, in.Month, student.ID),
		StudentID:      student.ID,
		SessionID:      in.SessionID,
		Month:          in.Month,
		Year:           in.Year,
		BillDate:       c.clock(),
		DueDate:        in.DueDate,
		TotalAmount:    totalAmount,
		Discount:       totalDiscount,
		PreviousDues:   previousDues,
		AdvanceApplied: advanceApplied,
		NetAmount:      netAmount,
		PaidAmount:     advanceApplied,
		Items:          items,
	}
	bill.RecomputeStatus()

	if err := tx.Bills().Create(ctx, bill); err != nil {
		return nil, err
	}
	return &ComposeResult{Status: ComposeCreated, Bill: bill}, nil
}

// selectLines filters the structure to the requested fee types, keeping the
// structure's order. An empty selection keeps everything.
func selectLines(lines []StructureLine, feeTypeIDs []uint) []StructureLine {
	if len(feeTypeIDs) == 0 {
		return lines
	}
	selected := make(map[uint]bool, len(feeTypeIDs))
	for _, id := range feeTypeIDs {
		selected[id] = true
	}
	out := lines[:0:0]
	for _, line := range lines {
		if selected[line.FeeTypeID] {
			out = append(out, line)
		}
	}
	return out
}
