package billing

import (
	"context"
	"time"

	"github.com/Sumit21adm/School-Management-System-sub005/internal/models"
)

// StructureLine is one chargeable (fee type, amount) entry resolved from a
// fee structure. Amounts are minor currency units.
type StructureLine struct {
	FeeTypeID   uint
	FeeTypeName string
	Amount      int64
}

// StudentRepo resolves billing candidates. The ledger never mutates students.
type StudentRepo interface {
	ByID(ctx context.Context, id uint) (*models.Student, error)
	ActiveBySession(ctx context.Context, sessionID uint) ([]models.Student, error)
	// ActiveByClass narrows to a class, optionally to one section when
	// section is non-empty.
	ActiveByClass(ctx context.Context, sessionID uint, className, section string) ([]models.Student, error)
}

// FeeStructureRepo resolves the fee schedule for a (session, class) pair.
type FeeStructureRepo interface {
	// Lines returns the ordered structure lines, or an empty slice when no
	// structure exists for the pair. Absence is not an error.
	Lines(ctx context.Context, sessionID uint, className string) ([]StructureLine, error)
}

// DiscountRepo resolves active per-student discount overrides.
type DiscountRepo interface {
	ActiveForStudent(ctx context.Context, studentID, sessionID uint, feeTypeIDs []uint) ([]models.StudentFeeDiscount, error)
}

// DemandBillRepo owns all reads and writes of demand bills.
type DemandBillRepo interface {
	ByID(ctx context.Context, id uint) (*models.DemandBill, error)
	ExistsForPeriod(ctx context.Context, studentID, sessionID uint, month, year int) (bool, error)
	// Unsettled returns the student's session bills with status PENDING,
	// PARTIALLY_PAID or OVERDUE.
	Unsettled(ctx context.Context, studentID, sessionID uint) ([]models.DemandBill, error)
	// TotalBilled sums NetAmount over every bill of the student in the
	// session, regardless of status.
	TotalBilled(ctx context.Context, studentID, sessionID uint) (int64, error)
	// Create persists the bill together with its items as one atomic unit.
	Create(ctx context.Context, bill *models.DemandBill) error
	// SavePayment persists PaidAmount and Status after reconciliation.
	SavePayment(ctx context.Context, bill *models.DemandBill) error
	// MarkOverdue stamps OVERDUE on unpaid bills whose due date has passed
	// and returns how many rows changed.
	MarkOverdue(ctx context.Context, now time.Time) (int64, error)
}

// TransactionRepo owns fee transactions and their reversals.
type TransactionRepo interface {
	ByID(ctx context.Context, id uint) (*models.FeeTransaction, error)
	// TotalSettled sums Amount over the student's settled transactions in
	// the session. Pending, failed and voided rows do not count.
	TotalSettled(ctx context.Context, studentID, sessionID uint) (int64, error)
	Create(ctx context.Context, txn *models.FeeTransaction) error
	Save(ctx context.Context, txn *models.FeeTransaction) error
	CreateRefund(ctx context.Context, refund *models.Refund) error
}

// Store bundles the repositories behind a single transaction boundary.
// InTransaction runs fn against a store whose repositories share one
// database transaction, so a dues read, advance read and bill insert commit
// or roll back together.
type Store interface {
	Students() StudentRepo
	Structures() FeeStructureRepo
	Discounts() DiscountRepo
	Bills() DemandBillRepo
	Transactions() TransactionRepo
	InTransaction(ctx context.Context, fn func(Store) error) error
}

// Locker serializes all ledger mutations for one student. Bill generation
// and payment reconciliation for the same student are mutually exclusive;
// different students proceed in parallel.
type Locker interface {
	// LockStudent blocks until the student's lease is held or ctx is done,
	// and returns the release func.
	LockStudent(ctx context.Context, studentID uint) (func(), error)
}
