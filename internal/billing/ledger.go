package billing

import (
	"context"
)

// DuesAggregator sums the unpaid balance rolled forward onto the next bill.
type DuesAggregator struct {
	bills DemandBillRepo
}

func NewDuesAggregator(bills DemandBillRepo) *DuesAggregator {
	return &DuesAggregator{bills: bills}
}

// PreviousDues sums NetAmount - PaidAmount over the student's unsettled
// bills in the session. The bill currently being composed does not exist
// yet, so it can never be counted.
func (a *DuesAggregator) PreviousDues(ctx context.Context, studentID, sessionID uint) (int64, error) {
	unsettled, err := a.bills.Unsettled(ctx, studentID, sessionID)
	if err != nil {
		return 0, err
	}
	var dues int64
	for _, bill := range unsettled {
		dues += bill.Outstanding()
	}
	return dues, nil
}

// AdvanceBalanceCalculator infers the student's credit from aggregate
// totals: cumulative settled payments minus cumulative billed amount,
// floored at zero. Credit is inferred, not earmarked per transaction.
type AdvanceBalanceCalculator struct {
	bills        DemandBillRepo
	transactions TransactionRepo
}

func NewAdvanceBalanceCalculator(bills DemandBillRepo, transactions TransactionRepo) *AdvanceBalanceCalculator {
	return &AdvanceBalanceCalculator{bills: bills, transactions: transactions}
}

func (c *AdvanceBalanceCalculator) Advance(ctx context.Context, studentID, sessionID uint) (int64, error) {
	totalBilled, err := c.bills.TotalBilled(ctx, studentID, sessionID)
	if err != nil {
		return 0, err
	}
	totalPaid, err := c.transactions.TotalSettled(ctx, studentID, sessionID)
	if err != nil {
		return 0, err
	}
	advance := totalPaid - totalBilled
	if advance < 0 {
		advance = 0
	}
	return advance, nil
}
