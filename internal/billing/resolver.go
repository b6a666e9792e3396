package billing

import (
	"context"
)

// FeeStructureResolver returns the chargeable fee lines for a (session,
// class) pair. An empty result is a valid outcome: the student is simply
// skipped upstream.
type FeeStructureResolver struct {
	structures FeeStructureRepo
}

func NewFeeStructureResolver(structures FeeStructureRepo) *FeeStructureResolver {
	return &FeeStructureResolver{structures: structures}
}

func (r *FeeStructureResolver) Resolve(ctx context.Context, sessionID uint, className string) ([]StructureLine, error) {
	return r.structures.Lines(ctx, sessionID, className)
}

// DiscountResolver maps fee type ids to the student's active discount
// overrides. A fee type absent from the map has zero discount; validation of
// the stored values happens at discount creation, not here.
type DiscountResolver struct {
	discounts DiscountRepo
}

func NewDiscountResolver(discounts DiscountRepo) *DiscountResolver {
	return &DiscountResolver{discounts: discounts}
}

func (r *DiscountResolver) Resolve(ctx context.Context, studentID, sessionID uint, feeTypeIDs []uint) (map[uint]Discount, error) {
	rows, err := r.discounts.ActiveForStudent(ctx, studentID, sessionID, feeTypeIDs)
	if err != nil {
		return nil, err
	}
	out := make(map[uint]Discount, len(rows))
	for _, row := range rows {
		out[row.FeeTypeID] = Discount{Type: row.Type, Value: row.Value}
	}
	return out, nil
}
