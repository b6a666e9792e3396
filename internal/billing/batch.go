package billing

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/Sumit21adm/School-Management-System-sub005/internal/models"
)

// Per-student outcome statuses inside a batch run.
const (
	ResultSuccess = "success"
	ResultSkipped = "skipped"
	ResultFailed  = "failed"
)

// Target selects the candidate students of a batch run: a single student,
// a class (optionally narrowed to a section), or all active students in the
// session when both are empty.
type Target struct {
	StudentID uint
	ClassName string
	Section   string
}

// BatchInput describes one batch generation run.
type BatchInput struct {
	SessionID  uint
	Month      int
	Year       int
	DueDate    time.Time
	FeeTypeIDs []uint
	Target     Target
}

// StudentResult is one entry of the batch audit trail.
type StudentResult struct {
	StudentID   uint   `json:"studentId"`
	StudentName string `json:"studentName,omitempty"`
	Status      string `json:"status"`
	BillNo      string `json:"billNo,omitempty"`
	Amount      int64  `json:"amount,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

// BatchResult is the complete accounting of a run. Operators resolve
// exceptions directly from Results.
type BatchResult struct {
	Total     int             `json:"total"`
	Generated int             `json:"generated"`
	Skipped   int             `json:"skipped"`
	Failed    int             `json:"failed"`
	Results   []StudentResult `json:"results"`
}

// BatchGenerator drives the composer over a candidate set with a bounded
// worker pool. One student's failure never aborts the batch; the per-student
// lock inside the composer keeps parallel workers from ever touching the
// same student's ledger at once.
type BatchGenerator struct {
	store    Store
	composer *BillComposer
	workers  int
}

func NewBatchGenerator(store Store, composer *BillComposer, workers int) *BatchGenerator {
	if workers < 1 {
		workers = 1
	}
	return &BatchGenerator{store: store, composer: composer, workers: workers}
}

// Generate resolves the candidate set and composes one bill per candidate.
// It returns an error only when the candidate set itself cannot be resolved;
// everything after that is recorded per student.
func (g *BatchGenerator) Generate(ctx context.Context, in BatchInput) (*BatchResult, error) {
	candidates, err := g.resolveCandidates(ctx, in)
	if err != nil {
		return nil, err
	}
	result := &BatchResult{Total: len(candidates), Results: make([]StudentResult, len(candidates))}
	if len(candidates) == 0 {
		return result, nil
	}

	sem := make(chan struct{}, g.workers)
	var wg sync.WaitGroup
	for i := range candidates {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			result.Results[i] = g.generateOne(ctx, in, i, candidates)
		}(i)
	}
	wg.Wait()

	for _, r := range result.Results {
		switch r.Status {
		case ResultSuccess:
			result.Generated++
		case ResultSkipped:
			result.Skipped++
		default:
			result.Failed++
		}
	}
	return result, nil
}

func (g *BatchGenerator) generateOne(ctx context.Context, in BatchInput, i int, candidates []studentCandidate) (res StudentResult) {
	candidate := candidates[i]
	res = StudentResult{StudentID: candidate.id, StudentName: candidate.name}

	// A panicking storage layer must not take the batch down with it.
	defer func() {
		if r := recover(); r != nil {
			log.Printf("bill generation panicked for student %d: %v", candidate.id, r)
			res.Status = ResultFailed
			res.Reason = fmt.Sprintf("panic: %v", r)
		}
	}()

	// Fast-path idempotency check before taking the student lock.
	exists, err := g.store.Bills().ExistsForPeriod(ctx, candidate.id, in.SessionID, in.Month, in.Year)
	if err != nil {
		res.Status = ResultFailed
		res.Reason = err.Error()
		return res
	}
	if exists {
		res.Status = ResultSkipped
		res.Reason = SkipDuplicate
		return res
	}

	composed, err := g.composer.Compose(ctx, ComposeInput{
		Student:    candidate.student,
		SessionID:  in.SessionID,
		Month:      in.Month,
		Year:       in.Year,
		DueDate:    in.DueDate,
		FeeTypeIDs: in.FeeTypeIDs,
	})
	if err != nil {
		log.Printf("bill generation failed for student %d: %v", candidate.id, err)
		res.Status = ResultFailed
		res.Reason = err.Error()
		return res
	}

	switch composed.Status {
	case ComposeCreated:
		res.Status = ResultSuccess
		res.BillNo = composed.Bill.BillNo
		res.Amount = composed.Bill.NetAmount
	default:
		res.Status = ResultSkipped
		res.Reason = composed.Reason
	}
	return res
}

type studentCandidate struct {
	id      uint
	name    string
	student *models.Student
}

func toCandidates(students []models.Student) []studentCandidate {
	out := make([]studentCandidate, 0, len(students))
	for i := range students {
		out = append(out, studentCandidate{id: students[i].ID, name: students[i].Name, student: &students[i]})
	}
	return out
}

func (g *BatchGenerator) resolveCandidates(ctx context.Context, in BatchInput) ([]studentCandidate, error) {
	switch {
	case in.Target.StudentID > 0:
		student, err := g.store.Students().ByID(ctx, in.Target.StudentID)
		if err != nil {
			return nil, err
		}
		return []studentCandidate{{id: student.ID, name: student.Name, student: student}}, nil
	case in.Target.ClassName != "":
		students, err := g.store.Students().ActiveByClass(ctx, in.SessionID, in.Target.ClassName, in.Target.Section)
		if err != nil {
			return nil, err
		}
		return toCandidates(students), nil
	default:
		students, err := g.store.Students().ActiveBySession(ctx, in.SessionID)
		if err != nil {
			return nil, err
		}
		return toCandidates(students), nil
	}
}
