package billing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Sumit21adm/School-Management-System-sub005/internal/models"
)

func newBatchGeneratorWith(store *fakeStore, workers int) *BatchGenerator {
	composer := NewBillComposer(store, NewMemoryLocker())
	return NewBatchGenerator(store, composer, workers)
}

func batchInputClass(className string) BatchInput {
	return BatchInput{
		SessionID: 1,
		Month:     4,
		Year:      2026,
		DueDate:   time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC),
		Target:    Target{ClassName: className},
	}
}

func TestGenerateIsolatesFailures(t *testing.T) {
	store := newFakeStore()
	store.setLines(1, "5", StructureLine{FeeTypeID: 1, FeeTypeName: "Tuition", Amount: 100000})
	for id := uint(1); id <= 5; id++ {
		s := testStudent(id)
		store.addStudent(s)
	}
	// Student 3's insert blows up; student 4 already has this period's bill.
	store.createBillErr[3] = errors.New("connection reset")
	store.addBill(models.DemandBill{
		StudentID: 4, SessionID: 1, Month: 4, Year: 2026,
		NetAmount: 100000, Status: models.BillStatusPending,
	})

	generator := newBatchGeneratorWith(store, 3)
	result, err := generator.Generate(context.Background(), batchInputClass("5"))
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if result.Total != 5 {
		t.Errorf("Total = %d, want 5", result.Total)
	}
	if result.Generated != 3 {
		t.Errorf("Generated = %d, want 3", result.Generated)
	}
	if result.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", result.Skipped)
	}
	if result.Failed != 1 {
		t.Errorf("Failed = %d, want 1", result.Failed)
	}

	byStudent := make(map[uint]StudentResult, len(result.Results))
	for _, r := range result.Results {
		byStudent[r.StudentID] = r
	}
	if r := byStudent[3]; r.Status != ResultFailed || r.Reason == "" {
		t.Errorf("student 3: %+v, want failed with reason", r)
	}
	if r := byStudent[4]; r.Status != ResultSkipped || r.Reason != SkipDuplicate {
		t.Errorf("student 4: %+v, want skipped duplicate", r)
	}
	if r := byStudent[1]; r.Status != ResultSuccess || r.BillNo != "BILL-2026-04-1" {
		t.Errorf("student 1: %+v, want success with bill no", r)
	}
}

func TestGenerateSingleStudentTarget(t *testing.T) {
	store := newFakeStore()
	store.setLines(1, "5", StructureLine{FeeTypeID: 1, FeeTypeName: "Tuition", Amount: 100000})
	store.addStudent(testStudent(7))
	store.addStudent(testStudent(8))

	generator := newBatchGeneratorWith(store, 2)
	in := batchInputClass("")
	in.Target = Target{StudentID: 7}

	result, err := generator.Generate(context.Background(), in)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if result.Total != 1 || result.Generated != 1 {
		t.Errorf("total=%d generated=%d, want 1/1", result.Total, result.Generated)
	}
	if result.Results[0].StudentID != 7 {
		t.Errorf("billed student %d, want 7", result.Results[0].StudentID)
	}
}

func TestGenerateUnknownStudent(t *testing.T) {
	store := newFakeStore()
	generator := newBatchGeneratorWith(store, 1)
	in := batchInputClass("")
	in.Target = Target{StudentID: 42}

	if _, err := generator.Generate(context.Background(), in); !errors.Is(err, ErrStudentNotFound) {
		t.Errorf("err = %v, want ErrStudentNotFound", err)
	}
}

func TestGenerateSectionFilter(t *testing.T) {
	store := newFakeStore()
	store.setLines(1, "5", StructureLine{FeeTypeID: 1, FeeTypeName: "Tuition", Amount: 100000})
	a := testStudent(1)
	b := testStudent(2)
	b.Section = "B"
	store.addStudent(a)
	store.addStudent(b)

	generator := newBatchGeneratorWith(store, 2)
	in := batchInputClass("5")
	in.Target.Section = "B"

	result, err := generator.Generate(context.Background(), in)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if result.Total != 1 || result.Results[0].StudentID != 2 {
		t.Errorf("section filter selected %+v, want only student 2", result.Results)
	}
}

func TestGenerateSkipsArchivedStudents(t *testing.T) {
	store := newFakeStore()
	store.setLines(1, "5", StructureLine{FeeTypeID: 1, FeeTypeName: "Tuition", Amount: 100000})
	active := testStudent(1)
	archived := testStudent(2)
	archived.Status = models.StudentStatusArchived
	store.addStudent(active)
	store.addStudent(archived)

	generator := newBatchGeneratorWith(store, 2)
	in := batchInputClass("")

	result, err := generator.Generate(context.Background(), in)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if result.Total != 1 || result.Results[0].StudentID != 1 {
		t.Errorf("archived student was billed: %+v", result.Results)
	}
}

func TestGenerateEmptyCandidateSet(t *testing.T) {
	store := newFakeStore()
	generator := newBatchGeneratorWith(store, 2)

	result, err := generator.Generate(context.Background(), batchInputClass("12"))
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if result.Total != 0 || len(result.Results) != 0 {
		t.Errorf("expected empty result, got %+v", result)
	}
}
