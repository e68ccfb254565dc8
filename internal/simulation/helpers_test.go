package simulation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Ofi-Services/unified-backend/internal/vocabulary"
	"github.com/Ofi-Services/unified-backend/model"
)

// --- Test helpers ---

var errStoreDown = errors.New("store down")

// fakeStore is an in-memory Store that can be told to fail after a number of
// activity inserts.
type fakeStore struct {
	cases      map[int]model.Case
	activities []model.Activity
	reworks    []model.Rework
	bills      []model.Bill

	// failActivityAt makes the n-th AppendActivity call (1-based) fail.
	failActivityAt int
	failCreateCase bool
	appendCalls    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{cases: make(map[int]model.Case)}
}

func (s *fakeStore) CreateCase(_ context.Context, c model.Case) error {
	if s.failCreateCase {
		return errStoreDown
	}
	if _, ok := s.cases[c.ID]; ok {
		return model.NewConflictError("case exists")
	}
	s.cases[c.ID] = c
	return nil
}

func (s *fakeStore) UpdateCase(_ context.Context, c model.Case) error {
	s.cases[c.ID] = c
	return nil
}

func (s *fakeStore) AppendActivity(_ context.Context, a *model.Activity) error {
	s.appendCalls++
	if s.failActivityAt > 0 && s.appendCalls == s.failActivityAt {
		return errStoreDown
	}
	a.ID = int64(len(s.activities) + 1)
	s.activities = append(s.activities, *a)
	return nil
}

func (s *fakeStore) FirstActivity(_ context.Context, caseID int, name string) (model.Activity, bool, error) {
	for _, a := range s.activities {
		if a.CaseID == caseID && a.Name == name {
			return a, true, nil
		}
	}
	return model.Activity{}, false, nil
}

func (s *fakeStore) CreateRework(_ context.Context, r *model.Rework) error {
	r.ID = int64(len(s.reworks) + 1)
	s.reworks = append(s.reworks, *r)
	return nil
}

func (s *fakeStore) CreateBill(_ context.Context, b *model.Bill) error {
	b.ID = int64(len(s.bills) + 1)
	s.bills = append(s.bills, *b)
	return nil
}

func (s *fakeStore) CaseIDs(_ context.Context) ([]int, error) {
	ids := make([]int, 0, len(s.cases))
	for id := range s.cases {
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *fakeStore) activityNames(caseID int) []string {
	var names []string
	for _, a := range s.activities {
		if a.CaseID == caseID {
			names = append(names, a.Name)
		}
	}
	return names
}

// countingRecorder tallies Recorder calls.
type countingRecorder struct {
	activities int
	reworks    int
	bills      int
	completed  map[string]int
	failures   int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{completed: make(map[string]int)}
}

func (r *countingRecorder) RecordActivity(string)    { r.activities++ }
func (r *countingRecorder) RecordRework(string)      { r.reworks++ }
func (r *countingRecorder) RecordBills(n int)        { r.bills += n }
func (r *countingRecorder) RecordCaseFailure(string) { r.failures++ }
func (r *countingRecorder) RecordCaseCompleted(_, outcome string) {
	r.completed[outcome]++
}

// stubAnalyzer returns a fixed variant count.
type stubAnalyzer struct {
	variants int
	err      error
	calls    int
}

func (a *stubAnalyzer) Analyze(context.Context) (int, error) {
	a.calls++
	return a.variants, a.err
}

func testVocabulary(t *testing.T) *vocabulary.Vocabulary {
	t.Helper()
	v, err := vocabulary.Default()
	if err != nil {
		t.Fatalf("vocabulary.Default() error = %v", err)
	}
	return v
}

func testCase(id int, t model.WorkflowType) *model.Case {
	return &model.Case{
		ID:            id,
		Type:          t,
		Value:         2500,
		State:         Start.String(),
		LastTimestamp: time.Date(2025, time.February, 1, 9, 0, 0, 0, time.UTC),
	}
}
