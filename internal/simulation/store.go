// Package simulation generates synthetic insurance cases and walks each one
// through the workflow graph, logging every stage transition as an activity
// together with the rework and billing records it produces.
package simulation

import (
	"context"

	"github.com/Ofi-Services/unified-backend/model"
)

// Store is the persistence the simulation writes into.
type Store interface {
	// CreateCase persists a new case. It fails with a CONFLICT envelope when
	// the id is already taken.
	CreateCase(ctx context.Context, c model.Case) error

	// UpdateCase persists the mutable fields of a case (state, avg_time,
	// approved).
	UpdateCase(ctx context.Context, c model.Case) error

	// AppendActivity stores a new activity and assigns its ID.
	AppendActivity(ctx context.Context, a *model.Activity) error

	// FirstActivity returns the earliest-stored activity of a case with the
	// given name.
	FirstActivity(ctx context.Context, caseID int, name string) (model.Activity, bool, error)

	// CreateRework stores a rework record and assigns its ID.
	CreateRework(ctx context.Context, r *model.Rework) error

	// CreateBill stores a bill and assigns its ID.
	CreateBill(ctx context.Context, b *model.Bill) error

	// CaseIDs returns the ids of every stored case.
	CaseIDs(ctx context.Context) ([]int, error)
}

// Recorder receives generation events for metrics.
type Recorder interface {
	RecordActivity(stage string)
	RecordRework(target string)
	RecordBills(n int)
	RecordCaseCompleted(workflowType, outcome string)
	RecordCaseFailure(workflowType string)
}

type nopRecorder struct{}

func (nopRecorder) RecordActivity(string)              {}
func (nopRecorder) RecordRework(string)                {}
func (nopRecorder) RecordBills(int)                    {}
func (nopRecorder) RecordCaseCompleted(string, string) {}
func (nopRecorder) RecordCaseFailure(string)           {}
