package simulation

import (
	"context"
	"fmt"

	"github.com/Ofi-Services/unified-backend/internal/random"
	"github.com/Ofi-Services/unified-backend/model"
)

// NewRework builds the rework record for a return activity. first is the
// earliest activity of the case bearing the target stage name, or nil when the
// case never reached it; the cost is then 0. Cost never goes negative.
func NewRework(returnActivity model.Activity, target Stage, first *model.Activity, cause string) model.Rework {
	cost := 0.0
	if first != nil {
		cost = returnActivity.Timestamp.Sub(first.Timestamp).Seconds()
		if cost < 0 {
			cost = 0
		}
	}
	return model.Rework{
		ActivityID: returnActivity.ID,
		Target:     target.String(),
		Cost:       cost,
		Cause:      cause,
	}
}

// ReworkRecorder persists a rework record each time a case is sent back to
// an earlier stage.
type ReworkRecorder struct {
	store  Store
	src    random.Source
	causes []string
}

// NewReworkRecorder creates a recorder drawing causes uniformly from causes.
func NewReworkRecorder(store Store, src random.Source, causes []string) *ReworkRecorder {
	return &ReworkRecorder{store: store, src: src, causes: causes}
}

// Record looks up the first activity of the case named after target, builds
// the rework for returnActivity, and stores it.
func (r *ReworkRecorder) Record(ctx context.Context, returnActivity model.Activity, target Stage) (model.Rework, error) {
	first, found, err := r.store.FirstActivity(ctx, returnActivity.CaseID, target.String())
	if err != nil {
		return model.Rework{}, fmt.Errorf("lookup first %s activity: %w", target, err)
	}

	var anchor *model.Activity
	if found {
		anchor = &first
	}

	rw := NewRework(returnActivity, target, anchor, random.Choice(r.src, r.causes))
	if err := r.store.CreateRework(ctx, &rw); err != nil {
		return model.Rework{}, fmt.Errorf("insert rework: %w", err)
	}
	return rw, nil
}
