package simulation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"k8s.io/utils/clock"

	"github.com/Ofi-Services/unified-backend/internal/random"
	"github.com/Ofi-Services/unified-backend/model"
)

const (
	// DefaultMeanStep is the mean of the exponential delay between stages.
	DefaultMeanStep = 12 * time.Hour

	// DefaultMaxSteps bounds the number of transitions of one case.
	DefaultMaxSteps = 10000
)

// ErrStepLimit is returned when a case exceeds the engine's step budget.
var ErrStepLimit = errors.New("case exceeded step limit")

// Result summarizes one case run.
type Result struct {
	Final      Stage
	Outcome    Outcome
	Activities int
	Reworks    int
	Bills      int
}

// Engine walks one case through the workflow graph.
type Engine struct {
	graph    *Graph
	store    Store
	reworks  *ReworkRecorder
	biller   *Biller
	src      random.Source
	meanStep time.Duration
	maxSteps int
	recorder Recorder
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithMeanStep overrides the mean delay between stages.
func WithMeanStep(d time.Duration) EngineOption {
	return func(e *Engine) {
		if d > 0 {
			e.meanStep = d
		}
	}
}

// WithMaxSteps overrides the per-case step budget.
func WithMaxSteps(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.maxSteps = n
		}
	}
}

// WithRecorder attaches a metrics recorder.
func WithRecorder(r Recorder) EngineOption {
	return func(e *Engine) {
		if r != nil {
			e.recorder = r
		}
	}
}

// NewEngine creates a workflow engine. All branch, delay and cause draws
// come from src; the billing "now" comes from clk.
func NewEngine(
	graph *Graph,
	store Store,
	src random.Source,
	causes []string,
	clk clock.PassiveClock,
	opts ...EngineOption,
) *Engine {
	e := &Engine{
		graph:    graph,
		store:    store,
		reworks:  NewReworkRecorder(store, src, causes),
		biller:   NewBiller(store, clk),
		src:      src,
		meanStep: DefaultMeanStep,
		maxSteps: DefaultMaxSteps,
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run advances c from Start until a terminal stage. c.LastTimestamp must hold
// the initial simulated time. Rows already written stay in the store when Run
// fails part-way.
func (e *Engine) Run(ctx context.Context, c *model.Case, caseIndex int) (Result, error) {
	var res Result

	// 1. Log the Start activity at the initial timestamp.
	c.State = Start.String()
	if _, err := e.log(ctx, c, caseIndex, Start, Node{}); err != nil {
		return res, err
	}
	res.Activities++

	// 2. Route by workflow type.
	stage, ok := e.graph.Entry(c.Type)
	if !ok {
		return res, model.NewBadRequestError(fmt.Sprintf("unknown workflow type %q", c.Type))
	}

	for steps := 1; ; steps++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		// 3. Enforce the step budget.
		if steps > e.maxSteps {
			return res, fmt.Errorf("case %d at %s: %w (%d)", c.ID, stage, ErrStepLimit, e.maxSteps)
		}

		// 4. Advance the clock and log the stage.
		node := e.graph.Node(stage)
		c.LastTimestamp = c.LastTimestamp.Add(random.Exponential(e.src, e.meanStep))
		c.State = stage.String()
		if node.Outcome == OutcomeApproved {
			c.Approved = true
		}
		act, err := e.log(ctx, c, caseIndex, stage, node)
		if err != nil {
			return res, err
		}
		res.Activities++

		// 5. Record the rework of a return stage before re-entering its target.
		if node.Returns {
			if _, err := e.reworks.Record(ctx, act, node.ReturnTo); err != nil {
				return res, fmt.Errorf("case %d: %w", c.ID, err)
			}
			e.recorder.RecordRework(node.ReturnTo.String())
			res.Reworks++
		}

		// 6. Emit bills from the billing stage's timestamp until now.
		if node.Bills {
			n, err := e.biller.Emit(ctx, *c, act.Timestamp)
			if err != nil {
				return res, err
			}
			e.recorder.RecordBills(n)
			res.Bills += n
		}

		// 7. Stop on a terminal stage, otherwise draw the successor.
		next, more := e.graph.Next(e.src, stage)
		if !more {
			res.Final = stage
			res.Outcome = node.Outcome
			return res, nil
		}
		stage = next
	}
}

// log appends the activity for stage at the case's current timestamp and
// persists the case.
func (e *Engine) log(ctx context.Context, c *model.Case, caseIndex int, stage Stage, node Node) (model.Activity, error) {
	act := model.Activity{
		CaseID:    c.ID,
		CaseIndex: caseIndex,
		Name:      stage.String(),
		Timestamp: c.LastTimestamp,
		Rework:    node.Returns,
		Automatic: node.Automatic,
	}
	if err := e.store.AppendActivity(ctx, &act); err != nil {
		return model.Activity{}, fmt.Errorf("insert activity %s for case %d: %w", stage, c.ID, err)
	}
	if err := e.store.UpdateCase(ctx, *c); err != nil {
		return model.Activity{}, fmt.Errorf("update case %d: %w", c.ID, err)
	}
	e.recorder.RecordActivity(act.Name)
	return act, nil
}
