package simulation

import (
	"context"
	"fmt"
	"time"

	"github.com/Ofi-Services/unified-backend/internal/random"
	"github.com/Ofi-Services/unified-backend/internal/vocabulary"
	"github.com/Ofi-Services/unified-backend/model"
)

// BaseTime is the origin every initial case timestamp is offset from.
var BaseTime = time.Date(2025, time.January, 1, 12, 0, 0, 0, time.UTC)

// insuranceTerms are the policy lengths in days.
var insuranceTerms = []int{180, 365, 730}

// predatePercent is the chance that the insurance predates the case.
const predatePercent = 10

// Generator builds synthetic cases.
type Generator struct {
	vocab *vocabulary.Vocabulary
	src   random.Source
	ids   *IDAllocator
	store Store
	base  time.Time
}

// NewGenerator creates a case generator.
func NewGenerator(vocab *vocabulary.Vocabulary, src random.Source, ids *IDAllocator, store Store) *Generator {
	return &Generator{vocab: vocab, src: src, ids: ids, store: store, base: BaseTime}
}

// Build draws a fully populated case without persisting it. The case's
// LastTimestamp holds the initial simulated time.
func (g *Generator) Build() (model.Case, error) {
	caseType := random.Choice(g.src, model.WorkflowTypes)

	id, err := g.ids.Next()
	if err != nil {
		return model.Case{}, err
	}

	initial := g.base.
		Add(time.Duration(random.Between(g.src, 1, 76)) * 24 * time.Hour).
		Add(time.Duration(random.Between(g.src, 1, 24)) * time.Hour).
		Add(time.Duration(random.Between(g.src, 1, 60)) * time.Minute).
		Add(time.Duration(random.Between(g.src, 1, 60)) * time.Second)

	c := model.Case{
		ID:              id,
		Type:            caseType,
		Value:           float64(random.Between(g.src, 10, 100) * 100),
		InsuranceNumber: fmt.Sprintf("%06d", random.Between(g.src, 1, 100000)),
		Branch:          random.Choice(g.src, g.vocab.Branches),
		Ramo:            random.Choice(g.src, g.vocab.Ramos),
		Broker:          random.Choice(g.src, g.vocab.Names),
		Client:          random.Choice(g.src, g.vocab.Names),
		Creator:         random.Choice(g.src, g.vocab.Names),
		State:           Start.String(),
		LastTimestamp:   initial,
	}

	sign := time.Duration(1)
	if random.Percent(g.src) <= predatePercent {
		sign = -1
	}
	day := 24 * time.Hour
	c.InsuranceCreation = initial.Add(sign * time.Duration(random.Between(g.src, 1, 5)) * day)
	c.InsuranceStart = initial.Add(sign * time.Duration(random.Between(g.src, 1, 5)) * day)
	c.InsuranceEnd = c.InsuranceStart.Add(time.Duration(random.Choice(g.src, insuranceTerms)) * day)

	return c, nil
}

// NewCase builds a case and persists it.
func (g *Generator) NewCase(ctx context.Context) (model.Case, error) {
	c, err := g.Build()
	if err != nil {
		return model.Case{}, err
	}
	if err := g.store.CreateCase(ctx, c); err != nil {
		return model.Case{}, fmt.Errorf("insert case %d: %w", c.ID, err)
	}
	return c, nil
}
