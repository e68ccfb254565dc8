package invoice

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Ofi-Services/unified-backend/internal/observability"
	"github.com/Ofi-Services/unified-backend/internal/random"
	"github.com/Ofi-Services/unified-backend/internal/vocabulary"
	"github.com/Ofi-Services/unified-backend/model"
)

// BaseDate anchors invoice dates that a seed does not provide.
var BaseDate = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

const (
	minDuplicates = 1
	maxDuplicates = 5
	// valueJitter bounds the per-duplicate change of a Similar Value group.
	valueJitter = 30
)

// Store is the persistence the invoice generator writes into.
type Store interface {
	CreateInvoice(ctx context.Context, inv *model.Invoice) error
	CreateInventoryItem(ctx context.Context, item *model.InventoryItem) error
}

// Stats reports what a generation run wrote.
type Stats struct {
	Groups    int `json:"groups"`
	Invoices  int `json:"invoices"`
	Inventory int `json:"inventory"`
}

// Generator writes invoice groups built from seeds.
type Generator struct {
	store   Store
	vocab   *vocabulary.Vocabulary
	src     random.Source
	caseIDs []int
	logger  *zap.Logger
	counter int
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithCaseIDs links every generated group to one of ids, drawn at random.
func WithCaseIDs(ids []int) GeneratorOption {
	return func(g *Generator) { g.caseIDs = ids }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) GeneratorOption {
	return func(g *Generator) { g.logger = l }
}

// NewGenerator creates a Generator.
func NewGenerator(store Store, vocab *vocabulary.Vocabulary, src random.Source, opts ...GeneratorOption) *Generator {
	g := &Generator{store: store, vocab: vocab, src: src, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate writes one group per seed: the original invoice followed by one to
// five duplicates mutated according to the seed's pattern. References are
// numbered INV-<n> across the whole run.
func (g *Generator) Generate(ctx context.Context, seeds []Seed) (stats Stats, err error) {
	ctx, span := observability.StartSpan(ctx, "invoice.generate")
	defer func() {
		span.SetAttributes(observability.AttrInvoiceGroups.Int(stats.Groups))
		observability.EndSpanWithError(span, err)
	}()

	for i, seed := range seeds {
		if err = ctx.Err(); err != nil {
			return stats, err
		}
		var n int
		n, err = g.group(ctx, seed)
		stats.Invoices += n
		if err != nil {
			return stats, fmt.Errorf("seed %d: %w", i, err)
		}
		stats.Groups++
	}
	g.logger.Info("invoices generated",
		zap.Int("groups", stats.Groups),
		zap.Int("invoices", stats.Invoices),
	)
	return stats, nil
}

// Build returns the invoices of one group without storing them. IDs are
// left zero.
func (g *Generator) Build(seed Seed) ([]model.Invoice, error) {
	// 1. The original invoice.
	duplicates := random.Between(g.src, minDuplicates, maxDuplicates)

	date, err := g.groupDate(seed)
	if err != nil {
		return nil, err
	}
	ref := g.nextReference()
	quantity := random.Between(g.src, 1, 12)
	base := model.Invoice{
		Reference:           ref,
		Date:                date,
		Quantity:            quantity,
		UnitPrice:           seed.Value / float64(quantity),
		Value:               seed.Value,
		Vendor:              vendorName(seed.Vendor),
		Region:              random.Choice(g.src, g.vocab.Regions),
		Description:         seed.Description,
		PaymentMethod:       random.Choice(g.src, g.vocab.PaymentMethods),
		SpecialInstructions: seed.SpecialInstructions,
		Pattern:             seed.Pattern,
		GroupID:             seed.GroupID,
		Confidence:          strings.TrimSpace(seed.Confidence),
		Open:                strings.Contains(seed.Contains, "Open"),
	}
	if random.Bool(g.src) {
		paid := date.AddDate(0, 0, random.Between(g.src, 15, 30))
		base.PayDate = &paid
	}
	base.Accuracy = g.accuracy(base.Confidence, base.Pattern)
	if len(g.caseIDs) > 0 {
		id := random.Choice(g.src, g.caseIDs)
		base.CaseID = &id
	}

	// 2. Duplicates. Mutations accumulate from one duplicate to the next.
	out := []model.Invoice{base}
	cur := base
	for i := 0; i < duplicates; i++ {
		cur.Reference = g.nextReference()
		switch seed.Pattern {
		case model.PatternSimilarValue:
			cur.Value += float64(random.Between(g.src, -valueJitter, valueJitter))
		case model.PatternSimilarVendor:
			cur.Vendor = SimilarText(g.src, cur.Vendor)
		case model.PatternSimilarDate:
			cur.Date = cur.Date.AddDate(0, 0, i)
		case model.PatternSimilarReference:
			cur.Reference = SimilarText(g.src, cur.Reference)
		case model.PatternSimilarDescription:
			cur.Description = SimilarText(g.src, cur.Description)
		}
		out = append(out, cur)
	}
	return out, nil
}

func (g *Generator) group(ctx context.Context, seed Seed) (int, error) {
	invoices, err := g.Build(seed)
	if err != nil {
		return 0, err
	}
	for i := range invoices {
		if err := g.store.CreateInvoice(ctx, &invoices[i]); err != nil {
			return i, fmt.Errorf("insert invoice %s: %w", invoices[i].Reference, err)
		}
	}
	return len(invoices), nil
}

func (g *Generator) nextReference() string {
	ref := fmt.Sprintf("INV-%d", g.counter)
	g.counter++
	return ref
}

// groupDate parses the seed's due date or, when it is empty, places the group
// a few days after BaseDate.
func (g *Generator) groupDate(seed Seed) (time.Time, error) {
	if seed.DueDate == "" {
		return BaseDate.AddDate(0, 0, g.counter+random.Between(g.src, 1, 100)), nil
	}
	date, err := time.Parse(SeedDateLayout, seed.DueDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date format: %s", seed.DueDate)
	}
	return date, nil
}

// accuracy draws the displayed accuracy for a confidence label.
func (g *Generator) accuracy(confidence, pattern string) int {
	switch {
	case pattern == model.PatternExactMatch:
		return 100
	case confidence == "High":
		return random.Between(g.src, 95, 99)
	case confidence == "Medium":
		return random.Between(g.src, 90, 94)
	case confidence == "Low":
		return random.Between(g.src, 80, 89)
	default:
		return random.Between(g.src, 0, 49)
	}
}

// vendorName strips a "<code> - " prefix from a vendor label.
func vendorName(v string) string {
	if _, name, ok := strings.Cut(v, " - "); ok {
		return name
	}
	return v
}

// SimilarText applies one random single-character edit to s: delete,
// duplicate or replace with a lowercase letter.
func SimilarText(src random.Source, s string) string {
	r := []rune(s)
	if len(r) == 0 {
		return s
	}
	op := src.IntN(3)
	i := src.IntN(len(r))
	switch op {
	case 0:
		return string(r[:i]) + string(r[i+1:])
	case 1:
		return string(r[:i+1]) + string(r[i:])
	default:
		return string(r[:i]) + string(rune('a'+src.IntN(26))) + string(r[i+1:])
	}
}

// SeedInventory writes n synthetic inventory items.
func (g *Generator) SeedInventory(ctx context.Context, n int) (int, error) {
	for i := 0; i < n; i++ {
		item := model.InventoryItem{
			ProductCode:  fmt.Sprintf("P-%05d", i+1),
			ProductName:  random.Choice(g.src, g.vocab.Products),
			CurrentStock: random.Between(g.src, 0, 500),
			UnitPrice:    float64(random.Between(g.src, 5, 2000)),
			NewProduct:   random.Percent(g.src) <= 10,
		}
		if err := g.store.CreateInventoryItem(ctx, &item); err != nil {
			return i, fmt.Errorf("insert inventory item %s: %w", item.ProductCode, err)
		}
	}
	return n, nil
}
