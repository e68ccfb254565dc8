// Package invoice generates duplicate and near-duplicate invoice groups for
// the deduplication demo and scores how similar two invoices are.
package invoice

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Ofi-Services/unified-backend/internal/random"
	"github.com/Ofi-Services/unified-backend/internal/vocabulary"
	"github.com/Ofi-Services/unified-backend/model"
)

// Seed is one invoice group description. The first invoice of the group is
// built from it and the duplicates are mutated copies.
type Seed struct {
	// DueDate is the month/day/year date of the group, empty when unknown.
	DueDate             string
	Value               float64
	Vendor              string
	Pattern             string
	GroupID             string
	Confidence          string
	Description         string
	SpecialInstructions string
	// Contains lists the statuses present in the group; "Open" marks the
	// group open.
	Contains string
}

// SeedDateLayout is the layout of Seed.DueDate. Zero padding is optional.
const SeedDateLayout = "1/2/2006"

// CSV column names of a seed export.
const (
	colDueDate      = "Earliest Due Date"
	colValue        = "Group Value"
	colVendor       = "Vendor"
	colPattern      = "Group Pattern"
	colGroupID      = "Group UUID"
	colConfidence   = "Confidence"
	colDescription  = "Description"
	colInstructions = "Special Intructions"
	colContains     = "Group Contains"
)

var requiredColumns = []string{colDueDate, colValue, colVendor, colPattern, colGroupID, colConfidence, colDescription, colContains}

// ReadSeeds parses a seed CSV export with a header row. The special
// instructions column is optional and accepted under either spelling.
func ReadSeeds(r io.Reader) ([]Seed, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("seed csv: missing header")
	}
	if err != nil {
		return nil, fmt.Errorf("seed csv: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.TrimPrefix(strings.TrimSpace(h), "\ufeff")] = i
	}
	var missing []string
	for _, c := range requiredColumns {
		if _, ok := cols[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("seed csv: missing columns: %s", strings.Join(missing, ", "))
	}
	instructions, ok := cols[colInstructions]
	if !ok {
		instructions, ok = cols["Special Instructions"]
	}
	if !ok {
		instructions = -1
	}
	get := func(rec []string, i int) string {
		if i < 0 || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var seeds []Seed
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("seed csv: %w", err)
		}

		value, err := strconv.ParseFloat(get(rec, cols[colValue]), 64)
		if err != nil {
			return nil, fmt.Errorf("seed csv line %d: invalid %s: %w", line, colValue, err)
		}
		due := get(rec, cols[colDueDate])
		if due != "" {
			if _, err := time.Parse(SeedDateLayout, due); err != nil {
				return nil, fmt.Errorf("seed csv line %d: invalid date format: %s", line, due)
			}
		}
		seeds = append(seeds, Seed{
			DueDate:             due,
			Value:               value,
			Vendor:              get(rec, cols[colVendor]),
			Pattern:             get(rec, cols[colPattern]),
			GroupID:             get(rec, cols[colGroupID]),
			Confidence:          get(rec, cols[colConfidence]),
			Description:         get(rec, cols[colDescription]),
			SpecialInstructions: get(rec, instructions),
			Contains:            get(rec, cols[colContains]),
		})
	}
	return seeds, nil
}

var (
	seedPatterns = []string{
		model.PatternExactMatch,
		model.PatternSimilarValue,
		model.PatternSimilarVendor,
		model.PatternSimilarDate,
		model.PatternSimilarReference,
		model.PatternSimilarDescription,
	}
	seedConfidences = []string{"High", "Medium", "Low", "None"}
	seedContains    = []string{"Open", "Closed", "Open, Closed", "Paid"}
)

// SyntheticSeeds draws n seeds from the vocabulary for runs without a CSV
// export. Group ids are random UUIDs.
func SyntheticSeeds(vocab *vocabulary.Vocabulary, src random.Source, n int) []Seed {
	seeds := make([]Seed, 0, n)
	for i := 0; i < n; i++ {
		s := Seed{
			Value:               float64(random.Between(src, 100, 20000)),
			Vendor:              fmt.Sprintf("V%04d - %s", random.Between(src, 1, 9999), random.Choice(src, vocab.Vendors)),
			Pattern:             random.Choice(src, seedPatterns),
			GroupID:             uuid.NewString(),
			Description:         random.Choice(src, vocab.Descriptions),
			SpecialInstructions: random.Choice(src, vocab.SpecialInstructions),
			Contains:            random.Choice(src, seedContains),
		}
		if s.Pattern == model.PatternExactMatch {
			s.Confidence = "Exact"
		} else {
			s.Confidence = random.Choice(src, seedConfidences)
		}
		if random.Percent(src) > 20 {
			due := BaseDate.AddDate(0, 0, random.Between(src, 0, 180))
			s.DueDate = due.Format(SeedDateLayout)
		}
		seeds = append(seeds, s)
	}
	return seeds
}
