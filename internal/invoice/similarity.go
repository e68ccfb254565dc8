package invoice

import (
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/hbollon/go-edlib"

	"github.com/Ofi-Services/unified-backend/model"
)

// Level classifies a similarity score.
type Level string

// Similarity levels, highest first.
const (
	LevelExact  Level = "EXACT"
	LevelHigh   Level = "HIGH"
	LevelMedium Level = "MEDIUM"
	LevelLow    Level = "LOW"
	LevelNone   Level = "NONE"
)

// LevelOf maps a score in [0,1] to its level.
func LevelOf(score float64) Level {
	switch {
	case score == 1:
		return LevelExact
	case score > 0.95:
		return LevelHigh
	case score > 0.9:
		return LevelMedium
	case score > 0.8:
		return LevelLow
	default:
		return LevelNone
	}
}

var normalizer = strings.NewReplacer(" ", "", "-", "", "/", "", ".", "")

// Normalize drops spaces, dashes, slashes and dots and lowercases the rest.
func Normalize(s string) string {
	return strings.ToLower(normalizer.Replace(s))
}

// DamerauLevenshtein is the normalized Damerau-Levenshtein similarity of the
// normalized strings. Suited to typos in long strings.
func DamerauLevenshtein(a, b string) float64 {
	return edlibSimilarity(Normalize(a), Normalize(b), edlib.DamerauLevenshtein)
}

// JaroWinkler is the Jaro-Winkler similarity of the normalized strings.
// Suited to typos in short strings.
func JaroWinkler(a, b string) float64 {
	return edlibSimilarity(Normalize(a), Normalize(b), edlib.JaroWinkler)
}

// Jaccard is the Jaccard index of the character sets of the normalized
// strings.
func Jaccard(a, b string) float64 {
	a, b = Normalize(a), Normalize(b)
	if a == b {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}
	return float64(edlib.JaccardSimilarity(a, b, 1))
}

// Indel is the indel similarity ratio of the normalized strings:
// 2*LCS / (len(a)+len(b)).
func Indel(a, b string) float64 {
	a, b = Normalize(a), Normalize(b)
	if a == b {
		return 1
	}
	total := utf8.RuneCountInString(a) + utf8.RuneCountInString(b)
	if total == 0 {
		return 1
	}
	return 2 * float64(edlib.LCS(a, b)) / float64(total)
}

func edlibSimilarity(a, b string, algo edlib.Algorithm) float64 {
	if a == b {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}
	sim, err := edlib.StringsSimilarity(a, b, algo)
	if err != nil {
		return 0
	}
	return float64(sim)
}

// Field is one comparable attribute of an invoice.
type Field struct {
	Name  string
	Value string
}

// DateLayout is the textual date form used when comparing invoices.
const DateLayout = "1/2/2006"

// Fields returns the comparable attributes of an invoice in a fixed order.
func Fields(inv model.Invoice) []Field {
	return []Field{
		{"reference", inv.Reference},
		{"date", inv.Date.Format(DateLayout)},
		{"value", strconv.FormatFloat(inv.Value, 'f', -1, 64)},
		{"vendor", inv.Vendor},
		{"region", inv.Region},
		{"description", inv.Description},
		{"payment_method", inv.PaymentMethod},
		{"special_instructions", inv.SpecialInstructions},
	}
}

// Stringify joins the normalized field values with spaces.
func Stringify(fields []Field) string {
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = Normalize(f.Value)
	}
	return strings.Join(parts, " ")
}

// Accuracy is the per-field similarity of two invoices.
type Accuracy struct {
	Field string  `json:"field"`
	Score float64 `json:"score"`
}

// FieldAccuracies scores each field of a against the same field of b as the
// better of Damerau-Levenshtein and Jaro-Winkler.
func FieldAccuracies(a, b []Field) []Accuracy {
	byName := make(map[string]string, len(b))
	for _, f := range b {
		byName[f.Name] = f.Value
	}
	out := make([]Accuracy, 0, len(a))
	for _, f := range a {
		other := byName[f.Name]
		out = append(out, Accuracy{
			Field: f.Name,
			Score: max(DamerauLevenshtein(f.Value, other), JaroWinkler(f.Value, other)),
		})
	}
	return out
}

// Patterns names the fields that are similar but not identical.
func Patterns(acc []Accuracy) []string {
	out := []string{}
	for _, a := range acc {
		if a.Score > 0.9 && a.Score < 1 {
			out = append(out, "similar "+a.Field)
		}
	}
	return out
}

// Comparison is the outcome of comparing two invoices.
type Comparison struct {
	Invoice    model.Invoice `json:"invoice"`
	Similarity float64       `json:"similarity"`
	Level      Level         `json:"level"`
	Accuracies []Accuracy    `json:"accuracies"`
	Patterns   []string      `json:"patterns"`
}

// Compare scores candidate against target.
func Compare(target, candidate model.Invoice) Comparison {
	tf, cf := Fields(target), Fields(candidate)
	sim := Indel(Stringify(tf), Stringify(cf))
	acc := FieldAccuracies(tf, cf)
	return Comparison{
		Invoice:    candidate,
		Similarity: sim,
		Level:      LevelOf(sim),
		Accuracies: acc,
		Patterns:   Patterns(acc),
	}
}

// MostSimilar returns the candidates ranked by overall similarity to target,
// best first, skipping target itself. At most limit results are returned
// when limit > 0.
func MostSimilar(target model.Invoice, candidates []model.Invoice, limit int) []Comparison {
	out := make([]Comparison, 0, len(candidates))
	for _, c := range candidates {
		if c.ID == target.ID {
			continue
		}
		out = append(out, Compare(target, c))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Similarity > out[j].Similarity })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
