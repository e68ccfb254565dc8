// Package vocabulary loads the fixed word lists the generators draw from:
// people, branches, lines of business, rework causes, and invoice and
// inventory attributes.
package vocabulary

import (
	"crypto/sha256"
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ReworkCauseCount is the size of the rework cause vocabulary.
const ReworkCauseCount = 7

//go:embed vocabulary.yaml
var defaultVocabulary []byte

// Vocabulary holds every word list used by the generators.
type Vocabulary struct {
	Names               []string `yaml:"names"`
	Branches            []string `yaml:"branches"`
	Ramos               []string `yaml:"ramos"`
	ReworkCauses        []string `yaml:"rework_causes"`
	Regions             []string `yaml:"regions"`
	PaymentMethods      []string `yaml:"payment_methods"`
	Vendors             []string `yaml:"vendors"`
	Descriptions        []string `yaml:"descriptions"`
	SpecialInstructions []string `yaml:"special_instructions"`
	Products            []string `yaml:"products"`

	// Checksum is the SHA-256 of the source document.
	Checksum string `yaml:"-"`
	// SourceFile is the path the vocabulary was read from, empty for the
	// embedded default.
	SourceFile string `yaml:"-"`
}

// Default returns the embedded vocabulary.
func Default() (*Vocabulary, error) {
	v, err := Parse(defaultVocabulary)
	if err != nil {
		return nil, fmt.Errorf("embedded vocabulary: %w", err)
	}
	return v, nil
}

// Load reads a vocabulary from path. An empty path yields the embedded
// default.
func Load(path string) (*Vocabulary, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	v, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	v.SourceFile = path
	return v, nil
}

// Parse decodes and validates a YAML vocabulary document.
func Parse(data []byte) (*Vocabulary, error) {
	var v Vocabulary
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	if err := v.Validate(); err != nil {
		return nil, err
	}
	v.Checksum = fmt.Sprintf("%x", sha256.Sum256(data))
	return &v, nil
}

// Validate checks that every list the generators draw from is populated.
func (v *Vocabulary) Validate() error {
	var errs []string

	required := []struct {
		name  string
		items []string
	}{
		{"names", v.Names},
		{"branches", v.Branches},
		{"ramos", v.Ramos},
		{"regions", v.Regions},
		{"payment_methods", v.PaymentMethods},
		{"vendors", v.Vendors},
		{"descriptions", v.Descriptions},
		{"products", v.Products},
	}
	for _, r := range required {
		if len(r.items) == 0 {
			errs = append(errs, r.name+" must not be empty")
		}
	}
	if len(v.ReworkCauses) != ReworkCauseCount {
		errs = append(errs, fmt.Sprintf("rework_causes must have exactly %d entries, got %d",
			ReworkCauseCount, len(v.ReworkCauses)))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}
