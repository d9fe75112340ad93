package rename

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Pair is one literal substitution applied to measure names.
type Pair struct {
	From string `yaml:"from" koanf:"from"`
	To   string `yaml:"to" koanf:"to"`
}

// ApplyPairs applies every pair to name in order. Each substitution sees the
// output of the previous one.
func ApplyPairs(name string, pairs []Pair) string {
	for _, p := range pairs {
		if p.From == "" {
			continue
		}
		name = strings.ReplaceAll(name, p.From, p.To)
	}
	return name
}

// ParsePair parses "From=To". The first '=' separates the two halves.
func ParsePair(s string) (Pair, error) {
	from, to, ok := strings.Cut(s, "=")
	if !ok {
		return Pair{}, fmt.Errorf("invalid pair %q: expected From=To", s)
	}
	if from == "" {
		return Pair{}, fmt.Errorf("invalid pair %q: empty search text", s)
	}
	return Pair{From: from, To: to}, nil
}

// pairsFile is the on-disk shape of a pairs file:
//
//	pairs:
//	  - from: Sales
//	    to: Revenue
type pairsFile struct {
	Pairs []Pair `yaml:"pairs"`
}

// LoadPairsFile reads replacement pairs from a YAML file.
func LoadPairsFile(path string) ([]Pair, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pairs file: %w", err)
	}

	var f pairsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse pairs file %s: %w", path, err)
	}
	for i, p := range f.Pairs {
		if p.From == "" {
			return nil, fmt.Errorf("pairs file %s: pair %d has an empty 'from'", path, i+1)
		}
	}
	return f.Pairs, nil
}
