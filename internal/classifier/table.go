package classifier

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Keyword is a single keyword probability. Keywords keep the order of the source file
// because the scorer's acceptance gate depends on the order in which they are applied.
type Keyword struct {
	Word string
	P    float64
}

// CategoryStats holds the trained statistics of one category.
type CategoryStats struct {
	InClass    []Keyword
	NotInClass []Keyword
	Evidence   map[string]float64
	Prior      float64

	hasInClass bool
	hasPrior   bool
}

// Table is the keyword probability table. It is read-only once parsed and safe to
// share between goroutines.
type Table struct {
	categories map[Category]*CategoryStats
}

// field aliases: the trained files produced by the training scripts use is_class/is_not_class.
var fieldAliases = map[string]string{
	"in_class":     "in_class",
	"is_class":     "in_class",
	"not_in_class": "not_in_class",
	"is_not_class": "not_in_class",
	"evidence":     "evidence",
	"prior":        "prior",
}

// LoadTable reads a keyword table from a JSON file, or a YAML file when the name ends
// in .yaml or .yml, and checks that every category is complete.
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read keyword table: %w", err)
	}
	parse := ParseTable
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		parse = ParseTableYAML
	}
	t, err := parse(data)
	if err != nil {
		return nil, err
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// ParseTable decodes a JSON keyword table, keeping keyword order. A keyword listed
// twice keeps its first position and its last probability. Categories that are
// absent are reported when they are scored.
func ParseTable(data []byte) (*Table, error) {
	root, err := decodeJSON(data)
	if err != nil {
		return nil, fmt.Errorf("decode keyword table: %w", err)
	}
	return buildTable(root)
}

// ParseTableYAML decodes the same table written as YAML.
func ParseTableYAML(data []byte) (*Table, error) {
	root, err := decodeYAML(data)
	if err != nil {
		return nil, fmt.Errorf("decode keyword table: %w", err)
	}
	return buildTable(root)
}

func buildTable(root *node) (*Table, error) {
	t := &Table{categories: make(map[Category]*CategoryStats)}
	if root == nil {
		return t, nil
	}
	if root.kind != objectNode {
		return nil, fmt.Errorf("decode keyword table: top level must be an object")
	}
	for _, key := range root.keys {
		c, err := ParseCategory(key)
		if err != nil {
			// extra entries (metadata, other statements) are not ours to judge
			continue
		}
		st, err := parseCategory(c, root.fields[key])
		if err != nil {
			return nil, err
		}
		t.categories[c] = st
	}
	return t, nil
}

func parseCategory(c Category, n *node) (*CategoryStats, error) {
	if n.kind != objectNode {
		return nil, &ConfigurationError{Category: c, Reason: "entry must be an object"}
	}
	st := &CategoryStats{Evidence: make(map[string]float64)}
	for _, key := range n.keys {
		field, ok := fieldAliases[key]
		if !ok {
			continue
		}
		val := n.fields[key]
		switch field {
		case "in_class":
			kws, err := parseKeywords(c, field, val)
			if err != nil {
				return nil, err
			}
			st.InClass = kws
			st.hasInClass = true
		case "not_in_class":
			kws, err := parseKeywords(c, field, val)
			if err != nil {
				return nil, err
			}
			st.NotInClass = kws
		case "evidence":
			kws, err := parseKeywords(c, field, val)
			if err != nil {
				return nil, err
			}
			for _, kw := range kws {
				st.Evidence[kw.Word] = kw.P
			}
		case "prior":
			p, err := parseProb(c, field, val)
			if err != nil {
				return nil, err
			}
			st.Prior = p
			st.hasPrior = true
		}
	}
	return st, nil
}

func parseKeywords(c Category, field string, n *node) ([]Keyword, error) {
	if n.kind != objectNode {
		return nil, &ConfigurationError{Category: c, Field: field, Reason: "must be a keyword object"}
	}
	out := make([]Keyword, 0, len(n.keys))
	for _, word := range n.keys {
		p, err := parseProb(c, field, n.fields[word])
		if err != nil {
			return nil, err
		}
		out = append(out, Keyword{Word: word, P: p})
	}
	return out, nil
}

func parseProb(c Category, field string, n *node) (float64, error) {
	if n.kind != numberNode {
		return 0, &ConfigurationError{Category: c, Field: field, Reason: fmt.Sprintf("invalid probability %q", n.raw)}
	}
	if n.num < 0 || n.num > 1 {
		return 0, &ConfigurationError{Category: c, Field: field, Reason: fmt.Sprintf("probability %v outside [0,1]", n.num)}
	}
	return n.num, nil
}

// Stats returns the statistics of a category. Missing categories, keyword classes and
// priors are configuration errors.
func (t *Table) Stats(c Category) (*CategoryStats, error) {
	st, ok := t.categories[c]
	if !ok {
		return nil, &ConfigurationError{Category: c, Reason: "category missing from keyword table"}
	}
	if !st.hasInClass {
		return nil, &ConfigurationError{Category: c, Field: "in_class", Reason: "missing"}
	}
	if !st.hasPrior {
		return nil, &ConfigurationError{Category: c, Field: "prior", Reason: "missing"}
	}
	return st, nil
}

// Validate checks that all three categories are present and that every in-class
// keyword has an evidence probability.
func (t *Table) Validate() error {
	for _, c := range Categories {
		st, err := t.Stats(c)
		if err != nil {
			return err
		}
		for _, kw := range st.InClass {
			if _, ok := st.Evidence[kw.Word]; !ok {
				return &ConfigurationError{Category: c, Field: "evidence", Reason: fmt.Sprintf("no evidence for keyword %q", kw.Word)}
			}
		}
	}
	return nil
}
