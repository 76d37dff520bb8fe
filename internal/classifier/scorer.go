package classifier

import (
	"strconv"
	"strings"
)

// Breakdown carries the terms of one posterior computation.
type Breakdown struct {
	Category   Category `json:"category"`
	Matched    []string `json:"matched"`  // keywords found in the page, table order
	Accepted   []string `json:"accepted"` // keywords that passed the likelihood gate
	Likelihood float64  `json:"likelihood"`
	Evidence   float64  `json:"evidence"`
	Prior      float64  `json:"prior"`
	Posterior  float64  `json:"posterior"`
}

// Scorer computes naive Bayes posteriors of page text against a keyword table.
type Scorer struct {
	table *Table
}

// NewScorer creates a scorer over a parsed table.
func NewScorer(t *Table) *Scorer {
	return &Scorer{table: t}
}

// Score returns the posterior that text belongs to category c.
//
//	posterior = likelihood * prior / evidence
//
// Every keyword of the in-class list found in text multiplies the evidence. It only
// multiplies the likelihood when the running product does not round to 0.0 at one
// decimal place; otherwise that keyword is left out of the likelihood.
func (s *Scorer) Score(text string, c Category) (float64, error) {
	b, err := s.Explain(text, c)
	if err != nil {
		return 0, err
	}
	return b.Posterior, nil
}

// Explain is Score with the intermediate terms.
func (s *Scorer) Explain(text string, c Category) (Breakdown, error) {
	st, err := s.table.Stats(c)
	if err != nil {
		return Breakdown{}, err
	}

	b := Breakdown{Category: c, Likelihood: 1, Evidence: 1, Prior: st.Prior}
	for _, kw := range st.InClass {
		if !strings.Contains(text, kw.Word) {
			continue
		}
		ev, ok := st.Evidence[kw.Word]
		if !ok {
			return Breakdown{}, &ConfigurationError{Category: c, Field: "evidence", Reason: "no evidence for keyword " + strconv.Quote(kw.Word)}
		}
		b.Matched = append(b.Matched, kw.Word)

		candidate := b.Likelihood * kw.P
		if roundTenths(candidate) != 0 {
			b.Likelihood = candidate
			b.Accepted = append(b.Accepted, kw.Word)
		}
		b.Evidence *= ev
	}

	if b.Evidence == 0 {
		return Breakdown{}, &ScoringError{Category: c, Reason: "evidence is zero for matched keywords " + strings.Join(b.Matched, ", ")}
	}
	b.Posterior = b.Likelihood * b.Prior / b.Evidence
	return b, nil
}

// roundTenths rounds the exact binary value of x to one decimal place, ties to even.
// strconv formats from the exact value, so 0.05 (stored slightly above 0.05) rounds up
// and its predecessor rounds down.
func roundTenths(x float64) float64 {
	r, _ := strconv.ParseFloat(strconv.FormatFloat(x, 'f', 1, 64), 64)
	return r
}
