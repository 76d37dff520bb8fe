// Package report holds the page map produced by a batch run and its JSON file format.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/local/finfinder/internal/classifier"
)

// SummaryKey is the top-level key holding the run summary in a report file.
const SummaryKey = "report"

// DocumentPages maps a category to its 1-based page number as a string.
type DocumentPages map[classifier.Category]string

// Pages maps company -> document -> category -> page.
type Pages map[string]map[string]DocumentPages

// Set records the pages of one document, creating the company entry as needed.
func (p Pages) Set(company, document string, pages DocumentPages) {
	docs, ok := p[company]
	if !ok {
		docs = make(map[string]DocumentPages)
		p[company] = docs
	}
	if pages == nil {
		pages = DocumentPages{}
	}
	docs[document] = pages
}

// AddCompany makes sure a company is present even when none of its documents succeed.
func (p Pages) AddCompany(company string) {
	if _, ok := p[company]; !ok {
		p[company] = make(map[string]DocumentPages)
	}
}

// Companies returns company names sorted.
func (p Pages) Companies() []string {
	out := make([]string, 0, len(p))
	for c := range p {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Accuracy compares a page map against labeled pages.
type Accuracy struct {
	TotalMatches          int     `json:"Total matches"`
	Accuracy              float64 `json:"Accuracy"`
	StatementMatches      int     `json:"Statement matches"`
	TotalStatements       int     `json:"Total statements"`
	StatementAccuracy     float64 `json:"Statement accuracy"`
	BalanceSheetsAccuracy float64 `json:"Balance Sheets accuracy"`
	CashFlowsAccuracy     float64 `json:"Cash Flow accuracy"`
	IncomeAccuracy        float64 `json:"Income accuracy"`
}

// Summary carries the run counters and, after evaluation, the accuracy figures.
type Summary struct {
	PageErrors     int `json:"Page errors"`
	FileErrors     int `json:"File errors"`
	LonersFound    int `json:"Loners found"`
	FilesProcessed int `json:"Total files processed"`
	*Accuracy
}

// Report is the full content of a report file.
type Report struct {
	Pages   Pages
	Summary Summary
}

// MarshalJSON writes companies at the top level next to the summary key.
func (r Report) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(r.Pages)+1)
	for company, docs := range r.Pages {
		if company == SummaryKey {
			return nil, fmt.Errorf("company name %q collides with the summary key", company)
		}
		out[company] = docs
	}
	out[SummaryKey] = r.Summary
	return json.Marshal(out)
}

// UnmarshalJSON reads the layout written by MarshalJSON. The summary key is optional,
// so labeled page files load as reports too.
func (r *Report) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.Pages = make(Pages, len(raw))
	r.Summary = Summary{}
	for key, msg := range raw {
		if key == SummaryKey {
			if err := json.Unmarshal(msg, &r.Summary); err != nil {
				return fmt.Errorf("decode %s: %w", SummaryKey, err)
			}
			continue
		}
		var docs map[string]DocumentPages
		if err := json.Unmarshal(msg, &docs); err != nil {
			return fmt.Errorf("decode company %q: %w", key, err)
		}
		if docs == nil {
			docs = make(map[string]DocumentPages)
		}
		r.Pages[key] = docs
	}
	return nil
}

// FileName returns the report file name for a run finished at now.
func FileName(now time.Time) string {
	return fmt.Sprintf("finfinder-report-%s.json", cleanTime(now))
}

func cleanTime(now time.Time) string {
	s := now.UTC().Format("2006-01-02 15:04:05.000000")
	return strings.NewReplacer(" ", "-", ":", "-", ".", "-").Replace(s)
}

// Encode renders r as 4-space indented JSON.
func Encode(r Report) ([]byte, error) {
	raw, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "    "); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// Write stores r under dir with a timestamped name and returns the path.
func Write(dir string, r Report, now time.Time) (string, error) {
	data, err := Encode(r)
	if err != nil {
		return "", fmt.Errorf("encode report: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}
	p := filepath.Join(dir, FileName(now))
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return "", err
	}
	return p, nil
}

// Read loads a report or a labeled page file.
func Read(path string) (Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Report{}, err
	}
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return Report{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return r, nil
}
