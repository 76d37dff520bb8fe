package finder

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/local/finfinder/internal/pdftext"
)

var errBrokenPage = errors.New("broken content stream")

// fakeDoc serves canned page text; pages listed in broken fail extraction.
type fakeDoc struct {
	pages  []string
	broken map[int]bool
}

func (d *fakeDoc) NumPage() int { return len(d.pages) }

func (d *fakeDoc) Text(i int) (string, error) {
	if i < 0 || i >= len(d.pages) {
		return "", fmt.Errorf("page %d out of range", i)
	}
	if d.broken[i] {
		return "", errBrokenPage
	}
	return d.pages[i], nil
}

func (d *fakeDoc) Close() error { return nil }

// fakePDFs implements both pdftext.Opener and pdftext.PageCounter, keyed by file base name.
type fakePDFs struct {
	mu        sync.Mutex
	docs      map[string]*fakeDoc
	countErr  map[string]error
	openErr   map[string]error
	extraPage map[string]int // page count reported beyond the text pages
	opened    []string
}

func newFakePDFs() *fakePDFs {
	return &fakePDFs{
		docs:      map[string]*fakeDoc{},
		countErr:  map[string]error{},
		openErr:   map[string]error{},
		extraPage: map[string]int{},
	}
}

func (f *fakePDFs) PageCount(path string) (int, error) {
	name := filepath.Base(path)
	if err := f.countErr[name]; err != nil {
		return 0, err
	}
	d, ok := f.docs[name]
	if !ok {
		return 0, fmt.Errorf("no such document %s", name)
	}
	return len(d.pages) + f.extraPage[name], nil
}

func (f *fakePDFs) Open(path string) (pdftext.Doc, error) {
	name := filepath.Base(path)
	f.mu.Lock()
	f.opened = append(f.opened, name)
	f.mu.Unlock()
	if err := f.openErr[name]; err != nil {
		return nil, err
	}
	return f.docs[name], nil
}

// statementDoc builds a report of n pages with the three statements on pages
// income, balance and cash (zero-based) and filler elsewhere.
func statementDoc(n, income, balance, cash int) *fakeDoc {
	pages := make([]string, n)
	for i := range pages {
		pages[i] = fmt.Sprintf("Management discussion, page %d.", i+1)
	}
	pages[income] = "Consolidated Statement of Revenue\nNet income and Expenses 2019"
	pages[balance] = "Total Assets\nLiabilities (Note 4)"
	pages[cash] = "Cash from Operating Activities"
	return &fakeDoc{pages: pages}
}
