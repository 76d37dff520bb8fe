package finder

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/local/finfinder/internal/classifier"
	"github.com/local/finfinder/internal/report"
)

const pdfHeader = "%PDF-1.4\n%\xe2\xe3\xcf\xd3\n1 0 obj\n<< /Type /Catalog >>\nendobj\n%%EOF\n"

func writeCompanies(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		if content != "" {
			require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
		}
	}
	return root
}

func TestDiscover(t *testing.T) {
	root := writeCompanies(t, map[string]string{
		"globex/2020.pdf":        pdfHeader,
		"acme/b-2020.pdf":        pdfHeader,
		"acme/a-2019.pdf":        pdfHeader,
		"acme/._a-2019.pdf":      pdfHeader,
		"acme/notes.pdf":         "not a pdf at all",
		"acme/summary.txt":       pdfHeader,
		"initech/.keep":          "",
		".cache/x.pdf":           pdfHeader,
		"loose-file-at-root.pdf": pdfHeader,
	})

	companies, jobs, err := Discover(root)
	require.NoError(t, err)

	assert.Equal(t, []string{"acme", "globex", "initech"}, companies)
	require.Len(t, jobs, 3)
	assert.Equal(t, Job{Company: "acme", Document: "a-2019", Path: filepath.Join(root, "acme", "a-2019.pdf")}, jobs[0])
	assert.Equal(t, "b-2020", jobs[1].Document)
	assert.Equal(t, "globex", jobs[2].Company)
}

func TestDiscoverMissingRoot(t *testing.T) {
	_, _, err := Discover(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestBatchRun(t *testing.T) {
	root := writeCompanies(t, map[string]string{
		"acme/2019.pdf":   pdfHeader,
		"acme/2020.pdf":   pdfHeader,
		"acme/broken.pdf": pdfHeader,
		"globex/2019.pdf": pdfHeader,
		"initech/.keep":   "",
	})

	pdfs := newFakePDFs()
	pdfs.docs["2019.pdf"] = statementDoc(12, 4, 5, 6)
	loner := statementDoc(40, 10, 11, 12)
	loner.pages[30] = "Operating activities"
	loner.broken = map[int]bool{0: true}
	pdfs.docs["2020.pdf"] = loner
	pdfs.docs["broken.pdf"] = statementDoc(10, 4, 5, 6)
	pdfs.openErr["broken.pdf"] = errors.New("damaged")

	var mu sync.Mutex
	var seen []string
	b := &Batch{
		Locator:     newTestLocator(t, pdfs),
		Concurrency: 3,
		Progress: func(o Outcome) {
			mu.Lock()
			seen = append(seen, o.Job.Company+"/"+o.Job.Document)
			mu.Unlock()
		},
	}

	rep, err := b.Run(context.Background(), root)
	require.NoError(t, err)

	want := report.Pages{
		"acme": {
			"2019":   {classifier.Income: "5", classifier.BalanceSheets: "6", classifier.CashFlows: "7"},
			"2020":   {classifier.Income: "11", classifier.BalanceSheets: "12", classifier.CashFlows: "13"},
			"broken": {},
		},
		"globex":  {"2019": {classifier.Income: "5", classifier.BalanceSheets: "6", classifier.CashFlows: "7"}},
		"initech": {},
	}
	assert.Equal(t, want, rep.Pages)
	assert.Equal(t, report.Summary{PageErrors: 1, FileErrors: 1, LonersFound: 4, FilesProcessed: 4}, rep.Summary)
	assert.Len(t, seen, 4)
}

func TestBatchRunCancelledStartsNothing(t *testing.T) {
	root := writeCompanies(t, map[string]string{
		"acme/2019.pdf": pdfHeader,
	})
	pdfs := newFakePDFs()
	pdfs.docs["2019.pdf"] = statementDoc(12, 4, 5, 6)
	b := &Batch{Locator: newTestLocator(t, pdfs), Concurrency: 2}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rep, err := b.Run(ctx, root)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, report.Pages{"acme": {}}, rep.Pages)
	assert.Zero(t, rep.Summary.FilesProcessed)
	assert.Empty(t, pdfs.opened)
}
