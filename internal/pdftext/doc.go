// Package pdftext opens PDFs for per-page text extraction and resolves
// document references (local paths, file://, http(s)://, s3://) to local files.
package pdftext

import (
	"fmt"

	fitz "github.com/gen2brain/go-fitz"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// Doc abstracts a PDF document for text extraction.
type Doc interface {
	NumPage() int
	Text(i int) (string, error)
	Close() error
}

// Opener abstracts opening a PDF path into a Doc.
type Opener interface {
	Open(path string) (Doc, error)
}

// PageCounter reports the total page count of a PDF without extracting text.
type PageCounter interface {
	PageCount(path string) (int, error)
}

// FitzOpener implements Opener using github.com/gen2brain/go-fitz (MuPDF).
type FitzOpener struct{}

func (FitzOpener) Open(path string) (Doc, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	return doc, nil
}

// PdfcpuCounter implements PageCounter with pdfcpu's structural reader.
type PdfcpuCounter struct{}

func (PdfcpuCounter) PageCount(path string) (int, error) {
	n, err := api.PageCountFile(path)
	if err != nil {
		return 0, fmt.Errorf("pdf page count failed: %w", err)
	}
	return n, nil
}
