package finder

import (
	"errors"
	"fmt"

	"github.com/local/finfinder/internal/classifier"
)

// ExtractionError reports a page whose text could not be extracted.
type ExtractionError struct {
	Page int // zero-based
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract page %d: %v", e.Page+1, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// FileError reports a document that could not be processed at all.
type FileError struct {
	Path string
	Op   string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }

// IsPageError reports whether err only affects a single page.
func IsPageError(err error) bool {
	if err == nil {
		return false
	}
	var extractErr *ExtractionError
	if errors.As(err, &extractErr) {
		return true
	}
	var scoreErr *classifier.ScoringError
	return errors.As(err, &scoreErr)
}

// IsFileError reports whether err aborted a whole document.
func IsFileError(err error) bool {
	if err == nil {
		return false
	}
	var fileErr *FileError
	return errors.As(err, &fileErr)
}
