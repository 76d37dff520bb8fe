package selector

import (
	"errors"
	"fmt"

	"github.com/local/finfinder/internal/classifier"
)

// ErrSelectionExhausted is matched by every ExhaustedError.
var ErrSelectionExhausted = errors.New("selection exhausted")

// ExhaustedError reports that loner resolution ran out of candidates for a category
// before the three candidates agreed.
type ExhaustedError struct {
	Category   classifier.Category
	Iterations int
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("selection exhausted: no candidates left for %s after %d iterations", e.Category, e.Iterations)
}

func (e *ExhaustedError) Is(target error) bool { return target == ErrSelectionExhausted }
