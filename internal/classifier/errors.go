package classifier

import "fmt"

// ConfigurationError reports a missing or malformed keyword table entry.
type ConfigurationError struct {
	Category Category
	Field    string
	Reason   string
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("classifier config: %s: %s", e.Category, e.Reason)
	}
	return fmt.Sprintf("classifier config: %s/%s: %s", e.Category, e.Field, e.Reason)
}

// ScoringError reports a page that could not be scored for a category.
type ScoringError struct {
	Category Category
	Reason   string
}

func (e *ScoringError) Error() string {
	return fmt.Sprintf("scoring %s: %s", e.Category, e.Reason)
}
