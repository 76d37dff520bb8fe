package classifier

import "fmt"

// Category names one of the three financial statements a page can be scored for.
// The string values are the keys used by the keyword table and by labeled datasets.
type Category string

const (
	Income        Category = "Income"
	BalanceSheets Category = "Balance Sheets"
	CashFlows     Category = "Cash Flows"
)

// Categories lists the statements in the order they are reported.
var Categories = []Category{Income, BalanceSheets, CashFlows}

// ParseCategory maps a table key to a Category.
func ParseCategory(s string) (Category, error) {
	switch Category(s) {
	case Income, BalanceSheets, CashFlows:
		return Category(s), nil
	}
	return "", fmt.Errorf("unknown category %q", s)
}

func (c Category) String() string { return string(c) }

// PagePosterior is the posterior of one page for one category.
// Posteriors above 1 are possible and are kept as is.
type PagePosterior struct {
	Page      int
	Posterior float64
}
