// Package selector resolves three independent page rankings into one consistent
// triple of statement pages.
//
// The income statement, balance sheet and cash flow statement of a report sit a few
// pages apart. When the best candidate of one category is far from the best
// candidates of the other two, which are close to each other, it is treated as a
// false match (a loner) and that category falls back to its next-best page.
package selector

import "github.com/local/finfinder/internal/classifier"

// DefaultThreshold is the page distance at which a candidate counts as far away.
const DefaultThreshold = 6

// Loner is the outcome of one loner check. The zero value means no loner.
type Loner struct {
	Category classifier.Category
	Found    bool
}

// NoLoner is returned when all candidates are close or all are mutually far.
var NoLoner = Loner{}

// Selection is the resolved triple as 1-based page numbers.
type Selection struct {
	Income        int
	BalanceSheets int
	CashFlows     int

	// Iterations counts loop passes including the accepting one.
	Iterations int
	// Demoted lists the category demoted on every non-final pass.
	Demoted []classifier.Category
}

// Page returns the selected 1-based page of a category.
func (s Selection) Page(c classifier.Category) int {
	switch c {
	case classifier.Income:
		return s.Income
	case classifier.BalanceSheets:
		return s.BalanceSheets
	case classifier.CashFlows:
		return s.CashFlows
	}
	return 0
}

// FindLoner checks whether exactly one of the zero-based pages a (income),
// b (balance sheet) and c (cash flow) is at least threshold pages from both others
// while the other two are closer than threshold.
func FindLoner(a, b, c, threshold int) Loner {
	ab := abs(a-b) >= threshold
	ac := abs(a-c) >= threshold
	bc := abs(b-c) >= threshold

	switch {
	case ab && ac && !bc:
		return Loner{Category: classifier.Income, Found: true}
	case ab && !ac && bc:
		return Loner{Category: classifier.BalanceSheets, Found: true}
	case !ab && ac && bc:
		return Loner{Category: classifier.CashFlows, Found: true}
	}
	return NoLoner
}

// Select walks the three rankings from their best candidates, demoting loners until the
// candidates agree. It fails with an ExhaustedError when a demoted category has no
// candidate left.
func Select(income, balance, cash []int, threshold int) (Selection, error) {
	lists := [3][]int{income, balance, cash}
	var cursor [3]int

	for i, l := range lists {
		if len(l) == 0 {
			return Selection{}, &ExhaustedError{Category: classifier.Categories[i]}
		}
	}

	sel := Selection{}
	for {
		sel.Iterations++
		a, b, c := lists[0][cursor[0]], lists[1][cursor[1]], lists[2][cursor[2]]

		loner := FindLoner(a, b, c, threshold)
		if !loner.Found {
			sel.Income, sel.BalanceSheets, sel.CashFlows = a+1, b+1, c+1
			return sel, nil
		}

		i := categoryIndex(loner.Category)
		if cursor[i]+1 >= len(lists[i]) {
			return Selection{}, &ExhaustedError{Category: loner.Category, Iterations: sel.Iterations}
		}
		cursor[i]++
		sel.Demoted = append(sel.Demoted, loner.Category)
	}
}

func categoryIndex(c classifier.Category) int {
	for i, cat := range classifier.Categories {
		if cat == c {
			return i
		}
	}
	return -1
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
