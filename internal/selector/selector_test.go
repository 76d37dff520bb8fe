package selector

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/local/finfinder/internal/classifier"
)

func TestFindLoner(t *testing.T) {
	tests := []struct {
		name    string
		a, b, c int
		want    Loner
	}{
		{"cash flow far away", 0, 1, 15, Loner{Category: classifier.CashFlows, Found: true}},
		{"income far away", 30, 2, 4, Loner{Category: classifier.Income, Found: true}},
		{"balance far away", 2, 40, 5, Loner{Category: classifier.BalanceSheets, Found: true}},
		{"all close", 4, 7, 8, NoLoner},
		{"all far apart", 0, 10, 20, NoLoner},
		{"distance equal to threshold is far", 0, 1, 7, Loner{Category: classifier.CashFlows, Found: true}},
		{"distance below threshold is close", 0, 1, 6, NoLoner},
		{"same page", 3, 3, 3, NoLoner},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FindLoner(tt.a, tt.b, tt.c, DefaultThreshold))
		})
	}
}

func TestSelect_NoLonerAcceptsFirstCandidates(t *testing.T) {
	sel, err := Select([]int{4, 0, 2}, []int{7, 1, 3}, []int{8, 9, 2}, DefaultThreshold)
	require.NoError(t, err)
	assert.Equal(t, 5, sel.Income)
	assert.Equal(t, 8, sel.BalanceSheets)
	assert.Equal(t, 9, sel.CashFlows)
	assert.Equal(t, 1, sel.Iterations)
	assert.Empty(t, sel.Demoted)
}

func TestSelect_DemotesLoner(t *testing.T) {
	sel, err := Select([]int{0, 3}, []int{1, 2}, []int{15, 2}, DefaultThreshold)
	require.NoError(t, err)
	assert.Equal(t, []classifier.Category{classifier.CashFlows}, sel.Demoted)
	assert.Equal(t, 2, sel.Iterations)
	assert.Equal(t, 1, sel.Income)
	assert.Equal(t, 2, sel.BalanceSheets)
	assert.Equal(t, 3, sel.CashFlows)
	assert.Equal(t, 3, sel.Page(classifier.CashFlows))
}

func TestSelect_SeveralDemotions(t *testing.T) {
	income := []int{50, 40, 11}
	balance := []int{12, 13}
	cash := []int{14, 60}

	sel, err := Select(income, balance, cash, DefaultThreshold)
	require.NoError(t, err)
	assert.Equal(t, []classifier.Category{classifier.Income, classifier.Income}, sel.Demoted)
	assert.Equal(t, 3, sel.Iterations)
	assert.Equal(t, Selection{Income: 12, BalanceSheets: 13, CashFlows: 15, Iterations: 3, Demoted: sel.Demoted}, sel)
}

func TestSelect_Exhausted(t *testing.T) {
	_, err := Select([]int{20}, []int{5}, []int{6}, DefaultThreshold)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSelectionExhausted))

	var ex *ExhaustedError
	require.True(t, errors.As(err, &ex))
	assert.Equal(t, classifier.Income, ex.Category)
	assert.Equal(t, 1, ex.Iterations)
}

func TestSelect_EmptyRanking(t *testing.T) {
	_, err := Select([]int{1}, nil, []int{2}, DefaultThreshold)
	var ex *ExhaustedError
	require.True(t, errors.As(err, &ex))
	assert.Equal(t, classifier.BalanceSheets, ex.Category)
	assert.Equal(t, 0, ex.Iterations)
}

func TestSelect_Deterministic(t *testing.T) {
	income, balance, cash := []int{30, 5, 1}, []int{2, 3, 4}, []int{6, 7, 8}

	first, err1 := Select(income, balance, cash, DefaultThreshold)
	second, err2 := Select(income, balance, cash, DefaultThreshold)
	assert.Equal(t, err1, err2)
	assert.Equal(t, first, second)
}

func TestSelect_TerminatesWithinBound(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	for run := 0; run < 500; run++ {
		n := 1 + rnd.Intn(60)
		income, balance, cash := rnd.Perm(n), rnd.Perm(n), rnd.Perm(n)

		sel, err := Select(income, balance, cash, DefaultThreshold)
		if err != nil {
			var ex *ExhaustedError
			require.True(t, errors.As(err, &ex))
			assert.LessOrEqual(t, ex.Iterations, 3*n)
			continue
		}
		assert.LessOrEqual(t, sel.Iterations, 3*n)
		assert.Equal(t, sel.Iterations-1, len(sel.Demoted))
		for _, p := range []int{sel.Income, sel.BalanceSheets, sel.CashFlows} {
			assert.True(t, p >= 1 && p <= n)
		}
	}
}
