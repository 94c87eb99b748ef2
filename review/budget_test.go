package review

import (
	"testing"

	"snack-gateway/models"

	"github.com/stretchr/testify/assert"
)

func ptr(v int64) *int64 {
	return &v
}

func TestDeriveBudget(t *testing.T) {
	pending := models.Order{Status: models.OrderPending, OrderAmount: 12000}
	approved := models.Order{Status: models.OrderApproved, OrderAmount: 12000}

	testCases := []struct {
		name     string
		snapshot models.BudgetSnapshot
		order    models.Order
		expected BudgetView
	}{
		{
			name:     "pending order larger than remaining clamps to zero",
			snapshot: models.BudgetSnapshot{BudgetAmount: ptr(50000), SpentAmount: ptr(40000), Remaining: ptr(10000)},
			order:    pending,
			expected: BudgetView{Monthly: 50000, Spent: 40000, Remaining: 10000, AfterPurchase: 0},
		},
		{
			name:     "pending order within budget",
			snapshot: models.BudgetSnapshot{BudgetAmount: ptr(100000), SpentAmount: ptr(20000), Remaining: ptr(80000)},
			order:    pending,
			expected: BudgetView{Monthly: 100000, Spent: 20000, Remaining: 80000, AfterPurchase: 68000},
		},
		{
			name:     "approved order shows remaining unchanged",
			snapshot: models.BudgetSnapshot{BudgetAmount: ptr(100000), SpentAmount: ptr(32000), Remaining: ptr(68000)},
			order:    approved,
			expected: BudgetView{Monthly: 100000, Spent: 32000, Remaining: 68000, AfterPurchase: 68000},
		},
		{
			name:     "spent derived from budget and remaining",
			snapshot: models.BudgetSnapshot{BudgetAmount: ptr(100000), Remaining: ptr(70000)},
			order:    approved,
			expected: BudgetView{Monthly: 100000, Spent: 30000, Remaining: 70000, AfterPurchase: 70000},
		},
		{
			name:     "remaining derived from budget and spent",
			snapshot: models.BudgetSnapshot{BudgetAmount: ptr(100000), SpentAmount: ptr(25000)},
			order:    pending,
			expected: BudgetView{Monthly: 100000, Spent: 25000, Remaining: 75000, AfterPurchase: 63000},
		},
		{
			name:     "overspent budget never goes negative",
			snapshot: models.BudgetSnapshot{BudgetAmount: ptr(10000), SpentAmount: ptr(15000)},
			order:    approved,
			expected: BudgetView{Monthly: 10000, Spent: 15000, Remaining: 0, AfterPurchase: 0},
		},
		{
			name:     "monthly derived when budget amount is missing",
			snapshot: models.BudgetSnapshot{SpentAmount: ptr(5000), Remaining: ptr(15000), InitialBudget: ptr(30000)},
			order:    approved,
			expected: BudgetView{Monthly: 20000, Spent: 5000, Remaining: 15000, AfterPurchase: 15000, Initial: ptr(30000)},
		},
		{
			name:     "empty snapshot degrades to zero",
			snapshot: models.BudgetSnapshot{},
			order:    pending,
			expected: BudgetView{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, DeriveBudget(tc.snapshot, tc.order))
		})
	}
}
