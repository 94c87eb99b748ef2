package models

// BudgetSnapshot holds the current month's figures. Any field may be absent upstream.
type BudgetSnapshot struct {
	BudgetAmount  *int64 `json:"budget_amount,omitempty"`
	SpentAmount   *int64 `json:"spent_amount,omitempty"`
	Remaining     *int64 `json:"remaining,omitempty"`
	InitialBudget *int64 `json:"initial_budget,omitempty"`
}

type UpdateBudgetRequest struct {
	BudgetAmount  *int64 `json:"budget_amount" binding:"omitempty,min=0"`
	InitialBudget *int64 `json:"initial_budget" binding:"omitempty,min=0"`
}
