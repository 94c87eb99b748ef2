package review

import "snack-gateway/models"

// BudgetView is the budget panel shown next to an order.
type BudgetView struct {
	Monthly       int64  `json:"monthlyBudget"`
	Spent         int64  `json:"spent"`
	Remaining     int64  `json:"remaining"`
	AfterPurchase int64  `json:"afterPurchase"`
	Initial       *int64 `json:"initialBudget,omitempty"`
}

// DeriveBudget fills in whichever of spent and remaining the upstream left out.
// For a pending order AfterPurchase is what would be left if it were approved,
// never below zero. Otherwise the upstream has already deducted it.
func DeriveBudget(snapshot models.BudgetSnapshot, order models.Order) BudgetView {
	var view BudgetView
	view.Initial = snapshot.InitialBudget

	monthly := value(snapshot.BudgetAmount)
	switch {
	case snapshot.SpentAmount != nil:
		view.Spent = *snapshot.SpentAmount
	case snapshot.BudgetAmount != nil && snapshot.Remaining != nil:
		view.Spent = max(0, monthly-*snapshot.Remaining)
	}
	switch {
	case snapshot.Remaining != nil:
		view.Remaining = *snapshot.Remaining
	case snapshot.BudgetAmount != nil:
		view.Remaining = max(0, monthly-view.Spent)
	}

	view.Monthly = monthly
	if snapshot.BudgetAmount == nil {
		view.Monthly = view.Spent + view.Remaining
	}

	view.AfterPurchase = view.Remaining
	if order.Status.IsPending() {
		view.AfterPurchase = max(0, view.Remaining-order.OrderAmount)
	}
	return view
}

func value(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}
