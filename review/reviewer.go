// Package review lets administrators approve or reject pending purchase requests.
package review

import (
	"context"
	"errors"
	"fmt"

	"snack-gateway/events"
	"snack-gateway/models"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	ApprovedNotice = "구매 요청을 승인했습니다."
	RejectedNotice = "구매 요청을 반려했습니다. 상품은 요청자의 장바구니로 돌아갑니다."
)

var (
	ErrNotPending      = errors.New("order is not pending")
	ErrNothingToUpdate = errors.New("no budget field to update")
)

type API interface {
	GetOrder(ctx context.Context, orderID string) (models.OrderDetail, error)
	UpdateOrderStatus(ctx context.Context, orderID string, status models.OrderStatus) error
	GetBudget(ctx context.Context) (models.BudgetSnapshot, error)
	UpdateBudget(ctx context.Context, req models.UpdateBudgetRequest) error
}

// Refresher reloads state that an approval may have changed upstream, such as the cart.
type Refresher func(ctx context.Context) error

// OrderView is an order together with the budget it would draw on.
type OrderView struct {
	Detail models.OrderDetail `json:"order"`
	// Budget is nil when the budget could not be loaded.
	Budget    *BudgetView `json:"budget,omitempty"`
	CanDecide bool        `json:"canDecide"`
}

// Outcome is what an admin sees after a decision. Reloads that fail leave
// their field nil without failing the decision itself.
type Outcome struct {
	Detail *models.OrderDetail `json:"order,omitempty"`
	Budget *BudgetView         `json:"budget,omitempty"`
	Notice string              `json:"notice"`
}

type Reviewer struct {
	api       API
	publisher events.Publisher
	logger    *zap.Logger
}

func NewReviewer(api API, publisher events.Publisher, logger *zap.Logger) *Reviewer {
	if publisher == nil {
		publisher = events.Discard
	}
	return &Reviewer{
		api:       api,
		publisher: publisher,
		logger:    logger.Named("review"),
	}
}

// View loads the order and the budget concurrently. A budget failure only
// drops the budget panel.
func (r *Reviewer) View(ctx context.Context, orderID string) (OrderView, error) {
	var (
		detail   models.OrderDetail
		snapshot models.BudgetSnapshot
		budgetOK bool
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		detail, err = r.api.GetOrder(gctx, orderID)
		if err != nil {
			return fmt.Errorf("failed to load order %s: %w", orderID, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if snapshot, err = r.api.GetBudget(gctx); err != nil {
			r.logger.Warn("failed to load budget", zap.Error(err))
			return nil
		}
		budgetOK = true
		return nil
	})
	if err := g.Wait(); err != nil {
		return OrderView{}, err
	}

	view := OrderView{Detail: detail, CanDecide: detail.Status.IsPending()}
	if budgetOK {
		b := DeriveBudget(snapshot, detail.Order)
		view.Budget = &b
	}
	return view, nil
}

// Approve moves a pending order to approved, then reloads the order and the
// budget and runs refresh.
func (r *Reviewer) Approve(ctx context.Context, orderID string, refresh Refresher) (Outcome, error) {
	before, err := r.decide(ctx, orderID, models.OrderApproved)
	if err != nil {
		return Outcome{}, err
	}

	outcome := Outcome{Notice: ApprovedNotice}
	outcome.Detail = r.reload(ctx, orderID)

	if snapshot, err := r.api.GetBudget(ctx); err != nil {
		r.logger.Warn("failed to reload budget after approval", zap.String("order_id", orderID), zap.Error(err))
	} else {
		order := before.Order
		if outcome.Detail != nil {
			order = outcome.Detail.Order
		}
		b := DeriveBudget(snapshot, order)
		outcome.Budget = &b
	}

	if refresh != nil {
		if err := refresh(ctx); err != nil {
			r.logger.Warn("refresh after approval failed", zap.String("order_id", orderID), zap.Error(err))
		}
	}

	r.publish(ctx, events.OrderApproved, before)
	return outcome, nil
}

// Reject moves a pending order to cancelled and reloads it. The budget is unaffected.
func (r *Reviewer) Reject(ctx context.Context, orderID string) (Outcome, error) {
	before, err := r.decide(ctx, orderID, models.OrderCancelled)
	if err != nil {
		return Outcome{}, err
	}

	outcome := Outcome{Notice: RejectedNotice}
	outcome.Detail = r.reload(ctx, orderID)

	r.publish(ctx, events.OrderRejected, before)
	return outcome, nil
}

// decide re-reads the order and sends the transition only while it is pending.
func (r *Reviewer) decide(ctx context.Context, orderID string, status models.OrderStatus) (models.OrderDetail, error) {
	detail, err := r.api.GetOrder(ctx, orderID)
	if err != nil {
		return models.OrderDetail{}, fmt.Errorf("failed to load order %s: %w", orderID, err)
	}
	if !detail.Status.IsPending() {
		return detail, fmt.Errorf("%w: order %s is %s", ErrNotPending, orderID, detail.Status.Label())
	}

	if err := r.api.UpdateOrderStatus(ctx, orderID, status); err != nil {
		return detail, fmt.Errorf("failed to set order %s to %s: %w", orderID, status, err)
	}

	r.logger.Info("order decided", zap.String("order_id", orderID), zap.String("status", string(status)))
	return detail, nil
}

func (r *Reviewer) reload(ctx context.Context, orderID string) *models.OrderDetail {
	detail, err := r.api.GetOrder(ctx, orderID)
	if err != nil {
		r.logger.Warn("failed to reload order", zap.String("order_id", orderID), zap.Error(err))
		return nil
	}
	return &detail
}

func (r *Reviewer) publish(ctx context.Context, eventType events.Type, detail models.OrderDetail) {
	event := events.NewOrderEvent(eventType, detail.ID)
	if detail.Requester != nil {
		event.UserID = detail.Requester.ID
	}
	event.TotalQuantity = detail.TotalQuantity
	event.TotalAmount = detail.TotalAmount
	if event.TotalAmount == 0 {
		event.TotalAmount = detail.OrderAmount
	}
	if err := r.publisher.PublishOrderEvent(ctx, event); err != nil {
		r.logger.Warn("failed to publish order event", zap.String("order_id", detail.ID), zap.Error(err))
	}
}

// Budget returns the current budget figures without an order in view.
func (r *Reviewer) Budget(ctx context.Context) (BudgetView, error) {
	snapshot, err := r.api.GetBudget(ctx)
	if err != nil {
		return BudgetView{}, fmt.Errorf("failed to load budget: %w", err)
	}
	return DeriveBudget(snapshot, models.Order{}), nil
}

// UpdateBudget changes the monthly and/or starting budget, then returns the new figures.
func (r *Reviewer) UpdateBudget(ctx context.Context, req models.UpdateBudgetRequest) (BudgetView, error) {
	if req.BudgetAmount == nil && req.InitialBudget == nil {
		return BudgetView{}, ErrNothingToUpdate
	}
	if err := r.api.UpdateBudget(ctx, req); err != nil {
		return BudgetView{}, fmt.Errorf("failed to update budget: %w", err)
	}
	return r.Budget(ctx)
}
