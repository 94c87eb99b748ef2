package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"snack-gateway/ephemeral"
	"snack-gateway/events"
	"snack-gateway/models"

	"go.uber.org/zap"
)

// PurchaseCompleteKey is the one-shot slot read by the confirmation screen.
const PurchaseCompleteKey = "purchase-complete"

var ErrEmptySelection = errors.New("no items selected")

// API is the upstream order resource.
type API interface {
	CreateOrder(ctx context.Context, req models.CreateOrderRequest) (models.Order, error)
	CancelOrder(ctx context.Context, orderID string) error
	ListOrders(ctx context.Context, q models.ListQuery) (models.Page[models.Order], error)
	GetOrder(ctx context.Context, orderID string) (models.OrderDetail, error)
}

// CartCleaner removes submitted lines once the order exists.
type CartCleaner interface {
	Lines() []models.CartLine
	RemoveSelected(ctx context.Context, ids []string) ([]models.CartLine, error)
}

// Session identifies whose order is being placed.
type Session struct {
	ID     string
	UserID string
	Cart   CartCleaner
}

type Result struct {
	Order            models.Order
	PurchaseComplete models.PurchaseComplete
	Totals           Breakdown
}

type Submitter struct {
	api       API
	store     ephemeral.Store
	publisher events.Publisher
	logger    *zap.Logger
}

func NewSubmitter(api API, store ephemeral.Store, publisher events.Publisher, logger *zap.Logger) *Submitter {
	if publisher == nil {
		publisher = events.Discard
	}
	return &Submitter{
		api:       api,
		store:     store,
		publisher: publisher,
		logger:    logger.Named("orders"),
	}
}

// Submit creates an order from the selected lines. Once the order exists the
// remaining steps only log their failures.
func (s *Submitter) Submit(ctx context.Context, session Session, lines []models.CartLine, message string) (Result, error) {
	if len(lines) == 0 {
		return Result{}, ErrEmptySelection
	}

	totals := Totals(lines)
	req := models.CreateOrderRequest{
		Items:          make([]models.OrderLine, 0, len(lines)),
		TotalQuantity:  totals.TotalQuantity,
		ProductAmount:  totals.ProductAmount,
		DeliveryFee:    totals.DeliveryFee,
		TotalAmount:    totals.TotalAmount,
		RequestMessage: message,
	}
	for _, l := range lines {
		req.Items = append(req.Items, models.OrderLine{
			ItemID:   l.ID,
			Title:    l.Title,
			Quantity: l.Quantity,
			Price:    l.Price,
			Image:    l.Image,
		})
	}

	order, err := s.api.CreateOrder(ctx, req)
	if err != nil {
		return Result{}, fmt.Errorf("failed to create order: %w", err)
	}

	logger := s.logger.With(zap.String("order_id", order.ID), zap.String("session_id", session.ID))
	logger.Info("order created",
		zap.Int("total_quantity", totals.TotalQuantity),
		zap.Int64("total_amount", totals.TotalAmount))

	complete := models.PurchaseComplete{
		FirstProductTitle: lines[0].Title,
		FirstProductImage: lines[0].Image,
		TotalQuantity:     totals.TotalQuantity,
		TotalAmount:       totals.TotalAmount,
		Message:           message,
	}
	if err := s.stash(ctx, session.ID, complete); err != nil {
		logger.Warn("failed to stash purchase summary", zap.Error(err))
	}

	if session.Cart != nil {
		s.cleanup(ctx, logger, session.Cart, lines)
	}

	event := events.NewOrderEvent(events.OrderSubmitted, order.ID)
	event.UserID = session.UserID
	event.TotalQuantity = totals.TotalQuantity
	event.TotalAmount = totals.TotalAmount
	for _, l := range lines {
		event.Items = append(event.Items, events.Item{ItemID: l.ID, Quantity: l.Quantity})
	}
	if err := s.publisher.PublishOrderEvent(ctx, event); err != nil {
		logger.Warn("failed to publish order event", zap.Error(err))
	}

	return Result{Order: order, PurchaseComplete: complete, Totals: totals}, nil
}

// SubmitInstant orders a single line without going through the cart selection.
func (s *Submitter) SubmitInstant(ctx context.Context, session Session, line models.CartLine, message string) (Result, error) {
	if line.ID == "" || line.Quantity < 1 {
		return Result{}, ErrEmptySelection
	}
	return s.Submit(ctx, session, []models.CartLine{line}, message)
}

// TakePurchaseComplete returns the stashed summary once and deletes it.
func (s *Submitter) TakePurchaseComplete(ctx context.Context, sessionID string) (models.PurchaseComplete, error) {
	raw, err := s.store.Take(ctx, ephemeral.SessionKey(sessionID, PurchaseCompleteKey))
	if err != nil {
		return models.PurchaseComplete{}, err
	}
	var complete models.PurchaseComplete
	if err := json.Unmarshal(raw, &complete); err != nil {
		return models.PurchaseComplete{}, fmt.Errorf("failed to decode purchase summary: %w", err)
	}
	return complete, nil
}

func (s *Submitter) stash(ctx context.Context, sessionID string, complete models.PurchaseComplete) error {
	raw, err := json.Marshal(complete)
	if err != nil {
		return err
	}
	return s.store.Put(ctx, ephemeral.SessionKey(sessionID, PurchaseCompleteKey), raw)
}

// cleanup removes the ordered lines that are still in the cart.
func (s *Submitter) cleanup(ctx context.Context, logger *zap.Logger, cart CartCleaner, lines []models.CartLine) {
	current := cart.Lines()
	var ids []string
	for _, l := range lines {
		if slices.ContainsFunc(current, func(c models.CartLine) bool { return c.ID == l.ID }) {
			ids = append(ids, l.ID)
		}
	}
	if len(ids) == 0 {
		return
	}
	if _, err := cart.RemoveSelected(ctx, ids); err != nil {
		logger.Warn("cart cleanup after order failed", zap.Strings("item_ids", ids), zap.Error(err))
	}
}

// Cancel withdraws a pending order on behalf of its requester.
func (s *Submitter) Cancel(ctx context.Context, session Session, orderID string) error {
	if err := s.api.CancelOrder(ctx, orderID); err != nil {
		return fmt.Errorf("failed to cancel order %s: %w", orderID, err)
	}

	event := events.NewOrderEvent(events.OrderCancelled, orderID)
	event.UserID = session.UserID
	if err := s.publisher.PublishOrderEvent(ctx, event); err != nil {
		s.logger.Warn("failed to publish order event", zap.String("order_id", orderID), zap.Error(err))
	}
	return nil
}

func (s *Submitter) List(ctx context.Context, q models.ListQuery) (models.Page[models.Order], error) {
	page, err := s.api.ListOrders(ctx, q)
	if err != nil {
		return models.Page[models.Order]{}, fmt.Errorf("failed to list orders: %w", err)
	}
	return page, nil
}

// Detail returns the order as the upstream reports it, totals included.
func (s *Submitter) Detail(ctx context.Context, orderID string) (models.OrderDetail, error) {
	detail, err := s.api.GetOrder(ctx, orderID)
	if err != nil {
		return models.OrderDetail{}, fmt.Errorf("failed to load order %s: %w", orderID, err)
	}
	return detail, nil
}
