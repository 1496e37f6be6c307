package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yeremiapane/siparist/models"
	"github.com/yeremiapane/siparist/queue"
	"github.com/yeremiapane/siparist/store"
	"github.com/yeremiapane/siparist/utils"
)

type SubmitOrderInput struct {
	TableID      string
	CustomerName string
	SessionID    string
	Items        []models.OrderLine
}

// OrderEngine owns the order state machine.
type OrderEngine struct {
	store     *store.Store
	publisher queue.Publisher

	Now func() time.Time
}

func NewOrderEngine(s *store.Store, publisher queue.Publisher) *OrderEngine {
	if publisher == nil {
		publisher = queue.NopPublisher{}
	}
	return &OrderEngine{store: s, publisher: publisher, Now: time.Now}
}

func validateLines(items []models.OrderLine) error {
	if len(items) == 0 {
		return validationError("order has no items")
	}
	for i, l := range items {
		if strings.TrimSpace(l.Name) == "" {
			return validationError("item %d has no name", i+1)
		}
		if l.Quantity < 1 {
			return validationError("item %q: quantity must be at least 1", l.Name)
		}
		if l.UnitPrice < 0 {
			return validationError("item %q: unit price must not be negative", l.Name)
		}
	}
	return nil
}

// Submit stores a pending order. The session check and the insert commit in
// one batch, so an order can never land on a superseded session.
func (e *OrderEngine) Submit(ctx context.Context, in SubmitOrderInput) (*models.Order, error) {
	in.TableID = strings.TrimSpace(in.TableID)
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	if in.TableID == "" || in.CustomerName == "" || in.SessionID == "" {
		return nil, validationError("table id, customer name and session id are required")
	}
	if err := validateLines(in.Items); err != nil {
		return nil, err
	}

	order := &models.Order{
		TableID:      in.TableID,
		CustomerName: in.CustomerName,
		SessionID:    in.SessionID,
		Items:        in.Items,
		Total:        models.LinesTotal(in.Items),
		Status:       models.OrderPending,
		CreatedAt:    e.Now(),
	}

	err := e.store.Batch().
		Require(models.CollectionPasswords, in.TableID, store.Filter{"session_id": in.SessionID, "is_active": true}).
		Add(models.CollectionOrders, order).
		Commit(ctx)
	if errors.Is(err, store.ErrPreconditionFailed) {
		return nil, fmt.Errorf("%w: table %s", ErrStaleSession, in.TableID)
	}
	if err != nil {
		return nil, storeError("submit order", err)
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"order_id":   order.ID,
		"table_id":   order.TableID,
		"session_id": order.SessionID,
		"total":      order.Total,
	}).Info("order submitted")
	return order, nil
}

// Advance moves an order forward. Moving to paid also closes the order's
// table session when that session is still the active one.
func (e *OrderEngine) Advance(ctx context.Context, orderID string, to models.OrderStatus) (*models.Order, error) {
	if !to.Valid() {
		return nil, validationError("unknown order status %q", to)
	}

	var order models.Order
	if err := e.store.Get(ctx, models.CollectionOrders, orderID, &order); err != nil {
		return nil, notFoundOr("load order", err, "order "+orderID)
	}

	from := order.Status
	if !models.CanTransition(from, to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}

	b := e.store.Batch().
		Require(models.CollectionOrders, orderID, store.Filter{"status": string(from)}).
		Update(models.CollectionOrders, orderID, map[string]interface{}{"status": string(to)})
	if to == models.OrderPaid {
		b.UpdateWhere(models.CollectionPasswords,
			store.Filter{"id": order.TableID, "session_id": order.SessionID, "is_active": true},
			map[string]interface{}{"is_active": false})
	}
	err := b.Commit(ctx)
	if errors.Is(err, store.ErrPreconditionFailed) {
		return nil, fmt.Errorf("%w: order %s changed while updating", ErrConflict, orderID)
	}
	if err != nil {
		return nil, storeError("advance order", err)
	}
	order.Status = to

	now := e.Now()
	utils.InfoLogger.WithFields(logrus.Fields{
		"order_id": orderID,
		"from":     from,
		"to":       to,
	}).Info("order status changed")
	_ = e.publisher.Publish(ctx, queue.RouteOrderStatusChanged, queue.OrderStatusChangedEvent{
		OrderID:   orderID,
		TableID:   order.TableID,
		From:      string(from),
		To:        string(to),
		ChangedAt: now.Format(time.RFC3339),
	})
	return &order, nil
}

func (e *OrderEngine) Get(ctx context.Context, orderID string) (*models.Order, error) {
	var order models.Order
	if err := e.store.Get(ctx, models.CollectionOrders, orderID, &order); err != nil {
		return nil, notFoundOr("load order", err, "order "+orderID)
	}
	return &order, nil
}

// ListBy returns the orders of one customer in one session, oldest first.
// All three keys are required so a name collision at the same table never
// shows another session's orders.
func (e *OrderEngine) ListBy(ctx context.Context, tableID, customerName, sessionID string) ([]models.Order, error) {
	if tableID == "" || customerName == "" || sessionID == "" {
		return nil, validationError("table id, customer name and session id are required")
	}
	orders := make([]models.Order, 0)
	f := store.Filter{"table_id": tableID, "customer_name": customerName, "session_id": sessionID}
	if err := e.store.QueryOrdered(ctx, models.CollectionOrders, f, "created_at asc", &orders); err != nil {
		return nil, storeError("list orders", err)
	}
	return orders, nil
}

// List returns live orders newest first, optionally limited to one status.
func (e *OrderEngine) List(ctx context.Context, status models.OrderStatus) ([]models.Order, error) {
	var f store.Filter
	if status != "" {
		if !status.Valid() {
			return nil, validationError("unknown order status %q", status)
		}
		f = store.Filter{"status": string(status)}
	}
	orders := make([]models.Order, 0)
	if err := e.store.QueryOrdered(ctx, models.CollectionOrders, f, "created_at desc", &orders); err != nil {
		return nil, storeError("list orders", err)
	}
	return orders, nil
}
