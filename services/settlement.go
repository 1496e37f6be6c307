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

// Settlement is the outcome of settling one bill request.
type Settlement struct {
	BillRequest        models.BillRequest `json:"bill_request"`
	PaidOrders         []models.Order     `json:"paid_orders"`
	Total              float64            `json:"total"`
	SessionDeactivated bool               `json:"session_deactivated"`
}

type BillService struct {
	store     *store.Store
	publisher queue.Publisher

	Now func() time.Time
}

func NewBillService(s *store.Store, publisher queue.Publisher) *BillService {
	if publisher == nil {
		publisher = queue.NopPublisher{}
	}
	return &BillService{store: s, publisher: publisher, Now: time.Now}
}

// RequestBill records a pending bill request. Repeated requests for the same
// session are all stored.
func (b *BillService) RequestBill(ctx context.Context, tableID, customerName, sessionID string) (*models.BillRequest, error) {
	tableID = strings.TrimSpace(tableID)
	customerName = strings.TrimSpace(customerName)
	if tableID == "" || customerName == "" || sessionID == "" {
		return nil, validationError("table id, customer name and session id are required")
	}

	req := &models.BillRequest{
		TableID:      tableID,
		CustomerName: customerName,
		SessionID:    sessionID,
		Status:       models.BillPending,
		RequestedAt:  b.Now(),
	}
	err := b.store.Batch().
		Require(models.CollectionPasswords, tableID, store.Filter{"session_id": sessionID, "is_active": true}).
		Add(models.CollectionBillRequests, req).
		Commit(ctx)
	if errors.Is(err, store.ErrPreconditionFailed) {
		return nil, fmt.Errorf("%w: table %s", ErrStaleSession, tableID)
	}
	if err != nil {
		return nil, storeError("request bill", err)
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"bill_request_id": req.ID,
		"table_id":        tableID,
		"session_id":      sessionID,
	}).Info("bill requested")
	return req, nil
}

// Settle completes the bill request, pays every open order of its customer
// and session, and closes the table session if it is still that session.
// The three writes commit together or not at all.
func (b *BillService) Settle(ctx context.Context, billRequestID string) (*Settlement, error) {
	var req models.BillRequest
	if err := b.store.Get(ctx, models.CollectionBillRequests, billRequestID, &req); err != nil {
		return nil, notFoundOr("load bill request", err, "bill request "+billRequestID)
	}
	if req.Status != models.BillPending {
		return nil, fmt.Errorf("%w: bill request %s is already %s", ErrConflict, billRequestID, req.Status)
	}

	owner := store.Filter{
		"table_id":      req.TableID,
		"customer_name": req.CustomerName,
		"session_id":    req.SessionID,
		"status":        models.OpenOrderStatuses,
	}
	session := store.Filter{"id": req.TableID, "session_id": req.SessionID, "is_active": true}

	var open []models.Order
	var live []models.TableSession
	err := b.store.Batch().
		Require(models.CollectionBillRequests, billRequestID, store.Filter{"status": string(models.BillPending)}).
		Update(models.CollectionBillRequests, billRequestID, map[string]interface{}{"status": string(models.BillCompleted)}).
		QueryInto(models.CollectionOrders, owner, &open).
		UpdateWhere(models.CollectionOrders, owner, map[string]interface{}{"status": string(models.OrderPaid)}).
		QueryInto(models.CollectionPasswords, session, &live).
		UpdateWhere(models.CollectionPasswords, session, map[string]interface{}{"is_active": false}).
		Commit(ctx)
	if errors.Is(err, store.ErrPreconditionFailed) {
		return nil, fmt.Errorf("%w: bill request %s was settled concurrently", ErrConflict, billRequestID)
	}
	if err != nil {
		return nil, storeError("settle bill", err)
	}

	req.Status = models.BillCompleted
	result := &Settlement{
		BillRequest:        req,
		PaidOrders:         make([]models.Order, 0, len(open)),
		SessionDeactivated: len(live) > 0,
	}
	totals := make([]float64, 0, len(open))
	ids := make([]string, 0, len(open))
	for _, o := range open {
		o.Status = models.OrderPaid
		result.PaidOrders = append(result.PaidOrders, o)
		totals = append(totals, o.Total)
		ids = append(ids, o.ID)
	}
	result.Total = utils.SumMoney(totals...)

	utils.InfoLogger.WithFields(logrus.Fields{
		"bill_request_id":     billRequestID,
		"table_id":            req.TableID,
		"session_id":          req.SessionID,
		"paid_orders":         len(ids),
		"session_deactivated": result.SessionDeactivated,
	}).Info("bill settled")
	_ = b.publisher.Publish(ctx, queue.RouteBillSettled, queue.BillSettledEvent{
		BillRequestID:      billRequestID,
		TableID:            req.TableID,
		CustomerName:       req.CustomerName,
		SessionID:          req.SessionID,
		OrderIDs:           ids,
		Total:              result.Total,
		SessionDeactivated: result.SessionDeactivated,
		SettledAt:          b.Now().Format(time.RFC3339),
	})
	return result, nil
}

// ListPending returns pending bill requests, oldest first.
func (b *BillService) ListPending(ctx context.Context) ([]models.BillRequest, error) {
	reqs := make([]models.BillRequest, 0)
	f := store.Filter{"status": string(models.BillPending)}
	if err := b.store.QueryOrdered(ctx, models.CollectionBillRequests, f, "requested_at asc", &reqs); err != nil {
		return nil, storeError("list bill requests", err)
	}
	return reqs, nil
}
