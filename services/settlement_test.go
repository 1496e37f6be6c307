package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeremiapane/siparist/models"
	"github.com/yeremiapane/siparist/queue"
	"github.com/yeremiapane/siparist/services"
)

func (e *env) bill(t *testing.T, id string) models.BillRequest {
	t.Helper()
	var b models.BillRequest
	require.NoError(t, e.store.Get(context.Background(), models.CollectionBillRequests, id, &b))
	return b
}

func TestSettlementPaysOrdersAndClosesSession(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	session := e.issue(t, "3")
	first := e.submit(t, session, "Ali", line("Pide", 20.00, 1))
	second := e.submit(t, session, "Ali", line("Ayran", 7.50, 2))

	req, err := e.bills.RequestBill(ctx, "3", "Ali", session.SessionID)
	require.NoError(t, err)
	assert.Equal(t, models.BillPending, req.Status)

	result, err := e.bills.Settle(ctx, req.ID)
	require.NoError(t, err)
	assert.Len(t, result.PaidOrders, 2)
	assert.Equal(t, 35.00, result.Total)
	assert.True(t, result.SessionDeactivated)

	assert.Equal(t, models.OrderPaid, e.order(t, first.ID).Status)
	assert.Equal(t, models.OrderPaid, e.order(t, second.ID).Status)
	assert.Equal(t, models.BillCompleted, e.bill(t, req.ID).Status)
	assert.False(t, e.session(t, "3").IsActive)

	assert.Equal(t, []string{queue.RouteBillSettled}, e.events.Routes())
	event := e.events.Events[0].Event.(queue.BillSettledEvent)
	assert.ElementsMatch(t, []string{first.ID, second.ID}, event.OrderIDs)
}

func TestSettlementOnlyTouchesThatCustomerAndSession(t *testing.T) {
	e := setup(t, "29latte42", "29mocha11")
	ctx := context.Background()
	old := e.issue(t, "3")
	oldOrder := e.submit(t, old, "Ali", line("Pide", 20, 1))
	current := e.issue(t, "3")
	mine := e.submit(t, current, "Ali", line("Pide", 20, 1))
	friend := e.submit(t, current, "Zeynep", line("Cay", 3, 1))

	req, err := e.bills.RequestBill(ctx, "3", "Ali", current.SessionID)
	require.NoError(t, err)
	_, err = e.bills.Settle(ctx, req.ID)
	require.NoError(t, err)

	assert.Equal(t, models.OrderPaid, e.order(t, mine.ID).Status)
	assert.Equal(t, models.OrderPending, e.order(t, friend.ID).Status)
	assert.Equal(t, models.OrderPending, e.order(t, oldOrder.ID).Status)
}

func TestSettlementLeavesNewerSessionActive(t *testing.T) {
	e := setup(t, "29latte42", "29mocha11")
	ctx := context.Background()
	old := e.issue(t, "3")
	e.submit(t, old, "Ali", line("Pide", 20, 1))
	req, err := e.bills.RequestBill(ctx, "3", "Ali", old.SessionID)
	require.NoError(t, err)

	current := e.issue(t, "3")
	result, err := e.bills.Settle(ctx, req.ID)
	require.NoError(t, err)
	assert.False(t, result.SessionDeactivated)

	stored := e.session(t, "3")
	assert.True(t, stored.IsActive)
	assert.Equal(t, current.SessionID, stored.SessionID)
}

func TestSettlementIsAllOrNothing(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	session := e.issue(t, "3")
	order := e.submit(t, session, "Ali", line("Pide", 20, 1))
	req, err := e.bills.RequestBill(ctx, "3", "Ali", session.SessionID)
	require.NoError(t, err)

	failWrites(t, e.store.DB(), models.CollectionPasswords)
	_, err = e.bills.Settle(ctx, req.ID)
	assert.ErrorIs(t, err, services.ErrStore)

	assert.Equal(t, models.BillPending, e.bill(t, req.ID).Status)
	assert.Equal(t, models.OrderPending, e.order(t, order.ID).Status)
	assert.True(t, e.session(t, "3").IsActive)
	assert.Empty(t, e.events.Routes())
}

func TestSettleTwiceIsRejected(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	session := e.issue(t, "3")
	req, err := e.bills.RequestBill(ctx, "3", "Ali", session.SessionID)
	require.NoError(t, err)

	_, err = e.bills.Settle(ctx, req.ID)
	require.NoError(t, err)
	_, err = e.bills.Settle(ctx, req.ID)
	assert.ErrorIs(t, err, services.ErrConflict)

	_, err = e.bills.Settle(ctx, "missing")
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestRequestBillKeepsDuplicates(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	session := e.issue(t, "3")

	for i := 0; i < 3; i++ {
		_, err := e.bills.RequestBill(ctx, "3", "Ali", session.SessionID)
		require.NoError(t, err)
	}
	pending, err := e.bills.ListPending(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 3)

	rows := services.DedupBillRequests(pending)
	require.Len(t, rows, 1)
	assert.Equal(t, 3, rows[0].Requests)
}

func TestRequestBillNeedsLiveSession(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	session := e.issue(t, "3")
	_, err := e.sessions.Deactivate(ctx, "3", session.SessionID)
	require.NoError(t, err)

	_, err = e.bills.RequestBill(ctx, "3", "Ali", session.SessionID)
	assert.ErrorIs(t, err, services.ErrStaleSession)

	_, err = e.bills.RequestBill(ctx, "3", "", session.SessionID)
	assert.ErrorIs(t, err, services.ErrValidation)
}
