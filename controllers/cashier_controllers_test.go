package controllers_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeremiapane/siparist/models"
	"github.com/yeremiapane/siparist/queue"
	"github.com/yeremiapane/siparist/services"
)

func (a *testApp) placeOrder(t *testing.T, tableID, name string) *models.Order {
	t.Helper()
	var session models.TableSession
	require.NoError(t, a.store.Get(context.Background(), models.CollectionPasswords, tableID, &session))
	latte := a.seedMenu(t, "Latte "+name, 40)

	w, resp := a.do(t, &browser{}, http.MethodPost, "/orders", "", map[string]interface{}{
		"table_id":      tableID,
		"customer_name": name,
		"password":      session.Password,
		"items":         []map[string]interface{}{{"menu_item_id": latte.ID, "quantity": 1}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var order models.Order
	decode(t, resp, &order)
	return &order
}

func TestCashierRoutesRequireStaffToken(t *testing.T) {
	a := setupApp(t)

	w, _ := a.do(t, nil, http.MethodGet, "/cashier/orders", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = a.do(t, nil, http.MethodGet, "/cashier/orders", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	cashier := a.cashierToken(t)
	w, _ = a.do(t, nil, http.MethodGet, "/admin/menu", cashier, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// admin boleh akses semua route kasir
	w, _ = a.do(t, nil, http.MethodGet, "/cashier/orders", a.adminToken(t), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = a.do(t, nil, http.MethodPost, "/cashier/login", "", map[string]string{"username": "kasir", "password": "salah"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogoutRevokesToken(t *testing.T) {
	a := setupApp(t)
	token := a.cashierToken(t)

	w, _ := a.do(t, nil, http.MethodPost, "/cashier/logout", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = a.do(t, nil, http.MethodGet, "/cashier/orders", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestOrderBoardAndStatusTransitions(t *testing.T) {
	a := setupApp(t)
	token := a.cashierToken(t)
	a.issuePassword(t, token, "1")
	first := a.placeOrder(t, "1", "Ayse")
	second := a.placeOrder(t, "1", "Mehmet")

	w, _ := a.do(t, nil, http.MethodPatch, "/cashier/orders/"+first.ID, token, map[string]string{"status": "delivered"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// pending -> pending tidak boleh, delivered -> pending juga tidak
	w, _ = a.do(t, nil, http.MethodPatch, "/cashier/orders/"+first.ID, token, map[string]string{"status": "pending"})
	assert.Equal(t, http.StatusConflict, w.Code)
	w, _ = a.do(t, nil, http.MethodPatch, "/cashier/orders/"+second.ID, token, map[string]string{"status": "cooking"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w, _ = a.do(t, nil, http.MethodPatch, "/cashier/orders/missing", token, map[string]string{"status": "delivered"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, resp := a.do(t, nil, http.MethodGet, "/cashier/orders", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var board services.OrdersView
	decode(t, resp, &board)
	assert.Len(t, board.Pending, 1)
	assert.Len(t, board.Delivered, 1)
	assert.Empty(t, board.Paid)
	assert.Zero(t, board.TodaysRevenue)

	w, resp = a.do(t, nil, http.MethodGet, "/cashier/orders?status=pending", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var pending []models.Order
	decode(t, resp, &pending)
	require.Len(t, pending, 1)
	assert.Equal(t, second.ID, pending[0].ID)

	w, _ = a.do(t, nil, http.MethodGet, "/cashier/orders?status=bogus", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Contains(t, a.events.Routes(), queue.RouteOrderStatusChanged)
}

func TestListPasswords(t *testing.T) {
	a := setupApp(t)
	token := a.cashierToken(t)
	a.issuePassword(t, token, "1")
	a.issuePassword(t, token, "2")

	w, resp := a.do(t, nil, http.MethodGet, "/cashier/passwords", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var sessions []models.TableSession
	decode(t, resp, &sessions)
	assert.Len(t, sessions, 2)

	w, _ = a.do(t, nil, http.MethodPost, "/cashier/passwords", token, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestManualResetArchivesPaidOrders(t *testing.T) {
	a := setupApp(t)
	token := a.cashierToken(t)
	a.issuePassword(t, token, "1")
	order := a.placeOrder(t, "1", "Ayse")
	a.placeOrder(t, "1", "Mehmet")

	w, _ := a.do(t, nil, http.MethodPatch, "/cashier/orders/"+order.ID, token, map[string]string{"status": "paid"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, resp := a.do(t, nil, http.MethodGet, "/cashier/archives", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var today services.ArchiveView
	decode(t, resp, &today)
	assert.True(t, today.Live)
	assert.Len(t, today.Orders, 1)
	assert.Equal(t, 40.0, today.TotalRevenue)

	w, resp = a.do(t, nil, http.MethodPost, "/cashier/reset", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var report services.ResetReport
	decode(t, resp, &report)
	assert.Equal(t, "2026-10-19", report.ArchiveDate)
	assert.Equal(t, 1, report.ArchivedOrders)
	assert.Equal(t, 2, report.ClearedOrders)

	n, err := a.store.Count(context.Background(), models.CollectionOrders, nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	// Arsip hari yang sama sudah ada, order lunas berikutnya tidak dihapus
	a.issuePassword(t, token, "1")
	late := a.placeOrder(t, "1", "Can")
	a.placeOrder(t, "1", "Deniz")
	w, _ = a.do(t, nil, http.MethodPatch, "/cashier/orders/"+late.ID, token, map[string]string{"status": "paid"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, resp = a.do(t, nil, http.MethodPost, "/cashier/reset", token, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.False(t, resp.Status)
	var partial services.ResetReport
	decode(t, resp, &partial)
	assert.Equal(t, "2026-10-19", partial.ArchiveDate)
	assert.Zero(t, partial.ArchivedOrders)
	assert.Equal(t, 1, partial.ClearedOrders)
	assert.Equal(t, 1, partial.DeactivatedSessions)

	var left []models.Order
	require.NoError(t, a.store.Query(context.Background(), models.CollectionOrders, nil, &left))
	require.Len(t, left, 1)
	assert.Equal(t, late.ID, left[0].ID)

	w, _ = a.do(t, nil, http.MethodGet, "/cashier/archives?date=19-10-2026", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
