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

func TestSubmitComputesTotal(t *testing.T) {
	tests := []struct {
		name  string
		lines []models.OrderLine
		want  float64
	}{
		{"single line", []models.OrderLine{line("Latte", 25.00, 2)}, 50.00},
		{"fractional prices", []models.OrderLine{line("Tost", 12.50, 2), line("Cay", 7.33, 1)}, 32.33},
		{"many lines", []models.OrderLine{line("a", 0.1, 3), line("b", 0.2, 3), line("c", 1.005, 1)}, 1.91},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := setup(t)
			session := e.issue(t, "5")
			order := e.submit(t, session, "Ayse", tt.lines...)
			assert.Equal(t, tt.want, order.Total)
			assert.Equal(t, models.OrderPending, order.Status)
			assert.Equal(t, tt.want, e.order(t, order.ID).Total)
		})
	}
}

func TestLinesTotalEmptyCart(t *testing.T) {
	assert.Equal(t, 0.0, models.LinesTotal(nil))
}

func TestSubmitValidation(t *testing.T) {
	e := setup(t)
	session := e.issue(t, "5")
	ctx := context.Background()

	tests := []struct {
		name string
		in   services.SubmitOrderInput
	}{
		{"empty cart", services.SubmitOrderInput{TableID: "5", CustomerName: "Ayse", SessionID: session.SessionID}},
		{"zero quantity", services.SubmitOrderInput{TableID: "5", CustomerName: "Ayse", SessionID: session.SessionID, Items: []models.OrderLine{line("Latte", 10, 0)}}},
		{"missing name", services.SubmitOrderInput{TableID: "5", SessionID: session.SessionID, Items: []models.OrderLine{line("Latte", 10, 1)}}},
		{"missing session", services.SubmitOrderInput{TableID: "5", CustomerName: "Ayse", Items: []models.OrderLine{line("Latte", 10, 1)}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.orders.Submit(ctx, tt.in)
			assert.ErrorIs(t, err, services.ErrValidation)
		})
	}

	n, err := e.store.Count(ctx, models.CollectionOrders, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSubmitRejectsSupersededSession(t *testing.T) {
	e := setup(t, "29latte42", "29mocha11")
	old := e.issue(t, "2")
	e.issue(t, "2")

	_, err := e.orders.Submit(context.Background(), services.SubmitOrderInput{
		TableID:      "2",
		CustomerName: "Mehmet",
		SessionID:    old.SessionID,
		Items:        []models.OrderLine{line("Latte", 10, 1)},
	})
	assert.ErrorIs(t, err, services.ErrStaleSession)

	n, err := e.store.Count(context.Background(), models.CollectionOrders, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestAdvanceTransitions(t *testing.T) {
	tests := []struct {
		from, to models.OrderStatus
		allowed  bool
	}{
		{models.OrderPending, models.OrderDelivered, true},
		{models.OrderPending, models.OrderPaid, true},
		{models.OrderDelivered, models.OrderPaid, true},
		{models.OrderDelivered, models.OrderPending, false},
		{models.OrderPaid, models.OrderPending, false},
		{models.OrderPaid, models.OrderDelivered, false},
		{models.OrderPending, models.OrderPending, false},
		{models.OrderPaid, models.OrderPaid, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			e := setup(t)
			ctx := context.Background()
			session := e.issue(t, "5")
			order := e.submit(t, session, "Ayse", line("Latte", 10, 1))
			if tt.from != models.OrderPending {
				require.NoError(t, e.store.Update(ctx, models.CollectionOrders, order.ID, map[string]interface{}{"status": string(tt.from)}))
			}

			_, err := e.orders.Advance(ctx, order.ID, tt.to)
			if tt.allowed {
				require.NoError(t, err)
				assert.Equal(t, tt.to, e.order(t, order.ID).Status)
				return
			}
			assert.ErrorIs(t, err, services.ErrInvalidTransition)
			assert.Equal(t, tt.from, e.order(t, order.ID).Status)
		})
	}
}

func TestAdvanceUnknownOrderAndStatus(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	_, err := e.orders.Advance(ctx, "missing", models.OrderDelivered)
	assert.ErrorIs(t, err, services.ErrNotFound)

	_, err = e.orders.Advance(ctx, "missing", models.OrderStatus("cooking"))
	assert.ErrorIs(t, err, services.ErrValidation)
}

func TestHappyPathCashierAdvancesToPaid(t *testing.T) {
	e := setup(t, "07latte42")
	ctx := context.Background()
	e.issue(t, "5")

	sessionID, err := e.sessions.Validate(ctx, "5", "07latte42")
	require.NoError(t, err)

	order, err := e.orders.Submit(ctx, services.SubmitOrderInput{
		TableID:      "5",
		CustomerName: "Ayse",
		SessionID:    sessionID,
		Items:        []models.OrderLine{line("Kebap", 25.00, 2)},
	})
	require.NoError(t, err)
	assert.Equal(t, 50.00, order.Total)
	assert.Equal(t, models.OrderPending, order.Status)

	_, err = e.orders.Advance(ctx, order.ID, models.OrderDelivered)
	require.NoError(t, err)
	assert.True(t, e.session(t, "5").IsActive)

	_, err = e.orders.Advance(ctx, order.ID, models.OrderPaid)
	require.NoError(t, err)
	assert.Equal(t, models.OrderPaid, e.order(t, order.ID).Status)
	assert.False(t, e.session(t, "5").IsActive)

	assert.Equal(t, []string{queue.RouteOrderStatusChanged, queue.RouteOrderStatusChanged}, e.events.Routes())
}

func TestAdvanceToPaidLeavesNewerSessionActive(t *testing.T) {
	e := setup(t, "29latte42", "29mocha11")
	ctx := context.Background()
	old := e.issue(t, "4")
	order := e.submit(t, old, "Ayse", line("Latte", 10, 1))
	e.issue(t, "4")

	_, err := e.orders.Advance(ctx, order.ID, models.OrderPaid)
	require.NoError(t, err)
	assert.True(t, e.session(t, "4").IsActive)
}

func TestAdvanceToPaidRollsBackWhenSessionWriteFails(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	session := e.issue(t, "5")
	order := e.submit(t, session, "Ayse", line("Latte", 10, 1))

	failWrites(t, e.store.DB(), models.CollectionPasswords)
	_, err := e.orders.Advance(ctx, order.ID, models.OrderPaid)
	assert.ErrorIs(t, err, services.ErrStore)
	assert.Equal(t, models.OrderPending, e.order(t, order.ID).Status)
}

func TestListByFiltersOnAllThreeKeys(t *testing.T) {
	e := setup(t, "29latte42", "29mocha11")
	ctx := context.Background()

	old := e.issue(t, "1")
	e.submit(t, old, "Ayse", line("Latte", 10, 1))
	current := e.issue(t, "1")
	mine := e.submit(t, current, "Ayse", line("Mocha", 12, 1))
	e.submit(t, current, "Mehmet", line("Cay", 3, 2))

	orders, err := e.orders.ListBy(ctx, "1", "Ayse", current.SessionID)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, mine.ID, orders[0].ID)

	_, err = e.orders.ListBy(ctx, "1", "", current.SessionID)
	assert.ErrorIs(t, err, services.ErrValidation)

	all, err := e.orders.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	pending, err := e.orders.List(ctx, models.OrderPending)
	require.NoError(t, err)
	assert.Len(t, pending, 3)
}
