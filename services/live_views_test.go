package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeremiapane/siparist/live"
	"github.com/yeremiapane/siparist/models"
	"github.com/yeremiapane/siparist/services"
)

type recordedView struct {
	event string
	data  interface{}
}

type viewRecorder struct {
	mu     sync.Mutex
	states map[string]interface{}
	pushes []recordedView
}

func newViewRecorder() *viewRecorder {
	return &viewRecorder{states: make(map[string]interface{})}
}

func (r *viewRecorder) SetState(event string, data interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states[event] = data
}

func (r *viewRecorder) Broadcast(event string, data interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pushes = append(r.pushes, recordedView{event: event, data: data})
}

func (r *viewRecorder) state(event string) interface{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.states[event]
}

func (r *viewRecorder) count(event string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, p := range r.pushes {
		if p.event == event {
			n++
		}
	}
	return n
}

func TestLiveViewsFollowTheStore(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	rec := newViewRecorder()
	views := services.NewLiveViews(e.store, rec)
	views.Now = clockAt(fixedNow)

	existing := e.issue(t, "1")
	e.submit(t, existing, "Ali", line("Su", 1, 1))

	views.Start(ctx)
	defer views.Stop()

	require.Eventually(t, func() bool {
		v, ok := rec.state(live.EventOrders).(services.OrdersView)
		return ok && len(v.Pending) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Zero(t, rec.count(live.EventNewOrder), "initial snapshot is not news")

	order := e.submit(t, existing, "Ali", line("Cay", 3, 2))
	require.Eventually(t, func() bool { return rec.count(live.EventNewOrder) == 1 }, 2*time.Second, 10*time.Millisecond)

	_, err := e.orders.Advance(ctx, order.ID, models.OrderPaid)
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		v, ok := rec.state(live.EventOrders).(services.OrdersView)
		return ok && len(v.TodaysPaid) == 1 && v.TodaysRevenue == 6
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, rec.count(live.EventNewOrder))

	require.Eventually(t, func() bool {
		sessions, ok := rec.state(live.EventPasswords).([]models.TableSession)
		return ok && len(sessions) == 0
	}, 2*time.Second, 10*time.Millisecond)

	second := e.issue(t, "2")
	_, err = e.bills.RequestBill(ctx, "2", "Ayse", second.SessionID)
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		rows, ok := rec.state(live.EventBillRequests).([]services.PendingBill)
		return ok && len(rows) == 1 && rec.count(live.EventNewBill) == 1
	}, 2*time.Second, 10*time.Millisecond)

	_, err = newReset(e).RunOnce(ctx)
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		summaries, ok := rec.state(live.EventArchives).([]services.ArchiveSummary)
		return ok && len(summaries) == 1 && summaries[0].Orders == 1
	}, 2*time.Second, 10*time.Millisecond)
}
