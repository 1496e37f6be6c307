package services

import (
	"context"
	"sync"
	"time"

	"github.com/yeremiapane/siparist/live"
	"github.com/yeremiapane/siparist/models"
	"github.com/yeremiapane/siparist/store"
	"github.com/yeremiapane/siparist/utils"
)

// ViewPublisher receives recomputed views. live.Hub implements it.
type ViewPublisher interface {
	SetState(event string, data interface{})
	Broadcast(event string, data interface{})
}

// OrdersView is the cashier's order board.
type OrdersView struct {
	OrderBuckets
	TodaysPaid    []models.Order `json:"todays_paid"`
	TodaysRevenue float64        `json:"todays_revenue"`
}

type ArchiveSummary struct {
	ArchiveDate  string    `json:"archive_date"`
	Orders       int       `json:"orders"`
	TotalRevenue float64   `json:"total_revenue"`
	ArchivedAt   time.Time `json:"archived_at"`
}

// LiveViews keeps the cashier screens current: it watches the live
// collections, recomputes the projections on every snapshot and pushes them
// to the publisher.
type LiveViews struct {
	store     *store.Store
	publisher ViewPublisher

	Now func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewLiveViews(s *store.Store, publisher ViewPublisher) *LiveViews {
	return &LiveViews{store: s, publisher: publisher, Now: time.Now}
}

func (v *LiveViews) Start(ctx context.Context) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.cancel != nil {
		return
	}
	ctx, v.cancel = context.WithCancel(ctx)

	orders := store.Watch[models.Order](ctx, v.store, models.CollectionOrders, nil, "created_at asc")
	sessions := store.Watch[models.TableSession](ctx, v.store, models.CollectionPasswords, store.Filter{"is_active": true}, "id asc")
	bills := store.Watch[models.BillRequest](ctx, v.store, models.CollectionBillRequests, store.Filter{"status": string(models.BillPending)}, "requested_at asc")
	archives := store.Watch[models.ArchiveEntry](ctx, v.store, models.CollectionArchives, nil, "archive_date desc")

	v.wg.Add(4)
	go v.run(func() { v.watchOrders(orders) })
	go v.run(func() { v.watchSessions(sessions) })
	go v.run(func() { v.watchBills(bills) })
	go v.run(func() { v.watchArchives(archives) })
	utils.InfoLogger.Println("Live views started")
}

func (v *LiveViews) Stop() {
	v.mu.Lock()
	cancel := v.cancel
	v.cancel = nil
	v.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	v.wg.Wait()
	utils.InfoLogger.Println("Live views stopped")
}

func (v *LiveViews) run(fn func()) {
	defer v.wg.Done()
	fn()
}

// newIDs returns the ids in current that were not in previous. The first
// snapshot (previous == nil) announces nothing.
func newIDs(previous map[string]bool, current []string) []string {
	if previous == nil {
		return nil
	}
	fresh := make([]string, 0)
	for _, id := range current {
		if !previous[id] {
			fresh = append(fresh, id)
		}
	}
	return fresh
}

func idSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

func (v *LiveViews) watchOrders(snapshots <-chan []models.Order) {
	var seen map[string]bool
	for orders := range snapshots {
		v.publisher.SetState(live.EventOrders, BuildOrdersView(orders, v.Now()))

		pending := make([]string, 0)
		byID := make(map[string]models.Order)
		for _, o := range orders {
			if o.Status == models.OrderPending {
				pending = append(pending, o.ID)
				byID[o.ID] = o
			}
		}
		for _, id := range newIDs(seen, pending) {
			v.publisher.Broadcast(live.EventNewOrder, byID[id])
		}
		// orders can only enter as pending, so remembering every id is enough
		all := make([]string, 0, len(orders))
		for _, o := range orders {
			all = append(all, o.ID)
		}
		seen = idSet(all)
	}
}

func (v *LiveViews) watchSessions(snapshots <-chan []models.TableSession) {
	for sessions := range snapshots {
		v.publisher.SetState(live.EventPasswords, sessions)
	}
}

func (v *LiveViews) watchBills(snapshots <-chan []models.BillRequest) {
	var seen map[string]bool
	for reqs := range snapshots {
		v.publisher.SetState(live.EventBillRequests, DedupBillRequests(reqs))

		ids := make([]string, 0, len(reqs))
		byID := make(map[string]models.BillRequest, len(reqs))
		for _, r := range reqs {
			ids = append(ids, r.ID)
			byID[r.ID] = r
		}
		for _, id := range newIDs(seen, ids) {
			v.publisher.Broadcast(live.EventNewBill, byID[id])
		}
		seen = idSet(ids)
	}
}

func (v *LiveViews) watchArchives(snapshots <-chan []models.ArchiveEntry) {
	for entries := range snapshots {
		summaries := make([]ArchiveSummary, 0, len(entries))
		for _, e := range entries {
			summaries = append(summaries, ArchiveSummary{
				ArchiveDate:  e.ArchiveDate,
				Orders:       len(e.Orders),
				TotalRevenue: e.TotalRevenue,
				ArchivedAt:   e.ArchivedAt,
			})
		}
		v.publisher.SetState(live.EventArchives, summaries)
	}
}

// BuildOrdersView derives the cashier order board from the live orders.
func BuildOrdersView(orders []models.Order, now time.Time) OrdersView {
	paid := TodaysPaidOrders(orders, now)
	return OrdersView{
		OrderBuckets:  BucketOrders(orders),
		TodaysPaid:    paid,
		TodaysRevenue: OrdersRevenue(paid),
	}
}
