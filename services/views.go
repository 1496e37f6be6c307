package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yeremiapane/siparist/models"
	"github.com/yeremiapane/siparist/store"
	"github.com/yeremiapane/siparist/utils"
)

// Read-side projections. All of them are pure functions over a snapshot so
// they can be recomputed on every change.

type OrderBuckets struct {
	Pending   []models.Order `json:"pending"`
	Delivered []models.Order `json:"delivered"`
	Paid      []models.Order `json:"paid"`
}

func BucketOrders(orders []models.Order) OrderBuckets {
	b := OrderBuckets{
		Pending:   make([]models.Order, 0),
		Delivered: make([]models.Order, 0),
		Paid:      make([]models.Order, 0),
	}
	for _, o := range orders {
		switch o.Status {
		case models.OrderPending:
			b.Pending = append(b.Pending, o)
		case models.OrderDelivered:
			b.Delivered = append(b.Delivered, o)
		case models.OrderPaid:
			b.Paid = append(b.Paid, o)
		}
	}
	return b
}

func sameDay(a, b time.Time) bool {
	b = b.In(a.Location())
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

// TodaysPaidOrders keeps the paid orders created on now's calendar date.
func TodaysPaidOrders(orders []models.Order, now time.Time) []models.Order {
	out := make([]models.Order, 0)
	for _, o := range orders {
		if o.Status == models.OrderPaid && sameDay(now, o.CreatedAt) {
			out = append(out, o)
		}
	}
	return out
}

func OrdersRevenue(orders []models.Order) float64 {
	totals := make([]float64, 0, len(orders))
	for _, o := range orders {
		totals = append(totals, o.Total)
	}
	return utils.SumMoney(totals...)
}

// PendingBill is one row of the cashier's bill request list.
type PendingBill struct {
	models.BillRequest
	Requests int `json:"requests"`
}

// DedupBillRequests keeps the first request per customer and session and
// counts the repeats. The store itself keeps every request.
func DedupBillRequests(reqs []models.BillRequest) []PendingBill {
	out := make([]PendingBill, 0, len(reqs))
	index := make(map[string]int, len(reqs))
	for _, r := range reqs {
		key := r.SessionID + "\x00" + r.CustomerName
		if i, ok := index[key]; ok {
			out[i].Requests++
			continue
		}
		index[key] = len(out)
		out = append(out, PendingBill{BillRequest: r, Requests: 1})
	}
	return out
}

// GroupMenu groups items by category, keeping the order in which categories
// and items first appear.
func GroupMenu(items []models.MenuItem) []MenuCategory {
	groups := make([]MenuCategory, 0)
	index := make(map[string]int)
	for _, item := range items {
		cat := item.Category
		if cat == "" {
			cat = models.DefaultMenuCategoryName
		}
		i, ok := index[cat]
		if !ok {
			i = len(groups)
			index[cat] = i
			groups = append(groups, MenuCategory{Name: cat, Items: make([]models.MenuItem, 0)})
		}
		groups[i].Items = append(groups[i].Items, item)
	}
	return groups
}

// ArchiveView is what the cashier sees for one date: the live projection for
// today, the sealed archive entry for earlier dates.
type ArchiveView struct {
	Date         string         `json:"date"`
	Live         bool           `json:"live"`
	Orders       []models.Order `json:"orders"`
	TotalRevenue float64        `json:"total_revenue"`
	ArchivedAt   *time.Time     `json:"archived_at,omitempty"`
}

type ArchiveService struct {
	store      *store.Store
	operatorID string

	Now func() time.Time
}

func NewArchiveService(s *store.Store, operatorID string) *ArchiveService {
	return &ArchiveService{store: s, operatorID: operatorID, Now: time.Now}
}

// View returns the archive for date (YYYY-MM-DD); empty means today.
func (a *ArchiveService) View(ctx context.Context, date string) (*ArchiveView, error) {
	now := a.Now()
	today := now.Format(models.ArchiveDateLayout)
	if date == "" {
		date = today
	}
	if _, err := time.ParseInLocation(models.ArchiveDateLayout, date, now.Location()); err != nil {
		return nil, validationError("date must be YYYY-MM-DD")
	}

	if date == today {
		orders := make([]models.Order, 0)
		f := store.Filter{"status": string(models.OrderPaid)}
		if err := a.store.QueryOrdered(ctx, models.CollectionOrders, f, "created_at asc", &orders); err != nil {
			return nil, storeError("load paid orders", err)
		}
		paid := TodaysPaidOrders(orders, now)
		return &ArchiveView{Date: date, Live: true, Orders: paid, TotalRevenue: OrdersRevenue(paid)}, nil
	}

	entry, err := a.Entry(ctx, date)
	if errors.Is(err, ErrNotFound) {
		return &ArchiveView{Date: date, Orders: make([]models.Order, 0)}, nil
	}
	if err != nil {
		return nil, err
	}
	archivedAt := entry.ArchivedAt
	return &ArchiveView{
		Date:         date,
		Orders:       entry.Orders,
		TotalRevenue: entry.TotalRevenue,
		ArchivedAt:   &archivedAt,
	}, nil
}

// Entry loads the sealed archive of date for this operator.
func (a *ArchiveService) Entry(ctx context.Context, date string) (*models.ArchiveEntry, error) {
	entries := make([]models.ArchiveEntry, 0, 1)
	f := store.Filter{"archive_date": date, "operator_id": a.operatorID}
	if err := a.store.Query(ctx, models.CollectionArchives, f, &entries); err != nil {
		return nil, storeError("load archive", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: archive for %s", ErrNotFound, date)
	}
	return &entries[0], nil
}
