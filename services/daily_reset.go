package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yeremiapane/siparist/live"
	"github.com/yeremiapane/siparist/models"
	"github.com/yeremiapane/siparist/queue"
	"github.com/yeremiapane/siparist/store"
	"github.com/yeremiapane/siparist/utils"
)

// ResetReport summarises one run of the daily reset.
type ResetReport struct {
	ArchiveDate         string    `json:"archive_date"`
	ArchivedOrders      int       `json:"archived_orders"`
	TotalRevenue        float64   `json:"total_revenue"`
	ClearedOrders       int       `json:"cleared_orders"`
	DeactivatedSessions int       `json:"deactivated_sessions"`
	ClosedBillRequests  int       `json:"closed_bill_requests"`
	RanAt               time.Time `json:"ran_at"`
}

// ResetNotifier receives the report of every run. *live.Hub implements it.
type ResetNotifier interface {
	Broadcast(event string, data interface{})
}

// DailyReset archives the day's paid orders and clears the live working set
// once a day at hour:minute local time. The timer re-arms after every run,
// failed or not.
type DailyReset struct {
	store      *store.Store
	publisher  queue.Publisher
	operatorID string
	hour       int
	minute     int

	Now   func() time.Time
	After func(d time.Duration) <-chan time.Time
	// Notify, when set, gets a daily_reset push after each run.
	Notify ResetNotifier

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	runs    int
	last    *ResetReport
	lastErr error
}

func NewDailyReset(s *store.Store, publisher queue.Publisher, operatorID string, hour, minute int) *DailyReset {
	if publisher == nil {
		publisher = queue.NopPublisher{}
	}
	return &DailyReset{
		store:      s,
		publisher:  publisher,
		operatorID: operatorID,
		hour:       hour,
		minute:     minute,
		Now:        time.Now,
		After:      time.After,
	}
}

// NextReset is the first hour:minute strictly after now, in now's location.
func NextReset(now time.Time, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !now.Before(next) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// Start arms the timer in the background. It stops when ctx is done or Stop
// is called.
func (r *DailyReset) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})
	go r.loop(ctx, r.done)
	utils.InfoLogger.Println("Daily reset scheduler started")
}

// Stop disarms the timer and waits for a running reset to finish.
func (r *DailyReset) Stop() {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.cancel, r.done = nil, nil
	r.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
	utils.InfoLogger.Println("Daily reset scheduler stopped")
}

func (r *DailyReset) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	for {
		now := r.Now()
		next := NextReset(now, r.hour, r.minute)
		utils.InfoLogger.WithField("next_run", next.Format(time.RFC3339)).Info("daily reset armed")

		select {
		case <-ctx.Done():
			return
		case <-r.After(next.Sub(now)):
		}
		r.fire(ctx)
	}
}

// fire runs one reset and swallows everything, panics included, so the loop
// always gets to re-arm.
func (r *DailyReset) fire(ctx context.Context) {
	defer func() {
		if p := recover(); p != nil {
			utils.ErrorLogger.Printf("daily reset panicked: %v", p)
			r.record(nil, fmt.Errorf("panic: %v", p))
		}
	}()
	if _, err := r.RunOnce(ctx); err != nil {
		utils.ErrorLogger.Printf("daily reset finished with errors: %v", err)
	}
}

func (r *DailyReset) record(report *ResetReport, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs++
	r.last = report
	r.lastErr = err
}

// Runs returns how many resets have completed and the outcome of the last one.
func (r *DailyReset) Runs() (int, *ResetReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runs, r.last, r.lastErr
}

// RunOnce performs the reset phases now. Each phase commits on its own; a
// failed phase is reported and the remaining phases still run.
//
//  1. archive paid orders and delete every order (one batch). When the
//     date is already archived the paid orders stay and only the open
//     ones are deleted.
//  2. deactivate every table session
//  3. complete every pending bill request
func (r *DailyReset) RunOnce(ctx context.Context) (*ResetReport, error) {
	now := r.Now()
	report := &ResetReport{ArchiveDate: now.Format(models.ArchiveDateLayout), RanAt: now}
	var errs []error

	// Fase 1: arsip pesanan lunas lalu kosongkan koleksi orders
	var all []models.Order
	var archived []models.Order
	var revenue float64
	err := r.store.Batch().
		QueryInto(models.CollectionOrders, nil, &all).
		AddLazy(models.CollectionArchives, func() (store.Document, bool) {
			totals := make([]float64, 0)
			for _, o := range all {
				if o.Status == models.OrderPaid {
					archived = append(archived, o)
					totals = append(totals, o.Total)
				}
			}
			if len(archived) == 0 {
				return nil, false
			}
			revenue = utils.SumMoney(totals...)
			return &models.ArchiveEntry{
				ArchiveDate:  report.ArchiveDate,
				OperatorID:   r.operatorID,
				Orders:       archived,
				TotalRevenue: revenue,
				ArchivedAt:   now,
			}, true
		}).
		DeleteWhere(models.CollectionOrders, nil).
		Commit(ctx)
	if err != nil {
		scope := store.Filter{"archive_date": report.ArchiveDate, "operator_id": r.operatorID}
		if n, cerr := r.store.Count(ctx, models.CollectionArchives, scope); cerr == nil && n > 0 {
			errs = append(errs, fmt.Errorf("%w: archive for %s already exists", ErrConflict, report.ArchiveDate))
			cleared, cerr := r.clearOpenOrders(ctx)
			if cerr != nil {
				errs = append(errs, storeError("clear open orders", cerr))
			}
			report.ClearedOrders = cleared
		} else {
			errs = append(errs, storeError("archive orders", err))
		}
	} else {
		report.ArchivedOrders = len(archived)
		report.TotalRevenue = revenue
		report.ClearedOrders = len(all)
	}

	// Fase 2: semua password meja dinonaktifkan
	var active []models.TableSession
	err = r.store.Batch().
		QueryInto(models.CollectionPasswords, store.Filter{"is_active": true}, &active).
		UpdateWhere(models.CollectionPasswords, nil, map[string]interface{}{"is_active": false}).
		Commit(ctx)
	if err != nil {
		errs = append(errs, storeError("deactivate sessions", err))
	} else {
		report.DeactivatedSessions = len(active)
	}

	// Fase 3: tutup permintaan bill yang masih pending
	var pending []models.BillRequest
	pendingFilter := store.Filter{"status": string(models.BillPending)}
	err = r.store.Batch().
		QueryInto(models.CollectionBillRequests, pendingFilter, &pending).
		UpdateWhere(models.CollectionBillRequests, pendingFilter, map[string]interface{}{"status": string(models.BillCompleted)}).
		Commit(ctx)
	if err != nil {
		errs = append(errs, storeError("close bill requests", err))
	} else {
		report.ClosedBillRequests = len(pending)
	}

	runErr := errors.Join(errs...)
	r.record(report, runErr)

	if r.Notify != nil {
		r.Notify.Broadcast(live.EventDailyReset, report)
	}
	utils.InfoLogger.WithFields(logrus.Fields{
		"archive_date":         report.ArchiveDate,
		"archived_orders":      report.ArchivedOrders,
		"total_revenue":        report.TotalRevenue,
		"cleared_orders":       report.ClearedOrders,
		"deactivated_sessions": report.DeactivatedSessions,
		"closed_bill_requests": report.ClosedBillRequests,
		"failed_phases":        len(errs),
	}).Info("daily reset completed")
	_ = r.publisher.Publish(ctx, queue.RouteDailyArchived, queue.DailyArchivedEvent{
		ArchiveDate:         report.ArchiveDate,
		OperatorID:          r.operatorID,
		ArchivedOrders:      report.ArchivedOrders,
		TotalRevenue:        report.TotalRevenue,
		ClearedOrders:       report.ClearedOrders,
		DeactivatedSessions: report.DeactivatedSessions,
		ClosedBillRequests:  report.ClosedBillRequests,
		Failed:              runErr != nil,
		RanAt:               now.Format(time.RFC3339),
	})
	return report, runErr
}

// clearOpenOrders deletes the pending and delivered orders, leaving paid
// ones for the next archive.
func (r *DailyReset) clearOpenOrders(ctx context.Context) (int, error) {
	var open []models.Order
	filter := store.Filter{"status": models.OpenOrderStatuses}
	err := r.store.Batch().
		QueryInto(models.CollectionOrders, filter, &open).
		DeleteWhere(models.CollectionOrders, filter).
		Commit(ctx)
	if err != nil {
		return 0, err
	}
	return len(open), nil
}
