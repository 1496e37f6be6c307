package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yeremiapane/siparist/database"
	"github.com/yeremiapane/siparist/models"
	"github.com/yeremiapane/siparist/queue"
	"github.com/yeremiapane/siparist/services"
	"github.com/yeremiapane/siparist/store"
)

// 19 Oktober 2026 14:00, month+day = 29
var fixedNow = time.Date(2026, time.October, 19, 14, 0, 0, 0, time.Local)

func clockAt(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

type env struct {
	store     *store.Store
	events    *queue.RecordingPublisher
	sessions  *services.SessionManager
	orders    *services.OrderEngine
	bills     *services.BillService
	menu      *services.MenuService
	customers *services.CustomerService
	cache     *services.MemoryCredentialCache
}

func setup(t *testing.T, passwords ...string) *env {
	t.Helper()
	db, err := database.OpenInMemory(t.Name())
	require.NoError(t, err)
	s := store.New(db)

	if len(passwords) == 0 {
		passwords = []string{"29latte42"}
	}
	events := &queue.RecordingPublisher{}
	e := &env{
		store:    s,
		events:   events,
		sessions: services.NewSessionManager(s, services.NewFixedPasswords(passwords...), 5, 0),
		orders:   services.NewOrderEngine(s, events),
		bills:    services.NewBillService(s, events),
		menu:     services.NewMenuService(s),
		cache:    services.NewMemoryCredentialCache(time.Hour),
	}
	e.sessions.Now = clockAt(fixedNow)
	e.orders.Now = clockAt(fixedNow)
	e.bills.Now = clockAt(fixedNow)
	e.customers = services.NewCustomerService(e.sessions, e.orders, e.bills, e.menu, e.cache)
	e.customers.Now = clockAt(fixedNow)
	return e
}

func (e *env) issue(t *testing.T, tableID string) *models.TableSession {
	t.Helper()
	session, err := e.sessions.IssuePassword(context.Background(), tableID)
	require.NoError(t, err)
	return session
}

func (e *env) submit(t *testing.T, session *models.TableSession, name string, lines ...models.OrderLine) *models.Order {
	t.Helper()
	order, err := e.orders.Submit(context.Background(), services.SubmitOrderInput{
		TableID:      session.ID,
		CustomerName: name,
		SessionID:    session.SessionID,
		Items:        lines,
	})
	require.NoError(t, err)
	return order
}

func (e *env) order(t *testing.T, id string) models.Order {
	t.Helper()
	var o models.Order
	require.NoError(t, e.store.Get(context.Background(), models.CollectionOrders, id, &o))
	return o
}

func (e *env) session(t *testing.T, tableID string) models.TableSession {
	t.Helper()
	var s models.TableSession
	require.NoError(t, e.store.Get(context.Background(), models.CollectionPasswords, tableID, &s))
	return s
}

func line(name string, price float64, qty int) models.OrderLine {
	return models.OrderLine{MenuItemID: "m-" + name, Name: name, UnitPrice: price, Quantity: qty}
}

var errInjected = errors.New("injected failure")

// failWrites makes every update or delete against table fail, so tests can
// break a batch halfway through.
func failWrites(t *testing.T, db *gorm.DB, table string) {
	t.Helper()
	fail := func(tx *gorm.DB) {
		if tx.Statement.Table == table {
			_ = tx.AddError(errInjected)
		}
	}
	require.NoError(t, db.Callback().Update().Before("gorm:update").Register("test:fail_update_"+table, fail))
	require.NoError(t, db.Callback().Delete().Before("gorm:delete").Register("test:fail_delete_"+table, fail))
}
