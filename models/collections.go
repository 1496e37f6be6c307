package models

// Collection names double as table names.
const (
	CollectionMenu          = "menu"
	CollectionOrders        = "orders"
	CollectionPasswords     = "passwords"
	CollectionBillRequests  = "bill_requests"
	CollectionArchives      = "archived_orders"
	CollectionCashierUsers  = "cashier_users"
	CollectionAdminUser     = "admin_user"
	AdminUserID             = "adminUser"
	DefaultMenuCategoryName = "Other"
)

// All returns a fresh pointer for every persisted model, in migration order.
func All() []interface{} {
	return []interface{}{
		&MenuItem{},
		&TableSession{},
		&Order{},
		&BillRequest{},
		&ArchiveEntry{},
		&CashierUser{},
		&AdminUser{},
	}
}

func (m *MenuItem) DocumentID() string     { return m.ID }
func (t *TableSession) DocumentID() string { return t.ID }
func (o *Order) DocumentID() string        { return o.ID }
func (b *BillRequest) DocumentID() string  { return b.ID }
func (a *ArchiveEntry) DocumentID() string { return a.ID }
func (c *CashierUser) DocumentID() string  { return c.ID }
func (a *AdminUser) DocumentID() string    { return a.ID }
