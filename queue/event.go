// Package queue defines the domain events published to the message broker
// and the publishers that send them.
package queue

const (
	RouteBillSettled        = "bill.settled"
	RouteOrderStatusChanged = "order.status_changed"
	RouteDailyArchived      = "daily.archived"
)

// BillSettledEvent is published after a settlement batch commits.
type BillSettledEvent struct {
	BillRequestID      string   `json:"bill_request_id"`
	TableID            string   `json:"table_id"`
	CustomerName       string   `json:"customer_name"`
	SessionID          string   `json:"session_id"`
	OrderIDs           []string `json:"order_ids"`
	Total              float64  `json:"total"`
	SessionDeactivated bool     `json:"session_deactivated"`
	SettledAt          string   `json:"settled_at"`
}

// OrderStatusChangedEvent is published when a cashier advances an order.
type OrderStatusChangedEvent struct {
	OrderID   string `json:"order_id"`
	TableID   string `json:"table_id"`
	From      string `json:"from"`
	To        string `json:"to"`
	ChangedAt string `json:"changed_at"`
}

// DailyArchivedEvent is published after every daily reset run, archived or not.
type DailyArchivedEvent struct {
	ArchiveDate         string  `json:"archive_date"`
	OperatorID          string  `json:"operator_id"`
	ArchivedOrders      int     `json:"archived_orders"`
	TotalRevenue        float64 `json:"total_revenue"`
	ClearedOrders       int     `json:"cleared_orders"`
	DeactivatedSessions int     `json:"deactivated_sessions"`
	ClosedBillRequests  int     `json:"closed_bill_requests"`
	Failed              bool    `json:"failed"`
	RanAt               string  `json:"ran_at"`
}
