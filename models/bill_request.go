package models

import "time"

type BillRequestStatus string

const (
	BillPending   BillRequestStatus = "pending"
	BillCompleted BillRequestStatus = "completed"
)

type BillRequest struct {
	ID           string            `gorm:"primaryKey;type:varchar(36)" json:"id"`
	TableID      string            `gorm:"type:varchar(64);not null;index" json:"table_id"`
	CustomerName string            `gorm:"type:varchar(100);not null" json:"customer_name"`
	SessionID    string            `gorm:"type:varchar(36);not null;index" json:"session_id"`
	Status       BillRequestStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	RequestedAt  time.Time         `gorm:"not null" json:"requested_at"`
}

func (BillRequest) TableName() string { return CollectionBillRequests }
