package models

import (
	"time"

	"gorm.io/datatypes"
)

const ArchiveDateLayout = "2006-01-02"

// ArchiveEntry is the sealed ledger of one business day. Written once by the
// daily reset, never updated.
type ArchiveEntry struct {
	ID           string                    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	ArchiveDate  string                    `gorm:"type:varchar(10);not null;uniqueIndex:idx_archive_scope" json:"archive_date"`
	OperatorID   string                    `gorm:"type:varchar(64);not null;uniqueIndex:idx_archive_scope" json:"operator_id"`
	Orders       datatypes.JSONSlice[Order] `json:"orders"`
	TotalRevenue float64                   `gorm:"type:decimal(12,2);not null" json:"total_revenue"`
	ArchivedAt   time.Time                 `gorm:"not null" json:"archived_at"`
}

func (ArchiveEntry) TableName() string { return CollectionArchives }
