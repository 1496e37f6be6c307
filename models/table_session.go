package models

import "time"

// TableSession is the password document of one table. The table id is the
// primary key, so issuing a new password overwrites the previous occupancy.
type TableSession struct {
	ID        string    `gorm:"primaryKey;type:varchar(64)" json:"table_id"`
	Password  string    `gorm:"type:varchar(64);not null" json:"password"`
	SessionID string    `gorm:"type:varchar(36);not null;index" json:"session_id"`
	IsActive  bool      `gorm:"not null;index" json:"is_active"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
}

func (TableSession) TableName() string { return CollectionPasswords }

// Matches reports whether sessionID is the live session of this table.
func (t *TableSession) Matches(sessionID string) bool {
	return t.IsActive && sessionID != "" && t.SessionID == sessionID
}
