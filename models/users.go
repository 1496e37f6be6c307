package models

import "time"

type CashierUser struct {
	ID           string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Username     string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"username"`
	PasswordHash string    `gorm:"type:varchar(255);not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (CashierUser) TableName() string { return CollectionCashierUsers }

// AdminUser is a singleton stored under AdminUserID.
type AdminUser struct {
	ID           string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Username     string    `gorm:"type:varchar(100);not null" json:"username"`
	PasswordHash string    `gorm:"type:varchar(255);not null" json:"-"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (AdminUser) TableName() string { return CollectionAdminUser }

const (
	RoleCashier = "cashier"
	RoleAdmin   = "admin"
)
