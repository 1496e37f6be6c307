package models

type MenuItem struct {
	ID          string  `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name        string  `gorm:"type:varchar(255);not null" json:"name"`
	Price       float64 `gorm:"type:decimal(10,2);not null" json:"price"`
	Description string  `gorm:"type:text" json:"description"`
	Category    string  `gorm:"type:varchar(100);not null;index" json:"category"`
	ImageURL    string  `gorm:"type:varchar(255)" json:"image_url"`
}

func (MenuItem) TableName() string { return CollectionMenu }
