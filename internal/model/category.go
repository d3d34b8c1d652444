package model

import "time"

// Category is an expense category.
type Category struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Name      string    `gorm:"size:64;uniqueIndex;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CategoryRule assigns CategoryName to debits whose memo contains Keyword.
// Rules are evaluated in descending Priority.
type CategoryRule struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	Keyword      string    `gorm:"size:128;not null" json:"keyword"`
	CategoryName string    `gorm:"size:64;not null" json:"category_name"`
	Priority     int       `gorm:"not null;default:0;index" json:"priority"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
