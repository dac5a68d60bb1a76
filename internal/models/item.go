package models

import (
	"strings"
	"time"
)

type ItemStatus string

const (
	ItemStatusLost     ItemStatus = "lost"
	ItemStatusFound    ItemStatus = "found"
	ItemStatusReturned ItemStatus = "returned"
)

// Valid reports whether s is one of the statuses an item may hold.
func (s ItemStatus) Valid() bool {
	switch s {
	case ItemStatusLost, ItemStatusFound, ItemStatusReturned:
		return true
	}
	return false
}

// ParseItemStatus normalizes raw input and validates it.
func ParseItemStatus(raw string) (ItemStatus, bool) {
	s := ItemStatus(strings.ToLower(strings.TrimSpace(raw)))
	return s, s.Valid()
}

// Known categories. Category is an open string; these are the ones the UI offers.
const (
	CategoryElectronics = "electronics"
	CategoryAccessories = "accessories"
	CategoryDocuments   = "documents"
	CategoryKeys        = "keys"
	CategoryClothing    = "clothing"
	CategoryOther       = "other"
)

var KnownCategories = []string{
	CategoryElectronics,
	CategoryAccessories,
	CategoryDocuments,
	CategoryKeys,
	CategoryClothing,
	CategoryOther,
}

type Item struct {
	ID          uint64     `gorm:"primarykey" json:"id"`
	Title       string     `gorm:"type:varchar(100);not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	Category    string     `gorm:"type:varchar(50)" json:"category"`
	Location    string     `gorm:"type:varchar(100)" json:"location"`
	Status      ItemStatus `gorm:"type:varchar(20);not null;default:'lost'" json:"status"`
	ImageRef    *string    `gorm:"type:varchar(255)" json:"image_ref"`
	Views       uint64     `gorm:"not null;default:0" json:"views"`
	OwnerID     uint64     `gorm:"not null;index" json:"owner_id"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// Relations
	Owner User `gorm:"foreignKey:OwnerID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"owner,omitempty"`
}
