package model

import (
	"time"

	"github.com/google/uuid"
)

// Company is the seller identity printed on every invoice. Exactly one
// company may exist per owning user; invoice creation copies its fields
// into the invoice's seller snapshot.
type Company struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OwnerID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"owner_id"`
	BusinessName string    `gorm:"type:varchar(255);not null" json:"business_name"`
	NTNCNIC      string    `gorm:"type:varchar(50);not null;column:ntn_cnic" json:"ntn_cnic"`
	Province     string    `gorm:"type:varchar(100);not null" json:"province"`
	City         string    `gorm:"type:varchar(100);not null" json:"city"`
	Address      string    `gorm:"type:varchar(500);not null" json:"address"`
	LogoURL      string    `gorm:"type:varchar(255)" json:"logo_url"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
