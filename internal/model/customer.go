package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RegistrationType enum constants
const (
	RegistrationRegistered   = "Registered"
	RegistrationUnregistered = "Unregistered"
)

// Customer is a buyer identity. Invoices reference a customer at creation
// time and copy its fields into the buyer snapshot; later customer edits do
// not flow back into existing invoices.
type Customer struct {
	ID               uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OwnerID          uuid.UUID      `gorm:"type:uuid;not null;index" json:"owner_id"`
	BusinessName     string         `gorm:"type:varchar(255);not null" json:"business_name"`
	NTNCNIC          string         `gorm:"type:varchar(50);not null;column:ntn_cnic" json:"ntn_cnic"`
	Province         string         `gorm:"type:varchar(100);not null" json:"province"`
	City             string         `gorm:"type:varchar(100);not null" json:"city"`
	Address          string         `gorm:"type:varchar(500);not null" json:"address"`
	RegistrationType string         `gorm:"type:varchar(20);not null" json:"registration_type"` // Registered, Unregistered
	CreatedAt        time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}
