package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionCreateInvoice     = "CREATE_INVOICE"
	ActionUpdateInvoice     = "UPDATE_INVOICE"
	ActionDeleteInvoice     = "DELETE_INVOICE"
	ActionAddInvoiceItem    = "ADD_INVOICE_ITEM"
	ActionRemoveInvoiceItem = "REMOVE_INVOICE_ITEM"
	ActionSubmitInvoice     = "SUBMIT_INVOICE"
)

// AuditLog tracks who did what to which invoice and when. Entries are written
// inside the same transaction as the mutation they describe.
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"`
	Details    string     `gorm:"type:jsonb" json:"details"`
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}
