package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SaleType enum constants
const (
	SaleTypeStandard = "standard"
	SaleTypeExempt   = "exempt"
)

// Product is the rate sheet for one traded good: the HS classification plus
// every tax rate needed to derive a line item's amounts. Rates are percentages
// (17 means 17%). Optional rates are nil when the component does not apply.
type Product struct {
	ID                uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OwnerID           uuid.UUID        `gorm:"type:uuid;not null;index" json:"owner_id"`
	HSCode            string           `gorm:"type:varchar(20);not null;column:hs_code" json:"hs_code"`
	Description       string           `gorm:"type:varchar(500);not null" json:"description"`
	UOM               string           `gorm:"type:varchar(20);not null;column:uom" json:"uom"`
	UnitPrice         decimal.Decimal  `gorm:"type:decimal(18,4);not null" json:"unit_price"`
	TaxRate           decimal.Decimal  `gorm:"type:decimal(10,4);not null" json:"tax_rate"`
	FixedNotifiedVal  *decimal.Decimal `gorm:"type:decimal(18,4);column:fixed_notified_value" json:"fixed_notified_value"`
	WithheldTaxRate   *decimal.Decimal `gorm:"type:decimal(10,4);column:sales_tax_withheld_rate" json:"sales_tax_withheld_rate"`
	ExtraTaxRate      *decimal.Decimal `gorm:"type:decimal(10,4)" json:"extra_tax_rate"`
	FurtherTaxRate    *decimal.Decimal `gorm:"type:decimal(10,4)" json:"further_tax_rate"`
	FEDPayableRate    *decimal.Decimal `gorm:"type:decimal(10,4);column:fed_payable_rate" json:"fed_payable_rate"`
	SROScheduleNo     string           `gorm:"type:varchar(50);column:sro_schedule_no" json:"sro_schedule_no"`
	SROItemSerialNo   string           `gorm:"type:varchar(50);column:sro_item_serial_no" json:"sro_item_serial_no"`
	SaleType          string           `gorm:"type:varchar(20);not null;default:'standard'" json:"sale_type"` // standard, exempt
	CreatedAt         time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt         gorm.DeletedAt   `gorm:"index" json:"-"`
}
