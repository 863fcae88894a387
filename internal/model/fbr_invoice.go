package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceStatus is the closed set of invoice lifecycle states.
type InvoiceStatus string

const (
	StatusDraft     InvoiceStatus = "draft"
	StatusSubmitted InvoiceStatus = "submitted"
	StatusPosted    InvoiceStatus = "posted"
	StatusError     InvoiceStatus = "error"
)

// statusTransitions is the only source of truth for legal lifecycle moves.
// Nothing ever returns to draft once submitted.
var statusTransitions = map[InvoiceStatus][]InvoiceStatus{
	StatusDraft:     {StatusSubmitted},
	StatusSubmitted: {StatusPosted, StatusError},
	StatusPosted:    {},
	StatusError:     {},
}

// CanTransitionTo reports whether moving from s to target is a legal
// lifecycle transition.
func (s InvoiceStatus) CanTransitionTo(target InvoiceStatus) bool {
	for _, next := range statusTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// Locked reports whether the invoice contents are frozen. Submitted and
// posted invoices are immutable; error is treated the same so a failed
// submission cannot be silently edited out from under its FBR record.
func (s InvoiceStatus) Locked() bool {
	return s == StatusSubmitted || s == StatusPosted || s == StatusError
}

// Valid reports whether s is one of the known lifecycle states.
func (s InvoiceStatus) Valid() bool {
	_, ok := statusTransitions[s]
	return ok
}

// FBRInvoice is the aggregate root of the invoicing core. Seller and buyer
// fields are hard copies taken from Company and Customer at creation time and
// are never re-synced. The three totals are maintained exclusively by the
// totals recompute in the invoice service.
type FBRInvoice struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OwnerID      uuid.UUID `gorm:"type:uuid;not null;index" json:"owner_id"`
	CustomerID   uuid.UUID `gorm:"type:uuid;not null;index" json:"customer_id"`
	CompanyID    uuid.UUID `gorm:"type:uuid;not null;index" json:"company_id"`
	InvoiceRefNo string    `gorm:"type:varchar(50);not null" json:"invoice_ref_no"`
	InvoiceDate  time.Time `gorm:"type:date;not null" json:"invoice_date"`
	InvoiceType  string    `gorm:"type:varchar(50);not null;default:'Sale Invoice'" json:"invoice_type"`
	ScenarioID   string    `gorm:"type:varchar(50)" json:"scenario_id"`

	// Seller snapshot (from Company)
	SellerNTNCNIC      string `gorm:"type:varchar(50);not null;column:seller_ntn_cnic" json:"seller_ntn_cnic"`
	SellerBusinessName string `gorm:"type:varchar(255);not null" json:"seller_business_name"`
	SellerProvince     string `gorm:"type:varchar(100);not null" json:"seller_province"`
	SellerAddress      string `gorm:"type:varchar(500);not null" json:"seller_address"`

	// Buyer snapshot (from Customer)
	BuyerNTNCNIC          string `gorm:"type:varchar(50);not null;column:buyer_ntn_cnic" json:"buyer_ntn_cnic"`
	BuyerBusinessName     string `gorm:"type:varchar(255);not null" json:"buyer_business_name"`
	BuyerProvince         string `gorm:"type:varchar(100);not null" json:"buyer_province"`
	BuyerAddress          string `gorm:"type:varchar(500);not null" json:"buyer_address"`
	BuyerRegistrationType string `gorm:"type:varchar(20);not null" json:"buyer_registration_type"`

	TotalSalesValue   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"total_sales_value"`
	TotalTaxAmount    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"total_tax_amount"`
	TotalInvoiceValue decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"total_invoice_value"`

	Status       InvoiceStatus `gorm:"type:varchar(20);not null;default:'draft';index" json:"status"`
	FBRReference *string       `gorm:"type:varchar(100);column:fbr_reference" json:"fbr_reference"`
	FBRResponse  string        `gorm:"type:jsonb;column:fbr_response" json:"fbr_response,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// FBRInvoiceItem is one taxable line of an invoice. It belongs to exactly one
// invoice and keeps a product reference for validation only; amounts are fixed
// at creation and never recomputed from the product afterwards.
type FBRInvoiceItem struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	InvoiceID uuid.UUID `gorm:"type:uuid;not null;index" json:"invoice_id"`
	ProductID uuid.UUID `gorm:"type:uuid;not null" json:"product_id"`

	HSCode             string          `gorm:"type:varchar(20);not null;column:hs_code" json:"hs_code"`
	ProductDescription string          `gorm:"type:varchar(500);not null" json:"product_description"`
	UOM                string          `gorm:"type:varchar(20);not null;column:uom" json:"uom"`
	Quantity           decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"quantity"`
	UnitPrice          decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"unit_price"`

	ValueSalesExcludingST    decimal.Decimal  `gorm:"type:decimal(18,4);not null;column:value_sales_excluding_st" json:"value_sales_excluding_st"`
	SalesTaxApplicable       decimal.Decimal  `gorm:"type:decimal(18,4);not null" json:"sales_tax_applicable"`
	SalesTaxWithheldAtSource *decimal.Decimal `gorm:"type:decimal(18,4)" json:"sales_tax_withheld_at_source"`
	ExtraTax                 *decimal.Decimal `gorm:"type:decimal(18,4)" json:"extra_tax"`
	FurtherTax               *decimal.Decimal `gorm:"type:decimal(18,4)" json:"further_tax"`
	FEDPayable               *decimal.Decimal `gorm:"type:decimal(18,4);column:fed_payable" json:"fed_payable"`

	FixedNotifiedValue *decimal.Decimal `gorm:"type:decimal(18,4)" json:"fixed_notified_value"`
	Discount           *decimal.Decimal `gorm:"type:decimal(18,4)" json:"discount"`
	SROScheduleNo      string           `gorm:"type:varchar(50);column:sro_schedule_no" json:"sro_schedule_no"`
	SROItemSerialNo    string           `gorm:"type:varchar(50);column:sro_item_serial_no" json:"sro_item_serial_no"`
	SaleType           string           `gorm:"type:varchar(20);not null;default:'standard'" json:"sale_type"`

	TotalValue decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"total_value"`

	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}
