package fbr

import (
	"fbrtax/internal/model"

	"github.com/shopspring/decimal"
)

// Document is the invoice payload in the exact shape the FBR submission API
// expects. Field names are part of the external contract and must not change.
// Every numeric field is a float in the emitted JSON regardless of how it is
// stored internally.
type Document struct {
	InvoiceRefNo          string         `json:"InvoiceRefNo"`
	InvoiceDate           string         `json:"InvoiceDate"`
	InvoiceType           string         `json:"InvoiceType"`
	ScenarioID            string         `json:"ScenarioId"`
	SellerNTNCNIC         string         `json:"SellerNTNCNIC"`
	SellerBusinessName    string         `json:"SellerBusinessName"`
	SellerProvince        string         `json:"SellerProvince"`
	SellerAddress         string         `json:"SellerAddress"`
	BuyerNTNCNIC          string         `json:"BuyerNTNCNIC"`
	BuyerBusinessName     string         `json:"BuyerBusinessName"`
	BuyerProvince         string         `json:"BuyerProvince"`
	BuyerAddress          string         `json:"BuyerAddress"`
	BuyerRegistrationType string         `json:"BuyerRegistrationType"`
	TotalSalesValue       float64        `json:"TotalSalesValue"`
	TotalTaxAmount        float64        `json:"TotalTaxAmount"`
	TotalInvoiceValue     float64        `json:"TotalInvoiceValue"`
	Items                 []DocumentItem `json:"Items"`
}

// DocumentItem is one invoice line in FBR schema form.
type DocumentItem struct {
	HSCode                   string  `json:"HSCode"`
	ProductDescription       string  `json:"ProductDescription"`
	UOM                      string  `json:"UOM"`
	Quantity                 float64 `json:"Quantity"`
	UnitPrice                float64 `json:"UnitPrice"`
	ValueSalesExcludingST    float64 `json:"ValueSalesExcludingST"`
	SalesTaxApplicable       float64 `json:"SalesTaxApplicable"`
	SalesTaxWithheldAtSource float64 `json:"SalesTaxWithheldAtSource"`
	ExtraTax                 float64 `json:"ExtraTax"`
	FurtherTax               float64 `json:"FurtherTax"`
	FEDPayable               float64 `json:"FEDPayable"`
	FixedNotifiedValue       float64 `json:"FixedNotifiedValue"`
	Discount                 float64 `json:"Discount"`
	SROScheduleNo            string  `json:"SROScheduleNo"`
	SROItemSerialNo          string  `json:"SROItemSerialNo"`
	SaleType                 string  `json:"SaleType"`
	TotalValue               float64 `json:"TotalValue"`
}

// BuildDocument projects an invoice and its items into the FBR schema. It is
// pure and read-only: callers pass items in persisted order and the output
// preserves it. Absent optional amounts are emitted as 0, never omitted.
func BuildDocument(invoice *model.FBRInvoice, items []model.FBRInvoiceItem) Document {
	doc := Document{
		InvoiceRefNo:          invoice.InvoiceRefNo,
		InvoiceDate:           invoice.InvoiceDate.Format("2006-01-02"),
		InvoiceType:           invoice.InvoiceType,
		ScenarioID:            invoice.ScenarioID,
		SellerNTNCNIC:         invoice.SellerNTNCNIC,
		SellerBusinessName:    invoice.SellerBusinessName,
		SellerProvince:        invoice.SellerProvince,
		SellerAddress:         invoice.SellerAddress,
		BuyerNTNCNIC:          invoice.BuyerNTNCNIC,
		BuyerBusinessName:     invoice.BuyerBusinessName,
		BuyerProvince:         invoice.BuyerProvince,
		BuyerAddress:          invoice.BuyerAddress,
		BuyerRegistrationType: invoice.BuyerRegistrationType,
		TotalSalesValue:       invoice.TotalSalesValue.InexactFloat64(),
		TotalTaxAmount:        invoice.TotalTaxAmount.InexactFloat64(),
		TotalInvoiceValue:     invoice.TotalInvoiceValue.InexactFloat64(),
		Items:                 make([]DocumentItem, 0, len(items)),
	}

	for _, item := range items {
		doc.Items = append(doc.Items, DocumentItem{
			HSCode:                   item.HSCode,
			ProductDescription:       item.ProductDescription,
			UOM:                      item.UOM,
			Quantity:                 item.Quantity.InexactFloat64(),
			UnitPrice:                item.UnitPrice.InexactFloat64(),
			ValueSalesExcludingST:    item.ValueSalesExcludingST.InexactFloat64(),
			SalesTaxApplicable:       item.SalesTaxApplicable.InexactFloat64(),
			SalesTaxWithheldAtSource: floatOrZero(item.SalesTaxWithheldAtSource),
			ExtraTax:                 floatOrZero(item.ExtraTax),
			FurtherTax:               floatOrZero(item.FurtherTax),
			FEDPayable:               floatOrZero(item.FEDPayable),
			FixedNotifiedValue:       floatOrZero(item.FixedNotifiedValue),
			Discount:                 floatOrZero(item.Discount),
			SROScheduleNo:            item.SROScheduleNo,
			SROItemSerialNo:          item.SROItemSerialNo,
			SaleType:                 item.SaleType,
			TotalValue:               item.TotalValue.InexactFloat64(),
		})
	}

	return doc
}

func floatOrZero(d *decimal.Decimal) float64 {
	if d == nil {
		return 0
	}
	return d.InexactFloat64()
}
