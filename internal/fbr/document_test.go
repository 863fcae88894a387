package fbr

import (
	"encoding/json"
	"testing"
	"time"

	"fbrtax/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func sampleInvoice() *model.FBRInvoice {
	return &model.FBRInvoice{
		InvoiceRefNo:          "INV-001",
		InvoiceDate:           time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC),
		InvoiceType:           "Sale Invoice",
		ScenarioID:            "SN001",
		SellerNTNCNIC:         "7654321-0",
		SellerBusinessName:    "Alpha Textiles (Pvt) Ltd",
		SellerProvince:        "Sindh",
		SellerAddress:         "Plot 5, SITE Area, Karachi",
		BuyerNTNCNIC:          "1234567-8",
		BuyerBusinessName:     "Khan Traders",
		BuyerProvince:         "Punjab",
		BuyerAddress:          "12 Mall Road, Lahore",
		BuyerRegistrationType: "Registered",
		TotalSalesValue:       dec("200"),
		TotalTaxAmount:        dec("34"),
		TotalInvoiceValue:     dec("234"),
		Status:                model.StatusDraft,
	}
}

func sampleItem() model.FBRInvoiceItem {
	return model.FBRInvoiceItem{
		HSCode:                "5208.1000",
		ProductDescription:    "Woven cotton fabric",
		UOM:                   "MTR",
		Quantity:              dec("2"),
		UnitPrice:             dec("100"),
		ValueSalesExcludingST: dec("200"),
		SalesTaxApplicable:    dec("34"),
		SaleType:              "standard",
		TotalValue:            dec("234"),
	}
}

func TestBuildDocument(t *testing.T) {
	t.Run("projects invoice fields and formats the date", func(t *testing.T) {
		doc := BuildDocument(sampleInvoice(), []model.FBRInvoiceItem{sampleItem()})

		assert.Equal(t, "INV-001", doc.InvoiceRefNo)
		assert.Equal(t, "2026-08-15", doc.InvoiceDate)
		assert.Equal(t, "Sale Invoice", doc.InvoiceType)
		assert.Equal(t, "SN001", doc.ScenarioID)
		assert.Equal(t, "7654321-0", doc.SellerNTNCNIC)
		assert.Equal(t, "1234567-8", doc.BuyerNTNCNIC)
		assert.InDelta(t, 234.0, doc.TotalInvoiceValue, 1e-9)
		require.Len(t, doc.Items, 1)
		assert.InDelta(t, 234.0, doc.Items[0].TotalValue, 1e-9)
	})

	t.Run("emits absent optional amounts as zero", func(t *testing.T) {
		doc := BuildDocument(sampleInvoice(), []model.FBRInvoiceItem{sampleItem()})

		require.Len(t, doc.Items, 1)
		item := doc.Items[0]
		assert.Zero(t, item.SalesTaxWithheldAtSource)
		assert.Zero(t, item.ExtraTax)
		assert.Zero(t, item.FurtherTax)
		assert.Zero(t, item.FEDPayable)
		assert.Zero(t, item.FixedNotifiedValue)
		assert.Zero(t, item.Discount)
	})

	t.Run("preserves item order", func(t *testing.T) {
		first := sampleItem()
		second := sampleItem()
		second.HSCode = "5209.1100"
		third := sampleItem()
		third.HSCode = "5210.2100"

		doc := BuildDocument(sampleInvoice(), []model.FBRInvoiceItem{first, second, third})

		require.Len(t, doc.Items, 3)
		assert.Equal(t, "5208.1000", doc.Items[0].HSCode)
		assert.Equal(t, "5209.1100", doc.Items[1].HSCode)
		assert.Equal(t, "5210.2100", doc.Items[2].HSCode)
	})

	t.Run("empty invoice yields an empty items array, not null", func(t *testing.T) {
		doc := BuildDocument(sampleInvoice(), nil)

		require.NotNil(t, doc.Items)
		raw, err := json.Marshal(doc)
		require.NoError(t, err)
		assert.Contains(t, string(raw), `"Items":[]`)
	})

	t.Run("serializes with the exact field names FBR expects", func(t *testing.T) {
		discount := dec("10")
		item := sampleItem()
		item.Discount = &discount
		item.TotalValue = dec("224")

		raw, err := json.Marshal(BuildDocument(sampleInvoice(), []model.FBRInvoiceItem{item}))
		require.NoError(t, err)

		var decoded map[string]any
		require.NoError(t, json.Unmarshal(raw, &decoded))

		for _, key := range []string{
			"InvoiceRefNo", "InvoiceDate", "InvoiceType", "ScenarioId",
			"SellerNTNCNIC", "SellerBusinessName", "SellerProvince", "SellerAddress",
			"BuyerNTNCNIC", "BuyerBusinessName", "BuyerProvince", "BuyerAddress",
			"BuyerRegistrationType",
			"TotalSalesValue", "TotalTaxAmount", "TotalInvoiceValue", "Items",
		} {
			assert.Contains(t, decoded, key)
		}

		items, ok := decoded["Items"].([]any)
		require.True(t, ok)
		require.Len(t, items, 1)
		line, ok := items[0].(map[string]any)
		require.True(t, ok)
		for _, key := range []string{
			"HSCode", "ProductDescription", "UOM", "Quantity", "UnitPrice",
			"ValueSalesExcludingST", "SalesTaxApplicable", "SalesTaxWithheldAtSource",
			"ExtraTax", "FurtherTax", "FEDPayable", "FixedNotifiedValue", "Discount",
			"SROScheduleNo", "SROItemSerialNo", "SaleType", "TotalValue",
		} {
			assert.Contains(t, line, key)
		}
		assert.Equal(t, 10.0, line["Discount"])
		assert.Equal(t, 224.0, line["TotalValue"])
	})
}
