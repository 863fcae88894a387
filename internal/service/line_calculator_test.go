package service

import (
	"testing"

	"fbrtax/internal/model"
	"fbrtax/pkg/apperrors"

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

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func TestResolveLineAmounts(t *testing.T) {
	t.Run("computes total from mandatory components", func(t *testing.T) {
		out, err := ResolveLineAmounts(LineAmounts{
			Quantity:              dec("2"),
			UnitPrice:             dec("100"),
			ValueSalesExcludingST: dec("200"),
			SalesTaxApplicable:    dec("34"),
		}, nil)
		require.NoError(t, err)
		assert.True(t, out.TotalValue.Equal(dec("234")), "got %s", out.TotalValue)
	})

	t.Run("adds optional components and subtracts discount", func(t *testing.T) {
		out, err := ResolveLineAmounts(LineAmounts{
			Quantity:              dec("1"),
			UnitPrice:             dec("500"),
			ValueSalesExcludingST: dec("500"),
			SalesTaxApplicable:    dec("85"),
			ExtraTax:              decPtr("10"),
			FurtherTax:            decPtr("15"),
			FEDPayable:            decPtr("5"),
			Discount:              decPtr("50"),
		}, nil)
		require.NoError(t, err)
		// 500 + 85 + 10 + 15 + 5 - 50
		assert.True(t, out.TotalValue.Equal(dec("565")), "got %s", out.TotalValue)
	})

	t.Run("withheld tax does not change the total", func(t *testing.T) {
		out, err := ResolveLineAmounts(LineAmounts{
			Quantity:                 dec("1"),
			UnitPrice:                dec("100"),
			ValueSalesExcludingST:    dec("100"),
			SalesTaxApplicable:       dec("17"),
			SalesTaxWithheldAtSource: decPtr("17"),
		}, nil)
		require.NoError(t, err)
		assert.True(t, out.TotalValue.Equal(dec("117")), "got %s", out.TotalValue)
	})

	t.Run("accepts matching declared total", func(t *testing.T) {
		out, err := ResolveLineAmounts(LineAmounts{
			Quantity:              dec("2"),
			UnitPrice:             dec("100"),
			ValueSalesExcludingST: dec("200"),
			SalesTaxApplicable:    dec("34"),
		}, decPtr("234"))
		require.NoError(t, err)
		assert.True(t, out.TotalValue.Equal(dec("234")))
	})

	t.Run("rejects mismatching declared total", func(t *testing.T) {
		_, err := ResolveLineAmounts(LineAmounts{
			Quantity:              dec("2"),
			UnitPrice:             dec("100"),
			ValueSalesExcludingST: dec("200"),
			SalesTaxApplicable:    dec("34"),
		}, decPtr("230"))
		require.Error(t, err)
		assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
	})

	t.Run("rejects zero quantity", func(t *testing.T) {
		_, err := ResolveLineAmounts(LineAmounts{
			Quantity:              decimal.Zero,
			UnitPrice:             dec("100"),
			ValueSalesExcludingST: dec("100"),
			SalesTaxApplicable:    dec("17"),
		}, nil)
		require.Error(t, err)
		assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
	})

	t.Run("rejects negative optional component", func(t *testing.T) {
		_, err := ResolveLineAmounts(LineAmounts{
			Quantity:              dec("1"),
			UnitPrice:             dec("100"),
			ValueSalesExcludingST: dec("100"),
			SalesTaxApplicable:    dec("17"),
			ExtraTax:              decPtr("-1"),
		}, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "extra_tax")
	})

	t.Run("rejects discount exceeding taxable value", func(t *testing.T) {
		_, err := ResolveLineAmounts(LineAmounts{
			Quantity:              dec("1"),
			UnitPrice:             dec("100"),
			ValueSalesExcludingST: dec("100"),
			SalesTaxApplicable:    dec("17"),
			Discount:              decPtr("200"),
		}, nil)
		require.Error(t, err)
		assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
	})
}

func TestDeriveLineAmounts(t *testing.T) {
	t.Run("derives sales tax from the product rate", func(t *testing.T) {
		product := &model.Product{TaxRate: dec("17")}

		out, err := DeriveLineAmounts(dec("2"), dec("100"), product)
		require.NoError(t, err)
		assert.True(t, out.ValueSalesExcludingST.Equal(dec("200")), "base %s", out.ValueSalesExcludingST)
		assert.True(t, out.SalesTaxApplicable.Equal(dec("34")), "tax %s", out.SalesTaxApplicable)
		assert.True(t, out.TotalValue.Equal(dec("234")), "total %s", out.TotalValue)
		assert.Nil(t, out.ExtraTax)
		assert.Nil(t, out.FurtherTax)
	})

	t.Run("applies every configured rate", func(t *testing.T) {
		product := &model.Product{
			TaxRate:         dec("17"),
			WithheldTaxRate: decPtr("1"),
			ExtraTaxRate:    decPtr("2"),
			FurtherTaxRate:  decPtr("3"),
			FEDPayableRate:  decPtr("0.5"),
		}

		out, err := DeriveLineAmounts(dec("1"), dec("1000"), product)
		require.NoError(t, err)
		assert.True(t, out.SalesTaxApplicable.Equal(dec("170")))
		require.NotNil(t, out.SalesTaxWithheldAtSource)
		assert.True(t, out.SalesTaxWithheldAtSource.Equal(dec("10")))
		require.NotNil(t, out.ExtraTax)
		assert.True(t, out.ExtraTax.Equal(dec("20")))
		require.NotNil(t, out.FurtherTax)
		assert.True(t, out.FurtherTax.Equal(dec("30")))
		require.NotNil(t, out.FEDPayable)
		assert.True(t, out.FEDPayable.Equal(dec("5")))
		// 1000 + 170 + 20 + 30 + 5; withheld is informational only
		assert.True(t, out.TotalValue.Equal(dec("1225")), "total %s", out.TotalValue)
	})

	t.Run("rounds to two decimal places with banker's rounding", func(t *testing.T) {
		product := &model.Product{TaxRate: dec("17")}

		out, err := DeriveLineAmounts(dec("3"), dec("33.33"), product)
		require.NoError(t, err)
		// 3 x 33.33 = 99.99; 17% of 99.99 = 16.9983 -> 17.00
		assert.True(t, out.ValueSalesExcludingST.Equal(dec("99.99")))
		assert.True(t, out.SalesTaxApplicable.Equal(dec("17.00")), "tax %s", out.SalesTaxApplicable)
	})

	t.Run("repeated derivation is stable", func(t *testing.T) {
		product := &model.Product{TaxRate: dec("17"), ExtraTaxRate: decPtr("2.5")}

		first, err := DeriveLineAmounts(dec("7"), dec("14.285"), product)
		require.NoError(t, err)
		second, err := DeriveLineAmounts(dec("7"), dec("14.285"), product)
		require.NoError(t, err)
		assert.True(t, first.TotalValue.Equal(second.TotalValue))
		assert.True(t, first.SalesTaxApplicable.Equal(second.SalesTaxApplicable))
	})

	t.Run("exempt product with zero rate yields zero tax", func(t *testing.T) {
		product := &model.Product{TaxRate: decimal.Zero, SaleType: model.SaleTypeExempt}

		out, err := DeriveLineAmounts(dec("4"), dec("25"), product)
		require.NoError(t, err)
		assert.True(t, out.SalesTaxApplicable.IsZero())
		assert.True(t, out.TotalValue.Equal(dec("100")))
	})

	t.Run("rejects negative unit price", func(t *testing.T) {
		_, err := DeriveLineAmounts(dec("1"), dec("-5"), &model.Product{TaxRate: dec("17")})
		require.Error(t, err)
		assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
	})
}
