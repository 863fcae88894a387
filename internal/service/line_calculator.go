package service

import (
	"fbrtax/internal/model"
	"fbrtax/pkg/apperrors"

	"github.com/shopspring/decimal"
)

var oneHundred = decimal.NewFromInt(100)

// LineAmounts holds every monetary fact of one invoice line. Optional
// components stay nil when they do not apply; the FBR document later emits
// them as 0.
type LineAmounts struct {
	Quantity                 decimal.Decimal
	UnitPrice                decimal.Decimal
	ValueSalesExcludingST    decimal.Decimal
	SalesTaxApplicable       decimal.Decimal
	SalesTaxWithheldAtSource *decimal.Decimal
	ExtraTax                 *decimal.Decimal
	FurtherTax               *decimal.Decimal
	FEDPayable               *decimal.Decimal
	FixedNotifiedValue       *decimal.Decimal
	Discount                 *decimal.Decimal
	TotalValue               decimal.Decimal
}

// ResolveLineAmounts validates caller-supplied amounts and fixes TotalValue as
//
//	value_sales_excluding_st + sales_tax_applicable + extra_tax + further_tax
//	+ fed_payable − discount
//
// with absent components counted as 0. A declaredTotal, when given, must match
// the derived total exactly. Negative derived totals are rejected.
func ResolveLineAmounts(in LineAmounts, declaredTotal *decimal.Decimal) (LineAmounts, error) {
	if !in.Quantity.IsPositive() {
		return LineAmounts{}, apperrors.Validation("quantity must be greater than zero")
	}
	if in.UnitPrice.IsNegative() {
		return LineAmounts{}, apperrors.Validation("unit_price must not be negative")
	}
	if in.ValueSalesExcludingST.IsNegative() {
		return LineAmounts{}, apperrors.Validation("value_sales_excluding_st must not be negative")
	}
	if in.SalesTaxApplicable.IsNegative() {
		return LineAmounts{}, apperrors.Validation("sales_tax_applicable must not be negative")
	}
	for _, opt := range []struct {
		name  string
		value *decimal.Decimal
	}{
		{"sales_tax_withheld_at_source", in.SalesTaxWithheldAtSource},
		{"extra_tax", in.ExtraTax},
		{"further_tax", in.FurtherTax},
		{"fed_payable", in.FEDPayable},
		{"fixed_notified_value", in.FixedNotifiedValue},
		{"discount", in.Discount},
	} {
		if opt.value != nil && opt.value.IsNegative() {
			return LineAmounts{}, apperrors.Newf(apperrors.KindValidation, "%s must not be negative", opt.name)
		}
	}

	total := in.ValueSalesExcludingST.
		Add(in.SalesTaxApplicable).
		Add(valueOrZero(in.ExtraTax)).
		Add(valueOrZero(in.FurtherTax)).
		Add(valueOrZero(in.FEDPayable)).
		Sub(valueOrZero(in.Discount))
	if total.IsNegative() {
		return LineAmounts{}, apperrors.Validation("discount exceeds the line's taxable value")
	}
	if declaredTotal != nil && !declaredTotal.Equal(total) {
		return LineAmounts{}, apperrors.Newf(apperrors.KindValidation,
			"total_value %s does not match derived total %s", declaredTotal.String(), total.String())
	}

	in.TotalValue = total
	return in, nil
}

// DeriveLineAmounts computes a full line from quantity, unit price, and the
// product's rate sheet. Base value is quantity × unit price; each configured
// rate contributes base × rate/100. All derived values use banker's rounding
// at 2 decimal places so repeated derivation is stable.
func DeriveLineAmounts(quantity, unitPrice decimal.Decimal, product *model.Product) (LineAmounts, error) {
	if !quantity.IsPositive() {
		return LineAmounts{}, apperrors.Validation("quantity must be greater than zero")
	}
	if unitPrice.IsNegative() {
		return LineAmounts{}, apperrors.Validation("unit_price must not be negative")
	}

	base := quantity.Mul(unitPrice).RoundBank(2)

	amounts := LineAmounts{
		Quantity:              quantity,
		UnitPrice:             unitPrice,
		ValueSalesExcludingST: base,
		SalesTaxApplicable:    percentOf(base, product.TaxRate),
		FixedNotifiedValue:    product.FixedNotifiedVal,
	}
	if product.WithheldTaxRate != nil {
		amounts.SalesTaxWithheldAtSource = decimalPtr(percentOf(base, *product.WithheldTaxRate))
	}
	if product.ExtraTaxRate != nil {
		amounts.ExtraTax = decimalPtr(percentOf(base, *product.ExtraTaxRate))
	}
	if product.FurtherTaxRate != nil {
		amounts.FurtherTax = decimalPtr(percentOf(base, *product.FurtherTaxRate))
	}
	if product.FEDPayableRate != nil {
		amounts.FEDPayable = decimalPtr(percentOf(base, *product.FEDPayableRate))
	}

	return ResolveLineAmounts(amounts, nil)
}

func percentOf(base, rate decimal.Decimal) decimal.Decimal {
	return base.Mul(rate).Div(oneHundred).RoundBank(2)
}

func valueOrZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}

func decimalPtr(d decimal.Decimal) *decimal.Decimal {
	return &d
}
