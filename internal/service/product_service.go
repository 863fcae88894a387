package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fbrtax/internal/model"
	"fbrtax/internal/repository"
	"fbrtax/pkg/apperrors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CreateProductRequest struct {
	HSCode      string `json:"hs_code" binding:"required,max=20"`
	Description string `json:"description" binding:"required,max=500"`
	UOM         string `json:"uom" binding:"required,max=20"`
	UnitPrice   string `json:"unit_price" binding:"required"`
	TaxRate     string `json:"tax_rate" binding:"required"`

	FixedNotifiedValue   *string `json:"fixed_notified_value"`
	SalesTaxWithheldRate *string `json:"sales_tax_withheld_rate"`
	ExtraTaxRate         *string `json:"extra_tax_rate"`
	FurtherTaxRate       *string `json:"further_tax_rate"`
	FEDPayableRate       *string `json:"fed_payable_rate"`

	SROScheduleNo   string `json:"sro_schedule_no" binding:"omitempty,max=50"`
	SROItemSerialNo string `json:"sro_item_serial_no" binding:"omitempty,max=50"`
	SaleType        string `json:"sale_type" binding:"omitempty,oneof=standard exempt"`
}

type UpdateProductRequest struct {
	HSCode      *string `json:"hs_code" binding:"omitempty,max=20"`
	Description *string `json:"description" binding:"omitempty,max=500"`
	UOM         *string `json:"uom" binding:"omitempty,max=20"`
	UnitPrice   *string `json:"unit_price"`
	TaxRate     *string `json:"tax_rate"`

	FixedNotifiedValue   *string `json:"fixed_notified_value"`
	SalesTaxWithheldRate *string `json:"sales_tax_withheld_rate"`
	ExtraTaxRate         *string `json:"extra_tax_rate"`
	FurtherTaxRate       *string `json:"further_tax_rate"`
	FEDPayableRate       *string `json:"fed_payable_rate"`

	SROScheduleNo   *string `json:"sro_schedule_no" binding:"omitempty,max=50"`
	SROItemSerialNo *string `json:"sro_item_serial_no" binding:"omitempty,max=50"`
	SaleType        *string `json:"sale_type" binding:"omitempty,oneof=standard exempt"`
}

type ProductResponse struct {
	ID          string `json:"id"`
	HSCode      string `json:"hs_code"`
	Description string `json:"description"`
	UOM         string `json:"uom"`
	UnitPrice   string `json:"unit_price"`
	TaxRate     string `json:"tax_rate"`

	FixedNotifiedValue   *string `json:"fixed_notified_value"`
	SalesTaxWithheldRate *string `json:"sales_tax_withheld_rate"`
	ExtraTaxRate         *string `json:"extra_tax_rate"`
	FurtherTaxRate       *string `json:"further_tax_rate"`
	FEDPayableRate       *string `json:"fed_payable_rate"`

	SROScheduleNo   string `json:"sro_schedule_no"`
	SROItemSerialNo string `json:"sro_item_serial_no"`
	SaleType        string `json:"sale_type"`
	CreatedAt       string `json:"created_at"`
}

type ProductService interface {
	CreateProduct(ctx context.Context, ownerID uuid.UUID, req CreateProductRequest) (ProductResponse, error)
	GetProduct(ctx context.Context, ownerID uuid.UUID, id string) (ProductResponse, error)
	ListProducts(ctx context.Context, ownerID uuid.UUID, page, limit int, search string) ([]ProductResponse, int64, error)
	UpdateProduct(ctx context.Context, ownerID uuid.UUID, id string, req UpdateProductRequest) (ProductResponse, error)
	DeleteProduct(ctx context.Context, ownerID uuid.UUID, id string) error
}

type productService struct {
	repo repository.ProductRepository
}

func NewProductService(repo repository.ProductRepository) ProductService {
	return &productService{repo: repo}
}

func (s *productService) CreateProduct(ctx context.Context, ownerID uuid.UUID, req CreateProductRequest) (ProductResponse, error) {
	unitPrice, err := parseNonNegative("unit_price", req.UnitPrice)
	if err != nil {
		return ProductResponse{}, err
	}
	taxRate, err := parseRate("tax_rate", req.TaxRate)
	if err != nil {
		return ProductResponse{}, err
	}

	product := model.Product{
		OwnerID:     ownerID,
		HSCode:      req.HSCode,
		Description: req.Description,
		UOM:         req.UOM,
		UnitPrice:   unitPrice,
		TaxRate:     taxRate,

		SROScheduleNo:   req.SROScheduleNo,
		SROItemSerialNo: req.SROItemSerialNo,
		SaleType:        req.SaleType,
	}
	if product.SaleType == "" {
		product.SaleType = model.SaleTypeStandard
	}

	if product.FixedNotifiedVal, err = parseOptNonNegative("fixed_notified_value", req.FixedNotifiedValue); err != nil {
		return ProductResponse{}, err
	}
	if product.WithheldTaxRate, err = parseOptRate("sales_tax_withheld_rate", req.SalesTaxWithheldRate); err != nil {
		return ProductResponse{}, err
	}
	if product.ExtraTaxRate, err = parseOptRate("extra_tax_rate", req.ExtraTaxRate); err != nil {
		return ProductResponse{}, err
	}
	if product.FurtherTaxRate, err = parseOptRate("further_tax_rate", req.FurtherTaxRate); err != nil {
		return ProductResponse{}, err
	}
	if product.FEDPayableRate, err = parseOptRate("fed_payable_rate", req.FEDPayableRate); err != nil {
		return ProductResponse{}, err
	}

	if err := s.repo.Create(ctx, &product); err != nil {
		return ProductResponse{}, fmt.Errorf("failed to create product: %w", err)
	}

	return toProductResponse(product), nil
}

func (s *productService) GetProduct(ctx context.Context, ownerID uuid.UUID, id string) (ProductResponse, error) {
	product, err := s.findOwned(ctx, ownerID, id)
	if err != nil {
		return ProductResponse{}, err
	}
	return toProductResponse(*product), nil
}

func (s *productService) ListProducts(ctx context.Context, ownerID uuid.UUID, page, limit int, search string) ([]ProductResponse, int64, error) {
	products, total, err := s.repo.ListByOwner(ctx, ownerID, page, limit, search)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch products: %w", err)
	}

	result := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		result = append(result, toProductResponse(p))
	}
	return result, total, nil
}

func (s *productService) UpdateProduct(ctx context.Context, ownerID uuid.UUID, id string, req UpdateProductRequest) (ProductResponse, error) {
	product, err := s.findOwned(ctx, ownerID, id)
	if err != nil {
		return ProductResponse{}, err
	}

	if req.HSCode != nil {
		product.HSCode = *req.HSCode
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.UOM != nil {
		product.UOM = *req.UOM
	}
	if req.UnitPrice != nil {
		if product.UnitPrice, err = parseNonNegative("unit_price", *req.UnitPrice); err != nil {
			return ProductResponse{}, err
		}
	}
	if req.TaxRate != nil {
		if product.TaxRate, err = parseRate("tax_rate", *req.TaxRate); err != nil {
			return ProductResponse{}, err
		}
	}
	if req.FixedNotifiedValue != nil {
		if product.FixedNotifiedVal, err = parseOptNonNegative("fixed_notified_value", req.FixedNotifiedValue); err != nil {
			return ProductResponse{}, err
		}
	}
	if req.SalesTaxWithheldRate != nil {
		if product.WithheldTaxRate, err = parseOptRate("sales_tax_withheld_rate", req.SalesTaxWithheldRate); err != nil {
			return ProductResponse{}, err
		}
	}
	if req.ExtraTaxRate != nil {
		if product.ExtraTaxRate, err = parseOptRate("extra_tax_rate", req.ExtraTaxRate); err != nil {
			return ProductResponse{}, err
		}
	}
	if req.FurtherTaxRate != nil {
		if product.FurtherTaxRate, err = parseOptRate("further_tax_rate", req.FurtherTaxRate); err != nil {
			return ProductResponse{}, err
		}
	}
	if req.FEDPayableRate != nil {
		if product.FEDPayableRate, err = parseOptRate("fed_payable_rate", req.FEDPayableRate); err != nil {
			return ProductResponse{}, err
		}
	}
	if req.SROScheduleNo != nil {
		product.SROScheduleNo = *req.SROScheduleNo
	}
	if req.SROItemSerialNo != nil {
		product.SROItemSerialNo = *req.SROItemSerialNo
	}
	if req.SaleType != nil {
		product.SaleType = *req.SaleType
	}

	if err := s.repo.Update(ctx, product); err != nil {
		return ProductResponse{}, fmt.Errorf("failed to update product: %w", err)
	}

	return toProductResponse(*product), nil
}

func (s *productService) DeleteProduct(ctx context.Context, ownerID uuid.UUID, id string) error {
	product, err := s.findOwned(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, product.ID); err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return nil
}

func (s *productService) findOwned(ctx context.Context, ownerID uuid.UUID, id string) (*model.Product, error) {
	productID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperrors.Validation("invalid product id")
	}

	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("product not found")
		}
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	if product.OwnerID != ownerID {
		return nil, apperrors.Forbidden("product belongs to another account")
	}
	return product, nil
}

func parseNonNegative(name, raw string) (decimal.Decimal, error) {
	value, err := parseAmount(name, raw)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if value.IsNegative() {
		return decimal.Decimal{}, apperrors.Newf(apperrors.KindValidation, "%s must not be negative", name)
	}
	return value, nil
}

func parseOptNonNegative(name string, raw *string) (*decimal.Decimal, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	value, err := parseNonNegative(name, *raw)
	if err != nil {
		return nil, err
	}
	return &value, nil
}

// parseRate accepts a percentage in [0, 100].
func parseRate(name, raw string) (decimal.Decimal, error) {
	value, err := parseNonNegative(name, raw)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if value.GreaterThan(oneHundred) {
		return decimal.Decimal{}, apperrors.Newf(apperrors.KindValidation, "%s must not exceed 100", name)
	}
	return value, nil
}

func parseOptRate(name string, raw *string) (*decimal.Decimal, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	value, err := parseRate(name, *raw)
	if err != nil {
		return nil, err
	}
	return &value, nil
}

func toProductResponse(product model.Product) ProductResponse {
	return ProductResponse{
		ID:          product.ID.String(),
		HSCode:      product.HSCode,
		Description: product.Description,
		UOM:         product.UOM,
		UnitPrice:   product.UnitPrice.StringFixed(2),
		TaxRate:     product.TaxRate.StringFixed(2),

		FixedNotifiedValue:   optString(product.FixedNotifiedVal),
		SalesTaxWithheldRate: optString(product.WithheldTaxRate),
		ExtraTaxRate:         optString(product.ExtraTaxRate),
		FurtherTaxRate:       optString(product.FurtherTaxRate),
		FEDPayableRate:       optString(product.FEDPayableRate),

		SROScheduleNo:   product.SROScheduleNo,
		SROItemSerialNo: product.SROItemSerialNo,
		SaleType:        product.SaleType,
		CreatedAt:       product.CreatedAt.Format(time.RFC3339),
	}
}
