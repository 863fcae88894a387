package repository

import (
	"context"

	"fbrtax/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type InvoiceItemRepository interface {
	Create(ctx context.Context, item *model.FBRInvoiceItem) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByInvoice(ctx context.Context, invoiceID uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.FBRInvoiceItem, error)
	ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]model.FBRInvoiceItem, error)
}

type invoiceItemRepository struct {
	db *gorm.DB
}

func NewInvoiceItemRepository(db *gorm.DB) InvoiceItemRepository {
	return &invoiceItemRepository{db: db}
}

func (r *invoiceItemRepository) Create(ctx context.Context, item *model.FBRInvoiceItem) error {
	return GetDB(ctx, r.db).Create(item).Error
}

func (r *invoiceItemRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.FBRInvoiceItem{}).Error
}

func (r *invoiceItemRepository) DeleteByInvoice(ctx context.Context, invoiceID uuid.UUID) error {
	return GetDB(ctx, r.db).Where("invoice_id = ?", invoiceID).Delete(&model.FBRInvoiceItem{}).Error
}

func (r *invoiceItemRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.FBRInvoiceItem, error) {
	var item model.FBRInvoiceItem
	if err := GetDB(ctx, r.db).First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// ListByInvoice returns the invoice's items in insertion order. The FBR
// document must reproduce this order, so the sort keys are fixed here and
// nowhere else.
func (r *invoiceItemRepository) ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]model.FBRInvoiceItem, error) {
	var items []model.FBRInvoiceItem
	if err := GetDB(ctx, r.db).
		Where("invoice_id = ?", invoiceID).
		Order("created_at asc, id asc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
