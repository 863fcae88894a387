package repository

import (
	"context"

	"fbrtax/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InvoiceRepository interface {
	Create(ctx context.Context, invoice *model.FBRInvoice) error
	Update(ctx context.Context, invoice *model.FBRInvoice) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.FBRInvoice, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.FBRInvoice, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, status model.InvoiceStatus, page, limit int) ([]model.FBRInvoice, int64, error)
}

type invoiceRepository struct {
	db *gorm.DB
}

func NewInvoiceRepository(db *gorm.DB) InvoiceRepository {
	return &invoiceRepository{db: db}
}

func (r *invoiceRepository) Create(ctx context.Context, invoice *model.FBRInvoice) error {
	return GetDB(ctx, r.db).Create(invoice).Error
}

func (r *invoiceRepository) Update(ctx context.Context, invoice *model.FBRInvoice) error {
	return GetDB(ctx, r.db).Save(invoice).Error
}

func (r *invoiceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.FBRInvoice{}).Error
}

func (r *invoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.FBRInvoice, error) {
	var invoice model.FBRInvoice
	if err := GetDB(ctx, r.db).First(&invoice, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

// FindByIDForUpdate takes a row lock on the invoice so concurrent mutations
// against the same aggregate serialize instead of racing the totals recompute.
func (r *invoiceRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.FBRInvoice, error) {
	var invoice model.FBRInvoice
	if err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).First(&invoice, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *invoiceRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, status model.InvoiceStatus, page, limit int) ([]model.FBRInvoice, int64, error) {
	var invoices []model.FBRInvoice
	var total int64

	query := GetDB(ctx, r.db).Model(&model.FBRInvoice{}).Where("owner_id = ?", ownerID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.Order("created_at desc").Offset(offset).Limit(limit).Find(&invoices).Error; err != nil {
		return nil, 0, err
	}

	return invoices, total, nil
}
