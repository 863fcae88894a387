package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"fbrtax/internal/fbr"
	"fbrtax/internal/model"
	"fbrtax/internal/repository"
	"fbrtax/pkg/apperrors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateInvoiceRequest struct {
	InvoiceRefNo string `json:"invoice_ref_no" binding:"required,max=50"`
	InvoiceDate  string `json:"invoice_date" binding:"required"` // YYYY-MM-DD
	InvoiceType  string `json:"invoice_type" binding:"max=50"`
	ScenarioID   string `json:"scenario_id" binding:"max=50"`
	CustomerID   string `json:"customer_id" binding:"required,uuid"`
	CompanyID    string `json:"company_id" binding:"required,uuid"`
}

// UpdateInvoiceRequest edits identity fields on a draft invoice. Re-pointing
// customer_id or company_id refreshes the corresponding snapshot.
type UpdateInvoiceRequest struct {
	InvoiceRefNo *string `json:"invoice_ref_no" binding:"omitempty,max=50"`
	InvoiceDate  *string `json:"invoice_date"`
	InvoiceType  *string `json:"invoice_type" binding:"omitempty,max=50"`
	ScenarioID   *string `json:"scenario_id" binding:"omitempty,max=50"`
	CustomerID   *string `json:"customer_id" binding:"omitempty,uuid"`
	CompanyID    *string `json:"company_id" binding:"omitempty,uuid"`
}

// AddInvoiceItemRequest carries one new line. With auto_calculate the tax
// amounts are derived from the product's rate sheet and any supplied amounts
// are ignored; otherwise the caller's amounts are validated and taken as-is.
type AddInvoiceItemRequest struct {
	ProductID     string `json:"product_id" binding:"required,uuid"`
	Quantity      string `json:"quantity" binding:"required"`
	UnitPrice     string `json:"unit_price" binding:"required"`
	AutoCalculate bool   `json:"auto_calculate"`

	ValueSalesExcludingST    string  `json:"value_sales_excluding_st"`
	SalesTaxApplicable       string  `json:"sales_tax_applicable"`
	SalesTaxWithheldAtSource *string `json:"sales_tax_withheld_at_source"`
	ExtraTax                 *string `json:"extra_tax"`
	FurtherTax               *string `json:"further_tax"`
	FEDPayable               *string `json:"fed_payable"`
	FixedNotifiedValue       *string `json:"fixed_notified_value"`
	Discount                 *string `json:"discount"`
	TotalValue               *string `json:"total_value"`

	HSCode             string `json:"hs_code" binding:"omitempty,max=20"`
	ProductDescription string `json:"product_description" binding:"omitempty,max=500"`
	UOM                string `json:"uom" binding:"omitempty,max=20"`
	SROScheduleNo      string `json:"sro_schedule_no" binding:"omitempty,max=50"`
	SROItemSerialNo    string `json:"sro_item_serial_no" binding:"omitempty,max=50"`
	SaleType           string `json:"sale_type" binding:"omitempty,oneof=standard exempt"`
}

type InvoiceFilter struct {
	Status string // draft, submitted, posted, error or empty for all
	Page   int
	Limit  int
}

type InvoiceResponse struct {
	ID                    string  `json:"id"`
	InvoiceRefNo          string  `json:"invoice_ref_no"`
	InvoiceDate           string  `json:"invoice_date"`
	InvoiceType           string  `json:"invoice_type"`
	ScenarioID            string  `json:"scenario_id"`
	CustomerID            string  `json:"customer_id"`
	CompanyID             string  `json:"company_id"`
	SellerNTNCNIC         string  `json:"seller_ntn_cnic"`
	SellerBusinessName    string  `json:"seller_business_name"`
	SellerProvince        string  `json:"seller_province"`
	SellerAddress         string  `json:"seller_address"`
	BuyerNTNCNIC          string  `json:"buyer_ntn_cnic"`
	BuyerBusinessName     string  `json:"buyer_business_name"`
	BuyerProvince         string  `json:"buyer_province"`
	BuyerAddress          string  `json:"buyer_address"`
	BuyerRegistrationType string  `json:"buyer_registration_type"`
	TotalSalesValue       string  `json:"total_sales_value"`
	TotalTaxAmount        string  `json:"total_tax_amount"`
	TotalInvoiceValue     string  `json:"total_invoice_value"`
	Status                string  `json:"status"`
	FBRReference          *string `json:"fbr_reference"`
	CreatedAt             string  `json:"created_at"`
}

type InvoiceItemResponse struct {
	ID                       string  `json:"id"`
	InvoiceID                string  `json:"invoice_id"`
	ProductID                string  `json:"product_id"`
	HSCode                   string  `json:"hs_code"`
	ProductDescription       string  `json:"product_description"`
	UOM                      string  `json:"uom"`
	Quantity                 string  `json:"quantity"`
	UnitPrice                string  `json:"unit_price"`
	ValueSalesExcludingST    string  `json:"value_sales_excluding_st"`
	SalesTaxApplicable       string  `json:"sales_tax_applicable"`
	SalesTaxWithheldAtSource *string `json:"sales_tax_withheld_at_source"`
	ExtraTax                 *string `json:"extra_tax"`
	FurtherTax               *string `json:"further_tax"`
	FEDPayable               *string `json:"fed_payable"`
	FixedNotifiedValue       *string `json:"fixed_notified_value"`
	Discount                 *string `json:"discount"`
	SROScheduleNo            string  `json:"sro_schedule_no"`
	SROItemSerialNo          string  `json:"sro_item_serial_no"`
	SaleType                 string  `json:"sale_type"`
	TotalValue               string  `json:"total_value"`
	CreatedAt                string  `json:"created_at"`
}

type InvoiceTotals struct {
	TotalSalesValue   string `json:"total_sales_value"`
	TotalTaxAmount    string `json:"total_tax_amount"`
	TotalInvoiceValue string `json:"total_invoice_value"`
}

type SubmitResult struct {
	Message      string `json:"message"`
	FBRReference string `json:"fbr_reference"`
	Status       string `json:"status"`
}

// --- Interface ---

type InvoiceService interface {
	CreateInvoice(ctx context.Context, ownerID uuid.UUID, req CreateInvoiceRequest) (InvoiceResponse, error)
	GetInvoice(ctx context.Context, ownerID uuid.UUID, id string) (InvoiceResponse, error)
	ListInvoices(ctx context.Context, ownerID uuid.UUID, filter InvoiceFilter) ([]InvoiceResponse, int64, error)
	UpdateInvoice(ctx context.Context, ownerID uuid.UUID, id string, req UpdateInvoiceRequest) (InvoiceResponse, error)
	DeleteInvoice(ctx context.Context, ownerID uuid.UUID, id string) error
	AddItem(ctx context.Context, ownerID uuid.UUID, invoiceID string, req AddInvoiceItemRequest) (InvoiceItemResponse, InvoiceTotals, error)
	RemoveItem(ctx context.Context, ownerID uuid.UUID, invoiceID, itemID string) (InvoiceTotals, error)
	ListItems(ctx context.Context, ownerID uuid.UUID, invoiceID string) ([]InvoiceItemResponse, error)
	CalculateTotals(ctx context.Context, ownerID uuid.UUID, invoiceID string) (InvoiceTotals, error)
	SubmitToFBR(ctx context.Context, ownerID uuid.UUID, invoiceID string) (SubmitResult, error)
	BuildFBRDocument(ctx context.Context, ownerID uuid.UUID, invoiceID string) (fbr.Document, error)
}

type invoiceService struct {
	invoiceRepo  repository.InvoiceRepository
	itemRepo     repository.InvoiceItemRepository
	customerRepo repository.CustomerRepository
	companyRepo  repository.CompanyRepository
	productRepo  repository.ProductRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
	fbrClient    fbr.Client
	hub          interface{ GetBroadcast() chan []byte } // optional websocket hub
}

func NewInvoiceService(
	invoiceRepo repository.InvoiceRepository,
	itemRepo repository.InvoiceItemRepository,
	customerRepo repository.CustomerRepository,
	companyRepo repository.CompanyRepository,
	productRepo repository.ProductRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	fbrClient fbr.Client,
	hub interface{ GetBroadcast() chan []byte },
) InvoiceService {
	return &invoiceService{
		invoiceRepo:  invoiceRepo,
		itemRepo:     itemRepo,
		customerRepo: customerRepo,
		companyRepo:  companyRepo,
		productRepo:  productRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
		fbrClient:    fbrClient,
		hub:          hub,
	}
}

// --- Implementation ---

func (s *invoiceService) CreateInvoice(ctx context.Context, ownerID uuid.UUID, req CreateInvoiceRequest) (InvoiceResponse, error) {
	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		return InvoiceResponse{}, apperrors.Validation("invalid customer_id")
	}
	companyID, err := uuid.Parse(req.CompanyID)
	if err != nil {
		return InvoiceResponse{}, apperrors.Validation("invalid company_id")
	}
	invoiceDate, err := time.Parse("2006-01-02", req.InvoiceDate)
	if err != nil {
		return InvoiceResponse{}, apperrors.Validation("invoice_date must be YYYY-MM-DD")
	}

	invoiceType := req.InvoiceType
	if invoiceType == "" {
		invoiceType = "Sale Invoice"
	}

	var invoice model.FBRInvoice
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		customer, guardErr := s.guardCustomer(txCtx, ownerID, customerID)
		if guardErr != nil {
			return guardErr
		}
		company, guardErr := s.guardCompany(txCtx, ownerID, companyID)
		if guardErr != nil {
			return guardErr
		}

		invoice = model.FBRInvoice{
			OwnerID:      ownerID,
			CustomerID:   customer.ID,
			CompanyID:    company.ID,
			InvoiceRefNo: req.InvoiceRefNo,
			InvoiceDate:  invoiceDate,
			InvoiceType:  invoiceType,
			ScenarioID:   req.ScenarioID,
			Status:       model.StatusDraft,

			TotalSalesValue:   decimal.Zero,
			TotalTaxAmount:    decimal.Zero,
			TotalInvoiceValue: decimal.Zero,
		}
		applySellerSnapshot(&invoice, company)
		applyBuyerSnapshot(&invoice, customer)

		if createErr := s.invoiceRepo.Create(txCtx, &invoice); createErr != nil {
			return fmt.Errorf("failed to create invoice: %w", createErr)
		}

		return s.writeAudit(txCtx, ownerID, model.ActionCreateInvoice, invoice.ID.String(), invoice.InvoiceRefNo, map[string]any{
			"customer_id": customer.ID.String(),
			"company_id":  company.ID.String(),
		})
	})
	if err != nil {
		return InvoiceResponse{}, err
	}

	return toInvoiceResponse(invoice), nil
}

func (s *invoiceService) GetInvoice(ctx context.Context, ownerID uuid.UUID, id string) (InvoiceResponse, error) {
	invoice, err := s.ownedInvoice(ctx, ownerID, id, false)
	if err != nil {
		return InvoiceResponse{}, err
	}
	return toInvoiceResponse(*invoice), nil
}

func (s *invoiceService) ListInvoices(ctx context.Context, ownerID uuid.UUID, filter InvoiceFilter) ([]InvoiceResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}

	status := model.InvoiceStatus(filter.Status)
	if filter.Status != "" && !status.Valid() {
		return nil, 0, apperrors.Newf(apperrors.KindValidation, "unknown status %q", filter.Status)
	}

	invoices, total, err := s.invoiceRepo.ListByOwner(ctx, ownerID, status, filter.Page, filter.Limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch invoices: %w", err)
	}

	result := make([]InvoiceResponse, 0, len(invoices))
	for _, inv := range invoices {
		result = append(result, toInvoiceResponse(inv))
	}
	return result, total, nil
}

func (s *invoiceService) UpdateInvoice(ctx context.Context, ownerID uuid.UUID, id string, req UpdateInvoiceRequest) (InvoiceResponse, error) {
	var updated model.FBRInvoice
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		invoice, guardErr := s.ownedInvoice(txCtx, ownerID, id, true)
		if guardErr != nil {
			return guardErr
		}
		if invoice.Status.Locked() {
			return lockedErr(invoice.Status)
		}

		if req.InvoiceRefNo != nil {
			invoice.InvoiceRefNo = *req.InvoiceRefNo
		}
		if req.InvoiceDate != nil {
			parsed, parseErr := time.Parse("2006-01-02", *req.InvoiceDate)
			if parseErr != nil {
				return apperrors.Validation("invoice_date must be YYYY-MM-DD")
			}
			invoice.InvoiceDate = parsed
		}
		if req.InvoiceType != nil {
			invoice.InvoiceType = *req.InvoiceType
		}
		if req.ScenarioID != nil {
			invoice.ScenarioID = *req.ScenarioID
		}
		if req.CustomerID != nil {
			customerID, parseErr := uuid.Parse(*req.CustomerID)
			if parseErr != nil {
				return apperrors.Validation("invalid customer_id")
			}
			customer, guardErr := s.guardCustomer(txCtx, ownerID, customerID)
			if guardErr != nil {
				return guardErr
			}
			invoice.CustomerID = customer.ID
			applyBuyerSnapshot(invoice, customer)
		}
		if req.CompanyID != nil {
			companyID, parseErr := uuid.Parse(*req.CompanyID)
			if parseErr != nil {
				return apperrors.Validation("invalid company_id")
			}
			company, guardErr := s.guardCompany(txCtx, ownerID, companyID)
			if guardErr != nil {
				return guardErr
			}
			invoice.CompanyID = company.ID
			applySellerSnapshot(invoice, company)
		}

		if updateErr := s.invoiceRepo.Update(txCtx, invoice); updateErr != nil {
			return fmt.Errorf("failed to update invoice: %w", updateErr)
		}
		updated = *invoice

		return s.writeAudit(txCtx, ownerID, model.ActionUpdateInvoice, invoice.ID.String(), invoice.InvoiceRefNo, nil)
	})
	if err != nil {
		return InvoiceResponse{}, err
	}

	return toInvoiceResponse(updated), nil
}

func (s *invoiceService) DeleteInvoice(ctx context.Context, ownerID uuid.UUID, id string) error {
	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		invoice, guardErr := s.ownedInvoice(txCtx, ownerID, id, true)
		if guardErr != nil {
			return guardErr
		}
		if invoice.Status.Locked() {
			return lockedErr(invoice.Status)
		}

		// Items are lifecycle-bound to the invoice
		if delErr := s.itemRepo.DeleteByInvoice(txCtx, invoice.ID); delErr != nil {
			return fmt.Errorf("failed to delete invoice items: %w", delErr)
		}
		if delErr := s.invoiceRepo.Delete(txCtx, invoice.ID); delErr != nil {
			return fmt.Errorf("failed to delete invoice: %w", delErr)
		}

		return s.writeAudit(txCtx, ownerID, model.ActionDeleteInvoice, invoice.ID.String(), invoice.InvoiceRefNo, nil)
	})
}

func (s *invoiceService) AddItem(ctx context.Context, ownerID uuid.UUID, invoiceID string, req AddInvoiceItemRequest) (InvoiceItemResponse, InvoiceTotals, error) {
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return InvoiceItemResponse{}, InvoiceTotals{}, apperrors.Validation("invalid product_id")
	}

	var (
		item   model.FBRInvoiceItem
		totals InvoiceTotals
	)
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		invoice, guardErr := s.ownedInvoice(txCtx, ownerID, invoiceID, true)
		if guardErr != nil {
			return guardErr
		}
		if invoice.Status.Locked() {
			return lockedErr(invoice.Status)
		}

		product, guardErr := s.guardProduct(txCtx, ownerID, productID)
		if guardErr != nil {
			return guardErr
		}

		amounts, calcErr := s.lineAmountsFromRequest(req, product)
		if calcErr != nil {
			return calcErr
		}

		item = buildInvoiceItem(invoice.ID, product, req, amounts)
		if createErr := s.itemRepo.Create(txCtx, &item); createErr != nil {
			return fmt.Errorf("failed to create invoice item: %w", createErr)
		}

		recomputed, aggErr := s.recomputeTotals(txCtx, invoice)
		if aggErr != nil {
			return aggErr
		}
		totals = recomputed

		return s.writeAudit(txCtx, ownerID, model.ActionAddInvoiceItem, invoice.ID.String(), invoice.InvoiceRefNo, map[string]any{
			"item_id":     item.ID.String(),
			"product_id":  product.ID.String(),
			"total_value": item.TotalValue.String(),
		})
	})
	if err != nil {
		return InvoiceItemResponse{}, InvoiceTotals{}, err
	}

	return toItemResponse(item), totals, nil
}

func (s *invoiceService) RemoveItem(ctx context.Context, ownerID uuid.UUID, invoiceID, itemID string) (InvoiceTotals, error) {
	parsedItemID, err := uuid.Parse(itemID)
	if err != nil {
		return InvoiceTotals{}, apperrors.Validation("invalid item id")
	}

	var totals InvoiceTotals
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		invoice, guardErr := s.ownedInvoice(txCtx, ownerID, invoiceID, true)
		if guardErr != nil {
			return guardErr
		}
		if invoice.Status.Locked() {
			return lockedErr(invoice.Status)
		}

		item, findErr := s.itemRepo.FindByID(txCtx, parsedItemID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("invoice item not found")
			}
			return fmt.Errorf("failed to load invoice item: %w", findErr)
		}
		if item.InvoiceID != invoice.ID {
			return apperrors.NotFound("invoice item not found")
		}

		if delErr := s.itemRepo.Delete(txCtx, item.ID); delErr != nil {
			return fmt.Errorf("failed to delete invoice item: %w", delErr)
		}

		recomputed, aggErr := s.recomputeTotals(txCtx, invoice)
		if aggErr != nil {
			return aggErr
		}
		totals = recomputed

		return s.writeAudit(txCtx, ownerID, model.ActionRemoveInvoiceItem, invoice.ID.String(), invoice.InvoiceRefNo, map[string]any{
			"item_id": item.ID.String(),
		})
	})
	if err != nil {
		return InvoiceTotals{}, err
	}

	return totals, nil
}

func (s *invoiceService) ListItems(ctx context.Context, ownerID uuid.UUID, invoiceID string) ([]InvoiceItemResponse, error) {
	invoice, err := s.ownedInvoice(ctx, ownerID, invoiceID, false)
	if err != nil {
		return nil, err
	}

	items, err := s.itemRepo.ListByInvoice(ctx, invoice.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch invoice items: %w", err)
	}

	result := make([]InvoiceItemResponse, 0, len(items))
	for _, it := range items {
		result = append(result, toItemResponse(it))
	}
	return result, nil
}

// CalculateTotals forces a full recompute of the three invoice totals. The
// fold is idempotent, so running it on a locked invoice is harmless and the
// operation is not status-guarded.
func (s *invoiceService) CalculateTotals(ctx context.Context, ownerID uuid.UUID, invoiceID string) (InvoiceTotals, error) {
	var totals InvoiceTotals
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		invoice, guardErr := s.ownedInvoice(txCtx, ownerID, invoiceID, true)
		if guardErr != nil {
			return guardErr
		}

		recomputed, aggErr := s.recomputeTotals(txCtx, invoice)
		if aggErr != nil {
			return aggErr
		}
		totals = recomputed
		return nil
	})
	if err != nil {
		return InvoiceTotals{}, err
	}
	return totals, nil
}

func (s *invoiceService) SubmitToFBR(ctx context.Context, ownerID uuid.UUID, invoiceID string) (SubmitResult, error) {
	var result SubmitResult
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		invoice, guardErr := s.ownedInvoice(txCtx, ownerID, invoiceID, true)
		if guardErr != nil {
			return guardErr
		}
		if invoice.Status != model.StatusDraft {
			return apperrors.Newf(apperrors.KindImmutableState,
				"only draft invoices can be submitted, current status is %s", invoice.Status)
		}

		items, itemsErr := s.itemRepo.ListByInvoice(txCtx, invoice.ID)
		if itemsErr != nil {
			return fmt.Errorf("failed to fetch invoice items: %w", itemsErr)
		}
		if len(items) == 0 {
			return apperrors.Validation("cannot submit an invoice with no items")
		}

		doc := fbr.BuildDocument(invoice, items)
		submission, submitErr := s.fbrClient.Submit(txCtx, doc)
		if submitErr != nil {
			// The invoice stays draft so submission can be retried
			return fmt.Errorf("fbr submission failed: %w", submitErr)
		}

		if !invoice.Status.CanTransitionTo(model.StatusSubmitted) {
			return lockedErr(invoice.Status)
		}
		invoice.Status = model.StatusSubmitted
		invoice.FBRReference = &submission.Reference
		invoice.FBRResponse = string(submission.RawResponse)

		if updateErr := s.invoiceRepo.Update(txCtx, invoice); updateErr != nil {
			return fmt.Errorf("failed to persist submission: %w", updateErr)
		}

		result = SubmitResult{
			Message:      "Invoice submitted to FBR successfully",
			FBRReference: submission.Reference,
			Status:       string(invoice.Status),
		}

		return s.writeAudit(txCtx, ownerID, model.ActionSubmitInvoice, invoice.ID.String(), invoice.InvoiceRefNo, map[string]any{
			"fbr_reference": submission.Reference,
		})
	})
	if err != nil {
		return SubmitResult{}, err
	}

	s.broadcast("invoice_submitted", invoiceID, result.Status, result.FBRReference)
	return result, nil
}

func (s *invoiceService) BuildFBRDocument(ctx context.Context, ownerID uuid.UUID, invoiceID string) (fbr.Document, error) {
	invoice, err := s.ownedInvoice(ctx, ownerID, invoiceID, false)
	if err != nil {
		return fbr.Document{}, err
	}

	items, err := s.itemRepo.ListByInvoice(ctx, invoice.ID)
	if err != nil {
		return fbr.Document{}, fmt.Errorf("failed to fetch invoice items: %w", err)
	}

	return fbr.BuildDocument(invoice, items), nil
}

// --- Guards ---

// ownedInvoice loads the invoice and enforces ownership. Mutating callers set
// forUpdate so the row lock serializes concurrent writes to the aggregate.
func (s *invoiceService) ownedInvoice(ctx context.Context, ownerID uuid.UUID, id string, forUpdate bool) (*model.FBRInvoice, error) {
	invoiceID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperrors.Validation("invalid invoice id")
	}

	var invoice *model.FBRInvoice
	if forUpdate {
		invoice, err = s.invoiceRepo.FindByIDForUpdate(ctx, invoiceID)
	} else {
		invoice, err = s.invoiceRepo.FindByID(ctx, invoiceID)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("invoice not found")
		}
		return nil, fmt.Errorf("failed to load invoice: %w", err)
	}
	if invoice.OwnerID != ownerID {
		return nil, apperrors.Forbidden("invoice belongs to another account")
	}
	return invoice, nil
}

func (s *invoiceService) guardCustomer(ctx context.Context, ownerID, customerID uuid.UUID) (*model.Customer, error) {
	customer, err := s.customerRepo.FindByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.InvalidReference("referenced customer does not exist")
		}
		return nil, fmt.Errorf("failed to load customer: %w", err)
	}
	if customer.OwnerID != ownerID {
		return nil, apperrors.InvalidReference("referenced customer belongs to another account")
	}
	return customer, nil
}

func (s *invoiceService) guardCompany(ctx context.Context, ownerID, companyID uuid.UUID) (*model.Company, error) {
	company, err := s.companyRepo.FindByID(ctx, companyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.InvalidReference("referenced company does not exist")
		}
		return nil, fmt.Errorf("failed to load company: %w", err)
	}
	if company.OwnerID != ownerID {
		return nil, apperrors.InvalidReference("referenced company belongs to another account")
	}
	return company, nil
}

func (s *invoiceService) guardProduct(ctx context.Context, ownerID, productID uuid.UUID) (*model.Product, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.InvalidReference("referenced product does not exist")
		}
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	if product.OwnerID != ownerID {
		return nil, apperrors.InvalidReference("referenced product belongs to another account")
	}
	return product, nil
}

// --- Totals aggregation ---

// recomputeTotals folds over every item currently attached to the invoice and
// persists the three aggregate fields. Always a full fold, never a delta.
func (s *invoiceService) recomputeTotals(ctx context.Context, invoice *model.FBRInvoice) (InvoiceTotals, error) {
	items, err := s.itemRepo.ListByInvoice(ctx, invoice.ID)
	if err != nil {
		return InvoiceTotals{}, fmt.Errorf("failed to fetch invoice items: %w", err)
	}

	salesValue := decimal.Zero
	taxAmount := decimal.Zero
	invoiceValue := decimal.Zero
	for _, item := range items {
		salesValue = salesValue.Add(item.ValueSalesExcludingST)
		taxAmount = taxAmount.Add(item.SalesTaxApplicable)
		invoiceValue = invoiceValue.Add(item.TotalValue)
	}

	invoice.TotalSalesValue = salesValue
	invoice.TotalTaxAmount = taxAmount
	invoice.TotalInvoiceValue = invoiceValue

	if err := s.invoiceRepo.Update(ctx, invoice); err != nil {
		return InvoiceTotals{}, fmt.Errorf("failed to persist totals: %w", err)
	}

	return InvoiceTotals{
		TotalSalesValue:   salesValue.StringFixed(2),
		TotalTaxAmount:    taxAmount.StringFixed(2),
		TotalInvoiceValue: invoiceValue.StringFixed(2),
	}, nil
}

// --- Helpers ---

func (s *invoiceService) lineAmountsFromRequest(req AddInvoiceItemRequest, product *model.Product) (LineAmounts, error) {
	quantity, err := parseAmount("quantity", req.Quantity)
	if err != nil {
		return LineAmounts{}, err
	}
	unitPrice, err := parseAmount("unit_price", req.UnitPrice)
	if err != nil {
		return LineAmounts{}, err
	}

	if req.AutoCalculate {
		return DeriveLineAmounts(quantity, unitPrice, product)
	}

	vse, err := parseAmount("value_sales_excluding_st", req.ValueSalesExcludingST)
	if err != nil {
		return LineAmounts{}, err
	}
	salesTax, err := parseAmount("sales_tax_applicable", req.SalesTaxApplicable)
	if err != nil {
		return LineAmounts{}, err
	}

	amounts := LineAmounts{
		Quantity:              quantity,
		UnitPrice:             unitPrice,
		ValueSalesExcludingST: vse,
		SalesTaxApplicable:    salesTax,
	}
	if amounts.SalesTaxWithheldAtSource, err = parseOptAmount("sales_tax_withheld_at_source", req.SalesTaxWithheldAtSource); err != nil {
		return LineAmounts{}, err
	}
	if amounts.ExtraTax, err = parseOptAmount("extra_tax", req.ExtraTax); err != nil {
		return LineAmounts{}, err
	}
	if amounts.FurtherTax, err = parseOptAmount("further_tax", req.FurtherTax); err != nil {
		return LineAmounts{}, err
	}
	if amounts.FEDPayable, err = parseOptAmount("fed_payable", req.FEDPayable); err != nil {
		return LineAmounts{}, err
	}
	if amounts.FixedNotifiedValue, err = parseOptAmount("fixed_notified_value", req.FixedNotifiedValue); err != nil {
		return LineAmounts{}, err
	}
	if amounts.Discount, err = parseOptAmount("discount", req.Discount); err != nil {
		return LineAmounts{}, err
	}

	declaredTotal, err := parseOptAmount("total_value", req.TotalValue)
	if err != nil {
		return LineAmounts{}, err
	}

	return ResolveLineAmounts(amounts, declaredTotal)
}

func buildInvoiceItem(invoiceID uuid.UUID, product *model.Product, req AddInvoiceItemRequest, amounts LineAmounts) model.FBRInvoiceItem {
	item := model.FBRInvoiceItem{
		InvoiceID:          invoiceID,
		ProductID:          product.ID,
		HSCode:             product.HSCode,
		ProductDescription: product.Description,
		UOM:                product.UOM,
		SROScheduleNo:      product.SROScheduleNo,
		SROItemSerialNo:    product.SROItemSerialNo,
		SaleType:           product.SaleType,

		Quantity:                 amounts.Quantity,
		UnitPrice:                amounts.UnitPrice,
		ValueSalesExcludingST:    amounts.ValueSalesExcludingST,
		SalesTaxApplicable:       amounts.SalesTaxApplicable,
		SalesTaxWithheldAtSource: amounts.SalesTaxWithheldAtSource,
		ExtraTax:                 amounts.ExtraTax,
		FurtherTax:               amounts.FurtherTax,
		FEDPayable:               amounts.FEDPayable,
		FixedNotifiedValue:       amounts.FixedNotifiedValue,
		Discount:                 amounts.Discount,
		TotalValue:               amounts.TotalValue,
	}

	// Descriptive overrides win over the product defaults
	if req.HSCode != "" {
		item.HSCode = req.HSCode
	}
	if req.ProductDescription != "" {
		item.ProductDescription = req.ProductDescription
	}
	if req.UOM != "" {
		item.UOM = req.UOM
	}
	if req.SROScheduleNo != "" {
		item.SROScheduleNo = req.SROScheduleNo
	}
	if req.SROItemSerialNo != "" {
		item.SROItemSerialNo = req.SROItemSerialNo
	}
	if req.SaleType != "" {
		item.SaleType = req.SaleType
	}

	return item
}

func (s *invoiceService) writeAudit(ctx context.Context, userID uuid.UUID, action, entityID, entityName string, details map[string]any) error {
	payload := ""
	if details != nil {
		raw, _ := json.Marshal(details)
		payload = string(raw)
	}
	entry := model.AuditLog{
		UserID:     &userID,
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    payload,
	}
	if err := s.auditRepo.Create(ctx, &entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

func (s *invoiceService) broadcast(event, invoiceID, status, reference string) {
	if s.hub == nil {
		return
	}
	message, _ := json.Marshal(map[string]string{
		"event":         event,
		"invoice_id":    invoiceID,
		"status":        status,
		"fbr_reference": reference,
	})
	select {
	case s.hub.GetBroadcast() <- message:
	default:
	}
}

func lockedErr(status model.InvoiceStatus) error {
	return apperrors.Newf(apperrors.KindImmutableState, "invoice with status %s cannot be modified", status)
}

func parseAmount(name, raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Decimal{}, apperrors.Newf(apperrors.KindValidation, "%s is required", name)
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, apperrors.Newf(apperrors.KindValidation, "invalid %s: %s", name, raw)
	}
	return value, nil
}

func parseOptAmount(name string, raw *string) (*decimal.Decimal, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	value, err := decimal.NewFromString(*raw)
	if err != nil {
		return nil, apperrors.Newf(apperrors.KindValidation, "invalid %s: %s", name, *raw)
	}
	return &value, nil
}

// --- Mapping ---

func applySellerSnapshot(invoice *model.FBRInvoice, company *model.Company) {
	invoice.SellerNTNCNIC = company.NTNCNIC
	invoice.SellerBusinessName = company.BusinessName
	invoice.SellerProvince = company.Province
	invoice.SellerAddress = company.Address
}

func applyBuyerSnapshot(invoice *model.FBRInvoice, customer *model.Customer) {
	invoice.BuyerNTNCNIC = customer.NTNCNIC
	invoice.BuyerBusinessName = customer.BusinessName
	invoice.BuyerProvince = customer.Province
	invoice.BuyerAddress = customer.Address
	invoice.BuyerRegistrationType = customer.RegistrationType
}

func toInvoiceResponse(inv model.FBRInvoice) InvoiceResponse {
	return InvoiceResponse{
		ID:                    inv.ID.String(),
		InvoiceRefNo:          inv.InvoiceRefNo,
		InvoiceDate:           inv.InvoiceDate.Format("2006-01-02"),
		InvoiceType:           inv.InvoiceType,
		ScenarioID:            inv.ScenarioID,
		CustomerID:            inv.CustomerID.String(),
		CompanyID:             inv.CompanyID.String(),
		SellerNTNCNIC:         inv.SellerNTNCNIC,
		SellerBusinessName:    inv.SellerBusinessName,
		SellerProvince:        inv.SellerProvince,
		SellerAddress:         inv.SellerAddress,
		BuyerNTNCNIC:          inv.BuyerNTNCNIC,
		BuyerBusinessName:     inv.BuyerBusinessName,
		BuyerProvince:         inv.BuyerProvince,
		BuyerAddress:          inv.BuyerAddress,
		BuyerRegistrationType: inv.BuyerRegistrationType,
		TotalSalesValue:       inv.TotalSalesValue.StringFixed(2),
		TotalTaxAmount:        inv.TotalTaxAmount.StringFixed(2),
		TotalInvoiceValue:     inv.TotalInvoiceValue.StringFixed(2),
		Status:                string(inv.Status),
		FBRReference:          inv.FBRReference,
		CreatedAt:             inv.CreatedAt.Format(time.RFC3339),
	}
}

func toItemResponse(item model.FBRInvoiceItem) InvoiceItemResponse {
	return InvoiceItemResponse{
		ID:                       item.ID.String(),
		InvoiceID:                item.InvoiceID.String(),
		ProductID:                item.ProductID.String(),
		HSCode:                   item.HSCode,
		ProductDescription:       item.ProductDescription,
		UOM:                      item.UOM,
		Quantity:                 item.Quantity.StringFixed(2),
		UnitPrice:                item.UnitPrice.StringFixed(2),
		ValueSalesExcludingST:    item.ValueSalesExcludingST.StringFixed(2),
		SalesTaxApplicable:       item.SalesTaxApplicable.StringFixed(2),
		SalesTaxWithheldAtSource: optString(item.SalesTaxWithheldAtSource),
		ExtraTax:                 optString(item.ExtraTax),
		FurtherTax:               optString(item.FurtherTax),
		FEDPayable:               optString(item.FEDPayable),
		FixedNotifiedValue:       optString(item.FixedNotifiedValue),
		Discount:                 optString(item.Discount),
		SROScheduleNo:            item.SROScheduleNo,
		SROItemSerialNo:          item.SROItemSerialNo,
		SaleType:                 item.SaleType,
		TotalValue:               item.TotalValue.StringFixed(2),
		CreatedAt:                item.CreatedAt.Format(time.RFC3339),
	}
}

func optString(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.StringFixed(2)
	return &s
}
