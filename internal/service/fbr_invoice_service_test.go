package service

import (
	"context"
	"testing"
	"time"

	"fbrtax/internal/fbr"
	"fbrtax/internal/model"
	"fbrtax/pkg/apperrors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// --- In-memory fakes ---

type fakeTxManager struct{}

func (fakeTxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

type fakeInvoiceRepo struct {
	invoices map[uuid.UUID]model.FBRInvoice
}

func newFakeInvoiceRepo() *fakeInvoiceRepo {
	return &fakeInvoiceRepo{invoices: make(map[uuid.UUID]model.FBRInvoice)}
}

func (r *fakeInvoiceRepo) Create(_ context.Context, invoice *model.FBRInvoice) error {
	if invoice.ID == uuid.Nil {
		invoice.ID = uuid.New()
	}
	invoice.CreatedAt = time.Now()
	r.invoices[invoice.ID] = *invoice
	return nil
}

func (r *fakeInvoiceRepo) Update(_ context.Context, invoice *model.FBRInvoice) error {
	if _, ok := r.invoices[invoice.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.invoices[invoice.ID] = *invoice
	return nil
}

func (r *fakeInvoiceRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.invoices, id)
	return nil
}

func (r *fakeInvoiceRepo) FindByID(_ context.Context, id uuid.UUID) (*model.FBRInvoice, error) {
	invoice, ok := r.invoices[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &invoice, nil
}

func (r *fakeInvoiceRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.FBRInvoice, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeInvoiceRepo) ListByOwner(_ context.Context, ownerID uuid.UUID, status model.InvoiceStatus, _, _ int) ([]model.FBRInvoice, int64, error) {
	var out []model.FBRInvoice
	for _, inv := range r.invoices {
		if inv.OwnerID != ownerID {
			continue
		}
		if status != "" && inv.Status != status {
			continue
		}
		out = append(out, inv)
	}
	return out, int64(len(out)), nil
}

type fakeItemRepo struct {
	items []model.FBRInvoiceItem
}

func (r *fakeItemRepo) Create(_ context.Context, item *model.FBRInvoiceItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	item.CreatedAt = time.Now().Add(time.Duration(len(r.items)) * time.Millisecond)
	r.items = append(r.items, *item)
	return nil
}

func (r *fakeItemRepo) Delete(_ context.Context, id uuid.UUID) error {
	for i, item := range r.items {
		if item.ID == id {
			r.items = append(r.items[:i], r.items[i+1:]...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *fakeItemRepo) DeleteByInvoice(_ context.Context, invoiceID uuid.UUID) error {
	kept := r.items[:0]
	for _, item := range r.items {
		if item.InvoiceID != invoiceID {
			kept = append(kept, item)
		}
	}
	r.items = kept
	return nil
}

func (r *fakeItemRepo) FindByID(_ context.Context, id uuid.UUID) (*model.FBRInvoiceItem, error) {
	for _, item := range r.items {
		if item.ID == id {
			found := item
			return &found, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeItemRepo) ListByInvoice(_ context.Context, invoiceID uuid.UUID) ([]model.FBRInvoiceItem, error) {
	var out []model.FBRInvoiceItem
	for _, item := range r.items {
		if item.InvoiceID == invoiceID {
			out = append(out, item)
		}
	}
	return out, nil
}

type fakeCustomerRepo struct {
	customers map[uuid.UUID]model.Customer
}

func (r *fakeCustomerRepo) Create(_ context.Context, c *model.Customer) error { return nil }
func (r *fakeCustomerRepo) Update(_ context.Context, c *model.Customer) error { return nil }
func (r *fakeCustomerRepo) Delete(_ context.Context, id uuid.UUID) error      { return nil }
func (r *fakeCustomerRepo) ListByOwner(_ context.Context, _ uuid.UUID, _, _ int, _ string) ([]model.Customer, int64, error) {
	return nil, 0, nil
}

func (r *fakeCustomerRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Customer, error) {
	c, ok := r.customers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &c, nil
}

type fakeCompanyRepo struct {
	companies map[uuid.UUID]model.Company
}

func (r *fakeCompanyRepo) Create(_ context.Context, c *model.Company) error { return nil }
func (r *fakeCompanyRepo) Update(_ context.Context, c *model.Company) error { return nil }
func (r *fakeCompanyRepo) Delete(_ context.Context, id uuid.UUID) error     { return nil }
func (r *fakeCompanyRepo) FindByOwner(_ context.Context, ownerID uuid.UUID) (*model.Company, error) {
	for _, c := range r.companies {
		if c.OwnerID == ownerID {
			found := c
			return &found, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeCompanyRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Company, error) {
	c, ok := r.companies[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &c, nil
}

type fakeProductRepo struct {
	products map[uuid.UUID]model.Product
}

func (r *fakeProductRepo) Create(_ context.Context, p *model.Product) error { return nil }
func (r *fakeProductRepo) Update(_ context.Context, p *model.Product) error { return nil }
func (r *fakeProductRepo) Delete(_ context.Context, id uuid.UUID) error     { return nil }
func (r *fakeProductRepo) ListByOwner(_ context.Context, _ uuid.UUID, _, _ int, _ string) ([]model.Product, int64, error) {
	return nil, 0, nil
}

func (r *fakeProductRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &p, nil
}

type fakeAuditRepo struct {
	entries []model.AuditLog
}

func (r *fakeAuditRepo) Create(_ context.Context, entry *model.AuditLog) error {
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeAuditRepo) ListByUser(_ context.Context, _ uuid.UUID, _, _ int) ([]model.AuditLog, int64, error) {
	return r.entries, int64(len(r.entries)), nil
}

type failingFBRClient struct{}

func (failingFBRClient) Submit(_ context.Context, _ fbr.Document) (fbr.SubmissionResult, error) {
	return fbr.SubmissionResult{}, assert.AnError
}

type fakeHub struct {
	broadcast chan []byte
}

func (h *fakeHub) GetBroadcast() chan []byte { return h.broadcast }

// --- Test fixture ---

type invoiceTestEnv struct {
	service     InvoiceService
	invoiceRepo *fakeInvoiceRepo
	itemRepo    *fakeItemRepo
	auditRepo   *fakeAuditRepo
	hub         *fakeHub

	ownerID    uuid.UUID
	strangerID uuid.UUID
	customer   model.Customer
	company    model.Company
	product    model.Product
}

func newInvoiceTestEnv(t *testing.T) *invoiceTestEnv {
	t.Helper()

	env := &invoiceTestEnv{
		invoiceRepo: newFakeInvoiceRepo(),
		itemRepo:    &fakeItemRepo{},
		auditRepo:   &fakeAuditRepo{},
		hub:         &fakeHub{broadcast: make(chan []byte, 1)},
		ownerID:     uuid.New(),
		strangerID:  uuid.New(),
	}

	env.customer = model.Customer{
		ID:               uuid.New(),
		OwnerID:          env.ownerID,
		BusinessName:     "Khan Traders",
		NTNCNIC:          "1234567-8",
		Province:         "Punjab",
		City:             "Lahore",
		Address:          "12 Mall Road, Lahore",
		RegistrationType: model.RegistrationRegistered,
	}
	env.company = model.Company{
		ID:           uuid.New(),
		OwnerID:      env.ownerID,
		BusinessName: "Alpha Textiles (Pvt) Ltd",
		NTNCNIC:      "7654321-0",
		Province:     "Sindh",
		City:         "Karachi",
		Address:      "Plot 5, SITE Area, Karachi",
	}
	env.product = model.Product{
		ID:          uuid.New(),
		OwnerID:     env.ownerID,
		HSCode:      "5208.1000",
		Description: "Woven cotton fabric",
		UOM:         "MTR",
		UnitPrice:   decimal.NewFromInt(100),
		TaxRate:     decimal.NewFromInt(17),
		SaleType:    model.SaleTypeStandard,
	}

	env.service = NewInvoiceService(
		env.invoiceRepo,
		env.itemRepo,
		&fakeCustomerRepo{customers: map[uuid.UUID]model.Customer{env.customer.ID: env.customer}},
		&fakeCompanyRepo{companies: map[uuid.UUID]model.Company{env.company.ID: env.company}},
		&fakeProductRepo{products: map[uuid.UUID]model.Product{env.product.ID: env.product}},
		env.auditRepo,
		fakeTxManager{},
		fbr.NewSandboxClient(),
		env.hub,
	)
	return env
}

func (env *invoiceTestEnv) createDraft(t *testing.T) InvoiceResponse {
	t.Helper()
	invoice, err := env.service.CreateInvoice(context.Background(), env.ownerID, CreateInvoiceRequest{
		InvoiceRefNo: "INV-001",
		InvoiceDate:  "2026-08-15",
		ScenarioID:   "SN001",
		CustomerID:   env.customer.ID.String(),
		CompanyID:    env.company.ID.String(),
	})
	require.NoError(t, err)
	return invoice
}

func (env *invoiceTestEnv) addStandardItem(t *testing.T, invoiceID string) InvoiceItemResponse {
	t.Helper()
	item, _, err := env.service.AddItem(context.Background(), env.ownerID, invoiceID, AddInvoiceItemRequest{
		ProductID:             env.product.ID.String(),
		Quantity:              "2",
		UnitPrice:             "100",
		ValueSalesExcludingST: "200",
		SalesTaxApplicable:    "34",
	})
	require.NoError(t, err)
	return item
}

func strPtr(s string) *string { return &s }

// --- Tests ---

func TestCreateInvoice(t *testing.T) {
	t.Run("creates draft with seller and buyer snapshots", func(t *testing.T) {
		env := newInvoiceTestEnv(t)

		invoice := env.createDraft(t)

		assert.Equal(t, "draft", invoice.Status)
		assert.Equal(t, "Sale Invoice", invoice.InvoiceType)
		assert.Equal(t, env.company.NTNCNIC, invoice.SellerNTNCNIC)
		assert.Equal(t, env.company.BusinessName, invoice.SellerBusinessName)
		assert.Equal(t, env.customer.NTNCNIC, invoice.BuyerNTNCNIC)
		assert.Equal(t, model.RegistrationRegistered, invoice.BuyerRegistrationType)
		assert.Equal(t, "0.00", invoice.TotalSalesValue)
		assert.Equal(t, "0.00", invoice.TotalTaxAmount)
		assert.Equal(t, "0.00", invoice.TotalInvoiceValue)
		assert.Nil(t, invoice.FBRReference)

		require.Len(t, env.auditRepo.entries, 1)
		assert.Equal(t, model.ActionCreateInvoice, env.auditRepo.entries[0].Action)
	})

	t.Run("rejects customer owned by another account without writing", func(t *testing.T) {
		env := newInvoiceTestEnv(t)
		foreign := model.Customer{ID: uuid.New(), OwnerID: env.strangerID}
		env.service = NewInvoiceService(
			env.invoiceRepo, env.itemRepo,
			&fakeCustomerRepo{customers: map[uuid.UUID]model.Customer{foreign.ID: foreign}},
			&fakeCompanyRepo{companies: map[uuid.UUID]model.Company{env.company.ID: env.company}},
			&fakeProductRepo{products: map[uuid.UUID]model.Product{}},
			env.auditRepo, fakeTxManager{}, fbr.NewSandboxClient(), nil,
		)

		_, err := env.service.CreateInvoice(context.Background(), env.ownerID, CreateInvoiceRequest{
			InvoiceRefNo: "INV-002",
			InvoiceDate:  "2026-08-15",
			CustomerID:   foreign.ID.String(),
			CompanyID:    env.company.ID.String(),
		})
		require.Error(t, err)
		assert.Equal(t, apperrors.KindInvalidReference, apperrors.KindOf(err))
		assert.Empty(t, env.invoiceRepo.invoices)
		assert.Empty(t, env.auditRepo.entries)
	})

	t.Run("rejects unknown company", func(t *testing.T) {
		env := newInvoiceTestEnv(t)

		_, err := env.service.CreateInvoice(context.Background(), env.ownerID, CreateInvoiceRequest{
			InvoiceRefNo: "INV-003",
			InvoiceDate:  "2026-08-15",
			CustomerID:   env.customer.ID.String(),
			CompanyID:    uuid.NewString(),
		})
		require.Error(t, err)
		assert.Equal(t, apperrors.KindInvalidReference, apperrors.KindOf(err))
	})

	t.Run("rejects malformed invoice date", func(t *testing.T) {
		env := newInvoiceTestEnv(t)

		_, err := env.service.CreateInvoice(context.Background(), env.ownerID, CreateInvoiceRequest{
			InvoiceRefNo: "INV-004",
			InvoiceDate:  "15-08-2026",
			CustomerID:   env.customer.ID.String(),
			CompanyID:    env.company.ID.String(),
		})
		require.Error(t, err)
		assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
	})
}

func TestGetInvoice(t *testing.T) {
	t.Run("hides other accounts' invoices behind 403", func(t *testing.T) {
		env := newInvoiceTestEnv(t)
		invoice := env.createDraft(t)

		_, err := env.service.GetInvoice(context.Background(), env.strangerID, invoice.ID)
		require.Error(t, err)
		assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))
	})

	t.Run("unknown id is not found", func(t *testing.T) {
		env := newInvoiceTestEnv(t)

		_, err := env.service.GetInvoice(context.Background(), env.ownerID, uuid.NewString())
		require.Error(t, err)
		assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
	})
}

func TestAddItem(t *testing.T) {
	t.Run("persists line and recomputes totals", func(t *testing.T) {
		env := newInvoiceTestEnv(t)
		invoice := env.createDraft(t)

		item, totals, err := env.service.AddItem(context.Background(), env.ownerID, invoice.ID, AddInvoiceItemRequest{
			ProductID:             env.product.ID.String(),
			Quantity:              "2",
			UnitPrice:             "100",
			ValueSalesExcludingST: "200",
			SalesTaxApplicable:    "34",
			TotalValue:            strPtr("234"),
		})
		require.NoError(t, err)

		assert.Equal(t, "234.00", item.TotalValue)
		assert.Equal(t, env.product.HSCode, item.HSCode)
		assert.Equal(t, "200.00", totals.TotalSalesValue)
		assert.Equal(t, "34.00", totals.TotalTaxAmount)
		assert.Equal(t, "234.00", totals.TotalInvoiceValue)

		stored, err := env.service.GetInvoice(context.Background(), env.ownerID, invoice.ID)
		require.NoError(t, err)
		assert.Equal(t, "234.00", stored.TotalInvoiceValue)
	})

	t.Run("derives amounts from the rate sheet when requested", func(t *testing.T) {
		env := newInvoiceTestEnv(t)
		invoice := env.createDraft(t)

		item, totals, err := env.service.AddItem(context.Background(), env.ownerID, invoice.ID, AddInvoiceItemRequest{
			ProductID:     env.product.ID.String(),
			Quantity:      "2",
			UnitPrice:     "100",
			AutoCalculate: true,
		})
		require.NoError(t, err)
		assert.Equal(t, "200.00", item.ValueSalesExcludingST)
		assert.Equal(t, "34.00", item.SalesTaxApplicable)
		assert.Equal(t, "234.00", totals.TotalInvoiceValue)
	})

	t.Run("rejects total mismatching its components", func(t *testing.T) {
		env := newInvoiceTestEnv(t)
		invoice := env.createDraft(t)

		_, _, err := env.service.AddItem(context.Background(), env.ownerID, invoice.ID, AddInvoiceItemRequest{
			ProductID:             env.product.ID.String(),
			Quantity:              "2",
			UnitPrice:             "100",
			ValueSalesExcludingST: "200",
			SalesTaxApplicable:    "34",
			TotalValue:            strPtr("999"),
		})
		require.Error(t, err)
		assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
		assert.Empty(t, env.itemRepo.items)
	})

	t.Run("refuses a locked invoice and leaves it unchanged", func(t *testing.T) {
		env := newInvoiceTestEnv(t)
		invoice := env.createDraft(t)
		env.addStandardItem(t, invoice.ID)
		_, err := env.service.SubmitToFBR(context.Background(), env.ownerID, invoice.ID)
		require.NoError(t, err)

		before, err := env.service.GetInvoice(context.Background(), env.ownerID, invoice.ID)
		require.NoError(t, err)

		_, _, err = env.service.AddItem(context.Background(), env.ownerID, invoice.ID, AddInvoiceItemRequest{
			ProductID:             env.product.ID.String(),
			Quantity:              "1",
			UnitPrice:             "50",
			ValueSalesExcludingST: "50",
			SalesTaxApplicable:    "8.5",
		})
		require.Error(t, err)
		assert.Equal(t, apperrors.KindImmutableState, apperrors.KindOf(err))

		after, err := env.service.GetInvoice(context.Background(), env.ownerID, invoice.ID)
		require.NoError(t, err)
		assert.Equal(t, before, after)
		assert.Len(t, env.itemRepo.items, 1)
	})

	t.Run("rejects product owned by another account", func(t *testing.T) {
		env := newInvoiceTestEnv(t)
		invoice := env.createDraft(t)
		foreignProduct := model.Product{ID: uuid.New(), OwnerID: env.strangerID, TaxRate: decimal.NewFromInt(17)}
		env.service = NewInvoiceService(
			env.invoiceRepo, env.itemRepo,
			&fakeCustomerRepo{customers: map[uuid.UUID]model.Customer{env.customer.ID: env.customer}},
			&fakeCompanyRepo{companies: map[uuid.UUID]model.Company{env.company.ID: env.company}},
			&fakeProductRepo{products: map[uuid.UUID]model.Product{foreignProduct.ID: foreignProduct}},
			env.auditRepo, fakeTxManager{}, fbr.NewSandboxClient(), nil,
		)

		_, _, err := env.service.AddItem(context.Background(), env.ownerID, invoice.ID, AddInvoiceItemRequest{
			ProductID:             foreignProduct.ID.String(),
			Quantity:              "1",
			UnitPrice:             "100",
			ValueSalesExcludingST: "100",
			SalesTaxApplicable:    "17",
		})
		require.Error(t, err)
		assert.Equal(t, apperrors.KindInvalidReference, apperrors.KindOf(err))
		assert.Empty(t, env.itemRepo.items)
	})
}

func TestRemoveItem(t *testing.T) {
	t.Run("recomputes totals after removal", func(t *testing.T) {
		env := newInvoiceTestEnv(t)
		invoice := env.createDraft(t)
		item := env.addStandardItem(t, invoice.ID)

		totals, err := env.service.RemoveItem(context.Background(), env.ownerID, invoice.ID, item.ID)
		require.NoError(t, err)
		assert.Equal(t, "0.00", totals.TotalSalesValue)
		assert.Equal(t, "0.00", totals.TotalTaxAmount)
		assert.Equal(t, "0.00", totals.TotalInvoiceValue)
		assert.Empty(t, env.itemRepo.items)
	})

	t.Run("item belonging to another invoice is not found", func(t *testing.T) {
		env := newInvoiceTestEnv(t)
		first := env.createDraft(t)
		item := env.addStandardItem(t, first.ID)

		second, err := env.service.CreateInvoice(context.Background(), env.ownerID, CreateInvoiceRequest{
			InvoiceRefNo: "INV-005",
			InvoiceDate:  "2026-08-16",
			CustomerID:   env.customer.ID.String(),
			CompanyID:    env.company.ID.String(),
		})
		require.NoError(t, err)

		_, err = env.service.RemoveItem(context.Background(), env.ownerID, second.ID, item.ID)
		require.Error(t, err)
		assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
		assert.Len(t, env.itemRepo.items, 1)
	})
}

func TestCalculateTotals(t *testing.T) {
	t.Run("empty invoice folds to zero", func(t *testing.T) {
		env := newInvoiceTestEnv(t)
		invoice := env.createDraft(t)

		totals, err := env.service.CalculateTotals(context.Background(), env.ownerID, invoice.ID)
		require.NoError(t, err)
		assert.Equal(t, "0.00", totals.TotalSalesValue)
		assert.Equal(t, "0.00", totals.TotalInvoiceValue)
	})

	t.Run("repeated recompute is idempotent", func(t *testing.T) {
		env := newInvoiceTestEnv(t)
		invoice := env.createDraft(t)
		env.addStandardItem(t, invoice.ID)

		first, err := env.service.CalculateTotals(context.Background(), env.ownerID, invoice.ID)
		require.NoError(t, err)
		second, err := env.service.CalculateTotals(context.Background(), env.ownerID, invoice.ID)
		require.NoError(t, err)
		assert.Equal(t, first, second)
		assert.Equal(t, "234.00", second.TotalInvoiceValue)
	})
}

func TestSubmitToFBR(t *testing.T) {
	t.Run("transitions draft to submitted with a reference", func(t *testing.T) {
		env := newInvoiceTestEnv(t)
		invoice := env.createDraft(t)
		env.addStandardItem(t, invoice.ID)

		result, err := env.service.SubmitToFBR(context.Background(), env.ownerID, invoice.ID)
		require.NoError(t, err)
		assert.Equal(t, "submitted", result.Status)
		assert.Equal(t, "FBR-INV-001", result.FBRReference)

		stored, err := env.service.GetInvoice(context.Background(), env.ownerID, invoice.ID)
		require.NoError(t, err)
		assert.Equal(t, "submitted", stored.Status)
		require.NotNil(t, stored.FBRReference)
		assert.Equal(t, "FBR-INV-001", *stored.FBRReference)

		select {
		case msg := <-env.hub.broadcast:
			assert.Contains(t, string(msg), "invoice_submitted")
		default:
			t.Fatal("expected a websocket broadcast after submission")
		}
	})

	t.Run("refuses an invoice with no items", func(t *testing.T) {
		env := newInvoiceTestEnv(t)
		invoice := env.createDraft(t)

		_, err := env.service.SubmitToFBR(context.Background(), env.ownerID, invoice.ID)
		require.Error(t, err)
		assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

		stored, err := env.service.GetInvoice(context.Background(), env.ownerID, invoice.ID)
		require.NoError(t, err)
		assert.Equal(t, "draft", stored.Status)
	})

	t.Run("second submission is refused", func(t *testing.T) {
		env := newInvoiceTestEnv(t)
		invoice := env.createDraft(t)
		env.addStandardItem(t, invoice.ID)

		_, err := env.service.SubmitToFBR(context.Background(), env.ownerID, invoice.ID)
		require.NoError(t, err)

		_, err = env.service.SubmitToFBR(context.Background(), env.ownerID, invoice.ID)
		require.Error(t, err)
		assert.Equal(t, apperrors.KindImmutableState, apperrors.KindOf(err))
	})

	t.Run("failed submission leaves the draft retryable", func(t *testing.T) {
		env := newInvoiceTestEnv(t)
		invoice := env.createDraft(t)
		env.addStandardItem(t, invoice.ID)

		failing := NewInvoiceService(
			env.invoiceRepo, env.itemRepo,
			&fakeCustomerRepo{customers: map[uuid.UUID]model.Customer{env.customer.ID: env.customer}},
			&fakeCompanyRepo{companies: map[uuid.UUID]model.Company{env.company.ID: env.company}},
			&fakeProductRepo{products: map[uuid.UUID]model.Product{env.product.ID: env.product}},
			env.auditRepo, fakeTxManager{}, failingFBRClient{}, nil,
		)

		_, err := failing.SubmitToFBR(context.Background(), env.ownerID, invoice.ID)
		require.Error(t, err)

		stored, err := env.service.GetInvoice(context.Background(), env.ownerID, invoice.ID)
		require.NoError(t, err)
		assert.Equal(t, "draft", stored.Status)
		assert.Nil(t, stored.FBRReference)

		// The same invoice goes through once the endpoint recovers
		result, err := env.service.SubmitToFBR(context.Background(), env.ownerID, invoice.ID)
		require.NoError(t, err)
		assert.Equal(t, "submitted", result.Status)
	})
}

func TestUpdateInvoice(t *testing.T) {
	t.Run("re-pointing the customer refreshes the buyer snapshot", func(t *testing.T) {
		env := newInvoiceTestEnv(t)
		invoice := env.createDraft(t)

		other := model.Customer{
			ID:               uuid.New(),
			OwnerID:          env.ownerID,
			BusinessName:     "Beta Suppliers",
			NTNCNIC:          "1111111-1",
			Province:         "KPK",
			City:             "Peshawar",
			Address:          "GT Road, Peshawar",
			RegistrationType: model.RegistrationUnregistered,
		}
		env.service = NewInvoiceService(
			env.invoiceRepo, env.itemRepo,
			&fakeCustomerRepo{customers: map[uuid.UUID]model.Customer{
				env.customer.ID: env.customer,
				other.ID:        other,
			}},
			&fakeCompanyRepo{companies: map[uuid.UUID]model.Company{env.company.ID: env.company}},
			&fakeProductRepo{products: map[uuid.UUID]model.Product{env.product.ID: env.product}},
			env.auditRepo, fakeTxManager{}, fbr.NewSandboxClient(), nil,
		)

		updated, err := env.service.UpdateInvoice(context.Background(), env.ownerID, invoice.ID, UpdateInvoiceRequest{
			CustomerID: strPtr(other.ID.String()),
		})
		require.NoError(t, err)
		assert.Equal(t, other.ID.String(), updated.CustomerID)
		assert.Equal(t, "Beta Suppliers", updated.BuyerBusinessName)
		assert.Equal(t, model.RegistrationUnregistered, updated.BuyerRegistrationType)
		// Seller snapshot is untouched
		assert.Equal(t, env.company.BusinessName, updated.SellerBusinessName)
	})

	t.Run("locked invoices cannot be edited", func(t *testing.T) {
		env := newInvoiceTestEnv(t)
		invoice := env.createDraft(t)
		env.addStandardItem(t, invoice.ID)
		_, err := env.service.SubmitToFBR(context.Background(), env.ownerID, invoice.ID)
		require.NoError(t, err)

		_, err = env.service.UpdateInvoice(context.Background(), env.ownerID, invoice.ID, UpdateInvoiceRequest{
			InvoiceRefNo: strPtr("INV-CHANGED"),
		})
		require.Error(t, err)
		assert.Equal(t, apperrors.KindImmutableState, apperrors.KindOf(err))

		stored, err := env.service.GetInvoice(context.Background(), env.ownerID, invoice.ID)
		require.NoError(t, err)
		assert.Equal(t, "INV-001", stored.InvoiceRefNo)
	})
}

func TestDeleteInvoice(t *testing.T) {
	t.Run("deletes the draft together with its items", func(t *testing.T) {
		env := newInvoiceTestEnv(t)
		invoice := env.createDraft(t)
		env.addStandardItem(t, invoice.ID)

		require.NoError(t, env.service.DeleteInvoice(context.Background(), env.ownerID, invoice.ID))
		assert.Empty(t, env.invoiceRepo.invoices)
		assert.Empty(t, env.itemRepo.items)
	})

	t.Run("submitted invoices cannot be deleted", func(t *testing.T) {
		env := newInvoiceTestEnv(t)
		invoice := env.createDraft(t)
		env.addStandardItem(t, invoice.ID)
		_, err := env.service.SubmitToFBR(context.Background(), env.ownerID, invoice.ID)
		require.NoError(t, err)

		err = env.service.DeleteInvoice(context.Background(), env.ownerID, invoice.ID)
		require.Error(t, err)
		assert.Equal(t, apperrors.KindImmutableState, apperrors.KindOf(err))
		assert.Len(t, env.invoiceRepo.invoices, 1)
	})
}

func TestListInvoices(t *testing.T) {
	t.Run("rejects an unknown status filter", func(t *testing.T) {
		env := newInvoiceTestEnv(t)

		_, _, err := env.service.ListInvoices(context.Background(), env.ownerID, InvoiceFilter{Status: "archived"})
		require.Error(t, err)
		assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
	})

	t.Run("filters by status", func(t *testing.T) {
		env := newInvoiceTestEnv(t)
		first := env.createDraft(t)
		env.addStandardItem(t, first.ID)
		_, err := env.service.SubmitToFBR(context.Background(), env.ownerID, first.ID)
		require.NoError(t, err)

		_, err = env.service.CreateInvoice(context.Background(), env.ownerID, CreateInvoiceRequest{
			InvoiceRefNo: "INV-006",
			InvoiceDate:  "2026-08-17",
			CustomerID:   env.customer.ID.String(),
			CompanyID:    env.company.ID.String(),
		})
		require.NoError(t, err)

		drafts, total, err := env.service.ListInvoices(context.Background(), env.ownerID, InvoiceFilter{Status: "draft"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, drafts, 1)
		assert.Equal(t, "INV-006", drafts[0].InvoiceRefNo)
	})
}

func TestBuildFBRDocumentThroughService(t *testing.T) {
	env := newInvoiceTestEnv(t)
	invoice := env.createDraft(t)
	env.addStandardItem(t, invoice.ID)
	_, err := env.service.CalculateTotals(context.Background(), env.ownerID, invoice.ID)
	require.NoError(t, err)

	doc, err := env.service.BuildFBRDocument(context.Background(), env.ownerID, invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, "INV-001", doc.InvoiceRefNo)
	assert.Equal(t, "2026-08-15", doc.InvoiceDate)
	assert.Equal(t, env.company.NTNCNIC, doc.SellerNTNCNIC)
	assert.Equal(t, env.customer.NTNCNIC, doc.BuyerNTNCNIC)
	assert.InDelta(t, 200.0, doc.TotalSalesValue, 1e-9)
	assert.InDelta(t, 34.0, doc.TotalTaxAmount, 1e-9)
	assert.InDelta(t, 234.0, doc.TotalInvoiceValue, 1e-9)
	require.Len(t, doc.Items, 1)
	assert.InDelta(t, 234.0, doc.Items[0].TotalValue, 1e-9)
	assert.Equal(t, env.product.HSCode, doc.Items[0].HSCode)
}
