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
	"gorm.io/gorm"
)

type CreateCustomerRequest struct {
	BusinessName     string `json:"business_name" binding:"required,max=255"`
	NTNCNIC          string `json:"ntn_cnic" binding:"required,max=50"`
	Province         string `json:"province" binding:"required,max=100"`
	City             string `json:"city" binding:"required,max=100"`
	Address          string `json:"address" binding:"required,max=500"`
	RegistrationType string `json:"registration_type" binding:"required,oneof=Registered Unregistered"`
}

type UpdateCustomerRequest struct {
	BusinessName     *string `json:"business_name" binding:"omitempty,max=255"`
	NTNCNIC          *string `json:"ntn_cnic" binding:"omitempty,max=50"`
	Province         *string `json:"province" binding:"omitempty,max=100"`
	City             *string `json:"city" binding:"omitempty,max=100"`
	Address          *string `json:"address" binding:"omitempty,max=500"`
	RegistrationType *string `json:"registration_type" binding:"omitempty,oneof=Registered Unregistered"`
}

type CustomerResponse struct {
	ID               string `json:"id"`
	BusinessName     string `json:"business_name"`
	NTNCNIC          string `json:"ntn_cnic"`
	Province         string `json:"province"`
	City             string `json:"city"`
	Address          string `json:"address"`
	RegistrationType string `json:"registration_type"`
	CreatedAt        string `json:"created_at"`
}

type CustomerService interface {
	CreateCustomer(ctx context.Context, ownerID uuid.UUID, req CreateCustomerRequest) (CustomerResponse, error)
	GetCustomer(ctx context.Context, ownerID uuid.UUID, id string) (CustomerResponse, error)
	ListCustomers(ctx context.Context, ownerID uuid.UUID, page, limit int, search string) ([]CustomerResponse, int64, error)
	UpdateCustomer(ctx context.Context, ownerID uuid.UUID, id string, req UpdateCustomerRequest) (CustomerResponse, error)
	DeleteCustomer(ctx context.Context, ownerID uuid.UUID, id string) error
}

type customerService struct {
	repo repository.CustomerRepository
}

func NewCustomerService(repo repository.CustomerRepository) CustomerService {
	return &customerService{repo: repo}
}

func (s *customerService) CreateCustomer(ctx context.Context, ownerID uuid.UUID, req CreateCustomerRequest) (CustomerResponse, error) {
	customer := model.Customer{
		OwnerID:          ownerID,
		BusinessName:     req.BusinessName,
		NTNCNIC:          req.NTNCNIC,
		Province:         req.Province,
		City:             req.City,
		Address:          req.Address,
		RegistrationType: req.RegistrationType,
	}
	if err := s.repo.Create(ctx, &customer); err != nil {
		return CustomerResponse{}, fmt.Errorf("failed to create customer: %w", err)
	}
	return toCustomerResponse(customer), nil
}

func (s *customerService) GetCustomer(ctx context.Context, ownerID uuid.UUID, id string) (CustomerResponse, error) {
	customer, err := s.findOwned(ctx, ownerID, id)
	if err != nil {
		return CustomerResponse{}, err
	}
	return toCustomerResponse(*customer), nil
}

func (s *customerService) ListCustomers(ctx context.Context, ownerID uuid.UUID, page, limit int, search string) ([]CustomerResponse, int64, error) {
	customers, total, err := s.repo.ListByOwner(ctx, ownerID, page, limit, search)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch customers: %w", err)
	}

	result := make([]CustomerResponse, 0, len(customers))
	for _, c := range customers {
		result = append(result, toCustomerResponse(c))
	}
	return result, total, nil
}

func (s *customerService) UpdateCustomer(ctx context.Context, ownerID uuid.UUID, id string, req UpdateCustomerRequest) (CustomerResponse, error) {
	customer, err := s.findOwned(ctx, ownerID, id)
	if err != nil {
		return CustomerResponse{}, err
	}

	if req.BusinessName != nil {
		customer.BusinessName = *req.BusinessName
	}
	if req.NTNCNIC != nil {
		customer.NTNCNIC = *req.NTNCNIC
	}
	if req.Province != nil {
		customer.Province = *req.Province
	}
	if req.City != nil {
		customer.City = *req.City
	}
	if req.Address != nil {
		customer.Address = *req.Address
	}
	if req.RegistrationType != nil {
		customer.RegistrationType = *req.RegistrationType
	}

	if err := s.repo.Update(ctx, customer); err != nil {
		return CustomerResponse{}, fmt.Errorf("failed to update customer: %w", err)
	}

	return toCustomerResponse(*customer), nil
}

func (s *customerService) DeleteCustomer(ctx context.Context, ownerID uuid.UUID, id string) error {
	customer, err := s.findOwned(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, customer.ID); err != nil {
		return fmt.Errorf("failed to delete customer: %w", err)
	}
	return nil
}

func (s *customerService) findOwned(ctx context.Context, ownerID uuid.UUID, id string) (*model.Customer, error) {
	customerID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperrors.Validation("invalid customer id")
	}

	customer, err := s.repo.FindByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("customer not found")
		}
		return nil, fmt.Errorf("failed to load customer: %w", err)
	}
	if customer.OwnerID != ownerID {
		return nil, apperrors.Forbidden("customer belongs to another account")
	}
	return customer, nil
}

func toCustomerResponse(customer model.Customer) CustomerResponse {
	return CustomerResponse{
		ID:               customer.ID.String(),
		BusinessName:     customer.BusinessName,
		NTNCNIC:          customer.NTNCNIC,
		Province:         customer.Province,
		City:             customer.City,
		Address:          customer.Address,
		RegistrationType: customer.RegistrationType,
		CreatedAt:        customer.CreatedAt.Format(time.RFC3339),
	}
}
