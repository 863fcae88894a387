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

type CreateCompanyRequest struct {
	BusinessName string `json:"business_name" binding:"required,max=255"`
	NTNCNIC      string `json:"ntn_cnic" binding:"required,max=50"`
	Province     string `json:"province" binding:"required,max=100"`
	City         string `json:"city" binding:"required,max=100"`
	Address      string `json:"address" binding:"required,max=500"`
	LogoURL      string `json:"logo_url" binding:"omitempty,max=255"`
}

type UpdateCompanyRequest struct {
	BusinessName *string `json:"business_name" binding:"omitempty,max=255"`
	NTNCNIC      *string `json:"ntn_cnic" binding:"omitempty,max=50"`
	Province     *string `json:"province" binding:"omitempty,max=100"`
	City         *string `json:"city" binding:"omitempty,max=100"`
	Address      *string `json:"address" binding:"omitempty,max=500"`
	LogoURL      *string `json:"logo_url" binding:"omitempty,max=255"`
}

type CompanyResponse struct {
	ID           string `json:"id"`
	BusinessName string `json:"business_name"`
	NTNCNIC      string `json:"ntn_cnic"`
	Province     string `json:"province"`
	City         string `json:"city"`
	Address      string `json:"address"`
	LogoURL      string `json:"logo_url"`
	CreatedAt    string `json:"created_at"`
}

// CompanyService manages the single seller identity per account.
type CompanyService interface {
	CreateCompany(ctx context.Context, ownerID uuid.UUID, req CreateCompanyRequest) (CompanyResponse, error)
	GetCompany(ctx context.Context, ownerID uuid.UUID) (CompanyResponse, error)
	UpdateCompany(ctx context.Context, ownerID uuid.UUID, req UpdateCompanyRequest) (CompanyResponse, error)
	DeleteCompany(ctx context.Context, ownerID uuid.UUID) error
}

type companyService struct {
	repo repository.CompanyRepository
}

func NewCompanyService(repo repository.CompanyRepository) CompanyService {
	return &companyService{repo: repo}
}

func (s *companyService) CreateCompany(ctx context.Context, ownerID uuid.UUID, req CreateCompanyRequest) (CompanyResponse, error) {
	if _, err := s.repo.FindByOwner(ctx, ownerID); err == nil {
		return CompanyResponse{}, apperrors.Conflict("account already has a registered company")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return CompanyResponse{}, fmt.Errorf("failed to check existing company: %w", err)
	}

	company := model.Company{
		OwnerID:      ownerID,
		BusinessName: req.BusinessName,
		NTNCNIC:      req.NTNCNIC,
		Province:     req.Province,
		City:         req.City,
		Address:      req.Address,
		LogoURL:      req.LogoURL,
	}
	if err := s.repo.Create(ctx, &company); err != nil {
		return CompanyResponse{}, fmt.Errorf("failed to create company: %w", err)
	}

	return toCompanyResponse(company), nil
}

func (s *companyService) GetCompany(ctx context.Context, ownerID uuid.UUID) (CompanyResponse, error) {
	company, err := s.findOwned(ctx, ownerID)
	if err != nil {
		return CompanyResponse{}, err
	}
	return toCompanyResponse(*company), nil
}

func (s *companyService) UpdateCompany(ctx context.Context, ownerID uuid.UUID, req UpdateCompanyRequest) (CompanyResponse, error) {
	company, err := s.findOwned(ctx, ownerID)
	if err != nil {
		return CompanyResponse{}, err
	}

	if req.BusinessName != nil {
		company.BusinessName = *req.BusinessName
	}
	if req.NTNCNIC != nil {
		company.NTNCNIC = *req.NTNCNIC
	}
	if req.Province != nil {
		company.Province = *req.Province
	}
	if req.City != nil {
		company.City = *req.City
	}
	if req.Address != nil {
		company.Address = *req.Address
	}
	if req.LogoURL != nil {
		company.LogoURL = *req.LogoURL
	}

	if err := s.repo.Update(ctx, company); err != nil {
		return CompanyResponse{}, fmt.Errorf("failed to update company: %w", err)
	}

	return toCompanyResponse(*company), nil
}

func (s *companyService) DeleteCompany(ctx context.Context, ownerID uuid.UUID) error {
	company, err := s.findOwned(ctx, ownerID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, company.ID); err != nil {
		return fmt.Errorf("failed to delete company: %w", err)
	}
	return nil
}

func (s *companyService) findOwned(ctx context.Context, ownerID uuid.UUID) (*model.Company, error) {
	company, err := s.repo.FindByOwner(ctx, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("company not found")
		}
		return nil, fmt.Errorf("failed to load company: %w", err)
	}
	return company, nil
}

func toCompanyResponse(company model.Company) CompanyResponse {
	return CompanyResponse{
		ID:           company.ID.String(),
		BusinessName: company.BusinessName,
		NTNCNIC:      company.NTNCNIC,
		Province:     company.Province,
		City:         company.City,
		Address:      company.Address,
		LogoURL:      company.LogoURL,
		CreatedAt:    company.CreatedAt.Format(time.RFC3339),
	}
}
