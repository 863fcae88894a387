package handler

import (
	"net/http"

	"fbrtax/internal/middleware"
	"fbrtax/internal/service"
	"fbrtax/pkg/response"

	"github.com/gin-gonic/gin"
)

type CompanyHandler struct {
	companyService service.CompanyService
}

func NewCompanyHandler(companyService service.CompanyService) *CompanyHandler {
	return &CompanyHandler{companyService: companyService}
}

func (h *CompanyHandler) RegisterRoutes(router *gin.RouterGroup) {
	companies := router.Group("/api/companies", middleware.RequireAuth())
	{
		companies.GET("", h.GetCompany)
		companies.POST("", h.CreateCompany)
		companies.PUT("", h.UpdateCompany)
		companies.DELETE("", h.DeleteCompany)
	}
}

// GetCompany returns the caller's company
// @Summary      Get company
// @Tags         companies
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=service.CompanyResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/companies [get]
func (h *CompanyHandler) GetCompany(c *gin.Context) {
	ownerID, ok := currentUser(c)
	if !ok {
		return
	}

	company, err := h.companyService.GetCompany(c.Request.Context(), ownerID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, company))
}

// CreateCompany registers the caller's company (one per account)
// @Summary      Create company
// @Tags         companies
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateCompanyRequest  true  "Company payload"
// @Success      201      {object}  response.Response{data=service.CompanyResponse}
// @Failure      409      {object}  response.Response
// @Router       /api/companies [post]
func (h *CompanyHandler) CreateCompany(c *gin.Context) {
	ownerID, ok := currentUser(c)
	if !ok {
		return
	}

	var req service.CreateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	company, err := h.companyService.CreateCompany(c.Request.Context(), ownerID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, company))
}

// UpdateCompany edits the caller's company
// @Summary      Update company
// @Tags         companies
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.UpdateCompanyRequest  true  "Company payload"
// @Success      200      {object}  response.Response{data=service.CompanyResponse}
// @Failure      404      {object}  response.Response
// @Router       /api/companies [put]
func (h *CompanyHandler) UpdateCompany(c *gin.Context) {
	ownerID, ok := currentUser(c)
	if !ok {
		return
	}

	var req service.UpdateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	company, err := h.companyService.UpdateCompany(c.Request.Context(), ownerID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, company))
}

// DeleteCompany removes the caller's company
// @Summary      Delete company
// @Tags         companies
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/companies [delete]
func (h *CompanyHandler) DeleteCompany(c *gin.Context) {
	ownerID, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.companyService.DeleteCompany(c.Request.Context(), ownerID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Company deleted successfully"}))
}
