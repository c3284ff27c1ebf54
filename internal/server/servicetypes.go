package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	servicetypedomain "github.com/carebill/carebill/internal/servicetype/domain"
)

type createServiceTypeRequest struct {
	Name             string `json:"name" binding:"required"`
	Description      string `json:"description"`
	IsMedical        bool   `json:"is_medical"`
	DefaultRateCents int64  `json:"default_rate_cents"`
	BillingMethod    string `json:"billing_method" binding:"required"`
	UnitType         string `json:"unit_type"`
}

func (s *Server) CreateServiceType(c *gin.Context) {
	var req createServiceTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("request", "invalid_request", "name and billing_method are required"))
		return
	}

	serviceType, err := s.serviceTypeSvc.Create(c.Request.Context(), servicetypedomain.CreateRequest{
		Name:             req.Name,
		Description:      req.Description,
		IsMedical:        req.IsMedical,
		DefaultRateCents: req.DefaultRateCents,
		BillingMethod:    req.BillingMethod,
		UnitType:         req.UnitType,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, serviceType)
}

func (s *Server) ListServiceTypes(c *gin.Context) {
	serviceTypes, err := s.serviceTypeSvc.List(c.Request.Context(), servicetypedomain.ListRequest{
		ActiveOnly:    c.Query("active") == "true",
		BillingMethod: c.Query("billing_method"),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"service_types": serviceTypes})
}

func (s *Server) GetServiceType(c *gin.Context) {
	serviceType, err := s.serviceTypeSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, serviceType)
}

type updateServiceTypeRequest struct {
	Description      *string `json:"description"`
	IsMedical        *bool   `json:"is_medical"`
	DefaultRateCents *int64  `json:"default_rate_cents"`
	BillingMethod    *string `json:"billing_method"`
	UnitType         *string `json:"unit_type"`
	Active           *bool   `json:"active"`
}

func (s *Server) UpdateServiceType(c *gin.Context) {
	var req updateServiceTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("request", "invalid_request", "invalid request"))
		return
	}

	serviceType, err := s.serviceTypeSvc.Update(c.Request.Context(), servicetypedomain.UpdateRequest{
		ID:               c.Param("id"),
		Description:      req.Description,
		IsMedical:        req.IsMedical,
		DefaultRateCents: req.DefaultRateCents,
		BillingMethod:    req.BillingMethod,
		UnitType:         req.UnitType,
		Active:           req.Active,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, serviceType)
}

func (s *Server) DeactivateServiceType(c *gin.Context) {
	serviceType, err := s.serviceTypeSvc.Deactivate(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, serviceType)
}
