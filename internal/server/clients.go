package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	clientdomain "github.com/carebill/carebill/internal/client/domain"
	clientservicedomain "github.com/carebill/carebill/internal/clientservice/domain"
)

func (s *Server) ListClients(c *gin.Context) {
	clients, err := s.clientSvc.List(c.Request.Context(), c.Query("active") == "true")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"clients": clients})
}

func (s *Server) GetClient(c *gin.Context) {
	client, err := s.clientSvc.GetByName(c.Request.Context(), c.Param("name"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, client)
}

type updateClientRequest struct {
	Notes  *string `json:"notes"`
	Active *bool   `json:"active"`
}

func (s *Server) UpdateClient(c *gin.Context) {
	var req updateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("request", "invalid_request", "invalid request"))
		return
	}

	client, err := s.clientSvc.Update(c.Request.Context(), clientdomain.UpdateRequest{
		Name:   c.Param("name"),
		Notes:  req.Notes,
		Active: req.Active,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, client)
}

// DeleteClient removes the client with its configurations and
// overrides. The removal is itself recorded in the history log.
func (s *Server) DeleteClient(c *gin.Context) {
	if err := s.clientServiceSvc.DeleteClient(c.Request.Context(), c.Param("name")); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) ListClientServices(c *gin.Context) {
	configs, err := s.clientServiceSvc.ListConfigs(c.Request.Context(), c.Param("name"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"configs": configs})
}

type configureClientServiceRequest struct {
	ServiceType     string `json:"service_type" binding:"required"`
	Hours           float64 `json:"hours"`
	CustomRateCents *int64  `json:"custom_rate_cents"`
}

func (s *Server) ConfigureClientService(c *gin.Context) {
	var req configureClientServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("service_type", "invalid_request", "service_type is required"))
		return
	}

	config, err := s.clientServiceSvc.Configure(c.Request.Context(), clientservicedomain.ConfigureRequest{
		ClientName:      c.Param("name"),
		ServiceTypeName: req.ServiceType,
		Hours:           req.Hours,
		CustomRateCents: req.CustomRateCents,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, config)
}

type updateHoursRequest struct {
	ServiceType string  `json:"service_type" binding:"required"`
	Hours       float64 `json:"hours"`
	Reason      string  `json:"reason"`
}

func (s *Server) UpdateClientServiceHours(c *gin.Context) {
	var req updateHoursRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("service_type", "invalid_request", "service_type is required"))
		return
	}

	config, err := s.clientServiceSvc.UpdateHours(c.Request.Context(), clientservicedomain.UpdateHoursRequest{
		ClientName:      c.Param("name"),
		ServiceTypeName: req.ServiceType,
		Hours:           req.Hours,
		Reason:          req.Reason,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, config)
}

type applyOverrideRequest struct {
	ServiceType string  `json:"service_type" binding:"required"`
	Quantity    float64 `json:"quantity"`
	StartDate   string  `json:"start_date" binding:"required"`
	EndDate     string  `json:"end_date" binding:"required"`
	Reason      string  `json:"reason"`
}

func (s *Server) ApplyPeriodOverride(c *gin.Context) {
	var req applyOverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("request", "invalid_request", "service_type, start_date and end_date are required"))
		return
	}

	start, err := parseDate(req.StartDate)
	if err != nil {
		AbortWithError(c, newValidationError("start_date", "invalid_range", "start_date must be YYYY-MM-DD"))
		return
	}
	end, err := parseDate(req.EndDate)
	if err != nil {
		AbortWithError(c, newValidationError("end_date", "invalid_range", "end_date must be YYYY-MM-DD"))
		return
	}

	override, err := s.clientServiceSvc.ApplyOverride(c.Request.Context(), clientservicedomain.OverrideRequest{
		ClientName:      c.Param("name"),
		ServiceTypeName: req.ServiceType,
		Quantity:        req.Quantity,
		StartDate:       start,
		EndDate:         end,
		Reason:          req.Reason,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, override)
}

func (s *Server) ResolveClientService(c *gin.Context) {
	req := clientservicedomain.ResolveRequest{
		ClientName:      c.Param("name"),
		ServiceTypeName: c.Query("service_type"),
	}
	if raw := c.Query("as_of"); raw != "" {
		asOf, err := parseDate(raw)
		if err != nil {
			AbortWithError(c, newValidationError("as_of", "invalid_request", "as_of must be YYYY-MM-DD"))
			return
		}
		req.AsOf = &asOf
	}

	resolution, err := s.clientServiceSvc.Resolve(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resolution)
}

func parseDate(value string) (time.Time, error) {
	return time.Parse("2006-01-02", value)
}
