package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	manualentrydomain "github.com/carebill/carebill/internal/manualentry/domain"
)

type createManualEntryRequest struct {
	ClientName    string `json:"client_name" binding:"required"`
	CaregiverName string `json:"caregiver_name"`
	ServiceType   string `json:"service_type" binding:"required"`
	VisitCount    int    `json:"visit_count"`
	StartDate     string `json:"start_date"`
	EndDate       string `json:"end_date"`
	Notes         string `json:"notes"`
}

func (s *Server) CreateManualEntry(c *gin.Context) {
	var req createManualEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("request", "invalid_request", "client_name and service_type are required"))
		return
	}

	create := manualentrydomain.CreateRequest{
		ClientName:    req.ClientName,
		CaregiverName: req.CaregiverName,
		ServiceType:   req.ServiceType,
		VisitCount:    req.VisitCount,
		Notes:         req.Notes,
	}
	if req.StartDate != "" {
		start, err := parseDate(req.StartDate)
		if err != nil {
			AbortWithError(c, newValidationError("start_date", "invalid_range", "start_date must be YYYY-MM-DD"))
			return
		}
		create.StartDate = &start
	}
	if req.EndDate != "" {
		end, err := parseDate(req.EndDate)
		if err != nil {
			AbortWithError(c, newValidationError("end_date", "invalid_range", "end_date must be YYYY-MM-DD"))
			return
		}
		create.EndDate = &end
	}

	entry, err := s.manualEntrySvc.Create(c.Request.Context(), create)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, entry)
}

func (s *Server) ListManualEntries(c *gin.Context) {
	var (
		entries []manualentrydomain.ManualEntry
		err     error
	)
	if client := c.Query("client"); client != "" {
		entries, err = s.manualEntrySvc.ListByClient(c.Request.Context(), client)
	} else {
		entries, err = s.manualEntrySvc.List(c.Request.Context())
	}
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

func (s *Server) DeleteManualEntry(c *gin.Context) {
	if err := s.manualEntrySvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) ClearManualEntries(c *gin.Context) {
	if err := s.manualEntrySvc.Clear(c.Request.Context()); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
