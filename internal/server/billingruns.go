package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	billingdomain "github.com/carebill/carebill/internal/billing/domain"
	ingestdomain "github.com/carebill/carebill/internal/ingest/domain"
)

type billingRunRequest struct {
	Records []ingestdomain.VisitRecord `json:"records"`
	AsOf    string                     `json:"as_of"`
}

// RunBilling prices cleaned electronic records together with stored
// manual entries and returns the resulting ledger.
func (s *Server) RunBilling(c *gin.Context) {
	var req billingRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("request", "invalid_request", "invalid request"))
		return
	}

	calculate := billingdomain.CalculateRequest{Records: req.Records}
	if req.AsOf != "" {
		asOf, err := parseDate(req.AsOf)
		if err != nil {
			AbortWithError(c, newValidationError("as_of", "invalid_request", "as_of must be YYYY-MM-DD"))
			return
		}
		calculate.AsOf = &asOf
	}

	ledger, err := s.billingSvc.Calculate(c.Request.Context(), calculate)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, ledger)
}
