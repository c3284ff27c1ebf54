package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	historydomain "github.com/carebill/carebill/internal/history/domain"
	"github.com/carebill/carebill/pkg/db/pagination"
)

type listHistoryQuery struct {
	Client    string `form:"client"`
	PageToken string `form:"page_token"`
	PageSize  int    `form:"page_size"`
}

// QueryHistory returns change history entries, newest first, optionally
// scoped to a single client.
func (s *Server) QueryHistory(c *gin.Context) {
	var query listHistoryQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, newValidationError("query", "invalid_request", "invalid query parameters"))
		return
	}

	resp, err := s.historySvc.Query(c.Request.Context(), historydomain.QueryRequest{
		Pagination: pagination.Pagination{
			PageToken: strings.TrimSpace(query.PageToken),
			PageSize:  query.PageSize,
		},
		ClientName: query.Client,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"entries": resp.Entries, "page_info": resp.PageInfo})
}

// ClearHistory wipes the change history log.
func (s *Server) ClearHistory(c *gin.Context) {
	if err := s.historySvc.Clear(c.Request.Context()); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
