package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/carebill/carebill/internal/analysis"
	ingestdomain "github.com/carebill/carebill/internal/ingest/domain"
)

type importFilePayload struct {
	Name   string     `json:"name"`
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
}

type importRequest struct {
	Files []importFilePayload `json:"files" binding:"required"`
}

type importResponse struct {
	BatchID     string                     `json:"batch_id"`
	Files       []ingestdomain.FileResult  `json:"files"`
	Records     []ingestdomain.VisitRecord `json:"records"`
	Aggregation analysis.Aggregation       `json:"aggregation"`
	Summary     analysis.Summary           `json:"summary"`
}

// ImportVisits cleans one or more uploaded visit files and returns the
// retained records with their frequency aggregation.
func (s *Server) ImportVisits(c *gin.Context) {
	if !s.allowImport(c) {
		return
	}

	var req importRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("files", "invalid_request", "files are required"))
		return
	}

	files := make([]ingestdomain.SourceFile, 0, len(req.Files))
	for _, file := range req.Files {
		files = append(files, ingestdomain.SourceFile{
			Name:   file.Name,
			Header: file.Header,
			Rows:   file.Rows,
		})
	}

	release, ok := s.lockImportSources(c, files)
	if !ok {
		return
	}
	defer release()

	result, err := s.ingestSvc.CleanBatch(c.Request.Context(), ingestdomain.CleanBatchRequest{Files: files})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	agg := analysis.Aggregate(result.Records)
	c.JSON(http.StatusOK, importResponse{
		BatchID:     result.BatchID,
		Files:       result.Files,
		Records:     result.Records,
		Aggregation: agg,
		Summary:     analysis.Summarize(agg),
	})
}

type aggregateRequest struct {
	Records []ingestdomain.VisitRecord `json:"records" binding:"required"`
	TopN    int                        `json:"top_n"`
}

type aggregateResponse struct {
	Aggregation analysis.Aggregation `json:"aggregation"`
	Summary     analysis.Summary     `json:"summary"`
}

// AggregateVisits recomputes frequencies over already-cleaned records,
// typically to combine several imports.
func (s *Server) AggregateVisits(c *gin.Context) {
	var req aggregateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("records", "invalid_request", "records are required"))
		return
	}

	agg := analysis.Aggregate(req.Records)
	summary := analysis.Summarize(agg)
	if req.TopN > 0 {
		agg = analysis.TopN(agg, req.TopN)
	}

	c.JSON(http.StatusOK, aggregateResponse{Aggregation: agg, Summary: summary})
}

// lockImportSources takes a short exclusive lock per file so the same
// file cannot be imported twice concurrently. The returned release
// function is always safe to call.
func (s *Server) lockImportSources(c *gin.Context, files []ingestdomain.SourceFile) (func(), bool) {
	if !s.importLimiter.Enabled() {
		return func() {}, true
	}

	ctx := c.Request.Context()
	type held struct {
		source string
		token  string
	}
	var locks []held

	release := func() {
		for _, l := range locks {
			if err := s.importLimiter.ReleaseSource(ctx, l.source, l.token); err != nil {
				s.log.Warn("import lock release failed", zap.String("source", l.source), zap.Error(err))
			}
		}
	}

	for _, file := range files {
		token, ok, err := s.importLimiter.TryLockSource(ctx, file.Name)
		if err != nil {
			s.log.Warn("import lock check failed", zap.String("source", file.Name), zap.Error(err))
			continue
		}
		if !ok {
			release()
			AbortWithError(c, ErrConflict)
			return func() {}, false
		}
		locks = append(locks, held{source: file.Name, token: token})
	}

	return release, true
}

func (s *Server) allowImport(c *gin.Context) bool {
	if !s.importLimiter.Enabled() {
		return true
	}

	result, err := s.importLimiter.AllowSource(c.Request.Context(), c.ClientIP())
	if err != nil {
		s.log.Warn("import rate limit check failed", zap.Error(err))
		return true
	}
	if !result.Allowed {
		if s.obsMetrics != nil {
			s.obsMetrics.RecordRateLimitDenied(c.Request.Context(), "/v1/imports")
		}
		AbortWithError(c, ErrTooManyImports)
		return false
	}
	return true
}
