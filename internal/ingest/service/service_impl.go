package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/oklog/ulid/v2"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/carebill/carebill/internal/ingest/domain"
	"github.com/carebill/carebill/internal/observability/metrics"
)

// Positional layout used when a file carries no recognizable header:
// client name, employee name and service type lead the row, the
// verification status sits in the fifteenth column.
const (
	posClientName   = 0
	posEmployeeName = 1
	posServiceType  = 2
	posVerification = 14

	minPositionalColumns = 15

	verifiedStatus = "verified"
)

var (
	clientHeaders       = []string{"client_name", "client name", "client"}
	employeeHeaders     = []string{"employee_name", "employee name", "employee", "caregiver_name", "caregiver name", "caregiver"}
	serviceHeaders      = []string{"service_type", "service type", "service"}
	verificationHeaders = []string{"verification_status", "verification status", "verification", "status"}
)

type Params struct {
	fx.In

	Log     *zap.Logger
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	log     *zap.Logger
	metrics *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		log:     p.Log.Named("ingest.service"),
		metrics: p.Metrics,
	}
}

type columnMap struct {
	client   int
	employee int
	service  int
	status   int
}

func (s *Service) Clean(ctx context.Context, req domain.CleanRequest) ([]domain.VisitRecord, error) {
	cols, err := resolveColumns(req.Header, req.Rows)
	if err != nil {
		return nil, err
	}

	records := make([]domain.VisitRecord, 0, len(req.Rows))
	for _, row := range req.Rows {
		record, ok := extractRecord(row, cols)
		if !ok {
			continue
		}
		records = append(records, record)
	}

	if s.metrics != nil {
		s.metrics.RecordVisitsRetained(ctx, int64(len(records)))
	}

	return records, nil
}

func (s *Service) CleanBatch(ctx context.Context, req domain.CleanBatchRequest) (domain.BatchResult, error) {
	if len(req.Files) == 0 {
		return domain.BatchResult{}, domain.ErrNoFiles
	}

	batchID := ulid.Make().String()
	result := domain.BatchResult{
		BatchID: batchID,
		Files:   make([]domain.FileResult, 0, len(req.Files)),
		Records: make([]domain.VisitRecord, 0),
	}

	for _, file := range req.Files {
		fileResult := domain.FileResult{Name: file.Name, Rows: len(file.Rows)}

		records, err := s.Clean(ctx, domain.CleanRequest{Header: file.Header, Rows: file.Rows})
		if err != nil {
			fileResult.Failed = true
			fileResult.Error = fmt.Errorf("%w: %s", err, file.Name).Error()
			s.log.Warn("import file rejected",
				zap.String("batch_id", batchID),
				zap.String("file", file.Name),
				zap.Error(err),
			)
			if s.metrics != nil {
				s.metrics.RecordImportFile(ctx, "failed")
			}
			result.Files = append(result.Files, fileResult)
			continue
		}

		fileResult.Kept = len(records)
		fileResult.Dropped = len(file.Rows) - len(records)
		result.Files = append(result.Files, fileResult)
		result.Records = append(result.Records, records...)

		if s.metrics != nil {
			s.metrics.RecordImportFile(ctx, "ok")
		}
	}

	s.log.Info("import batch cleaned",
		zap.String("batch_id", batchID),
		zap.Int("files", len(req.Files)),
		zap.Int("records", len(result.Records)),
	)

	return result, nil
}

func resolveColumns(header []string, rows [][]string) (columnMap, error) {
	if cols, ok := resolveNamedColumns(header); ok {
		return cols, nil
	}

	width := len(header)
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}
	if width < minPositionalColumns {
		return columnMap{}, fmt.Errorf("%w: need at least %d columns, got %d", domain.ErrSchema, minPositionalColumns, width)
	}

	return columnMap{
		client:   posClientName,
		employee: posEmployeeName,
		service:  posServiceType,
		status:   posVerification,
	}, nil
}

func resolveNamedColumns(header []string) (columnMap, bool) {
	if len(header) == 0 {
		return columnMap{}, false
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}

	lookup := func(candidates []string) (int, bool) {
		for _, candidate := range candidates {
			if i, ok := index[candidate]; ok {
				return i, true
			}
		}
		return 0, false
	}

	client, okClient := lookup(clientHeaders)
	employee, okEmployee := lookup(employeeHeaders)
	service, okService := lookup(serviceHeaders)
	status, okStatus := lookup(verificationHeaders)
	if !okClient || !okEmployee || !okService || !okStatus {
		return columnMap{}, false
	}

	return columnMap{client: client, employee: employee, service: service, status: status}, true
}

func extractRecord(row []string, cols columnMap) (domain.VisitRecord, bool) {
	status := strings.ToLower(strings.TrimSpace(cell(row, cols.status)))
	if status != verifiedStatus {
		return domain.VisitRecord{}, false
	}

	record := domain.VisitRecord{
		ClientName:   strings.TrimSpace(cell(row, cols.client)),
		EmployeeName: strings.TrimSpace(cell(row, cols.employee)),
		ServiceType:  strings.TrimSpace(cell(row, cols.service)),
	}
	// A record is only billable when all three identity fields survive
	// trimming.
	if record.ClientName == "" || record.EmployeeName == "" || record.ServiceType == "" {
		return domain.VisitRecord{}, false
	}

	return record, true
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}
