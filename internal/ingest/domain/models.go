package domain

// VisitRecord is one verified home visit extracted from an imported file.
type VisitRecord struct {
	ClientName   string `json:"client_name"`
	EmployeeName string `json:"employee_name"`
	ServiceType  string `json:"service_type"`
}

// SourceFile is one tabular file handed to the cleaner. Header may be
// empty, in which case positional columns are used.
type SourceFile struct {
	Name   string     `json:"name"`
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
}

// FileResult reports the outcome of cleaning one source file.
type FileResult struct {
	Name    string `json:"name"`
	Rows    int    `json:"rows"`
	Kept    int    `json:"kept"`
	Dropped int    `json:"dropped"`
	Failed  bool   `json:"failed"`
	Error   string `json:"error,omitempty"`
}

// BatchResult is the outcome of one import run across several files.
type BatchResult struct {
	BatchID string        `json:"batch_id"`
	Files   []FileResult  `json:"files"`
	Records []VisitRecord `json:"records"`
}
