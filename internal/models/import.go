package models

// ImportFormat represents the file format for import
type ImportFormat string

const (
	ImportFormatCSV  ImportFormat = "csv"
	ImportFormatXLSX ImportFormat = "xlsx"
)

// SystemColumn describes one canonical product field a file column can be
// mapped to. The set is closed and owned by the service, not the file.
type SystemColumn struct {
	Key      string `json:"key"`
	Label    string `json:"label"`
	Required bool   `json:"required"`
}

// ColumnMapping associates file header text with system column keys.
// Keys are file headers exactly as they appear in row 0; values are
// SystemColumn keys.
type ColumnMapping map[string]string

// ParsedFile is the result of analyzing an uploaded file
type ParsedFile struct {
	Headers          []string            `json:"headers"`
	PreviewData      []map[string]string `json:"previewData"`
	TotalRows        int                 `json:"totalRows"`
	SuggestedMapping ColumnMapping       `json:"suggestedMapping"`
}

// DuplicateInCatalog is an incoming name whose normalized form already exists
// in the target catalog
type DuplicateInCatalog struct {
	Name         string `json:"name"`
	ExistingName string `json:"existingName"`
}

// DuplicateInBatch is a normalized name repeated within the uploaded set
type DuplicateInBatch struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// ValidationResult reports duplicate findings for an upload. Advisory only:
// it never blocks the import by itself.
type ValidationResult struct {
	TotalProducts    int                  `json:"totalProducts"`
	DuplicatesInDB   []DuplicateInCatalog `json:"duplicatesInDb"`
	DuplicatesInList []DuplicateInBatch   `json:"duplicatesInList"`
	HasDuplicates    bool                 `json:"hasDuplicates"`
}

// ImportRowError records why a single source row was rejected
type ImportRowError struct {
	Row     int    `json:"row"`
	Message string `json:"error"`
}

// ImportResult is the outcome of a commit. Errors is capped for transport;
// Failed always reflects the true total.
type ImportResult struct {
	Success int              `json:"success"`
	Failed  int              `json:"failed"`
	Skipped int              `json:"skipped"`
	Errors  []ImportRowError `json:"errors"`
}

// AnalyzeResponse is returned by the analyze endpoint
type AnalyzeResponse struct {
	SessionID        string              `json:"sessionId"`
	Headers          []string            `json:"headers"`
	PreviewData      []map[string]string `json:"previewData"`
	TotalRows        int                 `json:"totalRows"`
	SuggestedMapping ColumnMapping       `json:"suggestedMapping"`
	SystemColumns    []SystemColumn      `json:"systemColumns"`
}

// ImportRequest carries the confirmed mapping for validate/process calls
type ImportRequest struct {
	SessionID      string        `json:"sessionId" binding:"required"`
	ColumnMapping  ColumnMapping `json:"columnMapping" binding:"required"`
	SkipDuplicates bool          `json:"skipDuplicates"`
}
