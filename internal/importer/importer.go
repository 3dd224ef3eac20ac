// Package importer implements the catalog import pipeline: tabular decoding,
// column-mapping inference, duplicate detection, row validation and batch
// commit. It is transport-free; handlers feed it raw bytes and plain data
// structures come back.
package importer

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"catalog-service/internal/models"
)

// ErrIncompleteMapping is returned when a confirmed mapping leaves a required
// column uncovered.
var ErrIncompleteMapping = errors.New("required columns are not mapped")

const previewRows = 5

// CatalogReader is the read side of the catalog contract.
type CatalogReader interface {
	ActiveProductNames(businessID string) ([]string, error)
}

// Catalog is the full collaborator contract the pipeline consumes.
type Catalog interface {
	CatalogReader
	LookupCatalog
	CatalogWriter
}

// Service orchestrates the pipeline for one catalog.
type Service struct {
	catalog Catalog
	logger  *logrus.Entry
}

func NewService(catalog Catalog, logger *logrus.Logger) *Service {
	return &Service{
		catalog: catalog,
		logger:  logger.WithField("component", "importer"),
	}
}

// Analyze decodes an upload and suggests a column mapping. The suggestion is
// best-effort; the caller confirms or edits it before import.
func (s *Service) Analyze(data []byte, filename, mimeType string) (*models.ParsedFile, error) {
	grid, err := Decode(data, filename, mimeType)
	if err != nil {
		return nil, err
	}

	headers := make([]string, 0, len(grid.Headers()))
	for _, h := range grid.Headers() {
		if h != "" {
			headers = append(headers, h)
		}
	}

	return &models.ParsedFile{
		Headers:          headers,
		PreviewData:      grid.Preview(previewRows),
		TotalRows:        len(grid.Rows()),
		SuggestedMapping: SuggestMapping(headers),
	}, nil
}

// Validate decodes an upload and reports duplicate findings against the
// business's existing catalog and within the upload itself.
func (s *Service) Validate(data []byte, filename, mimeType string, mapping models.ColumnMapping, businessID string) (*models.ValidationResult, error) {
	grid, err := Decode(data, filename, mimeType)
	if err != nil {
		return nil, err
	}

	existingNames, err := s.catalog.ActiveProductNames(businessID)
	if err != nil {
		return nil, fmt.Errorf("loading catalog names: %w", err)
	}

	result := DetectDuplicates(grid, mapping, existingNames)
	return &result, nil
}

// Process runs the full import: decode, transform every row, commit the
// staged records. Row-level problems are recorded and never abort the batch;
// only decode failures and an incomplete mapping are fatal.
func (s *Service) Process(data []byte, filename, mimeType string, mapping models.ColumnMapping, businessID string, skipDuplicates bool) (*models.ImportResult, error) {
	if missing := ValidateMapping(mapping); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrIncompleteMapping, strings.Join(missing, ", "))
	}

	grid, err := Decode(data, filename, mimeType)
	if err != nil {
		return nil, err
	}

	var existingNames []string
	if skipDuplicates {
		existingNames, err = s.catalog.ActiveProductNames(businessID)
		if err != nil {
			return nil, fmt.Errorf("loading catalog names: %w", err)
		}
	}

	start := time.Now()
	outcome := NewTransformer(s.catalog).Transform(grid, mapping, businessID, skipDuplicates, existingNames)

	result := &models.ImportResult{
		Failed:  outcome.Failed,
		Skipped: outcome.Skipped,
		Errors:  outcome.Errors,
	}
	NewCommitter(s.catalog).Commit(outcome.Staged, skipDuplicates, result)

	s.logger.WithFields(logrus.Fields{
		"businessId": businessID,
		"rows":       len(grid.Rows()),
		"success":    result.Success,
		"failed":     result.Failed,
		"skipped":    result.Skipped,
		"durationMs": time.Since(start).Milliseconds(),
	}).Info("Import processed")

	return result, nil
}
