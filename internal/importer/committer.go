package importer

import (
	"fmt"

	"catalog-service/internal/models"
)

// CatalogWriter is the storage contract the committer writes through.
type CatalogWriter interface {
	// BulkInsertProducts inserts all records in one operation, silently
	// ignoring existing duplicates when skipDuplicates is set, and returns
	// the number of rows actually inserted.
	BulkInsertProducts(records []models.Product, skipDuplicates bool) (int, error)
	InsertProduct(record *models.Product) error
	// IsDuplicateErr reports whether an insert failure was a unique
	// constraint violation.
	IsDuplicateErr(err error) bool
}

// Committer persists staged records, maximizing committed rows: a bulk insert
// first, then a per-record retry of the whole batch when the bulk attempt
// fails, so one bad record cannot void the import.
type Committer struct {
	writer CatalogWriter
}

func NewCommitter(writer CatalogWriter) *Committer {
	return &Committer{writer: writer}
}

// Commit writes staged records into result. Success reflects records actually
// persisted; storage-level duplicate skips are added to Skipped.
func (c *Committer) Commit(staged []StagedRecord, skipDuplicates bool, result *models.ImportResult) {
	if len(staged) == 0 {
		return
	}

	records := make([]models.Product, len(staged))
	for i, s := range staged {
		records[i] = s.Product
	}

	inserted, err := c.writer.BulkInsertProducts(records, skipDuplicates)
	if err == nil {
		result.Success += inserted
		result.Skipped += len(records) - inserted
		return
	}

	// The bulk attempt's count is discarded; every record is retried in
	// isolation so failures stay per-row.
	for i := range staged {
		record := staged[i].Product
		insertErr := c.writer.InsertProduct(&record)
		switch {
		case insertErr == nil:
			result.Success++
		case c.writer.IsDuplicateErr(insertErr):
			if skipDuplicates {
				result.Skipped++
			} else {
				addCommitError(result, staged[i].Row, fmt.Sprintf("Duplicate product: %s", record.Name))
			}
		default:
			addCommitError(result, staged[i].Row, fmt.Sprintf("Failed to insert product: %s", record.Name))
		}
	}
}

func addCommitError(result *models.ImportResult, rowNum int, message string) {
	result.Failed++
	if len(result.Errors) < maxRowErrors {
		result.Errors = append(result.Errors, models.ImportRowError{Row: rowNum, Message: message})
	}
}
