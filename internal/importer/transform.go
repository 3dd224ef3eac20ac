package importer

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"catalog-service/internal/models"
)

// Transport cap on the per-row error list. Failed counts are never capped.
const maxRowErrors = 50

var (
	decimalStrip = regexp.MustCompile(`[^0-9.-]`)
	integerStrip = regexp.MustCompile(`[^0-9-]`)
)

// LookupCatalog resolves and creates the lookup entities referenced by
// incoming rows.
type LookupCatalog interface {
	CategoryIDByName(businessID, name string) (*uuid.UUID, error)
	CreateCategory(businessID, name string) (uuid.UUID, error)
	SupplierIDByName(businessID, name string) (*uuid.UUID, error)
	CreateSupplier(businessID, name string) (uuid.UUID, error)
}

// StagedRecord is a fully validated, type-coerced row ready for commit.
type StagedRecord struct {
	Product models.Product
	Row     int // 1-based source row; the header row is row 1
}

// TransformOutcome aggregates the per-row results of one transform call.
type TransformOutcome struct {
	Staged  []StagedRecord
	Errors  []models.ImportRowError
	Failed  int
	Skipped int
}

// rowError is a structured per-row rejection. Rows fail individually; a bad
// row never aborts the batch.
type rowError struct {
	message string
}

func (e *rowError) Error() string { return e.message }

// lookupCache is the per-call category/supplier cache. Storage is consulted
// at most once per distinct lowercased name within a single import call, so
// two rows introducing the same new name observe a single creation.
type lookupCache struct {
	categories map[string]uuid.UUID
	suppliers  map[string]uuid.UUID
}

func newLookupCache() *lookupCache {
	return &lookupCache{
		categories: make(map[string]uuid.UUID),
		suppliers:  make(map[string]uuid.UUID),
	}
}

// Transformer applies a confirmed column mapping to data rows, producing
// staged records. Not safe for concurrent use; one Transformer serves one
// import call.
type Transformer struct {
	catalog LookupCatalog
}

func NewTransformer(catalog LookupCatalog) *Transformer {
	return &Transformer{catalog: catalog}
}

// Transform validates and coerces every data row independently, in file
// order. existingNames is the catalog's active product names; it is consulted
// only in skip-duplicates mode, together with the names staged earlier in
// this same call, so at most one row per normalized name survives.
func (t *Transformer) Transform(grid *Grid, mapping models.ColumnMapping, businessID string, skipDuplicates bool, existingNames []string) TransformOutcome {
	outcome := TransformOutcome{Errors: make([]models.ImportRowError, 0)}

	var existing map[string]bool
	if skipDuplicates {
		existing = make(map[string]bool, len(existingNames))
		for _, name := range existingNames {
			existing[NormalizeName(name)] = true
		}
	}

	cache := newLookupCache()
	staged := make(map[string]bool)
	reverse := reverseMapping(mapping)
	skuBase := strconv.FormatInt(time.Now().UnixMilli(), 36)
	skuCounter := 0

	read := func(row []string, key string) string {
		return grid.Value(row, reverse[key])
	}

	for i, row := range grid.Rows() {
		rowNum := i + 2

		name := read(row, ColName)
		if name == "" {
			outcome.fail(rowNum, "Product name is required")
			continue
		}

		if skipDuplicates {
			normalized := NormalizeName(name)
			if existing[normalized] || staged[normalized] {
				outcome.Skipped++
				continue
			}
		}

		record, err := t.transformRow(grid, reverse, row, businessID, cache, func() string {
			sku := fmt.Sprintf("SKU-%s-%d", skuBase, skuCounter)
			skuCounter++
			return sku
		})
		if err != nil {
			outcome.fail(rowNum, err.Error())
			continue
		}

		outcome.Staged = append(outcome.Staged, StagedRecord{Product: *record, Row: rowNum})
		staged[NormalizeName(name)] = true
	}

	return outcome
}

// transformRow coerces one row into a product, or returns a structured error.
func (t *Transformer) transformRow(grid *Grid, reverse map[string]string, row []string, businessID string, cache *lookupCache, nextSKU func() string) (*models.Product, error) {
	read := func(key string) string {
		return grid.Value(row, reverse[key])
	}

	name := read(ColName)

	salePrice, err := parseDecimal(read(ColSalePrice))
	if err != nil || salePrice < 0 {
		return nil, &rowError{message: fmt.Sprintf("Invalid price for: %s", name)}
	}

	// Cost price is stored as parsed, sign included; only sale price is held
	// to non-negativity
	var costPrice *float64
	if raw := read(ColCostPrice); raw != "" {
		if v, err := parseDecimal(raw); err == nil {
			costPrice = &v
		}
	}

	stock := 0
	if raw := read(ColStock); raw != "" {
		if v, err := parseInteger(raw); err == nil {
			stock = v
		}
	}

	var minStock *int
	if raw := read(ColMinStock); raw != "" {
		if v, err := parseInteger(raw); err == nil && v != 0 {
			minStock = &v
		}
	}

	categoryID, err := t.resolveCategory(businessID, read(ColCategory), cache)
	if err != nil {
		return nil, &rowError{message: fmt.Sprintf("Failed to resolve category for: %s", name)}
	}
	supplierID, err := t.resolveSupplier(businessID, read(ColSupplier), cache)
	if err != nil {
		return nil, &rowError{message: fmt.Sprintf("Failed to resolve supplier for: %s", name)}
	}

	sku := read(ColSKU)
	if sku == "" {
		sku = nextSKU()
	}

	state := models.ProductStateActive
	if stock <= 0 {
		state = models.ProductStateOutOfStock
	}

	return &models.Product{
		BusinessID:  businessID,
		Name:        name,
		SKU:         sku,
		BarCode:     optionalString(read(ColBarCode)),
		Description: optionalString(read(ColDescription)),
		CostPrice:   costPrice,
		SalePrice:   salePrice,
		Stock:       stock,
		MinStock:    minStock,
		Notes:       optionalString(read(ColNotes)),
		State:       state,
		CategoryID:  categoryID,
		SupplierID:  supplierID,
	}, nil
}

func (t *Transformer) resolveCategory(businessID, name string, cache *lookupCache) (*uuid.UUID, error) {
	if name == "" {
		return nil, nil
	}
	key := strings.ToLower(name)
	if id, ok := cache.categories[key]; ok {
		return &id, nil
	}

	id, err := t.catalog.CategoryIDByName(businessID, name)
	if err != nil {
		return nil, err
	}
	if id == nil {
		created, err := t.catalog.CreateCategory(businessID, name)
		if err != nil {
			return nil, err
		}
		id = &created
	}
	cache.categories[key] = *id
	return id, nil
}

func (t *Transformer) resolveSupplier(businessID, name string, cache *lookupCache) (*uuid.UUID, error) {
	if name == "" {
		return nil, nil
	}
	key := strings.ToLower(name)
	if id, ok := cache.suppliers[key]; ok {
		return &id, nil
	}

	id, err := t.catalog.SupplierIDByName(businessID, name)
	if err != nil {
		return nil, err
	}
	if id == nil {
		created, err := t.catalog.CreateSupplier(businessID, name)
		if err != nil {
			return nil, err
		}
		id = &created
	}
	cache.suppliers[key] = *id
	return id, nil
}

// reverseMapping inverts the confirmed header→column mapping. The name
// column falls back to the key itself when unmapped so detection and
// transform agree with DetectDuplicates.
func reverseMapping(mapping models.ColumnMapping) map[string]string {
	reverse := make(map[string]string, len(mapping))
	for header, key := range mapping {
		reverse[key] = header
	}
	if _, ok := reverse[ColName]; !ok {
		reverse[ColName] = ColName
	}
	return reverse
}

// fail records a row failure, keeping the error list bounded while counting
// every failure.
func (o *TransformOutcome) fail(rowNum int, message string) {
	o.Failed++
	if len(o.Errors) < maxRowErrors {
		o.Errors = append(o.Errors, models.ImportRowError{Row: rowNum, Message: message})
	}
}

// parseDecimal strips everything except digits, sign and decimal point, then
// parses.
func parseDecimal(raw string) (float64, error) {
	stripped := decimalStrip.ReplaceAllString(raw, "")
	return strconv.ParseFloat(stripped, 64)
}

// parseInteger strips everything except digits and sign, then parses.
func parseInteger(raw string) (int, error) {
	stripped := integerStrip.ReplaceAllString(raw, "")
	return strconv.Atoi(stripped)
}

func optionalString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
