package importer

import (
	"catalog-service/internal/models"
)

// Duplicate lists are capped for transport; HasDuplicates is computed from
// the uncapped totals.
const maxDuplicateFindings = 100

type nameGroup struct {
	original string
	count    int
}

// DetectDuplicates cross-references the upload's product names against the
// existing catalog and against the upload itself, matching on normalized
// names. Rows without a resolvable non-blank name are ignored here; they fail
// validation later. Advisory: the caller decides whether to proceed.
func DetectDuplicates(grid *Grid, mapping models.ColumnMapping, existingNames []string) models.ValidationResult {
	nameHeader := headerFor(mapping, ColName)

	existing := make(map[string]string, len(existingNames))
	for _, name := range existingNames {
		normalized := NormalizeName(name)
		if _, ok := existing[normalized]; !ok {
			existing[normalized] = name
		}
	}

	total := 0
	seen := make(map[string]*nameGroup)
	var order []string
	var inCatalog []models.DuplicateInCatalog

	for _, row := range grid.Rows() {
		name := grid.Value(row, nameHeader)
		if name == "" {
			continue
		}
		total++
		normalized := NormalizeName(name)

		if group, ok := seen[normalized]; ok {
			group.count++
			continue
		}
		seen[normalized] = &nameGroup{original: name, count: 1}
		order = append(order, normalized)

		// One in-catalog finding per distinct normalized name, first
		// occurrence only
		if existingName, ok := existing[normalized]; ok {
			inCatalog = append(inCatalog, models.DuplicateInCatalog{
				Name:         name,
				ExistingName: existingName,
			})
		}
	}

	var inBatch []models.DuplicateInBatch
	for _, normalized := range order {
		if group := seen[normalized]; group.count > 1 {
			inBatch = append(inBatch, models.DuplicateInBatch{
				Name:  group.original,
				Count: group.count,
			})
		}
	}

	result := models.ValidationResult{
		TotalProducts:    total,
		DuplicatesInDB:   capCatalogFindings(inCatalog),
		DuplicatesInList: capBatchFindings(inBatch),
		HasDuplicates:    len(inCatalog) > 0 || len(inBatch) > 0,
	}
	return result
}

// headerFor finds the file header mapped to the given system column, falling
// back to the column key itself.
func headerFor(mapping models.ColumnMapping, key string) string {
	for header, mapped := range mapping {
		if mapped == key {
			return header
		}
	}
	return key
}

func capCatalogFindings(findings []models.DuplicateInCatalog) []models.DuplicateInCatalog {
	if findings == nil {
		return []models.DuplicateInCatalog{}
	}
	if len(findings) > maxDuplicateFindings {
		return findings[:maxDuplicateFindings]
	}
	return findings
}

func capBatchFindings(findings []models.DuplicateInBatch) []models.DuplicateInBatch {
	if findings == nil {
		return []models.DuplicateInBatch{}
	}
	if len(findings) > maxDuplicateFindings {
		return findings[:maxDuplicateFindings]
	}
	return findings
}
