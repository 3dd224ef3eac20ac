package importer

import (
	"strings"

	"catalog-service/internal/models"
)

// System column keys
const (
	ColName        = "name"
	ColSKU         = "sku"
	ColBarCode     = "bar_code"
	ColDescription = "description"
	ColCostPrice   = "cost_price"
	ColSalePrice   = "sale_price"
	ColStock       = "stock"
	ColMinStock    = "min_stock"
	ColCategory    = "category"
	ColSupplier    = "supplier"
	ColNotes       = "notes"
)

// systemColumns is the closed set of canonical product fields a file column
// can be mapped to. Declaration order matters: it is the precedence order for
// synonym matching.
var systemColumns = []models.SystemColumn{
	{Key: ColName, Label: "Nombre del Producto", Required: true},
	{Key: ColSKU, Label: "SKU / Código", Required: false},
	{Key: ColBarCode, Label: "Código de Barras", Required: false},
	{Key: ColDescription, Label: "Descripción", Required: false},
	{Key: ColCostPrice, Label: "Precio de Costo", Required: false},
	{Key: ColSalePrice, Label: "Precio de Venta", Required: true},
	{Key: ColStock, Label: "Stock Inicial", Required: false},
	{Key: ColMinStock, Label: "Stock Mínimo", Required: false},
	{Key: ColCategory, Label: "Categoría", Required: false},
	{Key: ColSupplier, Label: "Proveedor", Required: false},
	{Key: ColNotes, Label: "Notas", Required: false},
}

// columnSynonyms maps each system column to the lowercase header variants it
// is inferred from. Read-only at runtime.
var columnSynonyms = map[string][]string{
	ColName:        {"nombre", "producto", "name", "product", "descripcion producto", "item", "articulo"},
	ColSKU:         {"sku", "codigo", "code", "cod", "codigo producto", "product code", "ref", "referencia"},
	ColBarCode:     {"codigo de barras", "barcode", "bar_code", "ean", "upc", "codigo barras"},
	ColDescription: {"descripcion", "description", "desc", "detalle", "detail"},
	ColCostPrice:   {"costo", "cost", "precio costo", "cost price", "precio compra", "purchase price"},
	ColSalePrice:   {"precio", "price", "precio venta", "sale price", "pvp", "precio unitario", "unit price"},
	ColStock:       {"stock", "cantidad", "qty", "quantity", "existencia", "inventario", "inventory"},
	ColMinStock:    {"stock minimo", "min stock", "minimo", "minimum", "reorder point"},
	ColCategory:    {"categoria", "category", "cat", "tipo", "type", "familia", "family"},
	ColSupplier:    {"proveedor", "supplier", "vendor", "provider"},
	ColNotes:       {"notas", "notes", "observaciones", "comments", "comentarios"},
}

// SystemColumns returns the canonical field table in declaration order.
func SystemColumns() []models.SystemColumn {
	cols := make([]models.SystemColumn, len(systemColumns))
	copy(cols, systemColumns)
	return cols
}

// RequiredColumns returns the keys of the required canonical fields.
func RequiredColumns() []string {
	var keys []string
	for _, col := range systemColumns {
		if col.Required {
			keys = append(keys, col.Key)
		}
	}
	return keys
}

// SuggestMapping infers a column mapping from free-form file headers. For each
// header the synonym sets are tested in declaration order with three rules by
// precedence: exact match, header contains synonym, synonym contains header.
// The first matching system column wins; unmatched headers stay unmapped.
//
// Headers are visited in file order and no exclusivity is enforced, so a later
// header matching an already-claimed column silently takes it over. Known
// quirk, kept for compatibility with existing imports; the confirmed mapping
// submitted by the client is what must be unique.
func SuggestMapping(headers []string) models.ColumnMapping {
	mapping := make(models.ColumnMapping)
	for _, header := range headers {
		normalized := strings.ToLower(strings.TrimSpace(header))
		if normalized == "" {
			continue
		}
		for _, col := range systemColumns {
			if matchesAny(normalized, columnSynonyms[col.Key]) {
				mapping[header] = col.Key
				break
			}
		}
	}
	return mapping
}

func matchesAny(header string, synonyms []string) bool {
	for _, syn := range synonyms {
		if header == syn || strings.Contains(header, syn) || strings.Contains(syn, header) {
			return true
		}
	}
	return false
}

// ValidateMapping checks that a confirmed mapping covers every required
// column. It returns the labels of the missing required columns.
func ValidateMapping(mapping models.ColumnMapping) []string {
	mapped := make(map[string]bool, len(mapping))
	for _, key := range mapping {
		mapped[key] = true
	}
	var missing []string
	for _, col := range systemColumns {
		if col.Required && !mapped[col.Key] {
			missing = append(missing, col.Label)
		}
	}
	return missing
}
