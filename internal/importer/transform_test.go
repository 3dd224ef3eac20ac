package importer

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog-service/internal/models"
)

// fakeLookup is an in-memory LookupCatalog that records creations.
type fakeLookup struct {
	categories   map[string]uuid.UUID
	suppliers    map[string]uuid.UUID
	createdCats  []string
	createdSups  []string
	failCategory bool
	failSupplier bool
}

func newFakeLookup() *fakeLookup {
	return &fakeLookup{
		categories: make(map[string]uuid.UUID),
		suppliers:  make(map[string]uuid.UUID),
	}
}

func (f *fakeLookup) CategoryIDByName(businessID, name string) (*uuid.UUID, error) {
	if f.failCategory {
		return nil, errors.New("storage down")
	}
	if id, ok := f.categories[strings.ToLower(name)]; ok {
		return &id, nil
	}
	return nil, nil
}

func (f *fakeLookup) CreateCategory(businessID, name string) (uuid.UUID, error) {
	if f.failCategory {
		return uuid.Nil, errors.New("storage down")
	}
	id := uuid.New()
	f.categories[strings.ToLower(name)] = id
	f.createdCats = append(f.createdCats, name)
	return id, nil
}

func (f *fakeLookup) SupplierIDByName(businessID, name string) (*uuid.UUID, error) {
	if f.failSupplier {
		return nil, errors.New("storage down")
	}
	if id, ok := f.suppliers[strings.ToLower(name)]; ok {
		return &id, nil
	}
	return nil, nil
}

func (f *fakeLookup) CreateSupplier(businessID, name string) (uuid.UUID, error) {
	if f.failSupplier {
		return uuid.Nil, errors.New("storage down")
	}
	id := uuid.New()
	f.suppliers[strings.ToLower(name)] = id
	f.createdSups = append(f.createdSups, name)
	return id, nil
}

var fullMapping = models.ColumnMapping{
	"Nombre":    ColName,
	"SKU":       ColSKU,
	"Barras":    ColBarCode,
	"Desc":      ColDescription,
	"Costo":     ColCostPrice,
	"Precio":    ColSalePrice,
	"Stock":     ColStock,
	"Minimo":    ColMinStock,
	"Categoria": ColCategory,
	"Proveedor": ColSupplier,
	"Notas":     ColNotes,
}

const fullHeader = "Nombre,SKU,Barras,Desc,Costo,Precio,Stock,Minimo,Categoria,Proveedor,Notas\n"

func TestTransformHappyPath(t *testing.T) {
	grid := gridFromCSV(t, fullHeader+
		`Widget,W-1,750100,Small widget,"$1,234.56","$2,000.00",12,3,Bebidas,Acme,fragile`+"\n")

	outcome := NewTransformer(newFakeLookup()).Transform(grid, fullMapping, "biz-1", false, nil)

	require.Len(t, outcome.Staged, 1)
	assert.Zero(t, outcome.Failed)
	assert.Zero(t, outcome.Skipped)

	p := outcome.Staged[0].Product
	assert.Equal(t, 2, outcome.Staged[0].Row)
	assert.Equal(t, "biz-1", p.BusinessID)
	assert.Equal(t, "Widget", p.Name)
	assert.Equal(t, "W-1", p.SKU)
	require.NotNil(t, p.BarCode)
	assert.Equal(t, "750100", *p.BarCode)
	require.NotNil(t, p.CostPrice)
	assert.Equal(t, 1234.56, *p.CostPrice)
	assert.Equal(t, 2000.0, p.SalePrice)
	assert.Equal(t, 12, p.Stock)
	require.NotNil(t, p.MinStock)
	assert.Equal(t, 3, *p.MinStock)
	assert.Equal(t, models.ProductStateActive, p.State)
	assert.NotNil(t, p.CategoryID)
	assert.NotNil(t, p.SupplierID)
	require.NotNil(t, p.Notes)
	assert.Equal(t, "fragile", *p.Notes)
}

func TestTransformRowFailures(t *testing.T) {
	tests := []struct {
		name    string
		row     string
		message string
	}{
		{
			name:    "missing name",
			row:     ",,,,,10,,,,,",
			message: "Product name is required",
		},
		{
			name:    "unparseable price",
			row:     "Widget,,,,,abc,,,,,",
			message: "Invalid price for: Widget",
		},
		{
			name:    "negative price",
			row:     "Widget,,,,,-5,,,,,",
			message: "Invalid price for: Widget",
		},
		{
			name:    "blank price",
			row:     "Widget,,,,,,,,,,",
			message: "Invalid price for: Widget",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			grid := gridFromCSV(t, fullHeader+tt.row+"\n")

			outcome := NewTransformer(newFakeLookup()).Transform(grid, fullMapping, "biz-1", false, nil)

			assert.Empty(t, outcome.Staged)
			assert.Equal(t, 1, outcome.Failed)
			require.Len(t, outcome.Errors, 1)
			assert.Equal(t, 2, outcome.Errors[0].Row)
			assert.Equal(t, tt.message, outcome.Errors[0].Message)
		})
	}
}

func TestTransformDefaultsAndQuirks(t *testing.T) {
	grid := gridFromCSV(t, fullHeader+
		"Widget,,,,not-a-price,10,,0,,,\n"+
		"Gadget,,,,,5,oops,garbage,,,\n"+
		"Gizmo,,,,-3.50,5,1,,,,\n")

	outcome := NewTransformer(newFakeLookup()).Transform(grid, fullMapping, "biz-1", false, nil)
	require.Len(t, outcome.Staged, 3)

	widget := outcome.Staged[0].Product
	assert.Nil(t, widget.CostPrice, "invalid cost price is dropped, not fatal")
	assert.Equal(t, 0, widget.Stock)
	assert.Equal(t, models.ProductStateOutOfStock, widget.State)
	assert.Nil(t, widget.MinStock, "explicit zero min stock stays unset")
	assert.Nil(t, widget.BarCode)
	assert.Nil(t, widget.Description)
	assert.Nil(t, widget.Notes)
	assert.Nil(t, widget.CategoryID)
	assert.Nil(t, widget.SupplierID)

	gadget := outcome.Staged[1].Product
	assert.Equal(t, 0, gadget.Stock, "unparseable stock falls back to zero")
	assert.Nil(t, gadget.MinStock, "unparseable min stock stays unset")

	gizmo := outcome.Staged[2].Product
	require.NotNil(t, gizmo.CostPrice, "negative cost price is kept as parsed")
	assert.Equal(t, -3.50, *gizmo.CostPrice)
}

func TestTransformGeneratesSKUs(t *testing.T) {
	grid := gridFromCSV(t, fullHeader+
		"Widget,,,,,10,1,,,,\n"+
		"Gadget,,,,,5,1,,,,\n")

	outcome := NewTransformer(newFakeLookup()).Transform(grid, fullMapping, "biz-1", false, nil)
	require.Len(t, outcome.Staged, 2)

	first := outcome.Staged[0].Product.SKU
	second := outcome.Staged[1].Product.SKU
	assert.True(t, strings.HasPrefix(first, "SKU-"))
	assert.True(t, strings.HasPrefix(second, "SKU-"))
	assert.NotEqual(t, first, second)
}

func TestTransformSkipDuplicates(t *testing.T) {
	grid := gridFromCSV(t, fullHeader+
		"Leche,,,,,10,1,,,,\n"+ // exists in catalog
		"LECHE ,,,,,10,1,,,,\n"+ // same normalized name
		"Pan,,,,,5,1,,,,\n"+ // new
		"pan,,,,,5,1,,,,\n") // duplicate of a staged row

	outcome := NewTransformer(newFakeLookup()).Transform(grid, fullMapping, "biz-1", true, []string{"leche"})

	require.Len(t, outcome.Staged, 1)
	assert.Equal(t, "Pan", outcome.Staged[0].Product.Name)
	assert.Equal(t, 3, outcome.Skipped)
	assert.Zero(t, outcome.Failed)
}

func TestTransformKeepsDuplicatesWhenNotSkipping(t *testing.T) {
	grid := gridFromCSV(t, fullHeader+
		"Leche,,,,,10,1,,,,\n"+
		"leche,,,,,10,1,,,,\n")

	outcome := NewTransformer(newFakeLookup()).Transform(grid, fullMapping, "biz-1", false, nil)

	assert.Len(t, outcome.Staged, 2)
	assert.Zero(t, outcome.Skipped)
}

func TestTransformLookupCacheCreatesOnce(t *testing.T) {
	lookup := newFakeLookup()
	grid := gridFromCSV(t, fullHeader+
		"Widget,,,,,10,1,,Bebidas,Acme,\n"+
		"Gadget,,,,,5,1,,bebidas,ACME,\n")

	outcome := NewTransformer(lookup).Transform(grid, fullMapping, "biz-1", false, nil)
	require.Len(t, outcome.Staged, 2)

	assert.Equal(t, []string{"Bebidas"}, lookup.createdCats)
	assert.Equal(t, []string{"Acme"}, lookup.createdSups)
	assert.Equal(t, outcome.Staged[0].Product.CategoryID, outcome.Staged[1].Product.CategoryID)
	assert.Equal(t, outcome.Staged[0].Product.SupplierID, outcome.Staged[1].Product.SupplierID)
}

func TestTransformLookupFailureFailsRow(t *testing.T) {
	lookup := newFakeLookup()
	lookup.failCategory = true

	grid := gridFromCSV(t, fullHeader+
		"Widget,,,,,10,1,,Bebidas,,\n"+
		"Gadget,,,,,5,1,,,,\n")

	outcome := NewTransformer(lookup).Transform(grid, fullMapping, "biz-1", false, nil)

	require.Len(t, outcome.Staged, 1)
	assert.Equal(t, "Gadget", outcome.Staged[0].Product.Name)
	assert.Equal(t, 1, outcome.Failed)
	require.Len(t, outcome.Errors, 1)
	assert.Equal(t, "Failed to resolve category for: Widget", outcome.Errors[0].Message)
}

func TestTransformCapsErrorList(t *testing.T) {
	var sb strings.Builder
	sb.WriteString(fullHeader)
	for i := 0; i < maxRowErrors+10; i++ {
		sb.WriteString(fmt.Sprintf("Producto %d,,,,,bad,,,,,\n", i))
	}

	grid := gridFromCSV(t, sb.String())
	outcome := NewTransformer(newFakeLookup()).Transform(grid, fullMapping, "biz-1", false, nil)

	assert.Equal(t, maxRowErrors+10, outcome.Failed)
	assert.Len(t, outcome.Errors, maxRowErrors)
}

func TestParseDecimalStripsFormatting(t *testing.T) {
	tests := []struct {
		raw      string
		expected float64
		ok       bool
	}{
		{"10.50", 10.50, true},
		{"$1,234.56", 1234.56, true},
		{"  99 ", 99, true},
		{"-5", -5, true},
		{"abc", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			v, err := parseDecimal(tt.raw)
			if tt.ok {
				require.NoError(t, err)
				assert.Equal(t, tt.expected, v)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
