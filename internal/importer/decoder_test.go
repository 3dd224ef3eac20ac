package importer

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestDecodeCSV(t *testing.T) {
	data := []byte("Nombre,Precio Venta,Stock\nCoca Cola,10.50,5\nLeche,3,\n")

	grid, err := Decode(data, "products.csv", "text/csv")
	require.NoError(t, err)

	assert.Equal(t, []string{"Nombre", "Precio Venta", "Stock"}, grid.Headers())
	require.Len(t, grid.Rows(), 2)
	assert.Equal(t, "Coca Cola", grid.Value(grid.Rows()[0], "Nombre"))
	assert.Equal(t, "10.50", grid.Value(grid.Rows()[0], "Precio Venta"))
	assert.Equal(t, "", grid.Value(grid.Rows()[1], "Stock"))
}

func TestDecodeSniffsDelimiter(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"semicolon", "Nombre;Precio\nCoca Cola;10\n"},
		{"tab", "Nombre\tPrecio\nCoca Cola\t10\n"},
		{"pipe", "Nombre|Precio\nCoca Cola|10\n"},
		{"comma", "Nombre,Precio\nCoca Cola,10\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			grid, err := Decode([]byte(tt.data), "products.csv", "text/csv")
			require.NoError(t, err)
			assert.Equal(t, []string{"Nombre", "Precio"}, grid.Headers())
			require.Len(t, grid.Rows(), 1)
			assert.Equal(t, "Coca Cola", grid.Value(grid.Rows()[0], "Nombre"))
		})
	}
}

func TestDecodeRaggedRows(t *testing.T) {
	// Short rows read missing cells as "", long rows keep extras invisible
	data := []byte("Nombre,Precio,Stock\nCoca Cola,10\nLeche,3,7,extra\n")

	grid, err := Decode(data, "products.csv", "text/csv")
	require.NoError(t, err)

	require.Len(t, grid.Rows(), 2)
	assert.Equal(t, "", grid.Value(grid.Rows()[0], "Stock"))
	assert.Equal(t, "7", grid.Value(grid.Rows()[1], "Stock"))
}

func TestDecodeDropsBlankRows(t *testing.T) {
	data := []byte("Nombre,Precio\n\nCoca Cola,10\n , \nLeche,3\n")

	grid, err := Decode(data, "products.csv", "text/csv")
	require.NoError(t, err)
	assert.Len(t, grid.Rows(), 2)
}

func TestDecodeXLSX(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "Nombre"))
	require.NoError(t, f.SetCellValue("Sheet1", "B1", "Precio Venta"))
	require.NoError(t, f.SetCellValue("Sheet1", "A2", "Coca Cola"))
	require.NoError(t, f.SetCellValue("Sheet1", "B2", 10.5))

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	require.NoError(t, f.Close())

	grid, err := Decode(buf.Bytes(), "products.xlsx",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	require.NoError(t, err)

	assert.Equal(t, []string{"Nombre", "Precio Venta"}, grid.Headers())
	require.Len(t, grid.Rows(), 1)
	assert.Equal(t, "Coca Cola", grid.Value(grid.Rows()[0], "Nombre"))
	assert.Equal(t, "10.5", grid.Value(grid.Rows()[0], "Precio Venta"))
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		filename string
		mimeType string
		expected error
	}{
		{
			name:     "unsupported extension",
			data:     []byte("anything"),
			filename: "products.pdf",
			mimeType: "application/pdf",
			expected: ErrUnsupportedFormat,
		},
		{
			name:     "header only",
			data:     []byte("Nombre,Precio\n"),
			filename: "products.csv",
			mimeType: "text/csv",
			expected: ErrEmptyFile,
		},
		{
			name:     "empty file",
			data:     []byte(""),
			filename: "products.csv",
			mimeType: "text/csv",
			expected: ErrEmptyFile,
		},
		{
			name:     "blank header row",
			data:     []byte(" , , \nCoca Cola,10,5\n"),
			filename: "products.csv",
			mimeType: "text/csv",
			expected: ErrNoHeaders,
		},
		{
			name:     "delimiter-only header row",
			data:     []byte(",,\nA,1\nB,2\n"),
			filename: "products.csv",
			mimeType: "text/csv",
			expected: ErrNoHeaders,
		},
		{
			name:     "headers with only blank data rows",
			data:     []byte("Nombre,Precio\n , \n\n"),
			filename: "products.csv",
			mimeType: "text/csv",
			expected: ErrEmptyFile,
		},
		{
			name:     "xls payload that is not a workbook",
			data:     []byte("not a spreadsheet at all"),
			filename: "products.xls",
			mimeType: "application/vnd.ms-excel",
			expected: ErrMalformedInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.data, tt.filename, tt.mimeType)
			assert.ErrorIs(t, err, tt.expected)
		})
	}
}

func TestDecodeRoutesByMimeTypeWithoutExtension(t *testing.T) {
	data := []byte("Nombre,Precio\nCoca Cola,10\n")

	grid, err := Decode(data, "upload", "text/csv")
	require.NoError(t, err)
	assert.Len(t, grid.Rows(), 1)
}

func TestGridValueUnknownHeader(t *testing.T) {
	grid, err := Decode([]byte("Nombre,Precio\nCoca Cola,10\n"), "p.csv", "text/csv")
	require.NoError(t, err)
	assert.Equal(t, "", grid.Value(grid.Rows()[0], "NoSuchHeader"))
}

func TestGridPreview(t *testing.T) {
	data := []byte("Nombre,Precio\nA,1\nB,2\nC,3\n")

	grid, err := Decode(data, "p.csv", "text/csv")
	require.NoError(t, err)

	preview := grid.Preview(2)
	require.Len(t, preview, 2)
	assert.Equal(t, map[string]string{"Nombre": "A", "Precio": "1"}, preview[0])

	// n larger than the row count returns every row
	assert.Len(t, grid.Preview(10), 3)
}

func TestToUTF8PassthroughForUTF8(t *testing.T) {
	data := []byte("Nombre,Precio\nCafé con Leche,10\n")

	out, err := toUTF8(data)
	require.NoError(t, err)
	assert.Equal(t, data, out)
}

func TestSniffDelimiterPrefersMostFrequent(t *testing.T) {
	// Semicolons outnumber the single comma inside the first line
	assert.Equal(t, ';', sniffDelimiter([]byte("a;b;c,d\n1;2;3,4")))
	assert.Equal(t, ',', sniffDelimiter([]byte("justoneheader")))
}
