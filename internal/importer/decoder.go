package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/saintfish/chardet"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/transform"
)

// Fatal decode errors. All of them abort before any row processing.
var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrMalformedInput    = errors.New("file could not be parsed")
	ErrEmptyFile         = errors.New("file has no data rows")
	ErrNoHeaders         = errors.New("no valid headers found")
)

var csvDelimiters = []rune{',', ';', '\t', '|'}

// Grid is a decoded tabular file: a header row plus data rows of string
// cells. Cells missing from short rows read as the empty string.
type Grid struct {
	headers []string
	rows    [][]string
	index   map[string]int
}

// Headers returns the trimmed header row.
func (g *Grid) Headers() []string {
	return g.headers
}

// Rows returns the data rows in file order.
func (g *Grid) Rows() [][]string {
	return g.rows
}

// Value reads the trimmed cell of row under the given header, or "" when the
// header is unknown or the row is too short.
func (g *Grid) Value(row []string, header string) string {
	idx, ok := g.index[header]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// Preview returns up to n data rows keyed by header, for mapping UIs.
func (g *Grid) Preview(n int) []map[string]string {
	if n > len(g.rows) {
		n = len(g.rows)
	}
	preview := make([]map[string]string, 0, n)
	for _, row := range g.rows[:n] {
		record := make(map[string]string, len(g.headers))
		for _, header := range g.headers {
			if header == "" {
				continue
			}
			record[header] = g.Value(row, header)
		}
		preview = append(preview, record)
	}
	return preview
}

// Decode converts a raw upload into a Grid. The format is chosen from the
// filename extension and the declared MIME type; neither is trusted for
// parseability, only for routing. Ragged delimited rows never abort the
// decode.
func Decode(data []byte, filename, mimeType string) (*Grid, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")

	var rows [][]string
	var err error
	switch {
	case ext == "csv" || mimeType == "text/csv":
		rows, err = decodeDelimited(data)
	case ext == "xlsx" || ext == "xls" || ext == "xlsm" ||
		strings.Contains(mimeType, "spreadsheet") || strings.Contains(mimeType, "excel"):
		rows, err = decodeSpreadsheet(data)
	default:
		return nil, fmt.Errorf("%w: %q (%s)", ErrUnsupportedFormat, filename, mimeType)
	}
	if err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return nil, ErrEmptyFile
	}

	// Row 0 is always the header row, even when every cell is blank; it must
	// not be swallowed by the blank-row filter or a data row gets promoted in
	// its place.
	headers := make([]string, len(rows[0]))
	index := make(map[string]int, len(rows[0]))
	nonBlank := 0
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(h)
		if headers[i] == "" {
			continue
		}
		nonBlank++
		if _, seen := index[headers[i]]; !seen {
			index[headers[i]] = i
		}
	}
	if nonBlank == 0 {
		return nil, ErrNoHeaders
	}

	// Drop data rows that are entirely blank
	dataRows := rows[1:]
	filtered := dataRows[:0]
	for _, row := range dataRows {
		if !rowIsBlank(row) {
			filtered = append(filtered, row)
		}
	}
	if len(filtered) == 0 {
		return nil, ErrEmptyFile
	}

	return &Grid{headers: headers, rows: filtered, index: index}, nil
}

// decodeDelimited parses CSV-like text. Non-UTF-8 payloads are transcoded
// first; the delimiter is sniffed from the header line.
func decodeDelimited(data []byte) ([][]string, error) {
	text, err := toUTF8(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}

	reader := csv.NewReader(bytes.NewReader(text))
	reader.Comma = sniffDelimiter(text)
	reader.FieldsPerRecord = -1 // short and long rows are tolerated
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	return rows, nil
}

// decodeSpreadsheet reads the first sheet of an xlsx workbook, all cells as
// text.
func decodeSpreadsheet(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrMalformedInput)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	return rows, nil
}

// toUTF8 detects the text encoding and transcodes to UTF-8 when needed.
func toUTF8(data []byte) ([]byte, error) {
	detector := chardet.NewTextDetector()
	result, err := detector.DetectBest(data)
	if err != nil || result == nil {
		// Undetectable short inputs are assumed UTF-8
		return data, nil
	}

	charset := strings.ToLower(result.Charset)
	if charset == "utf-8" {
		return data, nil
	}
	enc, err := ianaindex.IANA.Encoding(result.Charset)
	if err != nil || enc == nil {
		return data, nil
	}
	decoded, _, err := transform.Bytes(enc.NewDecoder(), data)
	if err != nil {
		return nil, fmt.Errorf("transcoding from %s failed: %v", result.Charset, err)
	}
	return decoded, nil
}

// sniffDelimiter picks the candidate delimiter occurring most often in the
// first line.
func sniffDelimiter(data []byte) rune {
	line := data
	if idx := bytes.IndexByte(data, '\n'); idx >= 0 {
		line = data[:idx]
	}
	best := ','
	bestCount := 0
	for _, d := range csvDelimiters {
		if count := bytes.Count(line, []byte(string(d))); count > bestCount {
			best = d
			bestCount = count
		}
	}
	return best
}

func rowIsBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
