package handlers

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"catalog-service/internal/importer"
	"catalog-service/internal/middleware"
	"catalog-service/internal/models"
	"catalog-service/internal/session"
)

type ImportHandler struct {
	service  *importer.Service
	sessions *session.Store
	maxBytes int64
	logger   *logrus.Entry
}

func NewImportHandler(service *importer.Service, sessions *session.Store, maxBytes int64, logger *logrus.Logger) *ImportHandler {
	return &ImportHandler{
		service:  service,
		sessions: sessions,
		maxBytes: maxBytes,
		logger:   logger.WithField("component", "import_handler"),
	}
}

// GetSystemColumns returns the canonical product fields available for mapping
// GET /api/v1/products/import/columns
func (h *ImportHandler) GetSystemColumns(c *gin.Context) {
	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    importer.SystemColumns(),
	})
}

// AnalyzeFile decodes an uploaded file and suggests a column mapping
// POST /api/v1/products/import/analyze
func (h *ImportHandler) AnalyzeFile(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		respondError(c, http.StatusBadRequest, "FILE_REQUIRED", "Please upload a CSV or Excel file")
		return
	}
	defer file.Close()

	if header.Size > h.maxBytes {
		respondError(c, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE",
			fmt.Sprintf("File exceeds the %d byte upload limit", h.maxBytes))
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, h.maxBytes+1))
	if err != nil {
		respondError(c, http.StatusBadRequest, "READ_ERROR", "Failed to read uploaded file")
		return
	}
	if int64(len(data)) > h.maxBytes {
		respondError(c, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE",
			fmt.Sprintf("File exceeds the %d byte upload limit", h.maxBytes))
		return
	}

	mimeType := header.Header.Get("Content-Type")
	parsed, err := h.service.Analyze(data, header.Filename, mimeType)
	if err != nil {
		respondImportError(c, err)
		return
	}

	h.logger.WithFields(logrus.Fields{
		"file": header.Filename,
		"rows": parsed.TotalRows,
	}).Debug("File analyzed")

	sessionID, err := h.sessions.Put(c.Request.Context(), session.Upload{
		FileName: header.Filename,
		MimeType: mimeType,
		Data:     data,
	})
	if err != nil {
		respondError(c, http.StatusInternalServerError, "SESSION_ERROR", "Failed to store upload session")
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data: models.AnalyzeResponse{
			SessionID:        sessionID,
			Headers:          parsed.Headers,
			PreviewData:      parsed.PreviewData,
			TotalRows:        parsed.TotalRows,
			SuggestedMapping: parsed.SuggestedMapping,
			SystemColumns:    importer.SystemColumns(),
		},
	})
}

// ValidateImport reports duplicate findings for a stored upload
// POST /api/v1/products/import/validate
func (h *ImportHandler) ValidateImport(c *gin.Context) {
	businessID := middleware.GetBusinessID(c)

	var req models.ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "sessionId and columnMapping are required")
		return
	}

	upload, err := h.sessions.Get(c.Request.Context(), req.SessionID)
	if err != nil {
		respondError(c, http.StatusBadRequest, "SESSION_EXPIRED", "Import session expired. Please upload the file again.")
		return
	}

	result, err := h.service.Validate(upload.Data, upload.FileName, upload.MimeType, req.ColumnMapping, businessID)
	if err != nil {
		respondImportError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: result})
}

// ProcessImport runs the import with the confirmed mapping
// POST /api/v1/products/import/process
func (h *ImportHandler) ProcessImport(c *gin.Context) {
	businessID := middleware.GetBusinessID(c)

	var req models.ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "sessionId and columnMapping are required")
		return
	}

	upload, err := h.sessions.Get(c.Request.Context(), req.SessionID)
	if err != nil {
		respondError(c, http.StatusBadRequest, "SESSION_EXPIRED", "Import session expired. Please upload the file again.")
		return
	}

	result, err := h.service.Process(upload.Data, upload.FileName, upload.MimeType, req.ColumnMapping, businessID, req.SkipDuplicates)
	if err != nil {
		respondImportError(c, err)
		return
	}

	h.sessions.Delete(c.Request.Context(), req.SessionID)

	middleware.ImportRows.WithLabelValues("success").Add(float64(result.Success))
	middleware.ImportRows.WithLabelValues("failed").Add(float64(result.Failed))
	middleware.ImportRows.WithLabelValues("skipped").Add(float64(result.Skipped))

	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: result})
}

// GetImportTemplate returns the import template definition or file
// GET /api/v1/products/import/template
func (h *ImportHandler) GetImportTemplate(c *gin.Context) {
	format := c.DefaultQuery("format", "json")

	columns := importer.SystemColumns()

	switch format {
	case "csv":
		h.generateCSVTemplate(c, columns)
	case "xlsx":
		h.generateXLSXTemplate(c, columns)
	default:
		c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: columns})
	}
}

// generateCSVTemplate generates and downloads a CSV template (headers only)
func (h *ImportHandler) generateCSVTemplate(c *gin.Context, columns []models.SystemColumn) {
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename=products_import_template.csv")

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	headers := make([]string, len(columns))
	for i, col := range columns {
		headers[i] = col.Label
	}
	writer.Write(headers)
}

// generateXLSXTemplate generates and downloads an Excel template
func (h *ImportHandler) generateXLSXTemplate(c *gin.Context, columns []models.SystemColumn) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Products"
	f.SetSheetName("Sheet1", sheetName)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})

	requiredStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"C65911"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})

	for i, col := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		headerText := col.Label
		if col.Required {
			headerText = col.Label + " *"
		}
		f.SetCellValue(sheetName, cell, headerText)

		if col.Required {
			f.SetCellStyle(sheetName, cell, cell, requiredStyle)
		} else {
			f.SetCellStyle(sheetName, cell, cell, headerStyle)
		}

		colName, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetName, colName, colName, 20)
	}

	// Instructions sheet
	f.NewSheet("Instructions")
	f.SetCellValue("Instructions", "A1", "Product Import Instructions")
	f.SetCellValue("Instructions", "A3", "Columns marked with * are required.")
	f.SetCellValue("Instructions", "A4", "Category and supplier names are created automatically when they do not exist yet.")
	f.SetCellValue("Instructions", "A5", "Leave SKU empty to have one generated for the row.")

	f.SetCellValue("Instructions", "A7", "Column")
	f.SetCellValue("Instructions", "B7", "Required")
	for i, col := range columns {
		row := i + 8
		f.SetCellValue("Instructions", fmt.Sprintf("A%d", row), col.Label)
		required := "Optional"
		if col.Required {
			required = "Required"
		}
		f.SetCellValue("Instructions", fmt.Sprintf("B%d", row), required)
	}
	f.SetColWidth("Instructions", "A", "A", 30)
	f.SetColWidth("Instructions", "B", "B", 15)

	sheetIdx, _ := f.GetSheetIndex(sheetName)
	f.SetActiveSheet(sheetIdx)

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=products_import_template.xlsx")

	f.Write(c.Writer)
}

// respondImportError maps pipeline errors to transport error codes.
func respondImportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, importer.ErrUnsupportedFormat):
		respondError(c, http.StatusBadRequest, "UNSUPPORTED_FORMAT", "Only CSV and Excel files are supported")
	case errors.Is(err, importer.ErrMalformedInput):
		respondError(c, http.StatusBadRequest, "PARSE_ERROR", "The file could not be read. Check that the format is correct.")
	case errors.Is(err, importer.ErrEmptyFile):
		respondError(c, http.StatusBadRequest, "EMPTY_FILE", "The file needs a header row and at least one data row")
	case errors.Is(err, importer.ErrNoHeaders):
		respondError(c, http.StatusBadRequest, "NO_HEADERS", "No valid headers were found in the file")
	case errors.Is(err, importer.ErrIncompleteMapping):
		respondError(c, http.StatusBadRequest, "INCOMPLETE_MAPPING", err.Error())
	default:
		respondError(c, http.StatusInternalServerError, "IMPORT_ERROR", "Import failed unexpectedly")
	}
}

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, models.ErrorResponse{
		Success: false,
		Error: models.Error{
			Code:    code,
			Message: message,
		},
	})
}
