package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"catalog-service/internal/middleware"
	"catalog-service/internal/models"
	"catalog-service/internal/repository"
)

// ProductsHandler serves the thin CRUD endpoints surrounding the import
// pipeline.
type ProductsHandler struct {
	repo            *repository.CatalogRepository
	defaultPageSize int
	maxPageSize     int
}

func NewProductsHandler(repo *repository.CatalogRepository, defaultPageSize, maxPageSize int) *ProductsHandler {
	return &ProductsHandler{
		repo:            repo,
		defaultPageSize: defaultPageSize,
		maxPageSize:     maxPageSize,
	}
}

// HealthCheck returns service health
// GET /health
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "catalog-service"})
}

// GetProducts lists products with pagination and optional name search
// GET /api/v1/products
func (h *ProductsHandler) GetProducts(c *gin.Context) {
	businessID := middleware.GetBusinessID(c)

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(h.defaultPageSize)))
	if limit < 1 {
		limit = h.defaultPageSize
	}
	if limit > h.maxPageSize {
		limit = h.maxPageSize
	}
	search := c.Query("search")

	products, total, err := h.repo.GetProducts(businessID, page, limit, search)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to list products")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    products,
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

// GetProduct returns one product
// GET /api/v1/products/:id
func (h *ProductsHandler) GetProduct(c *gin.Context) {
	businessID := middleware.GetBusinessID(c)

	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid product ID")
		return
	}

	product, err := h.repo.GetProductByID(businessID, productID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondError(c, http.StatusNotFound, "NOT_FOUND", "Product not found")
		return
	}
	if err != nil {
		respondError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load product")
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: product})
}

// CreateProductRequest is the body for product creation
type CreateProductRequest struct {
	Name        string   `json:"name" binding:"required"`
	SKU         string   `json:"sku"`
	BarCode     *string  `json:"barCode"`
	Description *string  `json:"description"`
	CostPrice   *float64 `json:"costPrice"`
	SalePrice   float64  `json:"salePrice" binding:"required,gte=0"`
	Stock       int      `json:"stock"`
	MinStock    *int     `json:"minStock"`
	Notes       *string  `json:"notes"`
	CategoryID  *string  `json:"categoryId"`
	SupplierID  *string  `json:"supplierId"`
}

// CreateProduct creates a single product
// POST /api/v1/products
func (h *ProductsHandler) CreateProduct(c *gin.Context) {
	businessID := middleware.GetBusinessID(c)

	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	categoryID, err := parseOptionalUUID(req.CategoryID)
	if err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid category ID")
		return
	}
	supplierID, err := parseOptionalUUID(req.SupplierID)
	if err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid supplier ID")
		return
	}

	state := models.ProductStateActive
	if req.Stock <= 0 {
		state = models.ProductStateOutOfStock
	}

	product := models.Product{
		BusinessID:  businessID,
		Name:        req.Name,
		SKU:         req.SKU,
		BarCode:     req.BarCode,
		Description: req.Description,
		CostPrice:   req.CostPrice,
		SalePrice:   req.SalePrice,
		Stock:       req.Stock,
		MinStock:    req.MinStock,
		Notes:       req.Notes,
		State:       state,
		CategoryID:  categoryID,
		SupplierID:  supplierID,
	}

	if err := h.repo.InsertProduct(&product); err != nil {
		if h.repo.IsDuplicateErr(err) {
			respondError(c, http.StatusConflict, "DUPLICATE_SKU", "A product with this SKU already exists")
			return
		}
		respondError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to create product")
		return
	}

	c.JSON(http.StatusCreated, models.SuccessResponse{Success: true, Data: product})
}

// UpdateProduct applies a partial update
// PUT /api/v1/products/:id
func (h *ProductsHandler) UpdateProduct(c *gin.Context) {
	businessID := middleware.GetBusinessID(c)

	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid product ID")
		return
	}

	var updates models.Product
	if err := c.ShouldBindJSON(&updates); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	if err := h.repo.UpdateProduct(businessID, productID, &updates); err != nil {
		respondError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to update product")
		return
	}

	product, err := h.repo.GetProductByID(businessID, productID)
	if err != nil {
		respondError(c, http.StatusNotFound, "NOT_FOUND", "Product not found")
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: product})
}

// DeleteProduct soft deletes a product
// DELETE /api/v1/products/:id
func (h *ProductsHandler) DeleteProduct(c *gin.Context) {
	businessID := middleware.GetBusinessID(c)

	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid product ID")
		return
	}

	if err := h.repo.DeleteProduct(businessID, productID); err != nil {
		respondError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to delete product")
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{Success: true})
}

// GetCategories lists categories
// GET /api/v1/categories
func (h *ProductsHandler) GetCategories(c *gin.Context) {
	businessID := middleware.GetBusinessID(c)

	categories, err := h.repo.GetCategories(businessID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to list categories")
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: categories})
}

// CreateCategory creates a category
// POST /api/v1/categories
func (h *ProductsHandler) CreateCategory(c *gin.Context) {
	businessID := middleware.GetBusinessID(c)

	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Category name is required")
		return
	}

	id, err := h.repo.CreateCategory(businessID, req.Name)
	if err != nil {
		if h.repo.IsDuplicateErr(err) {
			respondError(c, http.StatusConflict, "DUPLICATE_NAME", "A category with this name already exists")
			return
		}
		respondError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to create category")
		return
	}

	c.JSON(http.StatusCreated, models.SuccessResponse{Success: true, Data: gin.H{"id": id}})
}

// GetSuppliers lists suppliers
// GET /api/v1/suppliers
func (h *ProductsHandler) GetSuppliers(c *gin.Context) {
	businessID := middleware.GetBusinessID(c)

	suppliers, err := h.repo.GetSuppliers(businessID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to list suppliers")
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: suppliers})
}

// CreateSupplier creates a supplier
// POST /api/v1/suppliers
func (h *ProductsHandler) CreateSupplier(c *gin.Context) {
	businessID := middleware.GetBusinessID(c)

	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Supplier name is required")
		return
	}

	id, err := h.repo.CreateSupplier(businessID, req.Name)
	if err != nil {
		if h.repo.IsDuplicateErr(err) {
			respondError(c, http.StatusConflict, "DUPLICATE_NAME", "A supplier with this name already exists")
			return
		}
		respondError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to create supplier")
		return
	}

	c.JSON(http.StatusCreated, models.SuccessResponse{Success: true, Data: gin.H{"id": id}})
}

func parseOptionalUUID(value *string) (*uuid.UUID, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*value)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
