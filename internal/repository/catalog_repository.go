package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"catalog-service/internal/models"
)

// Cache TTL constants
const (
	nameListCacheTTL = 2 * time.Minute
)

// CatalogRepository owns catalog reads and writes for products, categories
// and suppliers. Redis is optional; every cache path is nil-safe.
type CatalogRepository struct {
	db    *gorm.DB
	redis *redis.Client
}

func NewCatalogRepository(db *gorm.DB, redisClient *redis.Client) *CatalogRepository {
	return &CatalogRepository{db: db, redis: redisClient}
}

func namesCacheKey(businessID string) string {
	return fmt.Sprintf("catalog:names:%s", businessID)
}

func (r *CatalogRepository) invalidateNameCache(businessID string) {
	if r.redis == nil {
		return
	}
	r.redis.Del(context.Background(), namesCacheKey(businessID))
}

// ActiveProductNames returns the names of all non-inactive products in the
// business, cached briefly since imports hit it for every validate call.
func (r *CatalogRepository) ActiveProductNames(businessID string) ([]string, error) {
	ctx := context.Background()
	cacheKey := namesCacheKey(businessID)

	if r.redis != nil {
		if val, err := r.redis.Get(ctx, cacheKey).Result(); err == nil {
			var names []string
			if err := json.Unmarshal([]byte(val), &names); err == nil {
				return names, nil
			}
		}
	}

	var names []string
	err := r.db.Model(&models.Product{}).
		Where("business_id = ? AND state <> ?", businessID, models.ProductStateInactive).
		Pluck("name", &names).Error
	if err != nil {
		return nil, err
	}

	if r.redis != nil {
		if data, err := json.Marshal(names); err == nil {
			r.redis.Set(ctx, cacheKey, data, nameListCacheTTL)
		}
	}

	return names, nil
}

// CategoryIDByName looks a category up by case-insensitive name. Returns nil
// without error when absent.
func (r *CatalogRepository) CategoryIDByName(businessID, name string) (*uuid.UUID, error) {
	var category models.Category
	err := r.db.Where("business_id = ? AND LOWER(name) = LOWER(?)", businessID, name).
		First(&category).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &category.ID, nil
}

// CreateCategory creates a category and returns its ID.
func (r *CatalogRepository) CreateCategory(businessID, name string) (uuid.UUID, error) {
	category := models.Category{
		ID:         uuid.New(),
		BusinessID: businessID,
		Name:       name,
	}
	if err := r.db.Create(&category).Error; err != nil {
		return uuid.Nil, err
	}
	return category.ID, nil
}

// SupplierIDByName looks a supplier up by case-insensitive name. Returns nil
// without error when absent.
func (r *CatalogRepository) SupplierIDByName(businessID, name string) (*uuid.UUID, error) {
	var supplier models.Supplier
	err := r.db.Where("business_id = ? AND LOWER(name) = LOWER(?)", businessID, name).
		First(&supplier).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &supplier.ID, nil
}

// CreateSupplier creates a supplier and returns its ID.
func (r *CatalogRepository) CreateSupplier(businessID, name string) (uuid.UUID, error) {
	supplier := models.Supplier{
		ID:         uuid.New(),
		BusinessID: businessID,
		Name:       name,
	}
	if err := r.db.Create(&supplier).Error; err != nil {
		return uuid.Nil, err
	}
	return supplier.ID, nil
}

// BulkInsertProducts inserts all records in a single statement and returns
// the number of rows actually written. With skipDuplicates the insert runs
// with ON CONFLICT DO NOTHING so existing rows are silently ignored.
func (r *CatalogRepository) BulkInsertProducts(records []models.Product, skipDuplicates bool) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	now := time.Now()
	for i := range records {
		if records[i].ID == uuid.Nil {
			records[i].ID = uuid.New()
		}
		records[i].CreatedAt = now
		records[i].UpdatedAt = now
	}

	tx := r.db
	if skipDuplicates {
		tx = tx.Clauses(clause.OnConflict{DoNothing: true})
	}

	result := tx.Create(&records)
	if result.Error != nil {
		return 0, result.Error
	}

	if len(records) > 0 {
		r.invalidateNameCache(records[0].BusinessID)
	}
	return int(result.RowsAffected), nil
}

// InsertProduct inserts a single record.
func (r *CatalogRepository) InsertProduct(record *models.Product) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	record.CreatedAt = time.Now()
	record.UpdatedAt = time.Now()

	err := r.db.Create(record).Error
	if err == nil {
		r.invalidateNameCache(record.BusinessID)
	}
	return err
}

// IsDuplicateErr reports whether an insert failed on a unique constraint.
func (r *CatalogRepository) IsDuplicateErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "duplicate key")
}

// Product CRUD for the surrounding thin endpoints

// GetProducts retrieves products with pagination and optional name search.
func (r *CatalogRepository) GetProducts(businessID string, page, limit int, search string) ([]models.Product, int64, error) {
	var products []models.Product
	var total int64

	query := r.db.Model(&models.Product{}).Where("business_id = ?", businessID)
	if search != "" {
		query = query.Where("name ILIKE ?", "%"+search+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&products).Error; err != nil {
		return nil, 0, err
	}

	return products, total, nil
}

// GetProductByID retrieves a product by ID.
func (r *CatalogRepository) GetProductByID(businessID string, productID uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.Where("business_id = ? AND id = ?", businessID, productID).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// UpdateProduct applies non-zero fields of updates to a product.
func (r *CatalogRepository) UpdateProduct(businessID string, productID uuid.UUID, updates *models.Product) error {
	updates.UpdatedAt = time.Now()
	err := r.db.Model(&models.Product{}).
		Where("business_id = ? AND id = ?", businessID, productID).
		Updates(updates).Error
	if err == nil {
		r.invalidateNameCache(businessID)
	}
	return err
}

// DeleteProduct soft deletes a product.
func (r *CatalogRepository) DeleteProduct(businessID string, productID uuid.UUID) error {
	err := r.db.Where("business_id = ? AND id = ?", businessID, productID).
		Delete(&models.Product{}).Error
	if err == nil {
		r.invalidateNameCache(businessID)
	}
	return err
}

// GetCategories lists the business's categories.
func (r *CatalogRepository) GetCategories(businessID string) ([]models.Category, error) {
	var categories []models.Category
	err := r.db.Where("business_id = ?", businessID).Order("name ASC").Find(&categories).Error
	return categories, err
}

// GetSuppliers lists the business's suppliers.
func (r *CatalogRepository) GetSuppliers(businessID string) ([]models.Supplier, error) {
	var suppliers []models.Supplier
	err := r.db.Where("business_id = ?", businessID).Order("name ASC").Find(&suppliers).Error
	return suppliers, err
}
