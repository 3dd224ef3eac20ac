package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductState represents the lifecycle state of a product
type ProductState string

const (
	ProductStateActive     ProductState = "ACTIVE"
	ProductStateOutOfStock ProductState = "OUT_OF_STOCK"
	ProductStateInactive   ProductState = "INACTIVE"
)

// Product represents a catalog product entity
// Performance indexes: composite indexes on business_id with frequently filtered
// columns for multi-tenant queries
type Product struct {
	ID          uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	BusinessID  string         `json:"businessId" gorm:"not null;index:idx_products_business_id;index:idx_products_business_state;index:idx_products_business_sku,unique"`
	Name        string         `json:"name" gorm:"not null;index"`
	SKU         string         `json:"sku" gorm:"not null;index:idx_products_business_sku,unique"`
	BarCode     *string        `json:"barCode,omitempty"`
	Description *string        `json:"description,omitempty"`
	CostPrice   *float64       `json:"costPrice,omitempty" gorm:"type:numeric(12,2)"`
	SalePrice   float64        `json:"salePrice" gorm:"not null;type:numeric(12,2)"`
	Stock       int            `json:"stock" gorm:"not null;default:0"`
	MinStock    *int           `json:"minStock,omitempty"`
	Notes       *string        `json:"notes,omitempty"`
	State       ProductState   `json:"state" gorm:"not null;default:'ACTIVE';index:idx_products_business_state"`
	CategoryID  *uuid.UUID     `json:"categoryId,omitempty" gorm:"type:uuid;index"`
	SupplierID  *uuid.UUID     `json:"supplierId,omitempty" gorm:"type:uuid;index"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

// Category represents a product category
type Category struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	BusinessID string    `json:"businessId" gorm:"not null;index:idx_categories_business_name,unique"`
	Name       string    `json:"name" gorm:"not null;index:idx_categories_business_name,unique"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Supplier represents a product supplier
type Supplier struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	BusinessID string    `json:"businessId" gorm:"not null;index:idx_suppliers_business_name,unique"`
	Name       string    `json:"name" gorm:"not null;index:idx_suppliers_business_name,unique"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// TableName returns the table name for the Product model
func (Product) TableName() string {
	return "products"
}

// TableName returns the table name for the Category model
func (Category) TableName() string {
	return "categories"
}

// TableName returns the table name for the Supplier model
func (Supplier) TableName() string {
	return "suppliers"
}

type ErrorResponse struct {
	Success   bool   `json:"success"`
	Error     Error  `json:"error"`
	Timestamp string `json:"timestamp,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message *string     `json:"message,omitempty"`
}
