package models

import (
	"time"

	"github.com/google/uuid"
)

//go:generate go run gitlab.connectwisedev.com/inventory-service/tools/generator ProductType
//go:generate go run gitlab.connectwisedev.com/inventory-service/tools/generator Product

// ProductType is a category products are grouped under.
type ProductType struct {
	ID        uuid.UUID `json:"id" col:"id,key"`
	Name      string    `json:"name" col:"name"`
	CreatedAt time.Time `json:"createdAt" col:"created_at,auto"`
	UpdatedAt time.Time `json:"updatedAt" col:"updated_at,auto"`
}

// Product represents a product in the database and cache
type Product struct {
	ID            uuid.UUID `json:"id" col:"id,key"`
	ProductName   string    `json:"productName" col:"product_name"`
	Stock         int       `json:"stock" col:"stock"`
	Price         int       `json:"price" col:"price"`
	ProductTypeID uuid.UUID `json:"productTypeId" col:"product_type_id"`
	CreatedAt     time.Time `json:"createdAt" col:"created_at,auto"`
	UpdatedAt     time.Time `json:"updatedAt" col:"updated_at,auto"`

	// Populated by list queries only.
	ProductType *ProductTypeRef `json:"productType,omitempty"`
}

// ProductTypeRef is the slice of a product type embedded in product and transaction listings.
type ProductTypeRef struct {
	Name string `json:"name"`
}

// ProductCSV represents a product as read from a CSV import file
type ProductCSV struct {
	Line          int
	ProductName   string
	Stock         int
	Price         int
	ProductTypeID uuid.UUID
}
