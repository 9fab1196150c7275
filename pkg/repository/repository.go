// Package repository defines the persistence contract used by the services.
//
// Two implementations exist: repository/postgres for deployments and repository/memory for tests and
// local runs. Both report missing rows as ErrNotFound and unique-name violations as ErrDuplicate.
package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"gitlab.connectwisedev.com/inventory-service/models"
)

var (
	// ErrNotFound is returned when a row with the requested key does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique column already holds the value.
	ErrDuplicate = errors.New("record already exists")
)

// Queries is the set of reads and writes available both on the store and inside a unit of work.
type Queries interface {
	GetProductType(ctx context.Context, id uuid.UUID) (models.ProductType, error)
	ListProductTypes(ctx context.Context, f models.ProductTypeFilter) ([]models.ProductType, int, error)
	InsertProductType(ctx context.Context, pt models.ProductType) (models.ProductType, error)
	UpdateProductType(ctx context.Context, id uuid.UUID, cs models.ProductTypeChangeSet) (models.ProductType, error)
	DeleteProductType(ctx context.Context, id uuid.UUID) error

	GetProduct(ctx context.Context, id uuid.UUID) (models.Product, error)
	GetProductByName(ctx context.Context, name string) (models.Product, error)
	// LockProduct reads a product and holds it against concurrent writers until the unit of work ends.
	LockProduct(ctx context.Context, id uuid.UUID) (models.Product, error)
	ListProducts(ctx context.Context, f models.ProductFilter) ([]models.Product, int, error)
	ProductIDsByType(ctx context.Context, productTypeID uuid.UUID) ([]uuid.UUID, error)
	InsertProduct(ctx context.Context, p models.Product) (models.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, cs models.ProductChangeSet) (models.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error

	GetTransaction(ctx context.Context, id uuid.UUID) (models.Transaction, error)
	// LockTransaction reads a transaction and holds it against concurrent writers until the unit of work ends.
	LockTransaction(ctx context.Context, id uuid.UUID) (models.Transaction, error)
	ListTransactions(ctx context.Context, f models.TransactionFilter) ([]models.Transaction, int, error)
	// TransactionsByProductType returns the transactions of every product in the type, oldest first.
	TransactionsByProductType(ctx context.Context, productTypeID uuid.UUID) ([]models.Transaction, error)
	InsertTransaction(ctx context.Context, t models.Transaction) (models.Transaction, error)
	UpdateTransaction(ctx context.Context, id uuid.UUID, cs models.TransactionChangeSet) (models.Transaction, error)
	DeleteTransaction(ctx context.Context, id uuid.UUID) error
}

// Store is the persistence layer handed to the services.
type Store interface {
	Queries

	// WithinTx runs fn in one atomic unit of work. If fn returns an error every write made through q is
	// rolled back and the error is returned unchanged. fn must only use q, never the Store itself.
	WithinTx(ctx context.Context, fn func(ctx context.Context, q Queries) error) error

	Ping(ctx context.Context) error
	Close() error
}
