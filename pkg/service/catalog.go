package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"gitlab.connectwisedev.com/inventory-service/models"
	"gitlab.connectwisedev.com/inventory-service/pkg/repository"
)

// Catalog maintains product types and products.
type Catalog struct {
	store repository.Store
	cache ProductCache
	log   zerolog.Logger
}

// NewCatalog returns a Catalog. A nil cache disables caching.
func NewCatalog(store repository.Store, c ProductCache, log zerolog.Logger) *Catalog {
	return &Catalog{store: store, cache: orNoop(c), log: log.With().Str("component", "catalog").Logger()}
}

// CreateProductType adds a product type with a unique name.
func (c *Catalog) CreateProductType(ctx context.Context, name string) (models.ProductType, error) {
	if err := checkName("name", name); err != nil {
		return models.ProductType{}, err
	}
	pt, err := c.store.InsertProductType(ctx, models.ProductType{Name: name})
	if err != nil {
		return models.ProductType{}, translate(err, "", MsgProductTypeExists, "creating product type")
	}
	c.log.Info().Str("product_type_id", pt.ID.String()).Msg("product type created")
	return pt, nil
}

func (c *Catalog) GetProductType(ctx context.Context, id uuid.UUID) (models.ProductType, error) {
	pt, err := c.store.GetProductType(ctx, id)
	return pt, translate(err, MsgProductTypeNotFound, "", "getting product type")
}

func (c *Catalog) ListProductTypes(ctx context.Context, f models.ProductTypeFilter) ([]models.ProductType, int, error) {
	rows, total, err := c.store.ListProductTypes(ctx, f)
	if err != nil {
		return nil, 0, translate(err, "", "", "listing product types")
	}
	return rows, total, nil
}

// UpdateProductType applies a partial update. An empty change set returns the current record.
func (c *Catalog) UpdateProductType(ctx context.Context, id uuid.UUID, cs models.ProductTypeChangeSet) (models.ProductType, error) {
	if cs.Name != nil {
		if err := checkName("name", *cs.Name); err != nil {
			return models.ProductType{}, err
		}
	}
	if cs.IsEmpty() {
		return c.GetProductType(ctx, id)
	}
	pt, err := c.store.UpdateProductType(ctx, id, cs)
	return pt, translate(err, MsgProductTypeNotFound, MsgProductTypeExists, "updating product type")
}

// DeleteProductType removes the type together with its products and their transactions.
func (c *Catalog) DeleteProductType(ctx context.Context, id uuid.UUID) error {
	var products []uuid.UUID
	err := c.store.WithinTx(ctx, func(ctx context.Context, q repository.Queries) error {
		ids, err := q.ProductIDsByType(ctx, id)
		if err != nil {
			return err
		}
		products = ids
		return q.DeleteProductType(ctx, id)
	})
	if err != nil {
		return translate(err, MsgProductTypeNotFound, "", "deleting product type")
	}
	c.cache.DeleteProducts(ctx, products...)
	c.log.Info().Str("product_type_id", id.String()).Int("products", len(products)).Msg("product type deleted")
	return nil
}

func validateProduct(p models.Product) error {
	return firstErr(
		checkName("productName", p.ProductName),
		checkNonNegative("stock", p.Stock),
		checkNonNegative("price", p.Price),
		checkID("productTypeId", p.ProductTypeID),
	)
}

func validateProductChanges(cs models.ProductChangeSet) error {
	var errs []error
	if cs.ProductName != nil {
		errs = append(errs, checkName("productName", *cs.ProductName))
	}
	if cs.Stock != nil {
		errs = append(errs, checkNonNegative("stock", *cs.Stock))
	}
	if cs.Price != nil {
		errs = append(errs, checkNonNegative("price", *cs.Price))
	}
	if cs.ProductTypeID != nil {
		errs = append(errs, checkID("productTypeId", *cs.ProductTypeID))
	}
	return firstErr(errs...)
}

// CreateProduct adds a product under an existing product type.
func (c *Catalog) CreateProduct(ctx context.Context, p models.Product) (models.Product, error) {
	if err := validateProduct(p); err != nil {
		return models.Product{}, err
	}
	var created models.Product
	err := c.store.WithinTx(ctx, func(ctx context.Context, q repository.Queries) error {
		if _, err := q.GetProductType(ctx, p.ProductTypeID); err != nil {
			return translate(err, MsgProductTypeNotFound, "", "getting product type")
		}
		var err error
		created, err = q.InsertProduct(ctx, p)
		return translate(err, MsgProductTypeNotFound, MsgProductExists, "inserting product")
	})
	if err != nil {
		return models.Product{}, err
	}
	c.log.Info().Str("product_id", created.ID.String()).Msg("product created")
	return created, nil
}

// GetProduct reads through the product cache.
func (c *Catalog) GetProduct(ctx context.Context, id uuid.UUID) (models.Product, error) {
	p, version, ok := c.cache.GetProduct(ctx, id)
	if ok {
		return p, nil
	}
	p, err := c.store.GetProduct(ctx, id)
	if err != nil {
		return models.Product{}, translate(err, MsgProductNotFound, "", "getting product")
	}
	c.cache.SetProduct(ctx, p, version)
	return p, nil
}

func (c *Catalog) ListProducts(ctx context.Context, f models.ProductFilter) ([]models.Product, int, error) {
	rows, total, err := c.store.ListProducts(ctx, f)
	if err != nil {
		return nil, 0, translate(err, "", "", "listing products")
	}
	return rows, total, nil
}

// UpdateProduct applies a partial update. A new productTypeId must exist.
func (c *Catalog) UpdateProduct(ctx context.Context, id uuid.UUID, cs models.ProductChangeSet) (models.Product, error) {
	if err := validateProductChanges(cs); err != nil {
		return models.Product{}, err
	}
	var updated models.Product
	err := c.store.WithinTx(ctx, func(ctx context.Context, q repository.Queries) error {
		current, err := q.LockProduct(ctx, id)
		if err != nil {
			return translate(err, MsgProductNotFound, "", "getting product")
		}
		if cs.IsEmpty() {
			updated = current
			return nil
		}
		if cs.ProductTypeID != nil {
			if _, err := q.GetProductType(ctx, *cs.ProductTypeID); err != nil {
				return translate(err, MsgProductTypeNotFound, "", "getting product type")
			}
		}
		updated, err = q.UpdateProduct(ctx, id, cs)
		return translate(err, MsgProductNotFound, MsgProductExists, "updating product")
	})
	if err != nil {
		return models.Product{}, err
	}
	c.cache.DeleteProducts(ctx, id)
	return updated, nil
}

// DeleteProduct removes the product and its transactions.
func (c *Catalog) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if err := c.store.DeleteProduct(ctx, id); err != nil {
		return translate(err, MsgProductNotFound, "", "deleting product")
	}
	c.cache.DeleteProducts(ctx, id)
	c.log.Info().Str("product_id", id.String()).Msg("product deleted")
	return nil
}

// UpsertProductByName inserts p, or overwrites stock, price and type of the product with the same name.
func (c *Catalog) UpsertProductByName(ctx context.Context, p models.Product) (models.Product, bool, error) {
	if err := validateProduct(p); err != nil {
		return models.Product{}, false, err
	}
	var (
		out     models.Product
		created bool
	)
	err := c.store.WithinTx(ctx, func(ctx context.Context, q repository.Queries) error {
		if _, err := q.GetProductType(ctx, p.ProductTypeID); err != nil {
			return translate(err, MsgProductTypeNotFound, "", "getting product type")
		}
		existing, err := q.GetProductByName(ctx, p.ProductName)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			created = true
			out, err = q.InsertProduct(ctx, p)
			return translate(err, MsgProductTypeNotFound, MsgProductExists, "inserting product")
		case err != nil:
			return translate(err, "", "", "getting product by name")
		}
		out, err = q.UpdateProduct(ctx, existing.ID, models.ProductChangeSet{
			Stock:         &p.Stock,
			Price:         &p.Price,
			ProductTypeID: &p.ProductTypeID,
		})
		return translate(err, MsgProductNotFound, "", "updating product")
	})
	if err != nil {
		return models.Product{}, false, err
	}
	if !created {
		c.cache.DeleteProducts(ctx, out.ID)
	}
	return out, created, nil
}

// Ready reports whether storage is reachable.
func (c *Catalog) Ready(ctx context.Context) error {
	if err := c.store.Ping(ctx); err != nil {
		return fmt.Errorf("pinging storage: %w", err)
	}
	return nil
}
