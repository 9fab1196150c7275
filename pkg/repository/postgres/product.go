package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"gitlab.connectwisedev.com/inventory-service/models"
)

const productColumns = "p.id, p.product_name, p.stock, p.price, p.product_type_id, p.created_at, p.updated_at"

var productSortColumns = map[string]string{
	models.SortCreatedAt:   "p.created_at",
	models.SortUpdatedAt:   "p.updated_at",
	models.SortProductName: "p.product_name",
	models.SortStock:       "p.stock",
	models.SortPrice:       "p.price",
}

func scanProduct(row rowScanner, extra ...interface{}) (models.Product, error) {
	var p models.Product
	dest := append([]interface{}{&p.ID, &p.ProductName, &p.Stock, &p.Price, &p.ProductTypeID, &p.CreatedAt, &p.UpdatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return models.Product{}, err
	}
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return p, nil
}

func (q *queries) getProduct(ctx context.Context, where squirrel.Sqlizer, suffix string) (models.Product, error) {
	sel := psql.Select(productColumns).From("products p").Where(where)
	if suffix != "" {
		sel = sel.Suffix(suffix)
	}
	p, err := scanProduct(sel.RunWith(q.db).QueryRowContext(ctx))
	if err != nil {
		return models.Product{}, mapError(err)
	}
	return p, nil
}

func (q *queries) GetProduct(ctx context.Context, id uuid.UUID) (models.Product, error) {
	return q.getProduct(ctx, idEq("p.id", id), "")
}

func (q *queries) GetProductByName(ctx context.Context, name string) (models.Product, error) {
	return q.getProduct(ctx, squirrel.Eq{"p.product_name": name}, "")
}

// LockProduct takes a row lock held until the surrounding transaction ends.
func (q *queries) LockProduct(ctx context.Context, id uuid.UUID) (models.Product, error) {
	return q.getProduct(ctx, idEq("p.id", id), "FOR UPDATE")
}

func (q *queries) ListProducts(ctx context.Context, f models.ProductFilter) ([]models.Product, int, error) {
	where := squirrel.And{}
	if f.ProductName != "" {
		where = append(where, squirrel.ILike{"p.product_name": contains(f.ProductName)})
	}
	if f.ProductTypeID != nil {
		where = append(where, idEq("p.product_type_id", *f.ProductTypeID))
	}

	var total int
	err := psql.Select("COUNT(*)").From("products p").Where(where).
		RunWith(q.db).QueryRowContext(ctx).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("counting products: %w", err)
	}

	sel := psql.Select(productColumns, "pt.name").
		From("products p").
		Join("product_types pt ON pt.id = p.product_type_id").
		Where(where).
		OrderBy(orderBy(productSortColumns, f.Sort, "p.id")...)
	rows, err := paged(sel, f.Page).RunWith(q.db).QueryContext(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("querying products: %w", err)
	}
	defer rows.Close()

	out := make([]models.Product, 0, f.Page.Size)
	for rows.Next() {
		var typeName string
		p, err := scanProduct(rows, &typeName)
		if err != nil {
			return nil, 0, fmt.Errorf("scanning product: %w", err)
		}
		p.ProductType = &models.ProductTypeRef{Name: typeName}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error during row iteration from DB: %w", err)
	}
	return out, total, nil
}

func (q *queries) ProductIDsByType(ctx context.Context, productTypeID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := psql.Select("id").
		From("products").
		Where(idEq("product_type_id", productTypeID)).
		OrderBy("created_at", "id").
		RunWith(q.db).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("querying product ids: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning product id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (q *queries) InsertProduct(ctx context.Context, p models.Product) (models.Product, error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	err := psql.Insert("products").
		SetMap(map[string]interface{}{
			"id":              p.ID,
			"product_name":    p.ProductName,
			"stock":           p.Stock,
			"price":           p.Price,
			"product_type_id": p.ProductTypeID,
		}).
		Suffix("RETURNING created_at, updated_at").
		RunWith(q.db).
		QueryRowContext(ctx).
		Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return models.Product{}, mapError(err)
	}
	p.ProductType = nil
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return p, nil
}

func (q *queries) UpdateProduct(ctx context.Context, id uuid.UUID, cs models.ProductChangeSet) (models.Product, error) {
	set := cs.ColumnMap()
	set["updated_at"] = squirrel.Expr("NOW()")
	res, err := psql.Update("products").
		SetMap(set).
		Where(idEq("id", id)).
		RunWith(q.db).
		ExecContext(ctx)
	if err != nil {
		return models.Product{}, mapError(err)
	}
	if err := expectOne(res); err != nil {
		return models.Product{}, err
	}
	return q.GetProduct(ctx, id)
}

func (q *queries) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	res, err := psql.Delete("products").
		Where(idEq("id", id)).
		RunWith(q.db).
		ExecContext(ctx)
	if err != nil {
		return mapError(err)
	}
	return expectOne(res)
}
