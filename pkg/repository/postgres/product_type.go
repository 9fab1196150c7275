package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"gitlab.connectwisedev.com/inventory-service/models"
)

const productTypeColumns = "id, name, created_at, updated_at"

var productTypeSortColumns = map[string]string{
	models.SortCreatedAt: "created_at",
	models.SortUpdatedAt: "updated_at",
	models.SortName:      "name",
}

func scanProductType(row rowScanner) (models.ProductType, error) {
	var pt models.ProductType
	if err := row.Scan(&pt.ID, &pt.Name, &pt.CreatedAt, &pt.UpdatedAt); err != nil {
		return models.ProductType{}, err
	}
	pt.CreatedAt = pt.CreatedAt.UTC()
	pt.UpdatedAt = pt.UpdatedAt.UTC()
	return pt, nil
}

func (q *queries) GetProductType(ctx context.Context, id uuid.UUID) (models.ProductType, error) {
	row := psql.Select(productTypeColumns).
		From("product_types").
		Where(idEq("id", id)).
		RunWith(q.db).
		QueryRowContext(ctx)
	pt, err := scanProductType(row)
	if err != nil {
		return models.ProductType{}, mapError(err)
	}
	return pt, nil
}

func (q *queries) ListProductTypes(ctx context.Context, f models.ProductTypeFilter) ([]models.ProductType, int, error) {
	where := squirrel.And{}
	if f.Name != "" {
		where = append(where, squirrel.ILike{"name": contains(f.Name)})
	}

	var total int
	err := psql.Select("COUNT(*)").From("product_types").Where(where).
		RunWith(q.db).QueryRowContext(ctx).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("counting product types: %w", err)
	}

	sel := psql.Select(productTypeColumns).
		From("product_types").
		Where(where).
		OrderBy(orderBy(productTypeSortColumns, f.Sort, "id")...)
	rows, err := paged(sel, f.Page).RunWith(q.db).QueryContext(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("querying product types: %w", err)
	}
	defer rows.Close()

	out := make([]models.ProductType, 0, f.Page.Size)
	for rows.Next() {
		pt, err := scanProductType(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scanning product type: %w", err)
		}
		out = append(out, pt)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error during row iteration from DB: %w", err)
	}
	return out, total, nil
}

func (q *queries) InsertProductType(ctx context.Context, pt models.ProductType) (models.ProductType, error) {
	if pt.ID == uuid.Nil {
		pt.ID = uuid.New()
	}
	err := psql.Insert("product_types").
		SetMap(map[string]interface{}{
			"id":   pt.ID,
			"name": pt.Name,
		}).
		Suffix("RETURNING created_at, updated_at").
		RunWith(q.db).
		QueryRowContext(ctx).
		Scan(&pt.CreatedAt, &pt.UpdatedAt)
	if err != nil {
		return models.ProductType{}, mapError(err)
	}
	pt.CreatedAt = pt.CreatedAt.UTC()
	pt.UpdatedAt = pt.UpdatedAt.UTC()
	return pt, nil
}

func (q *queries) UpdateProductType(ctx context.Context, id uuid.UUID, cs models.ProductTypeChangeSet) (models.ProductType, error) {
	set := cs.ColumnMap()
	set["updated_at"] = squirrel.Expr("NOW()")
	res, err := psql.Update("product_types").
		SetMap(set).
		Where(idEq("id", id)).
		RunWith(q.db).
		ExecContext(ctx)
	if err != nil {
		return models.ProductType{}, mapError(err)
	}
	if err := expectOne(res); err != nil {
		return models.ProductType{}, err
	}
	return q.GetProductType(ctx, id)
}

func (q *queries) DeleteProductType(ctx context.Context, id uuid.UUID) error {
	res, err := psql.Delete("product_types").
		Where(idEq("id", id)).
		RunWith(q.db).
		ExecContext(ctx)
	if err != nil {
		return mapError(err)
	}
	return expectOne(res)
}
