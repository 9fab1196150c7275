package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"gitlab.connectwisedev.com/inventory-service/models"
)

var transactionColumns = []string{
	"t.id", "t.buyer_name", "t.product_id", "t.amount_sold", "t.total_price",
	"t.transaction_date", "t.created_at", "t.updated_at", "p.product_name", "pt.name",
}

var transactionSortColumns = map[string]string{
	models.SortCreatedAt:       "t.created_at",
	models.SortUpdatedAt:       "t.updated_at",
	models.SortBuyerName:       "t.buyer_name",
	models.SortAmountSold:      "t.amount_sold",
	models.SortTotalPrice:      "t.total_price",
	models.SortTransactionDate: "t.transaction_date",
	models.SortProductName:     "p.product_name",
}

func transactionsFrom(b squirrel.SelectBuilder) squirrel.SelectBuilder {
	return b.From("transactions t").
		Join("products p ON p.id = t.product_id").
		Join("product_types pt ON pt.id = p.product_type_id")
}

func scanTransaction(row rowScanner) (models.Transaction, error) {
	var (
		t           models.Transaction
		productName string
		typeName    string
	)
	err := row.Scan(&t.ID, &t.BuyerName, &t.ProductID, &t.AmountSold, &t.TotalPrice,
		&t.TransactionDate, &t.CreatedAt, &t.UpdatedAt, &productName, &typeName)
	if err != nil {
		return models.Transaction{}, err
	}
	t.TransactionDate = t.TransactionDate.UTC()
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	t.Product = &models.TransactionProduct{
		ProductName: productName,
		ProductType: &models.ProductTypeRef{Name: typeName},
	}
	return t, nil
}

func (q *queries) GetTransaction(ctx context.Context, id uuid.UUID) (models.Transaction, error) {
	return q.getTransaction(ctx, id, "")
}

// LockTransaction locks only the transaction row; products are locked separately in id order.
func (q *queries) LockTransaction(ctx context.Context, id uuid.UUID) (models.Transaction, error) {
	return q.getTransaction(ctx, id, "FOR UPDATE OF t")
}

func transactionByID(id uuid.UUID, lock string) squirrel.SelectBuilder {
	sel := transactionsFrom(psql.Select(transactionColumns...)).Where(idEq("t.id", id))
	if lock != "" {
		sel = sel.Suffix(lock)
	}
	return sel
}

func (q *queries) getTransaction(ctx context.Context, id uuid.UUID, lock string) (models.Transaction, error) {
	row := transactionByID(id, lock).RunWith(q.db).QueryRowContext(ctx)
	t, err := scanTransaction(row)
	if err != nil {
		return models.Transaction{}, mapError(err)
	}
	return t, nil
}

func transactionWhere(f models.TransactionFilter) squirrel.And {
	where := squirrel.And{}
	if f.BuyerName != "" {
		where = append(where, squirrel.ILike{"t.buyer_name": contains(f.BuyerName)})
	}
	if f.ProductID != nil {
		where = append(where, idEq("t.product_id", *f.ProductID))
	}
	if f.ProductTypeID != nil {
		where = append(where, idEq("p.product_type_id", *f.ProductTypeID))
	}
	if f.StartDate != nil {
		where = append(where, squirrel.GtOrEq{"t.transaction_date": *f.StartDate})
	}
	if f.EndDate != nil {
		where = append(where, squirrel.LtOrEq{"t.transaction_date": *f.EndDate})
	}
	return where
}

func (q *queries) ListTransactions(ctx context.Context, f models.TransactionFilter) ([]models.Transaction, int, error) {
	where := transactionWhere(f)

	var total int
	err := transactionsFrom(psql.Select("COUNT(*)")).Where(where).
		RunWith(q.db).QueryRowContext(ctx).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("counting transactions: %w", err)
	}

	sel := transactionsFrom(psql.Select(transactionColumns...)).
		Where(where).
		OrderBy(orderBy(transactionSortColumns, f.Sort, "t.id")...)
	out, err := q.queryTransactions(ctx, paged(sel, f.Page))
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (q *queries) TransactionsByProductType(ctx context.Context, productTypeID uuid.UUID) ([]models.Transaction, error) {
	sel := transactionsFrom(psql.Select(transactionColumns...)).
		Where(idEq("p.product_type_id", productTypeID)).
		OrderBy("t.created_at", "t.id")
	return q.queryTransactions(ctx, sel)
}

func (q *queries) queryTransactions(ctx context.Context, sel squirrel.SelectBuilder) ([]models.Transaction, error) {
	rows, err := sel.RunWith(q.db).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("querying transactions: %w", err)
	}
	defer rows.Close()

	var out []models.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration from DB: %w", err)
	}
	return out, nil
}

// InsertTransaction re-reads the stored row so the caller gets the joined product summary.
func (q *queries) InsertTransaction(ctx context.Context, t models.Transaction) (models.Transaction, error) {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	_, err := psql.Insert("transactions").
		SetMap(map[string]interface{}{
			"id":               t.ID,
			"buyer_name":       t.BuyerName,
			"product_id":       t.ProductID,
			"amount_sold":      t.AmountSold,
			"total_price":      t.TotalPrice,
			"transaction_date": t.TransactionDate,
		}).
		RunWith(q.db).
		ExecContext(ctx)
	if err != nil {
		return models.Transaction{}, mapError(err)
	}
	return q.GetTransaction(ctx, t.ID)
}

func (q *queries) UpdateTransaction(ctx context.Context, id uuid.UUID, cs models.TransactionChangeSet) (models.Transaction, error) {
	set := cs.ColumnMap()
	set["updated_at"] = squirrel.Expr("clock_timestamp()")
	res, err := psql.Update("transactions").
		SetMap(set).
		Where(idEq("id", id)).
		RunWith(q.db).
		ExecContext(ctx)
	if err != nil {
		return models.Transaction{}, mapError(err)
	}
	if err := expectOne(res); err != nil {
		return models.Transaction{}, err
	}
	return q.GetTransaction(ctx, id)
}

func (q *queries) DeleteTransaction(ctx context.Context, id uuid.UUID) error {
	res, err := psql.Delete("transactions").
		Where(idEq("id", id)).
		RunWith(q.db).
		ExecContext(ctx)
	if err != nil {
		return mapError(err)
	}
	return expectOne(res)
}
