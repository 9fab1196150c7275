package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"gitlab.connectwisedev.com/inventory-service/models"
	"gitlab.connectwisedev.com/inventory-service/pkg/repository"
)

// queries operates on one state without locking; the owner holds the lock.
type queries struct {
	st  *state
	now func() time.Time
}

func (q *queries) GetProductType(_ context.Context, id uuid.UUID) (models.ProductType, error) {
	pt, ok := q.st.types[id]
	if !ok {
		return models.ProductType{}, repository.ErrNotFound
	}
	return pt, nil
}

func (q *queries) ListProductTypes(_ context.Context, f models.ProductTypeFilter) ([]models.ProductType, int, error) {
	rows := make([]models.ProductType, 0, len(q.st.types))
	for _, pt := range q.st.types {
		if f.Name != "" && !containsFold(pt.Name, f.Name) {
			continue
		}
		rows = append(rows, pt)
	}
	sortBy(q, rows, f.Sort, func(pt models.ProductType) uuid.UUID { return pt.ID }, func(a, b models.ProductType) int {
		switch f.Sort.Field {
		case models.SortUpdatedAt:
			return a.UpdatedAt.Compare(b.UpdatedAt)
		case models.SortName:
			return strings.Compare(a.Name, b.Name)
		default:
			return a.CreatedAt.Compare(b.CreatedAt)
		}
	})
	return paginate(rows, f.Page), len(rows), nil
}

func (q *queries) InsertProductType(_ context.Context, pt models.ProductType) (models.ProductType, error) {
	if q.typeNameTaken(pt.Name, uuid.Nil) {
		return models.ProductType{}, repository.ErrDuplicate
	}
	if pt.ID == uuid.Nil {
		pt.ID = uuid.New()
	}
	pt.CreatedAt = q.now()
	pt.UpdatedAt = pt.CreatedAt
	q.st.types[pt.ID] = pt
	q.st.track(pt.ID)
	return pt, nil
}

func (q *queries) UpdateProductType(_ context.Context, id uuid.UUID, cs models.ProductTypeChangeSet) (models.ProductType, error) {
	pt, ok := q.st.types[id]
	if !ok {
		return models.ProductType{}, repository.ErrNotFound
	}
	if cs.Name != nil && q.typeNameTaken(*cs.Name, id) {
		return models.ProductType{}, repository.ErrDuplicate
	}
	cs.Apply(&pt)
	pt.UpdatedAt = q.now()
	q.st.types[id] = pt
	return pt, nil
}

func (q *queries) DeleteProductType(ctx context.Context, id uuid.UUID) error {
	if _, ok := q.st.types[id]; !ok {
		return repository.ErrNotFound
	}
	for pid, p := range q.st.products {
		if p.ProductTypeID == id {
			if err := q.DeleteProduct(ctx, pid); err != nil {
				return err
			}
		}
	}
	delete(q.st.types, id)
	delete(q.st.seq, id)
	return nil
}

func (q *queries) GetProduct(_ context.Context, id uuid.UUID) (models.Product, error) {
	p, ok := q.st.products[id]
	if !ok {
		return models.Product{}, repository.ErrNotFound
	}
	return p, nil
}

func (q *queries) GetProductByName(_ context.Context, name string) (models.Product, error) {
	for _, p := range q.st.products {
		if p.ProductName == name {
			return p, nil
		}
	}
	return models.Product{}, repository.ErrNotFound
}

// LockProduct is a plain read: units of work are already serialised.
func (q *queries) LockProduct(ctx context.Context, id uuid.UUID) (models.Product, error) {
	return q.GetProduct(ctx, id)
}

func (q *queries) ListProducts(_ context.Context, f models.ProductFilter) ([]models.Product, int, error) {
	rows := make([]models.Product, 0, len(q.st.products))
	for _, p := range q.st.products {
		if f.ProductName != "" && !containsFold(p.ProductName, f.ProductName) {
			continue
		}
		if f.ProductTypeID != nil && p.ProductTypeID != *f.ProductTypeID {
			continue
		}
		if pt, ok := q.st.types[p.ProductTypeID]; ok {
			p.ProductType = &models.ProductTypeRef{Name: pt.Name}
		}
		rows = append(rows, p)
	}
	sortBy(q, rows, f.Sort, func(p models.Product) uuid.UUID { return p.ID }, func(a, b models.Product) int {
		switch f.Sort.Field {
		case models.SortUpdatedAt:
			return a.UpdatedAt.Compare(b.UpdatedAt)
		case models.SortProductName:
			return strings.Compare(a.ProductName, b.ProductName)
		case models.SortStock:
			return cmp.Compare(a.Stock, b.Stock)
		case models.SortPrice:
			return cmp.Compare(a.Price, b.Price)
		default:
			return a.CreatedAt.Compare(b.CreatedAt)
		}
	})
	return paginate(rows, f.Page), len(rows), nil
}

func (q *queries) ProductIDsByType(_ context.Context, productTypeID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for id, p := range q.st.products {
		if p.ProductTypeID == productTypeID {
			ids = append(ids, id)
		}
	}
	slices.SortFunc(ids, func(a, b uuid.UUID) int { return cmp.Compare(q.st.seq[a], q.st.seq[b]) })
	return ids, nil
}

func (q *queries) InsertProduct(_ context.Context, p models.Product) (models.Product, error) {
	if _, ok := q.st.types[p.ProductTypeID]; !ok {
		return models.Product{}, repository.ErrNotFound
	}
	if q.productNameTaken(p.ProductName, uuid.Nil) {
		return models.Product{}, repository.ErrDuplicate
	}
	if err := checkStock(p); err != nil {
		return models.Product{}, err
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.ProductType = nil
	p.CreatedAt = q.now()
	p.UpdatedAt = p.CreatedAt
	q.st.products[p.ID] = p
	q.st.track(p.ID)
	return p, nil
}

func (q *queries) UpdateProduct(_ context.Context, id uuid.UUID, cs models.ProductChangeSet) (models.Product, error) {
	p, ok := q.st.products[id]
	if !ok {
		return models.Product{}, repository.ErrNotFound
	}
	if cs.ProductName != nil && q.productNameTaken(*cs.ProductName, id) {
		return models.Product{}, repository.ErrDuplicate
	}
	if cs.ProductTypeID != nil {
		if _, ok := q.st.types[*cs.ProductTypeID]; !ok {
			return models.Product{}, repository.ErrNotFound
		}
	}
	cs.Apply(&p)
	if err := checkStock(p); err != nil {
		return models.Product{}, err
	}
	p.UpdatedAt = q.now()
	q.st.products[id] = p
	return p, nil
}

func (q *queries) DeleteProduct(_ context.Context, id uuid.UUID) error {
	if _, ok := q.st.products[id]; !ok {
		return repository.ErrNotFound
	}
	for tid, t := range q.st.txns {
		if t.ProductID == id {
			delete(q.st.txns, tid)
			delete(q.st.seq, tid)
		}
	}
	delete(q.st.products, id)
	delete(q.st.seq, id)
	return nil
}

func (q *queries) GetTransaction(_ context.Context, id uuid.UUID) (models.Transaction, error) {
	t, ok := q.st.txns[id]
	if !ok {
		return models.Transaction{}, repository.ErrNotFound
	}
	return q.withProduct(t), nil
}

// LockTransaction is a plain read: units of work are already serialised.
func (q *queries) LockTransaction(ctx context.Context, id uuid.UUID) (models.Transaction, error) {
	return q.GetTransaction(ctx, id)
}

func (q *queries) ListTransactions(_ context.Context, f models.TransactionFilter) ([]models.Transaction, int, error) {
	rows := make([]models.Transaction, 0, len(q.st.txns))
	for _, t := range q.st.txns {
		if f.BuyerName != "" && !containsFold(t.BuyerName, f.BuyerName) {
			continue
		}
		if f.ProductID != nil && t.ProductID != *f.ProductID {
			continue
		}
		if f.ProductTypeID != nil && q.st.products[t.ProductID].ProductTypeID != *f.ProductTypeID {
			continue
		}
		if f.StartDate != nil && t.TransactionDate.Before(*f.StartDate) {
			continue
		}
		if f.EndDate != nil && t.TransactionDate.After(*f.EndDate) {
			continue
		}
		rows = append(rows, q.withProduct(t))
	}
	sortBy(q, rows, f.Sort, func(t models.Transaction) uuid.UUID { return t.ID }, func(a, b models.Transaction) int {
		switch f.Sort.Field {
		case models.SortUpdatedAt:
			return a.UpdatedAt.Compare(b.UpdatedAt)
		case models.SortBuyerName:
			return strings.Compare(a.BuyerName, b.BuyerName)
		case models.SortAmountSold:
			return cmp.Compare(a.AmountSold, b.AmountSold)
		case models.SortTotalPrice:
			return cmp.Compare(a.TotalPrice, b.TotalPrice)
		case models.SortTransactionDate:
			return a.TransactionDate.Compare(b.TransactionDate)
		case models.SortProductName:
			return strings.Compare(q.st.products[a.ProductID].ProductName, q.st.products[b.ProductID].ProductName)
		default:
			return a.CreatedAt.Compare(b.CreatedAt)
		}
	})
	return paginate(rows, f.Page), len(rows), nil
}

func (q *queries) TransactionsByProductType(_ context.Context, productTypeID uuid.UUID) ([]models.Transaction, error) {
	var rows []models.Transaction
	for _, t := range q.st.txns {
		if q.st.products[t.ProductID].ProductTypeID == productTypeID {
			rows = append(rows, q.withProduct(t))
		}
	}
	sortBy(q, rows, models.Sort{Field: models.SortCreatedAt}, func(t models.Transaction) uuid.UUID { return t.ID },
		func(a, b models.Transaction) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return rows, nil
}

func (q *queries) InsertTransaction(_ context.Context, t models.Transaction) (models.Transaction, error) {
	if _, ok := q.st.products[t.ProductID]; !ok {
		return models.Transaction{}, repository.ErrNotFound
	}
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	t.Product = nil
	t.CreatedAt = q.now()
	t.UpdatedAt = t.CreatedAt
	q.st.txns[t.ID] = t
	q.st.track(t.ID)
	return q.withProduct(t), nil
}

func (q *queries) UpdateTransaction(_ context.Context, id uuid.UUID, cs models.TransactionChangeSet) (models.Transaction, error) {
	t, ok := q.st.txns[id]
	if !ok {
		return models.Transaction{}, repository.ErrNotFound
	}
	if cs.ProductID != nil {
		if _, ok := q.st.products[*cs.ProductID]; !ok {
			return models.Transaction{}, repository.ErrNotFound
		}
	}
	cs.Apply(&t)
	t.UpdatedAt = q.now()
	q.st.txns[id] = t
	return q.withProduct(t), nil
}

func (q *queries) DeleteTransaction(_ context.Context, id uuid.UUID) error {
	if _, ok := q.st.txns[id]; !ok {
		return repository.ErrNotFound
	}
	delete(q.st.txns, id)
	delete(q.st.seq, id)
	return nil
}

func (q *queries) withProduct(t models.Transaction) models.Transaction {
	p, ok := q.st.products[t.ProductID]
	if !ok {
		t.Product = nil
		return t
	}
	t.Product = &models.TransactionProduct{ProductName: p.ProductName}
	if pt, ok := q.st.types[p.ProductTypeID]; ok {
		t.Product.ProductType = &models.ProductTypeRef{Name: pt.Name}
	}
	return t
}

func (q *queries) typeNameTaken(name string, except uuid.UUID) bool {
	for id, pt := range q.st.types {
		if id != except && pt.Name == name {
			return true
		}
	}
	return false
}

func (q *queries) productNameTaken(name string, except uuid.UUID) bool {
	for id, p := range q.st.products {
		if id != except && p.ProductName == name {
			return true
		}
	}
	return false
}

// sortBy orders rows by compare with insertion order breaking ties, all reversed when s.Desc.
func sortBy[T any](q *queries, rows []T, s models.Sort, id func(T) uuid.UUID, compare func(a, b T) int) {
	slices.SortStableFunc(rows, func(a, b T) int {
		c := compare(a, b)
		if c == 0 {
			c = cmp.Compare(q.st.seq[id(a)], q.st.seq[id(b)])
		}
		if s.Desc {
			c = -c
		}
		return c
	})
}

func paginate[T any](rows []T, p models.Page) []T {
	if p.Size <= 0 {
		return rows
	}
	start := p.Offset()
	if start >= len(rows) {
		return []T{}
	}
	end := start + p.Size
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end]
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func checkStock(p models.Product) error {
	if p.Stock < 0 {
		return fmt.Errorf("product %s: stock %d violates check constraint", p.ID, p.Stock)
	}
	return nil
}
