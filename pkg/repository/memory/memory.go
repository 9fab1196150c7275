// Package memory is an in-process repository.Store used by tests and STORAGE_DRIVER=memory.
//
// A unit of work runs against a private copy of the data and replaces the live copy only when the
// callback succeeds, so a failed callback leaves no trace. Units of work are serialised.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"gitlab.connectwisedev.com/inventory-service/models"
	"gitlab.connectwisedev.com/inventory-service/pkg/repository"
)

type state struct {
	types    map[uuid.UUID]models.ProductType
	products map[uuid.UUID]models.Product
	txns     map[uuid.UUID]models.Transaction
	// seq records insertion order; it breaks ties when sorting.
	seq  map[uuid.UUID]uint64
	next uint64
}

func newState() *state {
	return &state{
		types:    make(map[uuid.UUID]models.ProductType),
		products: make(map[uuid.UUID]models.Product),
		txns:     make(map[uuid.UUID]models.Transaction),
		seq:      make(map[uuid.UUID]uint64),
	}
}

func (s *state) clone() *state {
	c := &state{
		types:    make(map[uuid.UUID]models.ProductType, len(s.types)),
		products: make(map[uuid.UUID]models.Product, len(s.products)),
		txns:     make(map[uuid.UUID]models.Transaction, len(s.txns)),
		seq:      make(map[uuid.UUID]uint64, len(s.seq)),
		next:     s.next,
	}
	for k, v := range s.types {
		c.types[k] = v
	}
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.txns {
		c.txns[k] = v
	}
	for k, v := range s.seq {
		c.seq[k] = v
	}
	return c
}

func (s *state) track(id uuid.UUID) {
	s.next++
	s.seq[id] = s.next
}

// Store is safe for concurrent use.
type Store struct {
	mu  sync.Mutex
	st  *state
	now func() time.Time
}

var _ repository.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{st: newState(), now: func() time.Time { return time.Now().UTC() }}
}

func (s *Store) view() *queries {
	return &queries{st: s.st, now: s.now}
}

// WithinTx implements repository.Store.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, q repository.Queries) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.st.clone()
	if err := fn(ctx, &queries{st: work, now: s.now}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("committing unit of work: %w", err)
	}
	s.st = work
	return nil
}

// Ping implements repository.Store.
func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }

// Close implements repository.Store.
func (s *Store) Close() error { return nil }

func (s *Store) GetProductType(ctx context.Context, id uuid.UUID) (models.ProductType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().GetProductType(ctx, id)
}

func (s *Store) ListProductTypes(ctx context.Context, f models.ProductTypeFilter) ([]models.ProductType, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().ListProductTypes(ctx, f)
}

func (s *Store) InsertProductType(ctx context.Context, pt models.ProductType) (models.ProductType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().InsertProductType(ctx, pt)
}

func (s *Store) UpdateProductType(ctx context.Context, id uuid.UUID, cs models.ProductTypeChangeSet) (models.ProductType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().UpdateProductType(ctx, id, cs)
}

func (s *Store) DeleteProductType(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().DeleteProductType(ctx, id)
}

func (s *Store) GetProduct(ctx context.Context, id uuid.UUID) (models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().GetProduct(ctx, id)
}

func (s *Store) GetProductByName(ctx context.Context, name string) (models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().GetProductByName(ctx, name)
}

func (s *Store) LockProduct(ctx context.Context, id uuid.UUID) (models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().LockProduct(ctx, id)
}

func (s *Store) ListProducts(ctx context.Context, f models.ProductFilter) ([]models.Product, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().ListProducts(ctx, f)
}

func (s *Store) ProductIDsByType(ctx context.Context, productTypeID uuid.UUID) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().ProductIDsByType(ctx, productTypeID)
}

func (s *Store) InsertProduct(ctx context.Context, p models.Product) (models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().InsertProduct(ctx, p)
}

func (s *Store) UpdateProduct(ctx context.Context, id uuid.UUID, cs models.ProductChangeSet) (models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().UpdateProduct(ctx, id, cs)
}

func (s *Store) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().DeleteProduct(ctx, id)
}

func (s *Store) GetTransaction(ctx context.Context, id uuid.UUID) (models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().GetTransaction(ctx, id)
}

func (s *Store) LockTransaction(ctx context.Context, id uuid.UUID) (models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().LockTransaction(ctx, id)
}

func (s *Store) ListTransactions(ctx context.Context, f models.TransactionFilter) ([]models.Transaction, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().ListTransactions(ctx, f)
}

func (s *Store) TransactionsByProductType(ctx context.Context, productTypeID uuid.UUID) ([]models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().TransactionsByProductType(ctx, productTypeID)
}

func (s *Store) InsertTransaction(ctx context.Context, t models.Transaction) (models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().InsertTransaction(ctx, t)
}

func (s *Store) UpdateTransaction(ctx context.Context, id uuid.UUID, cs models.TransactionChangeSet) (models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().UpdateTransaction(ctx, id, cs)
}

func (s *Store) DeleteTransaction(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().DeleteTransaction(ctx, id)
}
