package service

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"gitlab.connectwisedev.com/inventory-service/models"
	"gitlab.connectwisedev.com/inventory-service/pkg/apperror"
	"gitlab.connectwisedev.com/inventory-service/pkg/repository"
	"gitlab.connectwisedev.com/inventory-service/pkg/repository/memory"
)

var saleDate = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

// recordingCache versions entries the way the Redis cache does.
type recordingCache struct {
	mu       sync.Mutex
	deleted  []uuid.UUID
	items    map[uuid.UUID]models.Product
	versions map[uuid.UUID]int
}

func (c *recordingCache) GetProduct(_ context.Context, id uuid.UUID) (models.Product, string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.items[id]
	return p, strconv.Itoa(c.versions[id]), ok
}

func (c *recordingCache) SetProduct(_ context.Context, p models.Product, version string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if strconv.Itoa(c.versions[p.ID]) != version {
		return
	}
	if c.items == nil {
		c.items = make(map[uuid.UUID]models.Product)
	}
	c.items[p.ID] = p
}

func (c *recordingCache) DeleteProducts(_ context.Context, ids ...uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.versions == nil {
		c.versions = make(map[uuid.UUID]int)
	}
	for _, id := range ids {
		delete(c.items, id)
		c.versions[id]++
	}
	c.deleted = append(c.deleted, ids...)
}

type fixture struct {
	store   *memory.Store
	cache   *recordingCache
	catalog *Catalog
	ledger  *Ledger
	report  *Report
	typeID  uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	c := &recordingCache{}
	f := &fixture{
		store:   store,
		cache:   c,
		catalog: NewCatalog(store, c, zerolog.Nop()),
		ledger:  NewLedger(store, c, zerolog.Nop()),
		report:  NewReport(store),
	}
	pt, err := f.catalog.CreateProductType(context.Background(), "Tools")
	if err != nil {
		t.Fatal(err)
	}
	f.typeID = pt.ID
	return f
}

func (f *fixture) product(t *testing.T, name string, stock, price int) models.Product {
	t.Helper()
	p, err := f.catalog.CreateProduct(context.Background(), models.Product{
		ProductName: name, Stock: stock, Price: price, ProductTypeID: f.typeID,
	})
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func (f *fixture) stock(t *testing.T, id uuid.UUID) int {
	t.Helper()
	p, err := f.store.GetProduct(context.Background(), id)
	if err != nil {
		t.Fatal(err)
	}
	return p.Stock
}

func (f *fixture) sell(t *testing.T, productID uuid.UUID, amount int) models.Transaction {
	t.Helper()
	txn, err := f.ledger.CreateTransaction(context.Background(), NewTransaction{
		BuyerName: "Alice", ProductID: productID, AmountSold: amount, TransactionDate: saleDate,
	})
	if err != nil {
		t.Fatal(err)
	}
	return txn
}

func intp(v int) *int { return &v }

func assertKind(t *testing.T, err error, k apperror.Kind, msg string) {
	t.Helper()
	if !apperror.Is(err, k) {
		t.Fatalf("expected %s error, got %v", k, err)
	}
	if msg != "" && apperror.PublicMessage(err) != msg {
		t.Fatalf("expected message %q, got %q", msg, apperror.PublicMessage(err))
	}
}

func TestWidgetScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	widget := f.product(t, "Widget", 100, 10)

	txn := f.sell(t, widget.ID, 20)
	if txn.TotalPrice != 200 {
		t.Fatalf("expected total price 200, got %d", txn.TotalPrice)
	}
	if txn.Product == nil || txn.Product.ProductName != "Widget" {
		t.Fatalf("expected joined product summary, got %+v", txn.Product)
	}
	if got := f.stock(t, widget.ID); got != 80 {
		t.Fatalf("expected stock 80, got %d", got)
	}

	if err := f.ledger.DeleteTransaction(ctx, txn.ID); err != nil {
		t.Fatal(err)
	}
	if got := f.stock(t, widget.ID); got != 100 {
		t.Fatalf("expected stock 100 after delete, got %d", got)
	}
	if _, err := f.ledger.GetTransaction(ctx, txn.ID); !apperror.Is(err, apperror.KindNotFound) {
		t.Fatalf("expected transaction to be gone, got %v", err)
	}
}

func TestCreateTransactionOversell(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Widget", 3, 10)

	_, err := f.ledger.CreateTransaction(context.Background(), NewTransaction{
		BuyerName: "Bob", ProductID: p.ID, AmountSold: 4, TransactionDate: saleDate,
	})
	assertKind(t, err, apperror.KindInsufficientStock, MsgStockNotEnough)
	if got := f.stock(t, p.ID); got != 3 {
		t.Fatalf("stock must be unchanged, got %d", got)
	}

	// Selling exactly the remaining stock is allowed.
	f.sell(t, p.ID, 3)
	if got := f.stock(t, p.ID); got != 0 {
		t.Fatalf("expected stock 0, got %d", got)
	}
}

func TestCreateTransactionValidation(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Widget", 3, 10)
	ctx := context.Background()

	cases := map[string]NewTransaction{
		"negative amount": {BuyerName: "Bob", ProductID: p.ID, AmountSold: -1, TransactionDate: saleDate},
		"missing buyer":   {ProductID: p.ID, AmountSold: 1, TransactionDate: saleDate},
		"missing product": {BuyerName: "Bob", AmountSold: 1, TransactionDate: saleDate},
		"missing date":    {BuyerName: "Bob", ProductID: p.ID, AmountSold: 1},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.ledger.CreateTransaction(ctx, in)
			assertKind(t, err, apperror.KindValidation, "")
		})
	}

	_, err := f.ledger.CreateTransaction(ctx, NewTransaction{
		BuyerName: "Bob", ProductID: uuid.New(), AmountSold: 1, TransactionDate: saleDate,
	})
	assertKind(t, err, apperror.KindNotFound, MsgProductNotFound)
}

func TestLargeTotals(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	press := f.product(t, "Press", 20000, 150000)

	txn := f.sell(t, press.ID, 20000)
	if txn.TotalPrice != 3_000_000_000 {
		t.Fatalf("expected total 3000000000, got %d", txn.TotalPrice)
	}

	huge := f.product(t, "Reactor", 4, math.MaxInt/2)
	_, err := f.ledger.CreateTransaction(ctx, NewTransaction{
		BuyerName: "Bob", ProductID: huge.ID, AmountSold: 3, TransactionDate: saleDate,
	})
	assertKind(t, err, apperror.KindValidation, MsgTotalPriceTooLarge)
	if got := f.stock(t, huge.ID); got != 4 {
		t.Fatalf("stock must be unchanged, got %d", got)
	}

	sale := f.sell(t, huge.ID, 1)
	_, err = f.ledger.UpdateTransaction(ctx, sale.ID, TransactionPatch{AmountSold: intp(3)})
	assertKind(t, err, apperror.KindValidation, MsgTotalPriceTooLarge)
	if got := f.stock(t, huge.ID); got != 3 {
		t.Fatalf("stock must be unchanged by a rejected update, got %d", got)
	}
}

func TestUpdateTransactionAmount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "Widget", 15, 4)
	txn := f.sell(t, p.ID, 5)
	if got := f.stock(t, p.ID); got != 10 {
		t.Fatalf("expected stock 10, got %d", got)
	}

	updated, err := f.ledger.UpdateTransaction(ctx, txn.ID, TransactionPatch{AmountSold: intp(8)})
	if err != nil {
		t.Fatal(err)
	}
	if got := f.stock(t, p.ID); got != 7 {
		t.Fatalf("expected stock 7, got %d", got)
	}
	if updated.AmountSold != 8 || updated.TotalPrice != 32 {
		t.Fatalf("unexpected update result %+v", updated)
	}

	// available = 7 + 8 = 15
	_, err = f.ledger.UpdateTransaction(ctx, txn.ID, TransactionPatch{AmountSold: intp(16)})
	assertKind(t, err, apperror.KindInsufficientStock, MsgStockNotEnough)
	if got := f.stock(t, p.ID); got != 7 {
		t.Fatalf("failed update must not move stock, got %d", got)
	}

	if _, err := f.ledger.UpdateTransaction(ctx, txn.ID, TransactionPatch{AmountSold: intp(15)}); err != nil {
		t.Fatal(err)
	}
	if got := f.stock(t, p.ID); got != 0 {
		t.Fatalf("expected stock 0, got %d", got)
	}
}

func TestUpdateTransactionKeepsTotalWithoutAmount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "Widget", 10, 5)
	txn := f.sell(t, p.ID, 2)

	if _, err := f.catalog.UpdateProduct(ctx, p.ID, models.ProductChangeSet{Price: intp(50)}); err != nil {
		t.Fatal(err)
	}
	buyer := "Carol"
	updated, err := f.ledger.UpdateTransaction(ctx, txn.ID, TransactionPatch{BuyerName: &buyer})
	if err != nil {
		t.Fatal(err)
	}
	if updated.BuyerName != "Carol" || updated.TotalPrice != 10 {
		t.Fatalf("buyer-only update must keep the sale price, got %+v", updated)
	}
	if got := f.stock(t, p.ID); got != 8 {
		t.Fatalf("expected stock 8, got %d", got)
	}
}

func TestUpdateTransactionChangeProductOversell(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.product(t, "Hammer", 10, 3)
	b := f.product(t, "Wrench", 4, 7)
	txn := f.sell(t, a.ID, 6)

	_, err := f.ledger.UpdateTransaction(ctx, txn.ID, TransactionPatch{ProductID: &b.ID, AmountSold: intp(5)})
	assertKind(t, err, apperror.KindInsufficientStock, MsgStockNotEnough)
	if f.stock(t, a.ID) != 4 || f.stock(t, b.ID) != 4 {
		t.Fatalf("failed move must leave both products untouched")
	}
}

func TestUpdateTransactionMovesStockBetweenProducts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.product(t, "Hammer", 10, 3)
	b := f.product(t, "Wrench", 9, 7)
	txn := f.sell(t, a.ID, 6)

	f.cache.deleted = nil
	updated, err := f.ledger.UpdateTransaction(ctx, txn.ID, TransactionPatch{ProductID: &b.ID})
	if err != nil {
		t.Fatal(err)
	}
	if got := f.stock(t, a.ID); got != 10 {
		t.Fatalf("old product must get its stock back, got %d", got)
	}
	if got := f.stock(t, b.ID); got != 3 {
		t.Fatalf("new product must be debited, got %d", got)
	}
	if updated.ProductID != b.ID || updated.AmountSold != 6 || updated.TotalPrice != 42 {
		t.Fatalf("unexpected update result %+v", updated)
	}
	if updated.Product == nil || updated.Product.ProductName != "Wrench" {
		t.Fatalf("expected joined summary of the new product, got %+v", updated.Product)
	}
	if len(f.cache.deleted) != 2 {
		t.Fatalf("expected both products invalidated, got %v", f.cache.deleted)
	}

	missing := uuid.New()
	_, err = f.ledger.UpdateTransaction(ctx, txn.ID, TransactionPatch{ProductID: &missing})
	assertKind(t, err, apperror.KindNotFound, MsgProductNotFound)
}

func TestUpdateAndDeleteUnknownTransaction(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.ledger.UpdateTransaction(ctx, uuid.New(), TransactionPatch{AmountSold: intp(1)})
	assertKind(t, err, apperror.KindNotFound, MsgTransactionNotFound)
	assertKind(t, f.ledger.DeleteTransaction(ctx, uuid.New()), apperror.KindNotFound, MsgTransactionNotFound)
}

func TestDeleteRestoresExactAmount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "Widget", 50, 1)
	first := f.sell(t, p.ID, 7)
	f.sell(t, p.ID, 11)

	if err := f.ledger.DeleteTransaction(ctx, first.ID); err != nil {
		t.Fatal(err)
	}
	if got := f.stock(t, p.ID); got != 39 {
		t.Fatalf("expected 50-11 = 39, got %d", got)
	}
}

// failingInsert runs units of work whose InsertTransaction fails after the stock write.
type failingInsert struct {
	repository.Store
}

func (s failingInsert) WithinTx(ctx context.Context, fn func(ctx context.Context, q repository.Queries) error) error {
	return s.Store.WithinTx(ctx, func(ctx context.Context, q repository.Queries) error {
		return fn(ctx, failingQueries{q})
	})
}

type failingQueries struct {
	repository.Queries
}

var errDiskFull = errors.New("disk full")

func (failingQueries) InsertTransaction(context.Context, models.Transaction) (models.Transaction, error) {
	return models.Transaction{}, errDiskFull
}

func TestCreateTransactionIsAtomic(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Widget", 10, 2)

	ledger := NewLedger(failingInsert{f.store}, nil, zerolog.Nop())
	_, err := ledger.CreateTransaction(context.Background(), NewTransaction{
		BuyerName: "Alice", ProductID: p.ID, AmountSold: 4, TransactionDate: saleDate,
	})
	if !errors.Is(err, errDiskFull) {
		t.Fatalf("expected the insert failure, got %v", err)
	}
	if apperror.KindOf(err) != apperror.KindInternal {
		t.Fatalf("storage failures are internal, got %s", apperror.KindOf(err))
	}
	if got := f.stock(t, p.ID); got != 10 {
		t.Fatalf("stock must be rolled back, got %d", got)
	}
	_, total, err := f.store.ListTransactions(context.Background(), models.TransactionFilter{Page: models.DefaultPage()})
	if err != nil {
		t.Fatal(err)
	}
	if total != 0 {
		t.Fatalf("expected no transactions, got %d", total)
	}
}

func sumSold(t *testing.T, f *fixture, productID uuid.UUID) int {
	t.Helper()
	rows, _, err := f.ledger.ListTransactions(context.Background(), models.TransactionFilter{
		ProductID: &productID,
		Sort:      models.DefaultSort(),
		Page:      models.Page{Number: 1, Size: 10000},
	})
	if err != nil {
		t.Fatal(err)
	}
	sum := 0
	for _, r := range rows {
		sum += r.AmountSold
	}
	return sum
}

func TestStockConservation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	initial := map[uuid.UUID]int{}
	var products []uuid.UUID
	for _, name := range []string{"Hammer", "Wrench", "Saw"} {
		p := f.product(t, name, 30, 2)
		initial[p.ID] = p.Stock
		products = append(products, p.ID)
	}

	rng := rand.New(rand.NewSource(7))
	var live []uuid.UUID
	for i := 0; i < 300; i++ {
		switch op := rng.Intn(3); {
		case op == 0 || len(live) == 0:
			txn, err := f.ledger.CreateTransaction(ctx, NewTransaction{
				BuyerName:       "Buyer",
				ProductID:       products[rng.Intn(len(products))],
				AmountSold:      rng.Intn(12),
				TransactionDate: saleDate,
			})
			if err == nil {
				live = append(live, txn.ID)
			} else if !apperror.Is(err, apperror.KindInsufficientStock) {
				t.Fatal(err)
			}
		case op == 1:
			patch := TransactionPatch{AmountSold: intp(rng.Intn(12))}
			if rng.Intn(2) == 0 {
				patch.ProductID = &products[rng.Intn(len(products))]
			}
			_, err := f.ledger.UpdateTransaction(ctx, live[rng.Intn(len(live))], patch)
			if err != nil && !apperror.Is(err, apperror.KindInsufficientStock) {
				t.Fatal(err)
			}
		default:
			j := rng.Intn(len(live))
			if err := f.ledger.DeleteTransaction(ctx, live[j]); err != nil {
				t.Fatal(err)
			}
			live = append(live[:j], live[j+1:]...)
		}

		for _, id := range products {
			stock := f.stock(t, id)
			if stock < 0 {
				t.Fatalf("step %d: negative stock %d", i, stock)
			}
			if got := stock + sumSold(t, f, id); got != initial[id] {
				t.Fatalf("step %d: stock + sold = %d, want %d", i, got, initial[id])
			}
		}
	}
}

func TestConcurrentSalesNeverOversell(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Widget", 20, 1)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		sold int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.ledger.CreateTransaction(context.Background(), NewTransaction{
				BuyerName: "Racer", ProductID: p.ID, AmountSold: 1, TransactionDate: saleDate,
			})
			if err == nil {
				mu.Lock()
				sold++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if sold != 20 {
		t.Fatalf("expected exactly 20 sales, got %d", sold)
	}
	if got := f.stock(t, p.ID); got != 0 {
		t.Fatalf("expected stock 0, got %d", got)
	}
}

func TestListTransactionsRejectsInvertedRange(t *testing.T) {
	f := newFixture(t)
	start, end := saleDate, saleDate.Add(-time.Hour)
	_, _, err := f.ledger.ListTransactions(context.Background(), models.TransactionFilter{StartDate: &start, EndDate: &end})
	assertKind(t, err, apperror.KindValidation, "")
}
