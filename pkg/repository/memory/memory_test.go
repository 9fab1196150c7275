package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"gitlab.connectwisedev.com/inventory-service/models"
	"gitlab.connectwisedev.com/inventory-service/pkg/repository"
)

func seed(t *testing.T, s *Store) (models.ProductType, models.Product) {
	t.Helper()
	ctx := context.Background()
	pt, err := s.InsertProductType(ctx, models.ProductType{Name: "Tools"})
	if err != nil {
		t.Fatalf("insert type: %v", err)
	}
	p, err := s.InsertProduct(ctx, models.Product{ProductName: "Widget", Stock: 100, Price: 10, ProductTypeID: pt.ID})
	if err != nil {
		t.Fatalf("insert product: %v", err)
	}
	return pt, p
}

func TestWithinTxRollsBackOnError(t *testing.T) {
	s := New()
	ctx := context.Background()
	_, p := seed(t, s)

	boom := errors.New("boom")
	err := s.WithinTx(ctx, func(ctx context.Context, q repository.Queries) error {
		stock := 1
		if _, err := q.UpdateProduct(ctx, p.ID, models.ProductChangeSet{Stock: &stock}); err != nil {
			return err
		}
		if _, err := q.InsertTransaction(ctx, models.Transaction{BuyerName: "a", ProductID: p.ID, AmountSold: 99}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected callback error back, got %v", err)
	}
	got, err := s.GetProduct(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Stock != 100 {
		t.Fatalf("stock leaked out of rolled back unit of work: %d", got.Stock)
	}
	if _, total, _ := s.ListTransactions(ctx, models.TransactionFilter{Page: models.DefaultPage()}); total != 0 {
		t.Fatalf("transaction leaked out of rolled back unit of work")
	}
}

func TestWithinTxCommits(t *testing.T) {
	s := New()
	ctx := context.Background()
	_, p := seed(t, s)

	err := s.WithinTx(ctx, func(ctx context.Context, q repository.Queries) error {
		stock := 80
		_, err := q.UpdateProduct(ctx, p.ID, models.ProductChangeSet{Stock: &stock})
		return err
	})
	if err != nil {
		t.Fatal(err)
	}
	got, _ := s.GetProduct(ctx, p.ID)
	if got.Stock != 80 {
		t.Fatalf("expected committed stock 80, got %d", got.Stock)
	}
}

func TestDuplicateNames(t *testing.T) {
	s := New()
	ctx := context.Background()
	pt, p := seed(t, s)

	if _, err := s.InsertProductType(ctx, models.ProductType{Name: "Tools"}); !errors.Is(err, repository.ErrDuplicate) {
		t.Fatalf("expected duplicate type, got %v", err)
	}
	if _, err := s.InsertProduct(ctx, models.Product{ProductName: "Widget", ProductTypeID: pt.ID}); !errors.Is(err, repository.ErrDuplicate) {
		t.Fatalf("expected duplicate product, got %v", err)
	}
	other, err := s.InsertProduct(ctx, models.Product{ProductName: "Gadget", ProductTypeID: pt.ID})
	if err != nil {
		t.Fatal(err)
	}
	name := p.ProductName
	if _, err := s.UpdateProduct(ctx, other.ID, models.ProductChangeSet{ProductName: &name}); !errors.Is(err, repository.ErrDuplicate) {
		t.Fatalf("expected duplicate on rename, got %v", err)
	}
	// renaming to its own name is fine
	if _, err := s.UpdateProduct(ctx, p.ID, models.ProductChangeSet{ProductName: &name}); err != nil {
		t.Fatalf("self rename: %v", err)
	}
}

func TestNegativeStockRejected(t *testing.T) {
	s := New()
	ctx := context.Background()
	_, p := seed(t, s)
	stock := -1
	if _, err := s.UpdateProduct(ctx, p.ID, models.ProductChangeSet{Stock: &stock}); err == nil {
		t.Fatalf("expected check violation")
	}
}

func TestDeleteCascades(t *testing.T) {
	s := New()
	ctx := context.Background()
	pt, p := seed(t, s)
	tx, err := s.InsertTransaction(ctx, models.Transaction{BuyerName: "a", ProductID: p.ID, AmountSold: 1})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteProductType(ctx, pt.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetProduct(ctx, p.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("product should cascade, got %v", err)
	}
	if _, err := s.GetTransaction(ctx, tx.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("transaction should cascade, got %v", err)
	}
	if err := s.DeleteProductType(ctx, pt.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("second delete should be not found, got %v", err)
	}
}

func TestInsertRequiresParent(t *testing.T) {
	s := New()
	ctx := context.Background()
	if _, err := s.InsertProduct(ctx, models.Product{ProductName: "x", ProductTypeID: uuid.New()}); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected missing type, got %v", err)
	}
	if _, err := s.InsertTransaction(ctx, models.Transaction{ProductID: uuid.New()}); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected missing product, got %v", err)
	}
}

func TestListTransactionsFilterSortPage(t *testing.T) {
	s := New()
	ctx := context.Background()
	pt, p := seed(t, s)
	other, err := s.InsertProductType(ctx, models.ProductType{Name: "Toys"})
	if err != nil {
		t.Fatal(err)
	}
	ball, err := s.InsertProduct(ctx, models.Product{ProductName: "Ball", Stock: 5, Price: 3, ProductTypeID: other.ID})
	if err != nil {
		t.Fatal(err)
	}

	day := func(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }
	for i, row := range []struct {
		buyer string
		pid   uuid.UUID
		amt   int
		date  time.Time
	}{
		{"Alice", p.ID, 5, day(1)},
		{"alicia", ball.ID, 2, day(2)},
		{"Bob", p.ID, 9, day(3)},
		{"Carol", p.ID, 1, day(4)},
	} {
		if _, err := s.InsertTransaction(ctx, models.Transaction{BuyerName: row.buyer, ProductID: row.pid, AmountSold: row.amt, TransactionDate: row.date}); err != nil {
			t.Fatalf("row %d: %v", i, err)
		}
	}

	rows, total, err := s.ListTransactions(ctx, models.TransactionFilter{BuyerName: "ALI", Sort: models.DefaultSort(), Page: models.DefaultPage()})
	if err != nil {
		t.Fatal(err)
	}
	if total != 2 || len(rows) != 2 || rows[0].BuyerName != "alicia" {
		t.Fatalf("buyer filter: total=%d rows=%+v", total, rows)
	}

	start, end := day(2), day(3)
	rows, total, _ = s.ListTransactions(ctx, models.TransactionFilter{StartDate: &start, EndDate: &end, Sort: models.DefaultSort(), Page: models.DefaultPage()})
	if total != 2 {
		t.Fatalf("inclusive date range should match 2, got %d", total)
	}

	rows, total, _ = s.ListTransactions(ctx, models.TransactionFilter{ProductTypeID: &pt.ID, Sort: models.Sort{Field: models.SortAmountSold}, Page: models.Page{Number: 1, Size: 2}})
	if total != 3 || len(rows) != 2 || rows[0].AmountSold != 1 || rows[1].AmountSold != 5 {
		t.Fatalf("type filter + amount sort + page: total=%d rows=%+v", total, rows)
	}
	if rows[0].Product == nil || rows[0].Product.ProductName != "Widget" || rows[0].Product.ProductType.Name != "Tools" {
		t.Fatalf("expected joined product summary, got %+v", rows[0].Product)
	}

	rows, _, _ = s.ListTransactions(ctx, models.TransactionFilter{Sort: models.Sort{Field: models.SortProductName}, Page: models.DefaultPage()})
	if rows[0].Product.ProductName != "Ball" {
		t.Fatalf("productName sort should put Ball first, got %s", rows[0].Product.ProductName)
	}

	rows, total, _ = s.ListTransactions(ctx, models.TransactionFilter{Sort: models.DefaultSort(), Page: models.Page{Number: 9, Size: 10}})
	if total != 4 || len(rows) != 0 {
		t.Fatalf("page past the end: total=%d len=%d", total, len(rows))
	}
}

func TestTransactionsByProductTypeEncounterOrder(t *testing.T) {
	s := New()
	fixed := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }
	ctx := context.Background()
	pt, p := seed(t, s)

	var ids []uuid.UUID
	for i := 0; i < 5; i++ {
		tx, err := s.InsertTransaction(ctx, models.Transaction{BuyerName: "b", ProductID: p.ID, AmountSold: i})
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, tx.ID)
	}
	rows, err := s.TransactionsByProductType(ctx, pt.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 5 {
		t.Fatalf("expected 5 rows, got %d", len(rows))
	}
	for i := range rows {
		if rows[i].ID != ids[i] {
			t.Fatalf("row %d out of insertion order", i)
		}
	}
}
