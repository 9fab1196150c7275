package service

import (
	"bytes"
	"context"
	"math"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"gitlab.connectwisedev.com/inventory-service/models"
	"gitlab.connectwisedev.com/inventory-service/pkg/apperror"
	"gitlab.connectwisedev.com/inventory-service/pkg/repository"
)

// Ledger records sales. Every write changes a transaction and the stock of its product in one unit of work,
// so that a product's stock plus the amounts of its transactions stays constant.
type Ledger struct {
	store repository.Store
	cache ProductCache
	log   zerolog.Logger
}

// NewLedger returns a Ledger. The cache is only invalidated, never consulted.
func NewLedger(store repository.Store, c ProductCache, log zerolog.Logger) *Ledger {
	return &Ledger{store: store, cache: orNoop(c), log: log.With().Str("component", "ledger").Logger()}
}

// NewTransaction is the input of CreateTransaction.
type NewTransaction struct {
	BuyerName       string
	ProductID       uuid.UUID
	AmountSold      int
	TransactionDate time.Time
}

// TransactionPatch is the input of UpdateTransaction. Nil fields keep their current value.
type TransactionPatch struct {
	BuyerName       *string
	ProductID       *uuid.UUID
	AmountSold      *int
	TransactionDate *time.Time
}

func (in NewTransaction) validate() error {
	return firstErr(
		checkName("buyerName", in.BuyerName),
		checkID("productId", in.ProductID),
		checkNonNegative("amountSold", in.AmountSold),
		checkDate("transactionDate", in.TransactionDate),
	)
}

func (p TransactionPatch) validate() error {
	var errs []error
	if p.BuyerName != nil {
		errs = append(errs, checkName("buyerName", *p.BuyerName))
	}
	if p.ProductID != nil {
		errs = append(errs, checkID("productId", *p.ProductID))
	}
	if p.AmountSold != nil {
		errs = append(errs, checkNonNegative("amountSold", *p.AmountSold))
	}
	if p.TransactionDate != nil {
		errs = append(errs, checkDate("transactionDate", *p.TransactionDate))
	}
	return firstErr(errs...)
}

func checkDate(field string, t time.Time) error {
	if t.IsZero() {
		return apperror.Validation(field + " is required")
	}
	return nil
}

func lockProduct(ctx context.Context, q repository.Queries, id uuid.UUID) (models.Product, error) {
	p, err := q.LockProduct(ctx, id)
	if err != nil {
		return models.Product{}, translate(err, MsgProductNotFound, "", "locking product")
	}
	return p, nil
}

// totalPrice rejects totals that do not fit the price column.
func totalPrice(price, amount int) (int, error) {
	if amount != 0 && price > math.MaxInt/amount {
		return 0, apperror.Validation(MsgTotalPriceTooLarge)
	}
	return price * amount, nil
}

func setStock(ctx context.Context, q repository.Queries, id uuid.UUID, stock int) error {
	_, err := q.UpdateProduct(ctx, id, models.ProductChangeSet{Stock: &stock})
	return translate(err, MsgProductNotFound, "", "updating product stock")
}

// CreateTransaction sells AmountSold units of the product, debiting its stock.
func (l *Ledger) CreateTransaction(ctx context.Context, in NewTransaction) (models.Transaction, error) {
	if err := in.validate(); err != nil {
		return models.Transaction{}, err
	}

	var created models.Transaction
	err := l.store.WithinTx(ctx, func(ctx context.Context, q repository.Queries) error {
		product, err := lockProduct(ctx, q, in.ProductID)
		if err != nil {
			return err
		}
		if product.Stock < in.AmountSold {
			return apperror.InsufficientStock(MsgStockNotEnough)
		}
		total, err := totalPrice(product.Price, in.AmountSold)
		if err != nil {
			return err
		}
		if err := setStock(ctx, q, product.ID, product.Stock-in.AmountSold); err != nil {
			return err
		}
		created, err = q.InsertTransaction(ctx, models.Transaction{
			BuyerName:       in.BuyerName,
			ProductID:       product.ID,
			AmountSold:      in.AmountSold,
			TotalPrice:      total,
			TransactionDate: in.TransactionDate,
		})
		return translate(err, MsgProductNotFound, "", "inserting transaction")
	})
	if err != nil {
		return models.Transaction{}, err
	}

	l.cache.DeleteProducts(ctx, created.ProductID)
	l.log.Info().
		Str("transaction_id", created.ID.String()).
		Str("product_id", created.ProductID.String()).
		Int("amount_sold", created.AmountSold).
		Msg("transaction created")
	return created, nil
}

// UpdateTransaction changes a transaction and moves stock accordingly. The old amount is returned to the
// old product before the new amount is taken from the target product, which may be the same one.
// totalPrice is recomputed from the target product's price whenever productId or amountSold is given.
func (l *Ledger) UpdateTransaction(ctx context.Context, id uuid.UUID, patch TransactionPatch) (models.Transaction, error) {
	if err := patch.validate(); err != nil {
		return models.Transaction{}, err
	}

	var (
		updated models.Transaction
		touched []uuid.UUID
	)
	err := l.store.WithinTx(ctx, func(ctx context.Context, q repository.Queries) error {
		old, err := q.LockTransaction(ctx, id)
		if err != nil {
			return translate(err, MsgTransactionNotFound, "", "locking transaction")
		}

		target := old.ProductID
		if patch.ProductID != nil {
			target = *patch.ProductID
		}
		amount := old.AmountSold
		if patch.AmountSold != nil {
			amount = *patch.AmountSold
		}

		cs := models.TransactionChangeSet{BuyerName: patch.BuyerName, TransactionDate: patch.TransactionDate}
		var price int

		if target == old.ProductID {
			product, err := lockProduct(ctx, q, target)
			if err != nil {
				return err
			}
			available := product.Stock + old.AmountSold
			if available < amount {
				return apperror.InsufficientStock(MsgStockNotEnough)
			}
			if stock := available - amount; stock != product.Stock {
				if err := setStock(ctx, q, product.ID, stock); err != nil {
					return err
				}
			}
			price = product.Price
			touched = []uuid.UUID{target}
		} else {
			locked, err := lockInOrder(ctx, q, old.ProductID, target)
			if err != nil {
				return err
			}
			from, to := locked[old.ProductID], locked[target]
			if to.Stock < amount {
				return apperror.InsufficientStock(MsgStockNotEnough)
			}
			if err := setStock(ctx, q, from.ID, from.Stock+old.AmountSold); err != nil {
				return err
			}
			if err := setStock(ctx, q, to.ID, to.Stock-amount); err != nil {
				return err
			}
			cs.ProductID = &target
			price = to.Price
			touched = []uuid.UUID{old.ProductID, target}
		}

		if patch.ProductID != nil || patch.AmountSold != nil {
			total, err := totalPrice(price, amount)
			if err != nil {
				return err
			}
			cs.AmountSold = &amount
			cs.TotalPrice = &total
		}
		if cs.IsEmpty() {
			updated = old
			return nil
		}
		updated, err = q.UpdateTransaction(ctx, id, cs)
		return translate(err, MsgTransactionNotFound, "", "updating transaction")
	})
	if err != nil {
		return models.Transaction{}, err
	}

	l.cache.DeleteProducts(ctx, touched...)
	l.log.Info().
		Str("transaction_id", updated.ID.String()).
		Str("product_id", updated.ProductID.String()).
		Int("amount_sold", updated.AmountSold).
		Msg("transaction updated")
	return updated, nil
}

// lockInOrder locks the products in ascending id order.
func lockInOrder(ctx context.Context, q repository.Queries, ids ...uuid.UUID) (map[uuid.UUID]models.Product, error) {
	sorted := slices.Clone(ids)
	slices.SortFunc(sorted, func(a, b uuid.UUID) int { return bytes.Compare(a[:], b[:]) })
	out := make(map[uuid.UUID]models.Product, len(sorted))
	for _, id := range slices.Compact(sorted) {
		p, err := lockProduct(ctx, q, id)
		if err != nil {
			return nil, err
		}
		out[id] = p
	}
	return out, nil
}

// DeleteTransaction removes a transaction and returns its amount to the product's stock.
func (l *Ledger) DeleteTransaction(ctx context.Context, id uuid.UUID) error {
	var productID uuid.UUID
	err := l.store.WithinTx(ctx, func(ctx context.Context, q repository.Queries) error {
		t, err := q.LockTransaction(ctx, id)
		if err != nil {
			return translate(err, MsgTransactionNotFound, "", "locking transaction")
		}
		product, err := lockProduct(ctx, q, t.ProductID)
		if err != nil {
			return err
		}
		if err := setStock(ctx, q, product.ID, product.Stock+t.AmountSold); err != nil {
			return err
		}
		productID = product.ID
		return translate(q.DeleteTransaction(ctx, id), MsgTransactionNotFound, "", "deleting transaction")
	})
	if err != nil {
		return err
	}

	l.cache.DeleteProducts(ctx, productID)
	l.log.Info().Str("transaction_id", id.String()).Str("product_id", productID.String()).Msg("transaction deleted")
	return nil
}

func (l *Ledger) GetTransaction(ctx context.Context, id uuid.UUID) (models.Transaction, error) {
	t, err := l.store.GetTransaction(ctx, id)
	if err != nil {
		return models.Transaction{}, translate(err, MsgTransactionNotFound, "", "getting transaction")
	}
	return t, nil
}

func (l *Ledger) ListTransactions(ctx context.Context, f models.TransactionFilter) ([]models.Transaction, int, error) {
	if f.StartDate != nil && f.EndDate != nil && f.EndDate.Before(*f.StartDate) {
		return nil, 0, apperror.Validation("endDate must not be before startDate")
	}
	rows, total, err := l.store.ListTransactions(ctx, f)
	if err != nil {
		return nil, 0, translate(err, "", "", "listing transactions")
	}
	return rows, total, nil
}
