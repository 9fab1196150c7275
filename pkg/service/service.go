// Package service holds the business rules of the inventory: catalog maintenance, the sales ledger that keeps
// product stock consistent with recorded transactions, and sales reports.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"gitlab.connectwisedev.com/inventory-service/models"
	"gitlab.connectwisedev.com/inventory-service/pkg/apperror"
	"gitlab.connectwisedev.com/inventory-service/pkg/cache"
	"gitlab.connectwisedev.com/inventory-service/pkg/repository"
)

// Messages returned to clients.
const (
	MsgProductNotFound     = "Product not found"
	MsgProductTypeNotFound = "Product type not found"
	MsgTransactionNotFound = "Transaction not found"
	MsgStockNotEnough      = "Stock is not enough"
	MsgProductExists       = "Product already exist"
	MsgProductTypeExists   = "Product type already exist"
	MsgTotalPriceTooLarge  = "totalPrice is too large"
)

const maxNameLength = 255

// ProductCache is the read-path product cache. Implementations swallow their own failures.
// GetProduct returns a version that SetProduct compares against, so a fill racing an invalidation is dropped.
type ProductCache interface {
	GetProduct(ctx context.Context, id uuid.UUID) (models.Product, string, bool)
	SetProduct(ctx context.Context, p models.Product, version string)
	DeleteProducts(ctx context.Context, ids ...uuid.UUID)
}

func orNoop(c ProductCache) ProductCache {
	if c == nil {
		return cache.Noop{}
	}
	return c
}

// translate turns repository sentinels into client errors and wraps everything else.
func translate(err error, notFound, duplicate, op string) error {
	switch {
	case err == nil:
		return nil
	case apperror.KindOf(err) != apperror.KindInternal:
		return err
	case notFound != "" && errors.Is(err, repository.ErrNotFound):
		return apperror.NotFound(notFound)
	case duplicate != "" && errors.Is(err, repository.ErrDuplicate):
		return apperror.Conflict(duplicate, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func checkName(field, v string) error {
	if strings.TrimSpace(v) == "" {
		return apperror.Validation(field + " is required")
	}
	if utf8.RuneCountInString(v) > maxNameLength {
		return apperror.Validation(fmt.Sprintf("%s must be at most %d characters", field, maxNameLength))
	}
	return nil
}

func checkNonNegative(field string, v int) error {
	if v < 0 {
		return apperror.Validation(field + " must be greater than or equal to 0")
	}
	return nil
}

func checkID(field string, id uuid.UUID) error {
	if id == uuid.Nil {
		return apperror.Validation(field + " is required")
	}
	return nil
}

// firstErr returns the first non-nil error.
func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
