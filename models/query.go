package models

import (
	"time"

	"github.com/google/uuid"
)

// Sort field names accepted by the list endpoints.
const (
	SortCreatedAt       = "createdAt"
	SortUpdatedAt       = "updatedAt"
	SortName            = "name"
	SortProductName     = "productName"
	SortStock           = "stock"
	SortPrice           = "price"
	SortBuyerName       = "buyerName"
	SortAmountSold      = "amountSold"
	SortTotalPrice      = "totalPrice"
	SortTransactionDate = "transactionDate"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

var (
	ProductTypeSortFields = []string{SortCreatedAt, SortUpdatedAt, SortName}
	ProductSortFields     = []string{SortCreatedAt, SortUpdatedAt, SortProductName, SortStock, SortPrice}
	TransactionSortFields = []string{
		SortCreatedAt, SortUpdatedAt, SortBuyerName, SortAmountSold,
		SortTotalPrice, SortTransactionDate, SortProductName,
	}
)

// Sort orders a listing by one recognised field.
type Sort struct {
	Field string
	Desc  bool
}

// DefaultSort is newest first.
func DefaultSort() Sort {
	return Sort{Field: SortCreatedAt, Desc: true}
}

// Page selects a 1-based page of Size rows.
type Page struct {
	Number int
	Size   int
}

// DefaultPage returns the first page with the default size.
func DefaultPage() Page {
	return Page{Number: 1, Size: DefaultPageSize}
}

// Offset is the number of rows skipped before this page.
func (p Page) Offset() int {
	if p.Number < 1 {
		return 0
	}
	return (p.Number - 1) * p.Size
}

// TotalPages returns how many pages of this size cover total rows.
func (p Page) TotalPages(total int) int {
	if p.Size <= 0 {
		return 0
	}
	return (total + p.Size - 1) / p.Size
}

// ProductTypeFilter configures a product type listing.
type ProductTypeFilter struct {
	Name string
	Sort Sort
	Page Page
}

// ProductFilter configures a product listing.
type ProductFilter struct {
	ProductName   string
	ProductTypeID *uuid.UUID
	Sort          Sort
	Page          Page
}

// TransactionFilter configures a transaction listing. StartDate and EndDate are inclusive.
type TransactionFilter struct {
	BuyerName     string
	ProductID     *uuid.UUID
	ProductTypeID *uuid.UUID
	StartDate     *time.Time
	EndDate       *time.Time
	Sort          Sort
	Page          Page
}

// Sortable reports whether field is one of fields.
func Sortable(fields []string, field string) bool {
	for _, f := range fields {
		if f == field {
			return true
		}
	}
	return false
}
