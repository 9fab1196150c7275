package service

import (
	"context"
	"slices"

	"github.com/google/uuid"

	"gitlab.connectwisedev.com/inventory-service/models"
	"gitlab.connectwisedev.com/inventory-service/pkg/repository"
)

// Report answers read-only sales questions.
type Report struct {
	store repository.Queries
}

func NewReport(store repository.Queries) *Report {
	return &Report{store: store}
}

// MostSoldProducts ranks the products of a type by total amount sold, highest first. An unknown or empty type
// yields an empty ranking.
func (r *Report) MostSoldProducts(ctx context.Context, productTypeID uuid.UUID) ([]models.SoldProduct, error) {
	txns, err := r.store.TransactionsByProductType(ctx, productTypeID)
	if err != nil {
		return nil, translate(err, "", "", "loading transactions by product type")
	}
	return RankBySold(txns), nil
}

// RankBySold groups txns by product, summing amount and price, and orders the groups by amount descending.
// Equal amounts keep the order in which their product first appears in txns.
func RankBySold(txns []models.Transaction) []models.SoldProduct {
	out := make([]models.SoldProduct, 0)
	index := make(map[uuid.UUID]int)
	for _, t := range txns {
		i, ok := index[t.ProductID]
		if !ok {
			i = len(out)
			index[t.ProductID] = i
			row := models.SoldProduct{ProductID: t.ProductID}
			if t.Product != nil {
				row.ProductName = t.Product.ProductName
			}
			out = append(out, row)
		}
		out[i].AmountSold += t.AmountSold
		out[i].TotalPrice += t.TotalPrice
		out[i].Transactions++
	}
	slices.SortStableFunc(out, func(a, b models.SoldProduct) int { return b.AmountSold - a.AmountSold })
	return out
}
