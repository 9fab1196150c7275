package models

import (
	"time"

	"github.com/google/uuid"
)

//go:generate go run gitlab.connectwisedev.com/inventory-service/tools/generator Transaction

// Transaction records a single sale of one product.
type Transaction struct {
	ID              uuid.UUID `json:"id" col:"id,key"`
	BuyerName       string    `json:"buyerName" col:"buyer_name"`
	ProductID       uuid.UUID `json:"productId" col:"product_id"`
	AmountSold      int       `json:"amountSold" col:"amount_sold"`
	TotalPrice      int       `json:"totalPrice" col:"total_price"`
	TransactionDate time.Time `json:"transactionDate" col:"transaction_date"`
	CreatedAt       time.Time `json:"createdAt" col:"created_at,auto"`
	UpdatedAt       time.Time `json:"updatedAt" col:"updated_at,auto"`

	// Populated by read and list queries.
	Product *TransactionProduct `json:"product,omitempty"`
}

// TransactionProduct is the joined product summary returned with a transaction.
type TransactionProduct struct {
	ProductName string          `json:"productName"`
	ProductType *ProductTypeRef `json:"productType,omitempty"`
}

// SoldProduct is one row of the most-sold report for a product type.
type SoldProduct struct {
	ProductID    uuid.UUID `json:"productId"`
	ProductName  string    `json:"productName"`
	AmountSold   int       `json:"amountSold"`
	TotalPrice   int       `json:"totalPrice"`
	Transactions int       `json:"transactions"`
}
