package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"gitlab.connectwisedev.com/inventory-service/models"
	"gitlab.connectwisedev.com/inventory-service/pkg/service"
)

// App holds the services behind the routes.
type App struct {
	Catalog *service.Catalog
	Ledger  *service.Ledger
	Report  *service.Report
	Log     zerolog.Logger
	// Ready reports storage health for the health check. Nil means always ready.
	Ready func(ctx context.Context) error
}

func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	if a.Ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := a.Ready(ctx); err != nil {
			hlog.FromRequest(r).Error().Err(err).Msg("health check failed")
			writeMessage(w, http.StatusServiceUnavailable, "Service unavailable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  statusSuccess,
		"message": "Inventory service is running",
	})
}

func (a *App) notFoundHandler(w http.ResponseWriter, r *http.Request) {
	writeMessage(w, http.StatusNotFound, "Route: "+r.URL.RequestURI()+" not found")
}

// Product types

type productTypeRequest struct {
	Name *string `json:"name"`
}

func (a *App) createProductTypeHandler(w http.ResponseWriter, r *http.Request) {
	var req productTypeRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := required("name", req.Name != nil); err != nil {
		writeError(w, r, err)
		return
	}
	pt, err := a.Catalog.CreateProductType(r.Context(), *req.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, pt)
}

func (a *App) listProductTypesHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sort, page, err := listParams(q, models.ProductTypeSortFields)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rows, total, err := a.Catalog.ListProductTypes(r.Context(), models.ProductTypeFilter{
		Name: q.Get("name"),
		Sort: sort,
		Page: page,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writePage(w, rows, total, page)
}

func (a *App) getProductTypeHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "productTypeId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	pt, err := a.Catalog.GetProductType(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, pt)
}

func (a *App) updateProductTypeHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "productTypeId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req productTypeRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	pt, err := a.Catalog.UpdateProductType(r.Context(), id, models.ProductTypeChangeSet{Name: req.Name})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, pt)
}

func (a *App) deleteProductTypeHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "productTypeId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := a.Catalog.DeleteProductType(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Products

type productRequest struct {
	ProductName   *string    `json:"productName"`
	Stock         *int       `json:"stock"`
	Price         *int       `json:"price"`
	ProductTypeID *uuid.UUID `json:"productTypeId"`
}

func (req productRequest) changeSet() models.ProductChangeSet {
	return models.ProductChangeSet{
		ProductName:   req.ProductName,
		Stock:         req.Stock,
		Price:         req.Price,
		ProductTypeID: req.ProductTypeID,
	}
}

func (a *App) createProductHandler(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	for _, check := range []error{
		required("productName", req.ProductName != nil),
		required("stock", req.Stock != nil),
		required("price", req.Price != nil),
		required("productTypeId", req.ProductTypeID != nil),
	} {
		if check != nil {
			writeError(w, r, check)
			return
		}
	}
	var p models.Product
	req.changeSet().Apply(&p)
	created, err := a.Catalog.CreateProduct(r.Context(), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, created)
}

func (a *App) listProductsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sort, page, err := listParams(q, models.ProductSortFields)
	if err != nil {
		writeError(w, r, err)
		return
	}
	typeID, err := queryID(q, "productTypeId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	rows, total, err := a.Catalog.ListProducts(r.Context(), models.ProductFilter{
		ProductName:   q.Get("productName"),
		ProductTypeID: typeID,
		Sort:          sort,
		Page:          page,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writePage(w, rows, total, page)
}

func (a *App) getProductHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "productId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	p, err := a.Catalog.GetProduct(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, p)
}

func (a *App) updateProductHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "productId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req productRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := a.Catalog.UpdateProduct(r.Context(), id, req.changeSet())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, p)
}

func (a *App) deleteProductHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "productId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := a.Catalog.DeleteProduct(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Transactions

// transactionRequest accepts totalPrice for compatibility; it is always derived from the product price.
type transactionRequest struct {
	BuyerName       *string    `json:"buyerName"`
	ProductID       *uuid.UUID `json:"productId"`
	AmountSold      *int       `json:"amountSold"`
	TotalPrice      *int       `json:"totalPrice"`
	TransactionDate *string    `json:"transactionDate"`
}

func (req transactionRequest) date() (*time.Time, error) {
	if req.TransactionDate == nil {
		return nil, nil
	}
	t, err := parseDate("transactionDate", *req.TransactionDate, false)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (a *App) createTransactionHandler(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	for _, check := range []error{
		required("buyerName", req.BuyerName != nil),
		required("productId", req.ProductID != nil),
		required("amountSold", req.AmountSold != nil),
		required("transactionDate", req.TransactionDate != nil),
	} {
		if check != nil {
			writeError(w, r, check)
			return
		}
	}
	date, err := req.date()
	if err != nil {
		writeError(w, r, err)
		return
	}
	t, err := a.Ledger.CreateTransaction(r.Context(), service.NewTransaction{
		BuyerName:       *req.BuyerName,
		ProductID:       *req.ProductID,
		AmountSold:      *req.AmountSold,
		TransactionDate: *date,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, t)
}

func (a *App) listTransactionsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sort, page, err := listParams(q, models.TransactionSortFields)
	if err != nil {
		writeError(w, r, err)
		return
	}
	f := models.TransactionFilter{BuyerName: q.Get("buyerName"), Sort: sort, Page: page}
	if f.ProductID, err = queryID(q, "productId"); err != nil {
		writeError(w, r, err)
		return
	}
	if f.ProductTypeID, err = queryID(q, "productTypeId"); err != nil {
		writeError(w, r, err)
		return
	}
	if f.StartDate, err = queryDate(q, "startDate", false); err != nil {
		writeError(w, r, err)
		return
	}
	if f.EndDate, err = queryDate(q, "endDate", true); err != nil {
		writeError(w, r, err)
		return
	}
	rows, total, err := a.Ledger.ListTransactions(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writePage(w, rows, total, page)
}

func (a *App) getTransactionHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "transactionId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	t, err := a.Ledger.GetTransaction(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, t)
}

func (a *App) updateTransactionHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "transactionId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req transactionRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	date, err := req.date()
	if err != nil {
		writeError(w, r, err)
		return
	}
	t, err := a.Ledger.UpdateTransaction(r.Context(), id, service.TransactionPatch{
		BuyerName:       req.BuyerName,
		ProductID:       req.ProductID,
		AmountSold:      req.AmountSold,
		TransactionDate: date,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, t)
}

func (a *App) deleteTransactionHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "transactionId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := a.Ledger.DeleteTransaction(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *App) mostSoldProductHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "productTypeId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	rows, err := a.Report.MostSoldProducts(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, rows)
}
