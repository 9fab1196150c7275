package httpapi

import (
	"net/http"

	"github.com/rs/zerolog/hlog"
)

// NewRouter registers HTTP routes and returns the handler with middleware.
func NewRouter(app *App, corsOrigins []string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health-checker", app.healthHandler)

	mux.HandleFunc("POST /api/product-types", app.createProductTypeHandler)
	mux.HandleFunc("GET /api/product-types", app.listProductTypesHandler)
	mux.HandleFunc("GET /api/product-types/{productTypeId}", app.getProductTypeHandler)
	mux.HandleFunc("PUT /api/product-types/{productTypeId}", app.updateProductTypeHandler)
	mux.HandleFunc("PATCH /api/product-types/{productTypeId}", app.updateProductTypeHandler)
	mux.HandleFunc("DELETE /api/product-types/{productTypeId}", app.deleteProductTypeHandler)

	mux.HandleFunc("POST /api/products", app.createProductHandler)
	mux.HandleFunc("GET /api/products", app.listProductsHandler)
	mux.HandleFunc("GET /api/products/{productId}", app.getProductHandler)
	mux.HandleFunc("PUT /api/products/{productId}", app.updateProductHandler)
	mux.HandleFunc("PATCH /api/products/{productId}", app.updateProductHandler)
	mux.HandleFunc("DELETE /api/products/{productId}", app.deleteProductHandler)

	mux.HandleFunc("POST /api/transactions", app.createTransactionHandler)
	mux.HandleFunc("GET /api/transactions", app.listTransactionsHandler)
	mux.HandleFunc("GET /api/transactions/{transactionId}", app.getTransactionHandler)
	mux.HandleFunc("PUT /api/transactions/{transactionId}", app.updateTransactionHandler)
	mux.HandleFunc("PATCH /api/transactions/{transactionId}", app.updateTransactionHandler)
	mux.HandleFunc("DELETE /api/transactions/{transactionId}", app.deleteTransactionHandler)
	mux.HandleFunc("GET /api/transactions/{productTypeId}/most-sold-product", app.mostSoldProductHandler)

	mux.HandleFunc("/", app.notFoundHandler)

	var h http.Handler = mux
	h = WithRecover(h)
	h = CORS(corsOrigins)(h)
	h = WithAccessLog(h)
	h = WithRequestID(h)
	h = hlog.NewHandler(app.Log)(h)
	return h
}
