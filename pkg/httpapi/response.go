// Package httpapi exposes the inventory over HTTP JSON.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/hlog"

	"gitlab.connectwisedev.com/inventory-service/models"
	"gitlab.connectwisedev.com/inventory-service/pkg/apperror"
)

const (
	statusSuccess = "success"
	statusFailed  = "failed"
)

type successBody struct {
	Status string      `json:"status"`
	Data   interface{} `json:"data"`
}

type messageBody struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type pageBody struct {
	Status          string      `json:"status"`
	Results         int         `json:"results"`
	TotalResults    int         `json:"totalResults"`
	CurrentPage     int         `json:"currentPage"`
	TotalPages      int         `json:"totalPages"`
	HasNextPage     bool        `json:"hasNextPage"`
	HasPreviousPage bool        `json:"hasPreviousPage"`
	Data            interface{} `json:"data"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, status int, data interface{}) {
	writeJSON(w, status, successBody{Status: statusSuccess, Data: data})
}

func writePage[T any](w http.ResponseWriter, rows []T, total int, p models.Page) {
	if rows == nil {
		rows = []T{}
	}
	pages := p.TotalPages(total)
	writeJSON(w, http.StatusOK, pageBody{
		Status:          statusSuccess,
		Results:         len(rows),
		TotalResults:    total,
		CurrentPage:     p.Number,
		TotalPages:      pages,
		HasNextPage:     p.Number < pages,
		HasPreviousPage: p.Number > 1,
		Data:            rows,
	})
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, messageBody{Status: statusFailed, Message: msg})
}

// writeError maps err to its status code. Internal causes are logged and replaced by a generic message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperror.KindOf(err)
	status := kind.HTTPStatus()

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		status = http.StatusRequestEntityTooLarge
		writeMessage(w, status, "Request body too large")
		return
	}

	if kind == apperror.KindInternal {
		hlog.FromRequest(r).Error().Err(err).Msg("request failed")
	} else {
		hlog.FromRequest(r).Debug().Err(err).Str("kind", kind.String()).Msg("request rejected")
	}
	writeMessage(w, status, apperror.PublicMessage(err))
}
