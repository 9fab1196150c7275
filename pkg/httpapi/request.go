package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"gitlab.connectwisedev.com/inventory-service/models"
	"gitlab.connectwisedev.com/inventory-service/pkg/apperror"
)

// MaxBodyBytes caps every request body.
const MaxBodyBytes = 10 << 10

const dateOnly = "2006-01-02"

// decode reads a single JSON object into v, rejecting unknown fields and trailing data.
func decode(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return err
		case errors.Is(err, io.EOF):
			return apperror.Validation("Request body is required")
		default:
			return apperror.Validation("Invalid request body: " + err.Error())
		}
	}
	if dec.More() {
		return apperror.Validation("Invalid request body: unexpected data after JSON object")
	}
	return nil
}

func pathID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		return uuid.Nil, apperror.Validation(fmt.Sprintf("Invalid %s", name))
	}
	return id, nil
}

// parseDate accepts RFC 3339 timestamps or plain dates. A plain date used as an upper bound covers the whole day.
func parseDate(field, v string, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(dateOnly, v)
	if err != nil {
		return time.Time{}, apperror.Validation(fmt.Sprintf("Invalid %s: use RFC 3339 or YYYY-MM-DD", field))
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}

func queryInt(q url.Values, key string, def, min, max int) (int, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < min || (max > 0 && n > max) {
		if max > 0 {
			return 0, apperror.Validation(fmt.Sprintf("%s must be an integer between %d and %d", key, min, max))
		}
		return 0, apperror.Validation(fmt.Sprintf("%s must be an integer greater than or equal to %d", key, min))
	}
	return n, nil
}

func queryID(q url.Values, key string) (*uuid.UUID, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return nil, nil
	}
	id, err := uuid.Parse(v)
	if err != nil {
		return nil, apperror.Validation(fmt.Sprintf("Invalid %s", key))
	}
	return &id, nil
}

func queryDate(q url.Values, key string, endOfDay bool) (*time.Time, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return nil, nil
	}
	t, err := parseDate(key, v, endOfDay)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// listParams reads page, limit, sortBy and orderBy. sortBy must be one of fields.
func listParams(q url.Values, fields []string) (models.Sort, models.Page, error) {
	page, err := queryInt(q, "page", 1, 1, 0)
	if err != nil {
		return models.Sort{}, models.Page{}, err
	}
	limit, err := queryInt(q, "limit", models.DefaultPageSize, 1, models.MaxPageSize)
	if err != nil {
		return models.Sort{}, models.Page{}, err
	}

	sort := models.DefaultSort()
	if v := strings.TrimSpace(q.Get("sortBy")); v != "" {
		if !models.Sortable(fields, v) {
			return models.Sort{}, models.Page{}, apperror.Validation(
				fmt.Sprintf("sortBy must be one of %s", strings.Join(fields, ", ")))
		}
		sort.Field = v
	}
	switch strings.ToUpper(strings.TrimSpace(q.Get("orderBy"))) {
	case "":
	case "ASC":
		sort.Desc = false
	case "DESC":
		sort.Desc = true
	default:
		return models.Sort{}, models.Page{}, apperror.Validation("orderBy must be ASC or DESC")
	}
	return sort, models.Page{Number: page, Size: limit}, nil
}

func required(field string, set bool) error {
	if !set {
		return apperror.Validation(field + " is required")
	}
	return nil
}
