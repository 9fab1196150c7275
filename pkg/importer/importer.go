// Package importer loads products in bulk from CSV. Rows are upserted by product name; a bad row is skipped
// and reported without stopping the rest of the file.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"gitlab.connectwisedev.com/inventory-service/models"
	"gitlab.connectwisedev.com/inventory-service/pkg/apperror"
)

// Header is the required first line of an import file.
var Header = []string{"productName", "stock", "price", "productTypeId"}

// ErrEmpty is returned for a file without data rows.
var ErrEmpty = errors.New("CSV is empty or has only headers")

// Upserter stores one product, reporting whether it was newly created.
type Upserter interface {
	UpsertProductByName(ctx context.Context, p models.Product) (models.Product, bool, error)
}

// RowError describes a skipped row. Line is 1-based and counts the header.
type RowError struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// Report summarises an import.
type Report struct {
	Created int        `json:"created"`
	Updated int        `json:"updated"`
	Skipped []RowError `json:"skipped"`
}

// Importer writes parsed rows through an Upserter.
type Importer struct {
	products Upserter
	log      zerolog.Logger
}

func New(products Upserter, log zerolog.Logger) *Importer {
	return &Importer{products: products, log: log.With().Str("component", "importer").Logger()}
}

// Parse reads every row of r. Rows that cannot be parsed are returned as RowErrors.
func Parse(r io.Reader) ([]models.ProductCSV, []RowError, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(records) < 2 {
		return nil, nil, ErrEmpty
	}
	if err := checkHeader(records[0]); err != nil {
		return nil, nil, err
	}

	var (
		rows    []models.ProductCSV
		skipped []RowError
	)
	for i, record := range records[1:] {
		line := i + 2
		row, err := parseRow(line, record)
		if err != nil {
			skipped = append(skipped, RowError{Line: line, Reason: err.Error()})
			continue
		}
		rows = append(rows, row)
	}
	return rows, skipped, nil
}

func checkHeader(record []string) error {
	if len(record) < len(Header) {
		return fmt.Errorf("invalid CSV header: want %s", strings.Join(Header, ","))
	}
	for i, want := range Header {
		if !strings.EqualFold(strings.TrimSpace(record[i]), want) {
			return fmt.Errorf("invalid CSV header: column %d is %q, want %q", i+1, record[i], want)
		}
	}
	return nil
}

func parseRow(line int, record []string) (models.ProductCSV, error) {
	if len(record) < len(Header) {
		return models.ProductCSV{}, fmt.Errorf("insufficient columns: got %d, want %d", len(record), len(Header))
	}
	row := models.ProductCSV{Line: line, ProductName: strings.TrimSpace(record[0])}

	var err error
	if row.Stock, err = strconv.Atoi(strings.TrimSpace(record[1])); err != nil {
		return models.ProductCSV{}, fmt.Errorf("invalid stock %q", record[1])
	}
	if row.Price, err = strconv.Atoi(strings.TrimSpace(record[2])); err != nil {
		return models.ProductCSV{}, fmt.Errorf("invalid price %q", record[2])
	}
	if row.ProductTypeID, err = uuid.Parse(strings.TrimSpace(record[3])); err != nil {
		return models.ProductCSV{}, fmt.Errorf("invalid productTypeId %q", record[3])
	}
	return row, nil
}

// Import parses r and upserts every valid row. Rows rejected by the catalog are reported as skipped;
// an internal failure aborts the import.
func (im *Importer) Import(ctx context.Context, r io.Reader) (Report, error) {
	rows, skipped, err := Parse(r)
	if err != nil {
		return Report{}, err
	}

	rep := Report{Skipped: skipped}
	for _, row := range rows {
		p, created, err := im.products.UpsertProductByName(ctx, models.Product{
			ProductName:   row.ProductName,
			Stock:         row.Stock,
			Price:         row.Price,
			ProductTypeID: row.ProductTypeID,
		})
		if err != nil {
			if apperror.KindOf(err) == apperror.KindInternal {
				return rep, fmt.Errorf("importing line %d: %w", row.Line, err)
			}
			im.log.Warn().Int("line", row.Line).Str("product_name", row.ProductName).Err(err).Msg("skipping row")
			rep.Skipped = append(rep.Skipped, RowError{Line: row.Line, Reason: apperror.PublicMessage(err)})
			continue
		}
		if created {
			rep.Created++
		} else {
			rep.Updated++
		}
		im.log.Debug().Int("line", row.Line).Str("product_id", p.ID.String()).Bool("created", created).Msg("row imported")
	}

	for _, s := range skipped {
		im.log.Warn().Int("line", s.Line).Str("reason", s.Reason).Msg("skipping row")
	}
	im.log.Info().Int("created", rep.Created).Int("updated", rep.Updated).Int("skipped", len(rep.Skipped)).Msg("products imported")
	return rep, nil
}
