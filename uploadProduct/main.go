package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/rs/zerolog"

	"gitlab.connectwisedev.com/inventory-service/pkg/bootstrap"
	"gitlab.connectwisedev.com/inventory-service/pkg/config"
	"gitlab.connectwisedev.com/inventory-service/pkg/importer"
	"gitlab.connectwisedev.com/inventory-service/pkg/logger"
)

// localCSV stands in for the S3 object when running with APP_ENV=local.
const localCSV = "products.csv"

// S3EventWrapper is a custom struct to handle either S3 events or direct CSV payload
type S3EventWrapper struct {
	Records []events.S3EventRecord `json:"Records,omitempty"`
	CSVData string                 `json:"csv_data,omitempty"` // For local testing
}

var errNoPayload = errors.New("no S3 event record or direct CSV data found in the payload")

// csvPayload resolves the bytes to import. S3 objects are only readable through the local file for now.
func csvPayload(event S3EventWrapper, local bool, readFile func(string) ([]byte, error), log zerolog.Logger) ([]byte, error) {
	switch {
	case len(event.Records) > 0:
		s3Record := event.Records[0].S3
		log.Info().Str("bucket", s3Record.Bucket.Name).Str("key", s3Record.Object.Key).Msg("processing S3 event")
		if !local {
			return nil, fmt.Errorf("S3 download is not available outside the local environment (bucket %s, key %s)",
				s3Record.Bucket.Name, s3Record.Object.Key)
		}
		log.Info().Str("file", localCSV).Msg("local environment, reading CSV from disk for S3 simulation")
		content, err := readFile(localCSV)
		if err != nil {
			return nil, fmt.Errorf("failed to read local %s for S3 simulation: %w", localCSV, err)
		}
		return content, nil
	case event.CSVData != "":
		log.Info().Msg("processing direct CSV data payload")
		return []byte(event.CSVData), nil
	default:
		return nil, errNoPayload
	}
}

func handle(ctx context.Context, im *importer.Importer, event S3EventWrapper, local bool, log zerolog.Logger) (importer.Report, error) {
	content, err := csvPayload(event, local, os.ReadFile, log)
	if err != nil {
		return importer.Report{}, err
	}
	return im.Import(ctx, bytes.NewReader(content))
}

func main() {
	config.LoadEnv(logger.Bootstrap()) // Load environment variables first
	cfg := config.Load()
	log := logger.New(cfg)

	deps, err := bootstrap.Build(context.Background(), cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize service")
	}
	defer deps.Close()

	im := deps.Importer()
	lambda.Start(func(ctx context.Context, event S3EventWrapper) (importer.Report, error) {
		return handle(ctx, im, event, cfg.IsLocal(), log)
	})
}
