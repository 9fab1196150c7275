package main

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/rs/zerolog"

	"gitlab.connectwisedev.com/inventory-service/pkg/bootstrap"
	"gitlab.connectwisedev.com/inventory-service/pkg/config"
)

func s3Event() S3EventWrapper {
	return S3EventWrapper{Records: []events.S3EventRecord{{
		S3: events.S3Entity{
			Bucket: events.S3Bucket{Name: "uploads"},
			Object: events.S3Object{Key: "products.csv"},
		},
	}}}
}

func TestCSVPayload(t *testing.T) {
	log := zerolog.Nop()
	noFile := func(string) ([]byte, error) { return nil, os.ErrNotExist }

	got, err := csvPayload(S3EventWrapper{CSVData: "a,b"}, false, noFile, log)
	if err != nil || string(got) != "a,b" {
		t.Fatalf("direct payload: %q %v", got, err)
	}

	if _, err := csvPayload(S3EventWrapper{}, true, noFile, log); !errors.Is(err, errNoPayload) {
		t.Fatalf("expected errNoPayload, got %v", err)
	}

	if _, err := csvPayload(s3Event(), false, noFile, log); err == nil || !strings.Contains(err.Error(), "uploads") {
		t.Fatalf("expected S3 error outside local, got %v", err)
	}

	var read string
	got, err = csvPayload(s3Event(), true, func(name string) ([]byte, error) {
		read = name
		return []byte("x"), nil
	}, log)
	if err != nil || read != localCSV || string(got) != "x" {
		t.Fatalf("local simulation: %q %q %v", read, got, err)
	}

	if _, err := csvPayload(s3Event(), true, noFile, log); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected wrapped read error, got %v", err)
	}
}

func TestHandleImportsDirectPayload(t *testing.T) {
	ctx := context.Background()
	deps, err := bootstrap.Build(ctx, config.Config{StorageDriver: config.DriverMemory}, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	defer deps.Close()

	pt, err := deps.Catalog.CreateProductType(ctx, "Snacks")
	if err != nil {
		t.Fatal(err)
	}
	csv := "productName,stock,price,productTypeId\n" +
		"Chips,10,3," + pt.ID.String() + "\n" +
		"Nuts,oops,3," + pt.ID.String() + "\n"

	rep, err := handle(ctx, deps.Importer(), S3EventWrapper{CSVData: csv}, false, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if rep.Created != 1 || rep.Updated != 0 || len(rep.Skipped) != 1 || rep.Skipped[0].Line != 3 {
		t.Fatalf("unexpected report %+v", rep)
	}
}
