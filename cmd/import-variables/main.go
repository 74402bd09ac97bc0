// Command import-variables bulk-loads catalog variables from a CSV
// export. Expected columns: code, label, type, options, category.
// Options are pipe-separated and only honored for select variables.
package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/courtier-app/premiumservice/internal/catalog"
	"github.com/courtier-app/premiumservice/internal/catalog/postgres"
	"github.com/courtier-app/premiumservice/internal/domain"
	"github.com/courtier-app/premiumservice/internal/shared/config"
	"github.com/courtier-app/premiumservice/internal/shared/db"
	sharedlog "github.com/courtier-app/premiumservice/internal/shared/log"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: import-variables <csv-file-path>")
	}
	csvFilePath := os.Args[1]

	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := sharedlog.Init(cfg.Log.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	ctx := context.Background()

	pool, err := db.NewPool(ctx, &db.Config{
		DSN:      cfg.Postgres.DSN,
		MaxConns: cfg.Postgres.MaxConns,
	})
	if err != nil {
		log.Fatalf("Failed to create database pool: %v", err)
	}
	defer pool.Close()

	store, err := postgres.NewStore(pool.Pool)
	if err != nil {
		log.Fatalf("Failed to create catalog store: %v", err)
	}

	variables, err := readVariablesFromCSV(csvFilePath)
	if err != nil {
		log.Fatalf("Failed to read variables from CSV: %v", err)
	}
	fmt.Printf("Loaded %d variables from CSV\n", len(variables))

	imported, skipped := 0, 0
	for _, v := range variables {
		if _, err := store.Insert(ctx, v); err != nil {
			if domain.HasCode(err, domain.ErrCodeAlreadyExists) {
				fmt.Printf("Skipping existing variable: %s\n", v.Code)
				skipped++
				continue
			}
			log.Fatalf("Failed to import variable %s: %v", v.Code, err)
		}
		imported++
	}

	fmt.Printf("Successfully imported %d variables (%d already present)\n", imported, skipped)
}

func readVariablesFromCSV(filePath string) ([]catalog.Variable, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)

	// Skip header row
	if _, err := reader.Read(); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	var variables []catalog.Variable
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV record: %w", err)
		}

		if len(record) < 5 {
			continue // Skip incomplete records
		}

		v := catalog.Variable{
			Code:     catalog.NormalizeCode(record[0]),
			Label:    strings.TrimSpace(record[1]),
			Type:     catalog.VariableType(strings.ToLower(strings.TrimSpace(record[2]))),
			Category: strings.TrimSpace(record[4]),
			IsActive: true,
		}
		if opts := strings.TrimSpace(record[3]); opts != "" && v.Type == catalog.TypeSelect {
			v.Options = strings.Split(opts, "|")
		}

		if err := v.Validate(); err != nil {
			fmt.Printf("Warning: skipping invalid variable %s: %v\n", v.Code, err)
			continue
		}

		variables = append(variables, v)
	}

	return variables, nil
}
