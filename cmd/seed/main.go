package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/ikkim/dishshot-intake/config"
	"github.com/ikkim/dishshot-intake/internal/app/model"
	"github.com/ikkim/dishshot-intake/internal/app/repository"
	"github.com/ikkim/dishshot-intake/internal/db"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// Column order: restaurant name, submitter, email, phone, auth user id.
const (
	colRestaurantName = iota
	colSubmitterName
	colEmail
	colPhone
	colAuthUserID
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: go run cmd/seed/main.go <xlsx_file_path>")
	}

	filePath := os.Args[1]

	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	// Connect to DB
	if err := db.Initialize(&cfg.Database); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	clientRepo := repository.NewClientRepository(db.GetDB())

	// Read XLSX
	fmt.Printf("Reading XLSX file: %s\n", filePath)
	clients, skipped, err := readClientsFromXLSX(filePath)
	if err != nil {
		log.Fatal("Failed to read XLSX:", err)
	}

	fmt.Printf("Total clients to import: %d (skipped rows: %d)\n", len(clients), skipped)

	// Confirm
	fmt.Print("Do you want to proceed with the import? (yes/no): ")
	var confirm string
	fmt.Scanln(&confirm)
	if confirm != "yes" && confirm != "y" {
		fmt.Println("Import cancelled.")
		return
	}

	created, existing, err := importClients(context.Background(), clientRepo, clients)
	if err != nil {
		log.Fatal("Failed to import clients:", err)
	}

	fmt.Println("Import completed successfully!")
	fmt.Printf("Clients created: %d, already present: %d\n", created, existing)
}

func readClientsFromXLSX(filePath string) ([]model.Client, int, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	// First sheet only
	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, 0, fmt.Errorf("no sheets found in XLSX file")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, 0, fmt.Errorf("no data found in XLSX file")
	}

	clients, skipped := parseClientRows(rows[1:])
	return clients, skipped, nil
}

// parseClientRows skips rows without a restaurant name and repeated names.
func parseClientRows(rows [][]string) ([]model.Client, int) {
	var clients []model.Client
	seen := make(map[string]bool)
	skipped := 0

	for _, row := range rows {
		name := cell(row, colRestaurantName)
		key := strings.ToLower(name)
		if name == "" || seen[key] {
			skipped++
			continue
		}
		seen[key] = true

		client := model.Client{
			ID:             uuid.New().String(),
			RestaurantName: name,
			SubmitterName:  cell(row, colSubmitterName),
			Email:          cell(row, colEmail),
			Phone:          cell(row, colPhone),
		}
		if client.Email == "" {
			client.Email = model.PlaceholderEmail
		}
		if client.Phone == "" {
			client.Phone = model.PlaceholderPhone
		}
		if authID := cell(row, colAuthUserID); authID != "" {
			client.AuthUserID = &authID
		}
		clients = append(clients, client)
	}
	return clients, skipped
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// importClients creates clients whose restaurant name is not in the database yet.
func importClients(ctx context.Context, repo repository.ClientRepository, clients []model.Client) (created, existing int, err error) {
	for i := range clients {
		_, err := repo.FindByRestaurantName(ctx, clients[i].RestaurantName)
		if err == nil {
			existing++
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return created, existing, err
		}
		if err := repo.Create(ctx, &clients[i]); err != nil {
			return created, existing, fmt.Errorf("failed to create %s: %w", clients[i].RestaurantName, err)
		}
		created++
	}
	return created, existing, nil
}
