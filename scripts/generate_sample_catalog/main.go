package main

import (
	"compress/gzip"
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
)

// Writes two overlapping catalogue feeds. The second feed reprices I002, so
// seeding both in order leaves I002 at 3.20.
func main() {
	dataDir := "data/catalog"

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		log.Fatalf("Failed to create directory: %v", err)
	}

	feeds := map[string][][]string{
		"items1.csv.gz": {
			{"I001", "Espresso", "2.50", "coffee"},
			{"I002", "Croissant", "3.10", "bakery"},
			{"I003", "Blueberry Muffin", "2.95", "bakery"},
			{"I004", "Flat White", "3.40", "coffee"},
		},
		"items2.csv.gz": {
			{"I002", "Croissant", "3.20", "bakery"},
			{"I005", "Oat Latte", "3.85", "coffee"},
			{"I006", "Banana Bread", "2.75", "bakery"},
		},
	}

	for filename, rows := range feeds {
		filePath := filepath.Join(dataDir, filename)

		if err := writeFeed(filePath, rows); err != nil {
			log.Fatalf("Failed to create %s: %v", filename, err)
		}

		fmt.Printf("Created %s with %d items\n", filePath, len(rows))
	}

	fmt.Println("\nSet CATALOG_SEED_FILES=data/catalog/items1.csv.gz,data/catalog/items2.csv.gz to seed them.")
}

func writeFeed(path string, rows [][]string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	gz := gzip.NewWriter(file)
	w := csv.NewWriter(gz)

	if err := w.Write([]string{"id", "name", "price", "category"}); err != nil {
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		return err
	}

	return gz.Close()
}
