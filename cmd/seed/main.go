package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"path/filepath"

	"github.com/nmarks/cardrank/internal/models"
	"github.com/nmarks/cardrank/internal/storage"
)

type seedFile struct {
	Categories []models.CategoryCreate `json:"categories"`
	Cards      []models.CardCreate     `json:"cards"`
	Rankings   []models.RankingCreate  `json:"rankings"`
}

func main() {
	dbPath := flag.String("db", "./cardrank.db", "SQLite database path")
	seedsDir := flag.String("seeds", "./seeds", "Seeds directory")
	flag.Parse()

	store, err := storage.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer store.Close()

	entries, err := os.ReadDir(*seedsDir)
	if err != nil {
		log.Fatalf("Failed to read seeds directory: %v", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		path := filepath.Join(*seedsDir, entry.Name())
		if err := seed(store, path); err != nil {
			log.Printf("Warning: failed to seed %s: %v", entry.Name(), err)
		} else {
			log.Printf("✓ Seeded from %s", entry.Name())
		}
	}

	log.Println("🌱 Seeding complete!")
}

func seed(store *storage.Store, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var sf seedFile
	if err := json.Unmarshal(data, &sf); err != nil {
		return err
	}

	for i := range sf.Categories {
		if _, err := store.CreateCategory(&sf.Categories[i]); err != nil {
			return err
		}
	}
	if len(sf.Cards) > 0 {
		if err := store.BulkCreateCards(sf.Cards); err != nil {
			return err
		}
	}
	for i := range sf.Rankings {
		if _, err := store.CreateRanking(&sf.Rankings[i]); err != nil {
			return err
		}
	}
	return nil
}
