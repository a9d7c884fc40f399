package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"strings"

	"github.com/nmarks/cardrank/internal/models"
	"github.com/nmarks/cardrank/internal/storage"
)

// CardDump is the external dump format: category references by name, images
// as a plain list.
type CardDump struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Rating      int      `json:"rating"`
	Categories  []string `json:"categories"`
	Images      []string `json:"images"`
}

type dumpRoot struct {
	Cards []CardDump `json:"cards"`
}

func main() {
	dbPath := flag.String("db", "./cardrank.db", "SQLite database path")
	dumpPath := flag.String("cards", "data/cards.json", "Cards JSON dump path")
	flag.Parse()

	data, err := os.ReadFile(*dumpPath)
	if err != nil {
		log.Fatalf("Failed to read cards dump: %v", err)
	}

	var root dumpRoot
	if err := json.Unmarshal(data, &root); err != nil {
		log.Fatalf("Failed to parse cards dump: %v", err)
	}

	store, err := storage.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer store.Close()

	categoryIDs, err := ensureCategories(store, root.Cards)
	if err != nil {
		log.Fatalf("Failed to create categories: %v", err)
	}

	creates := make([]models.CardCreate, 0, len(root.Cards))
	skipped := 0
	for _, dump := range root.Cards {
		if dump.Name == "" {
			skipped++
			continue
		}
		rating := dump.Rating
		if rating < 0 {
			rating = 0
		}
		if rating > 10 {
			rating = 10
		}
		var catIDs []int64
		for _, name := range dump.Categories {
			if len(catIDs) == models.MaxCardCategories {
				break
			}
			if id, ok := categoryIDs[name]; ok {
				catIDs = append(catIDs, id)
			}
		}
		creates = append(creates, models.CardCreate{
			Name:        dump.Name,
			Description: dump.Description,
			Rating:      rating,
			CategoryIDs: catIDs,
			ImageURLs:   strings.Join(dump.Images, ";"),
		})
	}

	if err := store.BulkCreateCards(creates); err != nil {
		log.Fatalf("Failed to import cards: %v", err)
	}

	log.Printf("✓ Imported %d cards (%d skipped)", len(creates), skipped)
}

// ensureCategories creates any category name referenced by the dump that the
// database does not know yet, and returns the full name -> id mapping.
func ensureCategories(store *storage.Store, cards []CardDump) (map[string]int64, error) {
	existing, err := store.GetCategories()
	if err != nil {
		return nil, err
	}
	byName := make(map[string]int64, len(existing))
	for _, c := range existing {
		byName[c.Name] = c.ID
	}

	for _, dump := range cards {
		for _, name := range dump.Categories {
			if name == "" {
				continue
			}
			if _, ok := byName[name]; ok {
				continue
			}
			created, err := store.CreateCategory(&models.CategoryCreate{Name: name})
			if err != nil {
				return nil, err
			}
			byName[name] = created.ID
		}
	}
	return byName, nil
}
