package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/nmarks/cardrank/internal/models"
)

// Store handles all database operations
type Store struct {
	db *sql.DB
}

// New creates a new Store with SQLite
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate runs database migrations
func (s *Store) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS categories (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			color TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS cards (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			rating INTEGER NOT NULL DEFAULT 0,
			image_urls TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS card_categories (
			card_id INTEGER NOT NULL REFERENCES cards(id) ON DELETE CASCADE,
			category_id INTEGER NOT NULL REFERENCES categories(id) ON DELETE CASCADE,
			PRIMARY KEY (card_id, category_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_card_categories_category ON card_categories(category_id)`,
		`CREATE TABLE IF NOT EXISTS rankings (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			image_url TEXT NOT NULL DEFAULT '',
			tiers TEXT NOT NULL,
			filters TEXT NOT NULL DEFAULT '{}',
			share_code TEXT UNIQUE NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_rankings_share ON rankings(share_code)`,
		`CREATE TABLE IF NOT EXISTS ranking_cards (
			ranking_id INTEGER NOT NULL REFERENCES rankings(id) ON DELETE CASCADE,
			card_id INTEGER NOT NULL REFERENCES cards(id) ON DELETE CASCADE,
			placement INTEGER NOT NULL,
			tier TEXT NOT NULL,
			PRIMARY KEY (ranking_id, card_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_ranking_cards_card ON ranking_cards(card_id)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}

// --- Categories ---

// GetCategories returns all categories
func (s *Store) GetCategories() ([]models.Category, error) {
	rows, err := s.db.Query(`SELECT id, name, color FROM categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Color); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// GetCategory returns a category by ID
func (s *Store) GetCategory(id int64) (*models.Category, error) {
	var c models.Category
	err := s.db.QueryRow(`SELECT id, name, color FROM categories WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &c.Color)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateCategory creates a new category
func (s *Store) CreateCategory(req *models.CategoryCreate) (*models.Category, error) {
	res, err := s.db.Exec(`INSERT INTO categories (name, color) VALUES (?, ?)`, req.Name, req.Color)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &models.Category{ID: id, Name: req.Name, Color: req.Color}, nil
}

// UpdateCategory updates an existing category
func (s *Store) UpdateCategory(id int64, update *models.CategoryUpdate) error {
	sets := []string{}
	args := []interface{}{}

	if update.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *update.Name)
	}
	if update.Color != nil {
		sets = append(sets, "color = ?")
		args = append(args, *update.Color)
	}
	if len(sets) == 0 {
		return nil
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE categories SET %s WHERE id = ?", stringJoin(sets, ", "))
	_, err := s.db.Exec(query, args...)
	return err
}

// DeleteCategory deletes a category by ID
func (s *Store) DeleteCategory(id int64) error {
	_, err := s.db.Exec(`DELETE FROM categories WHERE id = ?`, id)
	return err
}

// --- Cards ---

// GetCards returns all cards with their categories
func (s *Store) GetCards() ([]models.Card, error) {
	rows, err := s.db.Query(`
		SELECT id, name, description, rating, image_urls
		FROM cards ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cards []models.Card
	for rows.Next() {
		var c models.Card
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.Rating, &c.ImageURLs); err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := s.attachCategories(cards); err != nil {
		return nil, err
	}
	return cards, nil
}

// GetCard returns a card by ID with its categories
func (s *Store) GetCard(id int64) (*models.Card, error) {
	var c models.Card
	err := s.db.QueryRow(`
		SELECT id, name, description, rating, image_urls
		FROM cards WHERE id = ?
	`, id).Scan(&c.ID, &c.Name, &c.Description, &c.Rating, &c.ImageURLs)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	cards := []models.Card{c}
	if err := s.attachCategories(cards); err != nil {
		return nil, err
	}
	return &cards[0], nil
}

// attachCategories loads the categories for every card in the slice
func (s *Store) attachCategories(cards []models.Card) error {
	if len(cards) == 0 {
		return nil
	}
	placeholders := make([]string, len(cards))
	args := make([]interface{}, len(cards))
	for i := range cards {
		placeholders[i] = "?"
		args[i] = cards[i].ID
	}
	rows, err := s.db.Query(`
		SELECT cc.card_id, cat.id, cat.name, cat.color
		FROM card_categories cc
		JOIN categories cat ON cat.id = cc.category_id
		WHERE cc.card_id IN (`+stringJoin(placeholders, ", ")+`)
		ORDER BY cat.name
	`, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	byCard := make(map[int64][]models.Category)
	for rows.Next() {
		var cardID int64
		var cat models.Category
		if err := rows.Scan(&cardID, &cat.ID, &cat.Name, &cat.Color); err != nil {
			return err
		}
		byCard[cardID] = append(byCard[cardID], cat)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	for i := range cards {
		cards[i].Categories = byCard[cards[i].ID]
	}
	return nil
}

// CreateCard creates a new card and links its categories
func (s *Store) CreateCard(req *models.CardCreate) (*models.Card, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		INSERT INTO cards (name, description, rating, image_urls)
		VALUES (?, ?, ?, ?)
	`, req.Name, req.Description, req.Rating, req.ImageURLs)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	for _, catID := range req.CategoryIDs {
		if _, err := tx.Exec(`INSERT INTO card_categories (card_id, category_id) VALUES (?, ?)`, id, catID); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return s.GetCard(id)
}

// UpdateCard updates an existing card; a non-nil CategoryIDs replaces the
// card's category links wholesale
func (s *Store) UpdateCard(id int64, update *models.CardUpdate) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	sets := []string{}
	args := []interface{}{}

	if update.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *update.Name)
	}
	if update.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *update.Description)
	}
	if update.Rating != nil {
		sets = append(sets, "rating = ?")
		args = append(args, *update.Rating)
	}
	if update.ImageURLs != nil {
		sets = append(sets, "image_urls = ?")
		args = append(args, *update.ImageURLs)
	}
	if len(sets) > 0 {
		args = append(args, id)
		query := fmt.Sprintf("UPDATE cards SET %s WHERE id = ?", stringJoin(sets, ", "))
		if _, err := tx.Exec(query, args...); err != nil {
			return err
		}
	}
	if update.CategoryIDs != nil {
		if _, err := tx.Exec(`DELETE FROM card_categories WHERE card_id = ?`, id); err != nil {
			return err
		}
		for _, catID := range *update.CategoryIDs {
			if _, err := tx.Exec(`INSERT INTO card_categories (card_id, category_id) VALUES (?, ?)`, id, catID); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

// DeleteCard deletes a card by ID
func (s *Store) DeleteCard(id int64) error {
	_, err := s.db.Exec(`DELETE FROM cards WHERE id = ?`, id)
	return err
}

// BulkCreateCards creates multiple cards in a transaction
func (s *Store) BulkCreateCards(cards []models.CardCreate) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO cards (name, description, rating, image_urls)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, c := range cards {
		res, err := stmt.Exec(c.Name, c.Description, c.Rating, c.ImageURLs)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		for _, catID := range c.CategoryIDs {
			if _, err := tx.Exec(`INSERT INTO card_categories (card_id, category_id) VALUES (?, ?)`, id, catID); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

// BestCards returns cards ordered by how well they place across all rankings:
// lowest average placement first, ties broken by appearance count
func (s *Store) BestCards(limit int) ([]models.BestCard, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`
		SELECT c.id, c.name, c.description, c.rating, c.image_urls,
		       COUNT(rc.ranking_id), AVG(rc.placement)
		FROM ranking_cards rc
		JOIN cards c ON c.id = rc.card_id
		GROUP BY c.id
		ORDER BY AVG(rc.placement) ASC, COUNT(rc.ranking_id) DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var best []models.BestCard
	for rows.Next() {
		var b models.BestCard
		err := rows.Scan(&b.Card.ID, &b.Card.Name, &b.Card.Description, &b.Card.Rating,
			&b.Card.ImageURLs, &b.Appearances, &b.AvgPlacement)
		if err != nil {
			return nil, err
		}
		best = append(best, b)
	}
	return best, rows.Err()
}

// --- Rankings ---

// generateShareCode creates a short unique share code
func generateShareCode() string {
	u := uuid.New()
	return u.String()[:8]
}

// CreateRanking creates a new ranking
func (s *Store) CreateRanking(req *models.RankingCreate) (*models.Ranking, error) {
	tiers := req.Tiers
	if tiers == "" {
		tiers = models.DefaultTiers()
	}
	filters := models.ParseFilters(req.Filters)
	filtersJSON, _ := json.Marshal(filters)
	shareCode := generateShareCode()
	now := time.Now()

	res, err := s.db.Exec(`
		INSERT INTO rankings (name, description, image_url, tiers, filters, share_code, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, req.Name, req.Description, req.ImageURL, tiers, string(filtersJSON), shareCode, now, now)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	return &models.Ranking{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		Tiers:       tiers,
		Filters:     filters,
		ShareCode:   shareCode,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// GetRankings returns summaries of all rankings
func (s *Store) GetRankings() ([]models.RankingSummary, error) {
	rows, err := s.db.Query(`
		SELECT r.id, r.name, r.image_url, r.tiers, r.share_code, r.updated_at,
		       (SELECT COUNT(*) FROM ranking_cards rc WHERE rc.ranking_id = r.id)
		FROM rankings r ORDER BY r.updated_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []models.RankingSummary
	for rows.Next() {
		var sum models.RankingSummary
		err := rows.Scan(&sum.ID, &sum.Name, &sum.ImageURL, &sum.Tiers,
			&sum.ShareCode, &sum.UpdatedAt, &sum.CardCount)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}

// GetRanking returns a ranking by ID with its pivot-annotated cards
func (s *Store) GetRanking(id int64) (*models.Ranking, error) {
	return s.getRanking(`WHERE id = ?`, id)
}

// GetRankingByShareCode returns a ranking by its share code
func (s *Store) GetRankingByShareCode(code string) (*models.Ranking, error) {
	return s.getRanking(`WHERE share_code = ?`, code)
}

func (s *Store) getRanking(where string, arg interface{}) (*models.Ranking, error) {
	var r models.Ranking
	var filtersStr string

	err := s.db.QueryRow(`
		SELECT id, name, description, image_url, tiers, filters, share_code, created_at, updated_at
		FROM rankings `+where, arg).Scan(&r.ID, &r.Name, &r.Description, &r.ImageURL,
		&r.Tiers, &filtersStr, &r.ShareCode, &r.CreatedAt, &r.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	r.Filters = models.ParseFilters(json.RawMessage(filtersStr))

	cards, err := s.getRankedCards(r.ID)
	if err != nil {
		return nil, err
	}
	r.Cards = cards
	return &r, nil
}

// getRankedCards returns the cards placed in a ranking, pivot attached,
// ordered by placement
func (s *Store) getRankedCards(rankingID int64) ([]models.RankedCard, error) {
	rows, err := s.db.Query(`
		SELECT c.id, c.name, c.description, c.rating, c.image_urls, rc.placement, rc.tier
		FROM ranking_cards rc
		JOIN cards c ON c.id = rc.card_id
		WHERE rc.ranking_id = ?
		ORDER BY rc.placement
	`, rankingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ranked []models.RankedCard
	for rows.Next() {
		var rc models.RankedCard
		err := rows.Scan(&rc.ID, &rc.Name, &rc.Description, &rc.Rating, &rc.ImageURLs,
			&rc.Pivot.Placement, &rc.Pivot.Tier)
		if err != nil {
			return nil, err
		}
		ranked = append(ranked, rc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	cards := make([]models.Card, len(ranked))
	for i := range ranked {
		cards[i] = ranked[i].Card
	}
	if err := s.attachCategories(cards); err != nil {
		return nil, err
	}
	for i := range ranked {
		ranked[i].Card = cards[i]
	}
	return ranked, nil
}

// UpdateRanking partially updates a ranking's metadata
func (s *Store) UpdateRanking(id int64, update *models.RankingUpdate) error {
	sets := []string{"updated_at = ?"}
	args := []interface{}{time.Now()}

	if update.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *update.Name)
	}
	if update.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *update.Description)
	}
	if update.ImageURL != nil {
		sets = append(sets, "image_url = ?")
		args = append(args, *update.ImageURL)
	}
	if update.Tiers != nil {
		sets = append(sets, "tiers = ?")
		args = append(args, *update.Tiers)
	}
	if update.Filters != nil {
		filtersJSON, _ := json.Marshal(models.ParseFilters(update.Filters))
		sets = append(sets, "filters = ?")
		args = append(args, string(filtersJSON))
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE rankings SET %s WHERE id = ?", stringJoin(sets, ", "))

	_, err := s.db.Exec(query, args...)
	return err
}

// DeleteRanking deletes a ranking by ID
func (s *Store) DeleteRanking(id int64) error {
	_, err := s.db.Exec(`DELETE FROM rankings WHERE id = ?`, id)
	return err
}

// ReplaceItems atomically replaces a ranking's entire card-placement set
func (s *Store) ReplaceItems(rankingID int64, items []models.RankingItem) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM ranking_cards WHERE ranking_id = ?`, rankingID); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`
		INSERT INTO ranking_cards (ranking_id, card_id, placement, tier)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, item := range items {
		if _, err := stmt.Exec(rankingID, item.CardID, item.Placement, item.Tier); err != nil {
			return err
		}
	}
	if _, err := tx.Exec(`UPDATE rankings SET updated_at = ? WHERE id = ?`, time.Now(), rankingID); err != nil {
		return err
	}

	return tx.Commit()
}

func stringJoin(strs []string, sep string) string {
	if len(strs) == 0 {
		return ""
	}
	result := strs[0]
	for i := 1; i < len(strs); i++ {
		result += sep + strs[i]
	}
	return result
}
