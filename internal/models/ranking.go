package models

import (
	"encoding/json"
	"time"
)

// Rating comparison operators accepted in RankingFilters.RatingParam.
const (
	RatingLTE = "lte"
	RatingEQ  = "eq"
	RatingGTE = "gte"
)

// Ranking represents a named tier-list board over a filtered subset of cards
type Ranking struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	ImageURL    string          `json:"image_url"`
	Tiers       string          `json:"tiers"` // semicolon-joined tier names, e.g. "S;A;B"
	Filters     *RankingFilters `json:"filters"`
	ShareCode   string          `json:"share_code"`
	Cards       []RankedCard    `json:"cards,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// RankedCard is a card fetched in the context of a ranking, carrying its
// placement pivot for that ranking
type RankedCard struct {
	Card
	Pivot Pivot `json:"pivot"`
}

// Pivot holds per-ranking placement metadata for a card
type Pivot struct {
	Placement int    `json:"placement"`
	Tier      string `json:"tier"`
}

// RankingItem is the wire record for one placed card
type RankingItem struct {
	CardID    int64  `json:"card_id"`
	Placement int    `json:"placement"`
	Tier      string `json:"tier"`
}

// RankingFilters restricts which cards are eligible for a ranking. A card is
// eligible only if it carries every id in CategoryIDs and, when Rating is set,
// its own rating compares against it per RatingParam.
type RankingFilters struct {
	CategoryIDs []int64 `json:"category_ids"`
	Rating      *int    `json:"rating"`
	RatingParam string  `json:"rating_param"` // lte | eq | gte, defaults to eq
}

// ParseFilters decodes a stored filters blob. The field may arrive as a JSON
// object, a JSON-encoded string of an object, or null/empty; anything that
// fails to parse yields empty filters rather than an error.
func ParseFilters(raw json.RawMessage) *RankingFilters {
	f := &RankingFilters{}
	if len(raw) == 0 {
		return f
	}
	if err := json.Unmarshal(raw, f); err == nil {
		return f
	}
	// Double-encoded: a JSON string whose contents are the object.
	var s string
	if err := json.Unmarshal(raw, &s); err == nil && s != "" {
		inner := &RankingFilters{}
		if err := json.Unmarshal([]byte(s), inner); err == nil {
			return inner
		}
	}
	return &RankingFilters{}
}

// RankingCreate is the request body for creating a ranking
type RankingCreate struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	ImageURL    string          `json:"image_url"`
	Tiers       string          `json:"tiers"`
	Filters     json.RawMessage `json:"filters"`
}

// RankingUpdate is the request body for partially updating ranking metadata
type RankingUpdate struct {
	Name        *string         `json:"name,omitempty"`
	Description *string         `json:"description,omitempty"`
	ImageURL    *string         `json:"image_url,omitempty"`
	Tiers       *string         `json:"tiers,omitempty"`
	Filters     json.RawMessage `json:"filters,omitempty"`
}

// RankingSummary is a lightweight version for listings
type RankingSummary struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	ImageURL  string    `json:"image_url"`
	Tiers     string    `json:"tiers"`
	ShareCode string    `json:"share_code"`
	CardCount int       `json:"card_count"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DefaultTiers is the tier string new rankings start with when none is given.
func DefaultTiers() string {
	return "S;A;B;C;D;F"
}
