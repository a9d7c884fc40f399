package models

import "strings"

// Card represents a rateable item that can be placed in ranking tiers
type Card struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Rating      int        `json:"rating"` // 0-10
	Categories  []Category `json:"categories"`
	ImageURLs   string     `json:"image_urls"` // semicolon-joined URL list
}

// MaxCardCategories bounds how many categories a single card may carry.
const MaxCardCategories = 4

// CategoryIDs returns the ids of the card's categories.
func (c *Card) CategoryIDs() []int64 {
	ids := make([]int64, 0, len(c.Categories))
	for _, cat := range c.Categories {
		ids = append(ids, cat.ID)
	}
	return ids
}

// HasCategory reports whether the card carries the given category id.
func (c *Card) HasCategory(id int64) bool {
	for _, cat := range c.Categories {
		if cat.ID == id {
			return true
		}
	}
	return false
}

// Images splits the image_urls field into individual URLs.
func (c *Card) Images() []string {
	var out []string
	for _, u := range strings.Split(c.ImageURLs, ";") {
		if u = strings.TrimSpace(u); u != "" {
			out = append(out, u)
		}
	}
	return out
}

// CardCreate is the request body for creating a card
type CardCreate struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Rating      int     `json:"rating"`
	CategoryIDs []int64 `json:"category_ids"`
	ImageURLs   string  `json:"image_urls"`
}

// CardUpdate is the request body for updating a card
type CardUpdate struct {
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	Rating      *int     `json:"rating,omitempty"`
	CategoryIDs *[]int64 `json:"category_ids,omitempty"`
	ImageURLs   *string  `json:"image_urls,omitempty"`
}

// Category is a named, colored tag attached to cards
type Category struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// CategoryCreate is the request body for creating a category
type CategoryCreate struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// CategoryUpdate is the request body for updating a category
type CategoryUpdate struct {
	Name  *string `json:"name,omitempty"`
	Color *string `json:"color,omitempty"`
}

// BestCard is one row of the best-ranked-cards aggregation
type BestCard struct {
	Card         Card    `json:"card"`
	Appearances  int     `json:"appearances"`
	AvgPlacement float64 `json:"avg_placement"`
}
