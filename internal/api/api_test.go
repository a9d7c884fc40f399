package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nmarks/cardrank/internal/models"
	"github.com/nmarks/cardrank/internal/storage"
)

func newTestServer(t *testing.T) (*Server, *storage.Store) {
	t.Helper()
	store, err := storage.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return New(store), store
}

func doRequest(t *testing.T, s *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func seedRanking(t *testing.T, s *Server, store *storage.Store, tiers string, cardNames ...string) (*models.Ranking, []*models.Card) {
	t.Helper()
	var cards []*models.Card
	for _, name := range cardNames {
		card, err := store.CreateCard(&models.CardCreate{Name: name, Rating: 5})
		require.NoError(t, err)
		cards = append(cards, card)
	}
	r, err := store.CreateRanking(&models.RankingCreate{Name: "Test board", Tiers: tiers})
	require.NoError(t, err)
	return r, cards
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doRequest(t, s, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCardLifecycle(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/api/categories", models.CategoryCreate{Name: "Dragons", Color: "#f00"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var cat models.Category
	decodeBody(t, rec, &cat)

	rec = doRequest(t, s, http.MethodPost, "/api/cards", models.CardCreate{
		Name:        "Bahamut",
		Rating:      9,
		CategoryIDs: []int64{cat.ID},
		ImageURLs:   "a.png;b.png",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var card models.Card
	decodeBody(t, rec, &card)
	assert.Len(t, card.Categories, 1)

	rec = doRequest(t, s, http.MethodGet, fmt.Sprintf("/api/cards/%d", card.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	newRating := 7
	rec = doRequest(t, s, http.MethodPut, fmt.Sprintf("/api/cards/%d", card.ID), models.CardUpdate{Rating: &newRating})
	require.Equal(t, http.StatusOK, rec.Code)
	var updated models.Card
	decodeBody(t, rec, &updated)
	assert.Equal(t, 7, updated.Rating)

	rec = doRequest(t, s, http.MethodDelete, fmt.Sprintf("/api/cards/%d", card.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, s, http.MethodGet, fmt.Sprintf("/api/cards/%d", card.ID), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCardValidation(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/api/cards", models.CardCreate{Name: "", Rating: 5})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, s, http.MethodPost, "/api/cards", models.CardCreate{Name: "X", Rating: 11})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, s, http.MethodPost, "/api/cards", models.CardCreate{
		Name: "X", Rating: 5, CategoryIDs: []int64{1, 2, 3, 4, 5},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "more than four categories rejected")
}

func TestRankingMetadataUpdate(t *testing.T) {
	s, store := newTestServer(t)
	r, _ := seedRanking(t, s, store, "S;A")

	rec := doRequest(t, s, http.MethodPatch, fmt.Sprintf("/api/rankings/%d", r.ID), map[string]interface{}{
		"description": "updated",
		"filters":     map[string]interface{}{"category_ids": []int64{}, "rating": 7, "rating_param": "gte"},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var updated models.Ranking
	decodeBody(t, rec, &updated)
	assert.Equal(t, "updated", updated.Description)
	require.NotNil(t, updated.Filters.Rating)
	assert.Equal(t, 7, *updated.Filters.Rating)

	empty := ""
	rec = doRequest(t, s, http.MethodPatch, fmt.Sprintf("/api/rankings/%d", r.ID), models.RankingUpdate{Tiers: &empty})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "tiers must keep at least one tier")
}

func TestBoardMoveAndSerialize(t *testing.T) {
	s, store := newTestServer(t)
	r, cards := seedRanking(t, s, store, "S;A", "One", "Two")

	for i, card := range cards {
		rec := doRequest(t, s, http.MethodPost, fmt.Sprintf("/api/rankings/%d/board/move", r.ID), map[string]interface{}{
			"card_id": card.ID, "tier": "S", "index": i,
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	rec := doRequest(t, s, http.MethodPost, fmt.Sprintf("/api/rankings/%d/board/move", r.ID), map[string]interface{}{
		"card_id": cards[1].ID, "tier": "A", "index": 0,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var updated models.Ranking
	decodeBody(t, rec, &updated)
	require.Len(t, updated.Cards, 2)
	assert.Equal(t, cards[0].ID, updated.Cards[0].ID)
	assert.Equal(t, models.Pivot{Placement: 1, Tier: "S"}, updated.Cards[0].Pivot)
	assert.Equal(t, cards[1].ID, updated.Cards[1].ID)
	assert.Equal(t, models.Pivot{Placement: 2, Tier: "A"}, updated.Cards[1].Pivot)
}

func TestBoardMoveRejectsFilteredOutCard(t *testing.T) {
	s, store := newTestServer(t)

	card, err := store.CreateCard(&models.CardCreate{Name: "Weak", Rating: 2})
	require.NoError(t, err)
	r, err := store.CreateRanking(&models.RankingCreate{
		Name:    "High only",
		Tiers:   "S",
		Filters: json.RawMessage(`{"category_ids":[],"rating":7,"rating_param":"gte"}`),
	})
	require.NoError(t, err)

	rec := doRequest(t, s, http.MethodPost, fmt.Sprintf("/api/rankings/%d/board/move", r.ID), map[string]interface{}{
		"card_id": card.ID, "tier": "S", "index": 0,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBoardTierOperations(t *testing.T) {
	s, store := newTestServer(t)
	r, cards := seedRanking(t, s, store, "S;A", "One")

	require.NoError(t, store.ReplaceItems(r.ID, []models.RankingItem{
		{CardID: cards[0].ID, Placement: 1, Tier: "A"},
	}))

	// Add a colliding tier name.
	rec := doRequest(t, s, http.MethodPost, fmt.Sprintf("/api/rankings/%d/board/tiers", r.ID), map[string]interface{}{
		"name": "S", "index": 2,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var updated models.Ranking
	decodeBody(t, rec, &updated)
	assert.Equal(t, "S;A;S (2)", updated.Tiers)

	// Rename A.
	rec = doRequest(t, s, http.MethodPost, fmt.Sprintf("/api/rankings/%d/board/tiers/1/rename", r.ID), map[string]interface{}{
		"name": "Mid",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &updated)
	assert.Equal(t, "S;Mid;S (2)", updated.Tiers)
	require.Len(t, updated.Cards, 1)
	assert.Equal(t, "Mid", updated.Cards[0].Pivot.Tier, "renamed tier keeps its cards")

	// Move Mid up.
	rec = doRequest(t, s, http.MethodPost, fmt.Sprintf("/api/rankings/%d/board/tiers/1/move", r.ID), map[string]interface{}{
		"delta": -1,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &updated)
	assert.Equal(t, "Mid;S;S (2)", updated.Tiers)

	// Delete Mid; its card orphans into the new first tier.
	rec = doRequest(t, s, http.MethodDelete, fmt.Sprintf("/api/rankings/%d/board/tiers/0", r.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &updated)
	assert.Equal(t, "S;S (2)", updated.Tiers)
	require.Len(t, updated.Cards, 1)
	assert.Equal(t, "S", updated.Cards[0].Pivot.Tier)
}

func TestBoardRenameTierRejectsInvalidName(t *testing.T) {
	s, store := newTestServer(t)
	r, _ := seedRanking(t, s, store, "S;A", "One")

	rec := doRequest(t, s, http.MethodPost, fmt.Sprintf("/api/rankings/%d/board/tiers/0/rename", r.ID), map[string]interface{}{
		"name": strings.Repeat("x", 60),
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, s, http.MethodPost, fmt.Sprintf("/api/rankings/%d/board/tiers/0/rename", r.ID), map[string]interface{}{
		"name": "Top;Bottom",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	stored, err := store.GetRanking(r.ID)
	require.NoError(t, err)
	assert.Equal(t, "S;A", stored.Tiers, "rejected renames persist nothing")
}

func TestBoardUnplace(t *testing.T) {
	s, store := newTestServer(t)
	r, cards := seedRanking(t, s, store, "S", "One")
	require.NoError(t, store.ReplaceItems(r.ID, []models.RankingItem{
		{CardID: cards[0].ID, Placement: 1, Tier: "S"},
	}))

	rec := doRequest(t, s, http.MethodPost, fmt.Sprintf("/api/rankings/%d/board/unplace", r.ID), map[string]interface{}{
		"card_id": cards[0].ID,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var updated models.Ranking
	decodeBody(t, rec, &updated)
	assert.Empty(t, updated.Cards)
}

func TestReplaceItemsNormalizes(t *testing.T) {
	s, store := newTestServer(t)
	r, cards := seedRanking(t, s, store, "S;A", "One", "Two")

	// Gapped placements and an unknown tier come back renumbered, with the
	// unknown tier resolved to the first one.
	rec := doRequest(t, s, http.MethodPut, fmt.Sprintf("/api/rankings/%d/items", r.ID), map[string]interface{}{
		"items": []models.RankingItem{
			{CardID: cards[0].ID, Placement: 7, Tier: "A"},
			{CardID: cards[1].ID, Placement: 3, Tier: "Nope"},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var updated models.Ranking
	decodeBody(t, rec, &updated)
	require.Len(t, updated.Cards, 2)
	assert.Equal(t, cards[1].ID, updated.Cards[0].ID)
	assert.Equal(t, models.Pivot{Placement: 1, Tier: "S"}, updated.Cards[0].Pivot)
	assert.Equal(t, models.Pivot{Placement: 2, Tier: "A"}, updated.Cards[1].Pivot)
}

func TestPoolEndpoint(t *testing.T) {
	s, store := newTestServer(t)
	r, cards := seedRanking(t, s, store, "S", "One", "Two")
	require.NoError(t, store.ReplaceItems(r.ID, []models.RankingItem{
		{CardID: cards[0].ID, Placement: 1, Tier: "S"},
	}))

	rec := doRequest(t, s, http.MethodGet, fmt.Sprintf("/api/rankings/%d/pool", r.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Cards      []models.Card `json:"cards"`
		TotalCount int           `json:"total_count"`
	}
	decodeBody(t, rec, &body)
	require.Equal(t, 1, body.TotalCount)
	assert.Equal(t, cards[1].ID, body.Cards[0].ID)
}

func TestShareCodeLookup(t *testing.T) {
	s, store := newTestServer(t)
	r, _ := seedRanking(t, s, store, "S")

	rec := doRequest(t, s, http.MethodGet, "/s/"+r.ShareCode, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var fetched models.Ranking
	decodeBody(t, rec, &fetched)
	assert.Equal(t, r.ID, fetched.ID)

	rec = doRequest(t, s, http.MethodGet, "/s/unknown", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBestCardsEndpoint(t *testing.T) {
	s, store := newTestServer(t)
	r, cards := seedRanking(t, s, store, "S;A", "Hero", "Filler")
	require.NoError(t, store.ReplaceItems(r.ID, []models.RankingItem{
		{CardID: cards[0].ID, Placement: 1, Tier: "S"},
		{CardID: cards[1].ID, Placement: 2, Tier: "A"},
	}))

	rec := doRequest(t, s, http.MethodGet, "/api/cards/best?limit=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var best []models.BestCard
	decodeBody(t, rec, &best)
	require.Len(t, best, 1)
	assert.Equal(t, cards[0].ID, best[0].Card.ID)
}

func TestRankingNotFound(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/rankings/999", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, s, http.MethodGet, "/api/rankings/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
