package storage

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nmarks/cardrank/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func createCard(t *testing.T, store *Store, name string, rating int, catIDs ...int64) *models.Card {
	t.Helper()
	card, err := store.CreateCard(&models.CardCreate{
		Name:        name,
		Rating:      rating,
		CategoryIDs: catIDs,
	})
	require.NoError(t, err)
	return card
}

func TestCategoryCRUD(t *testing.T) {
	store := newTestStore(t)

	created, err := store.CreateCategory(&models.CategoryCreate{Name: "Dragons", Color: "#ff0000"})
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	fetched, err := store.GetCategory(created.ID)
	require.NoError(t, err)
	require.NotNil(t, fetched)
	assert.Equal(t, "Dragons", fetched.Name)
	assert.Equal(t, "#ff0000", fetched.Color)

	newName := "Wyrms"
	require.NoError(t, store.UpdateCategory(created.ID, &models.CategoryUpdate{Name: &newName}))
	fetched, err = store.GetCategory(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Wyrms", fetched.Name)
	assert.Equal(t, "#ff0000", fetched.Color, "color untouched by partial update")

	require.NoError(t, store.DeleteCategory(created.ID))
	fetched, err = store.GetCategory(created.ID)
	require.NoError(t, err)
	assert.Nil(t, fetched)
}

func TestCardCRUDWithCategories(t *testing.T) {
	store := newTestStore(t)

	cat1, err := store.CreateCategory(&models.CategoryCreate{Name: "Dragons"})
	require.NoError(t, err)
	cat2, err := store.CreateCategory(&models.CategoryCreate{Name: "Spells"})
	require.NoError(t, err)

	card := createCard(t, store, "Bahamut", 9, cat1.ID, cat2.ID)
	require.Len(t, card.Categories, 2)

	fetched, err := store.GetCard(card.ID)
	require.NoError(t, err)
	require.NotNil(t, fetched)
	assert.Equal(t, 9, fetched.Rating)
	assert.ElementsMatch(t, []int64{cat1.ID, cat2.ID}, fetched.CategoryIDs())

	// Replacing category links wholesale.
	newCats := []int64{cat2.ID}
	require.NoError(t, store.UpdateCard(card.ID, &models.CardUpdate{CategoryIDs: &newCats}))
	fetched, err = store.GetCard(card.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{cat2.ID}, fetched.CategoryIDs())

	require.NoError(t, store.DeleteCard(card.ID))
	fetched, err = store.GetCard(card.ID)
	require.NoError(t, err)
	assert.Nil(t, fetched)
}

func TestGetCardScopesCategoriesToCard(t *testing.T) {
	store := newTestStore(t)

	cat1, err := store.CreateCategory(&models.CategoryCreate{Name: "Dragons"})
	require.NoError(t, err)
	cat2, err := store.CreateCategory(&models.CategoryCreate{Name: "Spells"})
	require.NoError(t, err)

	first := createCard(t, store, "Bahamut", 9, cat1.ID)
	second := createCard(t, store, "Meteor", 7, cat2.ID)

	fetched, err := store.GetCard(first.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{cat1.ID}, fetched.CategoryIDs())

	fetched, err = store.GetCard(second.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{cat2.ID}, fetched.CategoryIDs())
}

func TestBulkCreateCards(t *testing.T) {
	store := newTestStore(t)

	cat, err := store.CreateCategory(&models.CategoryCreate{Name: "Dragons"})
	require.NoError(t, err)

	err = store.BulkCreateCards([]models.CardCreate{
		{Name: "One", Rating: 1, CategoryIDs: []int64{cat.ID}},
		{Name: "Two", Rating: 2},
		{Name: "Three", Rating: 3},
	})
	require.NoError(t, err)

	cards, err := store.GetCards()
	require.NoError(t, err)
	assert.Len(t, cards, 3)
}

func TestRankingCreateDefaultsTiers(t *testing.T) {
	store := newTestStore(t)

	r, err := store.CreateRanking(&models.RankingCreate{Name: "Best dragons"})
	require.NoError(t, err)

	assert.Equal(t, models.DefaultTiers(), r.Tiers)
	assert.NotEmpty(t, r.ShareCode)

	fetched, err := store.GetRanking(r.ID)
	require.NoError(t, err)
	require.NotNil(t, fetched)
	assert.Equal(t, r.Tiers, fetched.Tiers)
	assert.Empty(t, fetched.Cards)
}

func TestRankingFiltersRoundTrip(t *testing.T) {
	store := newTestStore(t)

	r, err := store.CreateRanking(&models.RankingCreate{
		Name:    "High rated",
		Tiers:   "S;A",
		Filters: json.RawMessage(`{"category_ids":[1],"rating":7,"rating_param":"gte"}`),
	})
	require.NoError(t, err)

	fetched, err := store.GetRanking(r.ID)
	require.NoError(t, err)
	require.NotNil(t, fetched.Filters)
	assert.Equal(t, []int64{1}, fetched.Filters.CategoryIDs)
	require.NotNil(t, fetched.Filters.Rating)
	assert.Equal(t, 7, *fetched.Filters.Rating)

	// A double-encoded filters blob on update is tolerated.
	require.NoError(t, store.UpdateRanking(r.ID, &models.RankingUpdate{
		Filters: json.RawMessage(`"{\"category_ids\":[2],\"rating\":null,\"rating_param\":\"eq\"}"`),
	}))
	fetched, err = store.GetRanking(r.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, fetched.Filters.CategoryIDs)
	assert.Nil(t, fetched.Filters.Rating)
}

func TestReplaceItemsAndPivots(t *testing.T) {
	store := newTestStore(t)

	c1 := createCard(t, store, "One", 5)
	c2 := createCard(t, store, "Two", 6)
	c3 := createCard(t, store, "Three", 7)

	r, err := store.CreateRanking(&models.RankingCreate{Name: "Board", Tiers: "S;A"})
	require.NoError(t, err)

	require.NoError(t, store.ReplaceItems(r.ID, []models.RankingItem{
		{CardID: c1.ID, Placement: 1, Tier: "S"},
		{CardID: c2.ID, Placement: 2, Tier: "S"},
		{CardID: c3.ID, Placement: 3, Tier: "A"},
	}))

	fetched, err := store.GetRanking(r.ID)
	require.NoError(t, err)
	require.Len(t, fetched.Cards, 3)
	assert.Equal(t, c1.ID, fetched.Cards[0].ID)
	assert.Equal(t, 1, fetched.Cards[0].Pivot.Placement)
	assert.Equal(t, "S", fetched.Cards[0].Pivot.Tier)
	assert.Equal(t, "A", fetched.Cards[2].Pivot.Tier)

	// A second replace fully supersedes the first.
	require.NoError(t, store.ReplaceItems(r.ID, []models.RankingItem{
		{CardID: c3.ID, Placement: 1, Tier: "S"},
	}))
	fetched, err = store.GetRanking(r.ID)
	require.NoError(t, err)
	require.Len(t, fetched.Cards, 1)
	assert.Equal(t, c3.ID, fetched.Cards[0].ID)
}

func TestGetRankingByShareCode(t *testing.T) {
	store := newTestStore(t)

	r, err := store.CreateRanking(&models.RankingCreate{Name: "Shared"})
	require.NoError(t, err)

	fetched, err := store.GetRankingByShareCode(r.ShareCode)
	require.NoError(t, err)
	require.NotNil(t, fetched)
	assert.Equal(t, r.ID, fetched.ID)

	missing, err := store.GetRankingByShareCode("nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestDeleteRankingCascadesItems(t *testing.T) {
	store := newTestStore(t)

	card := createCard(t, store, "One", 5)
	r, err := store.CreateRanking(&models.RankingCreate{Name: "Doomed", Tiers: "S"})
	require.NoError(t, err)
	require.NoError(t, store.ReplaceItems(r.ID, []models.RankingItem{
		{CardID: card.ID, Placement: 1, Tier: "S"},
	}))

	require.NoError(t, store.DeleteRanking(r.ID))

	fetched, err := store.GetRanking(r.ID)
	require.NoError(t, err)
	assert.Nil(t, fetched)

	// The card itself survives.
	still, err := store.GetCard(card.ID)
	require.NoError(t, err)
	assert.NotNil(t, still)
}

func TestBestCards(t *testing.T) {
	store := newTestStore(t)

	c1 := createCard(t, store, "Hero", 9)
	c2 := createCard(t, store, "Filler", 4)

	r1, err := store.CreateRanking(&models.RankingCreate{Name: "First", Tiers: "S;A"})
	require.NoError(t, err)
	r2, err := store.CreateRanking(&models.RankingCreate{Name: "Second", Tiers: "S;A"})
	require.NoError(t, err)

	require.NoError(t, store.ReplaceItems(r1.ID, []models.RankingItem{
		{CardID: c1.ID, Placement: 1, Tier: "S"},
		{CardID: c2.ID, Placement: 2, Tier: "A"},
	}))
	require.NoError(t, store.ReplaceItems(r2.ID, []models.RankingItem{
		{CardID: c1.ID, Placement: 1, Tier: "S"},
	}))

	best, err := store.BestCards(10)
	require.NoError(t, err)
	require.Len(t, best, 2)
	assert.Equal(t, c1.ID, best[0].Card.ID)
	assert.Equal(t, 2, best[0].Appearances)
	assert.Equal(t, 1.0, best[0].AvgPlacement)
	assert.Equal(t, c2.ID, best[1].Card.ID)
}

func TestRankingSummaries(t *testing.T) {
	store := newTestStore(t)

	card := createCard(t, store, "One", 5)
	r, err := store.CreateRanking(&models.RankingCreate{Name: "Summary", Tiers: "S"})
	require.NoError(t, err)
	require.NoError(t, store.ReplaceItems(r.ID, []models.RankingItem{
		{CardID: card.ID, Placement: 1, Tier: "S"},
	}))

	summaries, err := store.GetRankings()
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "Summary", summaries[0].Name)
	assert.Equal(t, 1, summaries[0].CardCount)
}
