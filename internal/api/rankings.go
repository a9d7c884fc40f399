package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/nmarks/cardrank/internal/models"
	"github.com/nmarks/cardrank/internal/tier"
)

// handleGetRankings returns summaries of all rankings
func (s *Server) handleGetRankings(w http.ResponseWriter, r *http.Request) {
	rankings, err := s.store.GetRankings()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch rankings")
		return
	}
	respondJSON(w, http.StatusOK, rankings)
}

// handleCreateRanking creates a new ranking
func (s *Server) handleCreateRanking(w http.ResponseWriter, r *http.Request) {
	var req models.RankingCreate
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.Tiers != "" {
		for _, name := range tier.SplitNames(req.Tiers) {
			if err := tier.ValidateName(name); err != nil {
				respondError(w, http.StatusBadRequest, err.Error())
				return
			}
		}
	}

	ranking, err := s.store.CreateRanking(&req)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to create ranking")
		return
	}

	respondJSON(w, http.StatusCreated, ranking)
}

// handleGetRanking returns a ranking with its pivot-annotated cards
func (s *Server) handleGetRanking(w http.ResponseWriter, r *http.Request) {
	ranking, ok := s.fetchRanking(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, ranking)
}

// handleGetRankingByCode returns a ranking by share code
func (s *Server) handleGetRankingByCode(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	ranking, err := s.store.GetRankingByShareCode(code)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch ranking")
		return
	}
	if ranking == nil {
		respondError(w, http.StatusNotFound, "Ranking not found")
		return
	}

	respondJSON(w, http.StatusOK, ranking)
}

// handleUpdateRanking partially updates ranking metadata
func (s *Server) handleUpdateRanking(w http.ResponseWriter, r *http.Request) {
	ranking, ok := s.fetchRanking(w, r)
	if !ok {
		return
	}

	var update models.RankingUpdate
	if err := decodeJSON(r, &update); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if update.Name != nil && *update.Name == "" {
		respondError(w, http.StatusBadRequest, "name must not be empty")
		return
	}
	if update.Tiers != nil {
		names := tier.SplitNames(*update.Tiers)
		if len(names) == 0 {
			respondError(w, http.StatusBadRequest, "tiers must contain at least one tier")
			return
		}
		for _, name := range names {
			if err := tier.ValidateName(name); err != nil {
				respondError(w, http.StatusBadRequest, err.Error())
				return
			}
		}
	}

	if err := s.store.UpdateRanking(ranking.ID, &update); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to update ranking")
		return
	}

	updated, _ := s.store.GetRanking(ranking.ID)
	respondJSON(w, http.StatusOK, updated)
}

// handleDeleteRanking deletes a ranking by ID
func (s *Server) handleDeleteRanking(w http.ResponseWriter, r *http.Request) {
	ranking, ok := s.fetchRanking(w, r)
	if !ok {
		return
	}

	if err := s.store.DeleteRanking(ranking.ID); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to delete ranking")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// handleReplaceItems replaces a ranking's entire placement set. The submitted
// items are run through the board engine first, which drops unknown tiers to
// the first tier and renumbers placements into a clean 1..N sequence.
func (s *Server) handleReplaceItems(w http.ResponseWriter, r *http.Request) {
	ranking, ok := s.fetchRanking(w, r)
	if !ok {
		return
	}

	var req struct {
		Items []models.RankingItem `json:"items"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	submitted := make([]models.RankedCard, 0, len(req.Items))
	for _, item := range req.Items {
		submitted = append(submitted, models.RankedCard{
			Card:  models.Card{ID: item.CardID},
			Pivot: models.Pivot{Placement: item.Placement, Tier: item.Tier},
		})
	}
	board := tier.Seed(tier.SplitNames(ranking.Tiers), submitted, tier.BestOnRight)

	if err := s.store.ReplaceItems(ranking.ID, board.Serialize(tier.BestOnRight)); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to save placements")
		return
	}

	updated, _ := s.store.GetRanking(ranking.ID)
	respondJSON(w, http.StatusOK, updated)
}

// handleGetPool returns the cards eligible for a ranking but not yet placed
func (s *Server) handleGetPool(w http.ResponseWriter, r *http.Request) {
	ranking, ok := s.fetchRanking(w, r)
	if !ok {
		return
	}

	cards, err := s.store.GetCards()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch cards")
		return
	}

	board := tier.Seed(tier.SplitNames(ranking.Tiers), ranking.Cards, tier.BestOnRight)
	pool := board.Pool(cards, ranking.Filters)

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"cards":       pool,
		"total_count": len(pool),
	})
}

// fetchRanking loads the ranking addressed by the id URL param, writing the
// error response itself when that fails.
func (s *Server) fetchRanking(w http.ResponseWriter, r *http.Request) (*models.Ranking, bool) {
	id, err := urlID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid ranking id")
		return nil, false
	}

	ranking, err := s.store.GetRanking(id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch ranking")
		return nil, false
	}
	if ranking == nil {
		respondError(w, http.StatusNotFound, "Ranking not found")
		return nil, false
	}
	return ranking, true
}
