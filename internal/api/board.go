package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/nmarks/cardrank/internal/tier"
)

// Board endpoints seed a tier session from the stored ranking, apply exactly
// one engine mutation, and return the refreshed ranking. The session is
// discarded after the request; the stored pivot rows are the durable state.

// handleBoardMove drags a card into a tier at a position
func (s *Server) handleBoardMove(w http.ResponseWriter, r *http.Request) {
	ranking, ok := s.fetchRanking(w, r)
	if !ok {
		return
	}

	var req struct {
		CardID int64  `json:"card_id"`
		Tier   string `json:"tier"`
		Index  int    `json:"index"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	card, err := s.store.GetCard(req.CardID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch card")
		return
	}
	if card == nil {
		respondError(w, http.StatusBadRequest, "Unknown card")
		return
	}
	if !tier.Matches(card, ranking.Filters) {
		respondError(w, http.StatusBadRequest, "Card does not pass the ranking's filters")
		return
	}

	session := tier.NewSession(ranking, s.store, s.store)
	s.finishBoardOp(w, ranking.ID, session.MoveCard(req.CardID, req.Tier, req.Index))
}

// handleBoardUnplace returns a card to the pool
func (s *Server) handleBoardUnplace(w http.ResponseWriter, r *http.Request) {
	ranking, ok := s.fetchRanking(w, r)
	if !ok {
		return
	}

	var req struct {
		CardID int64 `json:"card_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	session := tier.NewSession(ranking, s.store, s.store)
	s.finishBoardOp(w, ranking.ID, session.UnplaceCard(req.CardID))
}

// handleBoardAddTier inserts a new tier at a position
func (s *Server) handleBoardAddTier(w http.ResponseWriter, r *http.Request) {
	ranking, ok := s.fetchRanking(w, r)
	if !ok {
		return
	}

	var req struct {
		Name  string `json:"name"`
		Index int    `json:"index"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	session := tier.NewSession(ranking, s.store, s.store)
	_, err := session.AddTier(req.Name, req.Index)
	s.finishBoardOp(w, ranking.ID, err)
}

// handleBoardDeleteTier removes the tier at an index; its cards move to the
// remaining first tier
func (s *Server) handleBoardDeleteTier(w http.ResponseWriter, r *http.Request) {
	ranking, ok := s.fetchRanking(w, r)
	if !ok {
		return
	}
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid tier index")
		return
	}

	session := tier.NewSession(ranking, s.store, s.store)
	s.finishBoardOp(w, ranking.ID, session.DeleteTier(index))
}

// handleBoardRenameTier renames the tier at an index
func (s *Server) handleBoardRenameTier(w http.ResponseWriter, r *http.Request) {
	ranking, ok := s.fetchRanking(w, r)
	if !ok {
		return
	}
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid tier index")
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	session := tier.NewSession(ranking, s.store, s.store)
	_, err = session.RenameTier(index, req.Name)
	s.finishBoardOp(w, ranking.ID, err)
}

// handleBoardMoveTier swaps the tier at an index with a neighbor
func (s *Server) handleBoardMoveTier(w http.ResponseWriter, r *http.Request) {
	ranking, ok := s.fetchRanking(w, r)
	if !ok {
		return
	}
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid tier index")
		return
	}

	var req struct {
		Delta int `json:"delta"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	session := tier.NewSession(ranking, s.store, s.store)
	s.finishBoardOp(w, ranking.ID, session.MoveTier(index, req.Delta))
}

// finishBoardOp maps a session mutation result to a response: validation
// failures never touched the store and map to 400, save failures to 500,
// success to the refreshed ranking.
func (s *Server) finishBoardOp(w http.ResponseWriter, rankingID int64, err error) {
	if err != nil {
		var saveErr *tier.SaveError
		if errors.As(err, &saveErr) {
			respondError(w, http.StatusInternalServerError, "Failed to save ranking")
			return
		}
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := s.store.GetRanking(rankingID)
	if err != nil || updated == nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch ranking")
		return
	}
	respondJSON(w, http.StatusOK, updated)
}
