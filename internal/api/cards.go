package api

import (
	"net/http"
	"strconv"

	"github.com/nmarks/cardrank/internal/models"
)

// handleGetCards returns all cards
func (s *Server) handleGetCards(w http.ResponseWriter, r *http.Request) {
	cards, err := s.store.GetCards()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch cards")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"cards":       cards,
		"total_count": len(cards),
	})
}

// handleGetCard returns a single card by ID
func (s *Server) handleGetCard(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid card id")
		return
	}

	card, err := s.store.GetCard(id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch card")
		return
	}
	if card == nil {
		respondError(w, http.StatusNotFound, "Card not found")
		return
	}

	respondJSON(w, http.StatusOK, card)
}

// handleCreateCard creates a new card
func (s *Server) handleCreateCard(w http.ResponseWriter, r *http.Request) {
	var req models.CardCreate
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if msg := validateCard(req.Name, req.Rating, req.CategoryIDs); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	card, err := s.store.CreateCard(&req)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to create card")
		return
	}

	respondJSON(w, http.StatusCreated, card)
}

// handleUpdateCard updates an existing card
func (s *Server) handleUpdateCard(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid card id")
		return
	}

	existing, err := s.store.GetCard(id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch card")
		return
	}
	if existing == nil {
		respondError(w, http.StatusNotFound, "Card not found")
		return
	}

	var update models.CardUpdate
	if err := decodeJSON(r, &update); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	name, rating, catIDs := existing.Name, existing.Rating, existing.CategoryIDs()
	if update.Name != nil {
		name = *update.Name
	}
	if update.Rating != nil {
		rating = *update.Rating
	}
	if update.CategoryIDs != nil {
		catIDs = *update.CategoryIDs
	}
	if msg := validateCard(name, rating, catIDs); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	if err := s.store.UpdateCard(id, &update); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to update card")
		return
	}

	updated, _ := s.store.GetCard(id)
	respondJSON(w, http.StatusOK, updated)
}

// handleDeleteCard deletes a card by ID
func (s *Server) handleDeleteCard(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid card id")
		return
	}

	existing, err := s.store.GetCard(id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch card")
		return
	}
	if existing == nil {
		respondError(w, http.StatusNotFound, "Card not found")
		return
	}

	if err := s.store.DeleteCard(id); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to delete card")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// handleGetBestCards returns the best-ranked cards across all rankings
func (s *Server) handleGetBestCards(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	best, err := s.store.BestCards(limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch best cards")
		return
	}

	respondJSON(w, http.StatusOK, best)
}

func validateCard(name string, rating int, categoryIDs []int64) string {
	if name == "" {
		return "name is required"
	}
	if rating < 0 || rating > 10 {
		return "rating must be between 0 and 10"
	}
	if len(categoryIDs) > models.MaxCardCategories {
		return "a card may have at most 4 categories"
	}
	return ""
}
