package api

import (
	"net/http"

	"github.com/nmarks/cardrank/internal/models"
)

// handleGetCategories returns all categories
func (s *Server) handleGetCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.store.GetCategories()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch categories")
		return
	}
	respondJSON(w, http.StatusOK, categories)
}

// handleGetCategory returns a single category by ID
func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid category id")
		return
	}

	category, err := s.store.GetCategory(id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch category")
		return
	}
	if category == nil {
		respondError(w, http.StatusNotFound, "Category not found")
		return
	}

	respondJSON(w, http.StatusOK, category)
}

// handleCreateCategory creates a new category
func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req models.CategoryCreate
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	category, err := s.store.CreateCategory(&req)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to create category")
		return
	}

	respondJSON(w, http.StatusCreated, category)
}

// handleUpdateCategory updates an existing category
func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid category id")
		return
	}

	existing, err := s.store.GetCategory(id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch category")
		return
	}
	if existing == nil {
		respondError(w, http.StatusNotFound, "Category not found")
		return
	}

	var update models.CategoryUpdate
	if err := decodeJSON(r, &update); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if update.Name != nil && *update.Name == "" {
		respondError(w, http.StatusBadRequest, "name must not be empty")
		return
	}

	if err := s.store.UpdateCategory(id, &update); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to update category")
		return
	}

	updated, _ := s.store.GetCategory(id)
	respondJSON(w, http.StatusOK, updated)
}

// handleDeleteCategory deletes a category by ID
func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid category id")
		return
	}

	existing, err := s.store.GetCategory(id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch category")
		return
	}
	if existing == nil {
		respondError(w, http.StatusNotFound, "Category not found")
		return
	}

	if err := s.store.DeleteCategory(id); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to delete category")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
