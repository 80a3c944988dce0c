package http

import (
	"net/http"

	"expenses/internal/core"
	applog "expenses/internal/log"
)

const (
	entityCategory = "category"
	categoriesPath = "/add"
)

type categoriesPage struct {
	Categories []core.Category
	Form       core.CategoryInput
	Error      string
}

type categoryEditPage struct {
	ID    int64
	Form  core.CategoryInput
	Error string
}

// handleCategories lists all categories next to an empty create form.
func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	s.renderCategories(w, r, http.StatusOK, core.CategoryInput{}, "")
}

func (s *Server) renderCategories(w http.ResponseWriter, r *http.Request, status int, form core.CategoryInput, msg string) {
	categories, err := s.categories.ListCategories(r.Context())
	if err != nil {
		s.respondError(w, r, entityCategory, err, nil)
		return
	}
	newResponse(w, r).Status(status).Render(s.templates, "categories.html", categoriesPage{
		Categories: categories,
		Form:       form,
		Error:      msg,
	})
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(w, r); err != nil {
		newResponse(w, r).Text(http.StatusBadRequest, "Invalid form data")
		return
	}
	in := categoryInputFromForm(r)

	_, err := s.categories.CreateCategory(r.Context(), in)
	s.recordMutation(r, entityCategory, applog.OpCreate, 0, err)
	if err != nil {
		s.respondError(w, r, entityCategory, err, func(status int, msg string) {
			s.renderCategories(w, r, status, in, msg)
		})
		return
	}
	newResponse(w, r).Redirect(categoriesPath)
}

// handleEditCategory shows the edit form prefilled with the stored values.
func (s *Server) handleEditCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		newResponse(w, r).Text(http.StatusNotFound, "Not found")
		return
	}
	c, err := s.categories.GetCategory(r.Context(), id)
	if err != nil {
		s.respondError(w, r, entityCategory, err, nil)
		return
	}
	s.renderCategoryEdit(w, r, http.StatusOK, id, core.InputFromCategory(c), "")
}

func (s *Server) renderCategoryEdit(w http.ResponseWriter, r *http.Request, status int, id int64, form core.CategoryInput, msg string) {
	newResponse(w, r).Status(status).Render(s.templates, "category_edit.html", categoryEditPage{
		ID:    id,
		Form:  form,
		Error: msg,
	})
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		newResponse(w, r).Text(http.StatusNotFound, "Not found")
		return
	}
	if err := parseForm(w, r); err != nil {
		newResponse(w, r).Text(http.StatusBadRequest, "Invalid form data")
		return
	}
	in := categoryInputFromForm(r)

	_, err := s.categories.UpdateCategory(r.Context(), id, in)
	s.recordMutation(r, entityCategory, applog.OpUpdate, id, err)
	if err != nil {
		s.respondError(w, r, entityCategory, err, func(status int, msg string) {
			s.renderCategoryEdit(w, r, status, id, in, msg)
		})
		return
	}
	newResponse(w, r).Redirect(categoriesPath)
}

// handleDeleteCategory removes the category and returns to the listing.
// Deleting a missing category is not an error.
func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		newResponse(w, r).Text(http.StatusNotFound, "Not found")
		return
	}

	err := s.categories.DeleteCategory(r.Context(), id)
	s.recordMutation(r, entityCategory, applog.OpDelete, id, err)
	if err != nil {
		s.respondError(w, r, entityCategory, err, nil)
		return
	}
	newResponse(w, r).Redirect(categoriesPath)
}
