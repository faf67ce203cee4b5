// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers implements the JSON HTTP API over category.Service.
// Every route runs under middleware.OwnerScope, so the owner id is always
// present in the request context.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"backoffice/internal/category"
	"backoffice/internal/middleware"
	"backoffice/internal/models"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 64 << 10

// CategoryService is the subset of category.Service used by the handlers.
type CategoryService interface {
	Create(ctx context.Context, ownerID uuid.UUID, name string, parentID *uuid.UUID) (*models.Category, error)
	Rename(ctx context.Context, ownerID, id uuid.UUID, name string) (*models.Category, error)
	Delete(ctx context.Context, ownerID, id uuid.UUID) (int, error)
	Get(ctx context.Context, ownerID, id uuid.UUID) (*models.Category, error)
	Tree(ctx context.Context, ownerID uuid.UUID) ([]models.Category, error)
}

// Categories groups the category endpoints.
type Categories struct {
	svc CategoryService
}

// NewCategories creates the category handler group.
func NewCategories(svc CategoryService) *Categories {
	return &Categories{svc: svc}
}

type createCategoryRequest struct {
	Name     string  `json:"name" validate:"required,max=200,excludes=/"`
	ParentID *string `json:"parent_id" validate:"omitempty,uuid"`
}

type renameCategoryRequest struct {
	Name string `json:"name" validate:"required,max=200,excludes=/"`
}

type categoriesResponse struct {
	Categories []models.Category `json:"categories"`
}

type deleteResponse struct {
	Deleted int `json:"deleted"`
}

// List returns the owner's forest, or with ?flat=1 a depth-first list with
// depths set.
func (h *Categories) List(w http.ResponseWriter, r *http.Request) {
	owner := ownerOf(r)

	forest, err := h.svc.Tree(r.Context(), owner)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if flat := r.URL.Query().Get("flat"); flat == "1" || flat == "true" {
		forest = category.Flatten(forest)
	}
	writeJSON(w, http.StatusOK, categoriesResponse{Categories: forest})
}

// Create adds a root category, or a child when parent_id is set.
func (h *Categories) Create(w http.ResponseWriter, r *http.Request) {
	var req createCategoryRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	var parentID *uuid.UUID
	if req.ParentID != nil {
		id, err := uuid.Parse(*req.ParentID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "parent_id must be a UUID")
			return
		}
		parentID = &id
	}

	c, err := h.svc.Create(r.Context(), ownerOf(r), req.Name, parentID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Location", strings.TrimSuffix(r.URL.Path, "/")+"/"+c.ID.String())
	writeJSON(w, http.StatusCreated, c)
}

// Get returns one category.
func (h *Categories) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := categoryID(w, r)
	if !ok {
		return
	}
	c, err := h.svc.Get(r.Context(), ownerOf(r), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// Rename changes a category's name and rewrites its subtree's paths.
func (h *Categories) Rename(w http.ResponseWriter, r *http.Request) {
	id, ok := categoryID(w, r)
	if !ok {
		return
	}
	var req renameCategoryRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	c, err := h.svc.Rename(r.Context(), ownerOf(r), id, req.Name)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// Delete removes a category and its subtree.
func (h *Categories) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := categoryID(w, r)
	if !ok {
		return
	}
	n, err := h.svc.Delete(r.Context(), ownerOf(r), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, deleteResponse{Deleted: n})
}

// ownerOf returns the owner set by middleware.OwnerScope.
func ownerOf(r *http.Request) uuid.UUID {
	owner, _ := middleware.OwnerFromCtx(r.Context())
	return owner
}

// categoryID parses the {id} URL parameter, writing 400 on failure.
func categoryID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid category id")
		return uuid.Nil, false
	}
	return id, true
}

// decodeRequest reads a JSON body into dst and validates it. It writes the
// error response itself and reports whether the handler should continue.
func decodeRequest(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		case errors.Is(err, io.EOF):
			writeError(w, http.StatusBadRequest, "request body is empty")
		default:
			writeError(w, http.StatusBadRequest, "malformed JSON: "+err.Error())
		}
		return false
	}

	if err := validateRequest(dst); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return false
	}
	return true
}

// writeServiceError maps category errors to HTTP responses.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, category.ErrNotFound):
		writeError(w, http.StatusNotFound, "category not found")
	case errors.Is(err, category.ErrInvalidParent):
		writeError(w, http.StatusUnprocessableEntity, "parent category does not exist for this owner")
	case errors.Is(err, category.ErrInvalidName):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case category.IsStorage(err):
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error":     "storage unavailable",
			"retryable": true,
		})
	default:
		slog.Error("unhandled category error",
			"path", r.URL.Path,
			"request_id", chimw.GetReqID(r.Context()),
			"error", err,
		)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// writeJSON serializes data as JSON with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
