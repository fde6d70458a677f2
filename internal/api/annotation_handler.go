package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/phrazzld/marginalia/internal/api/shared"
	"github.com/phrazzld/marginalia/internal/service"
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 200
)

// AnnotationHandler serves annotation CRUD and search.
type AnnotationHandler struct {
	annotations service.AnnotationService
	logger      *slog.Logger
}

// NewAnnotationHandler creates a new AnnotationHandler.
func NewAnnotationHandler(annotations service.AnnotationService, logger *slog.Logger) *AnnotationHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnnotationHandler{annotations: annotations, logger: logger.With("component", "annotation_handler")}
}

// Create handles POST /api/annotations.
func (h *AnnotationHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req CreateAnnotationRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	input := service.CreateAnnotationInput{
		GroupPubID: req.Group,
		TargetURI:  req.URI,
		Text:       req.Text,
		Tags:       req.Tags,
		References: req.References,
		Shared:     req.Shared == nil || *req.Shared,
	}
	if req.Document != nil {
		input.DocumentTitle = strings.TrimSpace(req.Document.Title)
	}

	a, err := h.annotations.Create(r.Context(), user, input)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create annotation")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, annotationToResponse(a))
}

// Get handles GET /api/annotations/{id}. Annotations the caller may not
// read are reported as missing.
func (h *AnnotationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := getPathUUID(r, "id")
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid annotation ID", err)
		return
	}

	a, err := h.annotations.Get(r.Context(), shared.UserFromContext(r.Context()), id)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get annotation")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, annotationToResponse(a))
}

// Delete handles DELETE /api/annotations/{id}.
func (h *AnnotationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, err := getPathUUID(r, "id")
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid annotation ID", err)
		return
	}

	if err := h.annotations.Delete(r.Context(), user, id); err != nil {
		HandleAPIError(w, r, err, "Failed to delete annotation")
		return
	}
	shared.RespondNoContent(w)
}

// Search handles GET /api/search?q=&limit=&offset=.
func (h *AnnotationHandler) Search(w http.ResponseWriter, r *http.Request) {
	limit, err := shared.QueryInt(r, "limit", defaultSearchLimit)
	if err != nil || limit < 1 {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid limit", err)
		return
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}
	offset, err := shared.QueryInt(r, "offset", 0)
	if err != nil || offset < 0 {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid offset", err)
		return
	}

	found, err := h.annotations.Search(r.Context(), shared.UserFromContext(r.Context()),
		r.URL.Query().Get("q"), limit, offset)
	if err != nil {
		HandleAPIError(w, r, err, "Search failed")
		return
	}

	rows := make([]AnnotationResponse, 0, len(found))
	for _, a := range found {
		rows = append(rows, annotationToResponse(a))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, SearchResponse{Total: len(rows), Rows: rows})
}
