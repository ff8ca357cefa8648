// Package api exposes a Resource over HTTP with chi. Every entity type gets
// the same five routes; collection reads are buffered or streamed depending
// on the requested media type.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/eslab/simple-blog/pkg/simpleblog"
)

// Error reason codes surfaced in 4xx bodies.
const (
	ReasonIdentityConflict = "idexists"
	ReasonIdentityRequired = "idnull"
	ReasonValidation       = "validation"
	ReasonNotFound         = "notfound"
	ReasonBadRequest       = "badrequest"
	ReasonInternal         = "internal"
)

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	Entity     string                      `json:"entity,omitempty"`
	Reason     string                      `json:"reason"`
	Message    string                      `json:"message"`
	Violations []simpleblog.FieldViolation `json:"violations,omitempty"`
}

// EntityHandler handles HTTP requests for one entity type.
type EntityHandler[T any, E interface {
	*T
	simpleblog.Entity
}] struct {
	resource *simpleblog.Resource[E]
}

// NewEntityHandler creates a handler for the given resource, e.g.
// NewEntityHandler[simpleblog.Blog](blogs).
func NewEntityHandler[T any, E interface {
	*T
	simpleblog.Entity
}](resource *simpleblog.Resource[E]) *EntityHandler[T, E] {
	return &EntityHandler[T, E]{resource: resource}
}

// Routes returns the routes for the entity collection.
func (h *EntityHandler[T, E]) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Create)
	r.Put("/", h.Update)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Delete("/{id}", h.Delete)

	return r
}

// Create handles POST /{entity}. The body must not carry an id.
func (h *EntityHandler[T, E]) Create(w http.ResponseWriter, r *http.Request) {
	entity := E(new(T))
	if err := json.NewDecoder(r.Body).Decode(entity); err != nil {
		h.writeBadPayload(w, r, err)
		return
	}

	created, err := h.resource.Create(r.Context(), entity)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.setAlertHeaders(w, simpleblog.NotificationCreated, created.EntityID())
	w.Header().Set("Location", path.Join(requestPath(r), created.EntityID()))

	slog.Info("Entity created", "entity", h.resource.Name(), "id", created.EntityID())
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, created)
}

// Update handles PUT /{entity}. The body must carry the id of an existing
// record, which is replaced wholesale.
func (h *EntityHandler[T, E]) Update(w http.ResponseWriter, r *http.Request) {
	entity := E(new(T))
	if err := json.NewDecoder(r.Body).Decode(entity); err != nil {
		h.writeBadPayload(w, r, err)
		return
	}

	updated, err := h.resource.Update(r.Context(), entity)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.setAlertHeaders(w, simpleblog.NotificationUpdated, updated.EntityID())

	slog.Info("Entity updated", "entity", h.resource.Name(), "id", updated.EntityID())
	render.JSON(w, r, updated)
}

// List handles GET /{entity}. A streaming Accept header switches the response
// from one buffered JSON array to an element-by-element stream over the same
// store read.
func (h *EntityHandler[T, E]) List(w http.ResponseWriter, r *http.Request) {
	opts, err := listOptions(r)
	if err != nil {
		h.writeBadPayload(w, r, err)
		return
	}

	if mediaType := StreamMediaType(r); mediaType != "" {
		cursor, err := h.resource.List(r.Context(), opts...)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		if err := StreamJSON(w, r, mediaType, cursor); err != nil {
			// Headers are out; all we can do is stop pulling and log.
			slog.Warn("Stream ended early", "entity", h.resource.Name(), "error", err)
		}
		return
	}

	entities, err := h.resource.ListAll(r.Context(), opts...)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if entities == nil {
		entities = []E{}
	}
	render.JSON(w, r, entities)
}

// Get handles GET /{entity}/{id}.
func (h *EntityHandler[T, E]) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	entity, err := h.resource.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	render.JSON(w, r, entity)
}

// Delete handles DELETE /{entity}/{id}. Always 204, present or not.
func (h *EntityHandler[T, E]) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.resource.Delete(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.setAlertHeaders(w, simpleblog.NotificationDeleted, id)

	slog.Info("Entity deleted", "entity", h.resource.Name(), "id", id)
	w.WriteHeader(http.StatusNoContent)
}

// setAlertHeaders attaches the advisory mutation headers collaborators use
// for UX alerts.
func (h *EntityHandler[T, E]) setAlertHeaders(w http.ResponseWriter, kind simpleblog.NotificationKind, id string) {
	w.Header().Set("X-Simpleblog-Alert", fmt.Sprintf("simpleblog.%s.%s", h.resource.Name(), kind))
	w.Header().Set("X-Simpleblog-Params", id)
}

func (h *EntityHandler[T, E]) writeBadPayload(w http.ResponseWriter, r *http.Request, err error) {
	slog.Error("Invalid request payload", "entity", h.resource.Name(), "error", err)
	render.Status(r, http.StatusBadRequest)
	render.JSON(w, r, ErrorResponse{
		Entity:  h.resource.Name(),
		Reason:  ReasonBadRequest,
		Message: err.Error(),
	})
}

// writeError maps the resource error taxonomy onto HTTP statuses: identity
// and validation failures are 400, a missing target is 404, anything else is
// a 500 with no retry.
func (h *EntityHandler[T, E]) writeError(w http.ResponseWriter, r *http.Request, err error) {
	resp := ErrorResponse{Entity: h.resource.Name(), Message: err.Error()}
	status := http.StatusInternalServerError

	var validationErr *simpleblog.ValidationError
	switch {
	case errors.As(err, &validationErr):
		status = http.StatusBadRequest
		resp.Reason = ReasonValidation
		resp.Violations = validationErr.Violations
	case errors.Is(err, simpleblog.ErrIdentityConflict):
		status = http.StatusBadRequest
		resp.Reason = ReasonIdentityConflict
	case errors.Is(err, simpleblog.ErrIdentityRequired):
		status = http.StatusBadRequest
		resp.Reason = ReasonIdentityRequired
	case errors.Is(err, simpleblog.ErrNotFound):
		status = http.StatusNotFound
		resp.Reason = ReasonNotFound
	default:
		resp.Reason = ReasonInternal
	}

	if status == http.StatusInternalServerError {
		slog.Error("Request failed", "entity", h.resource.Name(), "error", err)
	} else {
		slog.Info("Request rejected", "entity", h.resource.Name(), "reason", resp.Reason)
	}

	render.Status(r, status)
	render.JSON(w, r, resp)
}

// listOptions parses the optional sort query parameter, "field" or
// "field,desc", passed through to the store unmodified.
func listOptions(r *http.Request) ([]simpleblog.ListOption, error) {
	raw := r.URL.Query().Get("sort")
	if raw == "" {
		return nil, nil
	}

	parts := strings.Split(raw, ",")
	field := strings.TrimSpace(parts[0])
	if field == "" {
		return nil, fmt.Errorf("sort field is required")
	}

	opts := []simpleblog.ListOption{simpleblog.WithSort(field)}
	if len(parts) > 1 {
		switch strings.TrimSpace(parts[1]) {
		case "desc":
			opts = append(opts, simpleblog.WithDescending())
		case "asc", "":
		default:
			return nil, fmt.Errorf("sort direction must be asc or desc")
		}
	}
	return opts, nil
}

// requestPath returns the full mounted path for Location headers, without a
// trailing slash.
func requestPath(r *http.Request) string {
	p := r.URL.Path
	if p == "" {
		p = "/"
	}
	return strings.TrimSuffix(p, "/")
}
