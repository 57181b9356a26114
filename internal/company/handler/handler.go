package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"siret-api/internal/company/models"
	"siret-api/internal/company/service"
	"siret-api/pkg/platform/httputil"
	"siret-api/pkg/platform/middleware/metadata"
	"siret-api/pkg/requestcontext"
)

// Service defines the registry operations the handler depends on.
type Service interface {
	Fetch(ctx context.Context, siret int64) ([]models.Rendered, error)
	Create(ctx context.Context, e *models.Establishment) error
	Update(ctx context.Context, siret int64, attrs models.Attributes) error
	Delete(ctx context.Context, siret int64) error
}

// AccessLog receives one entry per request, in every outcome.
type AccessLog interface {
	Record(host, method string, status int, path string) error
}

// Handler serves the registry's CRUD endpoints.
//
// Attribute values are strings. A JSON null in a create or update body is
// stored as "" and read back as "", never as a "None" or "null" text.
type Handler struct {
	service   Service
	accessLog AccessLog
	logger    *slog.Logger
}

// New creates a registry Handler.
func New(svc Service, accessLog AccessLog, logger *slog.Logger) *Handler {
	return &Handler{
		service:   svc,
		accessLog: accessLog,
		logger:    logger,
	}
}

// Register registers the registry routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/get", h.handleFetch)
	r.Post("/", h.handleCreate)
	r.Put("/{siret}", h.handleUpdate)
	r.Delete("/delete/{company_siret}", h.handleDelete)
}

func (h *Handler) handleFetch(w http.ResponseWriter, r *http.Request) {
	siret, err := parseSiret("siret", r.URL.Query().Get("siret"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	records, err := h.service.Fetch(r.Context(), siret)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, records)
	h.access(r, http.StatusOK)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateCompanyRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.service.Create(r.Context(), req.ToModel()); err != nil {
		h.fail(w, r, err)
		return
	}

	h.succeed(w, r, service.MsgInserted)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	siret, err := parseSiret("siret", chi.URLParam(r, "siret"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req UpdateCompanyRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.service.Update(r.Context(), siret, req.Attributes); err != nil {
		h.fail(w, r, err)
		return
	}

	h.succeed(w, r, service.MsgUpdated)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	siret, err := parseSiret("company_siret", chi.URLParam(r, "company_siret"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.service.Delete(r.Context(), siret); err != nil {
		h.fail(w, r, err)
		return
	}

	h.succeed(w, r, service.MsgDeleted)
}

func (h *Handler) succeed(w http.ResponseWriter, r *http.Request, message string) {
	httputil.WriteDetail(w, http.StatusOK, message)
	h.access(r, http.StatusOK)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := httputil.WriteError(w, err)
	ctx := r.Context()
	h.logger.WarnContext(ctx, "registry request failed",
		"request_id", requestcontext.RequestID(ctx),
		"method", r.Method,
		"path", r.URL.Path,
		"status", status,
		"error", err,
	)
	h.access(r, status)
}

// access writes the access log entry. A failing access log never changes the
// response.
func (h *Handler) access(r *http.Request, status int) {
	if h.accessLog == nil {
		return
	}
	ctx := r.Context()
	host := requestcontext.ClientIP(ctx)
	if host == "" {
		host = metadata.PeerIP(r)
	}
	if err := h.accessLog.Record(host, r.Method, status, r.URL.Path); err != nil {
		h.logger.ErrorContext(ctx, "failed to write access log",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	}
}
