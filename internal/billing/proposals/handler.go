package proposals

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/udyogbooks/udyogbooks/internal/billing/totals"
	"github.com/udyogbooks/udyogbooks/internal/clients"
	"github.com/udyogbooks/udyogbooks/internal/observability"
	"github.com/udyogbooks/udyogbooks/internal/platform/httpx"
	"github.com/udyogbooks/udyogbooks/internal/render"
)

// RenderEnqueuer pushes a document render onto the background queue;
// satisfied by the jobs client.
type RenderEnqueuer interface {
	EnqueueDocumentRender(ctx context.Context, kind string, id int64, format string) error
}

type Handler struct {
	logger    *slog.Logger
	service   *Service
	renderers map[render.Format]render.Renderer
	enqueuer  RenderEnqueuer
	validator *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service, renderers []render.Renderer, enqueuer RenderEnqueuer) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	byFormat := make(map[render.Format]render.Renderer, len(renderers))
	for _, r := range renderers {
		byFormat[r.Format()] = r
	}
	return &Handler{
		logger:    logger,
		service:   service,
		renderers: byFormat,
		enqueuer:  enqueuer,
		validator: validator.New(),
	}
}

// MountRoutes registers proposal routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.show)
	r.Patch("/{id}", h.update)
	r.Post("/{id}/send", h.send)
	r.Post("/{id}/accept", h.accept)
	r.Post("/{id}/reject", h.reject)
	r.Post("/{id}/convert", h.convert)
	r.Get("/{id}/document.{format}", h.renderDocument)
	r.Post("/{id}/render", h.enqueueRender)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	req := ListProposalsRequest{Limit: 50}
	q := r.URL.Query()
	if v := q.Get("status"); v != "" {
		status := ProposalStatus(v)
		req.Status = &status
	}
	if v := q.Get("client_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil && id > 0 {
			req.ClientID = &id
		}
	}
	if v := q.Get("from"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			req.DateFrom = &t
		}
	}
	if v := q.Get("to"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			req.DateTo = &t
		}
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 1000 {
			req.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			req.Offset = n
		}
	}

	proposalsList, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.respondError(w, "list proposals", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"proposals": proposalsList, "total": total})
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	proposal, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, "get proposal", err)
		return
	}
	httpx.JSON(w, http.StatusOK, proposal)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateProposalRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	proposal, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.respondError(w, "create proposal", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, proposal)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	var req UpdateProposalRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	proposal, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		h.respondError(w, "update proposal", err)
		return
	}
	httpx.JSON(w, http.StatusOK, proposal)
}

func (h *Handler) send(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Send)
}

func (h *Handler) accept(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Accept)
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Reject)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, fn func(context.Context, int64) (*Proposal, error)) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	proposal, err := fn(r.Context(), id)
	if err != nil {
		h.respondError(w, "proposal transition", err)
		return
	}
	httpx.JSON(w, http.StatusOK, proposal)
}

func (h *Handler) convert(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	invoice, err := h.service.ConvertToInvoice(r.Context(), id)
	if err != nil {
		h.respondError(w, "convert proposal", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, invoice)
}

func (h *Handler) renderDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	format := render.Format(chi.URLParam(r, "format"))
	renderer, found := h.renderers[format]
	if !found {
		httpx.Problem(w, http.StatusNotFound, "Unknown Format", "no renderer for format "+string(format))
		return
	}

	doc, err := h.service.RenderDocument(r.Context(), id)
	if err != nil {
		h.respondError(w, "assemble document", err)
		return
	}
	for _, warning := range doc.ConsistencyWarnings() {
		h.logger.Warn("document consistency", slog.String("number", doc.Meta.Number), slog.String("warning", warning))
		observability.ConsistencyWarnings.Inc()
	}

	started := time.Now()
	out, err := renderer.Render(r.Context(), doc)
	if err != nil {
		h.respondError(w, "render document", err)
		return
	}
	observability.ObserveRender(string(format), time.Since(started))

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="`+doc.FileName(format)+`"`)
	if _, err := w.Write(out); err != nil {
		h.logger.Error("write document", slog.Any("error", err))
	}
}

func (h *Handler) enqueueRender(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	if h.enqueuer == nil {
		httpx.Problem(w, http.StatusServiceUnavailable, "Queue Unavailable", "background rendering is not configured")
		return
	}
	format := r.URL.Query().Get("format")
	if format == "" {
		format = string(render.FormatPDF)
	}
	if _, found := h.renderers[render.Format(format)]; !found {
		httpx.Problem(w, http.StatusBadRequest, "Unknown Format", "no renderer for format "+format)
		return
	}

	if _, err := h.service.Get(r.Context(), id); err != nil {
		h.respondError(w, "get proposal", err)
		return
	}
	if err := h.enqueuer.EnqueueDocumentRender(r.Context(), "proposal", id, format); err != nil {
		h.respondError(w, "enqueue render", err)
		return
	}
	httpx.JSON(w, http.StatusAccepted, map[string]any{"queued": true, "format": format})
}

func (h *Handler) parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "proposal id must be numeric")
		return 0, false
	}
	return id, true
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, clients.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "proposal or client not found")
	case errors.Is(err, ErrInvalidStatus), errors.Is(err, ErrNotDraft),
		errors.Is(err, ErrNotAccepted), errors.Is(err, ErrAlreadyConverted):
		httpx.Problem(w, http.StatusConflict, "Invalid Transition", err.Error())
	case errors.Is(err, totals.ErrInvalidLine), errors.Is(err, totals.ErrInvalidDiscount), errors.Is(err, totals.ErrInvalidTaxRate):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
