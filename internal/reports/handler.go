package reports

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/udyogbooks/udyogbooks/internal/platform/httpx"
)

// Handler exposes the reporting endpoints: JSON for dashboards, CSV and XLSX
// downloads for accountants.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/aging", h.aging)
	r.Get("/aging.csv", h.agingCSV)
	r.Get("/revenue", h.revenue)
	r.Get("/revenue.csv", h.revenueCSV)
	r.Get("/gst/sales", h.gstSales)
	r.Get("/gst/sales.csv", h.gstSalesCSV)
	r.Get("/gst/sales.xlsx", h.gstSalesXLSX)
	r.Get("/gst/purchases", h.gstPurchases)
	r.Get("/gst/purchases.csv", h.gstPurchasesCSV)
	r.Get("/gst/purchases.xlsx", h.gstPurchasesXLSX)
}

func (h *Handler) aging(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.Aging(r.Context())
	if err != nil {
		h.fail(w, "aging report", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"rows": rows})
}

func (h *Handler) agingCSV(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.Aging(r.Context())
	if err != nil {
		h.fail(w, "aging report", err)
		return
	}
	setDownloadHeaders(w, "text/csv; charset=utf-8", "receivables-aging.csv")
	if err := writeAgingCSV(w, rows, time.Now()); err != nil {
		h.logger.Error("stream aging csv", slog.Any("error", err))
	}
}

func (h *Handler) revenue(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilters(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Filters", err.Error())
		return
	}
	rows, err := h.service.RevenueByClient(r.Context(), f)
	if err != nil {
		h.fail(w, "revenue report", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"rows": rows})
}

func (h *Handler) revenueCSV(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilters(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Filters", err.Error())
		return
	}
	rows, err := h.service.RevenueByClient(r.Context(), f)
	if err != nil {
		h.fail(w, "revenue report", err)
		return
	}
	setDownloadHeaders(w, "text/csv; charset=utf-8", "revenue-by-client.csv")
	if err := writeRevenueCSV(w, rows, f); err != nil {
		h.logger.Error("stream revenue csv", slog.Any("error", err))
	}
}

func (h *Handler) gstSales(w http.ResponseWriter, r *http.Request) {
	h.gstJSON(w, r, h.service.GSTSales)
}

func (h *Handler) gstPurchases(w http.ResponseWriter, r *http.Request) {
	h.gstJSON(w, r, h.service.GSTPurchases)
}

func (h *Handler) gstJSON(w http.ResponseWriter, r *http.Request, load func(ctx context.Context, f Filters) ([]GSTRow, error)) {
	f, err := parseFilters(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Filters", err.Error())
		return
	}
	rows, err := load(r.Context(), f)
	if err != nil {
		h.fail(w, "gst register", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"rows": rows, "totals": SumGST(rows)})
}

func (h *Handler) gstSalesCSV(w http.ResponseWriter, r *http.Request) {
	h.gstCSV(w, r, "GST Sales Register", "gst-sales.csv", h.service.GSTSales)
}

func (h *Handler) gstPurchasesCSV(w http.ResponseWriter, r *http.Request) {
	h.gstCSV(w, r, "GST Purchase Register", "gst-purchases.csv", h.service.GSTPurchases)
}

func (h *Handler) gstCSV(w http.ResponseWriter, r *http.Request, title, filename string, load func(ctx context.Context, f Filters) ([]GSTRow, error)) {
	f, err := parseFilters(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Filters", err.Error())
		return
	}
	rows, err := load(r.Context(), f)
	if err != nil {
		h.fail(w, "gst register", err)
		return
	}
	setDownloadHeaders(w, "text/csv; charset=utf-8", filename)
	if err := writeGSTCSV(w, title, rows, f); err != nil {
		h.logger.Error("stream gst csv", slog.Any("error", err))
	}
}

func (h *Handler) gstSalesXLSX(w http.ResponseWriter, r *http.Request) {
	h.gstXLSX(w, r, "Sales Register", "gst-sales.xlsx", h.service.GSTSales)
}

func (h *Handler) gstPurchasesXLSX(w http.ResponseWriter, r *http.Request) {
	h.gstXLSX(w, r, "Purchase Register", "gst-purchases.xlsx", h.service.GSTPurchases)
}

func (h *Handler) gstXLSX(w http.ResponseWriter, r *http.Request, sheet, filename string, load func(ctx context.Context, f Filters) ([]GSTRow, error)) {
	f, err := parseFilters(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Filters", err.Error())
		return
	}
	rows, err := load(r.Context(), f)
	if err != nil {
		h.fail(w, "gst register", err)
		return
	}
	setDownloadHeaders(w, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", filename)
	if err := writeGSTXLSX(w, sheet, rows); err != nil {
		h.logger.Error("stream gst xlsx", slog.Any("error", err))
	}
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	h.logger.Error(op, slog.Any("error", err))
	httpx.RespondError(w, err)
}

func setDownloadHeaders(w http.ResponseWriter, contentType, filename string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
}

func parseFilters(r *http.Request) (Filters, error) {
	var f Filters
	q := r.URL.Query()

	if v := q.Get("from"); v != "" {
		t, err := time.Parse(exportDateLayout, v)
		if err != nil {
			return f, fmt.Errorf("invalid from date %q", v)
		}
		f.From = &t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.Parse(exportDateLayout, v)
		if err != nil {
			return f, fmt.Errorf("invalid to date %q", v)
		}
		f.To = &t
	}
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return f, fmt.Errorf("to date precedes from date")
	}
	if v := q.Get("client_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			return f, fmt.Errorf("invalid client_id %q", v)
		}
		f.ClientID = &id
	}
	if v := q.Get("category"); v != "" {
		f.Category = &v
	}
	return f, nil
}
