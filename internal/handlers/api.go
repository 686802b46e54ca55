package handlers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"superstore-dashboard/internal/errors"
	"superstore-dashboard/internal/models"
	"superstore-dashboard/internal/observability"
	"superstore-dashboard/internal/services"
)

const cacheControl = "public, max-age=60"

type APIHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewAPIHandlers(analytics *services.Analytics, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

// parseFilterSpec coerces query parameters into a FilterSpec. The literal
// "All" sentinel from the UI and empty values both mean unconstrained.
// Malformed dates are a bad request; an inverted range is not — that is a
// pipeline condition, flagged in the snapshot instead.
func parseFilterSpec(r *http.Request) (models.FilterSpec, error) {
	q := r.URL.Query()

	spec := models.FilterSpec{
		Regions:     parseMultiChoice(q.Get("regions")),
		States:      parseMultiChoice(q.Get("states")),
		Category:    parseChoice(q.Get("category")),
		SubCategory: parseChoice(q.Get("subcategory")),
	}

	if v := q.Get("start"); v != "" {
		t, err := time.Parse(services.DateLayout, v)
		if err != nil {
			return models.FilterSpec{}, errors.BadRequestWrap(err, "start date must use YYYY-MM-DD")
		}
		spec.Start = t
	}

	if v := q.Get("end"); v != "" {
		t, err := time.Parse(services.DateLayout, v)
		if err != nil {
			return models.FilterSpec{}, errors.BadRequestWrap(err, "end date must use YYYY-MM-DD")
		}
		spec.End = t
	}

	return spec, nil
}

func parseMultiChoice(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, v := range strings.Split(raw, ",") {
		v = strings.TrimSpace(v)
		if v == "" || v == "All" {
			continue
		}
		out = append(out, v)
	}
	return out
}

func parseChoice(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "All" {
		return ""
	}
	return raw
}

func (h *APIHandlers) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	spec, err := parseFilterSpec(r)
	if err != nil {
		errors.WriteError(w, h.logger, err, observability.GetRequestID(r.Context()))
		return
	}

	errors.WriteSuccess(w, h.analytics.Snapshot(spec))
}

func (h *APIHandlers) HandleKPIs(w http.ResponseWriter, r *http.Request) {
	spec, err := parseFilterSpec(r)
	if err != nil {
		errors.WriteError(w, h.logger, err, observability.GetRequestID(r.Context()))
		return
	}

	snapshot := h.analytics.Snapshot(spec)
	errors.WriteSuccess(w, map[string]any{
		"kpis":               snapshot.KPIs,
		"active_kpi":         snapshot.ActiveKPI,
		"invalid_date_range": snapshot.InvalidDateRange,
	})
}

func (h *APIHandlers) HandleDaily(w http.ResponseWriter, r *http.Request) {
	spec, err := parseFilterSpec(r)
	if err != nil {
		errors.WriteError(w, h.logger, err, observability.GetRequestID(r.Context()))
		return
	}

	snapshot := h.analytics.Snapshot(spec)
	errors.WriteSuccessWithHeaders(w, snapshot.Daily, map[string]string{
		"Cache-Control": cacheControl,
	})
}

func (h *APIHandlers) HandleTopCities(w http.ResponseWriter, r *http.Request) {
	spec, err := parseFilterSpec(r)
	if err != nil {
		errors.WriteError(w, h.logger, err, observability.GetRequestID(r.Context()))
		return
	}

	snapshot := h.analytics.Snapshot(spec)
	errors.WriteSuccessWithHeaders(w, snapshot.TopCities, map[string]string{
		"Cache-Control": cacheControl,
	})
}

func (h *APIHandlers) HandleTopProducts(w http.ResponseWriter, r *http.Request) {
	spec, err := parseFilterSpec(r)
	if err != nil {
		errors.WriteError(w, h.logger, err, observability.GetRequestID(r.Context()))
		return
	}

	snapshot := h.analytics.Snapshot(spec)
	errors.WriteSuccessWithHeaders(w, snapshot.TopProducts, map[string]string{
		"Cache-Control": cacheControl,
	})
}

func (h *APIHandlers) HandleFilterOptions(w http.ResponseWriter, r *http.Request) {
	spec, err := parseFilterSpec(r)
	if err != nil {
		errors.WriteError(w, h.logger, err, observability.GetRequestID(r.Context()))
		return
	}

	errors.WriteSuccess(w, h.analytics.FilterOptions(spec))
}

func (h *APIHandlers) HandleGetSelection(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccess(w, map[string]any{
		"active_kpi": h.analytics.Selection().Get(),
	})
}

func (h *APIHandlers) HandleSetSelection(w http.ResponseWriter, r *http.Request) {
	kpi, err := models.ParseKPI(r.URL.Query().Get("kpi"))
	if err != nil {
		appErr := errors.BadRequestWrap(err, "kpi must be one of sales, quantity, profit, margin_rate")
		errors.WriteError(w, h.logger, appErr, observability.GetRequestID(r.Context()))
		return
	}

	if err := h.analytics.Selection().Set(kpi); err != nil {
		errors.WriteError(w, h.logger, errors.BadRequestWrap(err, "invalid KPI"), observability.GetRequestID(r.Context()))
		return
	}

	h.logger.Info("active KPI changed", "kpi", kpi)
	errors.WriteSuccess(w, map[string]any{"active_kpi": kpi})
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	healthData := map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   "1.0.0",
	}

	errors.WriteSuccess(w, healthData)
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccess(w, h.analytics.Stats())
}
