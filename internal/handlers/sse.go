package handlers

import (
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"superstore-dashboard/internal/models"
	"superstore-dashboard/internal/services"
	"github.com/shopspring/decimal"
	"github.com/starfederation/datastar-go/datastar"
)

var kpiTilesTemplate = template.Must(template.New("kpiTiles").Parse(`
<div id="kpi-tiles" class="kpi-row">
{{range .Tiles}}<button class="kpi-tile{{if .Active}} kpi-selected{{end}}" data-on-click="@get('/sse/select-kpi?kpi={{.KPI}}')">
<span class="kpi-label">{{.Label}}</span>
<span class="kpi-value">{{.Value}}</span>
</button>
{{end}}</div>`))

var noticeTemplate = template.Must(template.New("notice").Parse(`
<div id="dashboard-notice">{{if .Message}}<p class="notice">{{.Message}}</p>{{end}}</div>`))

type SSEHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewSSEHandlers(analytics *services.Analytics, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

type kpiTile struct {
	KPI    string
	Label  string
	Value  string
	Active bool
}

// renderKPITiles formats the four KPI tiles. Currency values go through
// decimal so $1,234.567 rounds the way money should.
func (h *SSEHandlers) renderKPITiles(set models.KPISet, active models.KPI) (string, error) {
	tiles := []kpiTile{
		{KPI: string(models.KPISales), Label: models.KPISales.Label(), Value: formatCurrency(set.Sales)},
		{KPI: string(models.KPIQuantity), Label: models.KPIQuantity.Label(), Value: fmt.Sprintf("%d", set.Quantity)},
		{KPI: string(models.KPIProfit), Label: models.KPIProfit.Label(), Value: formatCurrency(set.Profit)},
		{KPI: string(models.KPIMarginRate), Label: models.KPIMarginRate.Label(), Value: formatPercent(set.MarginRate)},
	}
	for i := range tiles {
		tiles[i].Active = tiles[i].KPI == string(active)
	}

	var buf strings.Builder
	err := kpiTilesTemplate.Execute(&buf, struct{ Tiles []kpiTile }{tiles})
	return buf.String(), err
}

func formatCurrency(v float64) string {
	return "$" + decimal.NewFromFloat(v).StringFixed(2)
}

func formatPercent(v float64) string {
	return decimal.NewFromFloat(v * 100).StringFixed(2) + "%"
}

func (h *SSEHandlers) renderNotice(snapshot *services.DashboardSnapshot) (string, error) {
	var message string
	switch {
	case snapshot.InvalidDateRange:
		message = "Start Date must be earlier than End Date."
	case snapshot.Empty:
		message = "No data available for the selected filters and date range."
	}

	var buf strings.Builder
	err := noticeTemplate.Execute(&buf, struct{ Message string }{message})
	return buf.String(), err
}

// patchSnapshot pushes one full recomputation to the client: KPI tiles and
// notice as HTML patches, chart datasets as signals.
func (h *SSEHandlers) patchSnapshot(sse *datastar.ServerSentEventGenerator, snapshot *services.DashboardSnapshot) error {
	tiles, err := h.renderKPITiles(snapshot.KPIs, snapshot.ActiveKPI)
	if err != nil {
		return fmt.Errorf("render kpi tiles: %w", err)
	}
	sse.PatchElements(tiles)

	notice, err := h.renderNotice(snapshot)
	if err != nil {
		return fmt.Errorf("render notice: %w", err)
	}
	sse.PatchElements(notice)

	signals, err := json.Marshal(map[string]any{
		"activeKpi":      snapshot.ActiveKPI,
		"activeKpiLabel": snapshot.ActiveKPI.Label(),
		"dailyData":      snapshot.Daily,
		"cityData":       snapshot.TopCities,
		"productData":    snapshot.TopProducts,
	})
	if err != nil {
		return fmt.Errorf("marshal chart signals: %w", err)
	}
	sse.PatchSignals(signals)

	return nil
}

// HandleDashboard recomputes the pipeline for the current filter selection
// and patches every dashboard element.
func (h *SSEHandlers) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	spec, err := parseFilterSpec(r)
	if err != nil {
		h.logger.Warn("bad filter selection", "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	sse := datastar.NewSSE(w, r)

	if err := h.patchSnapshot(sse, h.analytics.Snapshot(spec)); err != nil {
		h.logger.Error("patch dashboard", "error", err)
		return
	}

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

// HandleSelectKPI switches the active KPI, then re-patches the tiles and
// the reranked chart data. Only the sort key changes; the aggregates are
// recomputed from the same subset.
func (h *SSEHandlers) HandleSelectKPI(w http.ResponseWriter, r *http.Request) {
	kpi, err := models.ParseKPI(r.URL.Query().Get("kpi"))
	if err != nil {
		h.logger.Warn("bad KPI selection", "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.analytics.Selection().Set(kpi); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	spec, err := parseFilterSpec(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	sse := datastar.NewSSE(w, r)

	if err := h.patchSnapshot(sse, h.analytics.Snapshot(spec)); err != nil {
		h.logger.Error("patch after KPI selection", "error", err)
		return
	}

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}
