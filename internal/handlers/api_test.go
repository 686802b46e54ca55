package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"superstore-dashboard/internal/models"
	"superstore-dashboard/internal/services"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func createTestAnalytics() *services.Analytics {
	a := services.NewAnalytics()
	a.SetData([]models.Record{
		{
			OrderDate: time.Date(2023, 1, 5, 0, 0, 0, 0, time.UTC),
			Region:    "West", State: "California", City: "Los Angeles",
			Category: "Furniture", SubCategory: "Chairs",
			ProductName: "Executive Chair", Sales: 100, Profit: 10, Quantity: 2,
		},
		{
			OrderDate: time.Date(2023, 2, 10, 0, 0, 0, 0, time.UTC),
			Region:    "East", State: "New York", City: "New York City",
			Category: "Technology", SubCategory: "Phones",
			ProductName: "Desk Phone", Sales: 200, Profit: 40, Quantity: 1,
		},
	})
	return a
}

func TestNewAPIHandlers(t *testing.T) {
	analytics := createTestAnalytics()
	handlers := NewAPIHandlers(analytics, testLogger())

	if handlers == nil {
		t.Fatal("NewAPIHandlers() returned nil")
	}
	if handlers.analytics != analytics {
		t.Error("NewAPIHandlers() should set analytics field")
	}
}

func TestParseFilterSpec(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		want    models.FilterSpec
		wantErr bool
	}{
		{
			name:  "empty query is unconstrained",
			query: "",
			want:  models.FilterSpec{},
		},
		{
			name:  "All sentinel is stripped",
			query: "regions=All&category=All&subcategory=All",
			want:  models.FilterSpec{},
		},
		{
			name:  "comma separated multi values",
			query: "regions=West,East&states=California",
			want: models.FilterSpec{
				Regions: []string{"West", "East"},
				States:  []string{"California"},
			},
		},
		{
			name:  "single value filters",
			query: "category=Furniture&subcategory=Chairs",
			want:  models.FilterSpec{Category: "Furniture", SubCategory: "Chairs"},
		},
		{
			name:  "date bounds",
			query: "start=2023-01-01&end=2023-06-30",
			want: models.FilterSpec{
				Start: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
				End:   time.Date(2023, 6, 30, 0, 0, 0, 0, time.UTC),
			},
		},
		{
			name:    "malformed start date",
			query:   "start=01/02/2023",
			wantErr: true,
		},
		{
			name:    "malformed end date",
			query:   "end=soon",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/dashboard?"+tt.query, nil)

			got, err := parseFilterSpec(r)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseFilterSpec() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}

			if len(got.Regions) != len(tt.want.Regions) || len(got.States) != len(tt.want.States) {
				t.Errorf("parseFilterSpec() = %+v, want %+v", got, tt.want)
			}
			for i := range tt.want.Regions {
				if got.Regions[i] != tt.want.Regions[i] {
					t.Errorf("Regions[%d] = %q, want %q", i, got.Regions[i], tt.want.Regions[i])
				}
			}
			if got.Category != tt.want.Category || got.SubCategory != tt.want.SubCategory {
				t.Errorf("parseFilterSpec() = %+v, want %+v", got, tt.want)
			}
			if !got.Start.Equal(tt.want.Start) || !got.End.Equal(tt.want.End) {
				t.Errorf("dates = %v..%v, want %v..%v", got.Start, got.End, tt.want.Start, tt.want.End)
			}
		})
	}
}

func decodeSuccess(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var response map[string]any
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode JSON: %v", err)
	}
	if success, ok := response["success"].(bool); !ok || !success {
		t.Fatalf("expected success=true, body: %v", response)
	}
	return response
}

func TestAPIHandlers_HandleDashboard(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
	w := httptest.NewRecorder()

	handlers.HandleDashboard(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	response := decodeSuccess(t, w)
	data, ok := response["data"].(map[string]any)
	if !ok {
		t.Fatal("expected data object in response")
	}
	if _, ok := data["kpis"]; !ok {
		t.Error("expected kpis in dashboard snapshot")
	}
	if data["record_count"].(float64) != 2 {
		t.Errorf("record_count = %v, want 2", data["record_count"])
	}
}

func TestAPIHandlers_HandleDashboard_InvalidDateRange(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard?start=2023-06-01&end=2023-01-01", nil)
	w := httptest.NewRecorder()

	handlers.HandleDashboard(w, req)

	// An inverted range is a pipeline condition, not an HTTP error.
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	response := decodeSuccess(t, w)
	data := response["data"].(map[string]any)
	if data["invalid_date_range"] != true {
		t.Error("expected invalid_date_range=true in snapshot")
	}
	if data["empty"] != true {
		t.Error("expected empty=true in snapshot")
	}
}

func TestAPIHandlers_HandleDashboard_MalformedDate(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard?start=yesterday", nil)
	w := httptest.NewRecorder()

	handlers.HandleDashboard(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}

	var response map[string]any
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode JSON: %v", err)
	}
	if response["success"] != false {
		t.Error("expected success=false in error envelope")
	}
}

func TestAPIHandlers_HandleTopCities(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/top-cities", nil)
	w := httptest.NewRecorder()

	handlers.HandleTopCities(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if cc := w.Header().Get("Cache-Control"); cc != cacheControl {
		t.Errorf("Cache-Control = %q, want %q", cc, cacheControl)
	}

	response := decodeSuccess(t, w)
	rows, ok := response["data"].([]any)
	if !ok || len(rows) != 2 {
		t.Fatalf("expected 2 city rows, got %v", response["data"])
	}

	first := rows[0].(map[string]any)
	if first["key"] != "New York City" {
		t.Errorf("top city = %v, want New York City (highest sales)", first["key"])
	}
}

func TestAPIHandlers_HandleFilterOptions(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/filter-options?regions=West", nil)
	w := httptest.NewRecorder()

	handlers.HandleFilterOptions(w, req)

	response := decodeSuccess(t, w)
	data := response["data"].(map[string]any)

	states := data["states"].([]any)
	if len(states) != 2 || states[0] != "All" || states[1] != "California" {
		t.Errorf("states = %v, want [All California]", states)
	}
}

func TestAPIHandlers_Selection(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), testLogger())

	// Default
	w := httptest.NewRecorder()
	handlers.HandleGetSelection(w, httptest.NewRequest(http.MethodGet, "/api/selection", nil))
	response := decodeSuccess(t, w)
	if response["data"].(map[string]any)["active_kpi"] != "sales" {
		t.Errorf("default selection = %v, want sales", response["data"])
	}

	// Set to profit
	w = httptest.NewRecorder()
	handlers.HandleSetSelection(w, httptest.NewRequest(http.MethodPost, "/api/selection?kpi=profit", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("set status = %d, want %d", w.Code, http.StatusOK)
	}

	w = httptest.NewRecorder()
	handlers.HandleGetSelection(w, httptest.NewRequest(http.MethodGet, "/api/selection", nil))
	response = decodeSuccess(t, w)
	if response["data"].(map[string]any)["active_kpi"] != "profit" {
		t.Errorf("selection after set = %v, want profit", response["data"])
	}
}

func TestAPIHandlers_SetSelection_Invalid(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), testLogger())

	w := httptest.NewRecorder()
	handlers.HandleSetSelection(w, httptest.NewRequest(http.MethodPost, "/api/selection?kpi=discount", nil))

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestAPIHandlers_HandleHealth(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), testLogger())

	w := httptest.NewRecorder()
	handlers.HandleHealth(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	response := decodeSuccess(t, w)
	if response["data"].(map[string]any)["status"] != "healthy" {
		t.Error("expected healthy status")
	}
}

func TestAPIHandlers_HandleStats(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), testLogger())

	w := httptest.NewRecorder()
	handlers.HandleStats(w, httptest.NewRequest(http.MethodGet, "/admin/stats", nil))

	response := decodeSuccess(t, w)
	data := response["data"].(map[string]any)
	if data["record_count"].(float64) != 2 {
		t.Errorf("record_count = %v, want 2", data["record_count"])
	}
}
