package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// Dashboard returns the dashboard page component. The page is static; every
// dynamic element is patched over SSE by the datastar endpoints.
func Dashboard() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, dashboardPage)
		return err
	})
}

const dashboardPage = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>SuperStore Dashboard</title>
<script type="module" src="https://cdn.jsdelivr.net/gh/starfederation/datastar@v1.0.0/bundles/datastar.js"></script>
<script src="https://cdn.jsdelivr.net/npm/chart.js@4"></script>
<style>
body { font-family: system-ui, sans-serif; margin: 0; display: flex; background: #f5f6fa; }
aside { width: 260px; padding: 1rem; background: #fff; border-right: 1px solid #e0e0e0; min-height: 100vh; }
main { flex: 1; padding: 1.5rem; }
h1 { font-size: 1.4rem; margin-top: 0; }
label { display: block; margin: 0.75rem 0 0.25rem; font-weight: 600; font-size: 0.85rem; }
select, input { width: 100%; padding: 0.4rem; }
.kpi-row { display: grid; grid-template-columns: repeat(4, 1fr); gap: 1rem; margin-bottom: 1.5rem; }
.kpi-tile { background: #1E90FF; color: #fff; font-size: 18px; font-weight: bold; border-radius: 10px; padding: 10px 20px; border: 2px solid #0056b3; cursor: pointer; transition: all 0.3s; }
.kpi-tile:hover { background: #0056b3; border-color: #003f7f; }
.kpi-selected { background: #0056b3; border-color: #003f7f; }
.kpi-label { display: block; }
.kpi-value { display: block; margin-top: 0.4rem; }
.notice { background: #fff3cd; border: 1px solid #ffeeba; padding: 0.75rem; border-radius: 6px; }
.chart-row { display: grid; grid-template-columns: 1fr 1fr; gap: 1rem; }
.chart-card { background: #fff; border-radius: 10px; padding: 1rem; margin-bottom: 1rem; }
</style>
</head>
<body data-signals="{activeKpi: 'sales', activeKpiLabel: 'Sales', dailyData: [], cityData: [], productData: []}"
      data-on-load="@get('/sse/dashboard')">
<aside>
<h1>Filters</h1>
<form data-on-change="@get('/sse/dashboard?' + new URLSearchParams(new FormData(evt.target.form ?? evt.target.closest('form'))).toString())">
<label for="regions">Region(s)</label>
<select id="regions" name="regions" multiple size="4"></select>
<label for="states">State(s)</label>
<select id="states" name="states" multiple size="6"></select>
<label for="category">Category</label>
<select id="category" name="category"><option>All</option></select>
<label for="subcategory">Sub-Category</label>
<select id="subcategory" name="subcategory"><option>All</option></select>
<label for="start">Start Date</label>
<input id="start" name="start" type="date">
<label for="end">End Date</label>
<input id="end" name="end" type="date">
</form>
</aside>
<main>
<h1>SuperStore KPI Dashboard</h1>
<div id="kpi-tiles" class="kpi-row"></div>
<p>Selected KPI: <strong data-text="$activeKpiLabel"></strong></p>
<div id="dashboard-notice"></div>
<div class="chart-card"><canvas id="daily-chart"></canvas></div>
<div class="chart-row">
<div class="chart-card"><canvas id="city-chart"></canvas></div>
<div class="chart-card"><canvas id="product-chart"></canvas></div>
</div>
</main>
<script>
// Chart rendering hooks; chart data arrives as datastar signals.
window.addEventListener('datastar-signal-patch', () => window.renderCharts && window.renderCharts());
</script>
</body>
</html>
`
