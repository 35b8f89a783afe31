package internal_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"searchlens/internal"
	"searchlens/internal/config"
	"searchlens/internal/testsupport"
)

const adminKey = "secret"

func newTestApp(t *testing.T, load bool) *internal.Application {
	t.Helper()
	dbManager, logger := testsupport.SetupTestDBManager(t)
	dir := testsupport.WriteSampleData(t)

	cfg := &config.Config{
		AppName:                "searchlens",
		Environment:            config.Test,
		AdminAPIKey:            adminKey,
		WorkerCount:            2,
		DataSource:             config.FileSource,
		DataDirectory:          dir,
		AnalyticsFilesRaw:      config.DefaultAnalyticsFiles,
		SearchFilesRaw:         config.DefaultSearchFiles,
		BrandKeywordsRaw:       "acme",
		InsightCacheSize:       16,
		InsightCacheTTLSeconds: 60,
	}

	app, err := internal.NewAppWithDBManager(cfg, logger, nil, dbManager)
	require.NoError(t, err)
	if load {
		require.NoError(t, app.Prepare(context.Background()))
	}
	return app
}

func do(t *testing.T, app *internal.Application, method, target, body string, headers ...string) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := app.Server.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func decode(t *testing.T, data []byte) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out), string(data))
	return out
}

func TestHealth(t *testing.T) {
	app := newTestApp(t, true)

	status, body := do(t, app, fiber.MethodGet, "/api/health", "")
	require.Equal(t, fiber.StatusOK, status)
	health := decode(t, body)
	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, "ok", health["dbStatus"])
	assert.NotEmpty(t, health["snapshotId"])
}

func TestRoutesBeforeLoad(t *testing.T) {
	app := newTestApp(t, false)

	status, body := do(t, app, fiber.MethodGet, "/api/dashboard", "")
	assert.Equal(t, fiber.StatusServiceUnavailable, status)
	assert.Equal(t, "not_loaded", decode(t, body)["code"])

	status, body = do(t, app, fiber.MethodGet, "/api/health", "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "degraded", decode(t, body)["status"])
}

func TestViewRoutes(t *testing.T) {
	app := newTestApp(t, true)

	tests := []struct {
		name   string
		target string
		status int
		check  func(t *testing.T, body []byte)
	}{
		{"dashboard", "/api/dashboard", fiber.StatusOK, func(t *testing.T, body []byte) {
			d := decode(t, body)
			assert.Equal(t, 290.0, d["totalVisits"])
			assert.Contains(t, d, "trends")
			assert.Contains(t, d, "dataFreshness")
		}},
		{"filtered dashboard", "/api/dashboard?from=2024-01-03&to=2024-01-03", fiber.StatusOK, func(t *testing.T, body []byte) {
			assert.Equal(t, 30.0, decode(t, body)["totalVisits"])
		}},
		{"bad date", "/api/dashboard?from=yesterday", fiber.StatusBadRequest, func(t *testing.T, body []byte) {
			assert.Equal(t, "bad_request", decode(t, body)["code"])
		}},
		{"overview", "/api/overview", fiber.StatusOK, func(t *testing.T, body []byte) {
			o := decode(t, body)
			assert.NotEmpty(t, o["snapshotId"])
			assert.Contains(t, o, "timeSeries")
		}},
		{"timeseries", "/api/timeseries?bucket=month", fiber.StatusOK, func(t *testing.T, body []byte) {
			series := decode(t, body)
			assert.Len(t, series["visits"], 1)
		}},
		{"bad bucket", "/api/timeseries?bucket=decade", fiber.StatusBadRequest, nil},
		{"breakdown", "/api/breakdown", fiber.StatusOK, func(t *testing.T, body []byte) {
			assert.Contains(t, decode(t, body), "channel")
		}},
		{"pages", "/api/pages", fiber.StatusOK, func(t *testing.T, body []byte) {
			var pages []map[string]any
			require.NoError(t, json.Unmarshal(body, &pages))
			assert.Len(t, pages, 2)
		}},
		{"queries", "/api/queries", fiber.StatusOK, func(t *testing.T, body []byte) {
			var queries []map[string]any
			require.NoError(t, json.Unmarshal(body, &queries))
			assert.Len(t, queries, 4)
		}},
		{"top pages", "/api/top/pages?limit=1", fiber.StatusOK, func(t *testing.T, body []byte) {
			var pages []map[string]any
			require.NoError(t, json.Unmarshal(body, &pages))
			require.Len(t, pages, 1)
			assert.Equal(t, "/shoes", pages[0]["page"])
		}},
		{"bad limit", "/api/top/queries?limit=0", fiber.StatusBadRequest, nil},
		{"analytics dataset", "/api/ga", fiber.StatusOK, func(t *testing.T, body []byte) {
			d := decode(t, body)
			assert.Len(t, d["data"], 4)
			assert.Equal(t, 4.0, d["metadata"].(map[string]any)["recordCount"])
		}},
		{"search dataset", "/api/gsc", fiber.StatusOK, func(t *testing.T, body []byte) {
			assert.Len(t, decode(t, body)["data"], 4)
		}},
		{"files", "/api/files", fiber.StatusOK, func(t *testing.T, body []byte) {
			assert.ElementsMatch(t, []any{"analytics_data.csv", "search_console_data.csv"}, decode(t, body)["files"])
		}},
		{"all insights", "/api/insights", fiber.StatusOK, func(t *testing.T, body []byte) {
			report := decode(t, body)
			for _, key := range []string{"rpi", "ctrOpportunities", "rankRisk", "funnel", "devices", "brand", "clusters", "revenueShare", "intentGap", "uplift"} {
				assert.Contains(t, report, key)
			}
		}},
		{"one insight", "/api/insights/brand", fiber.StatusOK, func(t *testing.T, body []byte) {
			assert.Contains(t, decode(t, body), "nonBrand")
		}},
		{"unknown insight", "/api/insights/astrology", fiber.StatusNotFound, func(t *testing.T, body []byte) {
			assert.Equal(t, "unknown_insight", decode(t, body)["code"])
		}},
		{"unknown route", "/api/nothing", fiber.StatusNotFound, func(t *testing.T, body []byte) {
			assert.Equal(t, "not_found", decode(t, body)["code"])
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := do(t, app, fiber.MethodGet, tt.target, "")
			require.Equal(t, tt.status, status, string(body))
			if tt.check != nil {
				tt.check(t, body)
			}
		})
	}
}

func TestAskRoute(t *testing.T) {
	app := newTestApp(t, true)

	status, body := do(t, app, fiber.MethodPost, "/api/ask", `{"query":"How is revenue?"}`)
	require.Equal(t, fiber.StatusOK, status, string(body))
	answer := decode(t, body)
	assert.Equal(t, "revenue", answer["type"])
	assert.Contains(t, answer["insights"], "Total revenue: $140.00")

	status, body = do(t, app, fiber.MethodPost, "/api/ask", `{"query":""}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "bad_request", decode(t, body)["code"])
}

func TestReloadRoute(t *testing.T) {
	app := newTestApp(t, true)

	status, body := do(t, app, fiber.MethodPost, "/api/reload", "")
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "unauthorized", decode(t, body)["code"])

	status, _ = do(t, app, fiber.MethodPost, "/api/reload", "", "Authorization", "Bearer wrong")
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, body = do(t, app, fiber.MethodPost, "/api/reload", "", "Authorization", "Bearer "+adminKey)
	require.Equal(t, fiber.StatusOK, status, string(body))
	assert.NotEmpty(t, decode(t, body)["id"])

	status, body = do(t, app, fiber.MethodGet, "/api/loads", "")
	require.Equal(t, fiber.StatusOK, status)
	var records []map[string]any
	require.NoError(t, json.Unmarshal(body, &records))
	require.Len(t, records, 2)
	triggers := []any{records[0]["trigger"], records[1]["trigger"]}
	assert.ElementsMatch(t, []any{"startup", "manual"}, triggers)
}

func TestBrandKeywordsRoutes(t *testing.T) {
	app := newTestApp(t, true)

	status, body := do(t, app, fiber.MethodGet, "/api/settings/brand-keywords", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, []any{"acme"}, decode(t, body)["keywords"])

	status, _ = do(t, app, fiber.MethodPut, "/api/settings/brand-keywords", `{"keywords":["boots"]}`)
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, body = do(t, app, fiber.MethodPut, "/api/settings/brand-keywords", `{"keywords":[" Boots ","boots",""]}`,
		"Authorization", "Bearer "+adminKey)
	require.Equal(t, fiber.StatusOK, status, string(body))
	assert.Equal(t, []any{"Boots"}, decode(t, body)["keywords"])

	status, body = do(t, app, fiber.MethodGet, "/api/settings/brand-keywords", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, []any{"Boots"}, decode(t, body)["keywords"])

	status, _ = do(t, app, fiber.MethodPut, "/api/settings/brand-keywords", `{}`, "Authorization", "Bearer "+adminKey)
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestMetricsRoute(t *testing.T) {
	app := newTestApp(t, true)

	do(t, app, fiber.MethodGet, "/api/dashboard", "")
	status, body := do(t, app, fiber.MethodGet, "/metrics", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, string(body), "searchlens_dataset_reloads_total")
	assert.Contains(t, string(body), `searchlens_http_requests_total{method="GET",path="/api/dashboard",status="200"} 1`)
}
