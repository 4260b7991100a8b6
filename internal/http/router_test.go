package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	intconfig "travelbooking/internal/config"
	h "travelbooking/internal/http/handlers"
	"travelbooking/internal/services"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"
)

var fixedNow = time.Date(2025, 3, 14, 10, 30, 0, 0, time.Local)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T, env intconfig.Env, extra map[string]string) (*gin.Engine, *h.API, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	values := map[string]string{
		"AGENCY_NAME":             "Blue Sky Travels",
		"AGENCY_TAGLINE":          "Go further",
		"GST_PERCENT":             "12",
		"BACKUP_PATH":             t.TempDir(),
		"BACKUP_COMPRESSION":      "false",
		"SECURITY_API_RATE_LIMIT": "1000",
	}
	for k, v := range extra {
		values[k] = v
	}
	a := &h.API{
		DB:       conn,
		Env:      env,
		Config:   services.NewStaticSettings(values),
		BillsDir: t.TempDir(),
		Locations: services.LocationService{
			BaseURL: "http://127.0.0.1:1",
			Cache:   services.NewMemoryCache(time.Minute, 10),
			Limiter: rate.NewLimiter(rate.Inf, 1),
		},
		Now: func() time.Time { return fixedNow },
	}
	return NewRouter(env, a), a, mock
}

func call(r http.Handler, method, target, token, body string) (*httptest.ResponseRecorder, map[string]any) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var out map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

func TestPagesRender(t *testing.T) {
	r, _, _ := newTestRouter(t, intconfig.Env{}, nil)

	w, _ := call(r, http.MethodGet, "/", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<title>Blue Sky Travels - New Booking</title>")
	assert.Contains(t, w.Body.String(), "Apply GST (12%)")
	assert.Contains(t, w.Body.String(), `<option value="Transport">`)

	w, _ = call(r, http.MethodGet, "/bookings", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Blue Sky Travels bookings")

	w, _ = call(r, http.MethodGet, "/search", "", "")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/bookings", w.Header().Get("Location"))
}

func TestHealthRoutesAndNoRoute(t *testing.T) {
	r, _, mock := newTestRouter(t, intconfig.Env{}, nil)

	w, body := call(r, http.MethodGet, "/api/health", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM bookings`).WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(4))
	w, body = call(r, http.MethodGet, "/api/db-check", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 4, body["bookings_in_db"])

	w, body = call(r, http.MethodGet, "/api/routes", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, body["routes"])

	w, body = call(r, http.MethodGet, "/nope", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "route not found", body["error"])
}

func TestRateLimitOnAPI(t *testing.T) {
	r, _, _ := newTestRouter(t, intconfig.Env{}, map[string]string{"SECURITY_API_RATE_LIMIT": "2"})
	for i := 0; i < 2; i++ {
		w, _ := call(r, http.MethodGet, "/api/health", "", "")
		require.Equal(t, http.StatusOK, w.Code)
	}
	w, body := call(r, http.MethodGet, "/api/health", "", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "rate_limited", body["code"])

	// pages are not limited
	w, _ = call(r, http.MethodGet, "/bookings", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAutocompleteEndpoints(t *testing.T) {
	r, _, _ := newTestRouter(t, intconfig.Env{}, nil)

	w, body := call(r, http.MethodGet, "/api/cities?q=mum&country=India", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	cities := body["suggestions"].([]any)
	require.NotEmpty(t, cities)
	assert.Equal(t, "Mumbai", cities[0].(map[string]any)["name"])

	w, body = call(r, http.MethodGet, "/api/cities?q=m", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, body["suggestions"])

	w, body = call(r, http.MethodGet, "/api/countries?q=united&limit=2", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["suggestions"], 2)

	w, body = call(r, http.MethodGet, "/api/hotel_areas/Goa", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, body["areas"], "North Goa")

	w, body = call(r, http.MethodGet, "/api/popular_routes", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["routes"], 25)
}

func TestConfigEndpoints(t *testing.T) {
	r, a, _ := newTestRouter(t, intconfig.Env{}, nil)

	w, body := call(r, http.MethodGet, "/api/config/categories", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, body["categories"])

	w, body = call(r, http.MethodGet, "/api/config/category/BUSINESS", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "business", body["category"])

	w, body = call(r, http.MethodGet, "/api/config/category/weather", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", body["code"])

	w, body = call(r, http.MethodPost, "/api/config/validate", "", `{"configs":{"GST_PERCENT":"abc","AGENCY_NAME":"X"}}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body["invalid"], "GST_PERCENT")

	w, body = call(r, http.MethodPost, "/api/config/update", "", `{"configs":{"GST_PERCENT":"150"}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, body["details"], "GST_PERCENT")
	assert.Equal(t, "12", a.Settings().Get("GST_PERCENT"))

	w, body = call(r, http.MethodPost, "/api/config/update", "", `{"configs":{"GST_PERCENT":18}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, []any{"GST_PERCENT"}, body["updated"])
	assert.Equal(t, "18", a.Settings().Get("GST_PERCENT"))

	w, body = call(r, http.MethodPost, "/api/config/update", "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "empty_body", body["code"])

	w, _ = call(r, http.MethodPost, "/api/config/refresh", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestConfigTestEndpointsWhenDisabled(t *testing.T) {
	r, _, _ := newTestRouter(t, intconfig.Env{}, map[string]string{"EMAIL_ENABLED": "false", "WHATSAPP_ENABLED": "false"})

	w, body := call(r, http.MethodPost, "/api/config/test_email", "", `{"email":"ops@example.com"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "feature_disabled", body["code"])

	w, _ = call(r, http.MethodPost, "/api/config/test_whatsapp", "", `{"phone":"12"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminLoginGuardsSettings(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	env := intconfig.Env{JWTSecret: "test-secret", AdminUsername: "admin", AdminPasswordHash: string(hash)}
	r, a, _ := newTestRouter(t, env, nil)
	a.Now = nil

	w, _ := call(r, http.MethodGet, "/api/config/schema", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, body := call(r, http.MethodPost, "/api/auth/login", "", `{"username":"admin","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "invalid_credentials", body["code"])

	w, body = call(r, http.MethodPost, "/api/auth/login", "", `{"username":"admin","password":"s3cret"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	assert.InDelta(t, time.Now().Add(time.Hour).Unix(), body["expires_at"], 5)

	w, _ = call(r, http.MethodGet, "/api/config/schema", token, "")
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = call(r, http.MethodGet, "/api/config/schema", token+"x", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminLoginDisabled(t *testing.T) {
	r, _, _ := newTestRouter(t, intconfig.Env{}, nil)
	w, body := call(r, http.MethodPost, "/api/auth/login", "", `{"username":"a","password":"b"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "auth_disabled", body["code"])
}

func TestBackupEndpoints(t *testing.T) {
	r, a, mock := newTestRouter(t, intconfig.Env{}, nil)
	dir := a.Settings().Get("BACKUP_PATH")

	mock.ExpectQuery("ORDER BY created_at DESC").WillReturnRows(sqlmock.NewRows(nil))
	mock.ExpectQuery("FROM booking_customers").WillReturnRows(sqlmock.NewRows(nil))

	w, body := call(r, http.MethodPost, "/api/backups", "", "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	backup := body["backup"].(map[string]any)
	assert.Equal(t, "blue_sky_travels_backup_20250314_103000.json", backup["filename"])
	assert.FileExists(t, filepath.Join(dir, "blue_sky_travels_backup_20250314_103000.json"))

	old := filepath.Join(dir, "blue_sky_travels_backup_20240101_000000.json")
	require.NoError(t, os.WriteFile(old, []byte("{}"), 0o644))
	stamp := fixedNow.AddDate(0, 0, -60)
	require.NoError(t, os.Chtimes(old, stamp, stamp))

	w, body = call(r, http.MethodGet, "/api/backups", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["backups"], 2)

	w, _ = call(r, http.MethodPost, "/api/backups/cleanup", "", `{"retention_days":5000}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body = call(r, http.MethodPost, "/api/backups/cleanup", "", `{"retention_days":30}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Removed 1 old backup(s)", body["message"])
	assert.NoFileExists(t, old)
}
