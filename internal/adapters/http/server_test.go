package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"labelcheck/internal/adapters/memory"
	"labelcheck/internal/domain"
	"labelcheck/internal/metrics"
	"labelcheck/internal/ports"
	"labelcheck/internal/services/assessment"
	"labelcheck/internal/services/auth"
	"labelcheck/internal/services/reports"
	"labelcheck/internal/uploads"
)

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 64)...)

type stubModel struct{ reply string }

func (m stubModel) Generate(context.Context, string, []ports.Media) (string, error) {
	return m.reply, nil
}

type env struct {
	handler http.Handler
	store   *memory.Store
	tmp     string
}

func newEnv(t *testing.T, model ports.ModelClient, withStore bool) *env {
	t.Helper()
	tmp := t.TempDir()
	t.Setenv("TMPDIR", tmp)

	log := zap.NewNop()
	m := metrics.New()
	var (
		authSvc   ports.Auth
		reportSvc ports.Reports
		store     *memory.Store
	)
	if withStore {
		store = memory.New()
		authSvc = auth.New(store, store, time.Hour, log)
		reportSvc = reports.New(store, log)
	}
	svc := assessment.New(model, assessment.WithLogger(log), assessment.WithMetrics(m))
	srv := New(svc, authSvc, reportSvc, m, log, Options{
		Limits:      uploads.Limits{MaxFileBytes: 1 << 20, MaxFiles: 3},
		CORSOrigins: []string{"*"},
	})
	return &env{handler: srv.Routes(), store: store, tmp: tmp}
}

func (e *env) do(req *http.Request, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *env) assertNoSpool(t *testing.T) {
	t.Helper()
	entries, err := os.ReadDir(e.tmp)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

type file struct {
	name string
	data []byte
}

func uploadRequest(t *testing.T, path, lang string, files ...file) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if lang != "" {
		require.NoError(t, w.WriteField("lang", lang))
	}
	for _, f := range files {
		fw, err := w.CreateFormFile("files", f.name)
		require.NoError(t, err)
		_, err = fw.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func jsonRequest(t *testing.T, method, path string, v any) *http.Request {
	t.Helper()
	var body bytes.Buffer
	if v != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(v))
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func sessionCookieOf(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookie {
			return c
		}
	}
	t.Fatalf("no %s cookie in response", sessionCookie)
	return nil
}

func TestHealth(t *testing.T) {
	e := newEnv(t, nil, false)
	rec := e.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[healthResponse](t, rec)
	assert.Equal(t, healthResponse{Status: "ok"}, got)
}

func TestAnalyzeWithoutFiles(t *testing.T) {
	e := newEnv(t, nil, false)
	for _, req := range []*http.Request{
		uploadRequest(t, "/analyze", "en"),
		httptest.NewRequest(http.MethodPost, "/analyze", nil),
	} {
		rec := e.do(req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "NoInputProvided", decode[errorResponse](t, rec).Error)
	}
}

func TestAnalyzeDemoMode(t *testing.T) {
	e := newEnv(t, nil, false)
	rec := e.do(uploadRequest(t, "/analyze", "zh", file{"front.png", pngBytes}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	got := decode[assessment.Result](t, rec)
	assert.True(t, got.Demo)
	assert.Equal(t, assessment.DemoRecord(domain.LangZH), got.Record)
	e.assertNoSpool(t)
}

func TestAnalyzeRejectsUnsupportedUpload(t *testing.T) {
	e := newEnv(t, nil, false)
	rec := e.do(uploadRequest(t, "/analyze", "en", file{"front.png", pngBytes}, file{"notes.txt", []byte("plain text")}))
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	assert.Equal(t, "UnsupportedArtifact", decode[errorResponse](t, rec).Error)
	e.assertNoSpool(t)
}

func TestAnalyzeTooManyFiles(t *testing.T) {
	e := newEnv(t, nil, false)
	f := file{"a.png", pngBytes}
	rec := e.do(uploadRequest(t, "/analyze", "en", f, f, f, f))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "InvalidInput", decode[errorResponse](t, rec).Error)
	e.assertNoSpool(t)
}

func TestAnalyzeMalformedModelOutput(t *testing.T) {
	e := newEnv(t, stubModel{reply: "I am sorry, I cannot read this label."}, false)
	rec := e.do(uploadRequest(t, "/analyze", "en", file{"front.png", pngBytes}))
	require.Equal(t, http.StatusBadGateway, rec.Code)

	got := decode[errorResponse](t, rec)
	assert.Equal(t, "MalformedResponse", got.Error)
	require.NotNil(t, got.Diagnostic)
	assert.Equal(t, "ParseFailed", string(got.Diagnostic.Code))
	assert.Equal(t, "salvage", got.Diagnostic.Tier)
	assert.Equal(t, "I am sorry, I cannot read this label.", got.Diagnostic.Excerpt)
	e.assertNoSpool(t)
}

func TestAnalyzeLive(t *testing.T) {
	raw, err := json.Marshal(assessment.DemoRecord(domain.LangEN))
	require.NoError(t, err)
	e := newEnv(t, stubModel{reply: "```json\n" + string(raw) + "\n```"}, false)

	rec := e.do(uploadRequest(t, "/analyze", "en", file{"front.png", pngBytes}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decode[assessment.Result](t, rec)
	assert.False(t, got.Demo)
	assert.Equal(t, assessment.DemoRecord(domain.LangEN), got.Record)
}

func TestExtractAndConfirm(t *testing.T) {
	e := newEnv(t, nil, false)
	rec := e.do(uploadRequest(t, "/extract", "en", file{"front.png", pngBytes}))
	require.Equal(t, http.StatusOK, rec.Code)
	extracted := decode[assessment.ExtractResult](t, rec)
	assert.True(t, extracted.Demo)

	rec = e.do(jsonRequest(t, http.MethodPost, "/analyze-confirmed", map[string]any{"lang": "en", "data": extracted.Data}))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[assessment.Result](t, rec).Demo)

	rec = e.do(jsonRequest(t, http.MethodPost, "/analyze-confirmed", map[string]any{"lang": "en"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "NoInputProvided", decode[errorResponse](t, rec).Error)
}

func TestRegisterShortPassword(t *testing.T) {
	e := newEnv(t, nil, true)
	rec := e.do(jsonRequest(t, http.MethodPost, "/auth/register", map[string]string{"email": "bob@example.com", "password": "abcd"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	got := decode[errorResponse](t, rec)
	assert.Equal(t, "InvalidInput", got.Error)
	assert.Contains(t, got.Message, "at least 6")

	_, err := e.store.GetUserByEmail(context.Background(), "bob@example.com")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRegisterInvalidEmail(t *testing.T) {
	e := newEnv(t, nil, true)
	rec := e.do(jsonRequest(t, http.MethodPost, "/auth/register", map[string]string{"email": "not-an-email", "password": "secret1"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	got := decode[errorResponse](t, rec)
	assert.Equal(t, "InvalidInput", got.Error)
	assert.Contains(t, got.Message, "email address is not valid")
}

func TestAuthFlow(t *testing.T) {
	e := newEnv(t, nil, true)
	rec := e.do(jsonRequest(t, http.MethodPost, "/auth/register", map[string]string{"email": "alice@example.com", "password": "secret1", "company": "Acme"}))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	cookie := sessionCookieOf(t, rec)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)

	rec = e.do(jsonRequest(t, http.MethodPost, "/auth/register", map[string]string{"email": "alice@example.com", "password": "secret2"}))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = e.do(httptest.NewRequest(http.MethodGet, "/auth/me", nil), cookie)
	me := decode[userResponse](t, rec)
	require.NotNil(t, me.User)
	assert.Equal(t, "alice@example.com", me.User.Email)
	assert.Equal(t, "alice", me.User.Name)

	rec = e.do(httptest.NewRequest(http.MethodPost, "/auth/logout", nil), cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = e.do(httptest.NewRequest(http.MethodGet, "/auth/me", nil), cookie)
	assert.Nil(t, decode[userResponse](t, rec).User)

	rec = e.do(jsonRequest(t, http.MethodPost, "/auth/login", map[string]string{"email": "alice@example.com", "password": "wrong1"}))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "InvalidCredentials", decode[errorResponse](t, rec).Error)

	rec = e.do(jsonRequest(t, http.MethodPost, "/auth/login", map[string]string{"email": "Alice@Example.com", "password": "secret1"}))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEqual(t, cookie.Value, sessionCookieOf(t, rec).Value)
}

func TestReportsRequireSession(t *testing.T) {
	e := newEnv(t, nil, true)
	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodGet, "/reports", nil),
		httptest.NewRequest(http.MethodPost, "/auth/logout", nil),
	} {
		rec := e.do(req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, req.URL.Path)
		assert.Equal(t, "AuthRequired", decode[errorResponse](t, rec).Error)
	}
	rec := e.do(httptest.NewRequest(http.MethodGet, "/reports", nil), &http.Cookie{Name: sessionCookie, Value: "forged"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestReportsLifecycle(t *testing.T) {
	e := newEnv(t, nil, true)
	signup := func(email string) *http.Cookie {
		rec := e.do(jsonRequest(t, http.MethodPost, "/auth/register", map[string]string{"email": email, "password": "secret1"}))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		return sessionCookieOf(t, rec)
	}
	alice, bob := signup("alice@example.com"), signup("bob@example.com")

	record := assessment.DemoRecord(domain.LangEN)
	rec := e.do(jsonRequest(t, http.MethodPost, "/reports", map[string]any{"title": "Green tea", "lang": "en", "data": record}), alice)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	saved := decode[reportJSON](t, rec)
	assert.Equal(t, "Green tea", saved.Title)
	assert.Equal(t, domain.RiskMedium.Score(), saved.Score)

	rec = e.do(httptest.NewRequest(http.MethodGet, "/reports", nil), alice)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[struct {
		Reports []reportJSON `json:"reports"`
	}](t, rec)
	require.Len(t, list.Reports, 1)
	assert.Nil(t, list.Reports[0].Data)

	rec = e.do(httptest.NewRequest(http.MethodGet, "/reports/"+saved.ID, nil), alice)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[reportJSON](t, rec)
	require.NotNil(t, got.Data)
	assert.Equal(t, record, *got.Data)

	for _, path := range []string{"/reports/" + saved.ID, "/reports/not-a-uuid"} {
		rec = e.do(httptest.NewRequest(http.MethodGet, path, nil), bob)
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
	}
	rec = e.do(httptest.NewRequest(http.MethodDelete, "/reports/"+saved.ID, nil), bob)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = e.do(httptest.NewRequest(http.MethodDelete, "/reports/"+saved.ID, nil), alice)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = e.do(httptest.NewRequest(http.MethodGet, "/reports/"+saved.ID, nil), alice)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSaveReportValidatesRecord(t *testing.T) {
	e := newEnv(t, nil, true)
	rec := e.do(jsonRequest(t, http.MethodPost, "/auth/register", map[string]string{"email": "carol@example.com", "password": "secret1"}))
	cookie := sessionCookieOf(t, rec)

	record := assessment.DemoRecord(domain.LangEN)
	record.OverallRisk = "extreme"
	rec = e.do(jsonRequest(t, http.MethodPost, "/reports", map[string]any{"data": record}), cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[errorResponse](t, rec).Message, "overallRisk")

	rec = e.do(jsonRequest(t, http.MethodPost, "/reports", map[string]any{"title": "empty"}), cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "NoInputProvided", decode[errorResponse](t, rec).Error)
}

func TestStoreUnconfigured(t *testing.T) {
	e := newEnv(t, nil, false)

	rec := e.do(jsonRequest(t, http.MethodPost, "/auth/register", map[string]string{"email": "a@example.com", "password": "secret1"}))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "StoreUnavailable", decode[errorResponse](t, rec).Error)

	rec = e.do(httptest.NewRequest(http.MethodGet, "/reports", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = e.do(httptest.NewRequest(http.MethodGet, "/auth/me", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `{"user":null}`, strings.TrimSpace(rec.Body.String()))
}

func TestMetricsEndpoint(t *testing.T) {
	e := newEnv(t, nil, false)
	e.do(uploadRequest(t, "/analyze", "en", file{"front.png", pngBytes}))

	rec := e.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `labelcheck_uploads_total{mime="image/png",result="accepted"} 1`)
	assert.Contains(t, rec.Body.String(), `labelcheck_analyses_total{flow="analyze",mode="demo",outcome="ok"} 1`)
}

func TestCORSCredentialsNeedExplicitOrigins(t *testing.T) {
	cases := []struct {
		origins []string
		want    string
	}{
		{origins: []string{"*"}, want: ""},
		{origins: []string{"https://app.example.com"}, want: "true"},
	}
	for _, tc := range cases {
		srv := New(assessment.New(nil), nil, nil, metrics.New(), zap.NewNop(), Options{CORSOrigins: tc.origins})
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("Origin", "https://app.example.com")
		rec := httptest.NewRecorder()
		srv.Routes().ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, tc.want, rec.Header().Get("Access-Control-Allow-Credentials"), tc.origins)
	}
}
