package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/storefront/storefront-api/internal/api/middleware"
	"github.com/storefront/storefront-api/internal/core/domain"
	"github.com/storefront/storefront-api/internal/core/service"
	"github.com/storefront/storefront-api/internal/infrastructure/crypto"
	"github.com/storefront/storefront-api/internal/infrastructure/db/memory"
)

type stubCatalog struct {
	products []domain.Product
	err      error
}

func (s *stubCatalog) FetchProducts(context.Context) ([]domain.Product, error) {
	return s.products, s.err
}

type testServer struct {
	handler http.Handler
	users   *memory.UserRepository
}

func newTestServer(t *testing.T, upstream *stubCatalog) *testServer {
	t.Helper()
	log := zerolog.Nop()
	users := memory.NewUserRepository()
	sessions := service.NewSessionManager(memory.NewSessionRepository(), users, time.Hour, log)
	hasher := crypto.NewScryptHasher(nil)
	auth := service.NewAuthService(users, hasher, service.NewLocalStrategy(users, hasher), sessions, log)
	if upstream == nil {
		upstream = &stubCatalog{}
	}
	catalog := service.NewCatalogService(upstream, memory.NewCatalogCache(), time.Minute, log)

	e := NewRouter(Dependencies{
		Auth:     auth,
		Catalog:  catalog,
		Sessions: middleware.NewSessionCookie("", "test-secret", false, time.Hour),
		Log:      log,
		Registry: prometheus.NewRegistry(),
	})
	return &testServer{handler: e, users: users}
}

// do sends a request and returns the recorder. cookie may be nil.
func (s *testServer) do(method, path, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.DefaultCookieName {
			return c
		}
	}
	t.Fatalf("response carries no session cookie")
	return nil
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid json %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestRouter_AuthFlow(t *testing.T) {
	srv := newTestServer(t, nil)

	// register logs the user in
	rec := srv.do(http.MethodPost, "/api/auth/register", `{"username":"alice","password":"secretpw"}`, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d %s", rec.Code, rec.Body.String())
	}
	body := decode(t, rec)
	if body["username"] != "alice" || body["id"] == nil {
		t.Fatalf("register: unexpected body %v", body)
	}
	cookie := sessionCookie(t, rec)

	rec = srv.do(http.MethodGet, "/api/auth/me", "", cookie)
	if rec.Code != http.StatusOK || decode(t, rec)["username"] != "alice" {
		t.Fatalf("me: unexpected response %d %s", rec.Code, rec.Body.String())
	}

	rec = srv.do(http.MethodPost, "/api/auth/logout", "", cookie)
	if rec.Code != http.StatusOK || decode(t, rec)["message"] != "logged out" {
		t.Fatalf("logout: unexpected response %d %s", rec.Code, rec.Body.String())
	}

	// the old cookie no longer resolves
	rec = srv.do(http.MethodGet, "/api/auth/me", "", cookie)
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "null" {
		t.Fatalf("me after logout: unexpected response %d %s", rec.Code, rec.Body.String())
	}

	rec = srv.do(http.MethodPost, "/api/auth/login", `{"username":"alice","password":"wrongpw"}`, nil)
	if rec.Code != http.StatusUnauthorized || decode(t, rec)["message"] != "invalid credentials" {
		t.Fatalf("wrong password: unexpected response %d %s", rec.Code, rec.Body.String())
	}

	rec = srv.do(http.MethodPost, "/api/auth/login", `{"username":"alice","password":"secretpw"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d %s", rec.Code, rec.Body.String())
	}
	rec = srv.do(http.MethodGet, "/api/auth/me", "", sessionCookie(t, rec))
	if decode(t, rec)["username"] != "alice" {
		t.Fatalf("me after login: unexpected body %s", rec.Body.String())
	}
}

func TestRouter_LoginRejectionsLookAlike(t *testing.T) {
	srv := newTestServer(t, nil)
	srv.do(http.MethodPost, "/api/auth/register", `{"username":"bob","password":"secretpw"}`, nil)

	unknown := srv.do(http.MethodPost, "/api/auth/login", `{"username":"nobody","password":"secretpw"}`, nil)
	wrong := srv.do(http.MethodPost, "/api/auth/login", `{"username":"bob","password":"badpassword"}`, nil)
	malformed := srv.do(http.MethodPost, "/api/auth/login", `{"username":`, nil)

	for name, rec := range map[string]*httptest.ResponseRecorder{"unknown": unknown, "wrong": wrong, "malformed": malformed} {
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", name, rec.Code)
		}
	}
	if unknown.Body.String() != wrong.Body.String() || wrong.Body.String() != malformed.Body.String() {
		t.Fatalf("rejection bodies differ: %q / %q / %q", unknown.Body.String(), wrong.Body.String(), malformed.Body.String())
	}
}

func TestRouter_RegisterErrors(t *testing.T) {
	srv := newTestServer(t, nil)
	srv.do(http.MethodPost, "/api/auth/register", `{"username":"carol","password":"secretpw"}`, nil)

	tests := []struct {
		name      string
		body      string
		wantField string
		wantMsg   string
	}{
		{name: "duplicate", body: `{"username":"carol","password":"another1"}`, wantField: "username", wantMsg: "username already exists"},
		{name: "missing password", body: `{"username":"dave"}`, wantField: "password"},
		{name: "short password", body: `{"username":"dave","password":"123"}`, wantField: "password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := srv.do(http.MethodPost, "/api/auth/register", tt.body, nil)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d %s", rec.Code, rec.Body.String())
			}
			body := decode(t, rec)
			if body["field"] != tt.wantField {
				t.Fatalf("expected field %q, got %v", tt.wantField, body["field"])
			}
			if tt.wantMsg != "" && body["message"] != tt.wantMsg {
				t.Fatalf("expected message %q, got %v", tt.wantMsg, body["message"])
			}
		})
	}
}

func TestRouter_ConcurrentDuplicateRegistration(t *testing.T) {
	srv := newTestServer(t, nil)

	var wg sync.WaitGroup
	codes := make([]int, 2)
	for i := range codes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			codes[i] = srv.do(http.MethodPost, "/api/auth/register", `{"username":"erin","password":"secretpw"}`, nil).Code
		}(i)
	}
	wg.Wait()

	created, rejected := 0, 0
	for _, code := range codes {
		switch code {
		case http.StatusCreated:
			created++
		case http.StatusBadRequest:
			rejected++
		}
	}
	if created != 1 || rejected != 1 || srv.users.Len() != 1 {
		t.Fatalf("expected one 201 and one 400, got %v (users=%d)", codes, srv.users.Len())
	}
}

func TestRouter_ForgedCookieIsAnonymous(t *testing.T) {
	srv := newTestServer(t, nil)
	rec := srv.do(http.MethodPost, "/api/auth/register", `{"username":"frank","password":"secretpw"}`, nil)
	cookie := sessionCookie(t, rec)

	tampered := &http.Cookie{Name: cookie.Name, Value: cookie.Value + "x"}
	rec = srv.do(http.MethodGet, "/api/auth/me", "", tampered)
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "null" {
		t.Fatalf("expected null for tampered cookie, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestRouter_Products(t *testing.T) {
	title, category := "monitor", "electronics"
	srv := newTestServer(t, &stubCatalog{products: []domain.Product{{Title: &title, Category: &category}}})

	rec := srv.do(http.MethodGet, "/api/products/categories", "", nil)
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != `["electronics"]` {
		t.Fatalf("unexpected categories response %d %s", rec.Code, rec.Body.String())
	}

	rec = srv.do(http.MethodGet, "/api/products?category=jewelery", "", nil)
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Fatalf("unexpected filtered response %d %s", rec.Code, rec.Body.String())
	}
}

func TestRouter_ProductsUpstreamFailure(t *testing.T) {
	srv := newTestServer(t, &stubCatalog{err: &domain.UpstreamFetchError{Reason: "unexpected status 500"}})

	rec := srv.do(http.MethodGet, "/api/products", "", nil)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	if decode(t, rec)["message"] != "failed to load products" {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}

func TestRouter_OperationalEndpoints(t *testing.T) {
	srv := newTestServer(t, nil)

	for _, path := range []string{"/health", "/health/ready", "/metrics"} {
		if rec := srv.do(http.MethodGet, path, "", nil); rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, rec.Code)
		}
	}
	if rec := srv.do(http.MethodGet, "/no/such/route", "", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
