package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gorilla/mux"
	"github.com/xuri/excelize/v2"

	"lead-capture/internal/export"
	"lead-capture/internal/lead/domain"
	"lead-capture/internal/lead/repository"
	"lead-capture/internal/security"
	"lead-capture/internal/server/middleware"
)

const testPassword = "correct horse"

type failingLister struct{}

func (failingLister) ListAll(ctx context.Context) ([]*domain.Lead, error) {
	return nil, fmt.Errorf("%w: timeout", domain.ErrPersistence)
}

func seeded(t *testing.T, names ...string) *repository.MemoryRepository {
	t.Helper()
	repo := repository.NewMemoryRepository()
	for _, n := range names {
		if _, err := repo.Create(context.Background(), domain.NewLead{Name: n, Email: strings.ToLower(n) + "@example.com", Phone: "912"}); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	return repo
}

// newRouter builds the admin routes; withAuth configures a password hash and token provider.
func newRouter(t *testing.T, leads Lister, withAuth bool) (*mux.Router, *security.TokenProvider) {
	t.Helper()
	var cfg Config
	var tokens *security.TokenProvider
	if withAuth {
		hasher := security.NewHasher(4)
		hash, err := hasher.Hash([]byte(testPassword))
		if err != nil {
			t.Fatalf("Hash: %v", err)
		}
		tokens, err = security.NewTestTokenProvider()
		if err != nil {
			t.Fatalf("NewTestTokenProvider: %v", err)
		}
		cfg = Config{PasswordHash: hash, Tokens: tokens, Hasher: hasher}
	}
	h, err := NewHandler(leads, cfg, nil)
	if err != nil {
		t.Fatalf("NewHandler: %v", err)
	}
	r := mux.NewRouter()
	h.Register(r)
	return r, tokens
}

func do(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestNewHandler_RequiresTokensWithHash(t *testing.T) {
	if _, err := NewHandler(repository.NewMemoryRepository(), Config{PasswordHash: "$2a$04$x"}, nil); err == nil {
		t.Fatal("expected error without token provider")
	}
}

func TestLeadsPage(t *testing.T) {
	testCases := []struct {
		name     string
		leads    Lister
		status   int
		contains []string
		absent   string
	}{
		{"empty", seeded(t), http.StatusOK, []string{MsgNoLeads}, "<table>"},
		{"rows newest first", seeded(t, "Ana", "Rui"), http.StatusOK, []string{"<table>", "rui@example.com"}, MsgNoLeads},
		{"store failure", failingLister{}, http.StatusInternalServerError, nil, "timeout"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r, _ := newRouter(t, tc.leads, false)
			rec := do(r, httptest.NewRequest(http.MethodGet, "/admin/leads", nil))
			if rec.Code != tc.status {
				t.Fatalf("status = %d, want %d", rec.Code, tc.status)
			}
			body := rec.Body.String()
			for _, want := range tc.contains {
				if !strings.Contains(body, want) {
					t.Errorf("body missing %q", want)
				}
			}
			if strings.Contains(body, tc.absent) {
				t.Errorf("body should not contain %q", tc.absent)
			}
		})
	}

	r, _ := newRouter(t, seeded(t, "Ana", "Rui"), false)
	body := do(r, httptest.NewRequest(http.MethodGet, "/admin/leads", nil)).Body.String()
	if strings.Index(body, "Rui") > strings.Index(body, "Ana") {
		t.Error("leads must be listed newest first")
	}
}

func TestListJSON(t *testing.T) {
	repo := seeded(t, "Ana", "Rui")
	r, _ := newRouter(t, repo, false)
	rec := do(r, httptest.NewRequest(http.MethodGet, "/api/admin/leads", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var got []*domain.Lead
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want, _ := repo.ListAll(context.Background())
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("listing mismatch (-want +got):\n%s", diff)
	}
}

func TestExport(t *testing.T) {
	r, _ := newRouter(t, seeded(t), false)
	rec := do(r, httptest.NewRequest(http.MethodGet, "/admin/leads/export.xlsx", nil))
	if rec.Code != http.StatusNotFound || !strings.Contains(rec.Body.String(), MsgNoLeads) {
		t.Fatalf("empty export = %d %s, want 404 %q", rec.Code, rec.Body.String(), MsgNoLeads)
	}

	r, _ = newRouter(t, seeded(t, "Ana"), false)
	rec = do(r, httptest.NewRequest(http.MethodGet, "/admin/leads/export.xlsx", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != xlsxMediaType {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, exportFilename) {
		t.Errorf("Content-Disposition = %q", cd)
	}
	f, err := excelize.OpenReader(rec.Body)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows(export.SheetName)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 2 || rows[1][1] != "Ana" {
		t.Errorf("rows = %v", rows)
	}
}

func TestAuth_RejectsMissingOrInvalidToken(t *testing.T) {
	r, _ := newRouter(t, seeded(t, "Ana"), true)
	for _, path := range []string{"/admin/leads", "/api/admin/leads", "/admin/leads/export.xlsx"} {
		t.Run(path, func(t *testing.T) {
			if rec := do(r, httptest.NewRequest(http.MethodGet, path, nil)); rec.Code != http.StatusUnauthorized {
				t.Errorf("no token: status = %d, want 401", rec.Code)
			}
			req := httptest.NewRequest(http.MethodGet, path, nil)
			req.Header.Set("Authorization", "Bearer not-a-jwt")
			if rec := do(r, req); rec.Code != http.StatusUnauthorized {
				t.Errorf("bad token: status = %d, want 401", rec.Code)
			}
		})
	}
}

func TestAuth_BearerToken(t *testing.T) {
	r, tokens := newRouter(t, seeded(t, "Ana"), true)
	token, _, err := tokens.IssueAdmin(AdminSubject)
	if err != nil {
		t.Fatalf("IssueAdmin: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/admin/leads", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	if rec := do(r, req); rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func loginRequest(path, password string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(url.Values{"password": {password}}.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestLogin(t *testing.T) {
	r, _ := newRouter(t, seeded(t, "Ana"), true)

	rec := do(r, loginRequest("/admin/login", "wrong"))
	if rec.Code != http.StatusUnauthorized || !strings.Contains(rec.Body.String(), MsgInvalidPassword) {
		t.Fatalf("wrong password = %d, want 401 with %q", rec.Code, MsgInvalidPassword)
	}

	rec = do(r, loginRequest("/admin/login", testPassword))
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("login status = %d, want 303", rec.Code)
	}
	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.AdminCookie {
			cookie = c
		}
	}
	if cookie == nil || cookie.Value == "" || !cookie.HttpOnly {
		t.Fatalf("admin cookie = %+v", cookie)
	}

	req := httptest.NewRequest(http.MethodGet, "/admin/leads", nil)
	req.AddCookie(cookie)
	if rec := do(r, req); rec.Code != http.StatusOK {
		t.Errorf("listing with cookie = %d, want 200", rec.Code)
	}
}

func TestLogin_TokenEndpoint(t *testing.T) {
	r, _ := newRouter(t, seeded(t), true)
	rec := do(r, loginRequest("/api/admin/token", testPassword))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp TokenResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/admin/leads", nil)
	req.Header.Set("Authorization", "Bearer "+resp.Token)
	if rec := do(r, req); rec.Code != http.StatusOK {
		t.Errorf("listing with issued token = %d, want 200", rec.Code)
	}

	rec = do(r, loginRequest("/api/admin/token", "wrong"))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong password = %d, want 401", rec.Code)
	}
}

func TestLogout_ClearsCookie(t *testing.T) {
	r, _ := newRouter(t, seeded(t), true)
	rec := do(r, httptest.NewRequest(http.MethodPost, "/admin/logout", nil))
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d", rec.Code)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != middleware.AdminCookie || cookies[0].MaxAge >= 0 {
		t.Errorf("cookies = %+v", cookies)
	}
}

func TestAuthDisabled_LoginRedirects(t *testing.T) {
	r, _ := newRouter(t, seeded(t), false)
	rec := do(r, httptest.NewRequest(http.MethodGet, "/admin/login", nil))
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/admin/leads" {
		t.Errorf("login page = %d %q", rec.Code, rec.Header().Get("Location"))
	}
}
