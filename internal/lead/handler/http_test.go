package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"

	"lead-capture/internal/lead/domain"
	"lead-capture/internal/lead/repository"
	"lead-capture/internal/lead/service"
)

// failingRepo fails every Create.
type failingRepo struct{}

func (failingRepo) Create(ctx context.Context, n domain.NewLead) (*domain.Lead, error) {
	return nil, fmt.Errorf("%w: connection reset", domain.ErrPersistence)
}

func newRouter(t *testing.T, repo service.LeadCreator) *mux.Router {
	t.Helper()
	svc, err := service.NewSubmissionService(repo, nil, nil)
	if err != nil {
		t.Fatalf("NewSubmissionService: %v", err)
	}
	r := mux.NewRouter()
	NewHandler(svc, nil).Register(r)
	return r
}

func post(r http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/leads", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var m map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return m
}

func TestCreate_Success(t *testing.T) {
	repo := repository.NewMemoryRepository()
	r := newRouter(t, repo)

	rec := post(r, `{"name":"Ana Silva","email":"ANA@example.com","telefone":"+351 912 345 678","property":"T2"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	body := decode(t, rec)
	if body["message"] != MsgCreated || body["leadId"] == "" {
		t.Errorf("body = %v", body)
	}
	leads, _ := repo.ListAll(context.Background())
	if len(leads) != 1 || leads[0].ID != body["leadId"] || leads[0].Email != "ana@example.com" {
		t.Errorf("stored = %+v", leads)
	}
}

func TestCreate_NomeAlias(t *testing.T) {
	repo := repository.NewMemoryRepository()
	rec := post(newRouter(t, repo), `{"nome":"Ana","email":"a@b.co","telefone":"123"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if repo.Count() != 1 {
		t.Errorf("Count = %d, want 1", repo.Count())
	}
}

func TestCreate_BadRequests(t *testing.T) {
	testCases := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{"empty object", `{}`, service.MsgAllFieldsRequired},
		{"blank name", `{"name":"  ","email":"a@b.co","telefone":"123"}`, service.MsgAllFieldsRequired},
		{"numeric phone", `{"name":"A","email":"a@b.co","telefone":912345678}`, service.MsgAllFieldsRequired},
		{"phone under wrong key", `{"name":"A","email":"a@b.co","phone":"123"}`, service.MsgAllFieldsRequired},
		{"malformed json", `{"name":`, service.MsgAllFieldsRequired},
		{"json array", `[1,2]`, service.MsgAllFieldsRequired},
		{"json null", `null`, service.MsgAllFieldsRequired},
		{"bad email", `{"name":"A","email":"nope","telefone":"123"}`, service.MsgInvalidEmail},
		{"padded email", `{"name":"Ana","email":" ana@example.com ","telefone":"123"}`, service.MsgInvalidEmail},
		{"bad phone", `{"name":"A","email":"a@b.co","telefone":"12ab"}`, service.MsgInvalidPhone},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			repo := repository.NewMemoryRepository()
			rec := post(newRouter(t, repo), tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			if got := decode(t, rec)["error"]; got != tc.wantMsg {
				t.Errorf("error = %q, want %q", got, tc.wantMsg)
			}
			if repo.Count() != 0 {
				t.Errorf("Count = %d, want 0", repo.Count())
			}
		})
	}
}

func TestCreate_StoreFailure(t *testing.T) {
	rec := post(newRouter(t, failingRepo{}), `{"name":"A","email":"a@b.co","telefone":"123"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	body := decode(t, rec)
	if body["error"] != MsgInternalError {
		t.Errorf("error = %q", body["error"])
	}
	if strings.Contains(rec.Body.String(), "connection reset") {
		t.Error("internal detail leaked to client")
	}
}

func TestCreate_BodyTooLarge(t *testing.T) {
	repo := repository.NewMemoryRepository()
	big := `{"name":"A","email":"a@b.co","telefone":"123","message":"` + strings.Repeat("x", MaxBodyBytes) + `"}`
	rec := post(newRouter(t, repo), big)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413", rec.Code)
	}
	if repo.Count() != 0 {
		t.Errorf("Count = %d, want 0", repo.Count())
	}
}

func TestCreate_MethodNotAllowed(t *testing.T) {
	r := newRouter(t, repository.NewMemoryRepository())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/leads", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}
