// Package handler serves the admin login, the lead listing and the spreadsheet download.
package handler

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/csrf"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"lead-capture/internal/export"
	"lead-capture/internal/lead/domain"
	"lead-capture/internal/platform/httpx"
	"lead-capture/internal/security"
	"lead-capture/internal/server/middleware"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	// MsgNoLeads is shown instead of the table, and returned by the download, when nothing is stored.
	MsgNoLeads = "no leads found"
	// MsgInvalidPassword is shown on a failed login.
	MsgInvalidPassword = "invalid password"
	// AdminSubject is the subject of every issued admin token; there is a single admin account.
	AdminSubject = "admin"

	exportFilename = "leads_exported.xlsx"
	xlsxMediaType  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Lister reads every stored lead, newest first.
type Lister interface {
	ListAll(ctx context.Context) ([]*domain.Lead, error)
}

// Config configures admin authentication. An empty PasswordHash disables authentication.
type Config struct {
	PasswordHash string
	Tokens       *security.TokenProvider
	Hasher       *security.Hasher
	SecureCookie bool
}

// TokenResponse is returned by a login that asks for JSON, for use as a Bearer token.
type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Handler serves the admin routes.
type Handler struct {
	leads  Lister
	cfg    Config
	tmpl   *template.Template
	logger *zap.Logger
}

// NewHandler parses the embedded templates. A non-empty cfg.PasswordHash requires cfg.Tokens.
func NewHandler(leads Lister, cfg Config, logger *zap.Logger) (*Handler, error) {
	if cfg.PasswordHash != "" && cfg.Tokens == nil {
		return nil, errors.New("admin: token provider required when a password hash is configured")
	}
	if cfg.Hasher == nil {
		cfg.Hasher = security.NewHasher(0)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Handler{leads: leads, cfg: cfg, tmpl: tmpl, logger: logger}, nil
}

// AuthEnabled reports whether admin routes require a token.
func (h *Handler) AuthEnabled() bool { return h.cfg.PasswordHash != "" }

// Register mounts the admin routes on r.
func (h *Handler) Register(r *mux.Router) {
	var validator middleware.TokenValidator
	if h.AuthEnabled() {
		validator = h.cfg.Tokens
	}
	pages := middleware.RequireAdmin(validator, http.HandlerFunc(h.denyPage))
	api := middleware.RequireAdmin(validator, http.HandlerFunc(denyJSON))

	r.HandleFunc("/admin/login", h.LoginPage).Methods(http.MethodGet)
	r.HandleFunc("/admin/login", h.Login).Methods(http.MethodPost)
	r.HandleFunc("/admin/logout", h.Logout).Methods(http.MethodPost)
	r.Handle("/admin/leads", pages(http.HandlerFunc(h.LeadsPage))).Methods(http.MethodGet)
	r.Handle("/admin/leads/export.xlsx", api(http.HandlerFunc(h.Export))).Methods(http.MethodGet)
	r.Handle("/api/admin/leads", api(http.HandlerFunc(h.ListJSON))).Methods(http.MethodGet)
	r.HandleFunc("/api/admin/token", h.Login).Methods(http.MethodPost)
}

// LoginPage renders the login form, or redirects to the listing when authentication is disabled.
func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	if !h.AuthEnabled() {
		http.Redirect(w, r, "/admin/leads", http.StatusSeeOther)
		return
	}
	h.renderLogin(w, r, http.StatusOK, "")
}

// Login checks the form password against the configured bcrypt hash and issues an admin token.
// The token is set as an HttpOnly cookie; API clients (POST /api/admin/token or Accept: application/json)
// also get it in the body.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if !h.AuthEnabled() {
		if wantsJSON(r) {
			httpx.WriteError(w, http.StatusNotFound, "admin authentication is disabled")
			return
		}
		http.Redirect(w, r, "/admin/leads", http.StatusSeeOther)
		return
	}
	if err := h.cfg.Hasher.CheckPassword(h.cfg.PasswordHash, r.PostFormValue("password")); err != nil {
		if !errors.Is(err, security.ErrPasswordMismatch) {
			h.logger.Error("admin password check failed", zap.Error(err))
		}
		if wantsJSON(r) {
			httpx.WriteError(w, http.StatusUnauthorized, MsgInvalidPassword)
			return
		}
		h.renderLogin(w, r, http.StatusUnauthorized, MsgInvalidPassword)
		return
	}
	token, expiresAt, err := h.cfg.Tokens.IssueAdmin(AdminSubject)
	if err != nil {
		h.logger.Error("issue admin token", zap.Error(err))
		httpx.WriteError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AdminCookie,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   h.cfg.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	h.logger.Info("admin logged in", zap.String("client_ip", middleware.ClientIP(r)))
	if wantsJSON(r) {
		httpx.WriteJSON(w, http.StatusOK, TokenResponse{Token: token, ExpiresAt: expiresAt})
		return
	}
	http.Redirect(w, r, "/admin/leads", http.StatusSeeOther)
}

// Logout clears the admin cookie.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AdminCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cfg.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
}

// LeadsPage renders every lead newest first, or MsgNoLeads when there are none.
func (h *Handler) LeadsPage(w http.ResponseWriter, r *http.Request) {
	leads, ok := h.list(w, r)
	if !ok {
		return
	}
	h.render(w, http.StatusOK, "leads.html", struct {
		Leads       []*domain.Lead
		AuthEnabled bool
		CSRFField   template.HTML
	}{leads, h.AuthEnabled(), csrf.TemplateField(r)})
}

// ListJSON returns every lead as a JSON array.
func (h *Handler) ListJSON(w http.ResponseWriter, r *http.Request) {
	leads, ok := h.list(w, r)
	if !ok {
		return
	}
	httpx.WriteJSON(w, http.StatusOK, leads)
}

// Export downloads every lead as an xlsx spreadsheet; 404 when there are none.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	leads, ok := h.list(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := export.Write(&buf, leads); err != nil {
		if errors.Is(err, export.ErrNoLeads) {
			httpx.WriteError(w, http.StatusNotFound, MsgNoLeads)
			return
		}
		h.logger.Error("export leads", zap.Error(err))
		httpx.WriteError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		return
	}
	w.Header().Set("Content-Type", xlsxMediaType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+exportFilename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) ([]*domain.Lead, bool) {
	leads, err := h.leads.ListAll(r.Context())
	if err != nil {
		h.logger.Error("list leads", zap.Error(err))
		httpx.WriteError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		return nil, false
	}
	return leads, true
}

func (h *Handler) denyPage(w http.ResponseWriter, r *http.Request) {
	h.renderLogin(w, r, http.StatusUnauthorized, "")
}

func denyJSON(w http.ResponseWriter, r *http.Request) {
	httpx.WriteError(w, http.StatusUnauthorized, middleware.MsgUnauthenticated)
}

func (h *Handler) renderLogin(w http.ResponseWriter, r *http.Request, status int, msg string) {
	h.render(w, status, "login.html", struct {
		Error     string
		CSRFField template.HTML
	}{msg, csrf.TemplateField(r)})
}

func (h *Handler) render(w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := h.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		h.logger.Error("render admin page", zap.String("template", name), zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func wantsJSON(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/api/") || r.Header.Get("Accept") == "application/json"
}
