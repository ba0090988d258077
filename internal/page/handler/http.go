// Package handler serves the landing page and its contact form.
package handler

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"

	"github.com/gorilla/csrf"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"lead-capture/internal/lead/service"
	"lead-capture/internal/lead/validation"
)

//go:embed templates/*.html
var templateFS embed.FS

// MsgTryAgain is the single notice shown when a valid submission could not be stored.
const MsgTryAgain = "something went wrong, please try again later"

// MaxFormBytes caps the contact form body.
const MaxFormBytes = 64 << 10

// MsgPropertyRequired is shown when no listed property type was chosen.
const MsgPropertyRequired = "property type is required"

// PropertyOption is one entry of the property type select.
type PropertyOption struct {
	Value string
	Label string
}

// PropertyOptions are offered on the form; the chosen value is stored as the lead's property.
var PropertyOptions = []PropertyOption{
	{"apartment", "Yes, an apartment"},
	{"house", "Yes, a house"},
	{"land", "Yes, a plot of land"},
	{"commercial", "Yes, a commercial space"},
	{"none", "No, I am looking to buy or rent"},
}

// Submitter is the submission service used by the form.
type Submitter interface {
	Submit(ctx context.Context, c service.Candidate) (*service.Result, error)
}

// FormValues echoes what the visitor typed back into the form.
type FormValues struct {
	Name     string
	Email    string
	Phone    string
	Property string
	Message  string
}

type pageData struct {
	CSRFField  template.HTML
	Values     FormValues
	Errors     map[string]string
	Notice     string
	Submitted  bool
	Properties []PropertyOption
}

// Page renders the landing page and handles form posts.
type Page struct {
	tmpl   *template.Template
	svc    Submitter
	logger *zap.Logger
}

// NewPage parses the embedded templates. logger may be nil.
func NewPage(svc Submitter, logger *zap.Logger) (*Page, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Page{tmpl: tmpl, svc: svc, logger: logger}, nil
}

// Register mounts the page routes on r.
func (p *Page) Register(r *mux.Router) {
	r.HandleFunc("/", p.Landing).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/contact", p.Contact).Methods(http.MethodPost)
}

// Landing renders the empty form, or the thank-you state after a redirect with ?submitted=1.
func (p *Page) Landing(w http.ResponseWriter, r *http.Request) {
	p.render(w, r, http.StatusOK, pageData{Submitted: r.URL.Query().Get("submitted") == "1"})
}

// Contact validates the form with the shared rules and submits it.
// Per-field errors re-render the form with 400; a store failure shows MsgTryAgain with 500;
// success redirects to the thank-you state.
func (p *Page) Contact(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxFormBytes)
	if err := r.ParseForm(); err != nil {
		p.render(w, r, http.StatusBadRequest, pageData{Notice: service.MsgAllFieldsRequired})
		return
	}
	values := FormValues{
		Name:     r.PostFormValue("name"),
		Email:    r.PostFormValue("email"),
		Phone:    r.PostFormValue("telefone"),
		Property: r.PostFormValue("property"),
		Message:  r.PostFormValue("message"),
	}

	msgs := validation.Validate(validation.Fields{Name: values.Name, Email: values.Email, Phone: values.Phone}).Messages()
	if !knownProperty(values.Property) {
		msgs["property"] = MsgPropertyRequired
	}
	if len(msgs) > 0 {
		p.render(w, r, http.StatusBadRequest, pageData{Values: values, Errors: msgs})
		return
	}

	_, err := p.svc.Submit(r.Context(), service.Candidate{
		Name:     values.Name,
		Email:    values.Email,
		Phone:    values.Phone,
		Message:  values.Message,
		Property: values.Property,
	})
	if err != nil {
		var invalid *service.InvalidInputError
		if errors.As(err, &invalid) {
			p.render(w, r, http.StatusBadRequest, pageData{Values: values, Errors: invalid.Fields.Messages()})
			return
		}
		if !errors.Is(err, service.ErrServer) {
			p.logger.Error("unexpected contact form error", zap.Error(err))
		}
		p.render(w, r, http.StatusInternalServerError, pageData{Values: values, Notice: MsgTryAgain})
		return
	}
	http.Redirect(w, r, "/?submitted=1#contact-form", http.StatusSeeOther)
}

func knownProperty(v string) bool {
	for _, o := range PropertyOptions {
		if o.Value == v {
			return true
		}
	}
	return false
}

func (p *Page) render(w http.ResponseWriter, r *http.Request, status int, data pageData) {
	data.CSRFField = csrf.TemplateField(r)
	data.Properties = PropertyOptions
	var buf bytes.Buffer
	if err := p.tmpl.ExecuteTemplate(&buf, "landing.html", data); err != nil {
		p.logger.Error("render landing page", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
