package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"lead-capture/internal/lead/service"
	"lead-capture/internal/platform/httpx"
)

// MaxBodyBytes caps the JSON body of a submission.
const MaxBodyBytes = 64 << 10

// Response messages of the submission endpoint.
const (
	MsgCreated       = "lead created successfully"
	MsgBodyTooLarge  = "request body too large"
	MsgInternalError = "internal server error, please try again later"
)

// Submitter is the submission service used by the handler.
type Submitter interface {
	Submit(ctx context.Context, c service.Candidate) (*service.Result, error)
}

// CreatedBody is the 201 response.
type CreatedBody struct {
	Message string `json:"message"`
	LeadID  string `json:"leadId"`
}

// Handler serves POST /api/leads.
type Handler struct {
	svc    Submitter
	logger *zap.Logger
}

// NewHandler returns a lead submission Handler. logger may be nil.
func NewHandler(svc Submitter, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

// Register mounts the submission route on r.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/api/leads", h.Create).Methods(http.MethodPost)
}

// Create decodes a JSON submission and maps the service outcome to 201, 400 or 500.
// A body that is not a JSON object is treated as a submission with every field missing.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httpx.WriteError(w, http.StatusRequestEntityTooLarge, MsgBodyTooLarge)
			return
		}
		httpx.WriteError(w, http.StatusBadRequest, service.MsgAllFieldsRequired)
		return
	}

	res, err := h.svc.Submit(r.Context(), service.CandidateFromMap(body))
	if err != nil {
		var invalid *service.InvalidInputError
		if errors.As(err, &invalid) {
			httpx.WriteError(w, http.StatusBadRequest, invalid.Message)
			return
		}
		if !errors.Is(err, service.ErrServer) {
			h.logger.Error("unexpected submission error", zap.Error(err))
		}
		httpx.WriteError(w, http.StatusInternalServerError, MsgInternalError)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, CreatedBody{Message: MsgCreated, LeadID: res.LeadID})
}
