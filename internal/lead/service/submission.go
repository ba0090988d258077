package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"lead-capture/internal/lead/domain"
	"lead-capture/internal/lead/validation"
	"lead-capture/internal/telemetry"
)

// instrumentationName scopes the tracer and meter of the submission service.
const instrumentationName = "lead-capture/internal/lead/service"

// Client-facing messages of a rejected submission.
const (
	MsgAllFieldsRequired = "all fields required"
	MsgInvalidEmail      = validation.MsgEmailInvalid
	MsgInvalidPhone      = validation.MsgPhoneInvalid
)

// ErrServer is returned when the lead could not be stored. The wrapped cause is for logs only.
var ErrServer = errors.New("internal server error, please try again later")

// Outcomes recorded on the leads.submitted counter.
const (
	OutcomeCreated = "created"
	OutcomeInvalid = "invalid"
	OutcomeError   = "error"
)

// InvalidInputError rejects a submission before anything is stored.
// Message is one of MsgAllFieldsRequired, MsgInvalidEmail, MsgInvalidPhone; Fields holds the per-field detail.
type InvalidInputError struct {
	Message string
	Fields  validation.Errors
}

func (e *InvalidInputError) Error() string { return e.Message }

// Candidate is an unvalidated submission. Values come from decoded JSON or form posts and may be
// missing (nil) or of the wrong type; anything that is not a string counts as missing.
type Candidate struct {
	Name     any
	Email    any
	Phone    any
	Message  any
	Property any
}

// CandidateFromMap reads a decoded JSON object. "telefone" carries the phone; "nome" is accepted
// when "name" is absent.
func CandidateFromMap(m map[string]any) Candidate {
	name, ok := m["name"]
	if !ok {
		name = m["nome"]
	}
	return Candidate{
		Name:     name,
		Email:    m["email"],
		Phone:    m["telefone"],
		Message:  m["message"],
		Property: m["property"],
	}
}

// Result is a successful submission.
type Result struct {
	LeadID      string
	SubmittedAt time.Time
}

// LeadCreator is the minimal lead repository needed by the submission service.
type LeadCreator interface {
	Create(ctx context.Context, n domain.NewLead) (*domain.Lead, error)
}

// SubmissionService validates, normalizes and stores lead submissions.
type SubmissionService struct {
	repo      LeadCreator
	emitter   telemetry.EventEmitter
	logger    *zap.Logger
	tracer    trace.Tracer
	submitted metric.Int64Counter
}

// NewSubmissionService returns a SubmissionService. emitter may be nil (no lead events); logger may be nil.
// Tracing and metrics use the global OTel providers.
func NewSubmissionService(repo LeadCreator, emitter telemetry.EventEmitter, logger *zap.Logger) (*SubmissionService, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	counter, err := otel.Meter(instrumentationName).Int64Counter("leads.submitted",
		metric.WithDescription("Lead submissions by outcome"),
		metric.WithUnit("{submission}"),
	)
	if err != nil {
		return nil, fmt.Errorf("leads.submitted counter: %w", err)
	}
	return &SubmissionService{
		repo:      repo,
		emitter:   emitter,
		logger:    logger,
		tracer:    otel.Tracer(instrumentationName),
		submitted: counter,
	}, nil
}

// Submit checks the candidate and stores it as a new lead.
// Checks run in order: all required fields present, then email format, then phone format; the first
// failure is returned as *InvalidInputError and the store is not called. Store failures return an error
// wrapping ErrServer. Exactly one lead is written per successful call.
func (s *SubmissionService) Submit(ctx context.Context, c Candidate) (*Result, error) {
	ctx, span := s.tracer.Start(ctx, "lead.Submit")
	defer span.End()

	fields := validation.Fields{
		Name:  stringValue(c.Name),
		Email: stringValue(c.Email),
		Phone: stringValue(c.Phone),
	}
	if err := checkCandidate(fields); err != nil {
		s.record(ctx, OutcomeInvalid)
		span.SetAttributes(attribute.String("lead.rejected", err.Message))
		return nil, err
	}

	norm := validation.Normalize(fields)
	lead, err := s.repo.Create(ctx, domain.NewLead{
		Name:     norm.Name,
		Email:    norm.Email,
		Phone:    norm.Phone,
		Message:  strings.TrimSpace(stringValue(c.Message)),
		Property: strings.TrimSpace(stringValue(c.Property)),
	})
	if err != nil {
		s.record(ctx, OutcomeError)
		span.RecordError(err)
		span.SetStatus(codes.Error, "lead store failure")
		s.logger.Error("lead submission failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrServer, err)
	}

	s.record(ctx, OutcomeCreated)
	span.SetAttributes(attribute.String("lead.id", lead.ID))
	s.logger.Info("lead created",
		zap.String("lead_id", lead.ID),
		zap.String("property", lead.Property))
	telemetry.EmitAsync(s.emitter, ctx, telemetry.NewLeadCreated(lead.ID, lead.Property, lead.SubmittedAt))

	return &Result{LeadID: lead.ID, SubmittedAt: lead.SubmittedAt}, nil
}

func (s *SubmissionService) record(ctx context.Context, outcome string) {
	s.submitted.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// checkCandidate maps the field rules onto the single client-facing message.
func checkCandidate(f validation.Fields) *InvalidInputError {
	errs := validation.Validate(f)
	switch {
	case errs.Valid():
		return nil
	case errs.HasKind(validation.KindRequired):
		return &InvalidInputError{Message: MsgAllFieldsRequired, Fields: errs}
	case hasField(errs, validation.FieldEmail):
		return &InvalidInputError{Message: MsgInvalidEmail, Fields: errs}
	default:
		return &InvalidInputError{Message: MsgInvalidPhone, Fields: errs}
	}
}

func hasField(errs validation.Errors, field string) bool {
	_, ok := errs[field]
	return ok
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}
