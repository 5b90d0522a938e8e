package membership

import (
	"context"
	"fmt"
	"strings"

	"github.com/gheggie/silverware-mailchimp/internal/mailchimp"
	"github.com/gheggie/silverware-mailchimp/internal/validation"
	"github.com/gheggie/silverware-mailchimp/pkg/logging"
)

// Client is the slice of the MailChimp API the sync path uses.
type Client interface {
	Post(ctx context.Context, path string, params interface{}) (*mailchimp.CallResult, error)
	Put(ctx context.Context, path string, params interface{}) (*mailchimp.CallResult, error)
	Patch(ctx context.Context, path string, params interface{}) (*mailchimp.CallResult, error)
}

// Service performs one membership sync per call: validate, dispatch a
// single API request, classify the result, and render a Result from the
// configured message templates. It holds no per-call state.
type Service struct {
	client   Client
	messages Messages
	verbose  bool
	logger   logging.Logger
}

// NewService creates a sync service. A nil client means no credential is
// configured; every operation then reports unavailability without touching
// the network.
func NewService(client Client, messages Messages, verbose bool, logger logging.Logger) *Service {
	return &Service{
		client:   client,
		messages: messages,
		verbose:  verbose,
		logger:   logger,
	}
}

// Sync runs one subscribe, update, or unsubscribe operation and answers
// its structured result. All failures are converted to a Result; nothing
// propagates as an error to the caller.
func (s *Service) Sync(ctx context.Context, req Request, mode Mode) Result {
	// 1. Validate. Failures here never reach the network.
	if errors := validation.ValidateMembership(validation.MembershipParams{
		Email:            req.Email,
		FirstName:        req.FirstName,
		LastName:         req.LastName,
		RequireFirstName: req.RequireFirstName,
		RequireLastName:  req.RequireLastName,
	}); len(errors) > 0 {
		return Result{
			Outcome:  OutcomeValidationFailed,
			Message:  strings.Join(errors, "; "),
			Severity: SeverityError,
		}
	}

	if s.client == nil {
		return s.renderFailure(OutcomeUnavailable, "no API key configured", mode)
	}

	// 2. Dispatch exactly one call.
	res, err := s.dispatch(ctx, req, mode)
	if err != nil {
		return s.renderFailure(OutcomeTransientError, err.Error(), mode)
	}

	// 3. Classify.
	outcome, detail := Classify(mode, res)

	// 4. Render.
	return s.render(outcome, detail, mode)
}

func (s *Service) dispatch(ctx context.Context, req Request, mode Mode) (*mailchimp.CallResult, error) {
	switch mode {
	case ModeSubscribe:
		path := fmt.Sprintf("lists/%s/members", req.ListID)
		return s.client.Post(ctx, path, memberPayload(req))
	case ModeUpdate:
		path := fmt.Sprintf("lists/%s/members/%s", req.ListID, mailchimp.SubscriberHash(req.Email))
		return s.client.Put(ctx, path, memberPayload(req))
	case ModeUnsubscribe:
		path := fmt.Sprintf("lists/%s/members/%s", req.ListID, mailchimp.SubscriberHash(req.Email))
		return s.client.Patch(ctx, path, map[string]string{"status": "unsubscribed"})
	default:
		return nil, fmt.Errorf("unknown sync mode %d", mode)
	}
}

// memberPayload builds the member document for subscribe and update calls.
func memberPayload(req Request) map[string]interface{} {
	return map[string]interface{}{
		"email_address": req.Email,
		"email_type":    "html",
		"status":        "subscribed",
		"merge_fields": map[string]string{
			"FNAME": req.FirstName,
			"LNAME": req.LastName,
		},
	}
}

func (s *Service) render(outcome Outcome, detail string, mode Mode) Result {
	switch outcome {
	case OutcomeSubscribed:
		return Result{Outcome: outcome, Message: s.messages.OnSubscribe, Severity: SeverityGood}
	case OutcomeUnsubscribed:
		return Result{Outcome: outcome, Message: s.messages.OnUnsubscribe, Severity: SeverityGood}
	case OutcomeAlreadyMember:
		return Result{Outcome: outcome, Message: s.messages.OnAlreadySubscribed, Severity: SeverityWarning}
	case OutcomeNotFound:
		return Result{Outcome: outcome, Message: s.messages.OnNotFound, Severity: SeverityWarning}
	default:
		return s.renderFailure(outcome, detail, mode)
	}
}

// renderFailure maps operational failures onto the generic error template.
// The raw detail is always logged but exposed to the caller only in
// verbose mode, so end users never see upstream error text by accident.
func (s *Service) renderFailure(outcome Outcome, detail string, mode Mode) Result {
	if s.logger != nil {
		s.logger.WithFields(logging.Fields{
			"outcome": outcome.String(),
			"mode":    mode.String(),
			"detail":  detail,
		}).Error("Membership sync failed")
	}

	result := Result{
		Outcome:  outcome,
		Message:  s.messages.OnError,
		Severity: SeverityError,
	}
	if s.verbose {
		result.Detail = detail
	}
	return result
}
