package handlers

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gheggie/silverware-mailchimp/internal/membership"
	"github.com/gheggie/silverware-mailchimp/internal/validation"
	"github.com/gheggie/silverware-mailchimp/pkg/logging"
)

// FormConfig is the operator-facing form configuration. It decides which
// name fields are rendered and enforced, independent of anything the
// submitter sends.
type FormConfig struct {
	ListID           string
	ShowFirstName    bool
	ShowLastName     bool
	RequireFirstName bool
	RequireLastName  bool
	UsePlaceholders  bool
	ButtonLabel      string
}

// MembershipRequest is one form submission. PhoneNumber is a honeypot:
// the rendered form hides it, so any value means a bot filled it in.
type MembershipRequest struct {
	Email       string `json:"email" form:"email"`
	FirstName   string `json:"first_name" form:"first_name"`
	LastName    string `json:"last_name" form:"last_name"`
	PhoneNumber string `json:"phone_number" form:"phone_number"`
}

type MembershipHandler struct {
	syncer  MembershipSyncer
	config  FormConfig
	logger  logging.Logger
	metrics *SignupMetrics
}

func NewMembershipHandler(syncer MembershipSyncer, config FormConfig, logger logging.Logger, metrics *SignupMetrics) *MembershipHandler {
	return &MembershipHandler{
		syncer:  syncer,
		config:  config,
		logger:  logger,
		metrics: metrics,
	}
}

// HandleSignup adds a new member to the configured list.
func (h *MembershipHandler) HandleSignup(c *gin.Context) {
	h.handle(c, membership.ModeSubscribe)
}

// HandleSubscribe upserts a member keyed on the hashed email, so
// resubmitting an existing address updates it instead of erroring.
func (h *MembershipHandler) HandleSubscribe(c *gin.Context) {
	h.handle(c, membership.ModeUpdate)
}

// HandleUnsubscribe marks an existing member as unsubscribed.
func (h *MembershipHandler) HandleUnsubscribe(c *gin.Context) {
	h.handle(c, membership.ModeUnsubscribe)
}

func (h *MembershipHandler) handle(c *gin.Context, mode membership.Mode) {
	var req MembershipRequest
	if err := c.ShouldBind(&req); err != nil {
		h.metrics.IncSync(mode.String(), "bad_request")
		respond(c, http.StatusBadRequest, membership.Result{
			Message:  "Invalid request",
			Severity: membership.SeverityError,
		})
		return
	}

	if errs := validation.ValidateHoneypot(req.PhoneNumber); len(errs) > 0 {
		h.metrics.IncSync(mode.String(), "honeypot")
		h.logger.WithFields(logging.Fields{
			"ip":    c.ClientIP(),
			"email": redactEmail(req.Email),
		}).Warn("Bot detected on membership form")
		respond(c, http.StatusBadRequest, membership.Result{
			Message:  "Submission failed validation",
			Severity: membership.SeverityError,
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	result := h.syncer.Sync(ctx, membership.Request{
		ListID:           h.config.ListID,
		Email:            strings.TrimSpace(req.Email),
		FirstName:        strings.TrimSpace(req.FirstName),
		LastName:         strings.TrimSpace(req.LastName),
		RequireFirstName: h.config.ShowFirstName && h.config.RequireFirstName,
		RequireLastName:  h.config.ShowLastName && h.config.RequireLastName,
	}, mode)

	h.metrics.IncSync(mode.String(), result.Outcome.String())
	respond(c, statusFor(result.Outcome), result)
}

// statusFor maps an outcome onto an HTTP status. Business outcomes that
// still answered the submitter's question ("already subscribed", "no such
// subscriber") are not errors on the wire.
func statusFor(outcome membership.Outcome) int {
	switch outcome {
	case membership.OutcomeValidationFailed:
		return http.StatusBadRequest
	case membership.OutcomeTransientError:
		return http.StatusBadGateway
	case membership.OutcomeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusOK
	}
}

// respond renders JSON for Ajax submissions and a redirect back to the
// referring page for plain form posts, carrying the status message in the
// query string the way the original form flow displayed it.
func respond(c *gin.Context, status int, result membership.Result) {
	if wantsJSON(c) {
		c.JSON(status, result)
		return
	}

	referer := c.Request.Referer()
	if referer == "" {
		c.JSON(status, result)
		return
	}

	target, err := url.Parse(referer)
	if err != nil {
		c.JSON(status, result)
		return
	}
	query := target.Query()
	query.Set("message", result.Message)
	query.Set("type", string(result.Severity))
	target.RawQuery = query.Encode()
	c.Redirect(http.StatusSeeOther, target.String())
}

func wantsJSON(c *gin.Context) bool {
	if strings.EqualFold(c.GetHeader("X-Requested-With"), "XMLHttpRequest") {
		return true
	}
	if strings.Contains(c.GetHeader("Accept"), "application/json") {
		return true
	}
	return strings.HasPrefix(c.ContentType(), "application/json")
}
