package membership

import (
	"net/http"

	"github.com/gheggie/silverware-mailchimp/internal/mailchimp"
)

// memberExistsTitle is the error title MailChimp reports when a POST hits
// an address that is already on the list. The HTTP status varies, the
// title does not.
const memberExistsTitle = "Member Exists"

// Classify maps one raw call result onto an outcome. It is pure and total:
// every (mode, result) pair lands on exactly one outcome, and unrecognized
// failure shapes fall through to OutcomeTransientError rather than being
// dropped. The detail string carries the raw API error for transient
// failures and is empty otherwise.
func Classify(mode Mode, res *mailchimp.CallResult) (Outcome, string) {
	if res == nil {
		return OutcomeTransientError, "no response from API client"
	}

	if res.Success {
		if mode == ModeUnsubscribe {
			return OutcomeUnsubscribed, ""
		}
		return OutcomeSubscribed, ""
	}

	if res.Title() == memberExistsTitle {
		return OutcomeAlreadyMember, ""
	}

	// Keyed off the body's status field, not the HTTP status: a 404 from
	// an intermediary without an API error body is not a missing member.
	if mode == ModeUnsubscribe && res.BodyStatus() == http.StatusNotFound {
		return OutcomeNotFound, ""
	}

	return OutcomeTransientError, res.LastError
}
