package membership

// Mode selects which remote operation a sync performs.
type Mode int

const (
	// ModeSubscribe adds a new member via POST lists/{id}/members.
	ModeSubscribe Mode = iota

	// ModeUpdate upserts a member via PUT lists/{id}/members/{hash},
	// used by the subscribe-page variant keyed on the hashed email.
	ModeUpdate

	// ModeUnsubscribe flips the member status via PATCH
	// lists/{id}/members/{hash}.
	ModeUnsubscribe
)

func (m Mode) String() string {
	switch m {
	case ModeSubscribe:
		return "subscribe"
	case ModeUpdate:
		return "update"
	case ModeUnsubscribe:
		return "unsubscribe"
	default:
		return "unknown"
	}
}

// Outcome classifies the result of one sync operation. Every operation
// yields exactly one outcome.
type Outcome int

const (
	OutcomeSubscribed Outcome = iota
	OutcomeUnsubscribed
	OutcomeAlreadyMember
	OutcomeNotFound
	OutcomeValidationFailed
	OutcomeTransientError
	OutcomeUnavailable
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSubscribed:
		return "subscribed"
	case OutcomeUnsubscribed:
		return "unsubscribed"
	case OutcomeAlreadyMember:
		return "already_member"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeValidationFailed:
		return "validation_failed"
	case OutcomeTransientError:
		return "transient_error"
	case OutcomeUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Severity drives message styling on the consumer side.
type Severity string

const (
	SeverityGood    Severity = "good"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Request is one membership submission. The requirement flags come from
// the per-form configuration, not the end user.
type Request struct {
	ListID           string
	Email            string
	FirstName        string
	LastName         string
	RequireFirstName bool
	RequireLastName  bool
}

// Result is the single structured outcome of a sync operation. Message and
// Type render directly as the caller-facing JSON document; Detail carries
// raw error text and is set only in verbose mode.
type Result struct {
	Outcome  Outcome  `json:"-"`
	Message  string   `json:"message"`
	Severity Severity `json:"type"`
	Detail   string   `json:"detail,omitempty"`
}

// Messages holds the operator-configured status message templates.
type Messages struct {
	OnSubscribe         string
	OnAlreadySubscribed string
	OnUnsubscribe       string
	OnNotFound          string
	OnError             string
}

// DefaultMessages answers the stock templates used when the operator has
// not configured their own.
func DefaultMessages() Messages {
	return Messages{
		OnSubscribe:         "Thank you for subscribing to our mailing list.",
		OnAlreadySubscribed: "You have already subscribed to our mailing list.",
		OnUnsubscribe:       "You have been unsubscribed from our mailing list.",
		OnNotFound:          "Sorry, we could not find a subscriber with the given details.",
		OnError:             "Sorry, an error has occurred. Please try again later.",
	}
}
