package membership

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"

	"github.com/gheggie/silverware-mailchimp/internal/mailchimp"
)

type recordedCall struct {
	method string
	path   string
	params interface{}
}

type stubClient struct {
	calls  []recordedCall
	result *mailchimp.CallResult
	err    error
}

func (s *stubClient) Post(ctx context.Context, path string, params interface{}) (*mailchimp.CallResult, error) {
	s.calls = append(s.calls, recordedCall{"POST", path, params})
	return s.result, s.err
}

func (s *stubClient) Put(ctx context.Context, path string, params interface{}) (*mailchimp.CallResult, error) {
	s.calls = append(s.calls, recordedCall{"PUT", path, params})
	return s.result, s.err
}

func (s *stubClient) Patch(ctx context.Context, path string, params interface{}) (*mailchimp.CallResult, error) {
	s.calls = append(s.calls, recordedCall{"PATCH", path, params})
	return s.result, s.err
}

func newTestService(client Client, verbose bool) *Service {
	logger, _ := test.NewNullLogger()
	return NewService(client, DefaultMessages(), verbose, logger)
}

func TestSyncSubscribeSuccess(t *testing.T) {
	stub := &stubClient{result: &mailchimp.CallResult{Success: true, StatusCode: 200}}
	svc := newTestService(stub, false)

	req := Request{
		ListID:           "L1",
		Email:            "a@x.com",
		FirstName:        "A",
		RequireFirstName: true,
	}
	result := svc.Sync(context.Background(), req, ModeSubscribe)

	if result.Outcome != OutcomeSubscribed {
		t.Fatalf("expected subscribed, got %s", result.Outcome)
	}
	if result.Message != DefaultMessages().OnSubscribe {
		t.Fatalf("unexpected message %q", result.Message)
	}
	if result.Severity != SeverityGood {
		t.Fatalf("expected good severity, got %s", result.Severity)
	}
	if len(stub.calls) != 1 {
		t.Fatalf("expected exactly one API call, got %d", len(stub.calls))
	}
	call := stub.calls[0]
	if call.method != "POST" || call.path != "lists/L1/members" {
		t.Fatalf("unexpected call %s %s", call.method, call.path)
	}
	payload, ok := call.params.(map[string]interface{})
	if !ok {
		t.Fatalf("unexpected payload type %T", call.params)
	}
	if payload["email_address"] != "a@x.com" || payload["status"] != "subscribed" {
		t.Fatalf("unexpected payload %v", payload)
	}
	merge, ok := payload["merge_fields"].(map[string]string)
	if !ok || merge["FNAME"] != "A" {
		t.Fatalf("unexpected merge fields %v", payload["merge_fields"])
	}
}

func TestSyncUpdateUsesHashedPath(t *testing.T) {
	stub := &stubClient{result: &mailchimp.CallResult{Success: true, StatusCode: 200}}
	svc := newTestService(stub, false)

	result := svc.Sync(context.Background(), Request{ListID: "L1", Email: "User@Example.com"}, ModeUpdate)

	if result.Outcome != OutcomeSubscribed {
		t.Fatalf("expected subscribed, got %s", result.Outcome)
	}
	want := "lists/L1/members/" + mailchimp.SubscriberHash("user@example.com")
	if len(stub.calls) != 1 || stub.calls[0].method != "PUT" || stub.calls[0].path != want {
		t.Fatalf("unexpected calls %v", stub.calls)
	}
}

func TestSyncUnsubscribePatchesStatus(t *testing.T) {
	stub := &stubClient{result: &mailchimp.CallResult{Success: true, StatusCode: 200}}
	svc := newTestService(stub, false)

	result := svc.Sync(context.Background(), Request{ListID: "L1", Email: "a@x.com"}, ModeUnsubscribe)

	if result.Outcome != OutcomeUnsubscribed {
		t.Fatalf("expected unsubscribed, got %s", result.Outcome)
	}
	if result.Message != DefaultMessages().OnUnsubscribe || result.Severity != SeverityGood {
		t.Fatalf("unexpected rendering %+v", result)
	}
	if len(stub.calls) != 1 || stub.calls[0].method != "PATCH" {
		t.Fatalf("unexpected calls %v", stub.calls)
	}
	body, ok := stub.calls[0].params.(map[string]string)
	if !ok || body["status"] != "unsubscribed" {
		t.Fatalf("unexpected patch body %v", stub.calls[0].params)
	}
}

func TestSyncValidationFailureSkipsNetwork(t *testing.T) {
	stub := &stubClient{result: &mailchimp.CallResult{Success: true}}
	svc := newTestService(stub, false)

	result := svc.Sync(context.Background(), Request{ListID: "L1", Email: "not-an-email"}, ModeSubscribe)

	if result.Outcome != OutcomeValidationFailed {
		t.Fatalf("expected validation failure, got %s", result.Outcome)
	}
	if result.Severity != SeverityError {
		t.Fatalf("expected error severity, got %s", result.Severity)
	}
	if !strings.Contains(result.Message, "Valid email is required") {
		t.Fatalf("expected validation message, got %q", result.Message)
	}
	if len(stub.calls) != 0 {
		t.Fatalf("expected zero API calls, got %d", len(stub.calls))
	}
}

func TestSyncValidationJoinsMultipleErrors(t *testing.T) {
	svc := newTestService(&stubClient{}, false)

	result := svc.Sync(context.Background(), Request{
		ListID:           "L1",
		Email:            "a@x.com",
		RequireFirstName: true,
		RequireLastName:  true,
	}, ModeSubscribe)

	if result.Outcome != OutcomeValidationFailed {
		t.Fatalf("expected validation failure, got %s", result.Outcome)
	}
	if result.Message != "First Name is required; Last Name is required" {
		t.Fatalf("unexpected message %q", result.Message)
	}
}

func TestSyncNilClientReportsUnavailable(t *testing.T) {
	svc := newTestService(nil, false)

	result := svc.Sync(context.Background(), Request{ListID: "L1", Email: "a@x.com"}, ModeSubscribe)

	if result.Outcome != OutcomeUnavailable {
		t.Fatalf("expected unavailable, got %s", result.Outcome)
	}
	if result.Message != DefaultMessages().OnError || result.Severity != SeverityError {
		t.Fatalf("unexpected rendering %+v", result)
	}
	if result.Detail != "" {
		t.Fatalf("expected detail hidden without verbose mode, got %q", result.Detail)
	}
}

func TestSyncAlreadyMemberWarning(t *testing.T) {
	stub := &stubClient{result: &mailchimp.CallResult{
		Success:    false,
		StatusCode: 400,
		Body:       map[string]interface{}{"title": "Member Exists"},
	}}
	svc := newTestService(stub, false)

	result := svc.Sync(context.Background(), Request{ListID: "L1", Email: "a@x.com"}, ModeSubscribe)

	if result.Outcome != OutcomeAlreadyMember {
		t.Fatalf("expected already member, got %s", result.Outcome)
	}
	if result.Message != DefaultMessages().OnAlreadySubscribed || result.Severity != SeverityWarning {
		t.Fatalf("unexpected rendering %+v", result)
	}
}

func TestSyncUnsubscribeNotFoundWarning(t *testing.T) {
	stub := &stubClient{result: &mailchimp.CallResult{
		Success:    false,
		StatusCode: 404,
		Body:       map[string]interface{}{"status": float64(404)},
	}}
	svc := newTestService(stub, false)

	result := svc.Sync(context.Background(), Request{ListID: "L1", Email: "a@x.com"}, ModeUnsubscribe)

	if result.Outcome != OutcomeNotFound {
		t.Fatalf("expected not found, got %s", result.Outcome)
	}
	if result.Message != DefaultMessages().OnNotFound || result.Severity != SeverityWarning {
		t.Fatalf("unexpected rendering %+v", result)
	}
}

func TestSyncTransientErrorDetailGatedByVerbose(t *testing.T) {
	stub := &stubClient{result: &mailchimp.CallResult{
		Success:   false,
		LastError: "dial tcp: connection refused",
	}}

	result := newTestService(stub, false).Sync(context.Background(), Request{ListID: "L1", Email: "a@x.com"}, ModeSubscribe)
	if result.Outcome != OutcomeTransientError {
		t.Fatalf("expected transient error, got %s", result.Outcome)
	}
	if result.Message != DefaultMessages().OnError || result.Severity != SeverityError {
		t.Fatalf("unexpected rendering %+v", result)
	}
	if result.Detail != "" {
		t.Fatalf("expected no detail without verbose mode, got %q", result.Detail)
	}

	result = newTestService(stub, true).Sync(context.Background(), Request{ListID: "L1", Email: "a@x.com"}, ModeSubscribe)
	if result.Detail != "dial tcp: connection refused" {
		t.Fatalf("expected detail in verbose mode, got %q", result.Detail)
	}
}

func TestSyncDispatchErrorBecomesTransient(t *testing.T) {
	stub := &stubClient{err: errors.New("marshal failed")}
	svc := newTestService(stub, true)

	result := svc.Sync(context.Background(), Request{ListID: "L1", Email: "a@x.com"}, ModeSubscribe)

	if result.Outcome != OutcomeTransientError {
		t.Fatalf("expected transient error, got %s", result.Outcome)
	}
	if result.Detail != "marshal failed" {
		t.Fatalf("unexpected detail %q", result.Detail)
	}
}

func TestSyncCustomMessages(t *testing.T) {
	stub := &stubClient{result: &mailchimp.CallResult{Success: true}}
	logger, _ := test.NewNullLogger()
	svc := NewService(stub, Messages{OnSubscribe: "Welcome aboard!"}, false, logger)

	result := svc.Sync(context.Background(), Request{ListID: "L1", Email: "a@x.com"}, ModeSubscribe)

	if result.Message != "Welcome aboard!" {
		t.Fatalf("expected configured message, got %q", result.Message)
	}
}
