package lists

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"

	"github.com/gheggie/silverware-mailchimp/internal/mailchimp"
	"github.com/gheggie/silverware-mailchimp/pkg/cache"
)

type stubListClient struct {
	apiKey string
	calls  int
	result *mailchimp.CallResult
	err    error
}

func (s *stubListClient) Get(ctx context.Context, path string, params interface{}) (*mailchimp.CallResult, error) {
	s.calls++
	return s.result, s.err
}

func (s *stubListClient) APIKey() string {
	return s.apiKey
}

func listsResult(t *testing.T) *mailchimp.CallResult {
	t.Helper()
	return mailchimp.NewCallResult(true, 200, []byte(`{"lists":[{"id":"L1","name":"Newsletter"},{"id":"L2","name":"Announcements"}]}`))
}

func newTestDirectory(client Client, ttl time.Duration) (*Directory, *cache.Cache) {
	logger, _ := test.NewNullLogger()
	c := cache.New(cache.Options{TTL: ttl}, cache.MetricsHooks{})
	return NewDirectory(client, c, logger), c
}

func TestDirectoryFetchesOncePerTTL(t *testing.T) {
	stub := &stubListClient{apiKey: "0123456789abcdef-us6", result: listsResult(t)}
	dir, _ := newTestDirectory(stub, time.Minute)

	for i := 0; i < 3; i++ {
		descriptors, err := dir.Descriptors(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(descriptors) != 2 || descriptors[0].ID != "L1" || descriptors[1].Name != "Announcements" {
			t.Fatalf("unexpected descriptors %v", descriptors)
		}
	}
	if stub.calls != 1 {
		t.Fatalf("expected one fetch within TTL, got %d", stub.calls)
	}
}

func TestDirectoryRefetchesAfterExpiry(t *testing.T) {
	stub := &stubListClient{apiKey: "0123456789abcdef-us6", result: listsResult(t)}
	dir, _ := newTestDirectory(stub, 20*time.Millisecond)

	if _, err := dir.Descriptors(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	time.Sleep(30 * time.Millisecond)
	if _, err := dir.Descriptors(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stub.calls != 2 {
		t.Fatalf("expected refetch after expiry, got %d calls", stub.calls)
	}
}

func TestDirectoryFlushForcesRefetch(t *testing.T) {
	stub := &stubListClient{apiKey: "0123456789abcdef-us6", result: listsResult(t)}
	dir, _ := newTestDirectory(stub, time.Minute)

	if _, err := dir.Descriptors(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	dir.Flush()
	if _, err := dir.Descriptors(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stub.calls != 2 {
		t.Fatalf("expected refetch after flush, got %d calls", stub.calls)
	}
}

func TestDirectoryFailedFetchReportsErrorAndKeepsEntry(t *testing.T) {
	stub := &stubListClient{apiKey: "0123456789abcdef-us6", result: listsResult(t)}
	dir, c := newTestDirectory(stub, 20*time.Millisecond)

	if _, err := dir.Descriptors(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	time.Sleep(30 * time.Millisecond)
	stub.result = mailchimp.NewCallResult(false, 503, []byte(`{"title":"Service Unavailable","status":503}`))
	if _, err := dir.Descriptors(context.Background()); err == nil {
		t.Fatal("expected error from failed fetch")
	}
	if c.Len() != 1 {
		t.Fatalf("expected prior entry to survive failed fetch, got %d entries", c.Len())
	}

	stub.result = listsResult(t)
	descriptors, err := dir.Descriptors(context.Background())
	if err != nil {
		t.Fatalf("unexpected error after recovery: %v", err)
	}
	if len(descriptors) != 2 {
		t.Fatalf("unexpected descriptors %v", descriptors)
	}
}

func TestDirectoryNilClient(t *testing.T) {
	dir, _ := newTestDirectory(nil, time.Minute)
	if _, err := dir.Descriptors(context.Background()); err != ErrNoClient {
		t.Fatalf("expected ErrNoClient, got %v", err)
	}
}

func TestCacheKeyDistinctPerCredential(t *testing.T) {
	a := CacheKey("0123456789abcdef-us6")
	b := CacheKey("fedcba9876543210-us6")
	if a == b {
		t.Fatalf("expected distinct keys, got %q for both", a)
	}
	if a != "mailchimp-api-01234567" {
		t.Fatalf("unexpected key %q", a)
	}
	if CacheKey("ab") != "mailchimp-api-ab" {
		t.Fatalf("unexpected short key %q", CacheKey("ab"))
	}
}
