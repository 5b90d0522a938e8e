package mailchimp

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/failsafe-go/failsafe-go"

	"github.com/gheggie/silverware-mailchimp/pkg/clients"
)

// API keys look like "0123456789abcdef0123456789abcdef-us6"; the suffix
// names the datacenter the account lives in.
const baseURLFormat = "https://%s.api.mailchimp.com/3.0"

var (
	// ErrMissingAPIKey is returned when no API key is configured.
	ErrMissingAPIKey = errors.New("mailchimp: API key not configured")

	// ErrInvalidAPIKey is returned when the key carries no datacenter suffix.
	ErrInvalidAPIKey = errors.New("mailchimp: API key has no datacenter suffix")
)

// CallResult is the outcome of a single API call. Transport-level failures
// (connect errors, timeouts) are folded into it as an unsuccessful result so
// callers classify every failure shape the same way.
type CallResult struct {
	Success    bool
	StatusCode int
	Body       map[string]interface{}
	LastError  string

	raw []byte
}

// NewCallResult builds a result from a raw response body, parsing it the
// same way a live call would. Consumers that stub the client use it to
// fabricate API responses.
func NewCallResult(success bool, statusCode int, raw []byte) *CallResult {
	result := &CallResult{
		Success:    success,
		StatusCode: statusCode,
		raw:        raw,
	}
	if len(raw) > 0 {
		var body map[string]interface{}
		if err := json.Unmarshal(raw, &body); err == nil {
			result.Body = body
		}
	}
	if !result.Success {
		result.LastError = lastErrorFromBody(result)
	}
	return result
}

// Title answers the error title reported by the API, if any
// (e.g. "Member Exists").
func (r *CallResult) Title() string {
	if r == nil || r.Body == nil {
		return ""
	}
	title, _ := r.Body["title"].(string)
	return title
}

// BodyStatus answers the numeric "status" field of an API error body.
// MailChimp repeats the HTTP status code there.
func (r *CallResult) BodyStatus() int {
	if r == nil || r.Body == nil {
		return 0
	}
	if status, ok := r.Body["status"].(float64); ok {
		return int(status)
	}
	return 0
}

// Decode unmarshals the raw response body into v.
func (r *CallResult) Decode(v interface{}) error {
	if r == nil || len(r.raw) == 0 {
		return errors.New("mailchimp: empty response body")
	}
	return json.Unmarshal(r.raw, v)
}

type Client struct {
	baseURL      string
	apiKey       string
	client       *http.Client
	httpExecutor failsafe.Executor[*http.Response]
}

type Option func(*Client)

// NewClient creates a client for the datacenter encoded in the API key.
// Construction fails without a usable key; callers treat that as the
// directory being unavailable and must not attempt any call.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	idx := strings.LastIndex(apiKey, "-")
	if idx < 0 || idx == len(apiKey)-1 {
		return nil, ErrInvalidAPIKey
	}
	datacenter := apiKey[idx+1:]

	c := &Client{
		baseURL:      fmt.Sprintf(baseURLFormat, datacenter),
		apiKey:       apiKey,
		client:       &http.Client{Timeout: 10 * time.Second},
		httpExecutor: clients.NewHTTPExecutor(clients.DefaultHTTPExecutorConfig()),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.client = httpClient
		}
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.client.Timeout = timeout
	}
}

func WithHTTPExecutorConfig(cfg clients.HTTPExecutorConfig) Option {
	return func(c *Client) {
		c.httpExecutor = clients.NewHTTPExecutor(cfg)
	}
}

// WithBaseURL overrides the datacenter URL. Used by tests.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// APIKey answers the configured key. List caches derive their key from it.
func (c *Client) APIKey() string {
	return c.apiKey
}

// SubscriberHash answers the MD5 hash of the lowercased email address,
// which the API uses as the member path segment.
func SubscriberHash(email string) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	return hex.EncodeToString(sum[:])
}

// Get issues a GET request against the given API path.
func (c *Client) Get(ctx context.Context, path string, params interface{}) (*CallResult, error) {
	return c.call(ctx, http.MethodGet, path, params)
}

// Post issues a POST request against the given API path.
func (c *Client) Post(ctx context.Context, path string, params interface{}) (*CallResult, error) {
	return c.call(ctx, http.MethodPost, path, params)
}

// Put issues a PUT request against the given API path.
func (c *Client) Put(ctx context.Context, path string, params interface{}) (*CallResult, error) {
	return c.call(ctx, http.MethodPut, path, params)
}

// Patch issues a PATCH request against the given API path.
func (c *Client) Patch(ctx context.Context, path string, params interface{}) (*CallResult, error) {
	return c.call(ctx, http.MethodPatch, path, params)
}

// Delete issues a DELETE request against the given API path.
func (c *Client) Delete(ctx context.Context, path string, params interface{}) (*CallResult, error) {
	return c.call(ctx, http.MethodDelete, path, params)
}

// Ping checks API reachability and key validity.
func (c *Client) Ping(ctx context.Context) error {
	res, err := c.Get(ctx, "ping", nil)
	if err != nil {
		return err
	}
	if !res.Success {
		return fmt.Errorf("mailchimp: %s", res.LastError)
	}
	return nil
}

func (c *Client) call(ctx context.Context, method, path string, params interface{}) (*CallResult, error) {
	url := c.baseURL + "/" + strings.TrimLeft(path, "/")

	var jsonBody []byte
	if params != nil {
		var err error
		jsonBody, err = json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
	}

	resp, err := clients.ExecuteHTTP(ctx, c.httpExecutor, func() (*http.Response, error) {
		var body *bytes.Buffer
		if jsonBody != nil {
			body = bytes.NewBuffer(jsonBody)
		} else {
			body = bytes.NewBuffer(nil)
		}

		req, err := http.NewRequestWithContext(ctx, method, url, body)
		if err != nil {
			return nil, err
		}

		req.SetBasicAuth("anystring", c.apiKey)
		if jsonBody != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		return c.client.Do(req)
	})
	if err != nil {
		// Transport failure: no response to classify beyond the error text.
		return &CallResult{Success: false, LastError: err.Error()}, nil
	}
	defer func() { _ = resp.Body.Close() }()

	result := &CallResult{
		StatusCode: resp.StatusCode,
		Success:    resp.StatusCode >= 200 && resp.StatusCode < 300,
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		result.Success = false
		result.LastError = fmt.Sprintf("read response body: %v", err)
		return result, nil
	}
	result.raw = buf.Bytes()

	if len(result.raw) > 0 {
		var body map[string]interface{}
		if err := json.Unmarshal(result.raw, &body); err == nil {
			result.Body = body
		}
	}

	if !result.Success {
		result.LastError = lastErrorFromBody(result)
	}

	return result, nil
}

func lastErrorFromBody(r *CallResult) string {
	title := r.Title()
	detail, _ := r.Body["detail"].(string)

	switch {
	case title != "" && detail != "":
		return fmt.Sprintf("%s: %s", title, detail)
	case title != "":
		return title
	default:
		return fmt.Sprintf("mailchimp returned status %d", r.StatusCode)
	}
}
