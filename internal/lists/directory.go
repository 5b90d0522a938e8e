package lists

import (
	"context"
	"errors"
	"fmt"

	"github.com/gheggie/silverware-mailchimp/internal/mailchimp"
	"github.com/gheggie/silverware-mailchimp/pkg/cache"
	"github.com/gheggie/silverware-mailchimp/pkg/logging"
)

// keyPrefixLen is how many leading characters of the API key participate
// in the cache key. Enough to separate credentials without storing the
// full secret in cache keys or metrics labels.
const keyPrefixLen = 8

// ErrNoClient is returned when the directory has no API client to load
// lists through.
var ErrNoClient = errors.New("lists: no API client configured")

// Client is the slice of the MailChimp API the directory uses.
type Client interface {
	Get(ctx context.Context, path string, params interface{}) (*mailchimp.CallResult, error)
	APIKey() string
}

// Descriptor identifies one remote audience list.
type Descriptor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type listsDocument struct {
	Lists []Descriptor `json:"lists"`
}

// CacheKey derives the cache key for a credential. Distinct API keys get
// distinct entries so switching credentials never serves another account's
// lists.
func CacheKey(apiKey string) string {
	prefix := apiKey
	if len(prefix) > keyPrefixLen {
		prefix = prefix[:keyPrefixLen]
	}
	return "mailchimp-api-" + prefix
}

// Directory serves the available audience lists, caching them so that
// repeated form renders do not hammer the remote API.
type Directory struct {
	client Client
	cache  *cache.Cache
	logger logging.Logger
}

// NewDirectory creates a list directory backed by the given cache. The
// cache is owned by the caller so its metrics hooks can be wired up front.
func NewDirectory(client Client, c *cache.Cache, logger logging.Logger) *Directory {
	return &Directory{
		client: client,
		cache:  c,
		logger: logger,
	}
}

// Descriptors answers the cached audience lists, fetching from the remote
// API when the cache is empty or expired. On a failed fetch the previous
// entry survives and the error is reported so callers can disable their
// list selection UI instead of showing an empty one.
func (d *Directory) Descriptors(ctx context.Context) ([]Descriptor, error) {
	if d.client == nil {
		return nil, ErrNoClient
	}

	value, ok, err := d.cache.Get(ctx, CacheKey(d.client.APIKey()), d.load)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.New("lists: no cached value")
	}
	return value.([]Descriptor), nil
}

func (d *Directory) load(ctx context.Context, key string) (interface{}, bool, error) {
	res, err := d.client.Get(ctx, "lists", nil)
	if err != nil {
		return nil, false, err
	}
	if res == nil || !res.Success {
		detail := "no response"
		if res != nil && res.LastError != "" {
			detail = res.LastError
		}
		if d.logger != nil {
			d.logger.WithFields(logging.Fields{
				"cache_key": key,
				"detail":    detail,
			}).Error("Failed to fetch audience lists")
		}
		return nil, false, fmt.Errorf("lists: fetch failed: %s", detail)
	}

	var doc listsDocument
	if err := res.Decode(&doc); err != nil {
		return nil, false, fmt.Errorf("lists: decode failed: %w", err)
	}

	if d.logger != nil {
		d.logger.WithFields(logging.Fields{
			"cache_key": key,
			"count":     len(doc.Lists),
		}).Debug("Fetched audience lists")
	}
	return doc.Lists, true, nil
}

// Flush drops every cached entry so the next Descriptors call refetches.
func (d *Directory) Flush() {
	d.cache.Clear()
}
