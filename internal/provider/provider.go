package provider

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// Provider names.
const (
	Google  = "google"
	Firefox = "firefox"
)

// Defaults for provider endpoints and request shaping.
const (
	DefaultGoogleEndpoint = "https://android.googleapis.com/gcm/send"
	DefaultFirefoxBaseURL = "https://updates.push.services.mozilla.com"
	DefaultTTLSeconds     = 60
	GoogleBatchSize       = 50
)

// ErrUnknownProvider matches every *UnknownProviderError via errors.Is.
var ErrUnknownProvider = errors.New("unknown provider")

// UnknownProviderError is returned for a provider name outside the catalog.
type UnknownProviderError struct {
	Name string
}

func (e *UnknownProviderError) Error() string {
	return fmt.Sprintf("unknown provider %q", e.Name)
}

func (e *UnknownProviderError) Is(target error) bool { return target == ErrUnknownProvider }

// Names lists the known providers in broadcast order.
var Names = []string{Google, Firefox}

// IsKnown reports whether name is exactly one of the supported providers.
func IsKnown(name string) bool {
	return name == Google || name == Firefox
}

// Options holds endpoint configuration for the catalog.
type Options struct {
	GoogleEndpoint string
	GoogleAPIKey   string
	FirefoxBaseURL string
	TTLSeconds     int
}

// Request is a fully shaped outbound push request.
type Request struct {
	Provider string
	Method   string
	URL      string
	Header   http.Header
	Body     []byte
	// IDs are the subscriber ids the request covers, in order.
	IDs []string
}

// Spec is one provider's batching and request-shaping rules.
type Spec struct {
	Name      string
	BatchSize int

	newRequest func(ids []string) (*Request, error)
}

// Batches splits ids into consecutive, disjoint chunks of at most BatchSize,
// preserving order and duplicates.
func (s Spec) Batches(ids []string) [][]string {
	size := s.BatchSize
	if size <= 0 {
		size = 1
	}
	out := make([][]string, 0, (len(ids)+size-1)/size)
	for i := 0; i < len(ids); i += size {
		end := i + size
		if end > len(ids) {
			end = len(ids)
		}
		out = append(out, ids[i:end:end])
	}
	return out
}

// NewRequest builds the request for one batch.
func (s Spec) NewRequest(ids []string) (*Request, error) {
	if len(ids) == 0 {
		return nil, errors.New("provider: empty batch")
	}
	if len(ids) > s.BatchSize {
		return nil, fmt.Errorf("provider: batch of %d exceeds %s limit %d", len(ids), s.Name, s.BatchSize)
	}
	return s.newRequest(ids)
}

// Catalog resolves provider names to their Spec.
type Catalog struct {
	specs map[string]Spec
}

// NewCatalog builds the catalog for google and firefox, filling zero
// options with defaults.
func NewCatalog(opts Options) *Catalog {
	if opts.GoogleEndpoint == "" {
		opts.GoogleEndpoint = DefaultGoogleEndpoint
	}
	if opts.FirefoxBaseURL == "" {
		opts.FirefoxBaseURL = DefaultFirefoxBaseURL
	}
	if opts.TTLSeconds <= 0 {
		opts.TTLSeconds = DefaultTTLSeconds
	}
	ttl := strconv.Itoa(opts.TTLSeconds)
	base := strings.TrimRight(opts.FirefoxBaseURL, "/")

	google := Spec{
		Name:      Google,
		BatchSize: GoogleBatchSize,
		newRequest: func(ids []string) (*Request, error) {
			body, err := json.Marshal(struct {
				RegistrationIDs []string `json:"registration_ids"`
			}{ids})
			if err != nil {
				return nil, err
			}
			h := commonHeader(ttl)
			h.Set("Authorization", "key="+opts.GoogleAPIKey)
			return &Request{
				Provider: Google,
				Method:   http.MethodPost,
				URL:      opts.GoogleEndpoint,
				Header:   h,
				Body:     body,
				IDs:      ids,
			}, nil
		},
	}
	firefox := Spec{
		Name:      Firefox,
		BatchSize: 1,
		newRequest: func(ids []string) (*Request, error) {
			return &Request{
				Provider: Firefox,
				Method:   http.MethodPost,
				URL:      base + "/push/" + ids[0],
				Header:   commonHeader(ttl),
				IDs:      ids,
			}, nil
		},
	}
	return &Catalog{specs: map[string]Spec{Google: google, Firefox: firefox}}
}

// Lookup returns the Spec for name or an *UnknownProviderError.
func (c *Catalog) Lookup(name string) (Spec, error) {
	s, ok := c.specs[name]
	if !ok {
		return Spec{}, &UnknownProviderError{Name: name}
	}
	return s, nil
}

func commonHeader(ttl string) http.Header {
	h := make(http.Header, 3)
	h.Set("TTL", ttl)
	h.Set("Content-Type", "application/json")
	return h
}
