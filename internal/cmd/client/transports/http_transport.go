package transports

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// HTTPTransport implements PushTransport against the pushsub REST API.
type HTTPTransport struct {
	baseURL func() string
	client  *http.Client
}

// NewHTTPTransport constructs a new HTTPTransport. A nil client uses
// http.DefaultClient.
func NewHTTPTransport(baseURL func() string, client *http.Client) *HTTPTransport {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPTransport{baseURL: baseURL, client: client}
}

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("http error: %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("http error: %d %s", e.Status, e.Message)
}

func (t *HTTPTransport) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(t.baseURL(), "/")+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return &APIError{Status: resp.StatusCode, Message: e.Error}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Subscribe registers a subscription via HTTP.
func (t *HTTPTransport) Subscribe(ctx context.Context, sub Subscription) error {
	return t.do(ctx, http.MethodPost, "/v1/subscriptions", sub, nil)
}

// Unsubscribe removes a subscription via HTTP.
func (t *HTTPTransport) Unsubscribe(ctx context.Context, sub Subscription) error {
	return t.do(ctx, http.MethodDelete, "/v1/subscriptions", sub, nil)
}

// Subscribers lists subscriber ids via HTTP.
func (t *HTTPTransport) Subscribers(ctx context.Context, feature, provider string) ([]string, error) {
	q := url.Values{}
	q.Set("feature", feature)
	if provider != "" {
		q.Set("provider", provider)
	}
	var out struct {
		IDs []string `json:"ids"`
	}
	if err := t.do(ctx, http.MethodGet, "/v1/subscribers?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return out.IDs, nil
}

// Ping notifies ids via HTTP.
func (t *HTTPTransport) Ping(ctx context.Context, provider string, ids []string, feature string) (PingResult, error) {
	in := struct {
		Provider string   `json:"provider"`
		IDs      []string `json:"ids"`
		Feature  string   `json:"feature"`
	}{provider, ids, feature}
	var out PingResult
	err := t.do(ctx, http.MethodPost, "/v1/ping", in, &out)
	return out, err
}

// Broadcast runs a broadcast via HTTP.
func (t *HTTPTransport) Broadcast(ctx context.Context, feature, filter string) (BroadcastReport, error) {
	in := struct {
		Feature string `json:"feature"`
		Filter  string `json:"filter,omitempty"`
	}{feature, filter}
	var out BroadcastReport
	err := t.do(ctx, http.MethodPost, "/v1/broadcast", in, &out)
	return out, err
}
