package dispatch

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/rzbill/pushsub/internal/provider"
)

// maxResponseBody caps how much of a provider response is read.
const maxResponseBody = 1 << 20

// Response is the part of a provider reply the engine interprets.
type Response struct {
	StatusCode int
	Body       []byte
}

// Transport delivers one shaped push request.
type Transport interface {
	Send(ctx context.Context, req *provider.Request) (*Response, error)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, req *provider.Request) (*Response, error)

func (f TransportFunc) Send(ctx context.Context, req *provider.Request) (*Response, error) {
	return f(ctx, req)
}

// HTTPTransport sends requests with an *http.Client.
type HTTPTransport struct {
	Client *http.Client
}

// NewHTTPTransport returns a transport over client, or http.DefaultClient if nil.
func NewHTTPTransport(client *http.Client) *HTTPTransport {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPTransport{Client: client}
}

func (t *HTTPTransport) Send(ctx context.Context, req *provider.Request) (*Response, error) {
	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}
	hreq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, err
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			hreq.Header.Add(k, v)
		}
	}
	resp, err := t.Client.Do(hreq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, err
	}
	return &Response{StatusCode: resp.StatusCode, Body: b}, nil
}

// NoopTransport never touches the network and answers 200 with an empty body.
type NoopTransport struct{}

func (NoopTransport) Send(context.Context, *provider.Request) (*Response, error) {
	return &Response{StatusCode: http.StatusOK}, nil
}
