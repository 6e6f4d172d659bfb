package helpers

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"
)

// ChaosMode defines the type of chaos to inject
type ChaosMode int

const (
	// ChaosNone performs normal HTTP requests
	ChaosNone ChaosMode = iota

	// ChaosTimeout simulates request timeouts
	ChaosTimeout

	// ChaosConnectionReset simulates connection reset
	ChaosConnectionReset

	// ChaosDNSFailure simulates DNS resolution failures
	ChaosDNSFailure

	// ChaosPartialRead simulates a body that fails halfway through
	ChaosPartialRead

	// ChaosMalformedResponse returns binary garbage with status 200
	ChaosMalformedResponse

	// ChaosEmptyBody returns status 200 with no body
	ChaosEmptyBody

	// ChaosForbidden returns status 403, which reads as a rejected token
	ChaosForbidden
)

// ChaosConfig configures the chaos transport behavior
type ChaosConfig struct {
	// Mode determines which type of chaos to inject
	Mode ChaosMode

	// Path restricts chaos to requests for this URL path. Empty means all.
	Path string

	// After lets this many matching requests through before injecting chaos
	After int

	// PartialReadBytes specifies how many bytes to read before failing
	// Only used for ChaosPartialRead mode
	PartialReadBytes int
}

// ChaosTransport wraps an http.RoundTripper and injects failure modes
type ChaosTransport struct {
	next    http.RoundTripper
	config  ChaosConfig
	matched atomic.Int64
	injects atomic.Int64
}

// NewChaosTransport creates a chaos transport over http.DefaultTransport
func NewChaosTransport(config ChaosConfig) *ChaosTransport {
	return &ChaosTransport{next: http.DefaultTransport, config: config}
}

// Client returns an http.Client using the chaos transport
func (c *ChaosTransport) Client() *http.Client {
	return &http.Client{Transport: c, Timeout: 5 * time.Second}
}

// Injected returns how many requests had chaos applied
func (c *ChaosTransport) Injected() int {
	return int(c.injects.Load())
}

// RoundTrip implements http.RoundTripper interface
func (c *ChaosTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if c.config.Path != "" && req.URL.Path != c.config.Path {
		return c.next.RoundTrip(req)
	}
	if c.matched.Add(1) <= int64(c.config.After) || c.config.Mode == ChaosNone {
		return c.next.RoundTrip(req)
	}
	c.injects.Add(1)

	switch c.config.Mode {
	case ChaosTimeout:
		ctx, cancel := context.WithTimeout(req.Context(), time.Nanosecond)
		defer cancel()
		<-ctx.Done()
		return c.next.RoundTrip(req.WithContext(ctx))

	case ChaosConnectionReset:
		return nil, errors.New("connection reset by peer")

	case ChaosDNSFailure:
		return nil, &DNSError{Err: "no such host", Server: "8.8.8.8"}

	case ChaosPartialRead:
		resp, err := c.next.RoundTrip(req)
		if err != nil {
			return nil, err
		}
		bodyBytes, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, err
		}

		partialSize := c.config.PartialReadBytes
		if partialSize <= 0 || partialSize >= len(bodyBytes) {
			partialSize = len(bodyBytes) / 2
		}
		resp.Body = &partialReadCloser{
			reader:    bytes.NewReader(bodyBytes[:partialSize]),
			failAfter: partialSize,
		}
		resp.ContentLength = -1
		return resp, nil

	case ChaosMalformedResponse:
		return newResponse(req, http.StatusOK, "This is not valid response data\x00\x01\x02"), nil

	case ChaosEmptyBody:
		return newResponse(req, http.StatusOK, ""), nil

	case ChaosForbidden:
		return newResponse(req, http.StatusForbidden, `{"error":{"message":"Forbidden"}}`), nil

	default:
		return c.next.RoundTrip(req)
	}
}

func newResponse(req *http.Request, status int, body string) *http.Response {
	return &http.Response{
		Status:        http.StatusText(status),
		StatusCode:    status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Body:          io.NopCloser(strings.NewReader(body)),
		ContentLength: int64(len(body)),
		Request:       req,
		Header:        make(http.Header),
	}
}

// partialReadCloser is an io.ReadCloser that fails after reading a certain amount
type partialReadCloser struct {
	reader    io.Reader
	failAfter int
	totalRead int
}

func (p *partialReadCloser) Read(buf []byte) (int, error) {
	if p.totalRead >= p.failAfter {
		return 0, errors.New("connection reset during read")
	}

	n, err := p.reader.Read(buf)
	p.totalRead += n

	if p.totalRead >= p.failAfter {
		return n, errors.New("connection reset during read")
	}

	return n, err
}

func (p *partialReadCloser) Close() error {
	return nil
}

// DNSError simulates DNS lookup failures
type DNSError struct {
	Err    string
	Server string
}

func (e *DNSError) Error() string {
	return "lookup " + e.Server + ": " + e.Err
}
