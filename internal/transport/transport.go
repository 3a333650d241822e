// Package transport builds the http.RoundTripper used to reach the storefront backend.
package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"time"

	utls "github.com/refraction-networking/utls"
	"golang.org/x/net/http2"
)

// Fingerprint kinds accepted by New.
const (
	Standard = "standard"
	Chrome   = "chrome"
)

// New returns the transport for the configured fingerprint kind. Unknown
// kinds fall back to the standard library transport.
func New(kind string, timeout time.Duration) http.RoundTripper {
	if kind == Chrome {
		return NewChromeTransport(timeout)
	}
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.TLSHandshakeTimeout = timeout
	t.ResponseHeaderTimeout = timeout
	return t
}

// NewChromeTransport presents Chrome's TLS fingerprint to the backend.
// Storefront backends are often deployed behind CDNs that throttle Go's
// default ClientHello. ALPN picks h2 or http/1.1 per connection.
func NewChromeTransport(timeout time.Duration) http.RoundTripper {
	dialer := &net.Dialer{Timeout: timeout}
	dial := func(ctx context.Context, network, addr string) (net.Conn, error) {
		return dialChromeTLS(ctx, dialer, network, addr)
	}

	return &chromeTransport{
		h2: &http2.Transport{
			DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
				return dial(ctx, network, addr)
			},
		},
		h1: &http.Transport{
			DialContext:           dialer.DialContext,
			DialTLSContext:        dial,
			ResponseHeaderTimeout: timeout,
		},
	}
}

type chromeTransport struct {
	h2 *http2.Transport
	h1 *http.Transport
}

// RoundTrip sends https requests over HTTP/2 and retries on HTTP/1.1 when
// the server does not speak h2. Plain http goes straight to HTTP/1.1.
func (t *chromeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.URL.Scheme != "https" {
		return t.h1.RoundTrip(req)
	}

	resp, err := t.h2.RoundTrip(req)
	if err == nil {
		return resp, nil
	}

	retry, rerr := rewind(req)
	if rerr != nil {
		return nil, err
	}
	return t.h1.RoundTrip(retry)
}

// rewind returns a copy of req with a fresh body so it can be sent again.
func rewind(req *http.Request) (*http.Request, error) {
	if req.Body == nil || req.Body == http.NoBody {
		return req, nil
	}
	if req.GetBody == nil {
		return nil, fmt.Errorf("request body cannot be replayed")
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, err
	}
	clone := req.Clone(req.Context())
	clone.Body = body
	return clone, nil
}

func dialChromeTLS(ctx context.Context, dialer *net.Dialer, network, addr string) (net.Conn, error) {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}

	conn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}

	tlsConn := utls.UClient(conn, &utls.Config{ServerName: host}, utls.HelloChrome_Auto)
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("tls handshake: %w", err)
	}
	return tlsConn, nil
}
