// Package httpclient builds the HTTP client used for outbound source fetches.
package httpclient

import (
	"fmt"
	"net/http"
	"time"

	"news-pulse/config"
	"news-pulse/trace"
)

const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/142.0.0.0 Safari/537.36"

type Config struct {
	// Timeout caps a whole exchange including the body read. Zero means 10s.
	Timeout   time.Duration
	UserAgent string
	Transport http.RoundTripper
}

// loggingRoundTripper stamps trace and browser-like headers on every
// outbound request and logs the exchange.
type loggingRoundTripper struct {
	inner     http.RoundTripper
	userAgent string
}

func (l *loggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()

	requestID, spanID := trace.NextSpanID(req.Context())
	req = req.Clone(req.Context())
	req.Header.Set(trace.HeaderRequestID, requestID)
	req.Header.Set(trace.HeaderSpanID, spanID)
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", l.userAgent)
	}

	resp, err := l.inner.RoundTrip(req)
	fields := config.Fields{
		"method":     req.Method,
		"url":        req.URL.Redacted(),
		"duration":   time.Since(start).String(),
		"request_id": requestID,
		"span_id":    spanID,
	}
	if err != nil {
		fields["error"] = err.Error()
		config.WarnWithFields("source request failed", fields)
		return nil, err
	}
	fields["status"] = resp.StatusCode
	config.DebugWithFields("source request completed", fields)
	return resp, nil
}

// New returns an http.Client that logs and traces every request.
func New(cfg Config) *http.Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	transport := cfg.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: &loggingRoundTripper{inner: transport, userAgent: ua},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return fmt.Errorf("stopped after 10 redirects")
			}
			req.Header.Set("User-Agent", ua)
			return nil
		},
	}
}

func NewDefault() *http.Client {
	return New(Config{})
}
