package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"news-pulse/trace"
)

func TestNew_SetsTraceAndUserAgentHeaders(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := New(Config{UserAgent: "news-pulse-test"})
	ctx := trace.WithRequestAndSpan(context.Background(), "req-42", 0)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)

	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "req-42", got.Get(trace.HeaderRequestID))
	assert.Equal(t, "1", got.Get(trace.HeaderSpanID))
	assert.Equal(t, "news-pulse-test", got.Get("User-Agent"))
}
