package middleware

import (
	"bytes"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"news-pulse/config"
	"news-pulse/trace"
)

const maxBodyLog = 1024

// RequestTrace ensures every inbound request carries a request id and span id,
// echoes both in the response headers and logs the completed request.
func RequestTrace() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		req := c.Request

		requestID := req.Header.Get(trace.HeaderRequestID)
		if requestID == "" {
			requestID = trace.GenerateID()
		}

		// inbound is span 0; outbound source fetches count up from 1
		ctx := trace.WithRequestAndSpan(req.Context(), requestID, 0)
		c.Request = req.WithContext(ctx)
		req = c.Request

		span := trace.CurrentSpanID(ctx)
		c.Request.Header.Set(trace.HeaderRequestID, requestID)
		c.Request.Header.Set(trace.HeaderSpanID, span)
		c.Writer.Header().Set(trace.HeaderRequestID, requestID)
		c.Writer.Header().Set(trace.HeaderSpanID, span)

		queryParams := map[string][]string{}
		for key, values := range req.URL.Query() {
			if len(values) > 0 {
				queryParams[key] = values
			}
		}
		var bodySnippet string
		if req.Body != nil && req.ContentLength != 0 &&
			(req.Method == http.MethodPost || req.Method == http.MethodPut) {
			if bodyBytes, err := io.ReadAll(req.Body); err == nil {
				if len(bodyBytes) > maxBodyLog {
					bodySnippet = string(bodyBytes[:maxBodyLog])
				} else {
					bodySnippet = string(bodyBytes)
				}
				c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
			}
		}

		c.Next()

		fields := config.Fields{
			"method":       req.Method,
			"path":         req.URL.Path,
			"query_params": queryParams,
			"status":       c.Writer.Status(),
			"duration":     time.Since(start).String(),
			"request_id":   requestID,
			"span_id":      trace.CurrentSpanID(c.Request.Context()),
		}
		if bodySnippet != "" {
			fields["body"] = bodySnippet
		}
		config.InfoWithFields("completed request", fields)
	}
}
