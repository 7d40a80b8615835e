package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/middleware"

	pkglogger "github.com/frahmantamala/license-portal/pkg/logger"
)

// maxLoggedBody caps how much of a request or response body is logged.
const maxLoggedBody = 4 << 10

// sensitiveFields are matched as substrings of lower-cased header names and
// JSON keys. "key" covers license keys.
var sensitiveFields = []string{
	"password",
	"token",
	"authorization",
	"secret",
	"key",
	"cookie",
	"session",
	"credential",
}

func middlewareReqID(r *http.Request) string {
	if id := pkglogger.RequestID(r.Context()); id != "" {
		return id
	}
	return middleware.GetReqID(r.Context())
}

func LoggingMiddleware(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqID := middlewareReqID(r)

			logRequest(logger, r, reqID)

			ww := &responseWriter{ResponseWriter: w}
			next.ServeHTTP(ww, r)

			logResponse(logger, r, ww, time.Since(start), reqID)
		})
	}
}

// responseWriter keeps the status, the byte count and the head of the body.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	size       int
	body       bytes.Buffer
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if rw.statusCode == 0 {
		rw.statusCode = http.StatusOK
	}
	if room := maxLoggedBody - rw.body.Len(); room > 0 {
		if len(b) < room {
			room = len(b)
		}
		rw.body.Write(b[:room])
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.size += n
	return n, err
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func isJSON(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(contentType), "application/json")
}

// logRequest peeks at JSON bodies only; CSV uploads and exports are logged by
// size.
func logRequest(logger *slog.Logger, r *http.Request, reqID string) {
	body := ""
	if r.Body != nil && isJSON(r.Header.Get("Content-Type")) {
		raw, _ := io.ReadAll(io.LimitReader(r.Body, maxLoggedBody+1))
		r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(raw), r.Body))
		body = filterSensitiveBody(raw)
	}

	logger.Info("incoming request",
		"request_id", reqID,
		"method", r.Method,
		"path", r.URL.Path,
		"query", r.URL.RawQuery,
		"remote_addr", r.RemoteAddr,
		"user_agent", r.UserAgent(),
		"content_length", r.ContentLength,
		"headers", filterSensitiveHeaders(r.Header),
		"body", body,
	)
}

func logResponse(logger *slog.Logger, r *http.Request, rw *responseWriter, duration time.Duration, reqID string) {
	statusCode := rw.statusCode
	if statusCode == 0 {
		statusCode = http.StatusOK
	}

	body := ""
	switch {
	case rw.size > rw.body.Len():
		body = "[TRUNCATED]"
	case isJSON(rw.Header().Get("Content-Type")):
		body = filterSensitiveBody(rw.body.Bytes())
	}

	level := slog.LevelInfo
	switch {
	case statusCode >= 500:
		level = slog.LevelError
	case statusCode >= 400:
		level = slog.LevelWarn
	}

	logger.Log(r.Context(), level, "response",
		"request_id", reqID,
		"method", r.Method,
		"path", r.URL.Path,
		"status_code", statusCode,
		"duration_ms", duration.Milliseconds(),
		"response_size", rw.size,
		"body", body,
	)
}

func isSensitive(name string) bool {
	lower := strings.ToLower(name)
	for _, field := range sensitiveFields {
		if strings.Contains(lower, field) {
			return true
		}
	}
	return false
}

func filterSensitiveHeaders(headers http.Header) map[string]string {
	filtered := make(map[string]string, len(headers))
	for name, values := range headers {
		if isSensitive(name) {
			filtered[name] = "[FILTERED]"
			continue
		}
		filtered[name] = strings.Join(values, ", ")
	}
	return filtered
}

// filterSensitiveBody masks sensitive JSON fields. Bodies that are cut off or
// not JSON are reported by size only.
func filterSensitiveBody(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	if len(body) > maxLoggedBody {
		return "[TRUNCATED]"
	}

	var data interface{}
	if err := json.Unmarshal(body, &data); err != nil {
		return "[NON-JSON BODY]"
	}

	out, err := json.Marshal(filterSensitiveJSON(data))
	if err != nil {
		return "[UNPRINTABLE BODY]"
	}
	return string(out)
}

func filterSensitiveJSON(data interface{}) interface{} {
	switch v := data.(type) {
	case map[string]interface{}:
		filtered := make(map[string]interface{}, len(v))
		for key, value := range v {
			if isSensitive(key) {
				filtered[key] = "[FILTERED]"
				continue
			}
			filtered[key] = filterSensitiveJSON(value)
		}
		return filtered
	case []interface{}:
		filtered := make([]interface{}, len(v))
		for i, item := range v {
			filtered[i] = filterSensitiveJSON(item)
		}
		return filtered
	default:
		return v
	}
}
