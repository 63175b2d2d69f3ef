package middleware

import (
	"net/http"
	"time"

	"github.com/hustleboard/hustleboard/internal/logging"
)

const traceHeader = "X-Trace-ID"

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Tracing assigns each request a trace id, echoes it in the response,
// and emits the access-log line.
func Tracing(log *logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			traceID := r.Header.Get(traceHeader)
			if traceID == "" {
				traceID = logging.NewTraceID()
			}
			ctx := logging.WithTraceID(r.Context(), traceID)
			w.Header().Set(traceHeader, traceID)

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()
			next.ServeHTTP(rec, r.WithContext(ctx))
			log.LogRequest(ctx, r.Method, r.URL.Path, rec.status, time.Since(start))
		})
	}
}
