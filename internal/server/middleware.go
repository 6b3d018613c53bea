package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"drowse/pkg/logging"
)

// logRequests logs one line per request. Successful reads are logged at
// debug level so health probes and scrapes stay quiet.
func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		log := logging.Info
		if r.Method == http.MethodGet && status < http.StatusBadRequest {
			log = logging.Debug
		}
		log("HTTP", "%s %s %d %dB %s request_id=%s",
			r.Method, r.URL.Path, status, ww.BytesWritten(), time.Since(start).Round(time.Microsecond),
			middleware.GetReqID(r.Context()))
	})
}
