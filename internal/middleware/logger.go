package middleware

import (
	"fmt"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// Logger logs one line per request: method, path, status, bytes, duration
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		fmt.Printf("[HTTP] %s %s %d %dB %v\n",
			r.Method, r.URL.Path, ww.Status(), ww.BytesWritten(), time.Since(start))
	})
}
