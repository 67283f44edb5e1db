package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/solorad/blog-crud/pkg/log"
)

// Logger logs one line per request
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			log.Infof("%s %s status=%d duration=%s remote=%s request_id=%s",
				r.Method, r.URL.Path, ww.Status(), time.Since(start), r.RemoteAddr,
				middleware.GetReqID(r.Context()))
		}()

		next.ServeHTTP(ww, r)
	})
}
