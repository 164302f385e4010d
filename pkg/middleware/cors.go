package middleware

import (
	"net/http"

	"github.com/gorilla/mux"
)

// CORS lets the mobile client call the API from any origin. Preflight
// requests are answered here; mux.CORSMethodMiddleware fills in the
// allowed methods from the matched route.
func CORS(router *mux.Router, origin string) {
	router.Use(mux.CORSMethodMiddleware(router))
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	})
}
