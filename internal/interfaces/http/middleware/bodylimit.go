package middleware

import "net/http"

// BodyLimit caps request bodies at maxBytes.  Reads past the limit fail with
// *http.MaxBytesError, which handlers report as COMMON_017.
func BodyLimit(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if maxBytes <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}

//Personal.AI order the ending
