package middleware

import (
	"net/http"
	"path"
	"strings"
)

// Normalize standardizes request fields coming through proxies (Vercel/Cloudflare)
// - trims whitespace around URL.Path and collapses duplicate slashes
// - restores scheme/host from forwarding headers
func Normalize() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if p := strings.TrimSpace(r.URL.Path); p != r.URL.Path || strings.Contains(p, "//") {
				cleaned := path.Clean("/" + p)
				if strings.HasSuffix(p, "/") && cleaned != "/" {
					cleaned += "/"
				}
				r.URL.Path = cleaned
				r.URL.RawPath = ""
			}

			if xfproto := r.Header.Get("X-Forwarded-Proto"); xfproto != "" {
				r.URL.Scheme = xfproto
			}
			if xfhost := r.Header.Get("X-Forwarded-Host"); xfhost != "" {
				r.Host = xfhost
			}
			next.ServeHTTP(w, r)
		})
	}
}
