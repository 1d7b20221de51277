package middleware

import (
	"net/http"
	"net/url"
	"slices"
)

// DefaultAllowOrigins are the host UI's dev server origins. A packaged UI
// served from a custom scheme or file:// must be listed in CORS_ORIGINS.
var DefaultAllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173"}

// OriginAllowed reports whether a browser origin may call the control API.
// "*" in origins admits every origin.
func OriginAllowed(origins []string, origin string) bool {
	return slices.Contains(origins, "*") || slices.Contains(origins, origin)
}

// CheckOrigin builds a websocket origin check over the same list as CORS.
// Requests without an Origin header come from native clients and are
// admitted, as are same-host pages.
func CheckOrigin(origins []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || OriginAllowed(origins, origin) {
			return true
		}
		u, err := url.Parse(origin)
		return err == nil && u.Host != "" && u.Host == r.Host
	}
}
