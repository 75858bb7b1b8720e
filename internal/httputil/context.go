package httputil

import (
	"net/http"
	"strings"
)

// BearerToken returns the token from an "Authorization: Bearer" header, or
// an empty string
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
