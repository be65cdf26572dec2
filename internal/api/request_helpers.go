package api

import (
	"mime"
	"net/http"
	"net/url"
	"strings"
)

// wantsJSON reports whether the request body is JSON.
func wantsJSON(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "application/json"
}

// safeRedirect returns next when it is a local path, otherwise fallback.
// Absolute URLs, scheme-relative URLs and backslash tricks are rejected.
func safeRedirect(next, fallback string) string {
	if next == "" || !strings.HasPrefix(next, "/") ||
		strings.HasPrefix(next, "//") || strings.Contains(next, "\\") {
		return fallback
	}
	u, err := url.Parse(next)
	if err != nil || u.IsAbs() || u.Host != "" {
		return fallback
	}
	return next
}
