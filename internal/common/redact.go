package common

import (
	"net/url"
	"strings"
)

// RedactQuery masks the values of the named query parameters in rawURL so the
// URL can be logged. Path segments are left alone.
func RedactQuery(rawURL string, params ...string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "<unparseable url>"
	}

	q := u.Query()
	changed := false
	for key := range q {
		if hasAnyFold(key, params...) {
			q.Set(key, "REDACTED")
			changed = true
		}
	}
	if changed {
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// hasAnyFold reports whether s equals any of the candidates, ignoring case.
func hasAnyFold(s string, candidates ...string) bool {
	for _, c := range candidates {
		if strings.EqualFold(s, c) {
			return true
		}
	}
	return false
}
