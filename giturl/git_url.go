// Package giturl provides helpers for the http(s) git remote URLs used to
// clone from and push to hosted git services.
package giturl

import (
	"fmt"
	"net/url"
	"strings"
)

// Normalise will return normalised url
func Normalise(rawURL string) string {
	nURL := strings.TrimSpace(rawURL)
	nURL = strings.TrimRight(nURL, "/")

	return nURL
}

// WithCredentials embeds the given username and password into the userinfo
// section of an http(s) remote URL. Remotes which are not http(s) URLs
// (file:// remotes, local paths) are returned unchanged.
func WithCredentials(rawURL, username, password string) (string, error) {
	rawURL = Normalise(rawURL)

	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return rawURL, nil
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("unable to parse remote url err:%w", err)
	}

	u.User = url.UserPassword(username, password)
	return u.String(), nil
}

// Redact returns the url with any userinfo password masked, safe for
// logging. Remotes which are not URLs are returned as is.
func Redact(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Redacted()
}
