package service

import (
	"net/url"
	"regexp"
	"strings"
)

// blockedKeywords are matched case-insensitively against the raw creation input.
var blockedKeywords = []string{"malware", "phishing", "spam", "scam", "hack"}

var httpScheme = regexp.MustCompile(`(?i)^https?://`)

// isFlagged reports whether raw contains a blocked keyword anywhere.
func isFlagged(raw string) bool {
	lower := strings.ToLower(raw)
	for _, keyword := range blockedKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

// normalizeURL turns arbitrary non-empty input into an absolute http(s) URL.
// Input without an http(s) scheme gets https:// prepended; if the result still does
// not parse as a URL with a host, the trimmed input becomes a search query.
func normalizeURL(raw, searchURL string) string {
	trimmed := strings.TrimSpace(raw)

	candidate := trimmed
	if !httpScheme.MatchString(candidate) {
		candidate = "https://" + candidate
	}

	// "https://ftp://x" parses with host "ftp:"; a dangling colon means a foreign scheme.
	if u, err := url.Parse(candidate); err == nil && u.Hostname() != "" && !strings.HasSuffix(u.Host, ":") {
		return u.String()
	}
	return searchURL + queryEscape(trimmed)
}

// queryEscape escapes s for a query value, with spaces as %20.
func queryEscape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
