package errors

import (
	"net/url"
	"strings"
	"unicode"
)

// MaxKeywordLength is the longest search keyword accepted, in bytes.
// The MediaWiki search backend rejects srsearch values above this size.
const MaxKeywordLength = 300

// ValidateKeyword checks a free-text search keyword before it is sent upstream.
//
// An empty keyword is valid: the upstream service decides what an empty query
// means. Rejected are keywords longer than [MaxKeywordLength] bytes and
// keywords containing control characters (tabs excepted).
func ValidateKeyword(keyword string) error {
	if len(keyword) > MaxKeywordLength {
		return New(ErrCodeInvalidInput, "keyword too long (max %d bytes)", MaxKeywordLength)
	}
	for _, r := range keyword {
		if r != '\t' && unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "keyword contains invalid control characters")
		}
	}
	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL is absolute, has a host and uses http or https.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return Wrap(ErrCodeInvalidInput, err, "malformed URL")
	}
	if u.Host == "" {
		return New(ErrCodeInvalidInput, "URL must include a host")
	}
	return nil
}
