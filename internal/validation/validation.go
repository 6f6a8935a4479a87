package validation

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// SlugPattern defines the valid awardee slug format: lowercase alphanumeric and hyphens.
var SlugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// ValidateSlug checks if a slug matches the allowed pattern.
func ValidateSlug(slug string) bool {
	if slug == "" || len(slug) > 100 {
		return false
	}
	return SlugPattern.MatchString(slug)
}

var slugStrip = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify derives a slug from a display name, e.g. "Amara N'Diaye" -> "amara-n-diaye".
func Slugify(name string) string {
	s := slugStrip.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(s, "-")
}

// ValidateURL checks if a URL is valid and uses an allowed scheme (http/https only).
// This prevents javascript:, data:, vbscript:, and other dangerous URL schemes.
func ValidateURL(urlStr string) (bool, string) {
	if urlStr == "" {
		return false, "URL is required"
	}

	u, err := url.Parse(urlStr)
	if err != nil {
		return false, "Invalid URL format"
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return false, "URL must use http:// or https:// scheme"
	}

	if u.Host == "" {
		return false, "URL must have a valid host"
	}

	return true, ""
}

// LocalUploadPrefix is the path local uploads are served under.
const LocalUploadPrefix = "/uploads/"

// ValidateAvatarURL accepts an absolute http(s) URL or a path under
// LocalUploadPrefix as returned by the local image store.
func ValidateAvatarURL(urlStr string) (bool, string) {
	if strings.HasPrefix(urlStr, LocalUploadPrefix) {
		if strings.Contains(urlStr, "..") || strings.ContainsAny(urlStr, "?#\\") {
			return false, "Invalid upload path"
		}
		return true, ""
	}
	return ValidateURL(urlStr)
}

// Optional normalizes a free-text form value: surrounding whitespace is
// trimmed and an empty result becomes nil.
func Optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// LooksLikeEmail is the minimal client-side email check: non-empty and containing "@".
func LooksLikeEmail(s string) bool {
	s = strings.TrimSpace(s)
	return s != "" && strings.Contains(s, "@")
}

// allowedImageTypes maps accepted image content types to file extensions.
var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// ImageExtension returns the file extension for an accepted image content type.
func ImageExtension(contentType string) (string, bool) {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	ext, ok := allowedImageTypes[ct]
	return ext, ok
}

// ValidateImage checks an image's content type and size against the limit.
func ValidateImage(contentType string, size, maxBytes int64) (bool, string) {
	if size <= 0 {
		return false, "Image file is empty"
	}
	if size > maxBytes {
		return false, fmt.Sprintf("Image must be %d MB or smaller", maxBytes/(1024*1024))
	}
	if _, ok := ImageExtension(contentType); !ok {
		return false, "Image must be a JPEG, PNG, GIF or WebP file"
	}
	return true, ""
}
