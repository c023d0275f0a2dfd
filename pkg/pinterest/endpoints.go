package pinterest

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	// BaseURL is the base URL for Pinterest
	BaseURL = "https://www.pinterest.com"

	// CDNHost is the image CDN that serves pin media
	CDNHost = "i.pinimg.com"

	// OriginalsToken is the size token requesting the original resolution
	OriginalsToken = "originals"

	// VideoThumbnailsMarker appears in the path of video poster images that
	// Pinterest serves through the image CDN
	VideoThumbnailsMarker = "videos/thumbnails"
)

var extensionRegex = regexp.MustCompile(`(?i)\.(jpg|jpeg|png|gif|webp)(\?|$)`)

// GetPinURL constructs the canonical detail-page URL for a pin
func GetPinURL(pinID string) string {
	if pinID == "" {
		return ""
	}
	return fmt.Sprintf("%s/pin/%s/", BaseURL, pinID)
}

// IsCDNHosted reports whether the URL is served by the image CDN
func IsCDNHosted(url string) bool {
	return strings.Contains(url, CDNHost)
}

// MediaExtension recovers the file extension from a media URL, defaulting
// to .jpg when the URL does not expose one
func MediaExtension(url string) string {
	match := extensionRegex.FindStringSubmatch(url)
	if match == nil {
		return ".jpg"
	}
	return "." + strings.ToLower(match[1])
}

// SanitizeUsername strips characters that are unsafe in filenames from a
// display name recovered from the conversation DOM
func SanitizeUsername(username string) string {
	username = strings.TrimSpace(username)

	var b strings.Builder
	for _, char := range username {
		if (char >= 'a' && char <= 'z') ||
			(char >= 'A' && char <= 'Z') ||
			(char >= '0' && char <= '9') ||
			char == ' ' || char == '-' || char == '_' {
			b.WriteRune(char)
		}
	}

	return strings.TrimSpace(b.String())
}
