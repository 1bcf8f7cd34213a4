package link

import "strings"

// UAInfo is the parsed device fingerprint of one request.
type UAInfo struct {
	Browser    string
	OS         string
	DeviceType string
}

// IsBotUA returns true if the User-Agent string indicates a bot/crawler.
// Bot traffic never becomes an access-log row.
func IsBotUA(ua string) bool {
	lower := strings.ToLower(ua)
	botKeywords := []string{"bot", "crawler", "spider", "headless", "wget", "curl", "python-requests", "go-http", "java/", "scrapy"}
	for _, kw := range botKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// ParseUA extracts browser, OS and device type from a User-Agent header.
// Unrecognized values stay "Unknown"; the engine treats that as a first-class
// category, not an error.
func ParseUA(ua string) UAInfo {
	info := UAInfo{Browser: "Unknown", OS: "Unknown", DeviceType: "desktop"}
	lower := strings.ToLower(ua)

	switch {
	case strings.Contains(lower, "edg/"):
		info.Browser = "Edge"
	case strings.Contains(lower, "chrome/"):
		info.Browser = "Chrome"
	case strings.Contains(lower, "safari/") && strings.Contains(lower, "version/"):
		info.Browser = "Safari"
	case strings.Contains(lower, "firefox/"):
		info.Browser = "Firefox"
	}

	switch {
	case strings.Contains(lower, "windows"):
		info.OS = "Windows"
	case strings.Contains(lower, "mac os"):
		info.OS = "macOS"
	case strings.Contains(lower, "android"):
		info.OS = "Android"
	case strings.Contains(lower, "iphone"), strings.Contains(lower, "ipad"), strings.Contains(lower, "ios"):
		info.OS = "iOS"
	case strings.Contains(lower, "linux"):
		info.OS = "Linux"
	}

	switch {
	case strings.Contains(lower, "tablet"), strings.Contains(lower, "ipad"):
		info.DeviceType = "tablet"
	case strings.Contains(lower, "mobile"):
		info.DeviceType = "mobile"
	}
	return info
}

// ClassifyTrafficSource maps referer and query hints to a traffic source
// dimension. QR scans are tagged by the qr query parameter the generated
// codes embed.
func ClassifyTrafficSource(referer, qrParam, utmSource string) string {
	if qrParam != "" {
		return "qr"
	}
	if utmSource != "" {
		return utmSource
	}
	if referer == "" {
		return "Direct"
	}
	lower := strings.ToLower(referer)
	switch {
	case strings.Contains(lower, "google."):
		return "google"
	case strings.Contains(lower, "linkedin."):
		return "linkedin"
	case strings.Contains(lower, "twitter."), strings.Contains(lower, "x.com"):
		return "twitter"
	case strings.Contains(lower, "facebook."):
		return "facebook"
	default:
		return "referral"
	}
}
