// Package chat handles the external chat platform integration: parsing
// agent chat links and notifying the outbound quote webhook.
package chat

import (
	"regexp"
	"strings"
)

var (
	pagePattern  = regexp.MustCompile(`/fb(\d+)`)
	userPattern  = regexp.MustCompile(`/chat/(\d+)`)
	phonePattern = regexp.MustCompile(`^\+?[0-9\s\-()]{8,}$`)
	phoneStrip   = regexp.MustCompile(`[\s\-()]`)
)

// LinkIDs are the two identifiers embedded in an agent chat link
type LinkIDs struct {
	PageID string
	UserID string
}

// ParseLink extracts the page and user identifiers from a chat link.
// Both must be present for the link to be usable; otherwise ok is
// false.
func ParseLink(rawURL string) (LinkIDs, bool) {
	normalized := strings.TrimSpace(rawURL)
	if normalized == "" {
		return LinkIDs{}, false
	}
	pageMatch := pagePattern.FindStringSubmatch(normalized)
	userMatch := userPattern.FindStringSubmatch(normalized)
	if pageMatch == nil || userMatch == nil {
		return LinkIDs{}, false
	}
	return LinkIDs{PageID: pageMatch[1], UserID: userMatch[1]}, true
}

// NormalizePhone strips separators from a phone number and reports
// whether the input looked like a phone number at all.
func NormalizePhone(phone string) (string, bool) {
	trimmed := strings.TrimSpace(phone)
	if !phonePattern.MatchString(trimmed) {
		return "", false
	}
	return phoneStrip.ReplaceAllString(trimmed, ""), true
}
