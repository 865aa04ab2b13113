// Package click implements the Click Enricher: pure derivations from request
// metadata (click-id, ip-hash, device class, bot flag, referrer
// normalization) that the Redirect Handler and Click Log Writer share.
package click

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"shortcut/pkg/ulid"
)

// tabletTokens, mobileTokens, desktopTokens are matched in this order —
// tablet first, since several tablet user-agents also contain a mobile
// token (e.g. Android tablets report "Mobile Safari").
var (
	tabletTokens = []string{"ipad", "tablet", "kindle", "playbook", "nexus 7", "nexus 9", "nexus 10"}
	mobileTokens = []string{"iphone", "ipod", "android", "mobile", "blackberry", "webos", "windows phone"}
	desktopTokens = []string{"windows nt", "macintosh", "linux x86", "x11"}

	// botTokens is a fixed crawler/scraper substring list. Not exhaustive —
	// it covers the common well-behaved crawlers; adversarial bots routinely
	// spoof browser user-agents and are not caught here.
	botTokens = []string{
		"bot", "crawler", "spider", "slurp", "googlebot", "bingbot", "yandexbot",
		"duckduckbot", "baiduspider", "facebookexternalhit", "twitterbot",
		"linkedinbot", "slackbot", "whatsapp", "telegrambot", "ahrefsbot",
		"semrushbot", "mj12bot", "curl", "wget", "python-requests", "scrapy",
	}
)

// DeviceClass returns the coarse device bucket for a user-agent string.
// Heuristic order: tablet tokens, then mobile tokens, then desktop OS
// tokens, else unknown. Matching is case-insensitive substring.
func DeviceClass(userAgent string) string {
	ua := strings.ToLower(userAgent)
	if containsAny(ua, tabletTokens) {
		return "tablet"
	}
	if containsAny(ua, mobileTokens) {
		return "mobile"
	}
	if containsAny(ua, desktopTokens) {
		return "desktop"
	}
	return "unknown"
}

// IsBot reports whether the user-agent matches the fixed crawler/scraper
// token list. Bot-flagged requests must increment no counter and produce no
// queue message — bots never consume cap or appear in billing.
func IsBot(userAgent string) bool {
	return containsAny(strings.ToLower(userAgent), botTokens)
}

func containsAny(haystack string, tokens []string) bool {
	for _, t := range tokens {
		if strings.Contains(haystack, t) {
			return true
		}
	}
	return false
}

// IPHash returns the hex-encoded SHA-256 of the client IP. Raw IP is never
// persisted, logged, or forwarded — this hash is the only derived form.
func IPHash(ip string) string {
	sum := sha256.Sum256([]byte(ip))
	return hex.EncodeToString(sum[:])
}

// ClickID computes the deterministic dedup key: hex SHA-256 of
// "link_id|ts_millis|unique_part". Identical (linkID, ts, uniquePart)
// inputs always produce the same click-id, so retries and duplicate queue
// deliveries collapse on insert.
func ClickID(linkID ulid.ULID, ts time.Time, uniquePart string) string {
	input := fmt.Sprintf("%s|%d|%s", linkID.String(), ts.UnixMilli(), uniquePart)
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])
}

// UniquePart returns the edge-provided per-request identifier when
// available, else the first 16 hex chars of SHA-256(user-agent).
func UniquePart(edgeRequestID, userAgent string) string {
	if edgeRequestID != "" {
		return edgeRequestID
	}
	sum := sha256.Sum256([]byte(userAgent))
	return hex.EncodeToString(sum[:])[:16]
}

// NormalizeReferrer is performed at aggregation; the Click Log Writer stores
// the referrer as received. An empty/missing
// referrer becomes "(direct)"; otherwise the hostname with a leading "www."
// stripped; a malformed URL degrades to the first 100 characters verbatim.
func NormalizeReferrer(referrer string) string {
	referrer = strings.TrimSpace(referrer)
	if referrer == "" {
		return "(direct)"
	}

	host := extractHost(referrer)
	if host == "" {
		if len(referrer) > 100 {
			return referrer[:100]
		}
		return referrer
	}
	return strings.TrimPrefix(strings.ToLower(host), "www.")
}

// extractHost pulls the host out of a URL string without importing net/url's
// full validation surface — malformed input should degrade, not error.
func extractHost(raw string) string {
	s := raw
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	}
	if i := strings.IndexAny(s, "/?#"); i >= 0 {
		s = s[:i]
	}
	if i := strings.Index(s, "@"); i >= 0 {
		s = s[i+1:]
	}
	if i := strings.LastIndex(s, ":"); i >= 0 {
		if _, ok := isPort(s[i+1:]); ok {
			s = s[:i]
		}
	}
	if s == raw {
		return ""
	}
	return s
}

func isPort(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}
