package click

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"shortcut/pkg/ulid"
)

func TestDeviceClass(t *testing.T) {
	cases := []struct {
		ua   string
		want string
	}{
		{"Mozilla/5.0 (iPad; CPU OS 15_0 like Mac OS X)", "tablet"},
		{"Mozilla/5.0 (Linux; Android 12; Nexus 7)", "tablet"},
		{"Mozilla/5.0 (iPhone; CPU iPhone OS 15_0 like Mac OS X)", "mobile"},
		{"Mozilla/5.0 (Linux; Android 12; Pixel 6)", "mobile"},
		{"Mozilla/5.0 (Windows NT 10.0; Win64; x64)", "desktop"},
		{"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15)", "desktop"},
		{"SomeUnknownAgent/1.0", "unknown"},
		{"", "unknown"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, DeviceClass(c.ua), "ua=%q", c.ua)
	}
}

func TestDeviceClass_TabletTakesPrecedenceOverMobileToken(t *testing.T) {
	// Android tablets commonly report "Mobile Safari" alongside tablet markers.
	ua := "Mozilla/5.0 (Linux; Android 10; Nexus 10) AppleWebKit/537.36 Mobile Safari/537.36"
	assert.Equal(t, "tablet", DeviceClass(ua))
}

func TestIsBot(t *testing.T) {
	assert.True(t, IsBot("Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)"))
	assert.True(t, IsBot("curl/8.4.0"))
	assert.True(t, IsBot("python-requests/2.31.0"))
	assert.False(t, IsBot("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 Chrome/120.0"))
}

func TestIPHash_NeverLeaksRawIP(t *testing.T) {
	h := IPHash("203.0.113.42")
	assert.Len(t, h, 64)
	assert.NotContains(t, h, "203")
	assert.NotContains(t, h, ".")
}

func TestClickID_DeterministicAndDistinct(t *testing.T) {
	linkID := ulid.New()
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	a := ClickID(linkID, ts, "req-1")
	b := ClickID(linkID, ts, "req-1")
	assert.Equal(t, a, b, "identical inputs must produce identical click-ids")

	c := ClickID(linkID, ts, "req-2")
	assert.NotEqual(t, a, c)

	d := ClickID(linkID, ts.Add(time.Second), "req-1")
	assert.NotEqual(t, a, d)
}

func TestUniquePart_PrefersEdgeRequestID(t *testing.T) {
	assert.Equal(t, "edge-123", UniquePart("edge-123", "some-ua"))

	fallback := UniquePart("", "some-ua")
	assert.Len(t, fallback, 16)
	assert.Equal(t, fallback, UniquePart("", "some-ua"))
}

func TestNormalizeReferrer(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", "(direct)"},
		{"   ", "(direct)"},
		{"https://www.google.com/search?q=x", "google.com"},
		{"http://news.ycombinator.com/item?id=1", "news.ycombinator.com"},
		{"not a url at all", "not a url at all"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, NormalizeReferrer(c.in), "in=%q", c.in)
	}
}

func TestNormalizeReferrer_MalformedLongURLTruncatesTo100(t *testing.T) {
	long := ""
	for i := 0; i < 150; i++ {
		long += "x"
	}
	got := NormalizeReferrer(long)
	assert.Len(t, got, 100)
	assert.Equal(t, long[:100], got)
}
