package workers

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	clickdomain "shortcut/internal/core/domain/click"
	"shortcut/pkg/ulid"
)

// newTestClickLogWriter builds a writer with no Redis client — enough to
// exercise parseMessage, which never touches w.redis.
func newTestClickLogWriter() *ClickLogWriter {
	return NewClickLogWriter(nil, nil, testLogger(), ClickLogWriterConfig{
		StreamName:    "click-events",
		ConsumerGroup: "click-log-writer",
		ConsumerID:    "test-consumer",
		BatchSize:     100,
	})
}

func eventMessage(t *testing.T, evt clickdomain.Event) redis.XMessage {
	t.Helper()
	data, err := json.Marshal(evt)
	require.NoError(t, err)
	return redis.XMessage{ID: "1-0", Values: map[string]interface{}{"data": string(data)}}
}

func TestParseMessage_HappyPath(t *testing.T) {
	w := newTestClickLogWriter()
	evt := clickdomain.Event{
		ClickID:     "abc123",
		TS:          time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		WorkspaceID: ulid.New(),
		LinkID:      ulid.New(),
		Domain:      "example.test",
		Slug:        "x",
		Destination: "https://dest.example/path",
		UserAgent:   "Mozilla/5.0 (iPhone; CPU iPhone OS 15_0 like Mac OS X)",
	}
	row, err := w.parseMessage(eventMessage(t, evt))
	require.NoError(t, err)
	assert.Equal(t, "abc123", row.ClickID)
	assert.Equal(t, clickdomain.DeviceMobile, row.DeviceClass)
	assert.False(t, row.BotSuspected)
}

func TestParseMessage_ReDerivesDeviceAndBotFlagsWhenMissing(t *testing.T) {
	w := newTestClickLogWriter()
	evt := clickdomain.Event{
		ClickID:     "bot1",
		TS:          time.Now().UTC(),
		WorkspaceID: ulid.New(),
		LinkID:      ulid.New(),
		UserAgent:   "Googlebot/2.1 (+http://www.google.com/bot.html)",
	}
	row, err := w.parseMessage(eventMessage(t, evt))
	require.NoError(t, err)
	assert.True(t, row.BotSuspected)
}

func TestParseMessage_MissingDataFieldIsPoison(t *testing.T) {
	w := newTestClickLogWriter()
	_, err := w.parseMessage(redis.XMessage{ID: "1-0", Values: map[string]interface{}{}})
	assert.Error(t, err)
}

func TestParseMessage_MalformedJSONIsPoison(t *testing.T) {
	w := newTestClickLogWriter()
	_, err := w.parseMessage(redis.XMessage{ID: "1-0", Values: map[string]interface{}{"data": "{not json"}})
	assert.Error(t, err)
}

func TestParseMessage_MissingRequiredFieldsIsPoison(t *testing.T) {
	w := newTestClickLogWriter()
	evt := clickdomain.Event{ClickID: "", WorkspaceID: ulid.New(), LinkID: ulid.New()}
	_, err := w.parseMessage(eventMessage(t, evt))
	assert.Error(t, err)

	evt2 := clickdomain.Event{ClickID: "x", WorkspaceID: ulid.ULID{}, LinkID: ulid.New()}
	_, err = w.parseMessage(eventMessage(t, evt2))
	assert.Error(t, err)
}

func TestParseMessage_TolerantOfMissingOptionalFields(t *testing.T) {
	w := newTestClickLogWriter()
	evt := clickdomain.Event{
		ClickID:     "noopt",
		TS:          time.Now().UTC(),
		WorkspaceID: ulid.New(),
		LinkID:      ulid.New(),
		// Referrer, UserAgent, IPHash, Country, Region, City all absent.
	}
	row, err := w.parseMessage(eventMessage(t, evt))
	require.NoError(t, err)
	assert.Equal(t, clickdomain.DeviceUnknown, row.DeviceClass)
	assert.False(t, row.BotSuspected)
}
