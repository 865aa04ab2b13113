package workers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	clickdomain "shortcut/internal/core/domain/click"
	clickenrich "shortcut/internal/core/services/click"
	"shortcut/internal/infrastructure/database"
	"shortcut/internal/metrics"
)

// ErrMovedToDLQ marks a batch that failed every retry but was successfully
// preserved in the dead letter queue — safe to acknowledge since the data
// is not lost.
var ErrMovedToDLQ = errors.New("batch moved to DLQ")

// ClickLogWriterConfig mirrors config.QueueConfig's shape.
type ClickLogWriterConfig struct {
	StreamName       string
	ConsumerGroup    string
	ConsumerID       string
	BatchSize        int
	BlockDuration    time.Duration
	MaxRetries       int
	RetryBackoff     time.Duration
	DLQMaxLength     int64
	DLQRetentionDays int
}

// ClickLogWriter is a single-stream Redis Streams consumer that batches
// accepted click events into the append-only raw click log, idempotent by
// click-id. There is one global click-events queue, not one per tenant, so
// no stream discovery or rotation is needed.
type ClickLogWriter struct {
	redis  *database.RedisDB
	repo   clickdomain.Repository
	logger *slog.Logger
	cfg    ClickLogWriterConfig

	quit    chan struct{}
	wg      sync.WaitGroup
	running int64

	batchesProcessed int64
	eventsProcessed  int64
	errorsCount      int64
	dlqMessagesCount int64
}

// NewClickLogWriter constructs a Click Log Writer against the fixed
// click-events stream named in cfg.
func NewClickLogWriter(redis *database.RedisDB, repo clickdomain.Repository, logger *slog.Logger, cfg ClickLogWriterConfig) *ClickLogWriter {
	if cfg.ConsumerID == "" {
		cfg.ConsumerID = fmt.Sprintf("click-log-writer-%d", time.Now().UnixNano())
	}
	return &ClickLogWriter{
		redis:  redis,
		repo:   repo,
		logger: logger,
		cfg:    cfg,
		quit:   make(chan struct{}),
	}
}

// Start creates the consumer group (idempotent) and begins the consume loop.
func (w *ClickLogWriter) Start(ctx context.Context) error {
	if !atomic.CompareAndSwapInt64(&w.running, 0, 1) {
		return errors.New("click log writer already running")
	}

	err := w.redis.Client.XGroupCreateMkStream(ctx, w.cfg.StreamName, w.cfg.ConsumerGroup, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		atomic.StoreInt64(&w.running, 0)
		return fmt.Errorf("create consumer group: %w", err)
	}

	w.logger.Info("starting click log writer",
		"stream", w.cfg.StreamName, "consumer_group", w.cfg.ConsumerGroup, "consumer_id", w.cfg.ConsumerID)

	w.wg.Add(1)
	go w.consumeLoop(ctx)
	return nil
}

// Stop signals the consume loop to exit and waits for it to finish.
func (w *ClickLogWriter) Stop() {
	if !atomic.CompareAndSwapInt64(&w.running, 1, 0) {
		return
	}
	close(w.quit)
	w.wg.Wait()
	w.logger.Info("click log writer stopped",
		"batches_processed", atomic.LoadInt64(&w.batchesProcessed),
		"events_processed", atomic.LoadInt64(&w.eventsProcessed),
		"errors", atomic.LoadInt64(&w.errorsCount),
		"dlq_messages", atomic.LoadInt64(&w.dlqMessagesCount))
}

func (w *ClickLogWriter) consumeLoop(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case <-w.quit:
			return
		case <-ctx.Done():
			return
		default:
			if err := w.consumeBatch(ctx); err != nil && !errors.Is(err, redis.Nil) {
				w.logger.Error("error consuming batch", "error", err)
				atomic.AddInt64(&w.errorsCount, 1)
				time.Sleep(100 * time.Millisecond)
			}
		}
	}
}

func (w *ClickLogWriter) consumeBatch(ctx context.Context) error {
	streams, err := w.redis.Client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    w.cfg.ConsumerGroup,
		Consumer: w.cfg.ConsumerID,
		Streams:  []string{w.cfg.StreamName, ">"},
		Count:    int64(w.cfg.BatchSize),
		Block:    w.cfg.BlockDuration,
	}).Result()
	if err != nil {
		if err == redis.Nil {
			return nil
		}
		return err
	}

	for _, stream := range streams {
		w.processMessages(ctx, stream.Messages)
	}
	return nil
}

// processMessages parses every message in the read batch, drops poison
// (unparseable) messages immediately, and inserts everything that parsed as
// one idempotent batch, retrying up to MaxRetries times. A batch that fails
// every retry is copied to the dead letter stream and acknowledged; only if
// that copy also fails are the parsed messages left pending for redelivery.
// The click-id primary key ensures a later successful insert never
// double-writes.
func (w *ClickLogWriter) processMessages(ctx context.Context, messages []redis.XMessage) {
	rows := make([]*clickdomain.RawClick, 0, len(messages))
	rowMsgIDs := make([]string, 0, len(messages))

	for _, msg := range messages {
		row, err := w.parseMessage(msg)
		if err != nil {
			w.logger.Warn("dropping poison click event", "message_id", msg.ID, "error", err)
			w.ack(ctx, msg.ID)
			continue
		}
		rows = append(rows, row)
		rowMsgIDs = append(rowMsgIDs, msg.ID)
	}

	if len(rows) == 0 {
		return
	}

	if err := w.insertWithRetry(ctx, rows, messages); err != nil {
		if errors.Is(err, ErrMovedToDLQ) {
			for _, id := range rowMsgIDs {
				w.ack(ctx, id)
			}
			return
		}
		w.logger.Error("batch insert failed, leaving messages pending for redelivery",
			"count", len(rows), "error", err)
		atomic.AddInt64(&w.errorsCount, 1)
		return
	}

	for _, id := range rowMsgIDs {
		w.ack(ctx, id)
	}
	atomic.AddInt64(&w.batchesProcessed, 1)
	atomic.AddInt64(&w.eventsProcessed, int64(len(rows)))
}

func (w *ClickLogWriter) insertWithRetry(ctx context.Context, rows []*clickdomain.RawClick, original []redis.XMessage) error {
	var lastErr error
	for attempt := 0; attempt <= w.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(time.Duration(attempt) * w.cfg.RetryBackoff)
		}
		if err := w.repo.InsertBatch(ctx, rows); err != nil {
			lastErr = err
			continue
		}
		return nil
	}

	if err := w.moveToDLQ(ctx, original, lastErr); err != nil {
		return fmt.Errorf("max retries exceeded and failed to move to DLQ: %w", lastErr)
	}
	return ErrMovedToDLQ
}

func (w *ClickLogWriter) ack(ctx context.Context, msgID string) {
	if err := w.redis.Client.XAck(ctx, w.cfg.StreamName, w.cfg.ConsumerGroup, msgID).Err(); err != nil {
		w.logger.Warn("failed to ack message", "message_id", msgID, "error", err)
	}
}

const dlqStreamSuffix = ":dlq"

// moveToDLQ preserves the raw, unparsed message payloads of a batch that
// failed every insert retry, so redelivery stops but the data is not lost.
func (w *ClickLogWriter) moveToDLQ(ctx context.Context, original []redis.XMessage, cause error) error {
	dlqKey := w.cfg.StreamName + dlqStreamSuffix
	for _, msg := range original {
		data, err := json.Marshal(msg.Values)
		if err != nil {
			continue
		}
		err = w.redis.Client.XAdd(ctx, &redis.XAddArgs{
			Stream: dlqKey,
			MaxLen: w.cfg.DLQMaxLength,
			Approx: true,
			Values: map[string]interface{}{
				"original_message_id": msg.ID,
				"data":                string(data),
				"error":               cause.Error(),
				"failed_at":           time.Now().UTC().Format(time.RFC3339),
			},
		}).Err()
		if err != nil {
			return err
		}
		atomic.AddInt64(&w.dlqMessagesCount, 1)
	}
	retention := time.Duration(w.cfg.DLQRetentionDays) * 24 * time.Hour
	if err := w.redis.Client.Expire(ctx, dlqKey, retention).Err(); err != nil {
		w.logger.Warn("failed to set DLQ retention", "error", err)
	}
	if depth, err := w.redis.Client.XLen(ctx, dlqKey).Result(); err == nil {
		metrics.DLQDepth.Set(float64(depth))
	}
	return nil
}

// parseMessage decodes a queue message into a raw click row, re-deriving
// device class and bot flag since the wire payload doesn't carry them — the
// enricher's algorithm is the contract, not the wire payload.
func (w *ClickLogWriter) parseMessage(msg redis.XMessage) (*clickdomain.RawClick, error) {
	raw, ok := msg.Values["data"].(string)
	if !ok {
		return nil, errors.New("missing data field")
	}

	var evt clickdomain.Event
	if err := json.Unmarshal([]byte(raw), &evt); err != nil {
		return nil, fmt.Errorf("unmarshal click event: %w", err)
	}
	if evt.ClickID == "" || evt.LinkID.IsZero() || evt.WorkspaceID.IsZero() {
		return nil, errors.New("click event missing required fields")
	}

	deviceClass := clickenrich.DeviceClass(evt.UserAgent)
	botSuspected := clickenrich.IsBot(evt.UserAgent)

	return &clickdomain.RawClick{
		ClickID:      evt.ClickID,
		TS:           evt.TS,
		WorkspaceID:  evt.WorkspaceID,
		LinkID:       evt.LinkID,
		Domain:       evt.Domain,
		Slug:         evt.Slug,
		Destination:  evt.Destination,
		Referrer:     evt.Referrer,
		UserAgent:    evt.UserAgent,
		IPHash:       evt.IPHash,
		Country:      evt.Country,
		Region:       evt.Region,
		City:         evt.City,
		DeviceClass:  clickdomain.DeviceClass(deviceClass),
		BotSuspected: botSuspected,
	}, nil
}

// Stats returns current consumer counters for the metrics endpoint.
func (w *ClickLogWriter) Stats() map[string]int64 {
	return map[string]int64{
		"batches_processed": atomic.LoadInt64(&w.batchesProcessed),
		"events_processed":  atomic.LoadInt64(&w.eventsProcessed),
		"errors":            atomic.LoadInt64(&w.errorsCount),
		"dlq_messages":      atomic.LoadInt64(&w.dlqMessagesCount),
	}
}
