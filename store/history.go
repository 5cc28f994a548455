package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/voiceast/voiceast/models"
)

const (
	historyKey      = "voiceast:history"
	statsTotalKey   = "voiceast:stats:total"
	statsSuccessKey = "voiceast:stats:success"

	// Bound kept on the history list so it never grows without limit.
	historyMax = 1000
)

// History is the append-only command log plus monotonic statistics
// counters. Redis serializes concurrent appends from all sessions, so no
// read-modify-write race exists for the counters.
type History struct {
	rdb    *redis.Client
	logger *zap.Logger
}

// NewHistory wraps a connected Redis client.
func NewHistory(rdb *redis.Client) *History {
	return &History{rdb: rdb, logger: zap.L().Named("history")}
}

// Append records one dispatched command, trims the log, and bumps the
// counters. Persistence failures are logged and swallowed; losing a history
// row must never fail the command that produced it.
func (h *History) Append(ctx context.Context, entry models.HistoryEntry) {
	raw, err := json.Marshal(entry)
	if err != nil {
		h.logger.Error("marshal history entry", zap.Error(err))
		return
	}
	pipe := h.rdb.TxPipeline()
	pipe.LPush(ctx, historyKey, raw)
	pipe.LTrim(ctx, historyKey, 0, historyMax-1)
	pipe.Incr(ctx, statsTotalKey)
	if entry.Success {
		pipe.Incr(ctx, statsSuccessKey)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		h.logger.Warn("appending history entry", zap.Error(err))
	}
}

// Recent returns the most recent limit entries, newest first.
func (h *History) Recent(ctx context.Context, limit int) ([]models.HistoryEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := h.rdb.LRange(ctx, historyKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}
	entries := make([]models.HistoryEntry, 0, len(rows))
	for _, row := range rows {
		var e models.HistoryEntry
		if err := json.Unmarshal([]byte(row), &e); err != nil {
			h.logger.Warn("skipping malformed history row", zap.Error(err))
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Clear drops the history log. The statistics counters survive a clear.
func (h *History) Clear(ctx context.Context) error {
	if err := h.rdb.Del(ctx, historyKey).Err(); err != nil {
		return fmt.Errorf("clearing history: %w", err)
	}
	return nil
}

// Statistics derives total count and success rate from the counter pair.
func (h *History) Statistics(ctx context.Context) (models.Statistics, error) {
	total, err := h.rdb.Get(ctx, statsTotalKey).Int64()
	if err != nil && err != redis.Nil {
		return models.Statistics{}, fmt.Errorf("reading statistics: %w", err)
	}
	success, err := h.rdb.Get(ctx, statsSuccessKey).Int64()
	if err != nil && err != redis.Nil {
		return models.Statistics{}, fmt.Errorf("reading statistics: %w", err)
	}
	stats := models.Statistics{TotalCommands: total, SuccessfulCommands: success}
	if total > 0 {
		stats.SuccessRate = float64(success) / float64(total)
	}
	return stats, nil
}
