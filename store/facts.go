package store

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const factsKey = "voiceast:facts"

// SemanticIndex is an optional secondary index over remembered facts for
// fuzzy recall. A nil index means exact-subject lookup only.
type SemanticIndex interface {
	Upsert(ctx context.Context, subject, fact string) error
	Query(ctx context.Context, text string) (string, bool, error)
}

// Facts is the remember/recall key-value store, keyed by a normalized
// subject. Redis gives it single-writer discipline across sessions.
type Facts struct {
	rdb      *redis.Client
	semantic SemanticIndex
	logger   *zap.Logger
}

// NewFacts wraps a connected Redis client; semantic may be nil.
func NewFacts(rdb *redis.Client, semantic SemanticIndex) *Facts {
	return &Facts{rdb: rdb, semantic: semantic, logger: zap.L().Named("facts")}
}

var subjectSplit = regexp.MustCompile(`\s+(?:is|are|was|were|lives?|likes?|has|have)\s+`)
var nonWord = regexp.MustCompile(`[^a-z0-9\s]`)

// NormalizeSubject extracts the lookup key from a spoken fact. "my birthday
// is june first" keys on "my birthday"; statements without a recognizable
// copula key on their first few words.
func NormalizeSubject(fact string) string {
	lower := strings.ToLower(strings.TrimSpace(fact))
	lower = nonWord.ReplaceAllString(lower, "")
	if lower == "" {
		return ""
	}
	if parts := subjectSplit.Split(lower, 2); len(parts) == 2 && strings.TrimSpace(parts[0]) != "" {
		return strings.Join(strings.Fields(parts[0]), " ")
	}
	words := strings.Fields(lower)
	if len(words) > 3 {
		words = words[:3]
	}
	return strings.Join(words, " ")
}

// Remember stores a fact under its normalized subject and, when a semantic
// index is configured, mirrors it there for fuzzy recall.
func (f *Facts) Remember(ctx context.Context, fact string) (string, error) {
	subject := NormalizeSubject(fact)
	if subject == "" {
		return "", fmt.Errorf("nothing to remember")
	}
	if err := f.rdb.HSet(ctx, factsKey, subject, fact).Err(); err != nil {
		return "", fmt.Errorf("storing fact: %w", err)
	}
	if f.semantic != nil {
		if err := f.semantic.Upsert(ctx, subject, fact); err != nil {
			// Exact-match recall still works; fuzzy recall just won't
			// find this fact.
			f.logger.Warn("semantic index upsert failed", zap.Error(err))
		}
	}
	return subject, nil
}

// Recall looks a subject up by exact normalized key first and falls back to
// the semantic index. The second return is false when nothing was found;
// that is a "don't know" answer, not an error.
func (f *Facts) Recall(ctx context.Context, subject string) (string, bool, error) {
	key := NormalizeSubject(subject)
	if key != "" {
		fact, err := f.rdb.HGet(ctx, factsKey, key).Result()
		if err == nil {
			return fact, true, nil
		}
		if err != redis.Nil {
			return "", false, fmt.Errorf("reading fact: %w", err)
		}
	}
	if f.semantic != nil {
		fact, ok, err := f.semantic.Query(ctx, subject)
		if err != nil {
			f.logger.Warn("semantic recall failed", zap.Error(err))
			return "", false, nil
		}
		return fact, ok, nil
	}
	return "", false, nil
}
