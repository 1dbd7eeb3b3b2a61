package capability

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"support-router/internal/common/logger"
	"support-router/internal/models"

	"github.com/redis/go-redis/v9"
)

const classificationCachePrefix = "router:classify:"

// CachedClassifier memoizes successful classifications in Redis. Cache failures fall through
// to the wrapped classifier.
type CachedClassifier struct {
	next   Classifier
	redis  *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedClassifier(next Classifier, client *redis.Client, ttl time.Duration, log logger.Logger) *CachedClassifier {
	return &CachedClassifier{
		next:   next,
		redis:  client,
		ttl:    ttl,
		logger: log.With(map[string]interface{}{"component": "classification-cache"}),
	}
}

func classificationCacheKey(query, instruction string) string {
	sum := sha256.Sum256([]byte(instruction + "\x00" + strings.ToLower(strings.TrimSpace(query))))
	return classificationCachePrefix + hex.EncodeToString(sum[:])
}

func (c *CachedClassifier) Classify(ctx context.Context, query, instruction string) (models.ClassificationResult, error) {
	key := classificationCacheKey(query, instruction)

	cached, err := c.redis.Get(ctx, key).Result()
	switch {
	case err == nil:
		var result models.ClassificationResult
		if jsonErr := json.Unmarshal([]byte(cached), &result); jsonErr == nil {
			c.logger.Debug("classification cache hit", map[string]interface{}{"key": key})
			return result, nil
		}
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("classification cache read failed", map[string]interface{}{"error": err.Error()})
	}

	result, err := c.next.Classify(ctx, query, instruction)
	if err != nil {
		return result, err
	}

	if data, jsonErr := json.Marshal(result); jsonErr == nil {
		if setErr := c.redis.Set(ctx, key, data, c.ttl).Err(); setErr != nil {
			c.logger.Warn("classification cache write failed", map[string]interface{}{"error": setErr.Error()})
		}
	}
	return result, nil
}
