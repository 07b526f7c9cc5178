package repository

import (
	"classroom_backend/internal/model"
	"classroom_backend/pkg/logger"
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const catalogKeyPrefix = "classroom:catalog:"

// CatalogCache 缓存班级已发布模块目录。Redis 未启用时为 nil，所有方法退化为 no-op
type CatalogCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewCatalogCache(rdb *redis.Client, ttl time.Duration) *CatalogCache {
	if rdb == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &CatalogCache{rdb: rdb, ttl: ttl}
}

func catalogKey(classID string) string {
	return catalogKeyPrefix + classID
}

func (c *CatalogCache) Get(ctx context.Context, classID string) ([]model.PublishedModule, bool) {
	if c == nil {
		return nil, false
	}
	data, err := c.rdb.Get(ctx, catalogKey(classID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.Log.Warn("catalog cache get failed", zap.String("class_id", classID), zap.Error(err))
		}
		return nil, false
	}
	var modules []model.PublishedModule
	if err := json.Unmarshal(data, &modules); err != nil {
		return nil, false
	}
	return modules, true
}

func (c *CatalogCache) Set(ctx context.Context, classID string, modules []model.PublishedModule) {
	if c == nil {
		return
	}
	data, err := json.Marshal(modules)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, catalogKey(classID), data, c.ttl).Err(); err != nil {
		logger.Log.Warn("catalog cache set failed", zap.String("class_id", classID), zap.Error(err))
	}
}

func (c *CatalogCache) Invalidate(ctx context.Context, classIDs ...string) {
	if c == nil || len(classIDs) == 0 {
		return
	}
	keys := make([]string, 0, len(classIDs))
	for _, id := range classIDs {
		keys = append(keys, catalogKey(id))
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		logger.Log.Warn("catalog cache invalidate failed", zap.Strings("class_ids", classIDs), zap.Error(err))
	}
}
