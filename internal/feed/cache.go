package feed

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// FollowerCache 本地粉丝 id 的 Redis List 索引，扇出分页走 LRANGE 而非反复回表
type FollowerCache struct {
	db    *gorm.DB
	cache *redis.Client
	ttl   time.Duration
}

func NewFollowerCache(db *gorm.DB, cache *redis.Client, ttl time.Duration) *FollowerCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &FollowerCache{db: db, cache: cache, ttl: ttl}
}

func (c *FollowerCache) key(accountID string) string {
	return fmt.Sprintf("followers:local:%s", accountID)
}

// LocalFollowerPage 返回第 offset 起 limit 个本地粉丝 id；cache miss 时整表加载并回填
func (c *FollowerCache) LocalFollowerPage(ctx context.Context, accountID string, offset, limit int) ([]string, error) {
	if c.cache != nil {
		key := c.key(accountID)
		if exists, _ := c.cache.Exists(ctx, key).Result(); exists > 0 {
			ids, err := c.cache.LRange(ctx, key, int64(offset), int64(offset+limit-1)).Result()
			if err == nil {
				return ids, nil
			}
		}
	}

	all, err := c.loadAndCache(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

// Invalidate 关注关系变化后失效索引
func (c *FollowerCache) Invalidate(ctx context.Context, accountID string) {
	if c.cache == nil {
		return
	}
	_ = c.cache.Del(ctx, c.key(accountID)).Err()
}

func (c *FollowerCache) loadAndCache(ctx context.Context, accountID string) ([]string, error) {
	var ids []string
	if err := c.db.WithContext(ctx).
		Table("fans").
		Select("fan_id").
		Where("user_id = ? AND fan_local = ?", accountID, true).
		Order("created_at").
		Scan(&ids).Error; err != nil {
		return nil, err
	}
	if c.cache != nil && len(ids) > 0 {
		key := c.key(accountID)
		pipe := c.cache.Pipeline()
		pipe.Del(ctx, key)
		pipe.RPush(ctx, key, interfaceSlice(ids)...)
		pipe.Expire(ctx, key, c.ttl)
		_, _ = pipe.Exec(ctx)
	}
	return ids, nil
}

func interfaceSlice(strs []string) []interface{} {
	result := make([]interface{}, len(strs))
	for i, s := range strs {
		result[i] = s
	}
	return result
}
