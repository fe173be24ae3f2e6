package streaming

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/boehs/truthsocial/internal/model"
)

// Publisher 话题频道发布端口：纯 pub/sub，无投递保证，不为离线订阅者持久化
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// LivePusher 实时通知推送端口（尽力而为，推给在线会话）
type LivePusher interface {
	Push(ctx context.Context, n *model.Notification) error
}

// RedisPublisher redis PUBLISH 实现，同时承担话题广播与实时推送
type RedisPublisher struct {
	client *redis.Client
}

func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

func (p *RedisPublisher) Publish(ctx context.Context, channel string, payload []byte) error {
	return p.client.Publish(ctx, channel, payload).Err()
}

// Push 推送到收件人 timeline 频道，在线会话订阅该频道
func (p *RedisPublisher) Push(ctx context.Context, n *model.Notification) error {
	payload, err := json.Marshal(map[string]any{
		"event":           "notification",
		"id":              n.ID,
		"type":            n.Type,
		"from_account_id": n.FromAccountID,
		"status_id":       n.StatusID,
		"created_at":      n.CreatedAt,
	})
	if err != nil {
		return err
	}
	return p.client.Publish(ctx, fmt.Sprintf("timeline:%s", n.AccountID), payload).Err()
}

// HashtagChannel 话题频道名；local 为 true 返回仅本地变体
func HashtagChannel(tag string, local bool) string {
	if local {
		return fmt.Sprintf("timeline:hashtag:%s:local", tag)
	}
	return fmt.Sprintf("timeline:hashtag:%s", tag)
}
