package service

import (
	"context"
	"time"

	"github.com/boehs/truthsocial/internal/model"
)

// JobQueue 后台任务系统端口：at-least-once，任务间无顺序保证
type JobQueue interface {
	Enqueue(name string, args any) error
	EnqueueBulk(name string, argSeq []any) error
	EnqueueIn(d time.Duration, name string, args any) error
}

// GroupAggregator 聚合通知服务端口；返回 false 表示无法聚合，整条通知丢弃
type GroupAggregator interface {
	Aggregate(ctx context.Context, recipientID, fromAccountID string, t model.NotificationType, statusID *string) (bool, error)
}

// 任务名
const (
	JobFeedInsert    = "feed_insert"
	JobWhaleFeed     = "whale_feed"
	JobReblogRemoval = "reblog_removal"
	JobEmail         = "notification_email"
)

// FeedInsertArgs 一个 chunk 的批量投递；chunk 间失败互不影响
type FeedInsertArgs struct {
	StatusID  string
	Channel   model.ChannelKind
	TargetIDs []string
}

// WhaleFeedArgs 高触达账号的整体广播任务
type WhaleFeedArgs struct {
	StatusID string
}

// ReblogRemovalArgs 撤销转发时摘除 feed 项
type ReblogRemovalArgs struct {
	StatusID string
}

// EmailArgs 延迟通知邮件
type EmailArgs struct {
	NotificationID string
	RecipientID    string
}
