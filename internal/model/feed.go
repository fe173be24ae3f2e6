package model

import "time"

// ChannelKind feed 通道类型
type ChannelKind string

const (
	ChannelHome ChannelKind = "home"
	ChannelList ChannelKind = "list"
)

// FeedEntry 时间线项（home 按 account_id、list 按 list_id 切分）
// 复合唯一键保证 (channel, target, status) 幂等，重试/重投不产生重复
type FeedEntry struct {
	ID          string      `gorm:"primaryKey;type:varchar(36)"`
	ChannelKind ChannelKind `gorm:"type:varchar(8);uniqueIndex:ux_feed_channel_target_status"`
	TargetID    string      `gorm:"type:varchar(36);index:idx_feed_target;uniqueIndex:ux_feed_channel_target_status"`
	StatusID    string      `gorm:"type:varchar(36);index:idx_feed_status;uniqueIndex:ux_feed_channel_target_status"`
	Score       int64       `gorm:"index:idx_feed_target_score"`
	CreatedAt   time.Time   `gorm:"index:idx_feed_target_score"`
}

func (FeedEntry) TableName() string { return "feed_entries" }
