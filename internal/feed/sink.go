package feed

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/boehs/truthsocial/internal/model"
)

// Sink feed 落地端口：home/list 两类通道，调用方不关心存储形态
type Sink interface {
	Push(ctx context.Context, channel model.ChannelKind, targetID, statusID string) error
	PushBulk(ctx context.Context, channel model.ChannelKind, targetIDs []string, statusID string) error
	RemoveStatus(ctx context.Context, statusID string) error
}

// GormSink 基于 feed_entries 表；(channel, target, status) 唯一键保证按 id 去重
type GormSink struct {
	db *gorm.DB
}

func NewGormSink(db *gorm.DB) *GormSink { return &GormSink{db: db} }

func (s *GormSink) Push(ctx context.Context, channel model.ChannelKind, targetID, statusID string) error {
	return s.PushBulk(ctx, channel, []string{targetID}, statusID)
}

// PushBulk 批量写入一批收件人；目标 status 已不存在视为成功（删除与投递竞态）
func (s *GormSink) PushBulk(ctx context.Context, channel model.ChannelKind, targetIDs []string, statusID string) error {
	if len(targetIDs) == 0 {
		return nil
	}
	var exists int64
	if err := s.db.WithContext(ctx).Model(&model.Status{}).Where("id = ?", statusID).Count(&exists).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	if exists == 0 {
		return nil
	}
	now := time.Now()
	score := now.UnixNano()
	records := make([]model.FeedEntry, 0, len(targetIDs))
	for _, t := range targetIDs {
		records = append(records, model.FeedEntry{
			ID:          uuid.New().String(),
			ChannelKind: channel,
			TargetID:    t,
			StatusID:    statusID,
			Score:       score,
			CreatedAt:   now,
		})
	}
	// upsert ignore duplicates
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&records).Error
}

// RemoveStatus 从所有通道摘除该 status（转发撤销、级联删除）
func (s *GormSink) RemoveStatus(ctx context.Context, statusID string) error {
	return s.db.WithContext(ctx).Where("status_id = ?", statusID).Delete(&model.FeedEntry{}).Error
}
