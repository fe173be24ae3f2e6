package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/boehs/truthsocial/internal/model"
)

// GroupNotificationsService 高触达账号的聚合通知：
// 按 (recipient, type, status) 合并计数，不再每次交互一行
type GroupNotificationsService struct {
	db *gorm.DB
}

func NewGroupNotificationsService(db *gorm.DB) *GroupNotificationsService {
	return &GroupNotificationsService{db: db}
}

// Aggregate 合并一次交互；返回 false 表示无法聚合，调用方应整条丢弃
func (s *GroupNotificationsService) Aggregate(ctx context.Context, recipientID, fromAccountID string, t model.NotificationType, statusID *string) (bool, error) {
	if recipientID == "" || fromAccountID == "" || t == "" {
		return false, nil
	}
	sid := ""
	if statusID != nil {
		sid = *statusID
	}
	now := time.Now()
	row := &model.GroupedNotification{
		ID:            uuid.New().String(),
		AccountID:     recipientID,
		Type:          t,
		StatusID:      sid,
		Count:         1,
		LastAccountID: fromAccountID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "account_id"}, {Name: "type"}, {Name: "status_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"count":           gorm.Expr("count + 1"),
				"last_account_id": fromAccountID,
				"updated_at":      now,
			}),
		}).Create(row).Error
	if err != nil {
		return false, err
	}
	return true, nil
}
