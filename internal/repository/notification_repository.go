package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/boehs/truthsocial/internal/model"
)

// ErrInvalidNotification 通知字段不完整，校验失败
var ErrInvalidNotification = errors.New("invalid notification")

type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	Get(ctx context.Context, id string) (*model.Notification, error)
	ListByAccount(ctx context.Context, accountID string, offset, limit int) ([]*model.Notification, error)
	DeleteByStatus(ctx context.Context, statusID string) error
}

type notificationRepository struct{ db *gorm.DB }

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *model.Notification) error {
	if n.AccountID == "" || n.FromAccountID == "" || n.Type == "" {
		return ErrInvalidNotification
	}
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *notificationRepository) Get(ctx context.Context, id string) (*model.Notification, error) {
	var n model.Notification
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&n).Error; err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *notificationRepository) ListByAccount(ctx context.Context, accountID string, offset, limit int) ([]*model.Notification, error) {
	var res []*model.Notification
	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&res).Error
	return res, err
}

// DeleteByStatus 目标 status 级联删除时摘除其通知
func (r *notificationRepository) DeleteByStatus(ctx context.Context, statusID string) error {
	return r.db.WithContext(ctx).Where("status_id = ?", statusID).Delete(&model.Notification{}).Error
}
