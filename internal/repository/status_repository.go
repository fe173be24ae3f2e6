package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/boehs/truthsocial/internal/model"
)

type StatusRepository interface {
	Get(ctx context.Context, id string) (*model.Status, error)
	// MentionedFollowerIDs 被提及且关注作者的本地账号 id
	MentionedFollowerIDs(ctx context.Context, statusID, authorID string) ([]string, error)
	// MentionedAccountIDs 该 status 提及的全部账号 id
	MentionedAccountIDs(ctx context.Context, statusID string) ([]string, error)
	// EarliestInConversation 会话中最早的一条（id 升序第一条）
	EarliestInConversation(ctx context.Context, conversationID string) (*model.Status, error)
}

type statusRepository struct{ db *gorm.DB }

func NewStatusRepository(db *gorm.DB) StatusRepository { return &statusRepository{db: db} }

func (r *statusRepository) Get(ctx context.Context, id string) (*model.Status, error) {
	var st model.Status
	err := r.db.WithContext(ctx).
		Preload("Mentions").
		Preload("Tags").
		Where("id = ?", id).
		First(&st).Error
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func (r *statusRepository) MentionedFollowerIDs(ctx context.Context, statusID, authorID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Table("status_mentions").
		Select("status_mentions.account_id").
		Joins("JOIN follows ON follows.follower_id = status_mentions.account_id AND follows.followee_id = ?", authorID).
		Joins("JOIN accounts ON accounts.id = status_mentions.account_id AND accounts.domain = ''").
		Where("status_mentions.status_id = ?", statusID).
		Scan(&ids).Error
	return ids, err
}

func (r *statusRepository) MentionedAccountIDs(ctx context.Context, statusID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&model.StatusMention{}).
		Select("account_id").
		Where("status_id = ?", statusID).
		Scan(&ids).Error
	return ids, err
}

func (r *statusRepository) EarliestInConversation(ctx context.Context, conversationID string) (*model.Status, error) {
	var st model.Status
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC, id ASC").
		First(&st).Error
	if err != nil {
		return nil, err
	}
	return &st, nil
}
