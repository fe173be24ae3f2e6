package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/boehs/truthsocial/internal/model"
)

// RelationshipRepository 闸门所需的关系谓词与屏蔽/静音写路径
type RelationshipRepository interface {
	Blocking(ctx context.Context, accountID, targetID string) (bool, error)
	MutingNotifications(ctx context.Context, accountID, targetID string) (bool, error)
	DomainBlocking(ctx context.Context, accountID, domain string) (bool, error)
	MutingConversation(ctx context.Context, accountID, conversationID string) (bool, error)

	CreateBlock(ctx context.Context, accountID, targetID string) error
	DeleteBlock(ctx context.Context, accountID, targetID string) error
	CreateMute(ctx context.Context, accountID, targetID string, hideNotifications bool) error
	DeleteMute(ctx context.Context, accountID, targetID string) error
	CreateDomainBlock(ctx context.Context, accountID, domain string) error
	CreateConversationMute(ctx context.Context, accountID, conversationID string) error
}

type relationshipRepository struct{ db *gorm.DB }

func NewRelationshipRepository(db *gorm.DB) RelationshipRepository {
	return &relationshipRepository{db: db}
}

func (r *relationshipRepository) Blocking(ctx context.Context, accountID, targetID string) (bool, error) {
	var cnt int64
	err := r.db.WithContext(ctx).
		Model(&model.Block{}).
		Where("account_id = ? AND target_account_id = ?", accountID, targetID).
		Count(&cnt).Error
	return cnt > 0, err
}

func (r *relationshipRepository) MutingNotifications(ctx context.Context, accountID, targetID string) (bool, error) {
	var cnt int64
	err := r.db.WithContext(ctx).
		Model(&model.Mute{}).
		Where("account_id = ? AND target_account_id = ? AND hide_notifications = ?", accountID, targetID, true).
		Count(&cnt).Error
	return cnt > 0, err
}

func (r *relationshipRepository) DomainBlocking(ctx context.Context, accountID, domain string) (bool, error) {
	if domain == "" {
		return false, nil
	}
	var cnt int64
	err := r.db.WithContext(ctx).
		Model(&model.DomainBlock{}).
		Where("account_id = ? AND domain = ?", accountID, domain).
		Count(&cnt).Error
	return cnt > 0, err
}

func (r *relationshipRepository) MutingConversation(ctx context.Context, accountID, conversationID string) (bool, error) {
	if conversationID == "" {
		return false, nil
	}
	var cnt int64
	err := r.db.WithContext(ctx).
		Model(&model.ConversationMute{}).
		Where("account_id = ? AND conversation_id = ?", accountID, conversationID).
		Count(&cnt).Error
	return cnt > 0, err
}

func (r *relationshipRepository) CreateBlock(ctx context.Context, accountID, targetID string) error {
	b := &model.Block{ID: uuid.New().String(), AccountID: accountID, TargetAccountID: targetID}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(b).Error
}

func (r *relationshipRepository) DeleteBlock(ctx context.Context, accountID, targetID string) error {
	return r.db.WithContext(ctx).
		Where("account_id = ? AND target_account_id = ?", accountID, targetID).
		Delete(&model.Block{}).Error
}

func (r *relationshipRepository) CreateMute(ctx context.Context, accountID, targetID string, hideNotifications bool) error {
	m := &model.Mute{ID: uuid.New().String(), AccountID: accountID, TargetAccountID: targetID, HideNotifications: hideNotifications}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "account_id"}, {Name: "target_account_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"hide_notifications"}),
		}).Create(m).Error
}

func (r *relationshipRepository) DeleteMute(ctx context.Context, accountID, targetID string) error {
	return r.db.WithContext(ctx).
		Where("account_id = ? AND target_account_id = ?", accountID, targetID).
		Delete(&model.Mute{}).Error
}

func (r *relationshipRepository) CreateDomainBlock(ctx context.Context, accountID, domain string) error {
	b := &model.DomainBlock{ID: uuid.New().String(), AccountID: accountID, Domain: domain}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(b).Error
}

func (r *relationshipRepository) CreateConversationMute(ctx context.Context, accountID, conversationID string) error {
	m := &model.ConversationMute{ID: uuid.New().String(), AccountID: accountID, ConversationID: conversationID}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(m).Error
}
