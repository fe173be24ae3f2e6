package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/boehs/truthsocial/internal/model"
)

// ConversationRepository 私信会话入口；Add 同步返回，调用方依赖其立即可见
type ConversationRepository interface {
	Add(ctx context.Context, accountID string, status *model.Status) error
	Get(ctx context.Context, accountID, conversationID string) (*model.AccountConversation, error)
}

type conversationRepository struct{ db *gorm.DB }

func NewConversationRepository(db *gorm.DB) ConversationRepository {
	return &conversationRepository{db: db}
}

// Add 写入/刷新会话入口；非作者视角置未读
func (r *conversationRepository) Add(ctx context.Context, accountID string, status *model.Status) error {
	entry := &model.AccountConversation{
		ID:             uuid.New().String(),
		AccountID:      accountID,
		ConversationID: status.ConversationID,
		LastStatusID:   status.ID,
		Unread:         status.AccountID != accountID,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "account_id"}, {Name: "conversation_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"last_status_id", "unread", "updated_at"}),
		}).Create(entry).Error
}

func (r *conversationRepository) Get(ctx context.Context, accountID, conversationID string) (*model.AccountConversation, error) {
	var c model.AccountConversation
	err := r.db.WithContext(ctx).
		Where("account_id = ? AND conversation_id = ?", accountID, conversationID).
		First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}
