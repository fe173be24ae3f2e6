package repository

import (
	"context"

	"gorm.io/gorm"
)

type ListRepository interface {
	// ListsForLocalDistribution 收录了 author 且属主为本地账号的列表 id，分页
	ListsForLocalDistribution(ctx context.Context, authorID string, offset, limit int) ([]string, error)
}

type listRepository struct{ db *gorm.DB }

func NewListRepository(db *gorm.DB) ListRepository { return &listRepository{db: db} }

func (r *listRepository) ListsForLocalDistribution(ctx context.Context, authorID string, offset, limit int) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Table("lists").
		Select("lists.id").
		Joins("JOIN list_accounts ON list_accounts.list_id = lists.id").
		Joins("JOIN accounts ON accounts.id = lists.account_id AND accounts.domain = ''").
		Where("list_accounts.account_id = ?", authorID).
		Order("lists.id").
		Offset(offset).Limit(limit).
		Scan(&ids).Error
	return ids, err
}
