package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/boehs/truthsocial/internal/model"
)

type AccountRepository interface {
	Get(ctx context.Context, id string) (*model.Account, error)
	Create(ctx context.Context, a *model.Account) error
	GetPreference(ctx context.Context, accountID string) (*model.Preference, error)
	SavePreference(ctx context.Context, p *model.Preference) error
	AdjustFollowersCount(ctx context.Context, accountID string, delta int64) error
}

type accountRepository struct{ db *gorm.DB }

func NewAccountRepository(db *gorm.DB) AccountRepository { return &accountRepository{db: db} }

func (r *accountRepository) Get(ctx context.Context, id string) (*model.Account, error) {
	var a model.Account
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *accountRepository) Create(ctx context.Context, a *model.Account) error {
	return r.db.WithContext(ctx).Create(a).Error
}

// GetPreference 无记录时返回零值偏好，不视为错误
func (r *accountRepository) GetPreference(ctx context.Context, accountID string) (*model.Preference, error) {
	var p model.Preference
	err := r.db.WithContext(ctx).Where("account_id = ?", accountID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &model.Preference{AccountID: accountID}, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *accountRepository) SavePreference(ctx context.Context, p *model.Preference) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(p).Error
}

func (r *accountRepository) AdjustFollowersCount(ctx context.Context, accountID string, delta int64) error {
	return r.db.WithContext(ctx).
		Model(&model.Account{}).
		Where("id = ?", accountID).
		UpdateColumn("followers_count", gorm.Expr("followers_count + ?", delta)).Error
}
