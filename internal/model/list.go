package model

import "time"

// List 用户自建列表
type List struct {
	ID        string `gorm:"primaryKey;type:varchar(36)"`
	AccountID string `gorm:"type:varchar(36);index:idx_list_account"`
	Title     string `gorm:"type:varchar(255)"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (List) TableName() string { return "lists" }

// ListAccount 列表成员；列表属主必须关注成员才会收到其内容
type ListAccount struct {
	ID        string `gorm:"primaryKey;type:varchar(36)"`
	ListID    string `gorm:"type:varchar(36);index:idx_list_account_pair,unique;not null"`
	AccountID string `gorm:"type:varchar(36);index:idx_list_account_pair,unique;index:idx_list_member;not null"`
	CreatedAt time.Time
}

func (ListAccount) TableName() string { return "list_accounts" }
