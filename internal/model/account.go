package model

import "time"

// Account 账号（本地或远端，domain 为空表示本地）
type Account struct {
	ID             string `gorm:"primaryKey;type:varchar(36)"`
	Username       string `gorm:"type:varchar(64);index:idx_account_acct,unique"`
	Domain         string `gorm:"type:varchar(255);index:idx_account_acct,unique"`
	Email          string `gorm:"type:varchar(255)"` // 仅本地账号，通知邮件收件地址
	Silenced       bool
	Suspended      bool
	Staff          bool
	FollowersCount int64 `gorm:"default:0"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (Account) TableName() string { return "accounts" }

// Local 本地账号（无 domain）
func (a *Account) Local() bool { return a.Domain == "" }
