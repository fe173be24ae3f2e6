package model

import "time"

// Block 拉黑（account 拉黑 target）
type Block struct {
	ID              string `gorm:"primaryKey;type:varchar(36)"`
	AccountID       string `gorm:"type:varchar(36);index:idx_block_pair,unique;not null"`
	TargetAccountID string `gorm:"type:varchar(36);index:idx_block_pair,unique;not null"`
	CreatedAt       time.Time
}

func (Block) TableName() string { return "blocks" }

// Mute 静音；HideNotifications 为 true 时连通知一并屏蔽
type Mute struct {
	ID                string `gorm:"primaryKey;type:varchar(36)"`
	AccountID         string `gorm:"type:varchar(36);index:idx_mute_pair,unique;not null"`
	TargetAccountID   string `gorm:"type:varchar(36);index:idx_mute_pair,unique;not null"`
	HideNotifications bool
	CreatedAt         time.Time
}

func (Mute) TableName() string { return "mutes" }

// DomainBlock 账号级域名屏蔽
type DomainBlock struct {
	ID        string `gorm:"primaryKey;type:varchar(36)"`
	AccountID string `gorm:"type:varchar(36);index:idx_domain_block_pair,unique;not null"`
	Domain    string `gorm:"type:varchar(255);index:idx_domain_block_pair,unique;not null"`
	CreatedAt time.Time
}

func (DomainBlock) TableName() string { return "account_domain_blocks" }

// ConversationMute 会话静音
type ConversationMute struct {
	ID             string `gorm:"primaryKey;type:varchar(36)"`
	AccountID      string `gorm:"type:varchar(36);index:idx_conv_mute_pair,unique;not null"`
	ConversationID string `gorm:"type:varchar(36);index:idx_conv_mute_pair,unique;not null"`
	CreatedAt      time.Time
}

func (ConversationMute) TableName() string { return "conversation_mutes" }
