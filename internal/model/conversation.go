package model

import "time"

// AccountConversation 私信会话在某账号视角下的入口
type AccountConversation struct {
	ID             string `gorm:"primaryKey;type:varchar(36)"`
	AccountID      string `gorm:"type:varchar(36);index:idx_acct_conv_pair,unique;not null"`
	ConversationID string `gorm:"type:varchar(36);index:idx_acct_conv_pair,unique;not null"`
	LastStatusID   string `gorm:"type:varchar(36)"`
	Unread         bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (AccountConversation) TableName() string { return "account_conversations" }
