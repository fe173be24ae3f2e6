package model

import "time"

// Visibility 状态可见性
type Visibility string

const (
	VisibilityPublic   Visibility = "public"
	VisibilityUnlisted Visibility = "unlisted"
	VisibilityPrivate  Visibility = "private"
	VisibilityDirect   Visibility = "direct"
	VisibilityLimited  Visibility = "limited"
	VisibilityGroup    Visibility = "group"
	VisibilitySelf     Visibility = "self"
)

// Status 内容主体
// ReblogOfID / InReplyToID 均为可选外键，禁止环（转发仅一层，不拥有对方）
type Status struct {
	ID                 string     `gorm:"primaryKey;type:varchar(36)"`
	AccountID          string     `gorm:"type:varchar(36);index:idx_status_account"`
	Visibility         Visibility `gorm:"type:varchar(16)"` // 空值表示尚未落库完成
	Text               string     `gorm:"type:text"`
	ReblogOfID         *string    `gorm:"type:varchar(36)"`
	InReplyToID        *string    `gorm:"type:varchar(36)"`
	InReplyToAccountID *string    `gorm:"type:varchar(36)"`
	ConversationID     string     `gorm:"type:varchar(36);index:idx_status_conversation"`
	Local              bool
	CreatedAt          time.Time
	UpdatedAt          time.Time

	Mentions []StatusMention `gorm:"foreignKey:StatusID"`
	Tags     []StatusTag     `gorm:"foreignKey:StatusID"`
}

func (Status) TableName() string { return "statuses" }

func (s *Status) Reblog() bool { return s.ReblogOfID != nil }
func (s *Status) Reply() bool  { return s.InReplyToID != nil }

func (s *Status) DirectVisibility() bool  { return s.Visibility == VisibilityDirect }
func (s *Status) LimitedVisibility() bool { return s.Visibility == VisibilityLimited }
func (s *Status) PublicVisibility() bool  { return s.Visibility == VisibilityPublic }

// StatusMention 状态中提及的账号
type StatusMention struct {
	ID        string `gorm:"primaryKey;type:varchar(36)"`
	StatusID  string `gorm:"type:varchar(36);index:idx_mention_status;index:idx_mention_pair,unique"`
	AccountID string `gorm:"type:varchar(36);index:idx_mention_pair,unique"`
	CreatedAt time.Time
}

func (StatusMention) TableName() string { return "status_mentions" }

// StatusTag 状态携带的话题标签（小写归一）
type StatusTag struct {
	ID       string `gorm:"primaryKey;type:varchar(36)"`
	StatusID string `gorm:"type:varchar(36);index:idx_tag_status;index:idx_tag_pair,unique"`
	Tag      string `gorm:"type:varchar(128);index:idx_tag_pair,unique"`
}

func (StatusTag) TableName() string { return "status_tags" }
