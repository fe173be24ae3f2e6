package model

import "time"

// Preference 账号的通知偏好（交互开关 + 各类型邮件开关）
type Preference struct {
	AccountID         string          `gorm:"primaryKey;type:varchar(36)"`
	MustBeFollower    bool            // 仅接收粉丝的通知
	MustBeFollowing   bool            // 仅接收自己关注的人的通知
	MustBeFollowingDM bool            // 私信提及仅接收自己关注的人
	EmailEvents       map[string]bool `gorm:"serializer:json;type:text"`
	UpdatedAt         time.Time
}

func (Preference) TableName() string { return "preferences" }

// EmailEnabled 该类型通知是否开启邮件投递
func (p *Preference) EmailEnabled(t NotificationType) bool {
	if p == nil || p.EmailEvents == nil {
		return false
	}
	return p.EmailEvents[string(t)]
}
