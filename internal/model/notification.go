package model

import "time"

// NotificationType 通知类型
type NotificationType string

const (
	NotificationMention         NotificationType = "mention"
	NotificationReblog          NotificationType = "reblog"
	NotificationFollow          NotificationType = "follow"
	NotificationFavourite       NotificationType = "favourite"
	NotificationFollowRequest   NotificationType = "follow_request"
	NotificationPoll            NotificationType = "poll"
	NotificationInvite          NotificationType = "invite"
	NotificationUserApproved    NotificationType = "user_approved"
	NotificationVerifySMSPrompt NotificationType = "verify_sms_prompt"
	NotificationChat            NotificationType = "chat"
	NotificationChatDeleted     NotificationType = "chat_message_deleted"

	NotificationGroupMention   NotificationType = "group_mention"
	NotificationGroupReblog    NotificationType = "group_reblog"
	NotificationGroupFavourite NotificationType = "group_favourite"
	NotificationGroupFollow    NotificationType = "group_follow"
	NotificationGroupDelete    NotificationType = "group_delete"
	NotificationGroupApproval  NotificationType = "group_approval"
	NotificationGroupRequest   NotificationType = "group_request"
	NotificationGroupPromoted  NotificationType = "group_promoted"
	NotificationGroupDemoted   NotificationType = "group_demoted"
)

// GroupNotificationTypes 可聚合的通知类型（仅对高触达账号生效）
var GroupNotificationTypes = map[NotificationType]bool{
	NotificationMention:   true,
	NotificationReblog:    true,
	NotificationFollow:    true,
	NotificationFavourite: true,
}

// Notification 通知；过闸后创建，只增不改，随目标级联删除
type Notification struct {
	ID            string           `gorm:"primaryKey;type:varchar(36)"`
	AccountID     string           `gorm:"type:varchar(36);index:idx_notification_account;not null"`
	FromAccountID string           `gorm:"type:varchar(36);not null"`
	Type          NotificationType `gorm:"type:varchar(32);not null"`
	StatusID      *string          `gorm:"type:varchar(36);index:idx_notification_status"`
	CreatedAt     time.Time        `gorm:"index:idx_notification_account"`
}

func (Notification) TableName() string { return "notifications" }

// GroupedNotification 聚合通知（高触达账号按 (type, status) 合并计数）
type GroupedNotification struct {
	ID            string           `gorm:"primaryKey;type:varchar(36)"`
	AccountID     string           `gorm:"type:varchar(36);uniqueIndex:ux_grouped_key;not null"`
	Type          NotificationType `gorm:"type:varchar(32);uniqueIndex:ux_grouped_key;not null"`
	StatusID      string           `gorm:"type:varchar(36);uniqueIndex:ux_grouped_key"` // follow 类为空串
	Count         int64            `gorm:"default:0"`
	LastAccountID string           `gorm:"type:varchar(36)"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (GroupedNotification) TableName() string { return "grouped_notifications" }
