package service

import (
	"github.com/boehs/truthsocial/internal/model"
)

// GateContext 单个候选通知的求值上下文。关系谓词在构造时一次性查好，
// 谓词链内只读字段，无须加锁，不同收件人的求值可完全并行。
type GateContext struct {
	Recipient *model.Account
	Pref      *model.Preference
	From      *model.Account
	Type      model.NotificationType
	Target    *model.Status // 可为 nil（follow 等无目标类型）

	// 关系快照（recipient 视角）
	FollowingSender        bool // 已关注或已发出关注请求
	SenderFollowsRecipient bool
	RecipientBlocksSender  bool
	SenderBlocksRecipient  bool
	MutingNotifications    bool
	DomainBlocking         bool // 屏蔽了发送方域名
	ConversationMuted      bool
	MentionFiltered        bool // 提及内容命中收件人的过滤规则

	// 私信回复豁免：target 的父级由收件人发出且父级线程为私信
	ParentAuthorIsRecipient bool
	ParentDirect            bool
}

func (c *GateContext) fromSelf() bool {
	return c.Recipient.ID == c.From.ID
}

func (c *GateContext) message() bool {
	return c.Type == model.NotificationMention
}

func (c *GateContext) fromStaff() bool {
	return c.From.Local() && c.From.Staff
}

func (c *GateContext) directMessage() bool {
	return c.message() && c.Target != nil && c.Target.DirectVisibility()
}

func (c *GateContext) hellbanned() bool {
	return c.From.Silenced && !c.FollowingSender
}

func (c *GateContext) domainBlocking() bool {
	return c.DomainBlocking && !c.FollowingSender
}

func (c *GateContext) optionalNonFollower() bool {
	return c.Pref != nil && c.Pref.MustBeFollower && !c.SenderFollowsRecipient
}

func (c *GateContext) optionalNonFollowing() bool {
	return c.Pref != nil && c.Pref.MustBeFollowing && !c.FollowingSender
}

func (c *GateContext) responseToRecipient() bool {
	return c.ParentAuthorIsRecipient && c.ParentDirect
}

func (c *GateContext) optionalNonFollowingAndDirect() bool {
	return c.directMessage() &&
		c.Pref != nil && c.Pref.MustBeFollowingDM &&
		!c.FollowingSender &&
		!c.responseToRecipient()
}

// typeBlocked 类型相关过滤表。未列出的类型一律放行：新类型出现时
// 宁可多发也不能被静默吞掉，审核规则之后挂接到这里。
func (c *GateContext) typeBlocked() bool {
	switch c.Type {
	case model.NotificationMention, model.NotificationGroupMention:
		return c.MentionFiltered
	default:
		return false
	}
}

// Suppressed 谓词链，顺序即优先级，命中即返回
func (c *GateContext) Suppressed() bool {
	switch c.Type {
	case model.NotificationInvite, model.NotificationUserApproved, model.NotificationVerifySMSPrompt:
		return false // 永不拦截
	}

	blocked := c.Recipient.Suspended
	blocked = blocked || (c.fromSelf() && c.Type != model.NotificationPoll)

	// 员工提及只受封禁/自发两条约束
	if c.message() && c.fromStaff() {
		return blocked
	}

	blocked = blocked || c.domainBlocking()
	blocked = blocked || c.RecipientBlocksSender
	blocked = blocked || c.SenderBlocksRecipient
	blocked = blocked || c.MutingNotifications
	blocked = blocked || c.hellbanned()
	blocked = blocked || c.optionalNonFollower()
	blocked = blocked || c.optionalNonFollowing()
	blocked = blocked || c.optionalNonFollowingAndDirect()
	blocked = blocked || (c.Target != nil && c.ConversationMuted)
	blocked = blocked || c.typeBlocked()
	return blocked
}
