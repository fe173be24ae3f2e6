package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/boehs/truthsocial/internal/model"
)

func baseGateContext(typ model.NotificationType) *GateContext {
	return &GateContext{
		Recipient: &model.Account{ID: "recipient"},
		Pref:      &model.Preference{AccountID: "recipient"},
		From:      &model.Account{ID: "sender"},
		Type:      typ,
	}
}

func TestGate_PassThroughTypes(t *testing.T) {
	for _, typ := range []model.NotificationType{
		model.NotificationInvite,
		model.NotificationUserApproved,
		model.NotificationVerifySMSPrompt,
	} {
		t.Run(string(typ), func(t *testing.T) {
			gc := baseGateContext(typ)
			// 即便其它所有条件都命中也放行
			gc.Recipient.Suspended = true
			gc.RecipientBlocksSender = true
			gc.SenderBlocksRecipient = true
			gc.MutingNotifications = true
			gc.From.Silenced = true
			assert.False(t, gc.Suppressed())
		})
	}
}

func TestGate_SuspendedRecipient(t *testing.T) {
	gc := baseGateContext(model.NotificationMention)
	gc.Recipient.Suspended = true
	assert.True(t, gc.Suppressed())
}

func TestGate_SelfNotification(t *testing.T) {
	self := &model.Account{ID: "self"}

	fav := baseGateContext(model.NotificationFavourite)
	fav.Recipient = self
	fav.From = self
	assert.True(t, fav.Suppressed())

	poll := baseGateContext(model.NotificationPoll)
	poll.Recipient = self
	poll.From = self
	assert.False(t, poll.Suppressed())
}

func TestGate_StaffMentionBypass(t *testing.T) {
	gc := baseGateContext(model.NotificationMention)
	gc.From.Staff = true // 本地员工
	gc.RecipientBlocksSender = true
	gc.MutingNotifications = true
	gc.DomainBlocking = true
	assert.False(t, gc.Suppressed())

	// 员工提及不豁免封禁
	gc.Recipient.Suspended = true
	assert.True(t, gc.Suppressed())

	// 远端账号没有员工身份
	remote := baseGateContext(model.NotificationMention)
	remote.From.Staff = true
	remote.From.Domain = "other.example"
	remote.RecipientBlocksSender = true
	assert.True(t, remote.Suppressed())

	// 员工身份对非提及类型不生效
	fav := baseGateContext(model.NotificationFavourite)
	fav.From.Staff = true
	fav.RecipientBlocksSender = true
	assert.True(t, fav.Suppressed())
}

func TestGate_DomainBlocking(t *testing.T) {
	gc := baseGateContext(model.NotificationFavourite)
	gc.DomainBlocking = true
	assert.True(t, gc.Suppressed())

	// 已关注发送方则豁免
	gc.FollowingSender = true
	assert.False(t, gc.Suppressed())
}

func TestGate_Blocks(t *testing.T) {
	gc := baseGateContext(model.NotificationMention)
	gc.RecipientBlocksSender = true
	assert.True(t, gc.Suppressed())

	gc = baseGateContext(model.NotificationMention)
	gc.SenderBlocksRecipient = true
	assert.True(t, gc.Suppressed())
}

func TestGate_MutingNotifications(t *testing.T) {
	gc := baseGateContext(model.NotificationReblog)
	gc.MutingNotifications = true
	assert.True(t, gc.Suppressed())
}

func TestGate_Hellban(t *testing.T) {
	gc := baseGateContext(model.NotificationFavourite)
	gc.From.Silenced = true
	assert.True(t, gc.Suppressed())

	// 关注（含关注请求）豁免禁声
	gc.FollowingSender = true
	assert.False(t, gc.Suppressed())
}

func TestGate_MustBeFollower(t *testing.T) {
	gc := baseGateContext(model.NotificationMention)
	gc.Pref.MustBeFollower = true
	assert.True(t, gc.Suppressed())

	gc.SenderFollowsRecipient = true
	assert.False(t, gc.Suppressed())
}

func TestGate_MustBeFollowing(t *testing.T) {
	gc := baseGateContext(model.NotificationMention)
	gc.Pref.MustBeFollowing = true
	assert.True(t, gc.Suppressed())

	gc.FollowingSender = true
	assert.False(t, gc.Suppressed())
}

func TestGate_MustBeFollowingDM(t *testing.T) {
	direct := &model.Status{ID: "dm", Visibility: model.VisibilityDirect}

	gc := baseGateContext(model.NotificationMention)
	gc.Target = direct
	gc.Pref.MustBeFollowingDM = true
	assert.True(t, gc.Suppressed())

	// 收件人是该线程上一条的作者且线程为私信时豁免
	gc.ParentAuthorIsRecipient = true
	gc.ParentDirect = true
	assert.False(t, gc.Suppressed())

	// 父级非私信不豁免
	gc.ParentDirect = false
	assert.True(t, gc.Suppressed())

	// 选项只作用于私信提及
	pub := baseGateContext(model.NotificationMention)
	pub.Target = &model.Status{ID: "s", Visibility: model.VisibilityPublic}
	pub.Pref.MustBeFollowingDM = true
	assert.False(t, pub.Suppressed())
}

func TestGate_ConversationMuted(t *testing.T) {
	gc := baseGateContext(model.NotificationMention)
	gc.Target = &model.Status{ID: "s", Visibility: model.VisibilityPublic, ConversationID: "c1"}
	gc.ConversationMuted = true
	assert.True(t, gc.Suppressed())

	// 无目标 status 时会话静音不参与
	gc.Target = nil
	assert.False(t, gc.Suppressed())
}

func TestGate_TypeSpecific(t *testing.T) {
	for _, typ := range []model.NotificationType{model.NotificationMention, model.NotificationGroupMention} {
		gc := baseGateContext(typ)
		gc.Target = &model.Status{ID: "s", Visibility: model.VisibilityPublic}
		gc.MentionFiltered = true
		assert.True(t, gc.Suppressed(), string(typ))
	}

	// 其它类型不受提及过滤影响
	gc := baseGateContext(model.NotificationReblog)
	gc.MentionFiltered = true
	assert.False(t, gc.Suppressed())
}

func TestGate_UnknownTypeDefaultsToPass(t *testing.T) {
	gc := baseGateContext(model.NotificationType("sparkle"))
	assert.False(t, gc.Suppressed())
}

func TestGate_CleanCandidatePasses(t *testing.T) {
	for _, typ := range []model.NotificationType{
		model.NotificationMention,
		model.NotificationReblog,
		model.NotificationFollow,
		model.NotificationFavourite,
		model.NotificationFollowRequest,
		model.NotificationChat,
		model.NotificationGroupReblog,
	} {
		assert.False(t, baseGateContext(typ).Suppressed(), string(typ))
	}
}
