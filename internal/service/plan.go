package service

import (
	"errors"

	"github.com/boehs/truthsocial/internal/model"
)

// ErrRaceCondition 扇出开始时 visibility 仍未落库：发布早于实体提交完成。
// 对整次扇出是致命错误，任何 sink 都不得被触达。
var ErrRaceCondition = errors.New("status visibility unset at fan-out time")

// DeliveryPlan 一次扇出的目标集合
type DeliveryPlan struct {
	Self               bool // 作者自己的 home feed（仅本地作者）
	WhaleBroadcast     bool // 走异步广播，不做常规 feed/list 投递
	MentionedFollowers bool // 被提及且关注作者的账号 home feed
	OwnConversation    bool // 作者自己的会话入口
	Followers          bool // 全部本地粉丝 home feed
	Lists              bool // 收录作者的本地分发列表
}

// PlanDelivery 可见性分类器。纯函数：status + 作者快照 → 投递计划。
// 分支顺序与优先级固定，whale 路径整体取代常规投递。
func PlanDelivery(status *model.Status, author *model.Account, whale bool) (DeliveryPlan, error) {
	if status.Visibility == "" {
		return DeliveryPlan{}, ErrRaceCondition
	}

	var plan DeliveryPlan
	plan.Self = author.Local()

	switch {
	case whale:
		plan.WhaleBroadcast = true
	case status.DirectVisibility():
		plan.MentionedFollowers = true
		plan.OwnConversation = true
	case status.LimitedVisibility():
		plan.MentionedFollowers = true
	default:
		plan.Followers = true
		plan.Lists = true
	}
	return plan, nil
}

// WantsHashtagBroadcast 话题频道广播独立于主计划：公开、非转发、作者未被禁声。
func WantsHashtagBroadcast(status *model.Status, author *model.Account) bool {
	return status.PublicVisibility() && !status.Reblog() && !author.Silenced
}
