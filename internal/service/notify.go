package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/boehs/truthsocial/internal/mailer"
	"github.com/boehs/truthsocial/internal/model"
	"github.com/boehs/truthsocial/internal/repository"
	"github.com/boehs/truthsocial/internal/streaming"
	"github.com/boehs/truthsocial/pkg/logger"
)

// Activity 触发通知的活动
type Activity struct {
	FromAccountID string
	StatusID      *string
}

// NotifyService 通知调度：建候选 → 过闸 → {拦截 | 聚合 | 落库+推送+会话+延迟邮件}。
// 通知投递永远不反噬状态发布：落库校验失败只记日志。
type NotifyService struct {
	accountRepo repository.AccountRepository
	statusRepo  repository.StatusRepository
	followRepo  repository.FollowRepository
	relRepo     repository.RelationshipRepository
	notifRepo   repository.NotificationRepository
	convRepo    repository.ConversationRepository

	aggregator GroupAggregator
	livePush   streaming.LivePusher
	mail       mailer.Mailer
	queue      JobQueue

	whaleThreshold int64
	emailDelay     time.Duration
}

func NewNotifyService(
	accountRepo repository.AccountRepository,
	statusRepo repository.StatusRepository,
	followRepo repository.FollowRepository,
	relRepo repository.RelationshipRepository,
	notifRepo repository.NotificationRepository,
	convRepo repository.ConversationRepository,
	aggregator GroupAggregator,
	livePush streaming.LivePusher,
	mail mailer.Mailer,
	queue JobQueue,
	whaleThreshold int64,
	emailDelay time.Duration,
) *NotifyService {
	if whaleThreshold <= 0 {
		whaleThreshold = 100000
	}
	if emailDelay <= 0 {
		emailDelay = 2 * time.Minute
	}
	return &NotifyService{
		accountRepo: accountRepo, statusRepo: statusRepo, followRepo: followRepo,
		relRepo: relRepo, notifRepo: notifRepo, convRepo: convRepo,
		aggregator: aggregator, livePush: livePush, mail: mail, queue: queue,
		whaleThreshold: whaleThreshold, emailDelay: emailDelay,
	}
}

// Call 为单个收件人评估并投递一条候选通知
func (s *NotifyService) Call(ctx context.Context, recipientID string, typ model.NotificationType, activity Activity) error {
	recipient, err := s.accountRepo.Get(ctx, recipientID)
	if err != nil {
		return err
	}
	// 远端账号没有本地用户，无通知可言
	if !recipient.Local() {
		return nil
	}
	from, err := s.accountRepo.Get(ctx, activity.FromAccountID)
	if err != nil {
		return err
	}

	var target *model.Status
	if activity.StatusID != nil {
		target, err = s.statusRepo.Get(ctx, *activity.StatusID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// 目标已删，与投递竞态，静默结束
			logger.Debug("notify target vanished", zap.String("status", *activity.StatusID))
			return nil
		}
		if err != nil {
			return err
		}
	}

	gc, err := s.buildGateContext(ctx, recipient, from, typ, target)
	if err != nil {
		return err
	}
	if gc.Suppressed() {
		logger.Debug("notification suppressed",
			zap.String("recipient", recipient.ID),
			zap.String("type", string(typ)))
		return nil
	}

	if grouped, done := s.maybeGroup(ctx, recipient, from, typ, target); grouped || done {
		return nil
	}

	n := &model.Notification{
		AccountID:     recipient.ID,
		FromAccountID: from.ID,
		Type:          typ,
		StatusID:      activity.StatusID,
	}
	if err := s.notifRepo.Create(ctx, n); err != nil {
		// 落库失败不重试也不上抛，状态发布不受任何影响
		logger.Error("notification persist failed",
			zap.String("recipient", recipient.ID),
			zap.String("type", string(typ)),
			zap.Error(err))
		return nil
	}

	if s.livePush != nil {
		if err := s.livePush.Push(ctx, n); err != nil {
			logger.Warn("live push failed", zap.String("notification", n.ID), zap.Error(err))
		}
	}

	if gc.directMessage() {
		if err := s.convRepo.Add(ctx, recipient.ID, target); err != nil {
			logger.Warn("conversation linkage failed", zap.String("notification", n.ID), zap.Error(err))
		}
	}

	if gc.Pref.EmailEnabled(typ) && typ != model.NotificationVerifySMSPrompt {
		_ = s.queue.EnqueueIn(s.emailDelay, JobEmail, EmailArgs{NotificationID: n.ID, RecipientID: recipient.ID})
	}
	return nil
}

// maybeGroup 聚合判定。返回 (已转聚合, 已终结)。
// mention 仅对回复聚合，且必须解析出属于收件人的线程根；解析失败时整条丢弃
// （高触达账号取降噪弃完整）。follow 无目标 status。
func (s *NotifyService) maybeGroup(ctx context.Context, recipient, from *model.Account, typ model.NotificationType, target *model.Status) (bool, bool) {
	if !model.GroupNotificationTypes[typ] || recipient.FollowersCount < s.whaleThreshold {
		return false, false
	}

	var groupTarget *string
	switch typ {
	case model.NotificationMention:
		if target == nil || !target.Reply() {
			return false, false // 非回复的提及不聚合，照常单发
		}
		root, ok := s.resolveWhaleThread(ctx, recipient, target)
		if !ok {
			logger.Debug("grouping target unresolved, dropping notification",
				zap.String("recipient", recipient.ID))
			return false, true
		}
		groupTarget = &root.ID
	case model.NotificationFollow:
		groupTarget = nil
	default:
		if target != nil {
			groupTarget = &target.ID
		}
	}

	ok, err := s.aggregator.Aggregate(ctx, recipient.ID, from.ID, typ, groupTarget)
	if err != nil || !ok {
		// 聚合失败整条丢弃，不降级为普通通知
		logger.Debug("group aggregation declined, dropping notification",
			zap.String("recipient", recipient.ID), zap.Error(err))
		return false, true
	}
	return true, false
}

// resolveWhaleThread 沿回复链找属于收件人的线程根：
// 先看直接父级，父级不符则取会话里最早的一条；都不属于收件人则解析失败
func (s *NotifyService) resolveWhaleThread(ctx context.Context, recipient *model.Account, target *model.Status) (*model.Status, bool) {
	if target.InReplyToID != nil {
		parent, err := s.statusRepo.Get(ctx, *target.InReplyToID)
		if err == nil && parent.AccountID == recipient.ID && !parent.Reply() {
			return parent, true
		}
	}
	root, err := s.statusRepo.EarliestInConversation(ctx, target.ConversationID)
	if err != nil {
		return nil, false
	}
	if root.AccountID == recipient.ID {
		return root, true
	}
	return nil, false
}

// buildGateContext 一次性查好全部关系谓词（§9 的显式 memo 字段）
func (s *NotifyService) buildGateContext(ctx context.Context, recipient, from *model.Account, typ model.NotificationType, target *model.Status) (*GateContext, error) {
	gc := &GateContext{Recipient: recipient, From: from, Type: typ, Target: target}

	pref, err := s.accountRepo.GetPreference(ctx, recipient.ID)
	if err != nil {
		return nil, err
	}
	gc.Pref = pref

	following, err := s.followRepo.Exists(ctx, recipient.ID, from.ID)
	if err != nil {
		return nil, err
	}
	if !following {
		requested, err := s.followRepo.RequestExists(ctx, recipient.ID, from.ID)
		if err != nil {
			return nil, err
		}
		gc.FollowingSender = requested
	} else {
		gc.FollowingSender = true
	}

	if gc.SenderFollowsRecipient, err = s.followRepo.Exists(ctx, from.ID, recipient.ID); err != nil {
		return nil, err
	}
	if gc.RecipientBlocksSender, err = s.relRepo.Blocking(ctx, recipient.ID, from.ID); err != nil {
		return nil, err
	}
	if gc.SenderBlocksRecipient, err = s.relRepo.Blocking(ctx, from.ID, recipient.ID); err != nil {
		return nil, err
	}
	if gc.MutingNotifications, err = s.relRepo.MutingNotifications(ctx, recipient.ID, from.ID); err != nil {
		return nil, err
	}
	if gc.DomainBlocking, err = s.relRepo.DomainBlocking(ctx, recipient.ID, from.Domain); err != nil {
		return nil, err
	}

	if target != nil {
		if gc.ConversationMuted, err = s.relRepo.MutingConversation(ctx, recipient.ID, target.ConversationID); err != nil {
			return nil, err
		}
		if target.InReplyToID != nil {
			parent, err := s.statusRepo.Get(ctx, *target.InReplyToID)
			if err == nil {
				gc.ParentAuthorIsRecipient = parent.AccountID == recipient.ID
				gc.ParentDirect = parent.DirectVisibility()
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, err
			}
		}
		if typ == model.NotificationMention || typ == model.NotificationGroupMention {
			if gc.MentionFiltered, err = s.mentionFiltered(ctx, recipient, target); err != nil {
				return nil, err
			}
		}
	}
	return gc, nil
}

// mentionFiltered 提及过滤：同条 status 上的其他被提及账号被收件人拉黑或
// 域名屏蔽，或该 status 回复了这样的账号
func (s *NotifyService) mentionFiltered(ctx context.Context, recipient *model.Account, target *model.Status) (bool, error) {
	if target.InReplyToAccountID != nil && *target.InReplyToAccountID != recipient.ID {
		filtered, err := s.filtersAccount(ctx, recipient, *target.InReplyToAccountID)
		if err != nil || filtered {
			return filtered, err
		}
	}
	mentioned, err := s.statusRepo.MentionedAccountIDs(ctx, target.ID)
	if err != nil {
		return false, err
	}
	for _, id := range mentioned {
		if id == recipient.ID || id == target.AccountID {
			continue
		}
		filtered, err := s.filtersAccount(ctx, recipient, id)
		if err != nil || filtered {
			return filtered, err
		}
	}
	return false, nil
}

// filtersAccount 收件人拉黑了该账号，或屏蔽了其所在域名
func (s *NotifyService) filtersAccount(ctx context.Context, recipient *model.Account, accountID string) (bool, error) {
	blocked, err := s.relRepo.Blocking(ctx, recipient.ID, accountID)
	if err != nil || blocked {
		return blocked, err
	}
	acct, err := s.accountRepo.Get(ctx, accountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	if acct.Local() {
		return false, nil
	}
	return s.relRepo.DomainBlocking(ctx, recipient.ID, acct.Domain)
}

// HandleEmail notification_email 任务：延迟后发信；通知已被级联删除则视为成功
func (s *NotifyService) HandleEmail(ctx context.Context, args any) error {
	a, ok := args.(EmailArgs)
	if !ok {
		return errors.New("notification_email: bad args")
	}
	n, err := s.notifRepo.Get(ctx, a.NotificationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	recipient, err := s.accountRepo.Get(ctx, a.RecipientID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	if recipient.Email == "" {
		return nil
	}
	return s.mail.Deliver(ctx, n, recipient.Email)
}
