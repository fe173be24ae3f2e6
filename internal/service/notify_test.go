package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/boehs/truthsocial/internal/model"
	"github.com/boehs/truthsocial/internal/repository"
)

type sentMail struct {
	notification *model.Notification
	email        string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (m *fakeMailer) Deliver(_ context.Context, n *model.Notification, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{notification: n, email: email})
	return nil
}

type notifyFixture struct {
	db     *gorm.DB
	queue  *fakeQueue
	live   *fakeLivePusher
	mail   *fakeMailer
	agg    *fakeAggregator
	notify *NotifyService
}

func newNotifyFixture(t *testing.T, whaleThreshold int64) *notifyFixture {
	t.Helper()
	db := setupServiceDB(t)
	q := &fakeQueue{}
	live := &fakeLivePusher{}
	mail := &fakeMailer{}
	agg := &fakeAggregator{ok: true}
	n := NewNotifyService(
		repository.NewAccountRepository(db),
		repository.NewStatusRepository(db),
		repository.NewFollowRepository(db),
		repository.NewRelationshipRepository(db),
		repository.NewNotificationRepository(db),
		repository.NewConversationRepository(db),
		agg, live, mail, q,
		whaleThreshold, 2*time.Minute,
	)
	return &notifyFixture{db: db, queue: q, live: live, mail: mail, agg: agg, notify: n}
}

func (fx *notifyFixture) notifications(t *testing.T, accountID string) []model.Notification {
	t.Helper()
	var rows []model.Notification
	require.NoError(t, fx.db.Where("account_id = ?", accountID).Find(&rows).Error)
	return rows
}

func seedPreference(t *testing.T, db *gorm.DB, accountID string, mutate ...func(*model.Preference)) {
	t.Helper()
	p := &model.Preference{AccountID: accountID}
	for _, m := range mutate {
		m(p)
	}
	require.NoError(t, db.Create(p).Error)
}

func TestNotify_RemoteRecipientIsNoop(t *testing.T) {
	fx := newNotifyFixture(t, 100000)
	recipient := seedAccount(t, fx.db, "bob", "other.example")
	seedAccount(t, fx.db, "alice", "")

	err := fx.notify.Call(context.Background(), recipient.ID, model.NotificationFollow, Activity{FromAccountID: "alice"})
	require.NoError(t, err)
	assert.Empty(t, fx.notifications(t, recipient.ID))
	assert.Empty(t, fx.live.pushed)
}

func TestNotify_VanishedTargetIsNoop(t *testing.T) {
	fx := newNotifyFixture(t, 100000)
	recipient := seedAccount(t, fx.db, "bob", "")
	seedAccount(t, fx.db, "alice", "")
	gone := "deleted-status"

	err := fx.notify.Call(context.Background(), recipient.ID, model.NotificationMention, Activity{FromAccountID: "alice", StatusID: &gone})
	require.NoError(t, err)
	assert.Empty(t, fx.notifications(t, recipient.ID))
}

func TestNotify_BlockedSenderLeavesNoTrace(t *testing.T) {
	fx := newNotifyFixture(t, 100000)
	recipient := seedAccount(t, fx.db, "bob", "")
	sender := seedAccount(t, fx.db, "alice", "")
	seedPreference(t, fx.db, recipient.ID, func(p *model.Preference) {
		p.EmailEvents = map[string]bool{"mention": true}
	})
	require.NoError(t, fx.db.Create(&model.Block{ID: "b1", AccountID: recipient.ID, TargetAccountID: sender.ID}).Error)

	status := seedStatus(t, fx.db, &model.Status{AccountID: sender.ID, Visibility: model.VisibilityPublic, Local: true})
	seedMention(t, fx.db, status.ID, recipient.ID)

	err := fx.notify.Call(context.Background(), recipient.ID, model.NotificationMention, Activity{FromAccountID: sender.ID, StatusID: &status.ID})
	require.NoError(t, err)

	assert.Empty(t, fx.notifications(t, recipient.ID))
	assert.Empty(t, fx.live.pushed)
	assert.Empty(t, fx.queue.byName(JobEmail))
}

func TestNotify_CleanMentionPersistsPushesAndSchedulesEmail(t *testing.T) {
	fx := newNotifyFixture(t, 100000)
	recipient := seedAccount(t, fx.db, "bob", "")
	sender := seedAccount(t, fx.db, "alice", "")
	seedPreference(t, fx.db, recipient.ID, func(p *model.Preference) {
		p.EmailEvents = map[string]bool{"mention": true}
	})
	status := seedStatus(t, fx.db, &model.Status{AccountID: sender.ID, Visibility: model.VisibilityPublic, Local: true})
	seedMention(t, fx.db, status.ID, recipient.ID)

	err := fx.notify.Call(context.Background(), recipient.ID, model.NotificationMention, Activity{FromAccountID: sender.ID, StatusID: &status.ID})
	require.NoError(t, err)

	rows := fx.notifications(t, recipient.ID)
	require.Len(t, rows, 1)
	assert.Equal(t, model.NotificationMention, rows[0].Type)
	assert.Equal(t, sender.ID, rows[0].FromAccountID)
	require.NotNil(t, rows[0].StatusID)
	assert.Equal(t, status.ID, *rows[0].StatusID)

	require.Len(t, fx.live.pushed, 1)
	assert.Equal(t, rows[0].ID, fx.live.pushed[0].ID)

	emails := fx.queue.byName(JobEmail)
	require.Len(t, emails, 1)
	assert.Equal(t, 2*time.Minute, emails[0].delay)
	args := emails[0].args.(EmailArgs)
	assert.Equal(t, rows[0].ID, args.NotificationID)
	assert.Equal(t, recipient.ID, args.RecipientID)
}

func TestNotify_EmailDisabledByDefault(t *testing.T) {
	fx := newNotifyFixture(t, 100000)
	recipient := seedAccount(t, fx.db, "bob", "")
	seedAccount(t, fx.db, "alice", "")

	err := fx.notify.Call(context.Background(), recipient.ID, model.NotificationFollow, Activity{FromAccountID: "alice"})
	require.NoError(t, err)
	require.Len(t, fx.notifications(t, recipient.ID), 1)
	assert.Empty(t, fx.queue.byName(JobEmail))
}

func TestNotify_VerifySMSPromptNeverMailed(t *testing.T) {
	fx := newNotifyFixture(t, 100000)
	recipient := seedAccount(t, fx.db, "bob", "")
	sender := seedAccount(t, fx.db, "system", "")
	seedPreference(t, fx.db, recipient.ID, func(p *model.Preference) {
		p.EmailEvents = map[string]bool{"verify_sms_prompt": true}
	})
	// 穿透类型无视拉黑
	require.NoError(t, fx.db.Create(&model.Block{ID: "b1", AccountID: recipient.ID, TargetAccountID: sender.ID}).Error)

	err := fx.notify.Call(context.Background(), recipient.ID, model.NotificationVerifySMSPrompt, Activity{FromAccountID: sender.ID})
	require.NoError(t, err)
	require.Len(t, fx.notifications(t, recipient.ID), 1)
	assert.Empty(t, fx.queue.byName(JobEmail))
}

func TestNotify_SelfPollPassesSelfFavouriteDoesNot(t *testing.T) {
	fx := newNotifyFixture(t, 100000)
	self := seedAccount(t, fx.db, "bob", "")
	status := seedStatus(t, fx.db, &model.Status{AccountID: self.ID, Visibility: model.VisibilityPublic, Local: true})

	require.NoError(t, fx.notify.Call(context.Background(), self.ID, model.NotificationFavourite, Activity{FromAccountID: self.ID, StatusID: &status.ID}))
	assert.Empty(t, fx.notifications(t, self.ID))

	require.NoError(t, fx.notify.Call(context.Background(), self.ID, model.NotificationPoll, Activity{FromAccountID: self.ID, StatusID: &status.ID}))
	assert.Len(t, fx.notifications(t, self.ID), 1)
}

func TestNotify_DirectMentionLinksConversation(t *testing.T) {
	fx := newNotifyFixture(t, 100000)
	recipient := seedAccount(t, fx.db, "bob", "")
	sender := seedAccount(t, fx.db, "alice", "")
	status := seedStatus(t, fx.db, &model.Status{AccountID: sender.ID, Visibility: model.VisibilityDirect, Local: true})
	seedMention(t, fx.db, status.ID, recipient.ID)

	err := fx.notify.Call(context.Background(), recipient.ID, model.NotificationMention, Activity{FromAccountID: sender.ID, StatusID: &status.ID})
	require.NoError(t, err)

	var conv model.AccountConversation
	require.NoError(t, fx.db.Where("account_id = ?", recipient.ID).First(&conv).Error)
	assert.Equal(t, status.ConversationID, conv.ConversationID)
	assert.True(t, conv.Unread)
}

func TestNotify_WhaleFavouriteAggregates(t *testing.T) {
	fx := newNotifyFixture(t, 100)
	whale := seedAccount(t, fx.db, "whale", "", func(a *model.Account) { a.FollowersCount = 500 })
	fan := seedAccount(t, fx.db, "fan", "")
	status := seedStatus(t, fx.db, &model.Status{AccountID: whale.ID, Visibility: model.VisibilityPublic, Local: true})

	err := fx.notify.Call(context.Background(), whale.ID, model.NotificationFavourite, Activity{FromAccountID: fan.ID, StatusID: &status.ID})
	require.NoError(t, err)

	require.Len(t, fx.agg.calls, 1)
	assert.Equal(t, whale.ID, fx.agg.calls[0].recipientID)
	assert.Equal(t, fan.ID, fx.agg.calls[0].fromID)
	require.NotNil(t, fx.agg.calls[0].statusID)
	assert.Equal(t, status.ID, *fx.agg.calls[0].statusID)
	// 聚合取代单条通知
	assert.Empty(t, fx.notifications(t, whale.ID))
	assert.Empty(t, fx.live.pushed)
}

func TestNotify_WhaleTopLevelMentionStaysDiscrete(t *testing.T) {
	fx := newNotifyFixture(t, 100)
	whale := seedAccount(t, fx.db, "whale", "", func(a *model.Account) { a.FollowersCount = 500 })
	fan := seedAccount(t, fx.db, "fan", "")
	status := seedStatus(t, fx.db, &model.Status{AccountID: fan.ID, Visibility: model.VisibilityPublic, Local: true})
	seedMention(t, fx.db, status.ID, whale.ID)

	err := fx.notify.Call(context.Background(), whale.ID, model.NotificationMention, Activity{FromAccountID: fan.ID, StatusID: &status.ID})
	require.NoError(t, err)
	assert.Empty(t, fx.agg.calls)
	assert.Len(t, fx.notifications(t, whale.ID), 1)
}

func TestNotify_WhaleReplyMentionGroupsOnThreadRoot(t *testing.T) {
	fx := newNotifyFixture(t, 100)
	whale := seedAccount(t, fx.db, "whale", "", func(a *model.Account) { a.FollowersCount = 500 })
	fan := seedAccount(t, fx.db, "fan", "")

	root := seedStatus(t, fx.db, &model.Status{AccountID: whale.ID, Visibility: model.VisibilityPublic, Local: true})
	reply := seedStatus(t, fx.db, &model.Status{
		AccountID:      fan.ID,
		Visibility:     model.VisibilityPublic,
		Local:          true,
		InReplyToID:    &root.ID,
		ConversationID: root.ConversationID,
	})
	seedMention(t, fx.db, reply.ID, whale.ID)

	err := fx.notify.Call(context.Background(), whale.ID, model.NotificationMention, Activity{FromAccountID: fan.ID, StatusID: &reply.ID})
	require.NoError(t, err)

	require.Len(t, fx.agg.calls, 1)
	require.NotNil(t, fx.agg.calls[0].statusID)
	assert.Equal(t, root.ID, *fx.agg.calls[0].statusID)
	assert.Empty(t, fx.notifications(t, whale.ID))
}

func TestNotify_WhaleReplyMentionUnresolvedRootIsDropped(t *testing.T) {
	fx := newNotifyFixture(t, 100)
	whale := seedAccount(t, fx.db, "whale", "", func(a *model.Account) { a.FollowersCount = 500 })
	fan := seedAccount(t, fx.db, "fan", "")
	other := seedAccount(t, fx.db, "other", "")

	// 整条会话不含鲸鱼发的根帖
	root := seedStatus(t, fx.db, &model.Status{AccountID: other.ID, Visibility: model.VisibilityPublic, Local: true, CreatedAt: time.Now().Add(-time.Hour)})
	reply := seedStatus(t, fx.db, &model.Status{
		AccountID:      fan.ID,
		Visibility:     model.VisibilityPublic,
		Local:          true,
		InReplyToID:    &root.ID,
		ConversationID: root.ConversationID,
	})
	seedMention(t, fx.db, reply.ID, whale.ID)

	err := fx.notify.Call(context.Background(), whale.ID, model.NotificationMention, Activity{FromAccountID: fan.ID, StatusID: &reply.ID})
	require.NoError(t, err)

	assert.Empty(t, fx.agg.calls)
	assert.Empty(t, fx.notifications(t, whale.ID))
	assert.Empty(t, fx.live.pushed)
}

func TestNotify_AggregationDeclinedDropsEntirely(t *testing.T) {
	fx := newNotifyFixture(t, 100)
	fx.agg.ok = false
	whale := seedAccount(t, fx.db, "whale", "", func(a *model.Account) { a.FollowersCount = 500 })
	fan := seedAccount(t, fx.db, "fan", "")

	err := fx.notify.Call(context.Background(), whale.ID, model.NotificationFollow, Activity{FromAccountID: fan.ID})
	require.NoError(t, err)
	require.Len(t, fx.agg.calls, 1)
	assert.Nil(t, fx.agg.calls[0].statusID)
	// 不降级为普通通知
	assert.Empty(t, fx.notifications(t, whale.ID))
}

func TestNotify_MentionFilteredByCoMentionedBlock(t *testing.T) {
	fx := newNotifyFixture(t, 100000)
	recipient := seedAccount(t, fx.db, "bob", "")
	sender := seedAccount(t, fx.db, "alice", "")
	enemy := seedAccount(t, fx.db, "enemy", "")
	require.NoError(t, fx.db.Create(&model.Block{ID: "b1", AccountID: recipient.ID, TargetAccountID: enemy.ID}).Error)

	status := seedStatus(t, fx.db, &model.Status{AccountID: sender.ID, Visibility: model.VisibilityPublic, Local: true})
	seedMention(t, fx.db, status.ID, recipient.ID)
	seedMention(t, fx.db, status.ID, enemy.ID)

	err := fx.notify.Call(context.Background(), recipient.ID, model.NotificationMention, Activity{FromAccountID: sender.ID, StatusID: &status.ID})
	require.NoError(t, err)
	assert.Empty(t, fx.notifications(t, recipient.ID))
}

func TestNotify_MentionFilteredByCoMentionedDomainBlock(t *testing.T) {
	fx := newNotifyFixture(t, 100000)
	recipient := seedAccount(t, fx.db, "bob", "")
	sender := seedAccount(t, fx.db, "alice", "")
	enemy := seedAccount(t, fx.db, "enemy", "evil.example")
	require.NoError(t, fx.db.Create(&model.DomainBlock{ID: "d1", AccountID: recipient.ID, Domain: "evil.example"}).Error)

	status := seedStatus(t, fx.db, &model.Status{AccountID: sender.ID, Visibility: model.VisibilityPublic, Local: true})
	seedMention(t, fx.db, status.ID, recipient.ID)
	seedMention(t, fx.db, status.ID, enemy.ID)

	err := fx.notify.Call(context.Background(), recipient.ID, model.NotificationMention, Activity{FromAccountID: sender.ID, StatusID: &status.ID})
	require.NoError(t, err)
	assert.Empty(t, fx.notifications(t, recipient.ID))
}

func TestNotify_MentionFilteredByDomainBlockedReplyTarget(t *testing.T) {
	fx := newNotifyFixture(t, 100000)
	recipient := seedAccount(t, fx.db, "bob", "")
	sender := seedAccount(t, fx.db, "alice", "")
	enemy := seedAccount(t, fx.db, "enemy", "evil.example")
	require.NoError(t, fx.db.Create(&model.DomainBlock{ID: "d1", AccountID: recipient.ID, Domain: "evil.example"}).Error)

	parent := seedStatus(t, fx.db, &model.Status{AccountID: enemy.ID, Visibility: model.VisibilityPublic})
	reply := seedStatus(t, fx.db, &model.Status{
		AccountID:          sender.ID,
		Visibility:         model.VisibilityPublic,
		Local:              true,
		InReplyToID:        &parent.ID,
		InReplyToAccountID: &enemy.ID,
		ConversationID:     parent.ConversationID,
	})
	seedMention(t, fx.db, reply.ID, recipient.ID)

	err := fx.notify.Call(context.Background(), recipient.ID, model.NotificationMention, Activity{FromAccountID: sender.ID, StatusID: &reply.ID})
	require.NoError(t, err)
	assert.Empty(t, fx.notifications(t, recipient.ID))
}

func TestHandleEmail(t *testing.T) {
	fx := newNotifyFixture(t, 100000)
	recipient := seedAccount(t, fx.db, "bob", "")
	sender := seedAccount(t, fx.db, "alice", "")

	n := &model.Notification{AccountID: recipient.ID, FromAccountID: sender.ID, Type: model.NotificationFollow}
	require.NoError(t, repository.NewNotificationRepository(fx.db).Create(context.Background(), n))

	require.NoError(t, fx.notify.HandleEmail(context.Background(), EmailArgs{NotificationID: n.ID, RecipientID: recipient.ID}))
	require.Len(t, fx.mail.sent, 1)
	assert.Equal(t, n.ID, fx.mail.sent[0].notification.ID)
	assert.Equal(t, "bob@example.com", fx.mail.sent[0].email)

	// 通知已删则静默成功
	require.NoError(t, fx.notify.HandleEmail(context.Background(), EmailArgs{NotificationID: "gone", RecipientID: recipient.ID}))
	assert.Len(t, fx.mail.sent, 1)
}

func TestGroupNotificationsService_Aggregate(t *testing.T) {
	db := setupServiceDB(t)
	svc := NewGroupNotificationsService(db)
	sid := "s1"

	ok, err := svc.Aggregate(context.Background(), "whale", "fan1", model.NotificationFavourite, &sid)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = svc.Aggregate(context.Background(), "whale", "fan2", model.NotificationFavourite, &sid)
	require.NoError(t, err)
	assert.True(t, ok)

	var row model.GroupedNotification
	require.NoError(t, db.Where("account_id = ? AND status_id = ?", "whale", sid).First(&row).Error)
	assert.Equal(t, int64(2), row.Count)
	assert.Equal(t, "fan2", row.LastAccountID)

	ok, err = svc.Aggregate(context.Background(), "", "fan1", model.NotificationFavourite, &sid)
	require.NoError(t, err)
	assert.False(t, ok)
}
