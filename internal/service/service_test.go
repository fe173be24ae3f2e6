package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/boehs/truthsocial/internal/model"
)

func setupServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.Account{}, &model.Status{}, &model.StatusMention{}, &model.StatusTag{},
		&model.Follow{}, &model.FollowRequest{}, &model.Fan{},
		&model.Block{}, &model.Mute{}, &model.DomainBlock{}, &model.ConversationMute{},
		&model.List{}, &model.ListAccount{}, &model.FeedEntry{},
		&model.AccountConversation{}, &model.Notification{}, &model.GroupedNotification{},
		&model.Preference{},
	))
	return db
}

type queuedJob struct {
	name  string
	args  any
	delay time.Duration
}

// fakeQueue 记录入队任务；exec 非空时立刻内联执行
type fakeQueue struct {
	mu   sync.Mutex
	jobs []queuedJob
	exec func(name string, args any) error
}

func (q *fakeQueue) Enqueue(name string, args any) error {
	q.mu.Lock()
	q.jobs = append(q.jobs, queuedJob{name: name, args: args})
	q.mu.Unlock()
	if q.exec != nil {
		return q.exec(name, args)
	}
	return nil
}

func (q *fakeQueue) EnqueueBulk(name string, argSeq []any) error {
	for _, args := range argSeq {
		if err := q.Enqueue(name, args); err != nil {
			return err
		}
	}
	return nil
}

func (q *fakeQueue) EnqueueIn(d time.Duration, name string, args any) error {
	q.mu.Lock()
	q.jobs = append(q.jobs, queuedJob{name: name, args: args, delay: d})
	q.mu.Unlock()
	return nil
}

func (q *fakeQueue) byName(name string) []queuedJob {
	q.mu.Lock()
	defer q.mu.Unlock()
	var res []queuedJob
	for _, j := range q.jobs {
		if j.name == name {
			res = append(res, j)
		}
	}
	return res
}

type published struct {
	channel string
	payload []byte
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs []published
}

func (p *fakePublisher) Publish(_ context.Context, channel string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, published{channel: channel, payload: payload})
	return nil
}

type fakeLivePusher struct {
	mu     sync.Mutex
	pushed []*model.Notification
}

func (p *fakeLivePusher) Push(_ context.Context, n *model.Notification) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pushed = append(p.pushed, n)
	return nil
}

type aggregateCall struct {
	recipientID string
	fromID      string
	typ         model.NotificationType
	statusID    *string
}

type fakeAggregator struct {
	mu    sync.Mutex
	calls []aggregateCall
	ok    bool
	err   error
}

func (a *fakeAggregator) Aggregate(_ context.Context, recipientID, fromID string, typ model.NotificationType, statusID *string) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, aggregateCall{recipientID: recipientID, fromID: fromID, typ: typ, statusID: statusID})
	return a.ok, a.err
}

func seedAccount(t *testing.T, db *gorm.DB, id, domain string, mutate ...func(*model.Account)) *model.Account {
	t.Helper()
	a := &model.Account{ID: id, Username: id, Domain: domain, Email: id + "@example.com"}
	for _, m := range mutate {
		m(a)
	}
	require.NoError(t, db.Create(a).Error)
	return a
}

func seedStatus(t *testing.T, db *gorm.DB, st *model.Status) *model.Status {
	t.Helper()
	if st.ID == "" {
		st.ID = uuid.New().String()
	}
	if st.ConversationID == "" {
		st.ConversationID = uuid.New().String()
	}
	if st.CreatedAt.IsZero() {
		st.CreatedAt = time.Now()
	}
	require.NoError(t, db.Create(st).Error)
	return st
}

func seedMention(t *testing.T, db *gorm.DB, statusID, accountID string) {
	t.Helper()
	require.NoError(t, db.Create(&model.StatusMention{ID: uuid.New().String(), StatusID: statusID, AccountID: accountID}).Error)
}

func seedTag(t *testing.T, db *gorm.DB, statusID, tag string) {
	t.Helper()
	require.NoError(t, db.Create(&model.StatusTag{ID: uuid.New().String(), StatusID: statusID, Tag: tag}).Error)
}

func seedFollow(t *testing.T, db *gorm.DB, followerID, followeeID string) {
	t.Helper()
	require.NoError(t, db.Create(&model.Follow{ID: uuid.New().String(), FollowerID: followerID, FolloweeID: followeeID}).Error)
}

func seedFan(t *testing.T, db *gorm.DB, userID, fanID string, local bool) {
	t.Helper()
	require.NoError(t, db.Create(&model.Fan{ID: uuid.New().String(), UserID: userID, FanID: fanID, FanLocal: local}).Error)
}
