package service

import (
    "context"
    "encoding/json"
    "errors"
    "strings"

    "go.uber.org/zap"
    "gorm.io/gorm"

    "github.com/boehs/truthsocial/internal/feed"
    "github.com/boehs/truthsocial/internal/model"
    "github.com/boehs/truthsocial/internal/repository"
    "github.com/boehs/truthsocial/internal/streaming"
    "github.com/boehs/truthsocial/pkg/logger"
)

// FanOutService 写扩散路由：状态发布后推给所有应观察到它的 feed/list/会话/话题频道。
// 请求路径内只做计划解析与分批入队，批量投递在后台任务完成。
type FanOutService struct {
    accountRepo repository.AccountRepository
    statusRepo  repository.StatusRepository
    fanRepo     repository.FanRepository
    listRepo    repository.ListRepository
    convRepo    repository.ConversationRepository

    sink          feed.Sink
    followerCache *feed.FollowerCache // 可为 nil，退化为直接分页 fans 表
    queue         JobQueue
    pub           streaming.Publisher

    batchSize      int
    whaleThreshold int64
}

func NewFanOutService(
    accountRepo repository.AccountRepository,
    statusRepo repository.StatusRepository,
    fanRepo repository.FanRepository,
    listRepo repository.ListRepository,
    convRepo repository.ConversationRepository,
    sink feed.Sink,
    followerCache *feed.FollowerCache,
    queue JobQueue,
    pub streaming.Publisher,
    batchSize int,
    whaleThreshold int64,
) *FanOutService {
    if batchSize <= 0 { batchSize = 500 }
    if whaleThreshold <= 0 { whaleThreshold = 100000 }
    return &FanOutService{
        accountRepo: accountRepo, statusRepo: statusRepo, fanRepo: fanRepo,
        listRepo: listRepo, convRepo: convRepo,
        sink: sink, followerCache: followerCache, queue: queue, pub: pub,
        batchSize: batchSize, whaleThreshold: whaleThreshold,
    }
}

// Deliver 对单个 status 扇出。计划解析失败（可见性竞态）时整体中止，
// 不产生任何部分投递；单个 chunk 的失败由任务侧隔离，互不影响。
func (s *FanOutService) Deliver(ctx context.Context, status *model.Status) error {
    author, err := s.accountRepo.Get(ctx, status.AccountID)
    if err != nil {
        return err
    }
    whale := author.FollowersCount >= s.whaleThreshold

    plan, err := PlanDelivery(status, author, whale)
    if err != nil {
        return err
    }

    if plan.Self {
        logger.Debug("delivering status to author", zap.String("status", status.ID))
        if err := s.sink.Push(ctx, model.ChannelHome, author.ID, status.ID); err != nil {
            return err
        }
    }

    switch {
    case plan.WhaleBroadcast:
        logger.Info("delivering status to whale feed", zap.String("status", status.ID))
        if err := s.queue.Enqueue(JobWhaleFeed, WhaleFeedArgs{StatusID: status.ID}); err != nil {
            logger.Error("whale broadcast enqueue failed", zap.String("status", status.ID), zap.Error(err))
            return err
        }
    case plan.MentionedFollowers:
        if err := s.deliverToMentionedFollowers(ctx, status); err != nil {
            return err
        }
        if plan.OwnConversation {
            // 同步落会话入口：私信线程的 UI 状态依赖它立即可见
            if err := s.convRepo.Add(ctx, author.ID, status); err != nil {
                return err
            }
        }
    default:
        if err := s.deliverToFollowers(ctx, status, author); err != nil {
            return err
        }
        if err := s.deliverToLists(ctx, status, author); err != nil {
            return err
        }
    }

    if !WantsHashtagBroadcast(status, author) {
        return nil
    }
    s.deliverToHashtags(ctx, status)
    return nil
}

func (s *FanOutService) deliverToFollowers(ctx context.Context, status *model.Status, author *model.Account) error {
    logger.Debug("delivering status to followers", zap.String("status", status.ID))
    offset := 0
    for {
        var ids []string
        var err error
        if s.followerCache != nil {
            ids, err = s.followerCache.LocalFollowerPage(ctx, author.ID, offset, s.batchSize)
        } else {
            var fans []*model.Fan
            fans, err = s.fanRepo.ListLocalFans(ctx, author.ID, offset, s.batchSize)
            for _, f := range fans {
                ids = append(ids, f.FanID)
            }
        }
        if err != nil {
            return err
        }
        if len(ids) == 0 {
            return nil
        }
        if err := s.queue.Enqueue(JobFeedInsert, FeedInsertArgs{StatusID: status.ID, Channel: model.ChannelHome, TargetIDs: ids}); err != nil {
            logger.Error("follower batch enqueue failed", zap.String("status", status.ID), zap.Error(err))
            return err
        }
        if len(ids) < s.batchSize {
            return nil
        }
        offset += s.batchSize
    }
}

func (s *FanOutService) deliverToLists(ctx context.Context, status *model.Status, author *model.Account) error {
    logger.Debug("delivering status to lists", zap.String("status", status.ID))
    offset := 0
    for {
        ids, err := s.listRepo.ListsForLocalDistribution(ctx, author.ID, offset, s.batchSize)
        if err != nil {
            return err
        }
        if len(ids) == 0 {
            return nil
        }
        if err := s.queue.Enqueue(JobFeedInsert, FeedInsertArgs{StatusID: status.ID, Channel: model.ChannelList, TargetIDs: ids}); err != nil {
            logger.Error("list batch enqueue failed", zap.String("status", status.ID), zap.Error(err))
            return err
        }
        if len(ids) < s.batchSize {
            return nil
        }
        offset += s.batchSize
    }
}

func (s *FanOutService) deliverToMentionedFollowers(ctx context.Context, status *model.Status) error {
    logger.Debug("delivering status to limited followers", zap.String("status", status.ID))
    ids, err := s.statusRepo.MentionedFollowerIDs(ctx, status.ID, status.AccountID)
    if err != nil {
        return err
    }
    chunks := make([]any, 0, len(ids)/s.batchSize+1)
    for start := 0; start < len(ids); start += s.batchSize {
        end := start + s.batchSize
        if end > len(ids) {
            end = len(ids)
        }
        chunks = append(chunks, FeedInsertArgs{StatusID: status.ID, Channel: model.ChannelHome, TargetIDs: ids[start:end]})
    }
    return s.queue.EnqueueBulk(JobFeedInsert, chunks)
}

// deliverToHashtags 每个 tag 一个频道；payload 只序列化一次，所有频道共享
func (s *FanOutService) deliverToHashtags(ctx context.Context, status *model.Status) {
    if len(status.Tags) == 0 {
        return
    }
    payload, err := renderAnonymousPayload(status)
    if err != nil {
        logger.Error("render hashtag payload", zap.String("status", status.ID), zap.Error(err))
        return
    }
    logger.Debug("delivering status to hashtags", zap.String("status", status.ID))
    for _, t := range status.Tags {
        tag := strings.ToLower(t.Tag)
        if err := s.pub.Publish(ctx, streaming.HashtagChannel(tag, false), payload); err != nil {
            logger.Warn("hashtag publish failed", zap.String("tag", tag), zap.Error(err))
        }
        if status.Local {
            if err := s.pub.Publish(ctx, streaming.HashtagChannel(tag, true), payload); err != nil {
                logger.Warn("hashtag publish failed", zap.String("tag", tag), zap.Error(err))
            }
        }
    }
}

// renderAnonymousPayload 去账号上下文的最小载荷
func renderAnonymousPayload(status *model.Status) ([]byte, error) {
    tags := make([]string, 0, len(status.Tags))
    for _, t := range status.Tags {
        tags = append(tags, strings.ToLower(t.Tag))
    }
    return json.Marshal(map[string]any{
        "id":         status.ID,
        "text":       status.Text,
        "tags":       tags,
        "local":      status.Local,
        "created_at": status.CreatedAt,
    })
}

// HandleFeedInsert feed_insert 任务：单 chunk 批量落地
func (s *FanOutService) HandleFeedInsert(ctx context.Context, args any) error {
    a, ok := args.(FeedInsertArgs)
    if !ok {
        return errors.New("feed_insert: bad args")
    }
    return s.sink.PushBulk(ctx, a.Channel, a.TargetIDs, a.StatusID)
}

// HandleWhaleFeed whale_feed 任务：高触达账号的全量粉丝广播，任务内部分页
func (s *FanOutService) HandleWhaleFeed(ctx context.Context, args any) error {
    a, ok := args.(WhaleFeedArgs)
    if !ok {
        return errors.New("whale_feed: bad args")
    }
    status, err := s.statusRepo.Get(ctx, a.StatusID)
    if err != nil {
        if errors.Is(err, gorm.ErrRecordNotFound) {
            return nil // 删除与投递竞态，按成功处理
        }
        return err
    }
    offset := 0
    for {
        fans, err := s.fanRepo.ListLocalFans(ctx, status.AccountID, offset, s.batchSize)
        if err != nil {
            return err
        }
        if len(fans) == 0 {
            return nil
        }
        ids := make([]string, 0, len(fans))
        for _, f := range fans {
            ids = append(ids, f.FanID)
        }
        if err := s.sink.PushBulk(ctx, model.ChannelHome, ids, status.ID); err != nil {
            // 单批失败不阻断后续批次
            logger.Warn("whale feed batch failed", zap.String("status", status.ID), zap.Error(err))
        }
        if len(fans) < s.batchSize {
            return nil
        }
        offset += s.batchSize
    }
}

// HandleReblogRemoval reblog_removal 任务：撤销转发后摘除 feed 项；目标不存在视为成功
func (s *FanOutService) HandleReblogRemoval(ctx context.Context, args any) error {
    a, ok := args.(ReblogRemovalArgs)
    if !ok {
        return errors.New("reblog_removal: bad args")
    }
    if err := s.sink.RemoveStatus(ctx, a.StatusID); err != nil {
        if errors.Is(err, gorm.ErrRecordNotFound) {
            return nil
        }
        return err
    }
    return nil
}
