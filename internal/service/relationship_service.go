package service

import (
    "context"
    "errors"

    "github.com/boehs/truthsocial/internal/feed"
    "github.com/boehs/truthsocial/internal/repository"
)

var (
    ErrFollowSelf = errors.New("cannot follow self")
)

// RelationshipService 关系链服务
type RelationshipService interface {
    Follow(ctx context.Context, fromUserID, toUserID string) error
    Unfollow(ctx context.Context, fromUserID, toUserID string) error
    Block(ctx context.Context, fromUserID, toUserID string) error
    Unblock(ctx context.Context, fromUserID, toUserID string) error
    Mute(ctx context.Context, fromUserID, toUserID string, hideNotifications bool) error
    Unmute(ctx context.Context, fromUserID, toUserID string) error
    ListFollowing(ctx context.Context, userID string, page, pageSize int) ([]string, error)
    ListFans(ctx context.Context, userID string, page, pageSize int) ([]string, error)
}

type relationshipService struct {
    accountRepo repository.AccountRepository
    followRepo  repository.FollowRepository
    fanRepo     repository.FanRepository
    relRepo     repository.RelationshipRepository
    replicator  *FanReplicator
    cache       *feed.FollowerCache
}

func NewRelationshipService(
    accountRepo repository.AccountRepository,
    followRepo repository.FollowRepository,
    fanRepo repository.FanRepository,
    relRepo repository.RelationshipRepository,
    replicator *FanReplicator,
    cache *feed.FollowerCache,
) RelationshipService {
    return &relationshipService{
        accountRepo: accountRepo, followRepo: followRepo, fanRepo: fanRepo,
        relRepo: relRepo, replicator: replicator, cache: cache,
    }
}

func (s *relationshipService) Follow(ctx context.Context, fromUserID, toUserID string) error {
    if fromUserID == toUserID {
        return ErrFollowSelf
    }
    blocked, err := s.relRepo.Blocking(ctx, toUserID, fromUserID)
    if err != nil {
        return err
    }
    if blocked {
        return errors.New("target has blocked requester")
    }
    created, err := s.followRepo.Create(ctx, fromUserID, toUserID)
    if err != nil {
        return err
    }
    if !created {
        // 重复关注：行已存在，计数与冗余都不动
        return nil
    }
    follower, err := s.accountRepo.Get(ctx, fromUserID)
    if err != nil {
        return err
    }
    if err := s.accountRepo.AdjustFollowersCount(ctx, toUserID, 1); err != nil {
        return err
    }
    if s.replicator != nil {
        s.replicator.EnqueueAdd(toUserID, fromUserID, follower.Local())
    }
    if s.cache != nil {
        s.cache.Invalidate(ctx, toUserID)
    }
    return nil
}

func (s *relationshipService) Unfollow(ctx context.Context, fromUserID, toUserID string) error {
    deleted, err := s.followRepo.Delete(ctx, fromUserID, toUserID)
    if err != nil {
        return err
    }
    if !deleted {
        return nil
    }
    if err := s.accountRepo.AdjustFollowersCount(ctx, toUserID, -1); err != nil {
        return err
    }
    if s.replicator != nil {
        s.replicator.EnqueueRemove(toUserID, fromUserID)
    }
    if s.cache != nil {
        s.cache.Invalidate(ctx, toUserID)
    }
    return nil
}

// Block 拉黑并解除双向关注
func (s *relationshipService) Block(ctx context.Context, fromUserID, toUserID string) error {
    if err := s.relRepo.CreateBlock(ctx, fromUserID, toUserID); err != nil {
        return err
    }
    _ = s.Unfollow(ctx, fromUserID, toUserID)
    _ = s.Unfollow(ctx, toUserID, fromUserID)
    return nil
}

func (s *relationshipService) Unblock(ctx context.Context, fromUserID, toUserID string) error {
    return s.relRepo.DeleteBlock(ctx, fromUserID, toUserID)
}

func (s *relationshipService) Mute(ctx context.Context, fromUserID, toUserID string, hideNotifications bool) error {
    return s.relRepo.CreateMute(ctx, fromUserID, toUserID, hideNotifications)
}

func (s *relationshipService) Unmute(ctx context.Context, fromUserID, toUserID string) error {
    return s.relRepo.DeleteMute(ctx, fromUserID, toUserID)
}

func (s *relationshipService) ListFollowing(ctx context.Context, userID string, page, pageSize int) ([]string, error) {
    if page < 1 { page = 1 }
    if pageSize < 1 { pageSize = 10 }
    offset := (page - 1) * pageSize
    items, err := s.followRepo.ListFollowings(ctx, userID, offset, pageSize)
    if err != nil { return nil, err }
    res := make([]string, len(items))
    for i, it := range items { res[i] = it.FolloweeID }
    return res, nil
}

func (s *relationshipService) ListFans(ctx context.Context, userID string, page, pageSize int) ([]string, error) {
    if page < 1 { page = 1 }
    if pageSize < 1 { pageSize = 10 }
    offset := (page - 1) * pageSize
    items, err := s.fanRepo.ListFans(ctx, userID, offset, pageSize)
    if err != nil { return nil, err }
    res := make([]string, len(items))
    for i, it := range items { res[i] = it.FanID }
    return res, nil
}
