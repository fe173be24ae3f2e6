package service

import (
    "context"
    "errors"
    "time"

    "github.com/google/uuid"
    "gorm.io/gorm"

    "github.com/boehs/truthsocial/internal/model"
)

var (
    // ErrReblogOfReblog 转发只允许一层，禁止环
    ErrReblogOfReblog = errors.New("cannot reblog a reblog")
    ErrStatusNotFound = errors.New("status not found")
)

// PublishInput 发布参数
type PublishInput struct {
    AuthorID    string
    Text        string
    Visibility  model.Visibility
    InReplyToID *string
    ReblogOfID  *string
    MentionIDs  []string
    Tags        []string
}

// Publisher 负责事务内落地 status + 提及/标签，提交后触发扇出与逐收件人通知
type Publisher struct {
    db     *gorm.DB
    fanout *FanOutService
    notify *NotifyService
}

func NewPublisher(db *gorm.DB, fanout *FanOutService, notify *NotifyService) *Publisher {
    return &Publisher{db: db, fanout: fanout, notify: notify}
}

// Publish 在一个事务内写 status 与关联行，提交后同步走扇出路由；
// 提及通知对每个收件人独立评估，失败不影响发布结果
func (p *Publisher) Publish(ctx context.Context, in PublishInput) (string, error) {
    statusID := uuid.New().String()
    now := time.Now()

    var author model.Account
    if err := p.db.WithContext(ctx).Where("id = ?", in.AuthorID).First(&author).Error; err != nil {
        return "", err
    }

    status := &model.Status{
        ID:         statusID,
        AccountID:  in.AuthorID,
        Visibility: in.Visibility,
        Text:       in.Text,
        Local:      author.Local(),
        CreatedAt:  now,
        UpdatedAt:  now,
    }

    err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
        if in.ReblogOfID != nil {
            var origin model.Status
            if err := tx.Where("id = ?", *in.ReblogOfID).First(&origin).Error; err != nil {
                if errors.Is(err, gorm.ErrRecordNotFound) {
                    return ErrStatusNotFound
                }
                return err
            }
            if origin.Reblog() {
                return ErrReblogOfReblog
            }
            status.ReblogOfID = in.ReblogOfID
        }
        if in.InReplyToID != nil {
            var parent model.Status
            if err := tx.Where("id = ?", *in.InReplyToID).First(&parent).Error; err != nil {
                if errors.Is(err, gorm.ErrRecordNotFound) {
                    return ErrStatusNotFound
                }
                return err
            }
            status.InReplyToID = in.InReplyToID
            status.InReplyToAccountID = &parent.AccountID
            status.ConversationID = parent.ConversationID
        } else {
            status.ConversationID = uuid.New().String()
        }
        if err := tx.Create(status).Error; err != nil {
            return err
        }
        for _, accountID := range in.MentionIDs {
            m := &model.StatusMention{ID: uuid.New().String(), StatusID: statusID, AccountID: accountID, CreatedAt: now}
            if err := tx.Create(m).Error; err != nil {
                return err
            }
        }
        for _, tag := range in.Tags {
            t := &model.StatusTag{ID: uuid.New().String(), StatusID: statusID, Tag: tag}
            if err := tx.Create(t).Error; err != nil {
                return err
            }
        }
        return nil
    })
    if err != nil {
        return "", err
    }

    // 回读带关联的完整快照再扇出
    full, err := p.fanout.statusRepo.Get(ctx, statusID)
    if err != nil {
        return "", err
    }
    if err := p.fanout.Deliver(ctx, full); err != nil {
        return "", err
    }

    for _, accountID := range in.MentionIDs {
        _ = p.notify.Call(ctx, accountID, model.NotificationMention, Activity{FromAccountID: in.AuthorID, StatusID: &statusID})
    }
    if in.ReblogOfID != nil {
        var origin model.Status
        if err := p.db.WithContext(ctx).Where("id = ?", *in.ReblogOfID).First(&origin).Error; err == nil {
            _ = p.notify.Call(ctx, origin.AccountID, model.NotificationReblog, Activity{FromAccountID: in.AuthorID, StatusID: in.ReblogOfID})
        }
    }
    return statusID, nil
}

// Favourite 点赞只产生通知，不进入扇出
func (p *Publisher) Favourite(ctx context.Context, accountID, statusID string) error {
    var status model.Status
    if err := p.db.WithContext(ctx).Where("id = ?", statusID).First(&status).Error; err != nil {
        if errors.Is(err, gorm.ErrRecordNotFound) {
            return ErrStatusNotFound
        }
        return err
    }
    return p.notify.Call(ctx, status.AccountID, model.NotificationFavourite, Activity{FromAccountID: accountID, StatusID: &statusID})
}

// RemoveReblog 撤销转发：删行，feed 摘除交给后台任务
func (p *Publisher) RemoveReblog(ctx context.Context, statusID string) error {
    if err := p.db.WithContext(ctx).Where("id = ?", statusID).Delete(&model.Status{}).Error; err != nil {
        return err
    }
    return p.fanout.queue.Enqueue(JobReblogRemoval, ReblogRemovalArgs{StatusID: statusID})
}
