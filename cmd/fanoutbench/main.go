package main

import (
    "context"
    "fmt"
    "os"
    "sort"
    "strconv"
    "time"

    "github.com/google/uuid"

    "github.com/boehs/truthsocial/config"
    "github.com/boehs/truthsocial/internal/feed"
    "github.com/boehs/truthsocial/internal/model"
    "github.com/boehs/truthsocial/internal/queue"
    "github.com/boehs/truthsocial/internal/repository"
    "github.com/boehs/truthsocial/internal/service"
    "github.com/boehs/truthsocial/pkg/database"
)

// 本地扇出基准：FANS 个本地粉丝，REPEAT 条公开状态，观察入队到落库延迟
func main() {
    cfg, err := config.Load()
    if err != nil { panic(err) }
    cfg.Database.Driver = "sqlite"
    cfg.Database.DSN = ":memory:"
    db, err := database.InitDB(cfg)
    if err != nil { panic(err) }
    if err := database.Migrate(db); err != nil { panic(err) }

    FANS := 5000
    if s := os.Getenv("FANS"); s != "" { if v, e := strconv.Atoi(s); e == nil && v > 0 { FANS = v } }
    REPEAT := 20
    if s := os.Getenv("REPEAT"); s != "" { if v, e := strconv.Atoi(s); e == nil && v > 0 { REPEAT = v } }

    ctx := context.Background()
    accountRepo := repository.NewAccountRepository(db)
    statusRepo := repository.NewStatusRepository(db)
    fanRepo := repository.NewFanRepository(db)
    listRepo := repository.NewListRepository(db)
    convRepo := repository.NewConversationRepository(db)
    sink := feed.NewGormSink(db)

    author := &model.Account{ID: "author", Username: "author"}
    _ = accountRepo.Create(ctx, author)
    for i := 0; i < FANS; i++ {
        id := fmt.Sprintf("fan%06d", i)
        _ = accountRepo.Create(ctx, &model.Account{ID: id, Username: id})
        _ = fanRepo.Create(ctx, author.ID, id, true)
    }

    q := queue.New(cfg.Fanout.QueueSize, cfg.Fanout.Workers, 0)
    fanout := service.NewFanOutService(accountRepo, statusRepo, fanRepo, listRepo, convRepo,
        sink, nil, q, noopPublisher{}, cfg.Fanout.BatchSize, cfg.Fanout.WhaleThreshold)
    q.Register(service.JobFeedInsert, fanout.HandleFeedInsert)
    q.Register(service.JobWhaleFeed, fanout.HandleWhaleFeed)
    stop := q.Start()

    lats := make([]time.Duration, 0, REPEAT)
    for i := 0; i < REPEAT; i++ {
        st := &model.Status{ID: uuid.New().String(), AccountID: author.ID, Visibility: model.VisibilityPublic, Local: true, ConversationID: uuid.New().String(), CreatedAt: time.Now()}
        if err := db.Create(st).Error; err != nil { panic(err) }
        begin := time.Now()
        if err := fanout.Deliver(ctx, st); err != nil { panic(err) }
        // 等待该条的 feed 全部落地
        for {
            var cnt int64
            db.Model(&model.FeedEntry{}).Where("status_id = ?", st.ID).Count(&cnt)
            if cnt >= int64(FANS) { break }
            time.Sleep(5 * time.Millisecond)
        }
        lats = append(lats, time.Since(begin))
    }
    _ = stop(ctx)

    pct := func(vs []time.Duration, p float64) time.Duration {
        xs := append([]time.Duration(nil), vs...)
        sort.Slice(xs, func(i, j int) bool { return xs[i] < xs[j] })
        k := int(float64(len(xs)) * p)
        if k >= len(xs) { k = len(xs) - 1 }
        return xs[k]
    }
    var sum time.Duration
    for _, d := range lats { sum += d }
    fmt.Printf("FANS=%d REPEAT=%d\n", FANS, REPEAT)
    fmt.Printf("Fan-out complete: avg=%v p95=%v p99=%v\n", sum/time.Duration(len(lats)), pct(lats, 0.95), pct(lats, 0.99))
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, string, []byte) error { return nil }
