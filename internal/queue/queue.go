package queue

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/boehs/truthsocial/pkg/logger"
)

// Handler 任务处理函数
type Handler func(ctx context.Context, args any) error

const maxAttempts = 3

type job struct {
	name    string
	args    any
	attempt int
	enqAt   time.Time
}

// Queue 进程内后台任务队列：at-least-once，任务间无顺序保证。
// 与 FanReplicator 同构：有界 channel + 固定 worker 数 + drop-on-full。
type Queue struct {
	mu       sync.RWMutex
	handlers map[string]Handler

	ch      chan job
	workers int
	limiter *rate.Limiter // 限制每秒任务执行数，nil 不限

	metricsCh chan time.Duration
}

// New 创建队列；pushRate <= 0 表示不限速
func New(queueSize, workers int, pushRate float64) *Queue {
	if queueSize <= 0 {
		queueSize = 10000
	}
	if workers <= 0 {
		workers = 4
	}
	var lim *rate.Limiter
	if pushRate > 0 {
		lim = rate.NewLimiter(rate.Limit(pushRate), workers)
	}
	return &Queue{
		handlers:  make(map[string]Handler),
		ch:        make(chan job, queueSize),
		workers:   workers,
		limiter:   lim,
		metricsCh: make(chan time.Duration, 65536),
	}
}

// Register 注册任务处理函数；需在 Start 前完成
func (q *Queue) Register(name string, h Handler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers[name] = h
}

// Start 启动 worker，返回停止函数
func (q *Queue) Start() func(context.Context) error {
	stopCh := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < q.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case j := <-q.ch:
					q.run(j)
				case <-stopCh:
					return
				}
			}
		}()
	}
	return func(ctx context.Context) error {
		// 先等队列自然排空，再停 worker
		drain := time.After(2 * time.Second)
	loop:
		for {
			select {
			case <-drain:
				break loop
			case <-ctx.Done():
				break loop
			default:
				if len(q.ch) == 0 {
					break loop
				}
				time.Sleep(50 * time.Millisecond)
			}
		}
		close(stopCh)
		wg.Wait()
		return nil
	}
}

func (q *Queue) run(j job) {
	if q.limiter != nil {
		_ = q.limiter.Wait(context.Background())
	}
	q.mu.RLock()
	h, ok := q.handlers[j.name]
	q.mu.RUnlock()
	if !ok {
		logger.Error("no handler for job", zap.String("job", j.name))
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	err := h(ctx, j.args)
	cancel()
	if err != nil {
		if j.attempt+1 < maxAttempts {
			j.attempt++
			select {
			case q.ch <- j:
			default:
				logger.Warn("queue full, drop retry", zap.String("job", j.name), zap.Error(err))
			}
			return
		}
		logger.Error("job failed", zap.String("job", j.name), zap.Int("attempts", j.attempt+1), zap.Error(err))
		return
	}
	if !j.enqAt.IsZero() {
		select {
		case q.metricsCh <- time.Since(j.enqAt):
		default:
		}
	}
}

var ErrQueueFull = errors.New("queue full")

// Enqueue 投递单个任务；队列满时丢弃并告警
func (q *Queue) Enqueue(name string, args any) error {
	select {
	case q.ch <- job{name: name, args: args, enqAt: time.Now()}:
		return nil
	default:
		logger.Warn("queue full, drop job", zap.String("job", name))
		return ErrQueueFull
	}
}

// EnqueueBulk 批量投递，保持传入顺序
func (q *Queue) EnqueueBulk(name string, argSeq []any) error {
	for _, args := range argSeq {
		if err := q.Enqueue(name, args); err != nil {
			return err
		}
	}
	return nil
}

// EnqueueIn 延迟投递
func (q *Queue) EnqueueIn(d time.Duration, name string, args any) error {
	if d <= 0 {
		return q.Enqueue(name, args)
	}
	time.AfterFunc(d, func() { _ = q.Enqueue(name, args) })
	return nil
}

// Metrics 返回任务入队到完成耗时的只读通道
func (q *Queue) Metrics() <-chan time.Duration { return q.metricsCh }

// Len 当前积压任务数（采样值）
func (q *Queue) Len() int { return len(q.ch) }
