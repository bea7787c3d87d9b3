package activation

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"weddingtimeline/internal/timeline"
)

// releaseScript 只删除自己持有的租约
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Lease 跨实例的租约存储
type Lease interface {
	// Acquire 返回 false 表示租约被其他持有者占用
	Acquire(ctx context.Context, key, token string, ttl time.Duration) (bool, error)
	// Release 仅当 key 仍由 token 持有时删除
	Release(ctx context.Context, key, token string) error
}

// RedisLease SET NX 租约，释放时用 Lua 脚本比较后删除
type RedisLease struct {
	rdb *redis.Client
}

func NewRedisLease(rdb *redis.Client) *RedisLease {
	return &RedisLease{rdb: rdb}
}

func (r *RedisLease) Acquire(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	return r.rdb.SetNX(ctx, key, token, ttl).Result()
}

func (r *RedisLease) Release(ctx context.Context, key, token string) error {
	return releaseScript.Run(ctx, r.rdb, []string{key}, token).Err()
}

// ClientLocker 按客户串行化激活：进程内每个客户一把锁，
// 配置了租约时再加一层跨实例租约，避免多个调度实例同时处理同一客户。
type ClientLocker struct {
	mu    sync.Mutex
	locks map[string]*clientLock

	lease  Lease
	ttl    time.Duration
	logger *zap.Logger
	token  func() string
}

type clientLock struct {
	ch   chan struct{}
	refs int
}

// NewClientLocker rdb 为 nil 时只使用进程内锁
func NewClientLocker(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *ClientLocker {
	var lease Lease
	if rdb != nil {
		lease = NewRedisLease(rdb)
	}
	return NewClientLockerWithLease(lease, ttl, logger)
}

// NewClientLockerWithLease lease 为 nil 时只使用进程内锁
func NewClientLockerWithLease(lease Lease, ttl time.Duration, logger *zap.Logger) *ClientLocker {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ClientLocker{
		locks:  make(map[string]*clientLock),
		lease:  lease,
		ttl:    ttl,
		logger: logger,
		token:  uuid.NewString,
	}
}

// Lock 阻塞直到拿到本地锁或 ctx 结束。租约被其他实例持有时返回 ErrConflict。
func (l *ClientLocker) Lock(ctx context.Context, clientID string) (func(), error) {
	lk := l.acquire(clientID)
	select {
	case lk.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(clientID, lk)
		return nil, ctx.Err()
	}
	unlockLocal := func() {
		<-lk.ch
		l.release(clientID, lk)
	}

	if l.lease == nil {
		return unlockLocal, nil
	}

	key := "timeline:activation:" + clientID
	token := l.token()
	ok, err := l.lease.Acquire(ctx, key, token, l.ttl)
	if err != nil {
		// 租约存储不可用时退化为进程内锁，唯一约束兜底幂等
		l.logger.Warn("Activation lease unavailable, continuing with local lock",
			zap.String("client_id", clientID),
			zap.Error(err),
		)
		return unlockLocal, nil
	}
	if !ok {
		unlockLocal()
		return nil, timeline.Conflictf("activation.lock", "client %s is being activated elsewhere", clientID)
	}

	return func() {
		relCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := l.lease.Release(relCtx, key, token); err != nil {
			l.logger.Warn("Failed to release activation lease",
				zap.String("client_id", clientID),
				zap.Error(err),
			)
		}
		unlockLocal()
	}, nil
}

func (l *ClientLocker) acquire(clientID string) *clientLock {
	l.mu.Lock()
	defer l.mu.Unlock()
	lk, ok := l.locks[clientID]
	if !ok {
		lk = &clientLock{ch: make(chan struct{}, 1)}
		l.locks[clientID] = lk
	}
	lk.refs++
	return lk
}

func (l *ClientLocker) release(clientID string, lk *clientLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	lk.refs--
	if lk.refs == 0 {
		delete(l.locks, clientID)
	}
}
