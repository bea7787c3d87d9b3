package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"weddingtimeline/internal/service/activation"
)

// Runner 一次全量激活（*activation.Activator）
type Runner interface {
	RunAll(ctx context.Context, now time.Time) (activation.RunSummary, error)
}

// ActivationScheduler 按 cron 表达式周期性执行全量激活。
// 上一轮未结束时跳过本轮，Stop 会取消进行中的一轮并等待它返回。
type ActivationScheduler struct {
	cron     *cron.Cron
	runner   Runner
	schedule string
	timeout  time.Duration
	logger   *zap.Logger
	now      func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewActivationScheduler schedule 支持秒级字段（"0 */15 * * * *"）和 @every 描述符
func NewActivationScheduler(schedule string, runner Runner, logger *zap.Logger) *ActivationScheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &ActivationScheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		runner:   runner,
		schedule: schedule,
		timeout:  10 * time.Minute,
		logger:   logger,
		now:      time.Now,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start 注册任务并启动调度；runImmediately 为 true 时先同步执行一轮
func (s *ActivationScheduler) Start(runImmediately bool) error {
	if _, err := s.cron.AddFunc(s.schedule, s.RunOnce); err != nil {
		return fmt.Errorf("error scheduling activation job: %w", err)
	}
	if runImmediately {
		s.RunOnce()
	}
	s.cron.Start()
	s.logger.Info("Activation scheduler started", zap.String("schedule", s.schedule))
	return nil
}

// RunOnce 执行一轮激活，错误只记录
func (s *ActivationScheduler) RunOnce() {
	s.wg.Add(1)
	defer s.wg.Done()

	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	start := time.Now()
	summary, err := s.runner.RunAll(ctx, s.now())
	fields := []zap.Field{
		zap.Int("clients", summary.Clients),
		zap.Int("materialized", summary.Materialized),
		zap.Int("failed", summary.Failed),
		zap.Duration("took", time.Since(start)),
	}
	if err != nil {
		s.logger.Error("Activation run finished with errors", append(fields, zap.Error(err))...)
		return
	}
	s.logger.Debug("Activation run completed", fields...)
}

// Stop 停止调度并等待进行中的一轮结束
func (s *ActivationScheduler) Stop() {
	stopped := s.cron.Stop()
	s.cancel()
	<-stopped.Done()
	s.wg.Wait()
	s.logger.Info("Activation scheduler stopped")
}
