package activation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"weddingtimeline/internal/timeline"
	"weddingtimeline/pkg/logger"
	"weddingtimeline/pkg/metrics"
)

const channelPush = "push"

// Store 查询客户已物化的模板
type Store interface {
	MaterializedKeys(ctx context.Context, clientID string) (map[string]struct{}, error)
}

// Creator 物化单个模板，created=false 表示已存在
type Creator interface {
	CreateFromTemplate(ctx context.Context, tpl timeline.TaskTemplate, cc timeline.ClientContext) (*timeline.TaskInstance, bool, error)
}

// Notifier 通知派发，尽力而为
type Notifier interface {
	Notify(ctx context.Context, clientID, templateKey, channel string) error
}

type EventPublisher interface {
	PublishActivated(ctx context.Context, ev timeline.ActivationEvent) error
}

type Locker interface {
	Lock(ctx context.Context, clientID string) (func(), error)
}

// Clients 客户及婚期
type Clients interface {
	GetClient(ctx context.Context, clientID string) (*timeline.ClientContext, error)
	ListUpcomingClients(ctx context.Context, from, to time.Time) ([]timeline.ClientContext, error)
}

type Deps struct {
	Catalog  *timeline.Catalog
	Schedule timeline.BucketSchedule
	Store    Store
	Creator  Creator
	Notifier Notifier
	Events   EventPublisher
	Locker   Locker
	Clients  Clients
}

type Activator struct {
	catalog  *timeline.Catalog
	schedule timeline.BucketSchedule
	store    Store
	creator  Creator
	notifier Notifier
	events   EventPublisher
	locker   Locker
	clients  Clients
	logger   *zap.Logger

	// RunAll 同时处理的客户数
	concurrency int
	lookahead   int
}

func NewActivator(deps Deps, lookaheadMonths int, logger *zap.Logger) *Activator {
	if deps.Schedule == nil {
		deps.Schedule = timeline.DefaultSchedule()
	}
	if deps.Locker == nil {
		deps.Locker = NewClientLocker(nil, 0, logger)
	}
	if lookaheadMonths <= 0 {
		lookaheadMonths = 12
	}
	return &Activator{
		catalog:     deps.Catalog,
		schedule:    deps.Schedule,
		store:       deps.Store,
		creator:     deps.Creator,
		notifier:    deps.Notifier,
		events:      deps.Events,
		locker:      deps.Locker,
		clients:     deps.Clients,
		logger:      logger,
		concurrency: 4,
		lookahead:   lookaheadMonths,
	}
}

// MaterializeDueTasks 为客户物化所有已开启分段中尚未物化的模板。
// 单个模板失败不影响其他模板，错误合并后返回；通知和事件发布失败只记录不返回。
func (a *Activator) MaterializeDueTasks(ctx context.Context, cc timeline.ClientContext, now time.Time) ([]timeline.ActivationEvent, error) {
	const op = "activation.materialize"
	if cc.ClientID == "" {
		return nil, timeline.Validationf(op, "client_id is required")
	}
	if cc.EventDate.IsZero() {
		return nil, timeline.Validationf(op, "client %s has no event date", cc.ClientID)
	}

	unlock, err := a.locker.Lock(ctx, cc.ClientID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	start := time.Now()
	defer func() { metrics.ObserveActivation(time.Since(start)) }()
	log := logger.WithTrace(ctx, a.logger).With(zap.String("client_id", cc.ClientID))

	existing, err := a.store.MaterializedKeys(ctx, cc.ClientID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var (
		events []timeline.ActivationEvent
		errs   []error
	)
	for _, b := range a.catalog.Buckets() {
		crossed, err := timeline.Crossed(a.schedule, b, cc.EventDate, now)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !crossed {
			continue
		}
		for _, tpl := range a.catalog.Section(b) {
			if _, done := existing[tpl.Key]; done {
				continue
			}
			inst, created, err := a.creator.CreateFromTemplate(ctx, tpl, cc)
			if err != nil {
				log.Error("Failed to materialize template", zap.String("template_key", tpl.Key), zap.Error(err))
				errs = append(errs, fmt.Errorf("%s: %w", tpl.Key, err))
				continue
			}
			if !created {
				continue
			}
			metrics.IncrementMaterialized(b.Section)

			ev := timeline.ActivationEvent{
				ClientID:       cc.ClientID,
				TenantID:       cc.TenantID,
				TaskID:         inst.ID,
				TemplateKey:    tpl.Key,
				Section:        b.Section,
				PushOnActivate: tpl.PushOnActivate,
				Confetti:       tpl.Confetti,
				Milestone:      tpl.Milestone,
				ActivatedAt:    now.UTC(),
			}
			events = append(events, ev)
			a.signal(ctx, log, ev)
		}
	}

	if len(events) > 0 {
		log.Info("Templates materialized", zap.Int("count", len(events)))
	}
	return events, errors.Join(errs...)
}

// signal 发布激活事件并按需推送，失败只记录
func (a *Activator) signal(ctx context.Context, log *zap.Logger, ev timeline.ActivationEvent) {
	if a.events != nil {
		if err := a.events.PublishActivated(ctx, ev); err != nil {
			log.Warn("Activation event dropped", zap.String("template_key", ev.TemplateKey), zap.Error(err))
		}
	}
	if !ev.PushOnActivate || a.notifier == nil {
		return
	}
	if err := a.notifier.Notify(ctx, ev.ClientID, ev.TemplateKey, channelPush); err != nil {
		log.Warn("Push notification dropped", zap.String("template_key", ev.TemplateKey), zap.Error(err))
	}
}

// MaterializeClient 按客户 ID 查婚期后物化
func (a *Activator) MaterializeClient(ctx context.Context, clientID, actorID string, now time.Time) ([]timeline.ActivationEvent, error) {
	return a.MaterializeClientWith(ctx, clientID, actorID, ClientOverride{}, now)
}

// ClientOverride 覆盖登记的租户或婚期，零值字段沿用登记值
type ClientOverride struct {
	TenantID  string
	EventDate *time.Time
}

func (o ClientOverride) complete() bool {
	return o.TenantID != "" && o.EventDate != nil && !o.EventDate.IsZero()
}

// MaterializeClientWith 同 MaterializeClient，但允许调用方给出婚期和租户。
// 客户未登记时，覆盖值必须同时给出租户和婚期。
func (a *Activator) MaterializeClientWith(ctx context.Context, clientID, actorID string, o ClientOverride, now time.Time) ([]timeline.ActivationEvent, error) {
	c := timeline.ClientContext{ClientID: clientID}
	cc, err := a.clients.GetClient(ctx, clientID)
	switch {
	case err == nil:
		c = *cc
	case errors.Is(err, timeline.ErrNotFound) && o.complete():
	default:
		return nil, err
	}
	if o.TenantID != "" {
		c.TenantID = o.TenantID
	}
	if o.EventDate != nil && !o.EventDate.IsZero() {
		c.EventDate = o.EventDate.UTC()
	}
	c.ActorID = actorID
	return a.MaterializeDueTasks(ctx, c, now)
}

// RunSummary 一次全量激活的结果
type RunSummary struct {
	Clients      int
	Materialized int
	Failed       int
}

// RunAll 扫描婚期在 lookahead 内的所有客户并并发激活，不同客户之间互不阻塞
func (a *Activator) RunAll(ctx context.Context, now time.Time) (RunSummary, error) {
	clients, err := a.clients.ListUpcomingClients(ctx, now, now.AddDate(0, a.lookahead, 0))
	if err != nil {
		return RunSummary{}, err
	}

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		summary = RunSummary{Clients: len(clients)}
		errs    []error
		sem     = make(chan struct{}, a.concurrency)
	)
	for _, cc := range clients {
		if ctx.Err() != nil {
			break
		}
		sem <- struct{}{}
		wg.Add(1)
		go func(cc timeline.ClientContext) {
			defer wg.Done()
			defer func() { <-sem }()

			events, err := a.MaterializeDueTasks(ctx, cc, now)
			mu.Lock()
			defer mu.Unlock()
			summary.Materialized += len(events)
			if err != nil {
				summary.Failed++
				errs = append(errs, fmt.Errorf("client %s: %w", cc.ClientID, err))
			}
		}(cc)
	}
	wg.Wait()

	a.logger.Info("Activation run finished",
		zap.Int("clients", summary.Clients),
		zap.Int("materialized", summary.Materialized),
		zap.Int("failed", summary.Failed),
	)
	return summary, errors.Join(errs...)
}
