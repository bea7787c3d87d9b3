package task

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"weddingtimeline/internal/timeline"
)

// SystemActor 调度器物化模板时使用的创建者
const SystemActor = "system"

// Store 任务与评论的持久化
type Store interface {
	// InsertTask 返回 created=false 表示 (client_id, template_key) 已存在
	InsertTask(ctx context.Context, t *timeline.TaskInstance) (bool, error)
	GetTask(ctx context.Context, id string) (*timeline.TaskInstance, error)
	ListTasksByClient(ctx context.Context, clientID string) ([]timeline.TaskInstance, error)
	// UpdateTaskStatus 仅当存储中的 updated_at 等于 expected 时写入，否则返回 ErrConflict
	UpdateTaskStatus(ctx context.Context, t *timeline.TaskInstance, expected time.Time) error
	// DeleteTask 同时删除评论和附件引用
	DeleteTask(ctx context.Context, id string) error

	InsertComment(ctx context.Context, c *timeline.Comment) error
	GetComment(ctx context.Context, taskID, commentID string) (*timeline.Comment, error)
	UpdateComment(ctx context.Context, c *timeline.Comment) error
	DeleteComment(ctx context.Context, taskID, commentID string) error
	ListComments(ctx context.Context, taskID string) ([]timeline.Comment, error)
}

// Authorizer 判断调用者能否修改任务或管理评论
type Authorizer interface {
	CanEdit(ctx context.Context, actorID string, t *timeline.TaskInstance) bool
	CanDelete(ctx context.Context, actorID string, t *timeline.TaskInstance) bool
	CanModerateComment(ctx context.Context, actorID string, c *timeline.Comment) bool
}

// MeetingNotes 会议纪要服务
type MeetingNotes interface {
	GetMeetingNote(ctx context.Context, id string) (*timeline.MeetingNote, error)
}

// CelebrationPublisher 里程碑/彩带任务完成时的信号
type CelebrationPublisher interface {
	PublishCelebrated(ctx context.Context, t *timeline.TaskInstance, tpl timeline.TaskTemplate, actorID string) error
}

type Deps struct {
	Store        Store
	Catalog      *timeline.Catalog
	Classifier   *timeline.Classifier
	Schedule     timeline.BucketSchedule
	Authorizer   Authorizer
	MeetingNotes MeetingNotes
	Celebrations CelebrationPublisher
}

type Service struct {
	store        Store
	catalog      *timeline.Catalog
	classifier   *timeline.Classifier
	schedule     timeline.BucketSchedule
	authz        Authorizer
	notes        MeetingNotes
	celebrations CelebrationPublisher
	validate     *validator.Validate
	logger       *zap.Logger

	now   func() time.Time
	newID func() string
}

func NewService(deps Deps, logger *zap.Logger) *Service {
	if deps.Schedule == nil {
		deps.Schedule = timeline.DefaultSchedule()
	}
	return &Service{
		store:        deps.Store,
		catalog:      deps.Catalog,
		classifier:   deps.Classifier,
		schedule:     deps.Schedule,
		authz:        deps.Authorizer,
		notes:        deps.MeetingNotes,
		celebrations: deps.Celebrations,
		validate:     validator.New(),
		logger:       logger,
		now:          time.Now,
		newID:        uuid.NewString,
	}
}

// clock 截断到微秒，与 PostgreSQL timestamptz 精度一致，乐观锁比较才可靠
func (s *Service) clock() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// nextUpdatedAt 保证新的 updated_at 严格晚于旧值
func (s *Service) nextUpdatedAt(prev time.Time) time.Time {
	now := s.clock()
	if !now.After(prev) {
		now = prev.Add(time.Microsecond)
	}
	return now
}

func (s *Service) Catalog() *timeline.Catalog { return s.catalog }

func (s *Service) Classifier() *timeline.Classifier { return s.classifier }

// TaskView 带分类标签的任务，分类不落库
type TaskView struct {
	timeline.TaskInstance
	Category string `json:"category"`
}

func (s *Service) view(t timeline.TaskInstance) TaskView {
	return TaskView{TaskInstance: t, Category: s.classifier.Classify(t.Title)}
}

func (s *Service) Get(ctx context.Context, id string) (TaskView, error) {
	t, err := s.store.GetTask(ctx, id)
	if err != nil {
		return TaskView{}, err
	}
	return s.view(*t), nil
}

// ListFilter 为空的字段不过滤
type ListFilter struct {
	Status   string
	Category string
}

func (s *Service) ListByClient(ctx context.Context, clientID string, f ListFilter) ([]TaskView, error) {
	if clientID == "" {
		return nil, timeline.Validationf("task.list", "client_id is required")
	}
	var status timeline.Status
	if f.Status != "" {
		st, err := timeline.ParseStatus(f.Status)
		if err != nil {
			return nil, err
		}
		status = st
	}

	tasks, err := s.store.ListTasksByClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	out := make([]TaskView, 0, len(tasks))
	for _, t := range tasks {
		if status != "" && t.Status != status {
			continue
		}
		v := s.view(t)
		if f.Category != "" && v.Category != f.Category {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

func isConflict(err error) bool {
	return errors.Is(err, timeline.ErrConflict)
}
