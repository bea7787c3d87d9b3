package timeline

import (
	"strings"
	"time"
)

type Status string

const (
	StatusTodo       Status = "TODO"
	StatusInProgress Status = "IN_PROGRESS"
	StatusDone       Status = "DONE"
	StatusBlocked    Status = "BLOCKED"
)

// ParseStatus 大小写不敏感地解析状态
func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToUpper(strings.TrimSpace(s))); st {
	case StatusTodo, StatusInProgress, StatusDone, StatusBlocked:
		return st, nil
	default:
		return "", Validationf("status", "invalid status %q", s)
	}
}

type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

func ParsePriority(s string) (Priority, error) {
	switch p := Priority(strings.ToUpper(strings.TrimSpace(s))); p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return p, nil
	default:
		return "", Validationf("priority", "invalid priority %q", s)
	}
}

// PriorityFromImportance 4-5 → HIGH，3 → MEDIUM，其余 → LOW
func PriorityFromImportance(importance int) Priority {
	switch {
	case importance >= 4:
		return PriorityHigh
	case importance == 3:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

type AssigneeType string

const (
	AssigneeTenant AssigneeType = "TENANT"
	AssigneeClient AssigneeType = "CLIENT"
)

func ParseAssigneeType(s string) (AssigneeType, error) {
	switch a := AssigneeType(strings.ToUpper(strings.TrimSpace(s))); a {
	case AssigneeTenant, AssigneeClient:
		return a, nil
	default:
		return "", Validationf("assignee_type", "invalid assignee type %q", s)
	}
}

// AssigneeFor 模板负责方对应的指派类型：planner 归租户（策划公司），client 归客户
func AssigneeFor(owner Owner) AssigneeType {
	if owner == OwnerPlanner {
		return AssigneeTenant
	}
	return AssigneeClient
}

type Source string

const (
	SourceManual      Source = "MANUAL"
	SourceMeetingNote Source = "MEETING_NOTE"
)

// TaskInstance 某个客户的具体任务
type TaskInstance struct {
	ID              string       `json:"id"`
	ClientID        string       `json:"client_id"`
	TenantID        string       `json:"tenant_id"`
	TemplateKey     *string      `json:"template_key,omitempty"`
	Title           string       `json:"title"`
	Description     string       `json:"description"`
	DueDate         *time.Time   `json:"due_date,omitempty"`
	Priority        Priority     `json:"priority"`
	Status          Status       `json:"status"`
	AssigneeType    AssigneeType `json:"assignee_type"`
	AssigneeID      string       `json:"assignee_id"`
	CreatedByUserID string       `json:"created_by_user_id"`
	Source          Source       `json:"source"`
	MeetingNoteID   *string      `json:"meeting_note_id,omitempty"`
	Celebrated      bool         `json:"celebrated"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

// Validate 检查实例级不变量
func (t *TaskInstance) Validate() error {
	const op = "task.validate"
	switch {
	case strings.TrimSpace(t.Title) == "":
		return Validationf(op, "title is required")
	case t.ClientID == "":
		return Validationf(op, "client_id is required")
	case t.AssigneeID == "":
		return Validationf(op, "task must have an assignee")
	case t.AssigneeType != AssigneeTenant && t.AssigneeType != AssigneeClient:
		return Validationf(op, "invalid assignee type %q", t.AssigneeType)
	case t.CreatedByUserID == "":
		return Validationf(op, "created_by_user_id is required")
	}
	if _, err := ParseStatus(string(t.Status)); err != nil {
		return err
	}
	if _, err := ParsePriority(string(t.Priority)); err != nil {
		return err
	}
	switch t.Source {
	case SourceManual:
		if t.MeetingNoteID != nil {
			return Validationf(op, "manual task cannot reference a meeting note")
		}
	case SourceMeetingNote:
		if t.MeetingNoteID == nil || *t.MeetingNoteID == "" {
			return Validationf(op, "meeting note task requires meeting_note_id")
		}
	default:
		return Validationf(op, "invalid source %q", t.Source)
	}
	return nil
}

// Comment 任务评论
type Comment struct {
	ID             string    `json:"id"`
	TaskInstanceID string    `json:"task_instance_id"`
	AuthorID       string    `json:"author_id"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// MeetingNote 会议纪要服务提供的只读视图
type MeetingNote struct {
	ID       string `json:"id"`
	ClientID string `json:"client_id"`
	TenantID string `json:"tenant_id"`
	Title    string `json:"title"`
	Body     string `json:"body"`
	Deleted  bool   `json:"deleted"`
}

// ClientContext 物化模板时的客户上下文
type ClientContext struct {
	ClientID  string    `json:"client_id"`
	TenantID  string    `json:"tenant_id"`
	EventDate time.Time `json:"event_date"`
	ActorID   string    `json:"actor_id"`
}

// ActivationEvent 分段到期时为某个客户激活模板的信号
type ActivationEvent struct {
	ClientID       string    `json:"client_id"`
	TenantID       string    `json:"tenant_id"`
	TaskID         string    `json:"task_id"`
	TemplateKey    string    `json:"template_key"`
	Section        string    `json:"section"`
	PushOnActivate bool      `json:"push_on_activate"`
	Confetti       bool      `json:"confetti"`
	Milestone      bool      `json:"milestone"`
	ActivatedAt    time.Time `json:"activated_at"`
}
