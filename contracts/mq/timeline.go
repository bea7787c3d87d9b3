package mq

import "time"

// 路由键
const (
	RoutingTaskActivated          = "timeline.task.activated"
	RoutingTaskCelebrated         = "timeline.task.celebrated"
	RoutingNotificationRequested  = "notification.requested"
	RoutingMeetingNoteTaskRequest = "meeting_note.task_requested"
)

// TaskActivatedPayload 分段开启后模板被物化为任务
type TaskActivatedPayload struct {
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

// TaskCelebratedPayload 里程碑/彩带任务进入 DONE
type TaskCelebratedPayload struct {
	ClientID     string    `json:"client_id"`
	TenantID     string    `json:"tenant_id"`
	TaskID       string    `json:"task_id"`
	TemplateKey  string    `json:"template_key"`
	Title        string    `json:"title"`
	Milestone    bool      `json:"milestone"`
	Confetti     bool      `json:"confetti"`
	ActorID      string    `json:"actor_id"`
	CelebratedAt time.Time `json:"celebrated_at"`
}

// NotificationRequestedPayload 交给通知服务投递
type NotificationRequestedPayload struct {
	ClientID    string    `json:"client_id"`
	TemplateKey string    `json:"template_key"`
	Channel     string    `json:"channel"` // push
	RequestedAt time.Time `json:"requested_at"`
}

// MeetingNoteTaskRequestedPayload 会议纪要服务请求从纪要创建任务
type MeetingNoteTaskRequestedPayload struct {
	MeetingNoteID string     `json:"meeting_note_id"`
	// RequestID 幂等键，重复投递的同一请求只创建一个任务
	RequestID     string     `json:"request_id"`
	ActorID       string     `json:"actor_id"`
	AssigneeType  string     `json:"assignee_type"`
	AssigneeID    string     `json:"assignee_id"`
	Priority      string     `json:"priority,omitempty"`
	DueDate       *time.Time `json:"due_date,omitempty"`
}
