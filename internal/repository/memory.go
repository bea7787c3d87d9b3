package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"weddingtimeline/internal/timeline"
)

// MemoryStore 进程内存储，用于本地模式和测试。语义与 PostgreSQL 实现一致：
// (client_id, template_key) 唯一、updated_at 乐观并发、删除任务时级联删除评论。
type MemoryStore struct {
	mu       sync.RWMutex
	tasks    map[string]timeline.TaskInstance
	comments map[string][]timeline.Comment // task id → 评论
	byTpl    map[string]string             // client_id + "\x00" + template_key → task id，任务删除后仍保留
	clients  map[string]timeline.ClientContext
	notes    map[string]timeline.MeetingNote
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tasks:    make(map[string]timeline.TaskInstance),
		comments: make(map[string][]timeline.Comment),
		byTpl:    make(map[string]string),
		clients:  make(map[string]timeline.ClientContext),
		notes:    make(map[string]timeline.MeetingNote),
	}
}

func tplIndex(clientID, key string) string {
	return clientID + "\x00" + key
}

func cloneTask(t timeline.TaskInstance) timeline.TaskInstance {
	if t.TemplateKey != nil {
		k := *t.TemplateKey
		t.TemplateKey = &k
	}
	if t.MeetingNoteID != nil {
		n := *t.MeetingNoteID
		t.MeetingNoteID = &n
	}
	if t.DueDate != nil {
		d := *t.DueDate
		t.DueDate = &d
	}
	return t
}

func (s *MemoryStore) InsertTask(_ context.Context, t *timeline.TaskInstance) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[t.ID]; exists {
		return false, timeline.Conflictf("task.insert", "task %s already exists", t.ID)
	}
	if t.TemplateKey != nil {
		idx := tplIndex(t.ClientID, *t.TemplateKey)
		if _, dup := s.byTpl[idx]; dup {
			return false, nil
		}
		s.byTpl[idx] = t.ID
	}
	s.tasks[t.ID] = cloneTask(*t)
	return true, nil
}

func (s *MemoryStore) GetTask(_ context.Context, id string) (*timeline.TaskInstance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tasks[id]
	if !ok {
		return nil, timeline.NotFoundf("task.get", "task %s", id)
	}
	out := cloneTask(t)
	return &out, nil
}

func (s *MemoryStore) ListTasksByClient(_ context.Context, clientID string) ([]timeline.TaskInstance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tasks := []timeline.TaskInstance{}
	for _, t := range s.tasks {
		if t.ClientID == clientID {
			tasks = append(tasks, cloneTask(t))
		}
	}
	sort.Slice(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		switch {
		case a.DueDate != nil && b.DueDate == nil:
			return true
		case a.DueDate == nil && b.DueDate != nil:
			return false
		case a.DueDate != nil && !a.DueDate.Equal(*b.DueDate):
			return a.DueDate.Before(*b.DueDate)
		case !a.CreatedAt.Equal(b.CreatedAt):
			return a.CreatedAt.Before(b.CreatedAt)
		default:
			return a.ID < b.ID
		}
	})
	return tasks, nil
}

func (s *MemoryStore) MaterializedKeys(_ context.Context, clientID string) (map[string]struct{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make(map[string]struct{})
	for idx := range s.byTpl {
		if c, key, ok := strings.Cut(idx, "\x00"); ok && c == clientID {
			keys[key] = struct{}{}
		}
	}
	return keys, nil
}

func (s *MemoryStore) UpdateTaskStatus(_ context.Context, t *timeline.TaskInstance, expected time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.tasks[t.ID]
	if !ok {
		return timeline.NotFoundf("task.update_status", "task %s", t.ID)
	}
	if !cur.UpdatedAt.Equal(expected) {
		return timeline.Conflictf("task.update_status", "task %s was modified concurrently", t.ID)
	}
	cur.Status = t.Status
	cur.Celebrated = t.Celebrated
	cur.UpdatedAt = t.UpdatedAt
	s.tasks[t.ID] = cur
	return nil
}

func (s *MemoryStore) DeleteTask(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// byTpl 保留：删除的模板任务不会被再次物化
	if _, ok := s.tasks[id]; !ok {
		return timeline.NotFoundf("task.delete", "task %s", id)
	}
	delete(s.tasks, id)
	delete(s.comments, id)
	return nil
}

func (s *MemoryStore) InsertComment(_ context.Context, c *timeline.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[c.TaskInstanceID]; !ok {
		return timeline.NotFoundf("comment.insert", "task %s", c.TaskInstanceID)
	}
	s.comments[c.TaskInstanceID] = append(s.comments[c.TaskInstanceID], *c)
	return nil
}

func (s *MemoryStore) GetComment(_ context.Context, taskID, commentID string) (*timeline.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.comments[taskID] {
		if c.ID == commentID {
			out := c
			return &out, nil
		}
	}
	return nil, timeline.NotFoundf("comment.get", "comment %s", commentID)
}

func (s *MemoryStore) UpdateComment(_ context.Context, c *timeline.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.comments[c.TaskInstanceID]
	for i := range list {
		if list[i].ID == c.ID {
			list[i].Content = c.Content
			list[i].UpdatedAt = c.UpdatedAt
			return nil
		}
	}
	return timeline.NotFoundf("comment.update", "comment %s", c.ID)
}

func (s *MemoryStore) DeleteComment(_ context.Context, taskID, commentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.comments[taskID]
	for i := range list {
		if list[i].ID == commentID {
			s.comments[taskID] = append(list[:i:i], list[i+1:]...)
			return nil
		}
	}
	return timeline.NotFoundf("comment.delete", "comment %s", commentID)
}

func (s *MemoryStore) ListComments(_ context.Context, taskID string) ([]timeline.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]timeline.Comment, len(s.comments[taskID]))
	copy(out, s.comments[taskID])
	return out, nil
}

// PutClient 写入或替换客户（本地模式下由 API 或测试调用）
func (s *MemoryStore) PutClient(cc timeline.ClientContext) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[cc.ClientID] = cc
}

func (s *MemoryStore) GetClient(_ context.Context, clientID string) (*timeline.ClientContext, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cc, ok := s.clients[clientID]
	if !ok {
		return nil, timeline.NotFoundf("client.get", "client %s", clientID)
	}
	return &cc, nil
}

func (s *MemoryStore) ListUpcomingClients(_ context.Context, from, to time.Time) ([]timeline.ClientContext, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []timeline.ClientContext{}
	for _, cc := range s.clients {
		if !cc.EventDate.Before(from) && !cc.EventDate.After(to) {
			out = append(out, cc)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].EventDate.Equal(out[j].EventDate) {
			return out[i].EventDate.Before(out[j].EventDate)
		}
		return out[i].ClientID < out[j].ClientID
	})
	return out, nil
}

func (s *MemoryStore) PutMeetingNote(n timeline.MeetingNote) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notes[n.ID] = n
}

func (s *MemoryStore) GetMeetingNote(_ context.Context, id string) (*timeline.MeetingNote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.notes[id]
	if !ok {
		return nil, timeline.NotFoundf("meeting_note.get", "meeting note %s", id)
	}
	return &n, nil
}
