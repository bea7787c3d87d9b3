package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"weddingtimeline/internal/timeline"
)

type TaskRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewTaskRepository(db *pgxpool.Pool, logger *zap.Logger) *TaskRepository {
	return &TaskRepository{db: db, logger: logger}
}

const taskColumns = `
        id, client_id, tenant_id, template_key, title, description, due_date,
        priority, status, assignee_type, assignee_id, created_by_user_id,
        source, meeting_note_id, celebrated, created_at, updated_at`

// InsertTask 插入任务。模板任务先写物化记录，(client_id, template_key) 已物化过
// （包括任务已被删除的情况）时返回 created=false，不视为错误。任务 ID 重复时返回 ErrConflict。
func (r *TaskRepository) InsertTask(ctx context.Context, t *timeline.TaskInstance) (bool, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if t.TemplateKey != nil {
		tag, err := tx.Exec(ctx, `
            INSERT INTO task_materializations (client_id, template_key, task_id, materialized_at)
            VALUES ($1, $2, $3, $4)
            ON CONFLICT (client_id, template_key) DO NOTHING
        `, t.ClientID, *t.TemplateKey, t.ID, t.CreatedAt)
		if err != nil {
			return false, fmt.Errorf("record materialization: %w", err)
		}
		if tag.RowsAffected() == 0 {
			r.logger.Debug("Task already materialized",
				zap.String("client_id", t.ClientID),
				zap.Stringp("template_key", t.TemplateKey),
			)
			return false, nil
		}
	}

	query := `
        INSERT INTO task_instances (` + taskColumns + `)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
    `
	_, err = tx.Exec(ctx, query,
		t.ID,
		t.ClientID,
		t.TenantID,
		t.TemplateKey,
		t.Title,
		t.Description,
		t.DueDate,
		string(t.Priority),
		string(t.Status),
		string(t.AssigneeType),
		t.AssigneeID,
		t.CreatedByUserID,
		string(t.Source),
		t.MeetingNoteID,
		t.Celebrated,
		t.CreatedAt,
		t.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return false, timeline.Conflictf("task.insert", "task %s already exists", t.ID)
	}
	if err != nil {
		r.logger.Error("Failed to insert task",
			zap.String("client_id", t.ClientID),
			zap.Error(err),
		)
		return false, fmt.Errorf("insert task: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}
	return true, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (r *TaskRepository) GetTask(ctx context.Context, id string) (*timeline.TaskInstance, error) {
	query := `SELECT ` + taskColumns + ` FROM task_instances WHERE id = $1`
	t, err := scanTask(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, timeline.NotFoundf("task.get", "task %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

func (r *TaskRepository) ListTasksByClient(ctx context.Context, clientID string) ([]timeline.TaskInstance, error) {
	query := `SELECT ` + taskColumns + `
        FROM task_instances
        WHERE client_id = $1
        ORDER BY due_date NULLS LAST, created_at, id
    `
	rows, err := r.db.Query(ctx, query, clientID)
	if err != nil {
		r.logger.Error("Failed to query tasks", zap.String("client_id", clientID), zap.Error(err))
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []timeline.TaskInstance{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

// MaterializedKeys 某个客户已经物化过的模板 key，包括任务已被删除的
func (r *TaskRepository) MaterializedKeys(ctx context.Context, clientID string) (map[string]struct{}, error) {
	rows, err := r.db.Query(ctx, `
        SELECT template_key FROM task_materializations WHERE client_id = $1
    `, clientID)
	if err != nil {
		return nil, fmt.Errorf("materialized keys: %w", err)
	}
	defer rows.Close()

	keys := make(map[string]struct{})
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys[k] = struct{}{}
	}
	return keys, rows.Err()
}

// UpdateTaskStatus 乐观并发更新：updated_at 与 expected 不一致时返回 ErrConflict
func (r *TaskRepository) UpdateTaskStatus(ctx context.Context, t *timeline.TaskInstance, expected time.Time) error {
	tag, err := r.db.Exec(ctx, `
        UPDATE task_instances
        SET status = $3, celebrated = $4, updated_at = $5
        WHERE id = $1 AND updated_at = $2
    `, t.ID, expected, string(t.Status), t.Celebrated, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update task status: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM task_instances WHERE id = $1)`, t.ID).Scan(&exists); err != nil {
		return fmt.Errorf("check task: %w", err)
	}
	if !exists {
		return timeline.NotFoundf("task.update_status", "task %s", t.ID)
	}
	return timeline.Conflictf("task.update_status", "task %s was modified concurrently", t.ID)
}

// DeleteTask 在一个事务里删除任务及其评论、附件引用
func (r *TaskRepository) DeleteTask(ctx context.Context, id string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM task_comments WHERE task_instance_id = $1`, id); err != nil {
		return fmt.Errorf("delete comments: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM task_attachments WHERE task_instance_id = $1`, id); err != nil {
		return fmt.Errorf("delete attachments: %w", err)
	}
	tag, err := tx.Exec(ctx, `DELETE FROM task_instances WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return timeline.NotFoundf("task.delete", "task %s", id)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	r.logger.Info("Task deleted", zap.String("task_id", id))
	return nil
}

func scanTask(row pgx.Row) (*timeline.TaskInstance, error) {
	var (
		t                                      timeline.TaskInstance
		priority, status, assigneeType, source string
	)
	err := row.Scan(
		&t.ID,
		&t.ClientID,
		&t.TenantID,
		&t.TemplateKey,
		&t.Title,
		&t.Description,
		&t.DueDate,
		&priority,
		&status,
		&assigneeType,
		&t.AssigneeID,
		&t.CreatedByUserID,
		&source,
		&t.MeetingNoteID,
		&t.Celebrated,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.Priority = timeline.Priority(priority)
	t.Status = timeline.Status(status)
	t.AssigneeType = timeline.AssigneeType(assigneeType)
	t.Source = timeline.Source(source)
	return &t, nil
}
