package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"weddingtimeline/internal/timeline"
)

// MeetingNoteRepository 只读访问会议纪要，软删除的纪要仍可查到但带 Deleted 标记
type MeetingNoteRepository struct {
	db *pgxpool.Pool
}

func NewMeetingNoteRepository(db *pgxpool.Pool) *MeetingNoteRepository {
	return &MeetingNoteRepository{db: db}
}

func (r *MeetingNoteRepository) GetMeetingNote(ctx context.Context, id string) (*timeline.MeetingNote, error) {
	var n timeline.MeetingNote
	err := r.db.QueryRow(ctx, `
        SELECT id, client_id, tenant_id, title, body, deleted_at IS NOT NULL
        FROM meeting_notes
        WHERE id = $1
    `, id).Scan(&n.ID, &n.ClientID, &n.TenantID, &n.Title, &n.Body, &n.Deleted)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, timeline.NotFoundf("meeting_note.get", "meeting note %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get meeting note: %w", err)
	}
	return &n, nil
}
