package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"weddingtimeline/internal/timeline"
)

// ClientRepository 只读访问客户的婚期
type ClientRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewClientRepository(db *pgxpool.Pool, logger *zap.Logger) *ClientRepository {
	return &ClientRepository{db: db, logger: logger}
}

func (r *ClientRepository) GetClient(ctx context.Context, clientID string) (*timeline.ClientContext, error) {
	var (
		cc        timeline.ClientContext
		eventDate *time.Time
	)
	err := r.db.QueryRow(ctx, `SELECT id, tenant_id, event_date FROM clients WHERE id = $1`, clientID).
		Scan(&cc.ClientID, &cc.TenantID, &eventDate)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, timeline.NotFoundf("client.get", "client %s", clientID)
	}
	if err != nil {
		return nil, fmt.Errorf("get client: %w", err)
	}
	if eventDate == nil {
		return nil, timeline.Validationf("client.get", "client %s has no event date", clientID)
	}
	cc.EventDate = *eventDate
	return &cc, nil
}

// ListUpcomingClients 婚期落在 [from, to] 内的客户
func (r *ClientRepository) ListUpcomingClients(ctx context.Context, from, to time.Time) ([]timeline.ClientContext, error) {
	rows, err := r.db.Query(ctx, `
        SELECT id, tenant_id, event_date
        FROM clients
        WHERE event_date IS NOT NULL AND event_date BETWEEN $1 AND $2
        ORDER BY event_date, id
    `, from, to)
	if err != nil {
		r.logger.Error("Failed to list upcoming clients", zap.Error(err))
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	clients := []timeline.ClientContext{}
	for rows.Next() {
		var cc timeline.ClientContext
		if err := rows.Scan(&cc.ClientID, &cc.TenantID, &cc.EventDate); err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		clients = append(clients, cc)
	}
	return clients, rows.Err()
}
