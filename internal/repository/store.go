package repository

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// PostgresStore 组合任务和评论仓储，供任务服务使用
type PostgresStore struct {
	*TaskRepository
	*CommentRepository
}

func NewPostgresStore(db *pgxpool.Pool, logger *zap.Logger) *PostgresStore {
	return &PostgresStore{
		TaskRepository:    NewTaskRepository(db, logger),
		CommentRepository: NewCommentRepository(db, logger),
	}
}
