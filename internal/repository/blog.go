package repository

import (
	"context"
	"time"

	"blog-api/internal/domain"
)

// BlogRepository exposes persistence operations for Blog aggregates.
// Comments are stored with their blog and always come back in insertion order.
type BlogRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, blog *domain.Blog) error
	Get(ctx context.Context, id string) (*domain.Blog, error)
	List(ctx context.Context) ([]domain.Blog, error)
	UpdateContent(ctx context.Context, id, title, content string) error
	AssignEditor(ctx context.Context, id, editorID string, assignedAt time.Time) error
	Delete(ctx context.Context, id string) error
	AddComment(ctx context.Context, comment *domain.Comment) error
	DeleteComment(ctx context.Context, blogID, commentID string) error
}
