package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"time"

	"blog-api/internal/domain"
)

type archivedComment struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"authorId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

type archivedBlog struct {
	ID               string            `json:"id"`
	Title            string            `json:"title"`
	Content          string            `json:"content"`
	AssignedEditorID *string           `json:"assignedEditorId,omitempty"`
	EditorAssignedAt *time.Time        `json:"editorAssignedAt,omitempty"`
	Comments         []archivedComment `json:"comments"`
	CreatedAt        time.Time         `json:"createdAt"`
	UpdatedAt        time.Time         `json:"updatedAt"`
	DeletedAt        time.Time         `json:"deletedAt"`
}

// BlogArchiver keeps a JSON snapshot of every deleted blog in a bucket.
type BlogArchiver struct {
	store  Service
	bucket string
	prefix string
	now    func() time.Time
}

func NewBlogArchiver(store Service, bucket, prefix string) *BlogArchiver {
	return &BlogArchiver{
		store:  store,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		now:    time.Now,
	}
}

// Archive uploads the snapshot and returns its location.
func (a *BlogArchiver) Archive(ctx context.Context, blog *domain.Blog) (string, error) {
	deletedAt := a.now().UTC()
	record := archivedBlog{
		ID:               blog.ID,
		Title:            blog.Title,
		Content:          blog.Content,
		AssignedEditorID: blog.AssignedEditorID,
		EditorAssignedAt: blog.EditorAssignedAt,
		Comments:         make([]archivedComment, 0, len(blog.Comments)),
		CreatedAt:        blog.CreatedAt,
		UpdatedAt:        blog.UpdatedAt,
		DeletedAt:        deletedAt,
	}
	for _, c := range blog.Comments {
		record.Comments = append(record.Comments, archivedComment{
			ID:        c.ID,
			AuthorID:  c.AuthorID,
			Content:   c.Content,
			CreatedAt: c.CreatedAt,
		})
	}

	payload, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode blog snapshot: %w", err)
	}

	return a.store.PutObject(ctx, bytes.NewReader(payload), PutOptions{
		Bucket:      a.bucket,
		Key:         a.key(blog.ID, deletedAt),
		ContentType: "application/json",
	})
}

func (a *BlogArchiver) key(blogID string, at time.Time) string {
	name := fmt.Sprintf("%s-%d.json", blogID, at.Unix())
	if a.prefix == "" {
		return name
	}
	return path.Join(a.prefix, name)
}
