package http

import (
	"time"

	"blog-api/internal/domain"
)

type EditorResponse struct {
	ID       string      `json:"id"`
	Username string      `json:"username"`
	Role     domain.Role `json:"role"`
}

type CommentResponse struct {
	ID        string `json:"id"`
	UserID    string `json:"userId"`
	Content   string `json:"content"`
	CreatedAt string `json:"createdAt"`
}

type BlogResponse struct {
	ID               string            `json:"id"`
	Title            string            `json:"title"`
	Content          string            `json:"content"`
	AssignedEditorID *string           `json:"assignedEditorId"`
	AssignedEditor   *EditorResponse   `json:"assignedEditor"`
	EditorAssignedAt *string           `json:"editorAssignedAt,omitempty"`
	Comments         []CommentResponse `json:"comments"`
	CreatedAt        string            `json:"createdAt"`
	UpdatedAt        string            `json:"updatedAt"`
}

func blogToResponse(blog domain.Blog) BlogResponse {
	resp := BlogResponse{
		ID:               blog.ID,
		Title:            blog.Title,
		Content:          blog.Content,
		AssignedEditorID: blog.AssignedEditorID,
		Comments:         make([]CommentResponse, len(blog.Comments)),
		CreatedAt:        blog.CreatedAt.Format(time.RFC3339),
		UpdatedAt:        blog.UpdatedAt.Format(time.RFC3339),
	}
	if blog.AssignedEditor != nil {
		resp.AssignedEditor = &EditorResponse{
			ID:       blog.AssignedEditor.ID,
			Username: blog.AssignedEditor.Username,
			Role:     blog.AssignedEditor.Role,
		}
	}
	if blog.EditorAssignedAt != nil && !blog.EditorAssignedAt.IsZero() {
		v := blog.EditorAssignedAt.Format(time.RFC3339)
		resp.EditorAssignedAt = &v
	}
	for i, c := range blog.Comments {
		resp.Comments[i] = CommentResponse{
			ID:        c.ID,
			UserID:    c.AuthorID,
			Content:   c.Content,
			CreatedAt: c.CreatedAt.Format(time.RFC3339),
		}
	}
	return resp
}
