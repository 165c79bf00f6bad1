package domain

import "time"

// Blog is the aggregate root for a post and its embedded comments.
type Blog struct {
	ID               string
	Title            string
	Content          string
	AssignedEditorID *string
	EditorAssignedAt *time.Time
	// AssignedEditor is populated on reads when the editor can be resolved.
	AssignedEditor *EditorRef
	Comments       []Comment
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Comment is owned by exactly one blog. Its ID is only unique inside that blog.
type Comment struct {
	ID        string
	BlogID    string
	AuthorID  string
	Content   string
	CreatedAt time.Time
}

// EditorRef is the public projection of an assigned editor.
type EditorRef struct {
	ID       string
	Username string
	Role     Role
}

// IsAssigned reports whether any editor has been assigned.
func (b *Blog) IsAssigned() bool {
	return b.AssignedEditorID != nil && *b.AssignedEditorID != ""
}

// IsAssignedTo reports whether userID is the assigned editor.
func (b *Blog) IsAssignedTo(userID string) bool {
	return b.IsAssigned() && *b.AssignedEditorID == userID
}

// CommentIndex returns the position of the comment with the given id, or -1.
func (b *Blog) CommentIndex(commentID string) int {
	for i := range b.Comments {
		if b.Comments[i].ID == commentID {
			return i
		}
	}
	return -1
}

// RemoveCommentAt drops the comment at i and keeps the rest in order.
func (b *Blog) RemoveCommentAt(i int) Comment {
	removed := b.Comments[i]
	b.Comments = append(b.Comments[:i:i], b.Comments[i+1:]...)
	return removed
}
