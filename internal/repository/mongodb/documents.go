package mongodb

import (
	"time"

	"blog-api/internal/domain"
)

type userDocument struct {
	ID                string    `bson:"_id"`
	Username          string    `bson:"username"`
	Email             string    `bson:"email"`
	PasswordHash      string    `bson:"passwordHash"`
	Role              string    `bson:"role"`
	EmailVerified     bool      `bson:"emailVerified"`
	VerificationToken *string   `bson:"verificationToken"`
	CreatedAt         time.Time `bson:"createdAt"`
	UpdatedAt         time.Time `bson:"updatedAt"`
}

type commentDocument struct {
	ID        string    `bson:"_id"`
	AuthorID  string    `bson:"authorId"`
	Content   string    `bson:"content"`
	CreatedAt time.Time `bson:"createdAt"`
}

// blogDocument embeds its comments; array order is insertion order.
type blogDocument struct {
	ID               string            `bson:"_id"`
	Title            string            `bson:"title"`
	Content          string            `bson:"content"`
	AssignedEditorID *string           `bson:"assignedEditorId"`
	EditorAssignedAt *time.Time        `bson:"editorAssignedAt"`
	Comments         []commentDocument `bson:"comments"`
	CreatedAt        time.Time         `bson:"createdAt"`
	UpdatedAt        time.Time         `bson:"updatedAt"`
}

func toUserDocument(u *domain.User) userDocument {
	return userDocument{
		ID:                u.ID,
		Username:          u.Username,
		Email:             u.Email,
		PasswordHash:      u.PasswordHash,
		Role:              string(u.Role),
		EmailVerified:     u.EmailVerified,
		VerificationToken: u.VerificationToken,
		CreatedAt:         u.CreatedAt,
		UpdatedAt:         u.UpdatedAt,
	}
}

func (d userDocument) toDomain() *domain.User {
	return &domain.User{
		ID:                d.ID,
		Username:          d.Username,
		Email:             d.Email,
		PasswordHash:      d.PasswordHash,
		Role:              domain.Role(d.Role),
		EmailVerified:     d.EmailVerified,
		VerificationToken: d.VerificationToken,
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
	}
}

func toBlogDocument(b *domain.Blog) blogDocument {
	comments := make([]commentDocument, 0, len(b.Comments))
	for _, c := range b.Comments {
		comments = append(comments, toCommentDocument(&c))
	}
	return blogDocument{
		ID:               b.ID,
		Title:            b.Title,
		Content:          b.Content,
		AssignedEditorID: b.AssignedEditorID,
		EditorAssignedAt: b.EditorAssignedAt,
		Comments:         comments,
		CreatedAt:        b.CreatedAt,
		UpdatedAt:        b.UpdatedAt,
	}
}

func toCommentDocument(c *domain.Comment) commentDocument {
	return commentDocument{
		ID:        c.ID,
		AuthorID:  c.AuthorID,
		Content:   c.Content,
		CreatedAt: c.CreatedAt,
	}
}

func (d blogDocument) toDomain() *domain.Blog {
	blog := &domain.Blog{
		ID:               d.ID,
		Title:            d.Title,
		Content:          d.Content,
		AssignedEditorID: d.AssignedEditorID,
		EditorAssignedAt: d.EditorAssignedAt,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
	for _, c := range d.Comments {
		blog.Comments = append(blog.Comments, domain.Comment{
			ID:        c.ID,
			BlogID:    d.ID,
			AuthorID:  c.AuthorID,
			Content:   c.Content,
			CreatedAt: c.CreatedAt,
		})
	}
	return blog
}
