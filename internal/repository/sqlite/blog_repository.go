package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"blog-api/internal/domain"
	"blog-api/internal/repository"
)

const (
	createBlogsTable = `
CREATE TABLE IF NOT EXISTS blogs (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	content TEXT NOT NULL,
	assigned_editor_id TEXT NULL REFERENCES users(id),
	editor_assigned_at DATETIME NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_blogs_assigned_editor ON blogs(assigned_editor_id);
`

	// seq keeps insertion order; id is only unique inside one blog.
	createCommentsTable = `
CREATE TABLE IF NOT EXISTS comments (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL,
	blog_id TEXT NOT NULL,
	author_id TEXT NOT NULL REFERENCES users(id),
	content TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	UNIQUE (blog_id, id),
	FOREIGN KEY(blog_id) REFERENCES blogs(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_comments_blog_id ON comments(blog_id);
`

	selectBlog = `
SELECT id, title, content, assigned_editor_id, editor_assigned_at, created_at, updated_at
FROM blogs
`
	selectComment = `
SELECT id, blog_id, author_id, content, created_at
FROM comments
`
)

type BlogRepository struct {
	db *sql.DB
}

func NewBlogRepository(db *sql.DB) repository.BlogRepository {
	return &BlogRepository{db: db}
}

func (r *BlogRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createBlogsTable); err != nil {
		return fmt.Errorf("create blogs table: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, createCommentsTable); err != nil {
		return fmt.Errorf("create comments table: %w", err)
	}
	return nil
}

func (r *BlogRepository) Create(ctx context.Context, blog *domain.Blog) error {
	now := time.Now().UTC()
	blog.CreatedAt = now
	blog.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
INSERT INTO blogs (id, title, content, assigned_editor_id, editor_assigned_at, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		blog.ID,
		blog.Title,
		blog.Content,
		nullString(blog.AssignedEditorID),
		nullTime(blog.EditorAssignedAt),
		blog.CreatedAt,
		blog.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert blog: %w", err)
	}
	return nil
}

func (r *BlogRepository) Get(ctx context.Context, id string) (*domain.Blog, error) {
	blog, err := scanBlog(r.db.QueryRowContext(ctx, selectBlog+`WHERE id=?`, id))
	if err != nil {
		return nil, err
	}

	comments, err := r.listComments(ctx, selectComment+`WHERE blog_id=? ORDER BY seq ASC`, id)
	if err != nil {
		return nil, err
	}
	blog.Comments = comments[id]
	return blog, nil
}

func (r *BlogRepository) List(ctx context.Context) ([]domain.Blog, error) {
	rows, err := r.db.QueryContext(ctx, selectBlog+`ORDER BY rowid ASC`)
	if err != nil {
		return nil, fmt.Errorf("query blogs: %w", err)
	}

	blogs := []domain.Blog{}
	for rows.Next() {
		blog, err := scanBlog(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		blogs = append(blogs, *blog)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate blogs: %w", err)
	}
	rows.Close()

	// the pool holds one connection, so comments are read after the blog cursor closes
	comments, err := r.listComments(ctx, selectComment+`ORDER BY seq ASC`)
	if err != nil {
		return nil, err
	}
	for i := range blogs {
		blogs[i].Comments = comments[blogs[i].ID]
	}
	return blogs, nil
}

func (r *BlogRepository) UpdateContent(ctx context.Context, id, title, content string) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE blogs
SET title=?, content=?, updated_at=?
WHERE id=?`,
		title,
		content,
		time.Now().UTC(),
		id,
	)
	if err != nil {
		return fmt.Errorf("update blog: %w", err)
	}
	return expectOneRow(res, "blog")
}

func (r *BlogRepository) AssignEditor(ctx context.Context, id, editorID string, assignedAt time.Time) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE blogs
SET assigned_editor_id=?, editor_assigned_at=?, updated_at=?
WHERE id=?`,
		editorID,
		assignedAt.UTC(),
		time.Now().UTC(),
		id,
	)
	if err != nil {
		return fmt.Errorf("assign editor: %w", err)
	}
	return expectOneRow(res, "blog")
}

func (r *BlogRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM comments WHERE blog_id=?`, id); err != nil {
		return fmt.Errorf("delete blog comments: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM blogs WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("delete blog: %w", err)
	}
	if err := expectOneRow(res, "blog"); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit blog delete: %w", err)
	}
	return nil
}

func (r *BlogRepository) AddComment(ctx context.Context, comment *domain.Comment) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = now
	}

	res, err := tx.ExecContext(ctx, `UPDATE blogs SET updated_at=? WHERE id=?`, now, comment.BlogID)
	if err != nil {
		return fmt.Errorf("touch blog: %w", err)
	}
	if err := expectOneRow(res, "blog"); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `
INSERT INTO comments (id, blog_id, author_id, content, created_at)
VALUES (?, ?, ?, ?, ?)`,
		comment.ID,
		comment.BlogID,
		comment.AuthorID,
		comment.Content,
		comment.CreatedAt.UTC(),
	); err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit comment: %w", err)
	}
	return nil
}

func (r *BlogRepository) DeleteComment(ctx context.Context, blogID, commentID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM comments WHERE blog_id=? AND id=?`, blogID, commentID)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	if err := expectOneRow(res, "comment"); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `UPDATE blogs SET updated_at=? WHERE id=?`, time.Now().UTC(), blogID); err != nil {
		return fmt.Errorf("touch blog: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit comment delete: %w", err)
	}
	return nil
}

// listComments groups the matching comments by blog id, preserving row order.
func (r *BlogRepository) listComments(ctx context.Context, query string, args ...any) (map[string][]domain.Comment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query comments: %w", err)
	}
	defer rows.Close()

	byBlog := make(map[string][]domain.Comment)
	for rows.Next() {
		var c domain.Comment
		if err := rows.Scan(&c.ID, &c.BlogID, &c.AuthorID, &c.Content, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		byBlog[c.BlogID] = append(byBlog[c.BlogID], c)
	}
	return byBlog, rows.Err()
}

func scanBlog(scanner interface {
	Scan(dest ...any) error
}) (*domain.Blog, error) {
	var (
		blog       domain.Blog
		editorID   sql.NullString
		assignedAt sql.NullTime
	)

	if err := scanner.Scan(
		&blog.ID,
		&blog.Title,
		&blog.Content,
		&editorID,
		&assignedAt,
		&blog.CreatedAt,
		&blog.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound("blog not found")
		}
		return nil, fmt.Errorf("scan blog: %w", err)
	}

	blog.AssignedEditorID = stringPtr(editorID)
	if assignedAt.Valid {
		t := assignedAt.Time
		blog.EditorAssignedAt = &t
	}
	return &blog, nil
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}
