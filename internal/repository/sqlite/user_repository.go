package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"blog-api/internal/domain"
	"blog-api/internal/repository"
)

const createUsersTable = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	username TEXT NOT NULL UNIQUE,
	email TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	role TEXT NOT NULL CHECK (role IN ('admin', 'editor', 'user')),
	email_verified INTEGER NOT NULL DEFAULT 0,
	verification_token TEXT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	CHECK ((email_verified = 0 AND verification_token IS NOT NULL)
		OR (email_verified = 1 AND verification_token IS NULL))
);
`

// assigned_blog_id is derived from blogs so the assignment has a single writer.
const selectUser = `
SELECT u.id, u.username, u.email, u.password_hash, u.role, u.email_verified, u.verification_token,
	(SELECT b.id FROM blogs b WHERE b.assigned_editor_id = u.id
		ORDER BY b.editor_assigned_at DESC LIMIT 1) AS assigned_blog_id,
	u.created_at, u.updated_at
FROM users u
`

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) repository.UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createUsersTable); err != nil {
		return fmt.Errorf("create users table: %w", err)
	}
	return nil
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
INSERT INTO users (id, username, email, password_hash, role, email_verified, verification_token, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		string(user.Role),
		user.EmailVerified,
		nullString(user.VerificationToken),
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			if strings.Contains(err.Error(), "users.username") {
				return domain.NewError(domain.ErrDuplicateAccount, "Username already Exist")
			}
			return domain.NewError(domain.ErrDuplicateAccount, "User already Exist with this Email")
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return scanUser(r.db.QueryRowContext(ctx, selectUser+`WHERE u.id = ?`, id))
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return scanUser(r.db.QueryRowContext(ctx, selectUser+`WHERE u.username = ?`, username))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return scanUser(r.db.QueryRowContext(ctx, selectUser+`WHERE u.email = ?`, email))
}

func (r *UserRepository) UpdateVerification(ctx context.Context, id string, verified bool, token *string) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE users
SET email_verified=?, verification_token=?, updated_at=?
WHERE id=?`,
		verified,
		nullString(token),
		time.Now().UTC(),
		id,
	)
	if err != nil {
		return fmt.Errorf("update user verification: %w", err)
	}
	return expectOneRow(res, "user")
}

func scanUser(row interface {
	Scan(dest ...any) error
}) (*domain.User, error) {
	var (
		user         domain.User
		role         string
		token        sql.NullString
		assignedBlog sql.NullString
	)
	if err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&role,
		&user.EmailVerified,
		&token,
		&assignedBlog,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound("user not found")
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	user.Role = domain.Role(role)
	user.VerificationToken = stringPtr(token)
	user.AssignedBlogID = stringPtr(assignedBlog)
	return &user, nil
}

func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}
