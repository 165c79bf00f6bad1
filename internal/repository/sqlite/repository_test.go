package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blog-api/internal/domain"
	"blog-api/internal/repository"
)

func newTestRepos(t *testing.T) (repository.UserRepository, repository.BlogRepository) {
	t.Helper()

	db, err := Open(filepath.Join(t.TempDir(), "blog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	users := NewUserRepository(db)
	blogs := NewBlogRepository(db)
	ctx := context.Background()
	require.NoError(t, users.Init(ctx))
	require.NoError(t, blogs.Init(ctx))
	return users, blogs
}

func newUser(name string, role domain.Role) *domain.User {
	token := "tok-" + name
	return &domain.User{
		ID:                uuid.NewString(),
		Username:          name,
		Email:             name + "@example.com",
		PasswordHash:      "hash",
		Role:              role,
		VerificationToken: &token,
	}
}

func TestUserRepository_CreateAndLookup(t *testing.T) {
	users, _ := newTestRepos(t)
	ctx := context.Background()

	u := newUser("alice", domain.RoleUser)
	require.NoError(t, users.Create(ctx, u))

	byID, err := users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Username)
	assert.Equal(t, domain.RoleUser, byID.Role)
	assert.False(t, byID.EmailVerified)
	require.NotNil(t, byID.VerificationToken)
	assert.Equal(t, "tok-alice", *byID.VerificationToken)
	assert.Nil(t, byID.AssignedBlogID)

	byName, err := users.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byName.ID)

	byEmail, err := users.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	_, err = users.GetByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUserRepository_DuplicateAccount(t *testing.T) {
	users, _ := newTestRepos(t)
	ctx := context.Background()

	require.NoError(t, users.Create(ctx, newUser("alice", domain.RoleUser)))

	dupName := newUser("alice", domain.RoleUser)
	dupName.Email = "other@example.com"
	err := users.Create(ctx, dupName)
	require.ErrorIs(t, err, domain.ErrDuplicateAccount)
	assert.Equal(t, "Username already Exist", err.Error())

	dupEmail := newUser("bob", domain.RoleUser)
	dupEmail.Email = "alice@example.com"
	err = users.Create(ctx, dupEmail)
	require.ErrorIs(t, err, domain.ErrDuplicateAccount)
	assert.Equal(t, "User already Exist with this Email", err.Error())
}

func TestUserRepository_UpdateVerification(t *testing.T) {
	users, _ := newTestRepos(t)
	ctx := context.Background()

	u := newUser("alice", domain.RoleUser)
	require.NoError(t, users.Create(ctx, u))

	require.NoError(t, users.UpdateVerification(ctx, u.ID, true, nil))
	got, err := users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, got.EmailVerified)
	assert.Nil(t, got.VerificationToken)
	assert.True(t, got.VerificationConsistent())

	// the schema rejects a verified row that still carries a token
	token := "stale"
	assert.Error(t, users.UpdateVerification(ctx, u.ID, true, &token))

	err = users.UpdateVerification(ctx, uuid.NewString(), true, nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBlogRepository_CRUD(t *testing.T) {
	_, blogs := newTestRepos(t)
	ctx := context.Background()

	first := &domain.Blog{ID: uuid.NewString(), Title: "one", Content: "first body"}
	second := &domain.Blog{ID: uuid.NewString(), Title: "two", Content: "second body"}
	require.NoError(t, blogs.Create(ctx, first))
	require.NoError(t, blogs.Create(ctx, second))

	list, err := blogs.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)
	assert.Equal(t, second.ID, list[1].ID)
	assert.Empty(t, list[0].Comments)

	require.NoError(t, blogs.UpdateContent(ctx, first.ID, "one!", "new body"))
	got, err := blogs.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "one!", got.Title)
	assert.Equal(t, "new body", got.Content)
	assert.False(t, got.UpdatedAt.Before(got.CreatedAt))

	require.NoError(t, blogs.Delete(ctx, first.ID))
	_, err = blogs.Get(ctx, first.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, blogs.Delete(ctx, first.ID), domain.ErrNotFound)
	assert.ErrorIs(t, blogs.UpdateContent(ctx, first.ID, "x", "y"), domain.ErrNotFound)
}

func TestBlogRepository_AssignEditorDerivesUserPointer(t *testing.T) {
	users, blogs := newTestRepos(t)
	ctx := context.Background()

	editor := newUser("ed", domain.RoleEditor)
	require.NoError(t, users.Create(ctx, editor))

	older := &domain.Blog{ID: uuid.NewString(), Title: "a", Content: "a"}
	newer := &domain.Blog{ID: uuid.NewString(), Title: "b", Content: "b"}
	require.NoError(t, blogs.Create(ctx, older))
	require.NoError(t, blogs.Create(ctx, newer))

	at := time.Now().UTC()
	require.NoError(t, blogs.AssignEditor(ctx, older.ID, editor.ID, at))
	require.NoError(t, blogs.AssignEditor(ctx, newer.ID, editor.ID, at.Add(time.Second)))

	got, err := blogs.Get(ctx, older.ID)
	require.NoError(t, err)
	require.NotNil(t, got.AssignedEditorID)
	assert.Equal(t, editor.ID, *got.AssignedEditorID)
	require.NotNil(t, got.EditorAssignedAt)

	u, err := users.GetByID(ctx, editor.ID)
	require.NoError(t, err)
	require.NotNil(t, u.AssignedBlogID)
	assert.Equal(t, newer.ID, *u.AssignedBlogID)

	err = blogs.AssignEditor(ctx, uuid.NewString(), editor.ID, at)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBlogRepository_Comments(t *testing.T) {
	users, blogs := newTestRepos(t)
	ctx := context.Background()

	author := newUser("carol", domain.RoleUser)
	require.NoError(t, users.Create(ctx, author))
	blog := &domain.Blog{ID: uuid.NewString(), Title: "t", Content: "c"}
	require.NoError(t, blogs.Create(ctx, blog))

	ids := make([]string, 3)
	for i := range ids {
		ids[i] = uuid.NewString()
		require.NoError(t, blogs.AddComment(ctx, &domain.Comment{
			ID:       ids[i],
			BlogID:   blog.ID,
			AuthorID: author.ID,
			Content:  "comment",
		}))
	}

	require.NoError(t, blogs.DeleteComment(ctx, blog.ID, ids[1]))

	got, err := blogs.Get(ctx, blog.ID)
	require.NoError(t, err)
	require.Len(t, got.Comments, 2)
	assert.Equal(t, ids[0], got.Comments[0].ID)
	assert.Equal(t, ids[2], got.Comments[1].ID)

	assert.ErrorIs(t, blogs.DeleteComment(ctx, blog.ID, ids[1]), domain.ErrNotFound)

	err = blogs.AddComment(ctx, &domain.Comment{
		ID:       uuid.NewString(),
		BlogID:   uuid.NewString(),
		AuthorID: author.ID,
		Content:  "orphan",
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// comments go with their blog
	require.NoError(t, blogs.Delete(ctx, blog.ID))
	list, err := blogs.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestBlogRepository_DriverFailures(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	blogs := NewBlogRepository(db)
	ctx := context.Background()
	boom := errors.New("disk I/O error")

	mock.ExpectQuery(`SELECT id, title, content`).WillReturnError(boom)
	_, err = blogs.List(ctx)
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "query blogs")

	mock.ExpectQuery(`SELECT id, title, content`).WithArgs("b1").WillReturnError(sql.ErrNoRows)
	_, err = blogs.Get(ctx, "b1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM comments WHERE blog_id=\?`).WithArgs("b1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM blogs WHERE id=\?`).WithArgs("b1").WillReturnError(boom)
	mock.ExpectRollback()
	err = blogs.Delete(ctx, "b1")
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "delete blog")

	mock.ExpectExec(`UPDATE blogs`).WillReturnResult(sqlmock.NewErrorResult(boom))
	err = blogs.UpdateContent(ctx, "b1", "t", "c")
	assert.ErrorIs(t, err, boom)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_DriverFailures(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	users := NewUserRepository(db)
	boom := errors.New("database is locked")

	mock.ExpectExec(`INSERT INTO users`).WillReturnError(boom)
	err = users.Create(context.Background(), newUser("dave", domain.RoleUser))
	require.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, domain.ErrDuplicateAccount)

	mock.ExpectExec(`INSERT INTO users`).WillReturnError(errors.New("UNIQUE constraint failed: users.email"))
	err = users.Create(context.Background(), newUser("erin", domain.RoleUser))
	assert.ErrorIs(t, err, domain.ErrDuplicateAccount)

	assert.NoError(t, mock.ExpectationsWereMet())
}
