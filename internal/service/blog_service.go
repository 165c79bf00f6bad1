package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"blog-api/internal/domain"
	"blog-api/internal/repository"
)

// BlogArchiver stores a snapshot of a deleted blog.
type BlogArchiver interface {
	Archive(ctx context.Context, blog *domain.Blog) (string, error)
}

// UpdateBlogInput is a partial update. Nil fields are left unchanged.
type UpdateBlogInput struct {
	Title   *string
	Content *string
}

// BlogService coordinates blog and comment operations backed by repositories.
type BlogService interface {
	Create(ctx context.Context, title, content string) (*domain.Blog, error)
	Get(ctx context.Context, id string) (*domain.Blog, error)
	List(ctx context.Context) ([]domain.Blog, error)
	Update(ctx context.Context, id string, in UpdateBlogInput, caller *domain.User) (*domain.Blog, error)
	Delete(ctx context.Context, id string) (*domain.Blog, error)
	AssignEditor(ctx context.Context, blogID, editorID string, caller *domain.User) (*domain.Blog, error)
	AddComment(ctx context.Context, blogID string, author *domain.User, content string) (*domain.Blog, error)
	RemoveComment(ctx context.Context, blogID, commentID, callerID string) (*domain.Blog, error)
}

type blogService struct {
	blogs    repository.BlogRepository
	users    repository.UserRepository
	archiver BlogArchiver
	logger   *logrus.Logger
	now      func() time.Time
}

// NewBlogService wires the blog service. archiver may be nil, in which case
// deleted blogs are not archived.
func NewBlogService(blogs repository.BlogRepository, users repository.UserRepository, archiver BlogArchiver, logger *logrus.Logger) BlogService {
	if logger == nil {
		logger = logrus.New()
	}
	return &blogService{
		blogs:    blogs,
		users:    users,
		archiver: archiver,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *blogService) Create(ctx context.Context, title, content string) (*domain.Blog, error) {
	if strings.TrimSpace(title) == "" {
		return nil, domain.InvalidInput("Invalid-title field")
	}
	if strings.TrimSpace(content) == "" {
		return nil, domain.InvalidInput("Invalid-content field")
	}

	blog := &domain.Blog{
		ID:       uuid.NewString(),
		Title:    title,
		Content:  content,
		Comments: []domain.Comment{},
	}
	if err := s.blogs.Create(ctx, blog); err != nil {
		return nil, err
	}
	return blog, nil
}

func (s *blogService) Get(ctx context.Context, id string) (*domain.Blog, error) {
	if !validID(id) {
		return nil, domain.InvalidInput("Invalid Blog ID format")
	}
	blog, err := s.load(ctx, id, "Blog not found")
	if err != nil {
		return nil, err
	}
	if err := s.resolveEditors(ctx, blog); err != nil {
		return nil, err
	}
	return blog, nil
}

func (s *blogService) List(ctx context.Context) ([]domain.Blog, error) {
	blogs, err := s.blogs.List(ctx)
	if err != nil {
		return nil, err
	}

	ptrs := make([]*domain.Blog, len(blogs))
	for i := range blogs {
		ptrs[i] = &blogs[i]
	}
	if err := s.resolveEditors(ctx, ptrs...); err != nil {
		return nil, err
	}
	return blogs, nil
}

func (s *blogService) Update(ctx context.Context, id string, in UpdateBlogInput, caller *domain.User) (*domain.Blog, error) {
	if !validID(id) {
		return nil, domain.InvalidInput("Invalid Blog ID format")
	}
	if in.Title == nil && in.Content == nil {
		return nil, domain.InvalidInput("Provide a title or content to update")
	}
	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		return nil, domain.InvalidInput("Invalid-title field")
	}
	if in.Content != nil && strings.TrimSpace(*in.Content) == "" {
		return nil, domain.InvalidInput("Invalid-content field")
	}

	blog, err := s.load(ctx, id, "Blog not found")
	if err != nil {
		return nil, err
	}
	if err := CanEditBlog(caller, blog); err != nil {
		return nil, err
	}

	if in.Title != nil {
		blog.Title = *in.Title
	}
	if in.Content != nil {
		blog.Content = *in.Content
	}
	if err := s.blogs.UpdateContent(ctx, blog.ID, blog.Title, blog.Content); err != nil {
		return nil, err
	}
	return s.reload(ctx, blog.ID)
}

func (s *blogService) Delete(ctx context.Context, id string) (*domain.Blog, error) {
	if !validID(id) {
		return nil, domain.InvalidInput("Invalid blog ID format")
	}
	blog, err := s.load(ctx, id, "Blog not found")
	if err != nil {
		return nil, err
	}
	if err := s.blogs.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NotFound("Blog not found")
		}
		return nil, err
	}

	s.archive(ctx, blog)
	return blog, nil
}

func (s *blogService) AssignEditor(ctx context.Context, blogID, editorID string, caller *domain.User) (*domain.Blog, error) {
	if !validID(editorID) {
		return nil, domain.InvalidInput("Invalid assignedEditorId format")
	}
	if !validID(blogID) {
		return nil, domain.InvalidInput("Invalid BlogId format")
	}

	editor, err := s.users.GetByID(ctx, editorID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NotFound("assignedEditorId not Found")
		}
		return nil, err
	}
	if err := CanAssignEditor(caller, editor); err != nil {
		return nil, err
	}

	if err := s.blogs.AssignEditor(ctx, blogID, editor.ID, s.now().UTC()); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NotFound("Blog Not Found")
		}
		return nil, err
	}
	return s.reload(ctx, blogID)
}

func (s *blogService) AddComment(ctx context.Context, blogID string, author *domain.User, content string) (*domain.Blog, error) {
	if !validID(blogID) {
		return nil, domain.InvalidInput("Invalid Blog ID format")
	}
	if strings.TrimSpace(content) == "" {
		return nil, domain.InvalidInput("Invalid comment content")
	}

	comment := &domain.Comment{
		ID:        uuid.NewString(),
		BlogID:    blogID,
		AuthorID:  author.ID,
		Content:   content,
		CreatedAt: s.now().UTC(),
	}
	if err := s.blogs.AddComment(ctx, comment); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NotFound("Blog Not Found")
		}
		return nil, err
	}
	return s.reload(ctx, blogID)
}

func (s *blogService) RemoveComment(ctx context.Context, blogID, commentID, callerID string) (*domain.Blog, error) {
	if !validID(blogID) {
		return nil, domain.InvalidInput("Invalid Blog ID format")
	}
	if !validID(commentID) {
		return nil, domain.InvalidInput("Invalid Comment ID format")
	}

	blog, err := s.load(ctx, blogID, "Blog Not Found")
	if err != nil {
		return nil, err
	}
	idx := blog.CommentIndex(commentID)
	if idx < 0 {
		return nil, domain.NotFound("Comment Not Found")
	}
	if err := CanDeleteComment(callerID, &blog.Comments[idx]); err != nil {
		return nil, err
	}

	if err := s.blogs.DeleteComment(ctx, blogID, commentID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NotFound("Comment Not Found")
		}
		return nil, err
	}

	blog.RemoveCommentAt(idx)
	blog.UpdatedAt = s.now().UTC()
	if err := s.resolveEditors(ctx, blog); err != nil {
		return nil, err
	}
	return blog, nil
}

// load fetches a blog and rewrites a miss into the given client message.
func (s *blogService) load(ctx context.Context, id, notFound string) (*domain.Blog, error) {
	blog, err := s.blogs.Get(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NotFound(notFound)
		}
		return nil, err
	}
	return blog, nil
}

func (s *blogService) reload(ctx context.Context, id string) (*domain.Blog, error) {
	blog, err := s.load(ctx, id, "Blog not found")
	if err != nil {
		return nil, err
	}
	if err := s.resolveEditors(ctx, blog); err != nil {
		return nil, err
	}
	return blog, nil
}

// resolveEditors fills AssignedEditor for each blog. An editor account that no
// longer exists leaves the reference empty.
func (s *blogService) resolveEditors(ctx context.Context, blogs ...*domain.Blog) error {
	seen := make(map[string]*domain.EditorRef)
	for _, blog := range blogs {
		if !blog.IsAssigned() {
			continue
		}
		id := *blog.AssignedEditorID
		ref, ok := seen[id]
		if !ok {
			user, err := s.users.GetByID(ctx, id)
			switch {
			case err == nil:
				ref = &domain.EditorRef{ID: user.ID, Username: user.Username, Role: user.Role}
			case errors.Is(err, domain.ErrNotFound):
				ref = nil
			default:
				return fmt.Errorf("resolve editor %s: %w", id, err)
			}
			seen[id] = ref
		}
		blog.AssignedEditor = ref
	}
	return nil
}

func (s *blogService) archive(ctx context.Context, blog *domain.Blog) {
	if s.archiver == nil {
		return
	}
	logger := s.logger.WithField("blog_id", blog.ID)
	location, err := s.archiver.Archive(ctx, blog)
	if err != nil {
		logger.Warnf("archive deleted blog: %v", err)
		return
	}
	logger.Infof("archived deleted blog to %s", location)
}

// validID accepts only the canonical 36 character UUID form ids are stored in.
func validID(id string) bool {
	if len(id) != 36 {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}
