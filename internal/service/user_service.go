package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"blog-api/internal/auth"
	"blog-api/internal/domain"
	"blog-api/internal/repository"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// VerificationMailer hands a verification link to the mail pipeline.
// Delivery happens in the background; an error means the mail was not queued.
type VerificationMailer interface {
	SendVerification(ctx context.Context, to, username, token string) error
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
	Role     domain.Role
}

// AccountService describes user lifecycle operations.
type AccountService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	Login(ctx context.Context, username, password string) (string, error)
	VerifyEmail(ctx context.Context, token string) error
	ResendVerification(ctx context.Context, email string) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

type accountService struct {
	users  repository.UserRepository
	tokens *auth.TokenService
	hasher *auth.Hasher
	mailer VerificationMailer
	logger *logrus.Logger
}

func NewAccountService(users repository.UserRepository, tokens *auth.TokenService, hasher *auth.Hasher, mailer VerificationMailer, logger *logrus.Logger) AccountService {
	if logger == nil {
		logger = logrus.New()
	}
	return &accountService{
		users:  users,
		tokens: tokens,
		hasher: hasher,
		mailer: mailer,
		logger: logger,
	}
}

func (s *accountService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.TrimSpace(in.Email)

	if err := s.ensureAvailable(ctx, username, email); err != nil {
		return nil, err
	}

	if username == "" {
		return nil, domain.InvalidInput("Invalid username")
	}
	if strings.TrimSpace(in.Password) == "" {
		return nil, domain.InvalidInput("Invalid Password")
	}
	if email == "" {
		return nil, domain.InvalidInput("Invalid email")
	}
	if !emailPattern.MatchString(email) {
		return nil, domain.InvalidInput("Invalid email format")
	}
	if !in.Role.Valid() {
		return nil, domain.InvalidInput("Invalid role")
	}

	token, err := s.tokens.IssueVerificationToken(username)
	if err != nil {
		return nil, err
	}
	hash, err := s.hasher.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		ID:                uuid.NewString(),
		Username:          username,
		Email:             email,
		PasswordHash:      hash,
		Role:              in.Role,
		EmailVerified:     false,
		VerificationToken: &token,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.queueVerification(ctx, user, token)
	return sanitizeUser(user), nil
}

// ensureAvailable rejects a username or email that already belongs to an account.
func (s *accountService) ensureAvailable(ctx context.Context, username, email string) error {
	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return domain.NewError(domain.ErrDuplicateAccount, "Username already Exist")
	} else if !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return domain.NewError(domain.ErrDuplicateAccount, "User already Exist with this Email")
	} else if !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return nil
}

func (s *accountService) Login(ctx context.Context, username, password string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return "", domain.InvalidInput("Invalid Username")
	}
	if strings.TrimSpace(password) == "" {
		return "", domain.InvalidInput("Invalid Password")
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", domain.NotFound("User doesn't Exists")
		}
		return "", err
	}

	if !s.hasher.VerifyPassword(password, user.PasswordHash) {
		return "", domain.NewError(domain.ErrUnauthorized, "Password doesn't Match")
	}

	return s.tokens.IssueSessionToken(user.ID)
}

func (s *accountService) VerifyEmail(ctx context.Context, token string) error {
	claims, err := s.tokens.VerifyToken(token, auth.PurposeEmailVerification)
	if err != nil {
		return domain.NewError(domain.ErrInvalidToken, "Invalid or Token Expired")
	}

	user, err := s.users.GetByUsername(ctx, claims.Username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NotFound("User not Found")
		}
		return err
	}

	user.MarkEmailVerified()
	if err := s.users.UpdateVerification(ctx, user.ID, user.EmailVerified, user.VerificationToken); err != nil {
		return fmt.Errorf("mark email verified: %w", err)
	}
	return nil
}

// ResendVerification issues a fresh token for an unverified account. Unknown
// and already verified addresses succeed silently.
func (s *accountService) ResendVerification(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return domain.InvalidInput("Invalid email")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}
	if user.EmailVerified {
		return nil
	}

	token, err := s.tokens.IssueVerificationToken(user.Username)
	if err != nil {
		return err
	}
	if err := s.users.UpdateVerification(ctx, user.ID, false, &token); err != nil {
		return fmt.Errorf("store verification token: %w", err)
	}

	s.queueVerification(ctx, user, token)
	return nil
}

func (s *accountService) GetByID(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return sanitizeUser(user), nil
}

func (s *accountService) queueVerification(ctx context.Context, user *domain.User, token string) {
	if s.mailer == nil {
		return
	}
	if err := s.mailer.SendVerification(ctx, user.Email, user.Username, token); err != nil {
		s.logger.WithFields(logrus.Fields{
			"user_id": user.ID,
			"email":   user.Email,
		}).Warnf("queue verification mail: %v", err)
	}
}

func sanitizeUser(user *domain.User) *domain.User {
	if user == nil {
		return nil
	}
	return &domain.User{
		ID:             user.ID,
		Username:       user.Username,
		Email:          user.Email,
		Role:           user.Role,
		EmailVerified:  user.EmailVerified,
		AssignedBlogID: user.AssignedBlogID,
		CreatedAt:      user.CreatedAt,
		UpdatedAt:      user.UpdatedAt,
	}
}
