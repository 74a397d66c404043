package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"miniblog/internal/domain"
	"miniblog/internal/repository"
	"miniblog/internal/session"
)

var emailRx = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// dummyHash is compared against when the email is unknown so that lookups for
// existing and missing accounts take the same time.
var dummyHash = []byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy")

// AuthService verifies credentials and drives the session lifecycle.
type AuthService interface {
	Register(ctx context.Context, email, password string) (*domain.User, error)
	Authenticate(ctx context.Context, email, password string) (*domain.User, error)
	// CurrentUser resolves a session token to its user. It returns nil, nil
	// for anonymous sessions, unknown tokens and dangling user references.
	CurrentUser(ctx context.Context, token string) (*domain.User, error)
	// Login creates a fresh authenticated session for the user. Issuing a new
	// token on every login keeps pre-login tokens worthless.
	Login(ctx context.Context, user *domain.User) (*session.Session, error)
	// Logout destroys the session behind the token.
	Logout(ctx context.Context, token string) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

type authService struct {
	users    repository.UserRepository
	sessions session.Store
}

func NewAuthService(users repository.UserRepository, sessions session.Store) AuthService {
	return &authService{
		users:    users,
		sessions: sessions,
	}
}

func (s *authService) Register(ctx context.Context, email, password string) (*domain.User, error) {
	email = normalizeEmail(email)

	if email == "" {
		return nil, validationErr("email", "is required")
	}
	if !emailRx.MatchString(email) {
		return nil, validationErr("email", "is not a valid address")
	}
	if password == "" {
		return nil, validationErr("password", "is required")
	}
	if len(password) < 8 {
		return nil, validationErr("password", "must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Email:        email,
		PasswordHash: string(hash),
	}

	if _, err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, validationErr("email", "is already taken")
		}
		return nil, err
	}

	return sanitizeUser(user), nil
}

func (s *authService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// burn the same bcrypt work as the found path
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return sanitizeUser(user), nil
}

func (s *authService) CurrentUser(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, nil
	}

	sess, err := s.sessions.Get(ctx, token)
	if err != nil {
		return nil, err
	}
	if sess == nil || sess.UserID == 0 {
		return nil, nil
	}

	user, err := s.users.GetByID(ctx, sess.UserID)
	if err != nil {
		// a dangling user id means anonymous, not an error
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return sanitizeUser(user), nil
}

func (s *authService) Login(ctx context.Context, user *domain.User) (*session.Session, error) {
	sess, err := s.sessions.Create(ctx)
	if err != nil {
		return nil, err
	}

	sess.UserID = user.ID
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *authService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.sessions.Delete(ctx, token)
}

func (s *authService) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return sanitizeUser(user), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func sanitizeUser(user *domain.User) *domain.User {
	if user == nil {
		return nil
	}
	return &domain.User{
		ID:        user.ID,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}
