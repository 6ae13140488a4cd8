package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/buildtalk/forum/internal/models"
	"github.com/buildtalk/forum/internal/repository"
	"github.com/buildtalk/forum/internal/utils"
	"github.com/buildtalk/forum/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type RegisterInput struct {
	Email     string
	Password  string
	FirstName *string
	LastName  *string
}

// FederatedProfile is the subset of an OpenID userinfo document kept locally.
type FederatedProfile struct {
	Subject         string
	Email           *string
	FirstName       *string
	LastName        *string
	ProfileImageURL *string
}

type AuthService struct {
	users repository.UserRepository
}

func NewAuthService(users repository.UserRepository) *AuthService {
	return &AuthService{users: users}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	start := time.Now()
	email := normalizeEmail(in.Email)

	logger.Log.Debug("Processing user registration", zap.String("email", email))

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if existing != nil {
		logger.Log.Warn("Email already exists", zap.String("email", email))
		return nil, ErrEmailAlreadyExists
	}

	hashStart := time.Now()
	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	hashDuration := time.Since(hashStart)

	user := &models.User{
		Email:        &email,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PasswordHash: &hash,
		Role:         models.RoleDIY,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailAlreadyExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	logger.Log.Info("User registered successfully",
		zap.String("user_id", user.ID.String()),
		zap.String("email", email),
		zap.Duration("hash_duration", hashDuration),
		zap.Duration("total_duration", time.Since(start)),
	)
	return user, nil
}

// Login never tells the caller whether the email exists.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, error) {
	email = normalizeEmail(email)

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if user == nil || user.PasswordHash == nil {
		utils.VerifyDummy(password)
		logger.Log.Warn("Login failed: no local credential", zap.String("email", email))
		return nil, ErrInvalidCredentials
	}

	valid, err := utils.VerifyPassword(password, *user.PasswordHash)
	if err != nil {
		logger.Log.Error("Stored password hash is unreadable",
			zap.String("user_id", user.ID.String()),
			zap.Error(err),
		)
		return nil, ErrInvalidCredentials
	}
	if !valid {
		logger.Log.Warn("Login failed: invalid password", zap.String("user_id", user.ID.String()))
		return nil, ErrInvalidCredentials
	}

	logger.Log.Info("User logged in successfully", zap.String("user_id", user.ID.String()))
	return user, nil
}

// UpsertFederated finds the local user for an external identity by subject,
// then by email, creating one when neither matches. Profile fields supplied
// by the provider are refreshed on every login.
func (s *AuthService) UpsertFederated(ctx context.Context, p FederatedProfile) (*models.User, error) {
	if p.Subject == "" {
		return nil, errors.New("federated profile has no subject")
	}
	if p.Email != nil {
		normalized := normalizeEmail(*p.Email)
		p.Email = &normalized
	}

	user, err := s.users.GetByExternalSubject(ctx, p.Subject)
	if err != nil {
		return nil, fmt.Errorf("load user by subject: %w", err)
	}
	if user == nil && p.Email != nil {
		if user, err = s.users.GetByEmail(ctx, *p.Email); err != nil {
			return nil, fmt.Errorf("load user by email: %w", err)
		}
	}

	if user == nil {
		subject := p.Subject
		user = &models.User{
			Email:           p.Email,
			FirstName:       p.FirstName,
			LastName:        p.LastName,
			ProfileImageURL: p.ProfileImageURL,
			ExternalSubject: &subject,
		}
		if err := s.users.Create(ctx, user); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return nil, ErrConflict
			}
			return nil, fmt.Errorf("create federated user: %w", err)
		}
		logger.Log.Info("Federated user created", zap.String("user_id", user.ID.String()))
		return user, nil
	}

	subject := p.Subject
	user.ExternalSubject = &subject
	if p.Email != nil {
		user.Email = p.Email
	}
	if p.FirstName != nil {
		user.FirstName = p.FirstName
	}
	if p.LastName != nil {
		user.LastName = p.LastName
	}
	if p.ProfileImageURL != nil {
		user.ProfileImageURL = p.ProfileImageURL
	}
	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("update federated user: %w", err)
	}
	return user, nil
}

func (s *AuthService) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// EnsureUser creates a placeholder user with the given id unless one exists.
// It backs the development fallback author.
func (s *AuthService) EnsureUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if user != nil {
		return user, nil
	}

	user = &models.User{
		ID:        id,
		FirstName: models.StringPtr("Demo"),
		LastName:  models.StringPtr("User"),
	}
	if err := s.users.Create(ctx, user); err != nil && !errors.Is(err, repository.ErrDuplicate) {
		return nil, fmt.Errorf("create fallback user: %w", err)
	}

	logger.Log.Info("Development fallback user ready", zap.String("user_id", id.String()))
	return user, nil
}
