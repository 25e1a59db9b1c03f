package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/shopping_app/internal/events"
	"github.com/Skotchmaster/shopping_app/internal/hash"
	"github.com/Skotchmaster/shopping_app/internal/logging"
	"github.com/Skotchmaster/shopping_app/internal/models"
	"github.com/Skotchmaster/shopping_app/internal/repo"
)

type UserService struct {
	Repo   *repo.GormRepo
	Events events.Publisher
}

// ProfileUpdate holds the fields a user may change; nil fields are left alone.
type ProfileUpdate struct {
	FullName *string `json:"fullname"`
	Email    *string `json:"email"`
	Address  *string `json:"address"`
}

var (
	dummyHashOnce sync.Once
	dummyHash     string
)

// burnHash spends the same bcrypt work as a real comparison so unknown emails
// take as long to reject as wrong passwords.
func burnHash(password string) {
	dummyHashOnce.Do(func() {
		dummyHash, _ = hash.HashPassword("not-a-real-password")
	})
	hash.CheckPassword(dummyHash, password)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *UserService) SignUp(ctx context.Context, fullname, email, password string) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "user.signup")

	fullname = strings.TrimSpace(fullname)
	email = normalizeEmail(email)
	if fullname == "" || email == "" || password == "" {
		return nil, invalid("All fields are required")
	}

	pwHash, err := hash.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		FullName:     fullname,
		Email:        email,
		PasswordHash: pwHash,
		Role:         models.RoleUser,
	}
	if err := s.Repo.CreateUser(ctx, &user); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			l.Warn("signup_error", "status", 409, "reason", "email already registered")
			return nil, conflict("Email already registered")
		}
		return nil, err
	}

	events.Publish(ctx, s.Events, events.TopicUsers, user.ID.String(), map[string]any{
		"type":    "user_registered",
		"user_id": user.ID.String(),
		"email":   user.Email,
	})
	return &user, nil
}

// LogIn never tells a missing account apart from a wrong password.
func (s *UserService) LogIn(ctx context.Context, email, password string) (*models.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, invalid("Email and password are required")
	}

	user, err := s.Repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			burnHash(password)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !hash.CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	events.Publish(ctx, s.Events, events.TopicUsers, user.ID.String(), map[string]any{
		"type":    "user_logged_in",
		"user_id": user.ID.String(),
	})
	return user, nil
}

func (s *UserService) Profile(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.Repo.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("User not found")
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, id uuid.UUID, upd ProfileUpdate) (*models.User, error) {
	user, err := s.Profile(ctx, id)
	if err != nil {
		return nil, err
	}

	if upd.FullName != nil {
		name := strings.TrimSpace(*upd.FullName)
		if name == "" {
			return nil, invalid("fullname cannot be empty")
		}
		user.FullName = name
	}
	if upd.Email != nil {
		email := normalizeEmail(*upd.Email)
		if email == "" {
			return nil, invalid("email cannot be empty")
		}
		taken, err := s.Repo.EmailTaken(ctx, email, user.ID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, conflict("Email already registered")
		}
		user.Email = email
	}
	if upd.Address != nil {
		user.Address = strings.TrimSpace(*upd.Address)
	}

	if err := s.Repo.UpdateUser(ctx, user); err != nil {
		return nil, err
	}

	events.Publish(ctx, s.Events, events.TopicUsers, user.ID.String(), map[string]any{
		"type":    "user_updated",
		"user_id": user.ID.String(),
	})
	return user, nil
}

func (s *UserService) ChangePassword(ctx context.Context, id uuid.UUID, password string) error {
	if password == "" {
		return invalid("New password is required")
	}

	user, err := s.Profile(ctx, id)
	if err != nil {
		return err
	}

	pwHash, err := hash.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = pwHash
	if err := s.Repo.UpdateUser(ctx, user); err != nil {
		return err
	}

	events.Publish(ctx, s.Events, events.TopicUsers, user.ID.String(), map[string]any{
		"type":    "password_changed",
		"user_id": user.ID.String(),
	})
	return nil
}
