package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"

	"github.com/okian/hackreg/internal/adapters/repository"
	"github.com/okian/hackreg/internal/domain/model"
	"github.com/okian/hackreg/pkg/logger"
)

// Login finds the user with email, creating one on first sign in.
// keyVerified reports that the caller presented the admin key; only then is
// a listed admin email promoted. An email alone never grants admin.
func (s *Service) Login(ctx context.Context, email, name string, keyVerified bool) (*model.User, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEmail, err)
	}
	email = addr.Address
	admin := keyVerified && s.isAdminEmail(email)

	u, err := s.store.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		changed := false
		if admin && !u.Admin {
			u.Admin, changed = true, true
		}
		if name = strings.TrimSpace(name); name != "" && u.Name != name {
			u.Name, changed = name, true
		}
		if changed {
			if err := s.store.UpdateUser(ctx, u); err != nil {
				return nil, fmt.Errorf("update user: %w", err)
			}
		}
		return u, nil
	case errors.Is(err, repository.ErrNotFound):
	default:
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	u = &model.User{
		ID:        uuid.NewString(),
		Email:     email,
		Name:      strings.TrimSpace(name),
		Admin:     admin,
		CreatedAt: s.now(),
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			// A concurrent first sign in won the insert.
			if existing, lookupErr := s.store.GetUserByEmail(ctx, email); lookupErr == nil {
				return existing, nil
			}
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.logger.Info(ctx, "user created",
		logger.String("user", u.ID),
		logger.Bool("admin", u.Admin),
	)
	return u, nil
}
