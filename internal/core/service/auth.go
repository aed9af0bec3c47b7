package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/niksmo/storebuilder/internal/core/domain"
	"github.com/shopspring/decimal"
)

func (s *Service) Register(
	ctx context.Context, reg domain.Registration,
) (domain.Session, error) {
	const op = "Service.Register"
	log := slog.With("op", op)

	u, err := domain.NewUser(reg.Username, reg.Email, reg.Password, s.now())
	if err != nil {
		return domain.Session{}, fmt.Errorf("%s: %w", op, err)
	}
	u.ID = s.newID()

	var referrer domain.User
	if code := strings.TrimSpace(reg.ReferralCode); code != "" {
		referrer, err = s.storage.ReadUserByReferralCode(ctx, code)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			log.Warn("unknown referral code", "code", code)
		case err != nil:
			return domain.Session{}, fmt.Errorf("%s: %w", op, err)
		default:
			u.Affiliate.ReferredBy = referrer.ID
		}
	}

	if err := s.storage.CreateUser(ctx, u); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return domain.Session{}, fmt.Errorf(
				"%s: %w", op,
				domain.Invalid("user with this email or username already exists"),
			)
		}
		return domain.Session{}, fmt.Errorf("%s: %w", op, err)
	}

	if u.Affiliate.ReferredBy != "" {
		err := s.storage.AddReferral(ctx, referrer.ID, domain.Referral{
			UserID:           u.ID,
			DateReferred:     u.CreatedAt,
			CommissionEarned: decimal.Zero,
		})
		if err != nil {
			log.Error("failed to record referral", "referrer", referrer.ID, "err", err)
		}
	}

	return s.session(op, u)
}

func (s *Service) Login(
	ctx context.Context, email, password string,
) (domain.Session, error) {
	const op = "Service.Login"

	errCredentials := fmt.Errorf(
		"%s: %w: invalid credentials", op, domain.ErrUnauthenticated,
	)

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return domain.Session{}, fmt.Errorf(
			"%s: %w", op, domain.Invalid("please provide email and password"),
		)
	}

	u, err := s.storage.ReadUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Session{}, errCredentials
		}
		return domain.Session{}, fmt.Errorf("%s: %w", op, err)
	}
	if !u.PasswordMatches(password) {
		return domain.Session{}, errCredentials
	}

	now := s.now()
	u.LastLogin = &now
	u.UpdatedAt = now
	if err := s.storage.UpdateUser(ctx, u); err != nil {
		return domain.Session{}, fmt.Errorf("%s: %w", op, err)
	}

	return s.session(op, u)
}

func (s *Service) session(op string, u domain.User) (domain.Session, error) {
	token, err := s.tokens.IssueToken(u.ID)
	if err != nil {
		return domain.Session{}, fmt.Errorf("%s: %w", op, err)
	}
	return domain.Session{Token: token, User: u}, nil
}

// Authenticate resolves a bearer token to a live user.
func (s *Service) Authenticate(
	ctx context.Context, token string,
) (domain.User, error) {
	const op = "Service.Authenticate"

	userID, err := s.tokens.ParseToken(token)
	if err != nil {
		return domain.User{}, fmt.Errorf("%s: %w", op, err)
	}

	u, err := s.storage.ReadUser(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.User{}, fmt.Errorf(
				"%s: %w: user not found", op, domain.ErrUnauthenticated,
			)
		}
		return domain.User{}, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}
