package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gharseva/gharseva-backend/internal/users"
	pkgauth "github.com/gharseva/gharseva-backend/pkg/auth"
	"github.com/gharseva/gharseva-backend/pkg/config"
	"github.com/gharseva/gharseva-backend/pkg/enums"
	pkgerrors "github.com/gharseva/gharseva-backend/pkg/errors"
	"github.com/gharseva/gharseva-backend/pkg/security"
)

// Service issues accounts and access tokens. Login deliberately
// returns the same error for a missing user and a wrong password.
type Service interface {
	Register(ctx context.Context, params RegisterParams) (*Session, error)
	Login(ctx context.Context, email, password string) (*Session, error)
}

type service struct {
	repo        users.Repository
	jwtConfig   config.JWTConfig
	passwordCfg config.PasswordConfig
}

// RegisterParams captures a signup request. Role defaults to customer;
// admin accounts are never self registered.
type RegisterParams struct {
	Email    string
	Password string
	FullName string
	Phone    *string
	Role     enums.UserRole
}

// Session is the authenticated response payload.
type Session struct {
	User        *users.UserDTO `json:"user"`
	AccessToken string         `json:"access_token"`
	ExpiresAt   time.Time      `json:"expires_at"`
}

func NewService(repo users.Repository, jwtCfg config.JWTConfig, passwordCfg config.PasswordConfig) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "users repository required")
	}
	if jwtCfg.Secret == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "jwt secret required")
	}
	return &service{repo: repo, jwtConfig: jwtCfg, passwordCfg: passwordCfg}, nil
}

func (s *service) Register(ctx context.Context, params RegisterParams) (*Session, error) {
	email := strings.ToLower(strings.TrimSpace(params.Email))
	fullName := strings.TrimSpace(params.FullName)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email required")
	}
	if fullName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "full name required")
	}
	if len(params.Password) < 8 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password must be at least 8 characters")
	}

	role := params.Role
	if role == "" {
		role = enums.UserRoleCustomer
	}
	if role == enums.UserRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin accounts cannot self register")
	}
	if !role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
	}

	if existing, err := s.repo.FindByEmail(ctx, email); err == nil && existing != nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing account")
	}

	hash, err := security.HashPassword(params.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user := users.CreateUserDTO{
		Email:        email,
		PasswordHash: hash,
		FullName:     fullName,
		Phone:        params.Phone,
		Role:         role,
	}.ToModel()
	user.ID = uuid.New()
	if role == enums.UserRoleProvider {
		pending := enums.VerificationStatusPending
		user.VerificationStatus = &pending
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist user")
	}
	return s.mintSession(user.Role, users.FromModel(user))
}

func (s *service) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email and password required")
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load account")
	}

	ok, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}
	if !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "account is suspended")
	}

	now := time.Now().UTC()
	if err := s.repo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record login")
	}
	user.LastLoginAt = &now

	return s.mintSession(user.Role, users.FromModel(user))
}

func (s *service) mintSession(role enums.UserRole, dto *users.UserDTO) (*Session, error) {
	now := time.Now().UTC()
	token, err := pkgauth.MintAccessToken(s.jwtConfig, now, pkgauth.AccessTokenPayload{
		UserID: dto.ID,
		Role:   role,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}

	return &Session{
		User:        dto,
		AccessToken: token,
		ExpiresAt:   now.Add(time.Duration(s.jwtConfig.ExpirationMinutes) * time.Minute),
	}, nil
}
