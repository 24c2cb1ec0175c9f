package auth

import (
	"context"
	"errors"

	autherrors "go-ems/internal/auth/errors"
	"go-ems/internal/auth/token"
	"go-ems/internal/session"
	"go-ems/internal/shared/apperror"
	"go-ems/internal/shared/contextutil"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

//go:generate mockgen -source=auth_service.go -destination=mock/auth_service_mock.go -package=mock
type Service interface {
	Login(ctx context.Context, email, password string) (accessToken, refreshToken string, resp AuthResponse, err error)

	RefreshToken(ctx context.Context, refreshToken string) (newAccessToken, newRefreshToken string, resp AuthResponse, err error)

	GetMe(ctx context.Context, sess session.Session) (*AuthResponse, error)

	Register(ctx context.Context, req RegisterRequest) (AuthResponse, error)

	// CreateCredential and RemoveCredential back employee onboarding and removal.
	CreateCredential(ctx context.Context, email, name, password string) error
	RemoveCredential(ctx context.Context, email string) error
}

type service struct {
	repo        Repository
	tokens      *token.Manager
	adminDomain string
	logger      *zap.Logger
}

func NewService(repo Repository, tokens *token.Manager, adminDomain string, logger ...*zap.Logger) Service {
	l := zap.L().Named("auth.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("auth.service")
	}
	return &service{repo: repo, tokens: tokens, adminDomain: adminDomain, logger: l}
}

func (s *service) getLogger(ctx context.Context) *zap.Logger {
	return contextutil.GetLogger(ctx, s.logger)
}

func (s *service) Login(ctx context.Context, email, password string) (string, string, AuthResponse, error) {
	email = session.NormalizeEmail(email)

	// 1. ambil user
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.getLogger(ctx).Error("credential lookup failed", zap.String("email", email), zap.Error(err))
		}
		return "", "", AuthResponse{}, autherrors.ErrInvalidCredentials
	}

	// 2. verifikasi password
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", "", AuthResponse{}, autherrors.ErrInvalidCredentials
	}
	if !user.IsActive {
		return "", "", AuthResponse{}, autherrors.ErrUserInactive
	}

	// 3. role dari domain email
	role := session.RoleForEmail(user.Email, s.adminDomain)
	access, refresh, err := s.tokens.IssuePair(user.Email, string(role))
	if err != nil {
		return "", "", AuthResponse{}, err
	}

	s.getLogger(ctx).Info("login succeeded", zap.String("email", user.Email), zap.String("role", string(role)))
	return access, refresh, s.toResponse(user), nil
}

func (s *service) RefreshToken(ctx context.Context, refreshToken string) (string, string, AuthResponse, error) {
	claims, err := s.tokens.Parse(refreshToken, token.TypeRefresh)
	if err != nil {
		return "", "", AuthResponse{}, autherrors.ErrInvalidRefreshToken
	}

	user, err := s.repo.GetByEmail(ctx, claims.Email)
	if err != nil {
		return "", "", AuthResponse{}, autherrors.ErrUserNotFound
	}
	if !user.IsActive {
		return "", "", AuthResponse{}, autherrors.ErrUserInactive
	}

	role := session.RoleForEmail(user.Email, s.adminDomain)
	access, refresh, err := s.tokens.IssuePair(user.Email, string(role))
	if err != nil {
		return "", "", AuthResponse{}, err
	}
	return access, refresh, s.toResponse(user), nil
}

func (s *service) GetMe(ctx context.Context, sess session.Session) (*AuthResponse, error) {
	if sess.IsZero() {
		return nil, apperror.ErrUnauthorized
	}
	user, err := s.repo.GetByEmail(ctx, sess.Email)
	if err != nil {
		return nil, autherrors.ErrUserNotFound
	}
	resp := s.toResponse(user)
	return &resp, nil
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (AuthResponse, error) {
	if !apperror.IsStrongPassword(req.Password) {
		return AuthResponse{}, autherrors.ErrWeakPassword
	}

	user, err := s.create(ctx, req.Email, req.Username, req.Password)
	if err != nil {
		return AuthResponse{}, err
	}
	return s.toResponse(user), nil
}

func (s *service) CreateCredential(ctx context.Context, email, name, password string) error {
	_, err := s.create(ctx, email, name, password)
	return err
}

func (s *service) RemoveCredential(ctx context.Context, email string) error {
	email = session.NormalizeEmail(email)
	if err := s.repo.DeleteByEmail(ctx, email); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return autherrors.ErrUserNotFound
		}
		s.getLogger(ctx).Error("credential removal failed", zap.String("email", email), zap.Error(err))
		return apperror.StoreUnavailable(err)
	}
	return nil
}

func (s *service) create(ctx context.Context, email, name, password string) (*User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperror.ErrInternal.WithCause(err)
	}

	email = session.NormalizeEmail(email)
	user := &User{
		ID:       uuid.New(),
		Name:     name,
		Email:    email,
		Password: string(hashed),
		Role:     string(session.RoleForEmail(email, s.adminDomain)),
		IsActive: true,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return nil, autherrors.ErrEmailAlreadyRegistered
		}
		s.getLogger(ctx).Error("credential create failed", zap.String("email", email), zap.Error(err))
		return nil, apperror.StoreUnavailable(err)
	}
	return user, nil
}

func (s *service) toResponse(u *User) AuthResponse {
	return AuthResponse{
		ID:    u.ID.String(),
		Email: u.Email,
		Name:  u.Name,
		Role:  string(session.RoleForEmail(u.Email, s.adminDomain)),
	}
}
