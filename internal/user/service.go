package user

import (
	"context"
	"errors"
	"strings"

	"serviceconnect/internal/api"
	"serviceconnect/internal/auth"
	"serviceconnect/internal/logger"
)

var ErrInvalidCredentials = api.Errorf(api.ErrUnauthorized, "invalid email or password")

type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, req LoginRequest) (*AuthResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error)
	GetByID(ctx context.Context, userID int) (*User, error)
}

type service struct {
	repo       Repository
	issuer     *auth.Issuer
	adminEmail string
}

// NewService builds the account service. A login whose email equals
// adminEmail is issued an admin token regardless of the stored role.
func NewService(repo Repository, issuer *auth.Issuer, adminEmail string) Service {
	return &service{
		repo:       repo,
		issuer:     issuer,
		adminEmail: strings.ToLower(strings.TrimSpace(adminEmail)),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *service) effectiveRole(u *User) auth.Role {
	if s.adminEmail != "" && u.Email == s.adminEmail {
		return auth.RoleAdmin
	}
	return u.Role
}

func (s *service) issue(u *User) (*AuthResponse, error) {
	u.Role = s.effectiveRole(u)
	tokens, err := s.issuer.Issue(auth.Principal{UserID: u.ID, Email: u.Email, Role: u.Role})
	if err != nil {
		return nil, err
	}
	return &AuthResponse{User: u, Tokens: tokens}, nil
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	req.Email = normalizeEmail(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	if err := api.ValidateStruct(req); err != nil {
		return nil, err
	}

	exists, err := s.repo.EmailExists(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, api.Errorf(api.ErrConflict, "email already registered")
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	u := &User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         auth.Role(req.Role),
		Phone:        strings.TrimSpace(req.Phone),
	}
	if err := s.repo.CreateWithWallet(ctx, u); err != nil {
		return nil, err
	}

	logger.Info("user registered", "user_id", u.ID, "role", u.Role)
	return s.issue(u)
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	req.Email = normalizeEmail(req.Email)
	if err := api.ValidateStruct(req); err != nil {
		return nil, err
	}

	u, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !auth.CheckPassword(u.PasswordHash, req.Password) {
		return nil, ErrInvalidCredentials
	}

	if s.effectiveRole(u) == auth.RoleAdmin && u.Role != auth.RoleAdmin {
		logger.Warn("admin role granted by configured email", "user_id", u.ID)
	}
	return s.issue(u)
}

func (s *service) Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	claims, err := s.issuer.ParseRefresh(refreshToken)
	if err != nil {
		return nil, api.Errorf(api.ErrUnauthorized, "%v", err)
	}

	u, err := s.repo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			return nil, api.Errorf(api.ErrUnauthorized, "user no longer exists")
		}
		return nil, err
	}

	u.Role = s.effectiveRole(u)
	access, err := s.issuer.AccessToken(auth.Principal{UserID: u.ID, Email: u.Email, Role: u.Role})
	if err != nil {
		return nil, err
	}
	return &AuthResponse{
		User: u,
		Tokens: auth.Tokens{
			AccessToken:  access,
			RefreshToken: refreshToken,
			ExpiresIn:    int64(auth.AccessTokenTTL.Seconds()),
		},
	}, nil
}

func (s *service) GetByID(ctx context.Context, userID int) (*User, error) {
	u, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	u.Role = s.effectiveRole(u)
	return u, nil
}
