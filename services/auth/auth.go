package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"loadly/models"
	"loadly/services/api"
	"loadly/services/session"

	"go.uber.org/zap"
)

// ErrAdminAccessDenied is returned when a non-admin account signs in to the back-office.
var ErrAdminAccessDenied = errors.New("Access denied. Admin privileges required.")

// AuthService signs users in and out of a browser session.
type AuthService interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.AuthResult, error)
	AdminLogin(ctx context.Context, req models.LoginRequest) (*models.AuthResult, error)
	Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResult, error)
	Logout(ctx context.Context) error
}

// DefaultAuthService is the production implementation.
type DefaultAuthService struct {
	Client  *api.Client
	Session *session.Session
	Logger  *zap.Logger
}

func NewAuthService(client *api.Client, sess *session.Session, logger *zap.Logger) *DefaultAuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DefaultAuthService{Client: client, Session: sess, Logger: logger}
}

func (s *DefaultAuthService) authenticate(ctx context.Context, req models.LoginRequest) (*models.AuthResult, error) {
	var res models.AuthResult
	if err := s.Client.Post(ctx, "/auth/login", req, &res); err != nil {
		return nil, api.Normalize(err, "Login failed. Please try again.")
	}
	if res.Token == "" {
		return nil, &api.Error{Message: "Login failed. Please try again."}
	}
	res.User.Role = strings.ToUpper(res.User.Role)
	return &res, nil
}

// Login stores the general bearer token and role hint.
func (s *DefaultAuthService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResult, error) {
	res, err := s.authenticate(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.Session.Auth.SetToken(ctx, res.Token); err != nil {
		return nil, fmt.Errorf("failed to store token: %w", err)
	}
	if err := s.Session.SetRole(ctx, res.User.Role); err != nil {
		s.Logger.Warn("auth: failed to store role hint", zap.Error(err))
	}
	s.Logger.Info("auth: user signed in", zap.String("userID", res.User.ID), zap.String("role", res.User.Role))
	return res, nil
}

// AdminLogin only stores a token for ADMIN and SUPER_ADMIN accounts.
func (s *DefaultAuthService) AdminLogin(ctx context.Context, req models.LoginRequest) (*models.AuthResult, error) {
	res, err := s.authenticate(ctx, req)
	if err != nil {
		return nil, err
	}
	if !models.IsAdminRole(res.User.Role) {
		s.Logger.Warn("auth: non-admin attempted back-office login", zap.String("userID", res.User.ID), zap.String("role", res.User.Role))
		return nil, ErrAdminAccessDenied
	}
	if err := s.Session.Admin.SetToken(ctx, res.Token); err != nil {
		return nil, fmt.Errorf("failed to store admin token: %w", err)
	}
	if err := s.Session.SetRole(ctx, res.User.Role); err != nil {
		s.Logger.Warn("auth: failed to store role hint", zap.Error(err))
	}
	s.Logger.Info("auth: admin signed in", zap.String("userID", res.User.ID))
	return res, nil
}

// Register creates a customer or driver account and signs it in.
func (s *DefaultAuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResult, error) {
	if req.Role == "" {
		req.Role = models.RoleCustomer
	}
	req.Role = strings.ToUpper(req.Role)
	if req.Role != models.RoleCustomer && req.Role != models.RoleDriver {
		return nil, &api.Error{Message: "Only customer and driver accounts can be registered."}
	}

	var res models.AuthResult
	if err := s.Client.Post(ctx, "/auth/register", req, &res); err != nil {
		return nil, api.Normalize(err, "Registration failed. Please try again.")
	}
	if res.Token != "" {
		if err := s.Session.Auth.SetToken(ctx, res.Token); err != nil {
			return nil, fmt.Errorf("failed to store token: %w", err)
		}
		_ = s.Session.SetRole(ctx, strings.ToUpper(res.User.Role))
	}
	return &res, nil
}

// Logout clears every credential in the session.
func (s *DefaultAuthService) Logout(ctx context.Context) error {
	return s.Session.Clear(ctx)
}
