package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yigit/exchangeintake/internal/app/models/dto"
	"github.com/yigit/exchangeintake/internal/pkg/apperrors"
	"github.com/yigit/exchangeintake/internal/pkg/auth"
)

// AdminCredentials is the single configured administrator account
type AdminCredentials struct {
	Email        string
	PasswordHash string
}

// AdminSession is an issued session token and what it stands for
type AdminSession struct {
	Token    string
	Response dto.SessionResponse
}

// AuthService signs the administrator in and checks session tokens
type AuthService interface {
	Login(ctx context.Context, req dto.LoginRequest) (*AdminSession, error)
	Verify(ctx context.Context, token string) (*dto.SessionResponse, error)
}

type authServiceImpl struct {
	admin      AdminCredentials
	jwtService *auth.JWTService
	logger     zerolog.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(admin AdminCredentials, jwtService *auth.JWTService, logger zerolog.Logger) AuthService {
	admin.Email = strings.ToLower(strings.TrimSpace(admin.Email))
	return &authServiceImpl{
		admin:      admin,
		jwtService: jwtService,
		logger:     logger,
	}
}

// Login checks the credentials and issues a session token
func (s *authServiceImpl) Login(ctx context.Context, req dto.LoginRequest) (*AdminSession, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	// Always run bcrypt so a wrong email costs the same as a wrong password
	passwordOK := auth.CheckPassword(s.admin.PasswordHash, req.Password)
	if email != s.admin.Email || !passwordOK {
		s.logger.Warn().Str("email", email).Msg("Failed admin login attempt")
		return nil, apperrors.NewCustomError(apperrors.ErrInvalidCredentials, "Invalid email or password")
	}

	token, expiresAt, err := s.jwtService.GenerateSessionToken(email)
	if err != nil {
		return nil, fmt.Errorf("error generating session token: %w", err)
	}

	s.logger.Info().Str("email", email).Msg("Admin signed in")
	return &AdminSession{
		Token: token,
		Response: dto.SessionResponse{
			Authenticated: true,
			Session:       dto.SessionInfo{Email: email, ExpiresAt: expiresAt},
		},
	}, nil
}

// Verify validates a session token
func (s *authServiceImpl) Verify(ctx context.Context, token string) (*dto.SessionResponse, error) {
	if token == "" {
		return nil, apperrors.NewCustomError(apperrors.ErrTokenNotFound, "Not authenticated")
	}
	claims, err := s.jwtService.ValidateToken(token)
	if err != nil {
		return nil, err
	}
	resp := &dto.SessionResponse{
		Authenticated: true,
		Session:       dto.SessionInfo{Email: claims.Email},
	}
	if claims.ExpiresAt != nil {
		resp.Session.ExpiresAt = claims.ExpiresAt.Time
	}
	return resp, nil
}
