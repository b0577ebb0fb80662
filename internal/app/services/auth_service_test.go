package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/exchangeintake/internal/app/models/dto"
	"github.com/yigit/exchangeintake/internal/pkg/apperrors"
	"github.com/yigit/exchangeintake/internal/pkg/auth"
	"golang.org/x/crypto/bcrypt"
)

func newTestAuthService(t *testing.T) AuthService {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	jwtService := auth.NewJWTService(auth.JWTConfig{SecretKey: "test-secret", SessionExp: time.Hour, TokenIssuer: "test"})
	return NewAuthService(AdminCredentials{Email: "Office@Example.edu", PasswordHash: string(hash)}, jwtService, zerolog.Nop())
}

func TestLoginAndVerify(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	session, err := svc.Login(ctx, dto.LoginRequest{Email: "office@example.edu", Password: "s3cret"})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if session.Token == "" || !session.Response.Authenticated {
		t.Fatalf("Expected issued session, got %+v", session)
	}

	verified, err := svc.Verify(ctx, session.Token)
	if err != nil {
		t.Fatalf("Expected valid token, got %v", err)
	}
	if verified.Session.Email != "office@example.edu" {
		t.Errorf("Expected session email, got %s", verified.Session.Email)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc := newTestAuthService(t)
	cases := []dto.LoginRequest{
		{Email: "office@example.edu", Password: "wrong"},
		{Email: "someone@example.edu", Password: "s3cret"},
	}
	for _, req := range cases {
		_, err := svc.Login(context.Background(), req)
		if !errors.Is(err, apperrors.ErrInvalidCredentials) {
			t.Errorf("Expected invalid credentials for %s, got %v", req.Email, err)
		}
		if apperrors.Message(err, "") != "Invalid email or password" {
			t.Errorf("Expected generic message, got %q", apperrors.Message(err, ""))
		}
	}
}

func TestVerifyRejectsMissingToken(t *testing.T) {
	svc := newTestAuthService(t)
	if _, err := svc.Verify(context.Background(), ""); !errors.Is(err, apperrors.ErrTokenNotFound) {
		t.Errorf("Expected token not found, got %v", err)
	}
	if _, err := svc.Verify(context.Background(), "garbage"); !errors.Is(err, apperrors.ErrTokenInvalid) {
		t.Errorf("Expected invalid token, got %v", err)
	}
}
