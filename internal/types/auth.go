package types

import (
	"github.com/golang-jwt/jwt/v5"
)

// TokenType discriminates the purpose of a signed token.
type TokenType string

const (
	TokenAccess        TokenType = "access"
	TokenRefresh       TokenType = "refresh"
	TokenVerifyEmail   TokenType = "verify_email"
	TokenResetPassword TokenType = "reset_password"
)

// Claims is the payload of every token the service issues.
type Claims struct {
	UserID      string    `json:"userId"`
	Type        TokenType `json:"type"`
	Name        string    `json:"name,omitempty"`
	Role        string    `json:"role,omitempty"`
	Email       string    `json:"email,omitempty"`
	NewPassword string    `json:"newPassword,omitempty"` // bcrypt hash, reset-password tokens only
	jwt.RegisteredClaims
}

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,password"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResult is what a successful login hands back to the handler.
type LoginResult struct {
	User   *User
	Tokens *Tokens
}
