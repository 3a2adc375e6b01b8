package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/FACorreiaa/trexense-api/config"
	"github.com/FACorreiaa/trexense-api/internal/api"
	"github.com/FACorreiaa/trexense-api/internal/types"
)

// TokenService issues and validates the HS256 tokens of every type.
type TokenService struct {
	secret []byte
	cfg    config.JWTConfig
	now    func() time.Time
}

func NewTokenService(cfg config.JWTConfig) *TokenService {
	return &TokenService{
		secret: []byte(cfg.SecretKey),
		cfg:    cfg,
		now:    time.Now,
	}
}

// GenerateAuthTokens issues an access/refresh pair carrying name and role.
func (s *TokenService) GenerateAuthTokens(user *types.User) (*types.Tokens, error) {
	access, err := s.sign(types.Claims{
		UserID: user.ID.String(),
		Type:   types.TokenAccess,
		Name:   user.Name,
		Role:   user.Role,
	}, s.cfg.AccessTokenTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := s.sign(types.Claims{
		UserID: user.ID.String(),
		Type:   types.TokenRefresh,
		Name:   user.Name,
		Role:   user.Role,
	}, s.cfg.RefreshTokenTTL)
	if err != nil {
		return nil, err
	}
	return &types.Tokens{Access: access, Refresh: refresh}, nil
}

func (s *TokenService) GenerateVerifyEmailToken(userID uuid.UUID, email string) (string, error) {
	return s.sign(types.Claims{
		UserID: userID.String(),
		Type:   types.TokenVerifyEmail,
		Email:  email,
	}, s.cfg.VerifyEmailTTL)
}

// GenerateResetPasswordToken embeds the already hashed new password.
func (s *TokenService) GenerateResetPasswordToken(userID uuid.UUID, passwordHash string) (string, error) {
	return s.sign(types.Claims{
		UserID:      userID.String(),
		Type:        types.TokenResetPassword,
		NewPassword: passwordHash,
	}, s.cfg.ResetPasswordTTL)
}

func (s *TokenService) sign(claims types.Claims, ttl time.Duration) (string, error) {
	now := s.now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:    s.cfg.Issuer,
		Subject:   claims.UserID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", claims.Type, err)
	}
	return signed, nil
}

// Parse validates signature, expiry, issuer and type. Every failure is Unauthorized.
func (s *TokenService) Parse(tokenString string, expected types.TokenType) (*types.Claims, error) {
	claims := &types.Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.cfg.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, &api.Error{Kind: api.KindUnauthorized, Message: "Token has expired", Err: err}
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, &api.Error{Kind: api.KindUnauthorized, Message: "Malformed token", Err: err}
		default:
			return nil, &api.Error{Kind: api.KindUnauthorized, Message: "Invalid token", Err: err}
		}
	}
	if claims.Type != expected {
		return nil, api.Unauthorized("Invalid token type")
	}
	if _, err := uuid.Parse(claims.UserID); err != nil {
		return nil, &api.Error{Kind: api.KindUnauthorized, Message: "Invalid token subject", Err: err}
	}
	return claims, nil
}
