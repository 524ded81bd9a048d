package services

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"

	"github.com/avatarctic/perfmgmt-saas/internal/core/domain/auth"
	"github.com/avatarctic/perfmgmt-saas/internal/core/ports"
)

// AdminTokenService signs and verifies HS256 operator tokens. Tokens are issued
// out of band; the server only verifies them.
type AdminTokenService struct {
	secret []byte
	issuer string
	logger *logrus.Logger
}

var _ ports.TokenVerifier = (*AdminTokenService)(nil)

func NewAdminTokenService(secret, issuer string, logger *logrus.Logger) *AdminTokenService {
	return &AdminTokenService{secret: []byte(secret), issuer: issuer, logger: logger}
}

// IssueToken signs a token for subject with the given role.
func (s *AdminTokenService) IssueToken(subject, email, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &auth.Claims{
		Email: email,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (s *AdminTokenService) ValidateToken(ctx context.Context, tokenString string) (*auth.Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired()}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &auth.Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Ensure the token's signing method is HMAC (prevent alg confusion)
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, opts...)
	if err != nil {
		if s.logger != nil {
			s.logger.WithError(err).Debug("token rejected")
		}
		return nil, err
	}

	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(*auth.Claims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}
