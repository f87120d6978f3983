package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/sma-dashboard-gateway/internal/models"
	appErrors "github.com/noah-isme/sma-dashboard-gateway/pkg/errors"
)

// TokenClaims are the claims the identity provider puts in access tokens.
type TokenClaims struct {
	Role   models.UserRole `json:"role"`
	UserID interface{}     `json:"userId"`
	jwt.RegisteredClaims
}

// TokenService reads caller identity from bearer tokens. Signatures are not checked here: the
// backend verifies every forwarded token, so the gateway only needs the claims to pick endpoints.
type TokenService struct {
	parser *jwt.Parser
	now    func() time.Time
}

// NewTokenService constructs a TokenService.
func NewTokenService() *TokenService {
	return &TokenService{parser: jwt.NewParser(), now: time.Now}
}

// Principal decodes the token and rejects expired or role-less tokens.
func (s *TokenService) Principal(token string) (*models.Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, appErrors.ErrUnauthorized
	}
	claims := &TokenClaims{}
	if _, _, err := s.parser.ParseUnverified(token, claims); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}
	if claims.ExpiresAt != nil && !claims.ExpiresAt.After(s.now()) {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "session expired, please log in again")
	}
	if !claims.Role.Valid() {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	return &models.Principal{
		UserID:  claimString(claims.UserID),
		Subject: claims.Subject,
		Role:    claims.Role,
		Token:   token,
	}, nil
}

// claimString renders a numeric or string claim.
func claimString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}
