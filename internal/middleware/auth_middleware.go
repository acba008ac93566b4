package middleware

import (
	"context"
	"net/http"
	"strings"

	"firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"sellervault-backend-go/internal/models"
)

// MemberKey is the gin context key holding the authenticated *models.Member.
const MemberKey = "member"

// ErrorResponse mirrors api.ErrorResponse to avoid an import cycle.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// TokenVerifier verifies Firebase ID tokens. *auth.Client implements it.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// UserLookup fetches the identity provider profile. *auth.Client implements it.
type UserLookup interface {
	GetUser(ctx context.Context, uid string) (*auth.UserRecord, error)
}

// AuthMiddleware resolves the calling member from a Firebase ID token.
type AuthMiddleware struct {
	verifier TokenVerifier
	users    UserLookup
	logger   *zap.Logger
}

// NewAuthMiddleware creates an AuthMiddleware. users may be nil, in which case
// names come from the token claims only.
func NewAuthMiddleware(verifier TokenVerifier, users UserLookup, logger *zap.Logger) *AuthMiddleware {
	if verifier == nil {
		panic("AuthMiddleware requires a token verifier")
	}
	return &AuthMiddleware{verifier: verifier, users: users, logger: logger}
}

// VerifyToken checks the bearer token and stores the member under MemberKey.
func (m *AuthMiddleware) VerifyToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Authorization header is required"})
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Authorization header format must be 'Bearer {token}'"})
			return
		}

		token, err := m.verifier.VerifyIDToken(c.Request.Context(), parts[1])
		if err != nil {
			m.logger.Warn("Error verifying Firebase ID token", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Invalid or expired authentication token"})
			return
		}

		c.Set(MemberKey, m.memberFromToken(c.Request.Context(), token))
		c.Next()
	}
}

func (m *AuthMiddleware) memberFromToken(ctx context.Context, token *auth.Token) *models.Member {
	member := &models.Member{ID: token.UID}
	if email, ok := token.Claims["email"].(string); ok {
		member.Email = email
	}
	name, _ := token.Claims["name"].(string)

	if name == "" && m.users != nil {
		user, err := m.users.GetUser(ctx, token.UID)
		if err != nil {
			m.logger.Warn("Failed to load identity profile", zap.String("memberId", token.UID), zap.Error(err))
		} else if user != nil && user.UserInfo != nil {
			name = user.DisplayName
			if member.Email == "" {
				member.Email = user.Email
			}
		}
	}
	member.FirstName, member.LastName = splitName(name)
	return member
}

// splitName treats the last word as the last name.
func splitName(name string) (first, last string) {
	fields := strings.Fields(name)
	switch len(fields) {
	case 0:
		return "", ""
	case 1:
		return fields[0], ""
	default:
		return strings.Join(fields[:len(fields)-1], " "), fields[len(fields)-1]
	}
}

// MemberFromContext returns the member stored by VerifyToken.
func MemberFromContext(c *gin.Context) (*models.Member, bool) {
	v, ok := c.Get(MemberKey)
	if !ok {
		return nil, false
	}
	member, ok := v.(*models.Member)
	return member, ok && member != nil
}
