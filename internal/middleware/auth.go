package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/acejarvis/cash-or-card/backend/internal/config"
	"github.com/acejarvis/cash-or-card/backend/internal/models"
)

// Context keys set by Authenticate.
const (
	ContextUserID = "user_id"
	ContextEmail  = "email"
	ContextRole   = "role"
)

// Claims is the bearer token payload.
type Claims struct {
	UserID int         `json:"id"`
	Email  string      `json:"email"`
	Role   models.Role `json:"role"`
	jwt.RegisteredClaims
}

// Auth issues and checks bearer tokens.
type Auth struct {
	secret []byte
	ttl    time.Duration
}

func NewAuth(cfg config.AuthConfig) *Auth {
	return &Auth{secret: []byte(cfg.JWTSecret), ttl: cfg.TokenTTL}
}

// Issue signs a token for user.
func (a *Auth) Issue(user *models.User) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	})
	return token.SignedString(a.secret)
}

// Parse validates the signature and expiry of tokenString.
func (a *Auth) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !claims.Role.Valid() {
		return nil, errors.New("token carries unknown role")
	}
	return claims, nil
}

func bearer(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return "", false
	}
	return token, true
}

func setClaims(c *gin.Context, claims *Claims) {
	c.Set(ContextUserID, claims.UserID)
	c.Set(ContextEmail, claims.Email)
	c.Set(ContextRole, claims.Role)
}

// Authenticate rejects requests without a valid bearer token.
func (a *Auth) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearer(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "No token provided"})
			return
		}
		claims, err := a.Parse(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}
		setClaims(c, claims)
		c.Next()
	}
}

// RequireRegistered rejects guests.
func RequireRegistered() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := Role(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}
		if !role.Registered() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Registered account required for this action"})
			return
		}
		c.Next()
	}
}

// Authorize only lets the listed roles through.
func Authorize(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := Role(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}
		for _, r := range roles {
			if r == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "You do not have permission to access this resource"})
	}
}

// UserID returns the authenticated user's id.
func UserID(c *gin.Context) (int, bool) {
	v, ok := c.Get(ContextUserID)
	if !ok {
		return 0, false
	}
	id, ok := v.(int)
	return id, ok
}

// Role returns the authenticated user's role.
func Role(c *gin.Context) (models.Role, bool) {
	v, ok := c.Get(ContextRole)
	if !ok {
		return "", false
	}
	role, ok := v.(models.Role)
	return role, ok
}
