package auth

import (
	"net/http"
	"strings"
	"time"

	"recyclefi/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const sessionTTL = 24 * time.Hour

type SessionData struct {
	UserID        uuid.UUID
	WalletAddress string
}

type sessionClaims struct {
	WalletAddress string `json:"wallet_address"`
	jwt.RegisteredClaims
}

// SessionAuth issues and validates the bearer tokens handed out after a
// successful wallet login.
type SessionAuth struct {
	secret []byte
}

func NewSessionAuth(secret string) *SessionAuth {
	return &SessionAuth{secret: []byte(secret)}
}

func (s *SessionAuth) IssueToken(userID uuid.UUID, walletAddress string) (string, error) {
	now := time.Now().UTC()
	claims := sessionClaims{
		WalletAddress: walletAddress,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(sessionTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *SessionAuth) ParseToken(tokenString string) (*SessionData, error) {
	var claims sessionClaims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, err
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, err
	}

	return &SessionData{
		UserID:        userID,
		WalletAddress: claims.WalletAddress,
	}, nil
}

func (s *SessionAuth) SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logger.Logger()

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			log.Info("missing authorization header")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization header is required"})
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			log.Info("invalid authorization header format")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			return
		}

		session, err := s.ParseToken(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			log.Info("invalid session token", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid session token"})
			return
		}

		c.Set("session_user", session)
		c.Next()
	}
}

// SessionFromContext returns the session placed by SessionMiddleware.
func SessionFromContext(c *gin.Context) (*SessionData, bool) {
	data, exists := c.Get("session_user")
	if !exists {
		return nil, false
	}
	session, ok := data.(*SessionData)
	return session, ok
}
