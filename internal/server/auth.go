package server

import (
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"incommon/internal/game"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const ctxPlayerID = "player_id"

var errInvalidToken = errors.New("invalid player token")

type playerClaims struct {
	Game string `json:"game"`
	jwt.RegisteredClaims
}

// tokenIssuer signs the capability token a player receives on join. The
// token names one player of one game.
type tokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func newTokenIssuer(secret string, ttl time.Duration) *tokenIssuer {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			panic(fmt.Sprintf("token secret: %v", err))
		}
	}
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &tokenIssuer{secret: key, ttl: ttl, now: time.Now}
}

func (t *tokenIssuer) Issue(code, playerID string) (string, error) {
	now := t.now()
	claims := playerClaims{
		Game: code,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   playerID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// Parse returns the game code and player id a token was issued for.
func (t *tokenIssuer) Parse(raw string) (string, string, error) {
	claims := &playerClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(t.now))
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", errInvalidToken, err)
	}
	if claims.Game == "" || claims.Subject == "" {
		return "", "", errInvalidToken
	}
	return claims.Game, claims.Subject, nil
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

// requirePlayer resolves the bearer token once and stores the player id on
// the request. The token must belong to the game in the path.
func (s *Server) requirePlayer() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c)
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		code, playerID, err := s.tokens.Parse(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid player authentication"})
			return
		}
		if code != game.NormalizeCode(c.Param("code")) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "token is for another game"})
			return
		}
		c.Set(ctxPlayerID, playerID)
		c.Next()
	}
}

func playerID(c *gin.Context) string {
	return c.GetString(ctxPlayerID)
}
