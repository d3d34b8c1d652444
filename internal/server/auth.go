package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	actorKey     = "actor"
	actorHeader  = "X-Actor"
	defaultActor = "system"
)

// IssueToken signs an HS256 token whose subject is actor.
func IssueToken(secret, issuer, actor string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   actor,
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// parseActor verifies tokenStr and returns its subject.
func parseActor(secret, issuer, tokenStr string) (string, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(tokenStr, &claims, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	}, opts...)
	if err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", errors.New("token has no subject")
	}
	return claims.Subject, nil
}

// actor resolves who is acting on the request. With a JWT secret configured
// a valid bearer token is required; otherwise X-Actor is trusted.
func (s *Server) actor() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.auth.JWTSecret == "" {
			actor := strings.TrimSpace(c.GetHeader(actorHeader))
			if actor == "" {
				actor = defaultActor
			}
			c.Set(actorKey, actor)
			c.Next()
			return
		}

		var tokenStr string
		if parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2); len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			tokenStr = strings.TrimSpace(parts[1])
		}
		if tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required", "details": "missing bearer token"})
			return
		}
		actor, err := parseActor(s.auth.JWTSecret, s.auth.Issuer, tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token", "details": err.Error()})
			return
		}
		c.Set(actorKey, actor)
		c.Next()
	}
}
