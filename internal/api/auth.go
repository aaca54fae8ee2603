package api

import (
	"crypto/rsa"
	"fmt"
	"log"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const subjectContextKey = "auth_subject"

// authMiddleware extracts the identity-provider subject from a bearer token.
// An absent or invalid token leaves the request unauthenticated rather than
// rejecting it; handlers decide whether authentication is required.
func authMiddleware(publicKeyPEM string) gin.HandlerFunc {
	var publicKey *rsa.PublicKey
	if publicKeyPEM != "" {
		key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(publicKeyPEM))
		if err != nil {
			log.Printf("Invalid identity JWT public key, requests will be unauthenticated: %v", err)
		} else {
			publicKey = key
		}
	}

	return func(c *gin.Context) {
		if publicKey == nil {
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || token == "" {
			c.Next()
			return
		}

		parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return publicKey, nil
		})
		if err != nil || !parsed.Valid {
			c.Next()
			return
		}

		subject, err := parsed.Claims.GetSubject()
		if err == nil && subject != "" {
			c.Set(subjectContextKey, subject)
		}
		c.Next()
	}
}

// subjectFrom returns the authenticated subject id, or "" when the caller is
// unauthenticated.
func subjectFrom(c *gin.Context) string {
	subject, _ := c.Get(subjectContextKey)
	s, _ := subject.(string)
	return s
}
