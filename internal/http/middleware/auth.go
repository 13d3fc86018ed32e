// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements Authenticate, which resolves the calling user once per
// request and stores the id under the "userID" Gin context key. Everything
// downstream (handlers, the rate limiter, the access log) reads the actor from
// there and never from headers.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tbourn/go-social-backend/internal/auth"
)

const (
	// CtxUserID is the Gin context key holding the authenticated user id.
	CtxUserID = "userID"
	// HeaderUserID carries a raw user id when header auth is allowed.
	HeaderUserID = "X-User-ID"
)

// TokenVerifier verifies a bearer token and returns its claims.
type TokenVerifier interface {
	Parse(token string) (*auth.Claims, error)
}

// AuthOptions configures Authenticate.
type AuthOptions struct {
	// AllowHeader accepts X-User-ID (a UUID) when no bearer token is sent.
	// Development only.
	AllowHeader bool
}

// Authenticate requires an identity on every request it guards.
//
// Resolution order:
//  1. Authorization: Bearer <jwt>, verified by v.
//  2. X-User-ID, only when opts.AllowHeader is set.
//
// A request with neither, or with a token that fails verification, is
// rejected with 401 and code "unauthenticated". A bad token never falls back
// to the header.
func Authenticate(v TokenVerifier, opts AuthOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		if h := c.GetHeader("Authorization"); h != "" {
			tok, found := strings.CutPrefix(h, "Bearer ")
			if !found || v == nil {
				unauthenticated(c, "malformed authorization header")
				return
			}
			claims, err := v.Parse(strings.TrimSpace(tok))
			if err != nil {
				unauthenticated(c, "invalid token")
				return
			}
			c.Set(CtxUserID, claims.UserID)
			c.Next()
			return
		}

		if opts.AllowHeader {
			if id := strings.TrimSpace(c.GetHeader(HeaderUserID)); id != "" {
				if uuid.Validate(id) != nil {
					unauthenticated(c, "X-User-ID must be a UUID")
					return
				}
				c.Set(CtxUserID, id)
				c.Next()
				return
			}
		}

		unauthenticated(c, "authentication required")
	}
}

// UserID returns the authenticated user id, or "" outside Authenticate.
func UserID(c *gin.Context) string {
	return c.GetString(CtxUserID)
}

func unauthenticated(c *gin.Context, msg string) {
	c.Header("WWW-Authenticate", `Bearer realm="api"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"request_id": c.Writer.Header().Get(requestIDHeader),
		"code":       "unauthenticated",
		"message":    msg,
	})
}
