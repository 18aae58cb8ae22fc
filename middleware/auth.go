package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/thehouse/forum/utils"
)

const (
	// ContextUserIDKey is the key used to store the authenticated user ID in
	// Gin context.
	ContextUserIDKey = "user_id"
	// ContextUsernameKey stores the username inside Gin context.
	ContextUsernameKey = "username"
	// ContextTokenKey stores the raw bearer token so logout and
	// self-deletion can revoke it.
	ContextTokenKey = "token"
)

// AuthRequired ensures the request is authenticated via JWT.
func AuthRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		claims, token, code, msg := parseBearer(ctx)
		if claims == nil {
			utils.Error(ctx, http.StatusUnauthorized, code, msg)
			ctx.Abort()
			return
		}

		ctx.Set(ContextUserIDKey, claims.UserID)
		ctx.Set(ContextUsernameKey, claims.Username)
		ctx.Set(ContextTokenKey, token)
		ctx.Next()
	}
}

// AuthOptional resolves the actor when a valid token is presented but lets
// anonymous requests through. Public endpoints that shade output per actor
// use it.
func AuthOptional() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if claims, token, _, _ := parseBearer(ctx); claims != nil {
			ctx.Set(ContextUserIDKey, claims.UserID)
			ctx.Set(ContextUsernameKey, claims.Username)
			ctx.Set(ContextTokenKey, token)
		}
		ctx.Next()
	}
}

func parseBearer(ctx *gin.Context) (claims *utils.Claims, token string, code int, msg string) {
	authHeader := ctx.GetHeader("Authorization")
	if authHeader == "" {
		return nil, "", 40101, "authorization header missing"
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil, "", 40102, "invalid authorization header format"
	}

	token = strings.TrimSpace(parts[1])
	if token == "" {
		return nil, "", 40103, "empty bearer token"
	}

	if utils.IsTokenBlacklisted(token) {
		return nil, "", 40104, "token revoked"
	}

	parsed, err := utils.ParseToken(token)
	if err != nil {
		return nil, "", 40105, "invalid token"
	}

	return parsed, token, 0, ""
}
