package rest

import (
	"strings"

	"github.com/dmitrijs2005/todolist/internal/common"
	"github.com/dmitrijs2005/todolist/internal/server/auth"
	"github.com/gin-gonic/gin"
)

const claimsKey = "claims"

// requireAuth validates the bearer access token and stores its claims in
// the gin context.
func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(common.AuthorizationHeaderName)
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, common.BearerScheme) || token == "" {
			abortWithError(c, common.ErrorUnauthorized)
			return
		}

		claims, err := s.deps.Tokens.ValidateAccessToken(strings.TrimSpace(token))
		if err != nil {
			s.logger.Debug(c.Request.Context(), "rejected access token", "error", err)
			abortWithError(c, err)
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

func principal(c *gin.Context) *auth.Claims {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*auth.Claims)
	return claims
}
