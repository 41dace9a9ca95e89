package middlewares

import (
	"net/http"
	"strings"

	"bitbucket.org/mmdatafocus/invoicing_backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CorrelationId tags every request with an id carried through the context
// so log lines from one request can be stitched together.
func CorrelationId() gin.HandlerFunc {
	return func(c *gin.Context) {
		correlationId := c.GetHeader("X-Correlation-Id")
		if correlationId == "" {
			correlationId = uuid.NewString()
		}
		ctx := utils.SetCorrelationIdInContext(c.Request.Context(), correlationId)
		c.Request = c.Request.WithContext(ctx)
		c.Header("X-Correlation-Id", correlationId)
		c.Next()
	}
}

// Auth validates the bearer token and loads its claims into the request
// context. Edit-grant tokens additionally carry the one invoice id they are
// allowed to touch.
func Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		token := strings.TrimPrefix(header, "Bearer ")

		claims, err := utils.JwtValidate(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		ctx := utils.SetTokenInContext(c.Request.Context(), token)
		ctx = utils.SetUserIdInContext(ctx, claims.UserId)
		if claims.Scope == utils.EditGrantScope {
			ctx = utils.SetEditInvoiceIdInContext(ctx, claims.EditInvoice)
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireEditGrant allows a request through only when the token's edit
// scope covers the invoice named in the route.
func RequireEditGrant(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		grantedId, ok := utils.GetEditInvoiceIdFromContext(c.Request.Context())
		if !ok || grantedId == "" || grantedId != c.Param(param) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "not allowed"})
			return
		}
		c.Next()
	}
}
