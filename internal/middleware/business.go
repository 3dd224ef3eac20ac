package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// BusinessMiddleware extracts and validates the business scope.
// SECURITY: no default scope fallback - requests without business context are
// rejected.
func BusinessMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		businessID := c.GetHeader("X-Business-ID")

		if businessID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "BUSINESS_REQUIRED",
					"message": "Business ID is required. Include the X-Business-ID header.",
				},
			})
			c.Abort()
			return
		}

		c.Set("business_id", businessID)
		c.Next()
	}
}

// GetBusinessID retrieves the business ID from gin context
func GetBusinessID(c *gin.Context) string {
	return c.GetString("business_id")
}
