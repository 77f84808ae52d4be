package middleware

import "github.com/gin-gonic/gin"

// userIDKey is the key used to store the calling user's ID in the Gin context.
const userIDKey = contextKey("userID")

// userIDHeader carries the caller identity established by the upstream
// authentication layer, which is outside this service.
const userIDHeader = "X-User-ID"

// CallerIdentityMiddleware copies the caller's user ID from the request header
// into the Gin context for handlers to consume.
func CallerIdentityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID := c.GetHeader(userIDHeader); userID != "" {
			c.Set(string(userIDKey), userID)
		}
		c.Next()
	}
}

// GetUserIDFromContext retrieves the calling user ID from the Gin context.
// It returns the user ID and a boolean indicating if it was found.
func GetUserIDFromContext(c *gin.Context) (string, bool) {
	userIDVal, exists := c.Get(string(userIDKey))
	if !exists {
		return "", false
	}

	userID, ok := userIDVal.(string)
	if !ok {
		return "", false
	}

	return userID, true
}
