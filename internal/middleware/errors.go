package middleware

import "github.com/gin-gonic/gin"

// respondError writes the standard JSON error envelope and aborts the
// request, carrying the request ID when the middleware has set one.
func respondError(c *gin.Context, status int, code, message string) {
	resp := map[string]string{
		"code":    code,
		"message": message,
	}

	if rid := c.GetString(RequestIDKey); rid != "" {
		resp["request_id"] = rid
	}

	c.AbortWithStatusJSON(status, resp)
}
