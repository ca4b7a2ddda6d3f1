package middlewares

import (
	"github.com/gin-gonic/gin"
)

func abortWithError(c *gin.Context, status int, code, message string) {
	requestID := c.GetString(CtxRequestID)
	if requestID == "" {
		requestID = c.GetHeader(requestIDHeader)
	}

	body := gin.H{
		"code":    code,
		"message": message,
	}
	if requestID != "" {
		body["requestId"] = requestID
	}

	c.AbortWithStatusJSON(status, body)
}
