package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/openams/openams/internal/types"
)

// RequestIDMiddleware tags every request with an identifier so scan runs and
// member operations correlate in the logs.
func RequestIDMiddleware(c *gin.Context) {
	ctx := c.Request.Context()

	requestID := c.GetHeader(types.HeaderRequestID)
	if requestID == "" {
		requestID = types.GenerateUUID()
	}

	ctx = context.WithValue(ctx, types.CtxRequestID, requestID)
	c.Request = c.Request.WithContext(ctx)
	c.Header(types.HeaderRequestID, requestID)

	c.Next()
}
