package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tourvia/groupbooking-api/internal/api/handler/v1/response"
	"github.com/tourvia/groupbooking-api/internal/ratelimit"
)

// RateLimit rejects requests beyond the actor's allowance with 429. The
// actor is the authenticated user when present, the client IP otherwise.
func RateLimit(limiter *ratelimit.Limiter) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		actorID := ctx.ClientIP()
		if userID, ok := ctx.Get(ContextKeyUserID); ok {
			if id, ok := userID.(uint); ok {
				actorID = "user:" + strconv.FormatUint(uint64(id), 10)
			}
		}

		if !limiter.Allow(actorID) {
			response.RenderErr(ctx, response.ErrTooManyRequests("rate limit exceeded, slow down"))

			return
		}

		ctx.Next()
	}
}
