package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tourvia/groupbooking-api/internal/api/handler/v1/response"
	"github.com/tourvia/groupbooking-api/internal/pkg/jwthelper"
)

// ContextKeyUserID is where VerifyJWT stores the authenticated user's ID.
const ContextKeyUserID = "userID"

type Authenticator struct {
	signingKey []byte
}

func NewAuthenticator(signingKey string) *Authenticator {
	return &Authenticator{
		signingKey: []byte(signingKey),
	}
}

func (a *Authenticator) VerifyJWT() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		tokenString := a.bearerToken(ctx)
		if tokenString == "" {
			response.RenderErr(ctx, response.ErrUnauthorized("missing bearer token"))

			return
		}

		claims, err := jwthelper.ParseToken(a.signingKey, tokenString)
		if err != nil {
			response.RenderErr(ctx, response.ErrUnauthorized("invalid token"))

			return
		}

		// A token replayed from a different client is rejected.
		if claims.UserAgent != ctx.Request.UserAgent() {
			response.RenderErr(ctx, response.ErrUnauthorized("invalid token"))

			return
		}

		ctx.Set(ContextKeyUserID, claims.UserID)
		ctx.Next()
	}
}

// bearerToken pulls the token from the Authorization header, falling back
// to the access_token query parameter for WebSocket upgrades, where
// browsers cannot set custom headers.
func (a *Authenticator) bearerToken(ctx *gin.Context) string {
	header := ctx.GetHeader("Authorization")
	if header != "" {
		segments := strings.SplitN(header, " ", 2)
		if len(segments) == 2 && strings.EqualFold(segments[0], "Bearer") {
			return segments[1]
		}

		return ""
	}

	return ctx.Query("access_token")
}
