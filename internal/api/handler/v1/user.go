package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tourvia/groupbooking-api/internal/api/handler/v1/response"
	"github.com/tourvia/groupbooking-api/internal/api/middleware"
	"github.com/tourvia/groupbooking-api/internal/domain"
	"github.com/tourvia/groupbooking-api/internal/service"
)

type UserService interface {
	GetUser(ctx context.Context, id uint) (domain.User, error)
}

type UserHandler struct {
	svc UserService
}

func NewUserHandler(svc UserService) *UserHandler {
	return &UserHandler{
		svc: svc,
	}
}

// HandleGetUser godoc
// @Summary      Get a user profile
// @Tags         users
// @Produce      json
// @Param        userID   path       int  true "user ID"
// @Success      200      {object}   domain.User
// @Failure      400      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /users/{userID} [get]
// @Security     BearerAuth
func (h *UserHandler) HandleGetUser(ctx *gin.Context) {
	rawUserID := ctx.Param("userID")
	userID, err := strconv.ParseUint(rawUserID, 10, 64)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid user ID %q", rawUserID)))

		return
	}

	user, err := h.svc.GetUser(ctx.Request.Context(), uint(userID))
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.RenderErr(ctx, response.ErrNotFound(service.ErrUserNotFound))

			return
		}

		err = fmt.Errorf("v1.HandleGetUser -> h.svc.GetUser -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))

		return
	}

	ctx.JSON(http.StatusOK, user)
}

// getUserIDFromContext reads the ID the authenticator stored. A miss means
// the route was mounted without VerifyJWT, which is a programming error.
func getUserIDFromContext(ctx *gin.Context) (uint, *response.Err) {
	value, ok := ctx.Get(middleware.ContextKeyUserID)
	if !ok {
		return 0, response.ErrUnauthorized("not authenticated")
	}

	userID, ok := value.(uint)
	if !ok {
		return 0, response.ErrUnauthorized("not authenticated")
	}

	return userID, nil
}
