package v1

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tourvia/groupbooking-api/internal/api/handler/v1/request"
	"github.com/tourvia/groupbooking-api/internal/api/handler/v1/response"
	"github.com/tourvia/groupbooking-api/internal/domain"
)

type FeedService interface {
	CreatePost(ctx context.Context, authorID uint, body string) (domain.FeedPost, error)
	ListPosts(ctx context.Context, limit, offset int) ([]domain.FeedPost, error)
}

type FeedHandler struct {
	svc FeedService
}

func NewFeedHandler(svc FeedService) *FeedHandler {
	return &FeedHandler{
		svc: svc,
	}
}

// HandleCreatePost godoc
// @Summary      Publish a feed post
// @Tags         feed
// @Produce      json
// @Param        request   body      request.CreatePostRequest true "request body"
// @Success      201      {object}   domain.FeedPost
// @Failure      400      {object}   response.Err
// @Failure      429      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /feed [post]
// @Security     BearerAuth
func (h *FeedHandler) HandleCreatePost(ctx *gin.Context) {
	userID, respErr := getUserIDFromContext(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)

		return
	}

	var req request.CreatePostRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))

		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))

		return
	}

	post, err := h.svc.CreatePost(ctx.Request.Context(), userID, req.Body)
	if err != nil {
		err = fmt.Errorf("v1.HandleCreatePost -> h.svc.CreatePost -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))

		return
	}

	ctx.JSON(http.StatusCreated, post)
}

// HandleListPosts godoc
// @Summary      List latest feed posts
// @Tags         feed
// @Produce      json
// @Param        limit    query      int  false "number of posts (default 50)"
// @Param        offset   query      int  false "pagination offset (default 0)"
// @Success      200      {array}    domain.FeedPost
// @Failure      500      {object}   response.Err
// @Router       /feed [get]
// @Security     BearerAuth
func (h *FeedHandler) HandleListPosts(ctx *gin.Context) {
	limit, err := strconv.Atoi(ctx.DefaultQuery("limit", "50"))
	if err != nil || limit < 1 || limit > 100 {
		limit = 50
	}
	offset, err := strconv.Atoi(ctx.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	posts, err := h.svc.ListPosts(ctx.Request.Context(), limit, offset)
	if err != nil {
		err = fmt.Errorf("v1.HandleListPosts -> h.svc.ListPosts -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))

		return
	}

	ctx.JSON(http.StatusOK, posts)
}
