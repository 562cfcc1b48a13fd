package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tourvia/groupbooking-api/internal/api/handler/v1/request"
	"github.com/tourvia/groupbooking-api/internal/api/handler/v1/response"
	"github.com/tourvia/groupbooking-api/internal/domain"
	"github.com/tourvia/groupbooking-api/internal/service"
)

type OfferingService interface {
	CreateOffering(ctx context.Context, offering domain.Offering) (domain.Offering, error)
	GetOffering(ctx context.Context, id uint) (domain.Offering, error)
	ListOfferings(ctx context.Context) ([]domain.Offering, error)
	Snapshot(offeringID uint) (domain.OfferingSnapshot, error)
	GetParticipants(ctx context.Context, offeringID uint) ([]domain.ParticipantRecord, error)
}

type GroupService interface {
	Join(ctx context.Context, offeringID, userID uint) (domain.JoinOutcome, error)
	Leave(ctx context.Context, offeringID, userID uint) (domain.OfferingSnapshot, error)
}

type OfferingHandler struct {
	svc      OfferingService
	groupSvc GroupService
	userSvc  UserService
}

func NewOfferingHandler(svc OfferingService, groupSvc GroupService, userSvc UserService) *OfferingHandler {
	return &OfferingHandler{
		svc:      svc,
		groupSvc: groupSvc,
		userSvc:  userSvc,
	}
}

// HandleCreateOffering godoc
// @Summary      Create a group-bookable offering
// @Tags         offerings
// @Produce      json
// @Param        request   body      request.CreateOfferingRequest true "request body"
// @Success      201      {object}   domain.Offering
// @Failure      400      {object}   response.Err
// @Failure      403      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /offerings [post]
// @Security     BearerAuth
func (h *OfferingHandler) HandleCreateOffering(ctx *gin.Context) {
	userID, respErr := getUserIDFromContext(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)

		return
	}

	var req request.CreateOfferingRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))

		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))

		return
	}

	user, err := h.userSvc.GetUser(ctx.Request.Context(), userID)
	if err != nil {
		err = fmt.Errorf("v1.HandleCreateOffering -> h.userSvc.GetUser -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))

		return
	}
	if user.Role != "guide" && user.Role != "provider" {
		response.RenderErr(ctx, response.ErrPermissionDenied("only guides and providers can create offerings"))

		return
	}

	rules := make([]domain.DiscountRule, 0, len(req.DiscountRules))
	for _, rule := range req.DiscountRules {
		rules = append(rules, domain.DiscountRule{
			Threshold:       rule.Threshold,
			DiscountPercent: rule.DiscountPercent,
		})
	}

	created, err := h.svc.CreateOffering(ctx.Request.Context(), domain.Offering{
		GuideID:            userID,
		Title:              req.Title,
		Description:        req.Description,
		Location:           req.Location,
		Kind:               req.Kind,
		BasePrice:          req.BasePrice,
		TargetParticipants: req.TargetParticipants,
		DiscountRules:      rules,
		StartsAt:           req.StartsAt,
	})
	if err != nil {
		err = fmt.Errorf("v1.HandleCreateOffering -> h.svc.CreateOffering -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))

		return
	}

	ctx.JSON(http.StatusCreated, created)
}

// HandleListOfferings godoc
// @Summary      List all offerings
// @Tags         offerings
// @Produce      json
// @Success      200      {array}    domain.Offering
// @Failure      500      {object}   response.Err
// @Router       /offerings [get]
// @Security     BearerAuth
func (h *OfferingHandler) HandleListOfferings(ctx *gin.Context) {
	offerings, err := h.svc.ListOfferings(ctx.Request.Context())
	if err != nil {
		err = fmt.Errorf("v1.HandleListOfferings -> h.svc.ListOfferings -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))

		return
	}

	ctx.JSON(http.StatusOK, offerings)
}

// HandleGetOffering godoc
// @Summary      Get one offering with its live group state
// @Tags         offerings
// @Produce      json
// @Param        offeringID   path       int  true "offering ID"
// @Success      200      {object}   domain.Offering
// @Failure      400      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /offerings/{offeringID} [get]
// @Security     BearerAuth
func (h *OfferingHandler) HandleGetOffering(ctx *gin.Context) {
	offeringID, respErr := parseOfferingID(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)

		return
	}

	offering, err := h.svc.GetOffering(ctx.Request.Context(), offeringID)
	if err != nil {
		if errors.Is(err, service.ErrOfferingNotFound) {
			response.RenderErr(ctx, response.ErrOfferingNotFound(service.ErrOfferingNotFound))

			return
		}

		err = fmt.Errorf("v1.HandleGetOffering -> h.svc.GetOffering -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))

		return
	}

	ctx.JSON(http.StatusOK, offering)
}

// HandleGetGroupState godoc
// @Summary      Get the live counter, status, and current price
// @Tags         offerings
// @Produce      json
// @Param        offeringID   path       int  true "offering ID"
// @Success      200      {object}   domain.OfferingSnapshot
// @Failure      400      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Router       /offerings/{offeringID}/group [get]
// @Security     BearerAuth
func (h *OfferingHandler) HandleGetGroupState(ctx *gin.Context) {
	offeringID, respErr := parseOfferingID(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)

		return
	}

	snapshot, err := h.svc.Snapshot(offeringID)
	if err != nil {
		response.RenderErr(ctx, response.ErrOfferingNotFound(service.ErrOfferingNotFound))

		return
	}

	ctx.JSON(http.StatusOK, snapshot)
}

// HandleGetParticipants godoc
// @Summary      List an offering's participants
// @Tags         offerings
// @Produce      json
// @Param        offeringID   path       int  true "offering ID"
// @Success      200      {array}    domain.ParticipantRecord
// @Failure      400      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /offerings/{offeringID}/participants [get]
// @Security     BearerAuth
func (h *OfferingHandler) HandleGetParticipants(ctx *gin.Context) {
	offeringID, respErr := parseOfferingID(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)

		return
	}

	records, err := h.svc.GetParticipants(ctx.Request.Context(), offeringID)
	if err != nil {
		if errors.Is(err, service.ErrOfferingNotFound) {
			response.RenderErr(ctx, response.ErrOfferingNotFound(service.ErrOfferingNotFound))

			return
		}

		err = fmt.Errorf("v1.HandleGetParticipants -> h.svc.GetParticipants -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))

		return
	}

	ctx.JSON(http.StatusOK, records)
}

// HandleJoinOffering godoc
// @Summary      Join an offering's group
// @Tags         offerings
// @Produce      json
// @Param        offeringID   path       int  true "offering ID"
// @Success      200      {object}   response.JoinResponse
// @Failure      400      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      409      {object}   response.Err
// @Failure      503      {object}   response.Err
// @Router       /offerings/{offeringID}/join [post]
// @Security     BearerAuth
func (h *OfferingHandler) HandleJoinOffering(ctx *gin.Context) {
	userID, respErr := getUserIDFromContext(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)

		return
	}

	offeringID, respErr := parseOfferingID(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)

		return
	}

	outcome, err := h.groupSvc.Join(ctx.Request.Context(), offeringID, userID)
	if err != nil {
		renderGroupErr(ctx, "v1.HandleJoinOffering", err)

		return
	}

	ctx.JSON(http.StatusOK, response.NewJoinResponse(offeringID, outcome))
}

// HandleLeaveOffering godoc
// @Summary      Leave an offering's group
// @Tags         offerings
// @Produce      json
// @Param        offeringID   path       int  true "offering ID"
// @Success      200      {object}   response.LeaveResponse
// @Failure      400      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      409      {object}   response.Err
// @Failure      503      {object}   response.Err
// @Router       /offerings/{offeringID}/leave [post]
// @Security     BearerAuth
func (h *OfferingHandler) HandleLeaveOffering(ctx *gin.Context) {
	userID, respErr := getUserIDFromContext(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)

		return
	}

	offeringID, respErr := parseOfferingID(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)

		return
	}

	snapshot, err := h.groupSvc.Leave(ctx.Request.Context(), offeringID, userID)
	if err != nil {
		renderGroupErr(ctx, "v1.HandleLeaveOffering", err)

		return
	}

	ctx.JSON(http.StatusOK, response.LeaveResponse{
		OfferingID: offeringID,
		Group:      snapshot,
	})
}

func parseOfferingID(ctx *gin.Context) (uint, *response.Err) {
	raw := ctx.Param("offeringID")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, response.ErrBadRequest(fmt.Errorf("invalid offering ID %q", raw))
	}

	return uint(id), nil
}

func renderGroupErr(ctx *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, service.ErrOfferingNotFound):
		response.RenderErr(ctx, response.ErrOfferingNotFound(err))
	case errors.Is(err, service.ErrOfferingFull):
		response.RenderErr(ctx, response.ErrOfferingFull(err))
	case errors.Is(err, service.ErrOfferingNotJoinable):
		response.RenderErr(ctx, response.ErrOfferingNotJoinable(err))
	case errors.Is(err, service.ErrAlreadyJoined):
		response.RenderErr(ctx, response.ErrAlreadyJoined(err))
	case errors.Is(err, service.ErrNotJoined):
		response.RenderErr(ctx, response.ErrNotJoined(err))
	case errors.Is(err, service.ErrBusy):
		response.RenderErr(ctx, response.ErrOfferingBusy(err))
	default:
		err = fmt.Errorf("%s -> %w", op, err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
	}
}
