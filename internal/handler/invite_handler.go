package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"treevite/server/internal/service"
	"treevite/server/pkg/response"
)

type InviteHandler struct {
	redeemService service.RedeemService
	queryService  service.QueryService
}

func NewInviteHandler(redeemService service.RedeemService, queryService service.QueryService) *InviteHandler {
	return &InviteHandler{redeemService: redeemService, queryService: queryService}
}

type RedeemRequest struct {
	InviteCode string `json:"invite_code" binding:"required"`
}

// Redeem exchanges an invite code for a participant identity, a
// one-time-visible login code, and a bearer token.
func (h *InviteHandler) Redeem(c *gin.Context) {
	conversationID, err := conversationIDParam(c)
	if err != nil {
		response.BadRequest(c, "invalid conversation id")
		return
	}

	var req RedeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	actor := actorFromContext(c, conversationID)

	result, err := h.redeemService.Redeem(c.Request.Context(), conversationID, req.InviteCode, actor)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrConversationRequired):
			response.BadRequest(c, err.Error())
		case errors.Is(err, service.ErrInviteInvalidOrUsed):
			response.BadRequest(c, "invite code invalid or already used")
		case errors.Is(err, service.ErrInviteRaceLost):
			// Distinct from invalid-or-used: the code was valid, someone
			// else got there first.
			response.BadRequest(c, "invite code was just claimed by someone else")
		default:
			response.InternalError(c, "redemption failed")
		}
		return
	}

	response.Success(c, result)
}

// ListMyInvites returns the invites owned by the authenticated
// participant, paginated.
func (h *InviteHandler) ListMyInvites(c *gin.Context) {
	conversationID, actor, ok := h.participantScope(c)
	if !ok {
		return
	}

	page, err := h.queryService.ListParticipantInvites(c.Request.Context(), conversationID, actor.ParticipantID, pageFromQuery(c))
	if err != nil {
		response.InternalError(c, "failed to list invites")
		return
	}
	response.Success(c, page)
}

// MyWaveContext returns the wave the participant joined and its fan-out.
func (h *InviteHandler) MyWaveContext(c *gin.Context) {
	conversationID, actor, ok := h.participantScope(c)
	if !ok {
		return
	}

	waveCtx, err := h.queryService.ParticipantWaveContext(c.Request.Context(), conversationID, actor.ParticipantID)
	if err != nil {
		if errors.Is(err, service.ErrParticipantNotFound) {
			response.NotFound(c, "participant not found")
			return
		}
		response.InternalError(c, "failed to load wave context")
		return
	}
	response.Success(c, waveCtx)
}

func (h *InviteHandler) participantScope(c *gin.Context) (uuid.UUID, *service.Actor, bool) {
	conversationID, err := conversationIDParam(c)
	if err != nil {
		response.BadRequest(c, "invalid conversation id")
		return uuid.Nil, nil, false
	}
	actor := actorFromContext(c, conversationID)
	if actor == nil {
		response.Unauthorized(c, "token not valid for this conversation")
		return uuid.Nil, nil, false
	}
	return conversationID, actor, true
}
