package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"treevite/server/internal/model"
	"treevite/server/internal/service"
	"treevite/server/pkg/response"
)

type AdminHandler struct {
	waveService       service.WaveService
	queryService      service.QueryService
	credentialService service.CredentialService
}

func NewAdminHandler(
	waveService service.WaveService,
	queryService service.QueryService,
	credentialService service.CredentialService,
) *AdminHandler {
	return &AdminHandler{
		waveService:       waveService,
		queryService:      queryService,
		credentialService: credentialService,
	}
}

type CreateWaveRequest struct {
	InvitesPerUser int  `json:"invites_per_user"`
	OwnerInvites   int  `json:"owner_invites"`
	ParentWave     *int `json:"parent_wave,omitempty"`
}

// CreateWave declares the next wave of the invitation tree, seeding
// owner invites and backfilling existing parent-wave members.
func (h *AdminHandler) CreateWave(c *gin.Context) {
	conversationID, err := conversationIDParam(c)
	if err != nil {
		response.BadRequest(c, "invalid conversation id")
		return
	}

	var req CreateWaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	result, err := h.waveService.CreateWave(c.Request.Context(), conversationID, req.InvitesPerUser, req.OwnerInvites, req.ParentWave)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrConversationRequired),
			errors.Is(err, service.ErrInviteCountsInvalid),
			errors.Is(err, service.ErrParentWaveInvalid),
			errors.Is(err, service.ErrParentWaveNotFound):
			response.BadRequest(c, err.Error())
		default:
			response.InternalError(c, "failed to create wave")
		}
		return
	}

	response.Success(c, result)
}

// ListWaves returns waves for a conversation, optionally filtered to one
// wave number via ?wave=.
func (h *AdminHandler) ListWaves(c *gin.Context) {
	conversationID, err := conversationIDParam(c)
	if err != nil {
		response.BadRequest(c, "invalid conversation id")
		return
	}

	var waveNumber *int
	if raw := c.Query("wave"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			response.BadRequest(c, "invalid wave filter")
			return
		}
		waveNumber = &n
	}

	page, err := h.queryService.ListWaves(c.Request.Context(), conversationID, waveNumber, pageFromQuery(c))
	if err != nil {
		response.InternalError(c, "failed to list waves")
		return
	}
	response.Success(c, page)
}

// ListInvites is the admin roster: every invite in the conversation,
// filterable by ?status= and ?wave=.
func (h *AdminHandler) ListInvites(c *gin.Context) {
	conversationID, err := conversationIDParam(c)
	if err != nil {
		response.BadRequest(c, "invalid conversation id")
		return
	}

	var filter service.InviteFilter
	if raw := c.Query("status"); raw != "" {
		status := model.InviteStatus(raw)
		if status != model.InviteStatusUnconsumed && status != model.InviteStatusConsumed {
			response.BadRequest(c, "invalid status filter")
			return
		}
		filter.Status = &status
	}
	if raw := c.Query("wave"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			response.BadRequest(c, "invalid wave filter")
			return
		}
		filter.Wave = &n
	}

	page, err := h.queryService.ListInvites(c.Request.Context(), conversationID, filter, pageFromQuery(c))
	if err != nil {
		if errors.Is(err, service.ErrWaveNotFound) {
			response.BadRequest(c, "wave not found")
			return
		}
		response.InternalError(c, "failed to list invites")
		return
	}
	response.Success(c, page)
}

// RevokeLoginCode marks a participant's credential revoked. The
// participant can no longer log in until an admin or a redemption
// reissues one.
func (h *AdminHandler) RevokeLoginCode(c *gin.Context) {
	conversationID, err := conversationIDParam(c)
	if err != nil {
		response.BadRequest(c, "invalid conversation id")
		return
	}
	participantID, err := uuid.Parse(c.Param("participant_id"))
	if err != nil {
		response.BadRequest(c, "invalid participant id")
		return
	}

	if err := h.credentialService.Revoke(c.Request.Context(), conversationID, participantID); err != nil {
		response.InternalError(c, "failed to revoke login code")
		return
	}
	response.Success(c, nil)
}
