package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"treevite/server/internal/service"
	"treevite/server/pkg/response"
)

type AuthHandler struct {
	credentialService service.CredentialService
}

func NewAuthHandler(credentialService service.CredentialService) *AuthHandler {
	return &AuthHandler{credentialService: credentialService}
}

type LoginRequest struct {
	LoginCode string `json:"login_code" binding:"required"`
}

// Login verifies a reusable login code and issues a fresh bearer token.
func (h *AuthHandler) Login(c *gin.Context) {
	conversationID, err := conversationIDParam(c)
	if err != nil {
		response.BadRequest(c, "invalid conversation id")
		return
	}

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	result, err := h.credentialService.Login(c.Request.Context(), conversationID, req.LoginCode, c.ClientIP())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrLoginCodeInvalid):
			response.Unauthorized(c, "login code invalid")
		case errors.Is(err, service.ErrTooManyLoginAttempts):
			response.TooManyRequests(c, "too many login attempts")
		default:
			response.InternalError(c, "login failed")
		}
		return
	}

	response.Success(c, result)
}

// RegenerateLoginCode rotates the participant's login code. The old
// plaintext stops verifying immediately; the new one is returned once.
func (h *AuthHandler) RegenerateLoginCode(c *gin.Context) {
	conversationID, err := conversationIDParam(c)
	if err != nil {
		response.BadRequest(c, "invalid conversation id")
		return
	}
	actor := actorFromContext(c, conversationID)
	if actor == nil {
		response.Unauthorized(c, "token not valid for this conversation")
		return
	}

	loginCode, err := h.credentialService.Issue(c.Request.Context(), conversationID, actor.ParticipantID)
	if err != nil {
		response.InternalError(c, "failed to regenerate login code")
		return
	}

	response.Success(c, gin.H{"login_code": loginCode})
}
