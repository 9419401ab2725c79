package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"treevite/server/internal/handler/middleware"
	"treevite/server/internal/service"
	jwtpkg "treevite/server/pkg/jwt"
)

var ErrNoClaims = errors.New("claims not found in context")

func claimsFromContext(c *gin.Context) (*jwtpkg.Claims, error) {
	claimsVal, exists := c.Get(middleware.ContextKeyClaims)
	if !exists {
		return nil, ErrNoClaims
	}
	claims, ok := claimsVal.(*jwtpkg.Claims)
	if !ok {
		return nil, ErrNoClaims
	}
	return claims, nil
}

func conversationIDParam(c *gin.Context) (uuid.UUID, error) {
	return uuid.Parse(c.Param("conversation_id"))
}

// actorFromContext resolves the acting participant when the request
// carries claims scoped to the given conversation. Returns nil for
// anonymous callers and for tokens issued against other conversations.
func actorFromContext(c *gin.Context, conversationID uuid.UUID) *service.Actor {
	claims, err := claimsFromContext(c)
	if err != nil {
		return nil
	}
	if claims.ConversationID != conversationID.String() {
		return nil
	}
	accountID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil
	}
	participantID, err := uuid.Parse(claims.ParticipantID)
	if err != nil {
		return nil
	}
	return &service.Actor{AccountID: accountID, ParticipantID: participantID}
}

func pageFromQuery(c *gin.Context) service.Page {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	return service.Page{Limit: limit, Offset: offset}
}
