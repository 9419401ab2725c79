package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type TokenType string

const (
	// TokenTypeParticipant is a conversation-scoped bearer token issued
	// at redemption or login. Long-lived: anonymous participants are not
	// expected to run a full login flow on every visit.
	TokenTypeParticipant TokenType = "participant"
)

// Claims extends jwt.RegisteredClaims with custom fields. Subject holds
// the account id; conversation and participant ids are explicit claims.
type Claims struct {
	jwt.RegisteredClaims
	TokenType      TokenType `json:"token_type"`
	ConversationID string    `json:"conversation_id"`
	ParticipantID  string    `json:"participant_id"`
}

type Manager struct {
	signingKey          []byte
	issuer              string
	participantTokenTTL time.Duration
}

func NewManager(signingKey string, issuer string, participantTTL time.Duration) *Manager {
	return &Manager{
		signingKey:          []byte(signingKey),
		issuer:              issuer,
		participantTokenTTL: participantTTL,
	}
}

// ParticipantTokenTTL returns the configured token lifetime.
func (m *Manager) ParticipantTokenTTL() time.Duration {
	return m.participantTokenTTL
}

// GenerateParticipantToken creates a signed JWT bound to a conversation,
// account, and participant.
func (m *Manager) GenerateParticipantToken(conversationID, accountID, participantID uuid.UUID) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   accountID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.participantTokenTTL)),
			ID:        uuid.New().String(),
		},
		TokenType:      TokenTypeParticipant,
		ConversationID: conversationID.String(),
		ParticipantID:  participantID.String(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.signingKey)
}

// Validate parses and validates a token string, returning claims.
func (m *Manager) Validate(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.signingKey, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}

	if claims.Issuer != m.issuer {
		return nil, errors.New("invalid issuer")
	}

	return claims, nil
}
