package service

import "errors"

var (
	ErrConversationRequired    = errors.New("conversation id required")
	ErrInviteCountsInvalid     = errors.New("at least one of invites_per_user or owner_invites must be positive")
	ErrParentWaveInvalid       = errors.New("parent wave must be an earlier wave number")
	ErrParentWaveNotFound      = errors.New("parent wave not found")
	ErrInviteInvalidOrUsed     = errors.New("invite code invalid or already used")
	ErrInviteRaceLost          = errors.New("invite code was claimed by a concurrent request")
	ErrLoginCodeInvalid        = errors.New("login code invalid")
	ErrTooManyLoginAttempts    = errors.New("too many login attempts")
	ErrCodeGenerationExhausted = errors.New("invite code generation exhausted retries")
	ErrParticipantNotFound     = errors.New("participant not found")
	ErrWaveNotFound            = errors.New("wave not found")
)
