package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"treevite/server/internal/config"
	"treevite/server/internal/model"
	"treevite/server/internal/repository"
	pkgcrypto "treevite/server/pkg/crypto"
	jwtpkg "treevite/server/pkg/jwt"
)

// TokenSet is a bearer token with its type and lifetime, ready for use
// in an Authorization header.
type TokenSet struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// LoginResult is returned on successful login-code verification.
type LoginResult struct {
	TokenSet
	ParticipantID uuid.UUID `json:"participant_id"`
	WaveID        uuid.UUID `json:"wave_id"`
}

type CredentialService interface {
	// Issue generates a fresh login code for the participant, stores its
	// three derived representations, and returns the plaintext. The
	// plaintext is never retrievable again; a previous credential for the
	// same (conversation, participant) pair is superseded in place and
	// un-revoked.
	Issue(ctx context.Context, conversationID, participantID uuid.UUID) (string, error)
	// Login verifies a submitted login code and issues a bearer token.
	// Unknown code, revoked credential, and hash mismatch are all
	// reported as the same ErrLoginCodeInvalid.
	Login(ctx context.Context, conversationID uuid.UUID, code, clientIP string) (*LoginResult, error)
	Revoke(ctx context.Context, conversationID, participantID uuid.UUID) error
	IssueToken(ctx context.Context, conversationID, accountID, participantID uuid.UUID) (*TokenSet, error)
}

type credentialService struct {
	credentialRepo  repository.LoginCredentialRepository
	participantRepo repository.ParticipantRepository
	stateStore      repository.StateStore
	jwtManager      *jwtpkg.Manager
	credCfg         config.CredentialConfig
	loginCfg        config.LoginConfig
}

func NewCredentialService(
	credentialRepo repository.LoginCredentialRepository,
	participantRepo repository.ParticipantRepository,
	stateStore repository.StateStore,
	jwtManager *jwtpkg.Manager,
	credCfg config.CredentialConfig,
	loginCfg config.LoginConfig,
) CredentialService {
	return &credentialService{
		credentialRepo:  credentialRepo,
		participantRepo: participantRepo,
		stateStore:      stateStore,
		jwtManager:      jwtManager,
		credCfg:         credCfg,
		loginCfg:        loginCfg,
	}
}

func (s *credentialService) Issue(ctx context.Context, conversationID, participantID uuid.UUID) (string, error) {
	plaintext, err := pkgcrypto.GenerateLoginCode()
	if err != nil {
		return "", fmt.Errorf("generate login code: %w", err)
	}

	verifyHash, err := pkgcrypto.HashLoginCode(plaintext)
	if err != nil {
		return "", fmt.Errorf("hash login code: %w", err)
	}

	credential := &model.LoginCredential{
		ConversationID:   conversationID,
		ParticipantID:    participantID,
		VerifyHash:       verifyHash,
		LookupHash:       pkgcrypto.LookupHash(s.credCfg.Pepper, plaintext),
		Fingerprint:      pkgcrypto.Fingerprint(s.credCfg.FingerprintKey, plaintext),
		FingerprintKeyID: s.credCfg.FingerprintKeyID,
		Revoked:          false,
	}
	if err := s.credentialRepo.Upsert(ctx, credential); err != nil {
		return "", fmt.Errorf("upsert login credential: %w", err)
	}
	return plaintext, nil
}

func (s *credentialService) Login(ctx context.Context, conversationID uuid.UUID, code, clientIP string) (*LoginResult, error) {
	if s.loginCfg.MaxAttempts > 0 {
		key := fmt.Sprintf("login_attempts:%s:%s", conversationID, clientIP)
		attempts, err := s.stateStore.Incr(ctx, key, s.loginCfg.AttemptWindow)
		if err != nil {
			return nil, fmt.Errorf("rate limit check: %w", err)
		}
		if attempts > int64(s.loginCfg.MaxAttempts) {
			return nil, ErrTooManyLoginAttempts
		}
	}

	// The lookup hash narrows to one candidate row; bcrypt verification
	// is the actual proof. All failure modes collapse to the same error
	// so missing vs revoked vs wrong is not observable externally.
	lookupHash := pkgcrypto.LookupHash(s.credCfg.Pepper, code)
	credential, err := s.credentialRepo.GetActiveByLookupHash(ctx, conversationID, lookupHash)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrLoginCodeInvalid
	}
	if err != nil {
		return nil, fmt.Errorf("lookup credential: %w", err)
	}
	if !pkgcrypto.CheckLoginCode(code, credential.VerifyHash) {
		return nil, ErrLoginCodeInvalid
	}

	if err := s.credentialRepo.TouchLastUsed(ctx, credential.ID, time.Now()); err != nil {
		return nil, fmt.Errorf("touch last used: %w", err)
	}

	participant, err := s.participantRepo.GetByID(ctx, credential.ParticipantID)
	if err != nil {
		return nil, fmt.Errorf("get participant: %w", err)
	}

	tokens, err := s.IssueToken(ctx, conversationID, participant.AccountID, participant.ID)
	if err != nil {
		return nil, err
	}
	return &LoginResult{
		TokenSet:      *tokens,
		ParticipantID: participant.ID,
		WaveID:        participant.WaveID,
	}, nil
}

func (s *credentialService) Revoke(ctx context.Context, conversationID, participantID uuid.UUID) error {
	return s.credentialRepo.Revoke(ctx, conversationID, participantID)
}

func (s *credentialService) IssueToken(_ context.Context, conversationID, accountID, participantID uuid.UUID) (*TokenSet, error) {
	token, err := s.jwtManager.GenerateParticipantToken(conversationID, accountID, participantID)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &TokenSet{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.jwtManager.ParticipantTokenTTL().Seconds()),
	}, nil
}
