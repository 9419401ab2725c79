package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"treevite/server/internal/config"
	"treevite/server/internal/model"
	"treevite/server/internal/repository"
	jwtpkg "treevite/server/pkg/jwt"
)

type testEnv struct {
	db              *gorm.DB
	waveRepo        repository.WaveRepository
	inviteRepo      repository.InviteRepository
	accountRepo     repository.AccountRepository
	participantRepo repository.ParticipantRepository
	credentialRepo  repository.LoginCredentialRepository
	stateStore      repository.StateStore
	jwtManager      *jwtpkg.Manager

	waves       WaveService
	credentials CredentialService
	redeem      RedeemService
	query       QueryService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithLogin(t, config.LoginConfig{})
}

func newTestEnvWithLogin(t *testing.T, loginCfg config.LoginConfig) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, model.AutoMigrate(db))

	env := &testEnv{
		db:              db,
		waveRepo:        repository.NewPGWaveRepository(db),
		inviteRepo:      repository.NewPGInviteRepository(db),
		accountRepo:     repository.NewPGAccountRepository(db),
		participantRepo: repository.NewPGParticipantRepository(db),
		credentialRepo:  repository.NewPGLoginCredentialRepository(db),
		stateStore:      repository.NewMemoryStateStore(),
		jwtManager:      jwtpkg.NewManager("test-signing-key", "treevite-test", time.Hour),
	}

	credCfg := config.CredentialConfig{
		Pepper:           "test-pepper",
		FingerprintKey:   "test-fingerprint-key",
		FingerprintKeyID: "k1",
	}
	env.credentials = NewCredentialService(
		env.credentialRepo, env.participantRepo, env.stateStore,
		env.jwtManager, credCfg, loginCfg,
	)
	env.waves = NewWaveService(env.waveRepo, env.inviteRepo)
	env.redeem = NewRedeemService(
		env.inviteRepo, env.waveRepo, env.accountRepo, env.participantRepo, env.credentials,
	)
	env.query = NewQueryService(env.waveRepo, env.inviteRepo, env.participantRepo)
	return env
}

// unconsumedCodes returns codes of currently unconsumed invites in a
// wave, oldest first.
func (env *testEnv) unconsumedCodes(t *testing.T, waveID uuid.UUID) []string {
	t.Helper()

	var invites []model.Invite
	require.NoError(t, env.db.
		Where("wave_id = ? AND status = ?", waveID, model.InviteStatusUnconsumed).
		Order("created_at ASC").
		Find(&invites).Error)

	codes := make([]string, 0, len(invites))
	for _, invite := range invites {
		codes = append(codes, invite.Code)
	}
	return codes
}

// ownedInvites returns a participant's invites in a wave.
func (env *testEnv) ownedInvites(t *testing.T, waveID, participantID uuid.UUID) []model.Invite {
	t.Helper()

	var invites []model.Invite
	require.NoError(t, env.db.
		Where("wave_id = ? AND owner_participant_id = ?", waveID, participantID).
		Find(&invites).Error)
	return invites
}

func (env *testEnv) countRows(t *testing.T, value interface{}) int64 {
	t.Helper()

	var count int64
	require.NoError(t, env.db.Model(value).Count(&count).Error)
	return count
}

func (env *testEnv) mustCreateWave(t *testing.T, conversationID uuid.UUID, invitesPerUser, ownerInvites int, parent *int) *CreateWaveResult {
	t.Helper()

	result, err := env.waves.CreateWave(context.Background(), conversationID, invitesPerUser, ownerInvites, parent)
	require.NoError(t, err)
	return result
}

func (env *testEnv) mustRedeem(t *testing.T, conversationID uuid.UUID, code string) *RedeemResult {
	t.Helper()

	result, err := env.redeem.Redeem(context.Background(), conversationID, code, nil)
	require.NoError(t, err)
	return result
}

func intPtr(n int) *int { return &n }
