package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"treevite/server/internal/config"
	"treevite/server/internal/model"
	"treevite/server/internal/repository"
	"treevite/server/internal/service"
	jwtpkg "treevite/server/pkg/jwt"
)

type testServer struct {
	router     *gin.Engine
	db         *gorm.DB
	jwtManager *jwtpkg.Manager
	adminToken string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, model.AutoMigrate(db))

	waveRepo := repository.NewPGWaveRepository(db)
	inviteRepo := repository.NewPGInviteRepository(db)
	accountRepo := repository.NewPGAccountRepository(db)
	participantRepo := repository.NewPGParticipantRepository(db)
	credentialRepo := repository.NewPGLoginCredentialRepository(db)
	stateStore := repository.NewMemoryStateStore()

	jwtManager := jwtpkg.NewManager("test-signing-key", "treevite-test", time.Hour)

	credentialService := service.NewCredentialService(
		credentialRepo, participantRepo, stateStore, jwtManager,
		config.CredentialConfig{
			Pepper:           "test-pepper",
			FingerprintKey:   "test-fingerprint-key",
			FingerprintKeyID: "k1",
		},
		config.LoginConfig{},
	)
	waveService := service.NewWaveService(waveRepo, inviteRepo)
	redeemService := service.NewRedeemService(inviteRepo, waveRepo, accountRepo, participantRepo, credentialService)
	queryService := service.NewQueryService(waveRepo, inviteRepo, participantRepo)

	adminAccountID := uuid.New()
	adminToken, err := jwtManager.GenerateParticipantToken(uuid.New(), adminAccountID, uuid.New())
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Server.Mode = "test"
	cfg.CORS.AllowedOrigins = []string{"*"}
	cfg.CORS.AllowedMethods = []string{"GET", "POST"}
	cfg.Admin.AccountIDs = []string{adminAccountID.String()}

	router := SetupRouter(
		cfg, zap.NewNop(), jwtManager,
		NewInviteHandler(redeemService, queryService),
		NewAuthHandler(credentialService),
		NewAdminHandler(waveService, queryService, credentialService),
	)

	return &testServer{
		router:     router,
		db:         db,
		jwtManager: jwtManager,
		adminToken: adminToken,
	}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()

	var envelope struct {
		Code    int             `json:"code"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.NoError(t, json.Unmarshal(envelope.Data, out))
}

func (s *testServer) createWave(t *testing.T, conversationID uuid.UUID, invitesPerUser, ownerInvites int) service.CreateWaveResult {
	t.Helper()

	rec := s.do(t, http.MethodPost,
		fmt.Sprintf("/api/v1/admin/conversations/%s/waves", conversationID),
		s.adminToken,
		gin.H{"invites_per_user": invitesPerUser, "owner_invites": ownerInvites},
	)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result service.CreateWaveResult
	decodeData(t, rec, &result)
	return result
}

func (s *testServer) firstUnconsumedCode(t *testing.T, waveID uuid.UUID) string {
	t.Helper()

	var invite model.Invite
	require.NoError(t, s.db.
		Where("wave_id = ? AND status = ?", waveID, model.InviteStatusUnconsumed).
		First(&invite).Error)
	return invite.Code
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminWaveRoutes_RequireAdmin(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	conversationID := uuid.New()
	path := fmt.Sprintf("/api/v1/admin/conversations/%s/waves", conversationID)

	rec := s.do(t, http.MethodPost, path, "", gin.H{"invites_per_user": 2})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// A valid participant token without allow-list membership is 403.
	token, err := s.jwtManager.GenerateParticipantToken(conversationID, uuid.New(), uuid.New())
	require.NoError(t, err)
	rec = s.do(t, http.MethodPost, path, token, gin.H{"invites_per_user": 2})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRedeemAndLoginFlow(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	conversationID := uuid.New()

	created := s.createWave(t, conversationID, 2, 1)
	assert.Equal(t, 3, created.InvitesCreated, "root member allotment plus one owner seed")
	code := s.firstUnconsumedCode(t, created.Wave.ID)

	rec := s.do(t, http.MethodPost,
		fmt.Sprintf("/api/v1/conversations/%s/invites/redeem", conversationID),
		"", gin.H{"invite_code": code},
	)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var redeemed service.RedeemResult
	decodeData(t, rec, &redeemed)
	assert.NotEmpty(t, redeemed.LoginCode)
	assert.Equal(t, "Bearer", redeemed.TokenType)

	// The same code immediately fails as invalid-or-used.
	rec = s.do(t, http.MethodPost,
		fmt.Sprintf("/api/v1/conversations/%s/invites/redeem", conversationID),
		"", gin.H{"invite_code": code},
	)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Login with the returned code issues a fresh token.
	rec = s.do(t, http.MethodPost,
		fmt.Sprintf("/api/v1/conversations/%s/login", conversationID),
		"", gin.H{"login_code": redeemed.LoginCode},
	)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var login service.LoginResult
	decodeData(t, rec, &login)
	assert.Equal(t, redeemed.ParticipantID, login.ParticipantID)

	rec = s.do(t, http.MethodPost,
		fmt.Sprintf("/api/v1/conversations/%s/login", conversationID),
		"", gin.H{"login_code": "WrongCodeWrongCo"},
	)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestParticipantRoutes(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	conversationID := uuid.New()

	created := s.createWave(t, conversationID, 2, 1)
	code := s.firstUnconsumedCode(t, created.Wave.ID)

	rec := s.do(t, http.MethodPost,
		fmt.Sprintf("/api/v1/conversations/%s/invites/redeem", conversationID),
		"", gin.H{"invite_code": code},
	)
	require.Equal(t, http.StatusOK, rec.Code)
	var redeemed service.RedeemResult
	decodeData(t, rec, &redeemed)

	// Declare a child wave so the participant owns outbound invites.
	s.createWave(t, conversationID, 3, 0)

	rec = s.do(t, http.MethodGet,
		fmt.Sprintf("/api/v1/conversations/%s/me/invites", conversationID),
		redeemed.AccessToken, nil,
	)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var invitePage service.InvitePage
	decodeData(t, rec, &invitePage)
	assert.EqualValues(t, 3, invitePage.Total)

	rec = s.do(t, http.MethodGet,
		fmt.Sprintf("/api/v1/conversations/%s/me/wave", conversationID),
		redeemed.AccessToken, nil,
	)
	require.Equal(t, http.StatusOK, rec.Code)
	var waveCtx service.WaveContext
	decodeData(t, rec, &waveCtx)
	assert.Equal(t, 1, waveCtx.WaveNumber)
	assert.Equal(t, 2, waveCtx.InvitesPerUser)

	// A token for another conversation is rejected on scoped routes.
	rec = s.do(t, http.MethodGet,
		fmt.Sprintf("/api/v1/conversations/%s/me/wave", uuid.New()),
		redeemed.AccessToken, nil,
	)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// No token at all is rejected by the middleware.
	rec = s.do(t, http.MethodGet,
		fmt.Sprintf("/api/v1/conversations/%s/me/wave", conversationID),
		"", nil,
	)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegenerateLoginCode(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	conversationID := uuid.New()

	created := s.createWave(t, conversationID, 0, 1)
	code := s.firstUnconsumedCode(t, created.Wave.ID)

	rec := s.do(t, http.MethodPost,
		fmt.Sprintf("/api/v1/conversations/%s/invites/redeem", conversationID),
		"", gin.H{"invite_code": code},
	)
	require.Equal(t, http.StatusOK, rec.Code)
	var redeemed service.RedeemResult
	decodeData(t, rec, &redeemed)

	rec = s.do(t, http.MethodPost,
		fmt.Sprintf("/api/v1/conversations/%s/me/logincode/regenerate", conversationID),
		redeemed.AccessToken, nil,
	)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var regen struct {
		LoginCode string `json:"login_code"`
	}
	decodeData(t, rec, &regen)
	require.NotEmpty(t, regen.LoginCode)
	assert.NotEqual(t, redeemed.LoginCode, regen.LoginCode)

	// Old code is dead, new one works.
	rec = s.do(t, http.MethodPost,
		fmt.Sprintf("/api/v1/conversations/%s/login", conversationID),
		"", gin.H{"login_code": redeemed.LoginCode},
	)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost,
		fmt.Sprintf("/api/v1/conversations/%s/login", conversationID),
		"", gin.H{"login_code": regen.LoginCode},
	)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminListRoutes(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	conversationID := uuid.New()

	created := s.createWave(t, conversationID, 0, 3)
	code := s.firstUnconsumedCode(t, created.Wave.ID)
	rec := s.do(t, http.MethodPost,
		fmt.Sprintf("/api/v1/conversations/%s/invites/redeem", conversationID),
		"", gin.H{"invite_code": code},
	)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet,
		fmt.Sprintf("/api/v1/admin/conversations/%s/waves", conversationID),
		s.adminToken, nil,
	)
	require.Equal(t, http.StatusOK, rec.Code)
	var wavePage service.WavePage
	decodeData(t, rec, &wavePage)
	assert.EqualValues(t, 1, wavePage.Total)

	rec = s.do(t, http.MethodGet,
		fmt.Sprintf("/api/v1/admin/conversations/%s/invites?status=consumed", conversationID),
		s.adminToken, nil,
	)
	require.Equal(t, http.StatusOK, rec.Code)
	var invitePage service.InvitePage
	decodeData(t, rec, &invitePage)
	assert.EqualValues(t, 1, invitePage.Total)

	rec = s.do(t, http.MethodGet,
		fmt.Sprintf("/api/v1/admin/conversations/%s/invites?status=bogus", conversationID),
		s.adminToken, nil,
	)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
