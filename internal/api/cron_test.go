package api

import (
	"fmt"
	"math/big"
	"net/http"
	"testing"
	"time"

	"proof_of_existence/internal/rewards"
	"proof_of_existence/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testCronSecret = "cron-secret"

var cronHeaders = map[string]string{CronSecretHeader: testCronSecret}

func newCronEnv(now time.Time) (*testEnv, *MockSettlementService) {
	env := newTestEnv()
	ss := new(MockSettlementService)
	r := &cronRoutes{ss: ss, secret: testCronSecret, now: func() time.Time { return now }}
	h := env.group.Group("/cron")
	h.Use(r.requireSecret())
	h.POST("/settle", r.Settle)
	h.POST("/publish-root", r.PublishRoot)
	return env, ss
}

func TestNewCronRoutes_DisabledWithoutSecret(t *testing.T) {
	engine := gin.New()
	NewCronRoutes(engine.Group("/api/v1"), new(MockSettlementService), "")
	assert.Empty(t, engine.Routes())
}

func TestCronRoutes_Settle(t *testing.T) {
	now := time.Date(2026, 3, 10, 0, 5, 0, 0, time.UTC)
	yesterday := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	result := &rewards.Result{
		Day:       yesterday,
		CoveredMs: 120000,
		Total:     big.NewInt(2100),
		Rewards:   []rewards.UserReward{{Address: "0xa", Amount: big.NewInt(2100)}},
	}

	tests := []struct {
		name       string
		query      string
		headers    map[string]string
		setupMock  func(ss *MockSettlementService)
		wantStatus int
		check      func(t *testing.T, resp SettleResponse)
	}{
		{
			name:       "MissingSecret",
			headers:    nil,
			setupMock:  func(ss *MockSettlementService) {},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:    "DefaultsToYesterday",
			headers: cronHeaders,
			setupMock: func(ss *MockSettlementService) {
				ss.On("Settle", mock.Anything, yesterday).Return(&service.Settlement{
					Day:          yesterday,
					Result:       result,
					SettledCount: 1,
					SnapshotSize: 1,
					Root:         "0xroot",
					TxHash:       "0xtx",
				}, nil)
			},
			wantStatus: http.StatusOK,
			check: func(t *testing.T, resp SettleResponse) {
				assert.Equal(t, "2026-03-09", resp.Day)
				assert.Equal(t, "2100", resp.Total)
				assert.Equal(t, 1, resp.Participants)
				assert.Equal(t, "0xtx", resp.TxHash)
				assert.Empty(t, resp.Warning)
			},
		},
		{
			name:    "ExplicitDay",
			query:   "?day=2026-03-01",
			headers: cronHeaders,
			setupMock: func(ss *MockSettlementService) {
				ss.On("Settle", mock.Anything, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)).
					Return(&service.Settlement{Result: &rewards.Result{Total: big.NewInt(0)}}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "BadDay",
			query:      "?day=03/01/2026",
			headers:    cronHeaders,
			setupMock:  func(ss *MockSettlementService) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:    "AlreadySettled",
			headers: cronHeaders,
			setupMock: func(ss *MockSettlementService) {
				ss.On("Settle", mock.Anything, yesterday).Return(nil, service.ErrAlreadySettled)
			},
			wantStatus: http.StatusConflict,
		},
		{
			name:    "PublishFailedKeepsSettlement",
			headers: cronHeaders,
			setupMock: func(ss *MockSettlementService) {
				ss.On("Settle", mock.Anything, yesterday).Return(&service.Settlement{
					Day:    yesterday,
					Result: result,
					Root:   "0xroot",
				}, fmt.Errorf("%w: rpc down", service.ErrPublishFailed))
			},
			wantStatus: http.StatusOK,
			check: func(t *testing.T, resp SettleResponse) {
				assert.Equal(t, "0xroot", resp.Root)
				assert.Empty(t, resp.TxHash)
				assert.Contains(t, resp.Warning, "rpc down")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, ss := newCronEnv(now)
			tt.setupMock(ss)

			w := env.do(t, http.MethodPost, "/api/v1/cron/settle"+tt.query, nil, tt.headers)
			requireStatus(t, w, tt.wantStatus)

			if tt.check != nil {
				var resp SettleResponse
				decode(t, w, &resp)
				tt.check(t, resp)
			}
			ss.AssertExpectations(t)
		})
	}
}

func TestCronRoutes_PublishRoot(t *testing.T) {
	now := time.Date(2026, 3, 10, 0, 5, 0, 0, time.UTC)
	yesterday := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		txHash     string
		err        error
		wantStatus int
	}{
		{"Published", "0xtx", nil, http.StatusOK},
		{"NotSettled", "", service.ErrDayNotSettled, http.StatusNotFound},
		{"AlreadyPublished", "", service.ErrRootAlreadyPublished, http.StatusConflict},
		{"NoChain", "", service.ErrPublisherDisabled, http.StatusServiceUnavailable},
		{"RPCFailure", "", service.ErrPublishFailed, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, ss := newCronEnv(now)
			ss.On("PublishRoot", mock.Anything, yesterday).Return(tt.txHash, tt.err)

			w := env.do(t, http.MethodPost, "/api/v1/cron/publish-root", nil, cronHeaders)
			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())
		})
	}
}
