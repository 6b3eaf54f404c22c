package api

import (
	"net/http"
	"testing"

	"proof_of_existence/internal/model"
	"proof_of_existence/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

const testTxHash = "0x1111111111111111111111111111111111111111111111111111111111111111"

func newQuestRewardEnv(admin bool) (*testEnv, *MockQuestRewardService) {
	env := newTestEnv()
	qs := new(MockQuestRewardService)
	NewQuestRewardRoutes(env.group, qs, env.auth, env.authz)

	user := testUser()
	user.IsAdmin = admin
	env.users.On("GetUserByAddress", mock.Anything, testAddress).Return(user, nil)
	return env, qs
}

func TestQuestRewardRoutes_AdminOnly(t *testing.T) {
	env, qs := newQuestRewardEnv(false)

	w := env.do(t, http.MethodPost, "/api/v1/admin/quest-rewards/"+uuid.NewString()+"/approve", nil, asUser)

	requireStatus(t, w, http.StatusForbidden)
	qs.AssertNotCalled(t, "Approve", mock.Anything, mock.Anything)
}

func TestQuestRewardRoutes_Create(t *testing.T) {
	amount := decimal.RequireFromString("5000000000000000000")

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"Created", nil, http.StatusCreated},
		{"Duplicate", service.ErrDuplicateReward, http.StatusConflict},
		{"UnknownUser", service.ErrUserNotFound, http.StatusNotFound},
		{"BadAmount", service.ErrInvalidAmount, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, qs := newQuestRewardEnv(true)
			call := qs.On("Create", mock.Anything, testAddress, "twitter_follow", mock.MatchedBy(func(d decimal.Decimal) bool {
				return d.Equal(amount)
			}))
			if tt.err != nil {
				call.Return(nil, tt.err)
			} else {
				call.Return(&model.QuestReward{
					ID:     uuid.New(),
					Reason: "twitter_follow",
					Amount: amount,
					Status: model.QuestRewardPending,
				}, nil)
			}

			w := env.do(t, http.MethodPost, "/api/v1/admin/quest-rewards", map[string]any{
				"address": testAddress,
				"reason":  "twitter_follow",
				"amount":  amount.String(),
			}, asUser)
			requireStatus(t, w, tt.wantStatus)

			if tt.err == nil {
				var resp QuestRewardResponse
				decode(t, w, &resp)
				assert.Equal(t, "PENDING", resp.Status)
			}
		})
	}
}

func TestQuestRewardRoutes_Transitions(t *testing.T) {
	id := uuid.New()

	t.Run("ApproveTwice", func(t *testing.T) {
		env, qs := newQuestRewardEnv(true)
		qs.On("Approve", mock.Anything, id).Return(nil, service.ErrInvalidTransition)

		w := env.do(t, http.MethodPost, "/api/v1/admin/quest-rewards/"+id.String()+"/approve", nil, asUser)
		requireStatus(t, w, http.StatusConflict)
	})

	t.Run("MarkSent", func(t *testing.T) {
		env, qs := newQuestRewardEnv(true)
		tx := testTxHash
		qs.On("MarkSent", mock.Anything, id, testTxHash).Return(&model.QuestReward{
			ID:     id,
			Status: model.QuestRewardSent,
			TxHash: &tx,
		}, nil)

		w := env.do(t, http.MethodPost, "/api/v1/admin/quest-rewards/"+id.String()+"/sent",
			MarkSentRequest{TxHash: testTxHash}, asUser)
		requireStatus(t, w, http.StatusOK)

		var resp QuestRewardResponse
		decode(t, w, &resp)
		assert.Equal(t, "SENT", resp.Status)
		assert.Equal(t, &tx, resp.TxHash)
	})

	t.Run("NotFound", func(t *testing.T) {
		env, qs := newQuestRewardEnv(true)
		qs.On("MarkSent", mock.Anything, id, testTxHash).Return(nil, service.ErrQuestRewardNotFound)

		w := env.do(t, http.MethodPost, "/api/v1/admin/quest-rewards/"+id.String()+"/sent",
			MarkSentRequest{TxHash: testTxHash}, asUser)
		requireStatus(t, w, http.StatusNotFound)
	})
}
