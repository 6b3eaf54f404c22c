package api

import (
	"bytes"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"proof_of_existence/internal/middleware"
	"proof_of_existence/internal/model"
	"proof_of_existence/pkg/auth"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testAddress = "0x00000000000000000000000000000000000000aa"

func init() {
	gin.SetMode(gin.TestMode)
}

var noLimit gin.HandlerFunc = func(c *gin.Context) { c.Next() }

type testEnv struct {
	engine *gin.Engine
	group  *gin.RouterGroup
	users  *MockUserService
	auth   *auth.WalletAuth
	authz  *middleware.Authorization
}

func newTestEnv() *testEnv {
	engine := gin.New()
	users := new(MockUserService)
	return &testEnv{
		engine: engine,
		group:  engine.Group("/api/v1"),
		users:  users,
		auth:   auth.NewWalletAuth(auth.Config{JWTSecret: "test-secret", AllowAddressHeader: true}),
		authz:  middleware.NewAuthorization(users),
	}
}

func testUser() *model.User {
	return &model.User{
		ID:            uuid.MustParse("7f1d2c5e-0b7a-4c1e-9d3f-2a6b8c9d0e1f"),
		WalletAddress: testAddress,
		Balance:       decimal.Zero,
		ReferralCode:  "ABCD1234",
		CreatedAt:     time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

// signedIn registers the address-header user with the mocked user service.
func (e *testEnv) signedIn() *model.User {
	user := testUser()
	e.users.On("EnsureUser", mock.Anything, testAddress).Return(user, nil)
	return user
}

func (e *testEnv) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

var asUser = map[string]string{auth.AddressHeader: testAddress}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
}

func requireStatus(t *testing.T, w *httptest.ResponseRecorder, status int) {
	t.Helper()
	require.Equal(t, status, w.Code, w.Body.String())
}

