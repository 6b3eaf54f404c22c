package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"proof_of_existence/pkg/auth"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type failingStore struct{}

func (failingStore) Allow(context.Context, string) (bool, error) {
	return false, assert.AnError
}

// signedInAs stands in for the auth middleware: it trusts the address header.
func signedInAs() gin.HandlerFunc {
	return func(c *gin.Context) {
		if header := c.GetHeader(auth.AddressHeader); header != "" {
			c.Set(auth.ContextKey, &auth.WalletUserData{Address: common.HexToAddress(header), Method: "address"})
		}
		c.Next()
	}
}

func newLimitedRouter(store LimiterStore, before ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(before...)
	r.Use(RateLimit(store))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func doPing(r *gin.Engine, headers map[string]string) int {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimit(t *testing.T) {
	store := NewMemoryStore(RateLimitConfig{RequestsPerSecond: 1, Burst: 2})
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	r := newLimitedRouter(store)

	assert.Equal(t, http.StatusOK, doPing(r, nil))
	assert.Equal(t, http.StatusOK, doPing(r, nil))
	assert.Equal(t, http.StatusTooManyRequests, doPing(r, nil))

	now = now.Add(time.Second)
	assert.Equal(t, http.StatusOK, doPing(r, nil))
}

func TestRateLimit_SignedInWalletHasOwnBucket(t *testing.T) {
	store := NewMemoryStore(RateLimitConfig{RequestsPerSecond: 1, Burst: 1})
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	r := newLimitedRouter(store, signedInAs())

	wallet := map[string]string{auth.AddressHeader: "0x00000000000000000000000000000000000000aB"}

	assert.Equal(t, http.StatusOK, doPing(r, nil))
	assert.Equal(t, http.StatusTooManyRequests, doPing(r, nil))
	assert.Equal(t, http.StatusOK, doPing(r, wallet))
	assert.Equal(t, http.StatusTooManyRequests, doPing(r, wallet))
}

func TestRateLimit_IgnoresUnverifiedAddressHeader(t *testing.T) {
	store := NewMemoryStore(RateLimitConfig{RequestsPerSecond: 0.001, Burst: 1})
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	r := newLimitedRouter(store)

	allowed := 0
	for i := 0; i < 50; i++ {
		header := map[string]string{auth.AddressHeader: fmt.Sprintf("0x%040x", i+1)}
		if doPing(r, header) == http.StatusOK {
			allowed++
		}
	}

	assert.Equal(t, 1, allowed)
	assert.Len(t, store.buckets, 1)
}

func TestRateLimit_EvictsIdleBuckets(t *testing.T) {
	store := NewMemoryStore(RateLimitConfig{RequestsPerSecond: 1, Burst: 1, IdleTTL: time.Minute})
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	_, _ = store.Allow(context.Background(), "a")
	now = now.Add(2 * time.Minute)
	_, _ = store.Allow(context.Background(), "b")

	assert.Len(t, store.buckets, 1)
}

func TestRateLimit_FailsOpen(t *testing.T) {
	r := newLimitedRouter(failingStore{})
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, doPing(r, nil))
	}
}
