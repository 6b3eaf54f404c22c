package main

import (
	"bytes"
	"context"
	"math/big"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"proof_of_existence/internal/api"
	"proof_of_existence/internal/model"
	"proof_of_existence/internal/rewards"
	"proof_of_existence/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDayFlag(t *testing.T) {
	now := time.Date(2026, 3, 10, 0, 30, 0, 0, time.UTC)

	day, err := dayFlag("", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC), day)

	day, err = dayFlag("2026-02-28", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC), day)

	_, err = dayFlag("28/02/2026", now)
	assert.Error(t, err)
}

func TestPrintResult(t *testing.T) {
	var buf bytes.Buffer
	err := printResult(&buf, &rewards.Result{
		Day:       time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC),
		CoveredMs: 150000,
		Total:     big.NewInt(2100),
		Rewards: []rewards.UserReward{
			{Address: "0xaa", ExclusiveMs: 60000, SharedMs: 30000, Amount: big.NewInt(1500)},
			{Address: "0xbb", ExclusiveMs: 30000, SharedMs: 30000, Amount: big.NewInt(600)},
		},
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "day 2026-03-09: 2 participants, covered 150000ms, total 2100 wei")
	assert.Contains(t, out, "ADDRESS")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 4)
	assert.Equal(t, []string{"0xaa", "60000", "30000", "1500"}, strings.Fields(lines[2]))
}

func TestPrintSettlement_EmptyDay(t *testing.T) {
	var buf bytes.Buffer
	printSettlement(&buf, &service.Settlement{
		Day:    time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC),
		Result: &rewards.Result{Total: big.NewInt(0)},
	})

	assert.Equal(t, "settled 2026-03-09: 0 participants, 0 wei, 0 sessions settled, snapshot of 0\n", buf.String())
}

func TestPrintQuote(t *testing.T) {
	var buf bytes.Buffer
	printQuote(&buf, &service.Quote{
		Duration:       30,
		BaseFee:        decimal.RequireFromString("1000000000000000000"),
		PricePerSecond: decimal.RequireFromString("100000000000000000"),
		Total:          decimal.RequireFromString("4000000000000000000"),
		OnChain:        true,
	})

	out := buf.String()
	assert.Contains(t, out, "(4 TIME26)")
	assert.Contains(t, out, "recorder contract")
}

func TestFormatUnits(t *testing.T) {
	amount, _ := new(big.Int).SetString("1500000000000000000", 10)
	assert.Equal(t, "1.5", formatUnits(amount, 18))
	assert.Equal(t, "0", formatUnits(big.NewInt(0), 18))
}

func TestWatchFeed(t *testing.T) {
	gin.SetMode(gin.TestMode)

	hub := api.NewFeedHub()
	engine := gin.New()
	api.NewFeedRoutes(engine.Group("/api/v1"), hub)
	server := httptest.NewServer(engine)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/v1/feed/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Count() == 1 }, time.Second, 10*time.Millisecond)

	id := uuid.New()
	hub.Publish(&model.Session{
		ID:            id,
		WalletAddress: "0x00000000000000000000000000000000000000aa",
		StartedAt:     time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
		Duration:      42,
		Color:         "#abcdef",
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var buf bytes.Buffer
	require.NoError(t, watchFeed(ctx, conn, &buf, 1))
	assert.Equal(t, "2026-03-10T09:00:00Z 0x00000000000000000000000000000000000000aa #abcdef   42s "+id.String()+"\n", buf.String())
}
