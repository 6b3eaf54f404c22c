package rewards

import (
	"fmt"
	"math/big"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day = time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

func at(h, m, s int) time.Time {
	return day.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(s)*time.Second)
}

func rates(base, bonus int64) Rates {
	return Rates{BasePerSecond: big.NewInt(base), ExclusiveBonusPerSecond: big.NewInt(bonus)}
}

func byAddress(res *Result) map[string]UserReward {
	out := make(map[string]UserReward, len(res.Rewards))
	for _, r := range res.Rewards {
		out[r.Address] = r
	}
	return out
}

func TestCalculate_NoSessions(t *testing.T) {
	res, err := Calculate(day, nil, rates(10, 5))
	require.NoError(t, err)
	assert.Empty(t, res.Rewards)
	assert.Zero(t, res.CoveredMs)
	assert.Equal(t, int64(0), res.Total.Int64())
	assert.Equal(t, day, res.Day)
}

func TestCalculate_SingleUserIsExclusive(t *testing.T) {
	res, err := Calculate(day, []Interval{
		{Address: "0xa", Start: at(10, 0, 0), Duration: 60 * time.Second},
	}, rates(10, 5))
	require.NoError(t, err)
	require.Len(t, res.Rewards, 1)

	r := res.Rewards[0]
	assert.Equal(t, int64(60_000), r.ExclusiveMs)
	assert.Zero(t, r.SharedMs)
	assert.Equal(t, int64(60*15), r.Amount.Int64())
}

func TestCalculate_OverlapSplitsSharedTime(t *testing.T) {
	// a: 10:00:00-10:01:00, b: 10:00:30-10:01:30
	res, err := Calculate(day, []Interval{
		{Address: "0xa", Start: at(10, 0, 0), Duration: 60 * time.Second},
		{Address: "0xb", Start: at(10, 0, 30), Duration: 60 * time.Second},
	}, rates(10, 5))
	require.NoError(t, err)

	got := byAddress(res)
	assert.Equal(t, int64(30_000), got["0xa"].ExclusiveMs)
	assert.Equal(t, int64(15_000), got["0xa"].SharedMs)
	assert.Equal(t, int64(30_000), got["0xb"].ExclusiveMs)
	assert.Equal(t, int64(15_000), got["0xb"].SharedMs)
	assert.Equal(t, int64(90_000), res.CoveredMs)

	// 30s*15 + 15s*10
	assert.Equal(t, int64(600), got["0xa"].Amount.Int64())
	assert.Equal(t, int64(1200), res.Total.Int64())
}

func TestCalculate_SelfOverlapCountsOnce(t *testing.T) {
	res, err := Calculate(day, []Interval{
		{Address: "0xa", Start: at(9, 0, 0), Duration: 60 * time.Second},
		{Address: "0xa", Start: at(9, 0, 30), Duration: 60 * time.Second},
	}, rates(1, 0))
	require.NoError(t, err)
	require.Len(t, res.Rewards, 1)
	assert.Equal(t, int64(90_000), res.Rewards[0].ExclusiveMs)
	assert.Zero(t, res.Rewards[0].SharedMs)
}

func TestCalculate_ClipsAtMidnight(t *testing.T) {
	res, err := Calculate(day, []Interval{
		{Address: "0xa", Start: day.Add(-30 * time.Second), Duration: 60 * time.Second},
		{Address: "0xb", Start: day.Add(Day - 10*time.Second), Duration: 60 * time.Second},
		{Address: "0xc", Start: day.Add(-2 * time.Hour), Duration: time.Hour},
	}, rates(1, 0))
	require.NoError(t, err)

	got := byAddress(res)
	assert.Equal(t, int64(30_000), got["0xa"].ExclusiveMs)
	assert.Equal(t, int64(10_000), got["0xb"].ExclusiveMs)
	_, present := got["0xc"]
	assert.False(t, present, "interval entirely before the day must be ignored")
}

func TestCalculate_NonMidnightDayIsNormalised(t *testing.T) {
	in := []Interval{{Address: "0xa", Start: at(1, 0, 0), Duration: time.Second}}
	a, err := Calculate(day.Add(13*time.Hour), in, rates(1, 0))
	require.NoError(t, err)
	assert.Equal(t, day, a.Day)
	assert.Equal(t, int64(1000), a.CoveredMs)
}

func TestCalculate_RemainderGoesToFirstAddresses(t *testing.T) {
	// three users share exactly 1000ms: 334/333/333
	start := at(12, 0, 0)
	res, err := Calculate(day, []Interval{
		{Address: "0xc", Start: start, Duration: time.Second},
		{Address: "0xa", Start: start, Duration: time.Second},
		{Address: "0xb", Start: start, Duration: time.Second},
	}, rates(1000, 0))
	require.NoError(t, err)

	got := byAddress(res)
	assert.Equal(t, int64(334), got["0xa"].SharedMs)
	assert.Equal(t, int64(333), got["0xb"].SharedMs)
	assert.Equal(t, int64(333), got["0xc"].SharedMs)
	assert.Equal(t, []string{"0xa", "0xb", "0xc"}, []string{res.Rewards[0].Address, res.Rewards[1].Address, res.Rewards[2].Address})
}

func TestCalculate_ConservesCoveredTime(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 50; round++ {
		var in []Interval
		n := 1 + rng.Intn(40)
		for i := 0; i < n; i++ {
			in = append(in, Interval{
				Address:  fmt.Sprintf("0x%02d", rng.Intn(8)),
				Start:    day.Add(time.Duration(rng.Int63n(int64(Day+2*time.Hour))) - time.Hour),
				Duration: time.Duration(1+rng.Intn(7200)) * time.Second,
			})
		}

		res, err := Calculate(day, in, rates(3, 2))
		require.NoError(t, err)

		var sum int64
		for _, r := range res.Rewards {
			sum += r.ExclusiveMs + r.SharedMs
		}
		assert.Equal(t, res.CoveredMs, sum, "round %d", round)
		assert.LessOrEqual(t, res.CoveredMs, Day.Milliseconds())
	}
}

func TestCalculate_Deterministic(t *testing.T) {
	in := []Interval{
		{Address: "0xb", Start: at(1, 0, 0), Duration: time.Minute},
		{Address: "0xa", Start: at(1, 0, 10), Duration: time.Minute},
		{Address: "0xc", Start: at(1, 0, 20), Duration: time.Minute},
	}
	a, err := Calculate(day, in, rates(7, 3))
	require.NoError(t, err)

	in[0], in[2] = in[2], in[0]
	b, err := Calculate(day, in, rates(7, 3))
	require.NoError(t, err)

	assert.Equal(t, a.Rewards, b.Rewards)
}

func TestCalculate_BudgetCap(t *testing.T) {
	r := rates(1000, 1000)
	r.DailyBudget = big.NewInt(1000)

	res, err := Calculate(day, []Interval{
		{Address: "0xa", Start: at(1, 0, 0), Duration: time.Minute},
		{Address: "0xb", Start: at(2, 0, 0), Duration: 2 * time.Minute},
	}, r)
	require.NoError(t, err)

	got := byAddress(res)
	assert.Equal(t, int64(333), got["0xa"].Amount.Int64())
	assert.Equal(t, int64(666), got["0xb"].Amount.Int64())
	assert.LessOrEqual(t, res.Total.Cmp(r.DailyBudget), 0)
	assert.Equal(t, int64(999), res.Total.Int64())
}

func TestCalculate_Errors(t *testing.T) {
	_, err := Calculate(day, []Interval{{Start: at(1, 0, 0), Duration: time.Second}}, rates(1, 1))
	assert.ErrorIs(t, err, ErrMissingAddress)

	_, err = Calculate(day, nil, rates(-1, 0))
	assert.ErrorIs(t, err, ErrInvalidRates)
}
