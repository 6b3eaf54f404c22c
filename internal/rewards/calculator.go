// Package rewards turns one UTC day of drawing sessions into TIME26 amounts.
//
// Drawing time is split into exclusive time (the only person drawing) and
// shared time (several people drawing at once). Shared milliseconds are divided
// between the people drawing, so summed over all users exclusive plus shared
// time always equals the covered time of the day.
package rewards

import (
	"errors"
	"fmt"
	"math/big"
	"sort"
	"time"
)

var (
	ErrMissingAddress = errors.New("interval has no address")
	ErrInvalidRates   = errors.New("reward rates must be non-negative")
)

const Day = 24 * time.Hour

type Interval struct {
	Address  string
	Start    time.Time
	Duration time.Duration
}

// Rates are in wei per second. A zero or nil DailyBudget means uncapped.
type Rates struct {
	BasePerSecond           *big.Int
	ExclusiveBonusPerSecond *big.Int
	DailyBudget             *big.Int
}

type UserReward struct {
	Address     string
	ExclusiveMs int64
	SharedMs    int64
	Amount      *big.Int
}

type Result struct {
	Day       time.Time
	CoveredMs int64
	Total     *big.Int
	Rewards   []UserReward
}

// DayStart truncates t to midnight UTC.
func DayStart(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type span struct {
	start, end int64
}

type event struct {
	at      int64
	delta   int
	address string
}

func Calculate(day time.Time, intervals []Interval, rates Rates) (*Result, error) {
	base, bonus, budget := orZero(rates.BasePerSecond), orZero(rates.ExclusiveBonusPerSecond), orZero(rates.DailyBudget)
	if base.Sign() < 0 || bonus.Sign() < 0 || budget.Sign() < 0 {
		return nil, ErrInvalidRates
	}

	dayStart := DayStart(day)
	lo, hi := dayStart.UnixMilli(), dayStart.Add(Day).UnixMilli()

	perUser := make(map[string][]span)
	for _, iv := range intervals {
		if iv.Address == "" {
			return nil, ErrMissingAddress
		}
		s := iv.Start.UnixMilli()
		e := iv.Start.Add(iv.Duration).UnixMilli()
		if s < lo {
			s = lo
		}
		if e > hi {
			e = hi
		}
		if e <= s {
			continue
		}
		perUser[iv.Address] = append(perUser[iv.Address], span{start: s, end: e})
	}

	var events []event
	for address, spans := range perUser {
		for _, sp := range mergeSpans(spans) {
			events = append(events,
				event{at: sp.start, delta: 1, address: address},
				event{at: sp.end, delta: -1, address: address},
			)
		}
	}
	sort.Slice(events, func(i, j int) bool { return events[i].at < events[j].at })

	exclusive := make(map[string]int64)
	shared := make(map[string]int64)
	active := make(map[string]struct{})
	var covered int64

	for i := 0; i < len(events); {
		at := events[i].at
		for ; i < len(events) && events[i].at == at; i++ {
			if events[i].delta > 0 {
				active[events[i].address] = struct{}{}
			} else {
				delete(active, events[i].address)
			}
		}
		if i == len(events) || len(active) == 0 {
			continue
		}

		length := events[i].at - at
		covered += length

		if len(active) == 1 {
			for address := range active {
				exclusive[address] += length
			}
			continue
		}

		users := make([]string, 0, len(active))
		for address := range active {
			users = append(users, address)
		}
		sort.Strings(users)

		k := int64(len(users))
		share, rem := length/k, length%k
		for idx, address := range users {
			shared[address] += share
			if int64(idx) < rem {
				shared[address]++
			}
		}
	}

	exclusiveRate := new(big.Int).Add(base, bonus)
	thousand := big.NewInt(1000)
	total := new(big.Int)

	out := make([]UserReward, 0, len(perUser))
	for address := range perUser {
		ex, sh := exclusive[address], shared[address]
		amount := new(big.Int).Mul(big.NewInt(ex), exclusiveRate)
		amount.Add(amount, new(big.Int).Mul(big.NewInt(sh), base))
		amount.Quo(amount, thousand)
		total.Add(total, amount)

		out = append(out, UserReward{Address: address, ExclusiveMs: ex, SharedMs: sh, Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })

	if budget.Sign() > 0 && total.Cmp(budget) > 0 {
		scaled := new(big.Int)
		for i := range out {
			out[i].Amount.Mul(out[i].Amount, budget).Quo(out[i].Amount, total)
			scaled.Add(scaled, out[i].Amount)
		}
		total = scaled
	}

	return &Result{
		Day:       dayStart,
		CoveredMs: covered,
		Total:     total,
		Rewards:   out,
	}, nil
}

func mergeSpans(spans []span) []span {
	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })

	merged := []span{spans[0]}
	for _, sp := range spans[1:] {
		last := &merged[len(merged)-1]
		if sp.start <= last.end {
			if sp.end > last.end {
				last.end = sp.end
			}
			continue
		}
		merged = append(merged, sp)
	}
	return merged
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}

func (r UserReward) String() string {
	return fmt.Sprintf("%s exclusive=%dms shared=%dms amount=%s", r.Address, r.ExclusiveMs, r.SharedMs, r.Amount)
}
