// Package earnings derives billable duration and earnings from raw session
// timestamps. Nothing here touches storage; every value is recomputed at the
// point of use.
package earnings

import (
	"fmt"
	"time"

	"github.com/cockroachdb/apd/v3"

	"github.com/alexanderramin/earnclock/internal/domain"
)

var ctx = func() *apd.Context {
	c := apd.BaseContext.WithPrecision(34)
	c.Rounding = apd.RoundHalfUp
	return c
}()

var secondsPerHour = apd.New(3600, 0)

// Result is a computed earnings amount. RateMissing distinguishes a session
// that earned nothing from one that had no rate to earn at.
type Result struct {
	Amount      domain.Money
	RateMissing bool
}

// DurationSeconds returns whole seconds between started and ended, minus any
// paused time inside that range. An open pause is treated as running until
// ended. Negative ranges yield zero.
func DurationSeconds(started, ended time.Time, pauses []domain.Pause) int64 {
	if !ended.After(started) {
		return 0
	}
	total := ended.Sub(started)
	for _, p := range pauses {
		from := p.PausedAt
		to := ended
		if p.ResumedAt != nil {
			to = *p.ResumedAt
		}
		if from.Before(started) {
			from = started
		}
		if to.After(ended) {
			to = ended
		}
		if to.After(from) {
			total -= to.Sub(from)
		}
	}
	if total < 0 {
		return 0
	}
	return int64(total / time.Second)
}

// Earnings computes round_half_up(seconds / 3600 * rate, 2). A nil rate
// yields zero with RateMissing set.
func Earnings(seconds int64, rate *domain.Money) (Result, error) {
	if rate == nil {
		return Result{RateMissing: true}, nil
	}
	if seconds <= 0 || *rate == 0 {
		return Result{}, nil
	}

	// Work in cents: seconds * rate_cents / 3600, rounded to a whole cent.
	product := new(apd.Decimal)
	if _, err := ctx.Mul(product, apd.New(seconds, 0), apd.New(rate.Cents(), 0)); err != nil {
		return Result{}, fmt.Errorf("computing earnings: %w", err)
	}
	quotient := new(apd.Decimal)
	if _, err := ctx.Quo(quotient, product, secondsPerHour); err != nil {
		return Result{}, fmt.Errorf("computing earnings: %w", err)
	}
	cents := new(apd.Decimal)
	if _, err := ctx.Quantize(cents, quotient, 0); err != nil {
		return Result{}, fmt.Errorf("rounding earnings: %w", err)
	}
	v, err := cents.Int64()
	if err != nil {
		return Result{}, fmt.Errorf("converting earnings: %w", err)
	}
	return Result{Amount: domain.Cents(v)}, nil
}

// ForSession derives duration and earnings for s. Active sessions are
// measured up to now.
func ForSession(s *domain.Session, now time.Time) (int64, Result, error) {
	end := now
	if s.EndedAt != nil {
		end = *s.EndedAt
	}
	secs := DurationSeconds(s.StartedAt, end, s.Pauses)
	res, err := Earnings(secs, s.HourlyRate)
	if err != nil {
		return 0, Result{}, fmt.Errorf("session %s: %w", s.ID, err)
	}
	return secs, res, nil
}

// Project is the live estimate for a running timer. It uses the same
// formula as persisted sessions so the estimate converges on the confirmed
// value at stop.
func Project(elapsedSeconds int64, rate *domain.Money) Result {
	res, err := Earnings(elapsedSeconds, rate)
	if err != nil {
		return Result{RateMissing: rate == nil}
	}
	return res
}

// Hours converts seconds to fractional hours for display and rate averages.
func Hours(seconds int64) float64 {
	return float64(seconds) / 3600
}

// AverageRate is earnings per hour over seconds, rounded half-up to cents.
// Zero when no time has been tracked.
func AverageRate(total domain.Money, seconds int64) (domain.Money, error) {
	if seconds <= 0 {
		return 0, nil
	}
	num := new(apd.Decimal)
	if _, err := ctx.Mul(num, apd.New(total.Cents(), 0), secondsPerHour); err != nil {
		return 0, fmt.Errorf("computing average rate: %w", err)
	}
	q := new(apd.Decimal)
	if _, err := ctx.Quo(q, num, apd.New(seconds, 0)); err != nil {
		return 0, fmt.Errorf("computing average rate: %w", err)
	}
	if _, err := ctx.Quantize(q, q, 0); err != nil {
		return 0, fmt.Errorf("rounding average rate: %w", err)
	}
	v, err := q.Int64()
	if err != nil {
		return 0, fmt.Errorf("converting average rate: %w", err)
	}
	return domain.Cents(v), nil
}
