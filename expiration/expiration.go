// This file defines when a memoized result is too old to be returned.

package expiration

import (
	"math"
	"time"
)

/*
Strategy is the interface that all expiration rules must follow. Instead of hard-coding
the max age check into the engine, we define a strategy so expiration behavior can be swapped easily.
*/
type Strategy interface {

	// IsExpired reports whether an entry stored at storedAt must be recomputed at now.
	IsExpired(storedAt, now time.Time) bool
}

// Never keeps entries forever. This is what a memoized function uses when no max age is configured.
type Never struct{}

func (Never) IsExpired(time.Time, time.Time) bool { return false }

/*
MaxAge expires an entry once strictly more than Age has elapsed since it was stored.

  - Age == 0  : every entry is already expired, every call recomputes
  - elapsed == Age : still fresh (the boundary is inclusive)
  - Age < 0   : behaves like 0, "elapsed > Age" always holds
*/
type MaxAge struct {
	Age time.Duration
}

func (m MaxAge) IsExpired(storedAt, now time.Time) bool {
	if m.Age <= 0 {
		return true
	}
	return now.Sub(storedAt) > m.Age
}

// FromMillis builds a strategy from a max age in milliseconds.
// NaN and infinities mean "never expires", and so do values too large for a time.Duration.
func FromMillis(ms float64) Strategy {
	if math.IsNaN(ms) || math.IsInf(ms, 0) {
		return Never{}
	}
	ns := ms * float64(time.Millisecond)
	if ns >= math.MaxInt64 {
		return Never{}
	}
	if ns <= math.MinInt64 {
		return MaxAge{Age: -1}
	}
	return MaxAge{Age: time.Duration(ns)}
}
