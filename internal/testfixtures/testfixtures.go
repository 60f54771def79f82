// Package testfixtures provides deterministic stand-ins for clocks and id
// generators so service tests produce stable output.
package testfixtures

import (
	"fmt"
	"sync"
	"time"
)

// FrozenClock returns a now func pinned to the given instant.
func FrozenClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

// SteppingClock returns a now func that advances by step on every call,
// starting at the given instant.
func SteppingClock(start time.Time, step time.Duration) func() time.Time {
	var mu sync.Mutex
	next := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		current := next
		next = next.Add(step)
		return current
	}
}

// SequentialIDs returns an id generator producing prefix-1, prefix-2, and so on.
func SequentialIDs(prefix string) func() string {
	var mu sync.Mutex
	counter := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		counter++
		return fmt.Sprintf("%s-%d", prefix, counter)
	}
}

// FixedValues returns a generator that yields the given values in order and
// repeats the last one once exhausted.
func FixedValues(values ...string) func() string {
	var mu sync.Mutex
	index := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		if len(values) == 0 {
			return ""
		}
		value := values[index]
		if index < len(values)-1 {
			index++
		}
		return value
	}
}
