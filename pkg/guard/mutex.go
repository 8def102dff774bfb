// Package guard provides a mutex that records whether a holder panicked
// while the lock was held.
//
// A panic inside Do is recovered and leaves the mutex poisoned: the
// panicking call and every later call report a *PoisonError until the
// owner clears the poison or resets the value.
package guard

import (
	"fmt"
	"sync"
)

// PoisonError is returned when the guarded value may be inconsistent
// because a previous holder panicked.
type PoisonError struct {
	// Panic is the recovered value for the call that poisoned the mutex.
	// It is nil for calls that found the mutex already poisoned.
	Panic any
}

func (e *PoisonError) Error() string {
	if e.Panic != nil {
		return fmt.Sprintf("lock poisoned: holder panicked: %v", e.Panic)
	}
	return "lock poisoned: a previous holder panicked"
}

// Mutex guards a value of type T.
type Mutex[T any] struct {
	mu       sync.Mutex
	poisoned bool
	value    T
}

// New returns a Mutex holding v.
func New[T any](v T) *Mutex[T] {
	return &Mutex[T]{value: v}
}

// Do runs fn with exclusive access to the guarded value.
func (m *Mutex[T]) Do(fn func(v *T) error) (err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.poisoned {
		return &PoisonError{}
	}

	defer func() {
		if r := recover(); r != nil {
			m.poisoned = true
			err = &PoisonError{Panic: r}
		}
	}()

	return fn(&m.value)
}

// IsPoisoned reports whether a holder panicked since the last reset.
func (m *Mutex[T]) IsPoisoned() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.poisoned
}

// ClearPoison marks the current value as consistent again.
func (m *Mutex[T]) ClearPoison() {
	m.mu.Lock()
	m.poisoned = false
	m.mu.Unlock()
}

// Reset replaces the guarded value and clears the poison flag.
func (m *Mutex[T]) Reset(v T) {
	m.mu.Lock()
	m.value = v
	m.poisoned = false
	m.mu.Unlock()
}
