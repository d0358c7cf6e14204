package id

import (
	"strconv"
	"sync"

	"github.com/google/uuid"
)

// Temp generates a temporary identifier (UUID v4).
func Temp() string {
	return uuid.NewString()
}

// IsTemp reports whether s has the shape of an identifier produced by Temp.
func IsTemp(s string) bool {
	u, err := uuid.Parse(s)
	if err != nil {
		return false
	}
	return u.Version() == 4 && len(s) == 36
}

// Sequence hands out increasing decimal ids. The zero value starts at "1".
// It is safe for concurrent use.
type Sequence struct {
	mu   sync.Mutex
	last int64
}

// Next returns the next id in the sequence.
func (s *Sequence) Next() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last++
	return strconv.FormatInt(s.last, 10)
}

// Observe advances the sequence past a numeric id that was assigned
// elsewhere (for example seed data), so Next never collides with it.
// Non-numeric ids are ignored.
func (s *Sequence) Observe(id string) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if n > s.last {
		s.last = n
	}
}

// Reset rewinds the sequence so the next id is "1".
func (s *Sequence) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = 0
}
