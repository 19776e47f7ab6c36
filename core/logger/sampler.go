package logger

import (
	"strconv"
	"strings"
	"sync"
)

// ratioSampler admits num out of every den calls. A zero ratio means
// sampling is off and everything passes. Used to keep per-update debug
// lines affordable under long-poll bursts.
type ratioSampler struct {
	mu   sync.Mutex
	num  int
	den  int
	seen int
}

func newRatioSampler(num, den int) *ratioSampler {
	s := &ratioSampler{}
	s.Set(num, den)
	return s
}

// Set replaces the ratio and restarts the cycle.
func (s *ratioSampler) Set(num, den int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if num <= 0 || den <= 0 {
		s.num, s.den, s.seen = 0, 0, 0
		return
	}
	if num > den {
		num = den
	}
	s.num, s.den, s.seen = num, den, 0
}

// Allow reports whether this call falls inside the admitted slice of
// the current cycle.
func (s *ratioSampler) Allow() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.den <= 0 {
		return true
	}
	s.seen++
	if s.seen > s.den {
		s.seen = 1
	}
	return s.seen <= s.num
}

// parseRatioSpec understands "1/50" and the shorthand "50" (one in fifty).
func parseRatioSpec(spec string) (int, int) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return 0, 0
	}
	if num, den, ok := strings.Cut(spec, "/"); ok {
		n, errN := strconv.Atoi(strings.TrimSpace(num))
		d, errD := strconv.Atoi(strings.TrimSpace(den))
		if errN == nil && errD == nil {
			return n, d
		}
		return 0, 0
	}
	if v, err := strconv.Atoi(spec); err == nil && v > 0 {
		return 1, v
	}
	return 0, 0
}
