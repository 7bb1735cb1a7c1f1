// Package scale implements invertible linear mappings between a data domain
// and a pixel range.
package scale

import "math"

// Linear maps [D0,D1] onto [R0,R1]. The zero value is not usable; build one
// with NewLinear.
type Linear struct {
	d0, d1 float64
	r0, r1 float64
}

// NewLinear returns a scale from domain [d0,d1] to range [r0,r1].
func NewLinear(d0, d1, r0, r1 float64) Linear {
	return Linear{d0: d0, d1: d1, r0: r0, r1: r1}
}

// Apply maps a domain value to the range.
func (s Linear) Apply(v float64) float64 {
	if s.d1 == s.d0 {
		return (s.r0 + s.r1) / 2
	}
	return s.r0 + (v-s.d0)/(s.d1-s.d0)*(s.r1-s.r0)
}

// Invert maps a range value back to the domain.
func (s Linear) Invert(v float64) float64 {
	if s.r1 == s.r0 {
		return (s.d0 + s.d1) / 2
	}
	return s.d0 + (v-s.r0)/(s.r1-s.r0)*(s.d1-s.d0)
}

// Domain returns the domain bounds.
func (s Linear) Domain() (float64, float64) { return s.d0, s.d1 }

// Range returns the range bounds.
func (s Linear) Range() (float64, float64) { return s.r0, s.r1 }

// WithDomain returns a copy of s with a new domain.
func (s Linear) WithDomain(d0, d1 float64) Linear {
	s.d0, s.d1 = d0, d1
	return s
}

// WithRange returns a copy of s with a new range.
func (s Linear) WithRange(r0, r1 float64) Linear {
	s.r0, s.r1 = r0, r1
	return s
}

// Ticks returns roughly n evenly spaced round values inside the domain,
// using steps of 1, 2 or 5 times a power of ten.
func (s Linear) Ticks(n int) []float64 {
	lo, hi := s.d0, s.d1
	if lo > hi {
		lo, hi = hi, lo
	}
	if n <= 0 || lo == hi || math.IsNaN(lo) || math.IsInf(hi-lo, 0) {
		return nil
	}
	step := tickStep(lo, hi, n)
	first := math.Ceil(lo / step)
	last := math.Floor(hi / step)
	out := make([]float64, 0, int(last-first)+1)
	for i := first; i <= last; i++ {
		out = append(out, i*step)
	}
	return out
}

func tickStep(lo, hi float64, n int) float64 {
	raw := (hi - lo) / float64(n)
	power := math.Pow(10, math.Floor(math.Log10(raw)))
	switch r := raw / power; {
	case r >= math.Sqrt(50):
		return power * 10
	case r >= math.Sqrt(10):
		return power * 5
	case r >= math.Sqrt(2):
		return power * 2
	}
	return power
}

// Extent returns the min and max of vs padded on each side by pad times the
// span. An empty or constant input yields a unit-wide extent around the value.
func Extent(vs []float64, pad float64) (float64, float64) {
	if len(vs) == 0 {
		return 0, 1
	}
	lo, hi := vs[0], vs[0]
	for _, v := range vs[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if lo == hi {
		return lo - 0.5, hi + 0.5
	}
	p := (hi - lo) * pad
	return lo - p, hi + p
}
