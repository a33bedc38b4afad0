package indicator

import "math"

// Rolling is a fixed-size window accumulator for mean and sample variance.
// Push adds the newest observation and evicts the oldest once the window is
// full, using Welford's update in both directions.
type Rolling struct {
	size int
	buf  []float64
	head int
	n    int
	mean float64
	m2   float64
}

// NewRolling creates an accumulator over the last size observations.
func NewRolling(size int) *Rolling {
	return &Rolling{
		size: size,
		buf:  make([]float64, size),
	}
}

// Push adds x, evicting the oldest observation if the window is full.
func (r *Rolling) Push(x float64) {
	if r.n == r.size {
		old := r.buf[r.head]
		r.n--
		if r.n == 0 {
			r.mean, r.m2 = 0, 0
		} else {
			delta := old - r.mean
			r.mean -= delta / float64(r.n)
			r.m2 -= delta * (old - r.mean)
		}
	}

	r.buf[r.head] = x
	r.head = (r.head + 1) % r.size

	r.n++
	delta := x - r.mean
	r.mean += delta / float64(r.n)
	r.m2 += delta * (x - r.mean)
	if r.m2 < 0 {
		r.m2 = 0
	}
}

// Reset empties the window.
func (r *Rolling) Reset() {
	r.head, r.n = 0, 0
	r.mean, r.m2 = 0, 0
}

// Full reports whether the window holds size observations.
func (r *Rolling) Full() bool {
	return r.n == r.size
}

// Mean returns the window mean.
func (r *Rolling) Mean() float64 {
	return r.mean
}

// Std returns the sample standard deviation (ddof=1).
func (r *Rolling) Std() float64 {
	if r.n < 2 {
		return 0
	}
	return math.Sqrt(r.m2 / float64(r.n-1))
}
