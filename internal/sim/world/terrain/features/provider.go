package features

import (
	"math"
	"math/rand"
)

// IntProvider yields per-chunk counts for count decorators.
type IntProvider interface {
	Sample(rng *rand.Rand) int
	Min() int
	Max() int
}

type ConstantInt int

func (c ConstantInt) Sample(*rand.Rand) int { return int(c) }
func (c ConstantInt) Min() int              { return int(c) }
func (c ConstantInt) Max() int              { return int(c) }

// FloatEquivalentInt stands in for a fractional count: it yields Integral
// with probability 1-Fraction and Integral+1 with probability Fraction, so
// samples average to Integral+Fraction.
type FloatEquivalentInt struct {
	Integral int
	Fraction float64
}

// fractions this close to 0 or 1 are float noise from ratio*budget.
const fractionEpsilon = 1e-9

func FloatEquivalent(v float64) FloatEquivalentInt {
	if v < 0 {
		v = 0
	}
	i := math.Floor(v)
	f := v - i
	switch {
	case f < fractionEpsilon:
		f = 0
	case f > 1-fractionEpsilon:
		i++
		f = 0
	}
	return FloatEquivalentInt{Integral: int(i), Fraction: f}
}

func (p FloatEquivalentInt) Sample(rng *rand.Rand) int {
	if p.Fraction == 0 || rng.Float64() >= p.Fraction {
		return p.Integral
	}
	return p.Integral + 1
}

func (p FloatEquivalentInt) Min() int { return p.Integral }

func (p FloatEquivalentInt) Max() int {
	if p.Fraction == 0 {
		return p.Integral
	}
	return p.Integral + 1
}

// Mean is the expected value of Sample.
func (p FloatEquivalentInt) Mean() float64 { return float64(p.Integral) + p.Fraction }
