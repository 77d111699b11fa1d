package features

import "math/rand"

// Unwrap returns the feature type at the bottom of a decorator chain.
func Unwrap(u Unit) string {
	for u != nil {
		w, ok := u.(Wrapper)
		if !ok {
			return u.FeatureType()
		}
		u = w.Inner()
	}
	return ""
}

// Base returns the configured feature at the bottom of a decorator chain.
func Base(u Unit) *ConfiguredFeature {
	for u != nil {
		if cf, ok := u.(*ConfiguredFeature); ok {
			return cf
		}
		w, ok := u.(Wrapper)
		if !ok {
			return nil
		}
		u = w.Inner()
	}
	return nil
}

// IsFeature reports whether u, once unwrapped, is of the given type.
func IsFeature(u Unit, featureType string) bool {
	return Unwrap(u) == featureType
}

// FindFirst returns the index of the first unit of featureType, or -1.
func FindFirst(list *PhaseList, featureType string) int {
	for i := 0; i < list.Len(); i++ {
		if IsFeature(list.At(i), featureType) {
			return i
		}
	}
	return -1
}

// ReplaceFeatureOfType removes the first unit of featureType and appends the
// replacement at the end of the list. With no match the list is unchanged.
func ReplaceFeatureOfType(list *PhaseList, featureType string, replacement Supplier) bool {
	i := FindFirst(list, featureType)
	if i < 0 {
		return false
	}
	list.Remove(i)
	list.Append(replacement)
	return true
}

// CountFor splits a budget: ratio*budget as a stochastically rounded count.
func CountFor(ratio float64, budget int) FloatEquivalentInt {
	return FloatEquivalent(ratio * float64(budget))
}

// AppendCountedFeature appends factory's unit wrapped in a multilayer count
// of ratio*totalBudget placements per chunk, and returns the appended unit.
func AppendCountedFeature(list *PhaseList, factory Supplier, ratio float64, totalBudget int) *Decorated {
	u := &Decorated{
		Decorator: CountMultilayer{Provider: CountFor(ratio, totalBudget)},
		Unit:      factory(),
	}
	list.Append(Const(u))
	return u
}

// Placements samples how many times the base feature of u runs in one
// chunk: the product of every decorator's placements along the chain.
func Placements(u Unit, rng *rand.Rand) int {
	n := 1
	for u != nil && n > 0 {
		d, ok := u.(*Decorated)
		if !ok {
			break
		}
		n *= d.Decorator.Placements(rng)
		u = d.Unit
	}
	return n
}
