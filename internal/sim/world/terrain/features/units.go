// Package features models a biome's generation pipeline as ordered lists of
// generation units and implements the list surgery used to graft boom trees
// and boom fungi into existing biomes.
package features

import (
	"fmt"
	"math/rand"

	"boomtrees.dev/internal/sim/catalogs"
)

const (
	TypeTree           = "tree"
	TypeHugeFungus     = "huge_fungus"
	TypeRandomSelector = "random_selector"
	TypeDecorated      = "decorated"
)

// Unit is one entry of a phase list.
type Unit interface {
	FeatureType() string
}

// Wrapper is implemented by units that decorate another unit.
type Wrapper interface {
	Unit
	Inner() Unit
}

type ConfiguredFeature struct {
	Type   string
	Name   string
	Config catalogs.FeatureConfig
}

func (f *ConfiguredFeature) FeatureType() string { return f.Type }

type Decorated struct {
	Decorator Decorator
	Unit      Unit
}

func (d *Decorated) FeatureType() string { return TypeDecorated }
func (d *Decorated) Inner() Unit         { return d.Unit }

type Decorator interface {
	Kind() string
	// Placements is how many times the wrapped unit runs for one chunk.
	Placements(rng *rand.Rand) int
}

type Count struct{ Provider IntProvider }

func (Count) Kind() string                    { return "count" }
func (c Count) Placements(rng *rand.Rand) int { return c.Provider.Sample(rng) }

// CountMultilayer spreads its count over every surface layer of a column.
type CountMultilayer struct{ Provider IntProvider }

func (CountMultilayer) Kind() string                    { return "count_multilayer" }
func (c CountMultilayer) Placements(rng *rand.Rand) int { return c.Provider.Sample(rng) }

// Rarity places once every Chance chunks on average. Chance <= 1 places
// every chunk.
type Rarity struct{ Chance int }

func (Rarity) Kind() string { return "rarity" }

func (r Rarity) Placements(rng *rand.Rand) int {
	if r.Chance <= 1 || rng.Intn(r.Chance) == 0 {
		return 1
	}
	return 0
}

type Heightmap struct{}

func (Heightmap) Kind() string              { return "heightmap" }
func (Heightmap) Placements(*rand.Rand) int { return 1 }

type Square struct{}

func (Square) Kind() string              { return "square" }
func (Square) Placements(*rand.Rand) int { return 1 }

func decoratorFromDef(d catalogs.DecoratorDef) (Decorator, error) {
	switch d.Type {
	case "count":
		return Count{Provider: ConstantInt(d.Count)}, nil
	case "count_multilayer":
		return CountMultilayer{Provider: ConstantInt(d.Count)}, nil
	case "rarity":
		return Rarity{Chance: d.Chance}, nil
	case "heightmap":
		return Heightmap{}, nil
	case "square":
		return Square{}, nil
	}
	return nil, fmt.Errorf("unknown decorator %q", d.Type)
}

// FromDef builds the unit for a resolved catalog definition, wrapping the
// decorators around the base feature from the innermost outwards.
func FromDef(def catalogs.FeatureDef) (Unit, error) {
	if def.Feature == "" {
		return nil, fmt.Errorf("feature %q has no type", def.Name)
	}
	var u Unit = &ConfiguredFeature{Type: def.Feature, Name: def.Name, Config: def.Config}
	for i := len(def.Decorators) - 1; i >= 0; i-- {
		dec, err := decoratorFromDef(def.Decorators[i])
		if err != nil {
			return nil, fmt.Errorf("feature %q: %w", def.Name, err)
		}
		u = &Decorated{Decorator: dec, Unit: u}
	}
	return u, nil
}

// Supplier defers unit construction the way the host's registries do.
type Supplier func() Unit

func Const(u Unit) Supplier { return func() Unit { return u } }

// PhaseList is the ordered unit list for one generation phase. Order is
// placement priority.
type PhaseList struct {
	entries []Supplier
}

func NewPhaseList(units ...Unit) *PhaseList {
	l := &PhaseList{}
	for _, u := range units {
		l.Append(Const(u))
	}
	return l
}

func (l *PhaseList) Len() int { return len(l.entries) }

func (l *PhaseList) At(i int) Unit { return l.entries[i]() }

func (l *PhaseList) Append(s Supplier) { l.entries = append(l.entries, s) }

func (l *PhaseList) Remove(i int) {
	l.entries = append(l.entries[:i], l.entries[i+1:]...)
}

func (l *PhaseList) Units() []Unit {
	out := make([]Unit, len(l.entries))
	for i, s := range l.entries {
		out[i] = s()
	}
	return out
}

type Biome struct {
	Name       string
	Surface    string
	Generation map[string]*PhaseList
}

// Phase returns the list for phase, creating an empty one on first use.
func (b *Biome) Phase(phase string) *PhaseList {
	if b.Generation == nil {
		b.Generation = map[string]*PhaseList{}
	}
	l, ok := b.Generation[phase]
	if !ok {
		l = &PhaseList{}
		b.Generation[phase] = l
	}
	return l
}

// BuildBiomes turns the biome catalog into mutable biome definitions, in
// catalog order.
func BuildBiomes(c *catalogs.BiomeCatalog) ([]*Biome, error) {
	out := make([]*Biome, 0, len(c.Biomes))
	for _, def := range c.Biomes {
		b := &Biome{Name: def.Name, Surface: def.Surface, Generation: map[string]*PhaseList{}}
		for _, phase := range catalogs.Phases {
			defs, ok := def.Features[phase]
			if !ok {
				continue
			}
			l := b.Phase(phase)
			for _, fd := range defs {
				u, err := FromDef(fd)
				if err != nil {
					return nil, fmt.Errorf("biome %s: %w", def.Name, err)
				}
				l.Append(Const(u))
			}
		}
		out = append(out, b)
	}
	return out, nil
}
