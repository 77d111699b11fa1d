package gen

import (
	"math/rand"

	"boomtrees.dev/internal/sim/catalogs"
	"boomtrees.dev/internal/sim/world/grid"
	"boomtrees.dev/internal/sim/world/terrain/features"
)

// World is what the populator writes into.
type World interface {
	Cell(pos grid.Vec3i) grid.Cell
	SetCell(pos grid.Vec3i, c grid.Cell)
	SurfaceY(x, z int) int
	WorldHeight() int
}

// Stats counts what one Populate call placed, keyed by configured feature
// name. Skipped counts placements of feature types the populator does not
// draw (ores, vines, ground cover).
type Stats struct {
	Placed  map[string]int
	Skipped int
}

type Populator struct {
	Blocks   *catalogs.BlockCatalog
	Registry *features.Registry // resolves random_selector defaults
}

const maxSelectorDepth = 4

// Populate runs every phase list of biome over chunk (cx, cz) in phase
// order, each list in its stored order.
func (p *Populator) Populate(w World, cx, cz int, biome *features.Biome, rng *rand.Rand) Stats {
	st := Stats{Placed: map[string]int{}}
	for _, phase := range catalogs.Phases {
		list, ok := biome.Generation[phase]
		if !ok {
			continue
		}
		for _, u := range list.Units() {
			n := features.Placements(u, rng)
			for i := 0; i < n; i++ {
				x := cx*16 + rng.Intn(16)
				z := cz*16 + rng.Intn(16)
				y := w.SurfaceY(x, z)
				if y < 0 {
					continue
				}
				if name, ok := p.place(w, features.Base(u), grid.Vec3i{X: x, Y: y + 1, Z: z}, rng, 0); ok {
					st.Placed[name]++
				} else if !p.draws(features.Base(u)) {
					st.Skipped++
				}
			}
		}
	}
	return st
}

func (p *Populator) draws(f *features.ConfiguredFeature) bool {
	if f == nil {
		return false
	}
	switch f.Type {
	case features.TypeTree, features.TypeHugeFungus, features.TypeRandomSelector:
		return true
	}
	return false
}

func (p *Populator) place(w World, f *features.ConfiguredFeature, at grid.Vec3i, rng *rand.Rand, depth int) (string, bool) {
	if f == nil {
		return "", false
	}
	switch f.Type {
	case features.TypeTree:
		return f.Name, p.tree(w, f.Config, at, rng)
	case features.TypeHugeFungus:
		return f.Name, p.fungus(w, f.Config, at, rng)
	case features.TypeRandomSelector:
		if p.Registry == nil || depth >= maxSelectorDepth {
			return "", false
		}
		def, ok := p.Registry.Unit(f.Config.Default)
		if !ok {
			return "", false
		}
		return p.place(w, features.Base(def), at, rng, depth+1)
	}
	return "", false
}

func (p *Populator) clear(w World, at grid.Vec3i, height int) bool {
	if at.Y+height+1 >= w.WorldHeight() {
		return false
	}
	for y := 0; y < height; y++ {
		if !p.Blocks.IsAir(w.Cell(at.Add(grid.Vec3i{Y: y})).Block) {
			return false
		}
	}
	return true
}

// tree places a straight trunk with a leaf blob around its top.
func (p *Populator) tree(w World, cfg catalogs.FeatureConfig, at grid.Vec3i, rng *rand.Rand) bool {
	h := cfg.BaseHeight + rng.Intn(cfg.HeightRand+1)
	if h <= 0 || !p.clear(w, at, h) {
		return false
	}
	for y := 0; y < h; y++ {
		w.SetCell(at.Add(grid.Vec3i{Y: y}), grid.Cell{Block: cfg.Trunk, Axis: grid.AxisY})
	}
	if cfg.Leaves == "" {
		return true
	}
	top := at.Y + h - 1
	for y := top - 2; y <= top+1; y++ {
		r := 2
		if y >= top {
			r = 1
		}
		p.canopy(w, grid.Vec3i{X: at.X, Y: y, Z: at.Z}, r, cfg.Leaves)
	}
	return true
}

// fungus grows a stem from a valid nylium base and caps it with a hat.
func (p *Populator) fungus(w World, cfg catalogs.FeatureConfig, at grid.Vec3i, rng *rand.Rand) bool {
	if cfg.ValidBase != "" && w.Cell(at.Add(grid.Vec3i{Y: -1})).Block != cfg.ValidBase {
		return false
	}
	h := 4 + rng.Intn(6)
	if !p.clear(w, at, h) {
		return false
	}
	for y := 0; y < h; y++ {
		w.SetCell(at.Add(grid.Vec3i{Y: y}), grid.Cell{Block: cfg.Stem, Axis: grid.AxisY})
	}
	top := at.Y + h - 1
	for y := top - 1; y <= top+1; y++ {
		r := 2
		if y == top+1 {
			r = 1
		}
		p.canopy(w, grid.Vec3i{X: at.X, Y: y, Z: at.Z}, r, cfg.Hat)
	}
	return true
}

// canopy fills air cells of a square layer, skipping the corners.
func (p *Populator) canopy(w World, center grid.Vec3i, r int, block string) {
	if block == "" {
		return
	}
	for dz := -r; dz <= r; dz++ {
		for dx := -r; dx <= r; dx++ {
			if r > 1 && (dx == -r || dx == r) && (dz == -r || dz == r) {
				continue
			}
			pos := center.Add(grid.Vec3i{X: dx, Z: dz})
			if p.Blocks.IsAir(w.Cell(pos).Block) {
				w.SetCell(pos, grid.Cell{Block: block})
			}
		}
	}
}
