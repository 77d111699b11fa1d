package store

import (
	"fmt"

	"boomtrees.dev/internal/sim/catalogs"
	"boomtrees.dev/internal/sim/tuning"
	genpkg "boomtrees.dev/internal/sim/world/terrain/gen"
)

// NewWorldGen resolves the block ids terrain generation needs.
func NewWorldGen(w tuning.World, blocks *catalogs.BlockCatalog, biomes *catalogs.BiomeCatalog) (WorldGen, error) {
	g := WorldGen{
		Seed:            w.Seed,
		BoundaryR:       w.BoundaryR,
		Height:          w.Height,
		SeaLevel:        w.SeaLevel,
		BiomeRegionSize: w.BiomeRegionSize,
		Surface:         map[string]uint16{},
	}
	for _, b := range []struct {
		id  string
		dst *uint16
	}{{"AIR", &g.Air}, {"STONE", &g.Stone}, {"DIRT", &g.Dirt}} {
		idx, ok := blocks.Index[b.id]
		if !ok {
			return g, fmt.Errorf("worldgen: %w %q", catalogs.ErrUnknownBlock, b.id)
		}
		*b.dst = idx
	}
	for _, b := range biomes.Biomes {
		g.Biomes = append(g.Biomes, b.Name)
		surface := g.Dirt
		if b.Surface != "" {
			surface = blocks.Index[b.Surface]
		}
		g.Surface[b.Name] = surface
	}
	return g, nil
}

func (s *ChunkStore) BiomeAt(x, z int) string {
	return genpkg.BiomeAt(s.Gen.Seed, x, z, s.Gen.BiomeRegionSize, s.Gen.Biomes)
}

// GenerateChunk lays flat terrain: stone, three layers of dirt, then the
// biome's surface block at SeaLevel-1.
func (s *ChunkStore) GenerateChunk(ch *Chunk) {
	top := s.Gen.SeaLevel - 1
	if top >= ch.Height {
		top = ch.Height - 1
	}
	for z := 0; z < 16; z++ {
		for x := 0; x < 16; x++ {
			wx := ch.CX*16 + x
			wz := ch.CZ*16 + z
			if !s.InBounds(wx, 0, wz) {
				continue
			}
			surface, ok := s.Gen.Surface[s.BiomeAt(wx, wz)]
			if !ok {
				surface = s.Gen.Dirt
			}
			for y := 0; y <= top; y++ {
				b := s.Gen.Stone
				switch {
				case y == top:
					b = surface
				case y >= top-3:
					b = s.Gen.Dirt
				}
				ch.Cells[ch.index(x, y, z)] = Cell{Block: b}
			}
		}
	}
}
