package store

import (
	"math"
	"sort"

	"boomtrees.dev/internal/sim/world/grid"
	genpkg "boomtrees.dev/internal/sim/world/terrain/gen"
)

func (s *ChunkStore) InBounds(x, y, z int) bool {
	if y < 0 || y >= s.Gen.Height {
		return false
	}
	if s.Gen.BoundaryR > 0 {
		if x < -s.Gen.BoundaryR || x > s.Gen.BoundaryR || z < -s.Gen.BoundaryR || z > s.Gen.BoundaryR {
			return false
		}
	}
	return true
}

func (s *ChunkStore) LoadedChunkKeys() []ChunkKey {
	keys := make([]ChunkKey, 0, len(s.Chunks))
	for k := range s.Chunks {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].CX != keys[j].CX {
			return keys[i].CX < keys[j].CX
		}
		return keys[i].CZ < keys[j].CZ
	})
	return keys
}

func (s *ChunkStore) GetBlock(x, y, z int) Cell {
	if !s.InBounds(x, y, z) {
		return Cell{Block: s.Gen.Air}
	}
	ch := s.GetOrGenChunk(genpkg.FloorDiv(x, 16), genpkg.FloorDiv(z, 16))
	return ch.Get(genpkg.Mod(x, 16), y, genpkg.Mod(z, 16))
}

func (s *ChunkStore) SetBlock(x, y, z int, c Cell) {
	if !s.InBounds(x, y, z) {
		return
	}
	ch := s.GetOrGenChunk(genpkg.FloorDiv(x, 16), genpkg.FloorDiv(z, 16))
	ch.Set(genpkg.Mod(x, 16), y, genpkg.Mod(z, 16), c)
}

func (s *ChunkStore) GetOrGenChunk(cx, cz int) *Chunk {
	k := ChunkKey{CX: cx, CZ: cz}
	if ch, ok := s.Chunks[k]; ok {
		return ch
	}
	ch := &Chunk{
		CX:     cx,
		CZ:     cz,
		Height: s.Gen.Height,
		Cells:  make([]Cell, 16*16*s.Gen.Height),
	}
	s.GenerateChunk(ch)
	ch.dirty = true
	_ = ch.Digest()
	s.Chunks[k] = ch
	return ch
}

// Cell implements grid.Grid. Positions outside the world read as air.
func (s *ChunkStore) Cell(pos grid.Vec3i) grid.Cell {
	c := s.GetBlock(pos.X, pos.Y, pos.Z)
	id := "AIR"
	if int(c.Block) < len(s.Blocks.Palette) {
		id = s.Blocks.Palette[c.Block]
	}
	return grid.Cell{Block: id, Axis: c.Axis, Age: int(c.Age)}
}

// SetCell implements grid.Grid. Unknown block ids are ignored.
func (s *ChunkStore) SetCell(pos grid.Vec3i, c grid.Cell) {
	idx, ok := s.Blocks.Index[c.Block]
	if !ok {
		return
	}
	age := c.Age
	if age < 0 {
		age = 0
	}
	if age > math.MaxUint16 {
		age = math.MaxUint16
	}
	s.SetBlock(pos.X, pos.Y, pos.Z, Cell{Block: idx, Axis: c.Axis, Age: uint16(age)})
}

// TriggerAreaEffect records the blast. A destructive blast also clears
// every cell whose center lies within radius.
func (s *ChunkStore) TriggerAreaEffect(center grid.Vec3, radius float64, destructive bool) {
	s.Blasts = append(s.Blasts, Blast{Center: center, Radius: radius, Destructive: destructive})
	if !destructive || radius <= 0 {
		return
	}
	r := int(radius) + 1
	base := grid.Vec3i{X: int(center.X), Y: int(center.Y), Z: int(center.Z)}
	for dy := -r; dy <= r; dy++ {
		for dz := -r; dz <= r; dz++ {
			for dx := -r; dx <= r; dx++ {
				p := base.Add(grid.Vec3i{X: dx, Y: dy, Z: dz})
				if p.Center().Dist(center) > radius || !s.InBounds(p.X, p.Y, p.Z) {
					continue
				}
				s.SetBlock(p.X, p.Y, p.Z, Cell{Block: s.Gen.Air})
			}
		}
	}
}

func (s *ChunkStore) IsServerAuthoritative() bool { return !s.Replica }

func (s *ChunkStore) EjectDrop(pos grid.Vec3i, face grid.Direction, stack grid.ItemStack) {
	s.Items = append(s.Items, ItemDrop{Pos: pos, Face: face, Stack: stack})
}

// SurfaceY returns the y of the highest non-air cell in the column, or -1.
func (s *ChunkStore) SurfaceY(x, z int) int {
	for y := s.Gen.Height - 1; y >= 0; y-- {
		if s.GetBlock(x, y, z).Block != s.Gen.Air {
			return y
		}
	}
	return -1
}

func (s *ChunkStore) WorldHeight() int { return s.Gen.Height }

// Find returns the positions of loaded cells matching pred, in chunk key
// order then y, z, x.
func (s *ChunkStore) Find(pred func(grid.Cell) bool) []grid.Vec3i {
	var out []grid.Vec3i
	for _, k := range s.LoadedChunkKeys() {
		ch := s.Chunks[k]
		for y := 0; y < ch.Height; y++ {
			for z := 0; z < 16; z++ {
				for x := 0; x < 16; x++ {
					c := ch.Get(x, y, z)
					if c.Block == s.Gen.Air {
						continue
					}
					pos := grid.Vec3i{X: k.CX*16 + x, Y: y, Z: k.CZ*16 + z}
					if pred(s.Cell(pos)) {
						out = append(out, pos)
					}
				}
			}
		}
	}
	return out
}
