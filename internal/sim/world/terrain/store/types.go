package store

import (
	"crypto/sha256"
	"encoding/binary"

	"boomtrees.dev/internal/sim/catalogs"
	"boomtrees.dev/internal/sim/world/grid"
)

type ChunkKey struct {
	CX int
	CZ int
}

// Cell is the packed form of grid.Cell: Block is a palette index.
type Cell struct {
	Block uint16
	Axis  grid.Axis
	Age   uint16
}

type Chunk struct {
	CX, CZ int
	Height int
	Cells  []Cell // len = 16*16*Height

	dirty bool
	hash  [32]byte
}

func (c *Chunk) index(x, y, z int) int {
	return x + z*16 + y*256
}

func (c *Chunk) Get(x, y, z int) Cell {
	return c.Cells[c.index(x, y, z)]
}

func (c *Chunk) Set(x, y, z int, v Cell) {
	i := c.index(x, y, z)
	if c.Cells[i] == v {
		return
	}
	c.Cells[i] = v
	c.dirty = true
}

func (c *Chunk) Digest() [32]byte {
	if c.dirty || c.hash == ([32]byte{}) {
		h := sha256.New()
		var tmp [5]byte
		for _, v := range c.Cells {
			binary.LittleEndian.PutUint16(tmp[:2], v.Block)
			tmp[2] = byte(v.Axis)
			binary.LittleEndian.PutUint16(tmp[3:], v.Age)
			h.Write(tmp[:])
		}
		copy(c.hash[:], h.Sum(nil))
		c.dirty = false
	}
	return c.hash
}

type WorldGen struct {
	Seed            int64
	BoundaryR       int // blocks, 0 = unbounded
	Height          int
	SeaLevel        int
	BiomeRegionSize int

	Biomes  []string          // rotation used by gen.BiomeAt
	Surface map[string]uint16 // top block per biome

	Air   uint16
	Stone uint16
	Dirt  uint16
}

// Blast is one recorded area effect.
type Blast struct {
	Center      grid.Vec3
	Radius      float64
	Destructive bool
}

// ItemDrop is an item entity popped out of a block face.
type ItemDrop struct {
	Pos   grid.Vec3i
	Face  grid.Direction
	Stack grid.ItemStack
}

type ChunkStore struct {
	Gen    WorldGen
	Blocks *catalogs.BlockCatalog
	Chunks map[ChunkKey]*Chunk

	// Replica marks a visual-only copy of the world.
	Replica bool

	Blasts []Blast
	Items  []ItemDrop
}

func NewChunkStore(gen WorldGen, blocks *catalogs.BlockCatalog) *ChunkStore {
	return &ChunkStore{
		Gen:    gen,
		Blocks: blocks,
		Chunks: map[ChunkKey]*Chunk{},
	}
}

// BlockIDs returns the palette id of every cell in storage order.
func (c *Chunk) BlockIDs() []uint16 {
	out := make([]uint16, len(c.Cells))
	for i, v := range c.Cells {
		out[i] = v.Block
	}
	return out
}
