// Package gen holds the deterministic noise helpers behind terrain
// generation and the populator that places biome features into chunks.
package gen

import "math/rand"

func FloorDiv(a, b int) int {
	// b > 0
	q := a / b
	r := a % b
	if r < 0 {
		q--
	}
	return q
}

func Mod(a, b int) int {
	// b > 0
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

func mix64(z uint64) uint64 {
	z += 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

func Hash2(seed int64, x, z int) uint64 {
	ux := uint64(uint32(int32(x)))
	uz := uint64(uint32(int32(z)))
	v := uint64(seed) ^ (ux * 0x9e3779b97f4a7c15) ^ (uz * 0xbf58476d1ce4e5b9)
	return mix64(v)
}

func Hash3(seed int64, x, y, z int) uint64 {
	ux := uint64(uint32(int32(x)))
	uy := uint64(uint32(int32(y)))
	uz := uint64(uint32(int32(z)))
	v := uint64(seed) ^ (ux * 0x9e3779b97f4a7c15) ^ (uy * 0xc2b2ae3d27d4eb4f) ^ (uz * 0xbf58476d1ce4e5b9)
	return mix64(v)
}

// BiomeAt picks one of names for the square region containing (x, z).
// Regions are regionSize blocks wide.
func BiomeAt(seed int64, x, z, regionSize int, names []string) string {
	if len(names) == 0 {
		return ""
	}
	if regionSize <= 0 {
		regionSize = 1
	}
	rx := FloorDiv(x, regionSize)
	rz := FloorDiv(z, regionSize)
	return names[Hash2(seed, rx, rz)%uint64(len(names))]
}

// ChunkRand returns the decoration rng for a chunk. The same seed and chunk
// always decorate the same way.
func ChunkRand(seed int64, cx, cz int) *rand.Rand {
	return rand.New(rand.NewSource(int64(Hash2(seed^0x5eed, cx, cz) >> 1)))
}
