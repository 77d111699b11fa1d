package gen

import "testing"

func TestFloorDivMod(t *testing.T) {
	cases := []struct{ a, b, q, m int }{
		{0, 16, 0, 0},
		{15, 16, 0, 15},
		{16, 16, 1, 0},
		{-1, 16, -1, 15},
		{-16, 16, -1, 0},
		{-17, 16, -2, 15},
	}
	for _, tc := range cases {
		if q := FloorDiv(tc.a, tc.b); q != tc.q {
			t.Fatalf("FloorDiv(%d,%d)=%d want %d", tc.a, tc.b, q, tc.q)
		}
		if m := Mod(tc.a, tc.b); m != tc.m {
			t.Fatalf("Mod(%d,%d)=%d want %d", tc.a, tc.b, m, tc.m)
		}
	}
}

func TestBiomeAt_RegionStable(t *testing.T) {
	names := []string{"plains", "forest", "crimson_forest", "warped_forest"}
	b := BiomeAt(7, 0, 0, 48, names)
	for x := 0; x < 48; x += 7 {
		for z := 0; z < 48; z += 5 {
			if got := BiomeAt(7, x, z, 48, names); got != b {
				t.Fatalf("(%d,%d)=%s want %s", x, z, got, b)
			}
		}
	}
	if got := BiomeAt(7, 0, 0, 48, nil); got != "" {
		t.Fatalf("no names: got %q", got)
	}
	seen := map[string]bool{}
	for r := 0; r < 64; r++ {
		seen[BiomeAt(7, r*48, 0, 48, names)] = true
	}
	if len(seen) != len(names) {
		t.Fatalf("64 regions covered %d biomes", len(seen))
	}
}

func TestChunkRand_Deterministic(t *testing.T) {
	a, b := ChunkRand(3, 1, -2), ChunkRand(3, 1, -2)
	for i := 0; i < 10; i++ {
		if a.Int63() != b.Int63() {
			t.Fatalf("draw %d differs", i)
		}
	}
}
