package store

import (
	"testing"

	"boomtrees.dev/internal/sim/catalogs"
	"boomtrees.dev/internal/sim/encoding"
	"boomtrees.dev/internal/sim/tuning"
	"boomtrees.dev/internal/sim/world/grid"
)

func newTestStore(t *testing.T) *ChunkStore {
	t.Helper()
	cats, err := catalogs.Load("../../../../../configs")
	if err != nil {
		t.Fatalf("load catalogs: %v", err)
	}
	w := tuning.Defaults().World
	w.Height = 40
	w.SeaLevel = 20
	gen, err := NewWorldGen(w, &cats.Blocks, &cats.Biomes)
	if err != nil {
		t.Fatalf("NewWorldGen: %v", err)
	}
	return NewChunkStore(gen, &cats.Blocks)
}

func TestGenerateChunk_Layers(t *testing.T) {
	s := newTestStore(t)
	for _, p := range [][2]int{{0, 0}, {-5, 17}, {100, -100}} {
		x, z := p[0], p[1]
		if got := s.SurfaceY(x, z); got != 19 {
			t.Fatalf("(%d,%d) surface y=%d want 19", x, z, got)
		}
		want := map[string]string{
			"plains":         "GRASS_BLOCK",
			"forest":         "GRASS_BLOCK",
			"crimson_forest": "CRIMSON_NYLIUM",
			"warped_forest":  "WARPED_NYLIUM",
		}[s.BiomeAt(x, z)]
		if got := s.Cell(grid.Vec3i{X: x, Y: 19, Z: z}).Block; got != want {
			t.Fatalf("(%d,%d) surface=%s want %s", x, z, got, want)
		}
		if got := s.Cell(grid.Vec3i{X: x, Y: 17, Z: z}).Block; got != "DIRT" {
			t.Fatalf("(%d,%d) y=17 is %s want DIRT", x, z, got)
		}
		if got := s.Cell(grid.Vec3i{X: x, Y: 0, Z: z}).Block; got != "STONE" {
			t.Fatalf("(%d,%d) y=0 is %s want STONE", x, z, got)
		}
	}
}

func TestCell_OutOfBoundsIsAir(t *testing.T) {
	s := newTestStore(t)
	s.Gen.BoundaryR = 8
	for _, p := range []grid.Vec3i{{Y: -1}, {Y: 40}, {X: 9, Y: 5}} {
		if got := s.Cell(p).Block; got != "AIR" {
			t.Fatalf("%v: got %s want AIR", p, got)
		}
		s.SetCell(p, grid.Cell{Block: "STONE"})
		if got := s.Cell(p).Block; got != "AIR" {
			t.Fatalf("%v: write outside bounds stuck: %s", p, got)
		}
	}
}

func TestSetCell_RoundTripAndDigest(t *testing.T) {
	s := newTestStore(t)
	ch := s.GetOrGenChunk(0, 0)
	before := ch.Digest()

	pos := grid.Vec3i{X: 3, Y: 25, Z: 4}
	s.SetCell(pos, grid.Cell{Block: "STRIPPED_OAK_BOOMLOG", Axis: grid.AxisZ, Age: 2})
	got := s.Cell(pos)
	if got.Block != "STRIPPED_OAK_BOOMLOG" || got.Axis != grid.AxisZ || got.Age != 2 {
		t.Fatalf("got %+v", got)
	}
	after := ch.Digest()
	if after == before {
		t.Fatalf("digest unchanged after write")
	}

	s.SetCell(pos, grid.Cell{Block: "NOT_A_BLOCK"})
	if s.Cell(pos).Block != "STRIPPED_OAK_BOOMLOG" {
		t.Fatalf("unknown block overwrote the cell")
	}
	if ch.Digest() != after {
		t.Fatalf("digest changed on ignored write")
	}

	// Ages above one byte survive storage and feed the digest.
	s.SetCell(pos, grid.Cell{Block: "STRIPPED_OAK_BOOMLOG", Axis: grid.AxisZ, Age: 258})
	if got := s.Cell(pos).Age; got != 258 {
		t.Fatalf("age=%d want 258", got)
	}
	if ch.Digest() == after {
		t.Fatalf("digest ignores the high age byte")
	}
}

func TestTriggerAreaEffect(t *testing.T) {
	s := newTestStore(t)
	center := grid.Vec3i{X: 8, Y: 19, Z: 8}

	s.TriggerAreaEffect(center.Center(), 2, false)
	if len(s.Blasts) != 1 || s.Blasts[0].Destructive {
		t.Fatalf("blasts: %+v", s.Blasts)
	}
	if got := s.Cell(center).Block; got == "AIR" {
		t.Fatalf("non-destructive blast cleared the center")
	}

	s.TriggerAreaEffect(center.Center(), 2, true)
	for _, p := range []grid.Vec3i{center, center.Add(grid.Vec3i{X: 2}), center.Add(grid.Vec3i{Y: -1, Z: 1})} {
		if got := s.Cell(p).Block; got != "AIR" {
			t.Fatalf("%v: got %s want AIR", p, got)
		}
	}
	if got := s.Cell(center.Add(grid.Vec3i{X: 3})).Block; got == "AIR" {
		t.Fatalf("cell outside radius cleared")
	}
}

func TestReplicaAndDrops(t *testing.T) {
	s := newTestStore(t)
	if !s.IsServerAuthoritative() {
		t.Fatalf("fresh store should be authoritative")
	}
	s.Replica = true
	if s.IsServerAuthoritative() {
		t.Fatalf("replica reported authoritative")
	}
	s.EjectDrop(grid.Vec3i{X: 1}, grid.North, grid.ItemStack{Item: "GUNPOWDER", Count: 2})
	if len(s.Items) != 1 || s.Items[0].Face != grid.North || s.Items[0].Stack.Count != 2 {
		t.Fatalf("items: %+v", s.Items)
	}
}

func TestLoadedChunkKeys_Sorted(t *testing.T) {
	s := newTestStore(t)
	s.GetOrGenChunk(1, 0)
	s.GetOrGenChunk(-1, 5)
	s.GetOrGenChunk(-1, -2)
	keys := s.LoadedChunkKeys()
	want := []ChunkKey{{CX: -1, CZ: -2}, {CX: -1, CZ: 5}, {CX: 1, CZ: 0}}
	if len(keys) != len(want) {
		t.Fatalf("keys=%v", keys)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("keys=%v want %v", keys, want)
		}
	}
}

func TestFind(t *testing.T) {
	s := newTestStore(t)
	a, b := grid.Vec3i{X: 1, Y: 25, Z: 1}, grid.Vec3i{X: -3, Y: 22, Z: 40}
	s.SetCell(a, grid.Cell{Block: "OAK_BOOMLOG"})
	s.SetCell(b, grid.Cell{Block: "OAK_BOOMLOG"})
	got := s.Find(func(c grid.Cell) bool { return s.Blocks.IsExplosive(c.Block) })
	if len(got) != 2 || got[0] != b || got[1] != a {
		t.Fatalf("Find=%v want [%v %v]", got, b, a)
	}
}

func TestChunkBlockIDs_EncodeRuns(t *testing.T) {
	s := newTestStore(t)
	ch := s.GetOrGenChunk(0, 0)
	ids := ch.BlockIDs()
	if len(ids) != 16*16*40 {
		t.Fatalf("len=%d", len(ids))
	}
	got, err := encoding.DecodeRuns(encoding.EncodeRuns(ids), len(ids))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	for i := range ids {
		if got[i] != ids[i] {
			t.Fatalf("cell %d: got %d want %d", i, got[i], ids[i])
		}
	}
	if got[0] != s.Gen.Stone || got[len(got)-1] != s.Gen.Air {
		t.Fatalf("bottom=%d top=%d", got[0], got[len(got)-1])
	}
}
