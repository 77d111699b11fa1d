package gen_test

import (
	"math/rand"
	"testing"

	"boomtrees.dev/internal/sim/catalogs"
	"boomtrees.dev/internal/sim/tuning"
	"boomtrees.dev/internal/sim/world/grid"
	"boomtrees.dev/internal/sim/world/terrain/features"
	"boomtrees.dev/internal/sim/world/terrain/gen"
	"boomtrees.dev/internal/sim/world/terrain/store"
)

type fixture struct {
	cats   *catalogs.Catalogs
	store  *store.ChunkStore
	reg    *features.Registry
	biomes map[string]*features.Biome
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	cats, err := catalogs.Load("../../../../../configs")
	if err != nil {
		t.Fatalf("load catalogs: %v", err)
	}
	wg, err := store.NewWorldGen(tuning.Defaults().World, &cats.Blocks, &cats.Biomes)
	if err != nil {
		t.Fatalf("NewWorldGen: %v", err)
	}
	reg, err := features.NewRegistry(&cats.Biomes)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	list, err := features.BuildBiomes(&cats.Biomes)
	if err != nil {
		t.Fatalf("BuildBiomes: %v", err)
	}
	f := fixture{cats: cats, store: store.NewChunkStore(wg, &cats.Blocks), reg: reg, biomes: map[string]*features.Biome{}}
	for _, b := range list {
		f.biomes[b.Name] = b
	}
	return f
}

func countBlocks(s *store.ChunkStore, cx, cz int, id string) int {
	n := 0
	for y := 0; y < s.Gen.Height; y++ {
		for z := 0; z < 16; z++ {
			for x := 0; x < 16; x++ {
				if s.Cell(grid.Vec3i{X: cx*16 + x, Y: y, Z: cz*16 + z}).Block == id {
					n++
				}
			}
		}
	}
	return n
}

func TestPopulate_ForestBoomtrees(t *testing.T) {
	f := newFixture(t)
	wg := tuning.Defaults().WorldGen
	wg.Oak.Rarity = 1
	forest := f.biomes["forest"]
	if _, err := features.ModifyBiome(forest, wg, f.reg); err != nil {
		t.Fatalf("ModifyBiome: %v", err)
	}
	p := &gen.Populator{Blocks: &f.cats.Blocks, Registry: f.reg}

	st := p.Populate(f.store, 0, 0, forest, rand.New(rand.NewSource(5)))
	if st.Placed["oak_boomtree"] != 1 {
		t.Fatalf("placed=%v want one oak_boomtree", st.Placed)
	}
	if n := countBlocks(f.store, 0, 0, "OAK_BOOMLOG"); n < 5 || n > 7 {
		t.Fatalf("boom log cells=%d want 5..7", n)
	}
	if countBlocks(f.store, 0, 0, "OAK_LEAVES") == 0 {
		t.Fatalf("tree has no leaves")
	}
}

func findChunk(s *store.ChunkStore, biome string) (int, int, bool) {
	for cz := 0; cz < 32; cz++ {
		for cx := 0; cx < 32; cx++ {
			// Regions are a multiple of 16 wide, so one column decides the chunk.
			if s.BiomeAt(cx*16, cz*16) == biome {
				return cx, cz, true
			}
		}
	}
	return 0, 0, false
}

func TestPopulate_NetherFungusNeedsNylium(t *testing.T) {
	f := newFixture(t)
	crimson := f.biomes["crimson_forest"]
	wg := tuning.Defaults().WorldGen
	wg.Crimson.Ratio = 1
	if _, err := features.ModifyBiome(crimson, wg, f.reg); err != nil {
		t.Fatalf("ModifyBiome: %v", err)
	}
	p := &gen.Populator{Blocks: &f.cats.Blocks, Registry: f.reg}

	cx, cz, ok := findChunk(f.store, "crimson_forest")
	if !ok {
		t.Fatalf("no crimson chunk found")
	}
	st := p.Populate(f.store, cx, cz, crimson, rand.New(rand.NewSource(11)))
	if st.Placed["crimson_boomfungus"] == 0 {
		t.Fatalf("placed=%v want boom fungi", st.Placed)
	}
	if st.Placed["crimson_fungi"] != 0 {
		t.Fatalf("ratio 1 left vanilla fungi: %v", st.Placed)
	}
	if countBlocks(f.store, cx, cz, "CRIMSON_BOOMSTEM") == 0 {
		t.Fatalf("no boom stems in chunk")
	}
	if st.Skipped == 0 {
		t.Fatalf("vegetation and ores should be skipped")
	}

	// The same list on grass grows nothing.
	px, pz, ok := findChunk(f.store, "plains")
	if !ok {
		t.Fatalf("no plains chunk found")
	}
	st = p.Populate(f.store, px, pz, crimson, rand.New(rand.NewSource(11)))
	if n := st.Placed["crimson_boomfungus"]; n != 0 {
		t.Fatalf("fungi grew on grass: %v", st.Placed)
	}
}
