package catalogs

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadConfigs(t *testing.T) {
	c, err := Load("../../../configs")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Blocks.Palette[0] != "AIR" {
		t.Fatalf("palette[0]=%q", c.Blocks.Palette[0])
	}
	if c.Blocks.PaletteDigest == "" || c.Blocks.DefsDigest == "" || c.Loot.Digest == "" || c.Biomes.Digest == "" {
		t.Fatalf("missing digests")
	}
	for explosive, stripped := range map[string]string{
		"OAK_BOOMLOG":      "STRIPPED_OAK_BOOMLOG",
		"CRIMSON_BOOMSTEM": "STRIPPED_CRIMSON_BOOMSTEM",
		"WARPED_BOOMSTEM":  "STRIPPED_WARPED_BOOMSTEM",
	} {
		e, ok := c.Blocks.Lookup(explosive)
		if !ok {
			t.Fatalf("missing %s", explosive)
		}
		s, ok := c.Blocks.Paired(e)
		if !ok || s.ID != stripped {
			t.Fatalf("%s pairs with %+v", explosive, s)
		}
		back, ok := c.Blocks.Paired(s)
		if !ok || back.ID != explosive {
			t.Fatalf("%s regrows into %+v", stripped, back)
		}
		if !c.Blocks.IsExplosive(explosive) || !c.Blocks.IsStripped(stripped) {
			t.Fatalf("kind predicates wrong for %s", explosive)
		}
		if !e.Pillar() || !s.Pillar() {
			t.Fatalf("logs must be pillars")
		}
		if _, ok := c.Loot.Table(e.LootTable); !ok {
			t.Fatalf("%s: loot table %q missing", explosive, e.LootTable)
		}
	}
	if _, ok := c.Biomes.ByName["forest"]; !ok {
		t.Fatalf("forest biome missing")
	}
	if !c.Blocks.IsAir("") || !c.Blocks.IsAir("AIR") || c.Blocks.IsAir("STONE") {
		t.Fatalf("IsAir")
	}
}

func TestBuildBlocksOrderIndependent(t *testing.T) {
	defs := []BlockDef{
		{ID: "STRIPPED_X", Kind: KindStrippedLog, RegrowsInto: "X", MaxAge: 2},
		{ID: "X", Kind: KindExplosiveLog, Stripped: "STRIPPED_X"},
		{ID: "AIR", Kind: KindAir},
	}
	var c BlockCatalog
	if err := BuildBlocks(defs, &c); err != nil {
		t.Fatalf("build: %v", err)
	}
	x, _ := c.Lookup("X")
	if s, ok := c.Paired(x); !ok || s.ID != "STRIPPED_X" || s.MaxAge != 2 {
		t.Fatalf("pair=%+v ok=%v", s, ok)
	}

	var again BlockCatalog
	if err := BuildBlocks([]BlockDef{defs[2], defs[1], defs[0]}, &again); err != nil {
		t.Fatalf("build reordered: %v", err)
	}
	if again.PaletteDigest != c.PaletteDigest {
		t.Fatalf("palette depends on def order")
	}
}

func TestBuildBlocksErrors(t *testing.T) {
	air := BlockDef{ID: "AIR", Kind: KindAir}
	cases := []struct {
		name string
		defs []BlockDef
		is   error
		msg  string
	}{
		{
			name: "missing air",
			defs: []BlockDef{{ID: "STONE", Kind: KindSolid}},
			msg:  "missing AIR",
		},
		{
			name: "duplicate",
			defs: []BlockDef{air, air},
			msg:  "duplicate",
		},
		{
			name: "stripped is solid",
			defs: []BlockDef{air, {ID: "X", Kind: KindExplosiveLog, Stripped: "STONE"}, {ID: "STONE", Kind: KindSolid}},
			is:   ErrPairMismatch,
		},
		{
			name: "unknown with hint",
			defs: []BlockDef{air, {ID: "X", Kind: KindExplosiveLog, Stripped: "STRIPED_X"}, {ID: "STRIPPED_X", Kind: KindStrippedLog, RegrowsInto: "X"}},
			is:   ErrUnknownBlock,
			msg:  `did you mean "STRIPPED_X"`,
		},
		{
			name: "one sided pair",
			defs: []BlockDef{
				air,
				{ID: "A", Kind: KindExplosiveLog, Stripped: "S"},
				{ID: "B", Kind: KindExplosiveLog, Stripped: "S"},
				{ID: "S", Kind: KindStrippedLog, RegrowsInto: "A"},
			},
			is: ErrPairMismatch,
		},
		{
			name: "negative age",
			defs: []BlockDef{air, {ID: "X", Kind: KindExplosiveLog, Stripped: "S"}, {ID: "S", Kind: KindStrippedLog, RegrowsInto: "X", MaxAge: -1}},
			msg:  "negative max_age",
		},
		{
			name: "age too large",
			defs: []BlockDef{air, {ID: "X", Kind: KindExplosiveLog, Stripped: "S"}, {ID: "S", Kind: KindStrippedLog, RegrowsInto: "X", MaxAge: MaxAge + 1}},
			msg:  "max_age",
		},
	}
	for _, tc := range cases {
		var c BlockCatalog
		err := BuildBlocks(tc.defs, &c)
		if err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
		if tc.is != nil && !errors.Is(err, tc.is) {
			t.Fatalf("%s: err=%v want %v", tc.name, err, tc.is)
		}
		if tc.msg != "" && !strings.Contains(err.Error(), tc.msg) {
			t.Fatalf("%s: err=%v want %q", tc.name, err, tc.msg)
		}
	}
}

func TestSchemaRejects(t *testing.T) {
	bad := []struct{ schema, doc string }{
		{"blocks", `[{"id":"X","kind":"EXPLOSIVE_LOG"}]`},
		{"blocks", `[{"id":"X","kind":"WOOD"}]`},
		{"blocks", `[{"id":"S","kind":"STRIPPED_LOG","regrows_into":"X","max_age":65535}]`},
		{"loot_tables", `{"t":{"rolls":1,"entries":[{"item":"x","weight":-1,"min":0,"max":1}]}}`},
	}
	for _, b := range bad {
		if err := validateDoc(b.schema, []byte(b.doc)); err == nil {
			t.Fatalf("%s: schema accepted %s", b.schema, b.doc)
		}
	}
	if err := validateDoc("blocks", []byte(`[{"id":"AIR","kind":"AIR"}]`)); err != nil {
		t.Fatalf("minimal blocks rejected: %v", err)
	}
}

func TestResolveRef(t *testing.T) {
	pool := map[string]FeatureDef{
		"base":    {Feature: "tree", Decorators: []DecoratorDef{{Type: "heightmap"}}},
		"wrapped": {Ref: "base", Decorators: []DecoratorDef{{Type: "rarity", Chance: 4}}},
		"loop_a":  {Ref: "loop_b"},
		"loop_b":  {Ref: "loop_a"},
	}
	def, err := resolveRef(pool, "", FeatureDef{Ref: "wrapped", Decorators: []DecoratorDef{{Type: "count", Count: 2}}}, 0)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if def.Feature != "tree" || def.Name != "base" {
		t.Fatalf("def=%+v", def)
	}
	got := make([]string, 0, len(def.Decorators))
	for _, d := range def.Decorators {
		got = append(got, d.Type)
	}
	if strings.Join(got, ",") != "count,rarity,heightmap" {
		t.Fatalf("decorators outermost first, got %v", got)
	}

	if _, err := resolveRef(pool, "loop_a", pool["loop_a"], 0); err == nil {
		t.Fatalf("expected cycle error")
	}
	if _, err := resolveRef(pool, "", FeatureDef{Ref: "bsae"}, 0); err == nil || !strings.Contains(err.Error(), `did you mean "base"`) {
		t.Fatalf("err=%v", err)
	}
}

func TestMissingLootFileRollsEmpty(t *testing.T) {
	var l LootCatalog
	if err := loadLoot(filepath.Join(t.TempDir(), "loot_tables.json"), &l); err != nil {
		t.Fatalf("loadLoot: %v", err)
	}
	if _, ok := l.Table("anything"); ok {
		t.Fatalf("expected no tables")
	}
}
