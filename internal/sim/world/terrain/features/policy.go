package features

import (
	"fmt"
	"log"

	"boomtrees.dev/internal/sim/tuning"
)

const vegetal = "vegetal_decoration"

// Report describes what ModifyBiome did to one biome.
type Report struct {
	Biome    string   `json:"biome"`
	Replaced []string `json:"replaced,omitempty"`
	Appended []string `json:"appended,omitempty"`
}

func (r Report) Changed() bool { return len(r.Replaced)+len(r.Appended) > 0 }

type netherForest struct {
	vanilla string
	boom    string
	gen     func(tuning.WorldGen) tuning.FungusGen
}

var netherForests = map[string]netherForest{
	"crimson_forest": {
		vanilla: "crimson_fungi",
		boom:    "crimson_boomfungus",
		gen:     func(w tuning.WorldGen) tuning.FungusGen { return w.Crimson },
	},
	"warped_forest": {
		vanilla: "warped_fungi",
		boom:    "warped_boomfungus",
		gen:     func(w tuning.WorldGen) tuning.FungusGen { return w.Warped },
	},
}

// ModifyBiome grafts boom trees into a biome's vegetal decoration phase.
// Forests gain a rare boom tree; nether forests trade their planted huge
// fungus for a vanilla share and a boom share of the same fungus budget.
// Other biomes are left alone.
func ModifyBiome(b *Biome, wg tuning.WorldGen, reg *Registry) (Report, error) {
	rep := Report{Biome: b.Name}
	if b.Name == "forest" {
		if !wg.Oak.Spawn {
			return rep, nil
		}
		u, ok := reg.Unit("forest_boomtrees")
		if !ok {
			return rep, fmt.Errorf("biome %s: forest_boomtrees is not registered", b.Name)
		}
		b.Phase(vegetal).Append(Const(&Decorated{Decorator: Rarity{Chance: wg.Oak.Rarity}, Unit: u}))
		rep.Appended = append(rep.Appended, "forest_boomtrees")
		return rep, nil
	}

	nf, ok := netherForests[b.Name]
	if !ok {
		return rep, nil
	}
	g := nf.gen(wg)
	if !g.Spawn {
		return rep, nil
	}
	vanilla, err := reg.Supplier(nf.vanilla)
	if err != nil {
		return rep, fmt.Errorf("biome %s: %w", b.Name, err)
	}
	boom, err := reg.Supplier(nf.boom)
	if err != nil {
		return rep, fmt.Errorf("biome %s: %w", b.Name, err)
	}

	list := b.Phase(vegetal)
	share := &Decorated{
		Decorator: CountMultilayer{Provider: CountFor(1-g.Ratio, wg.FungusBudget)},
		Unit:      vanilla(),
	}
	if ReplaceFeatureOfType(list, TypeHugeFungus, Const(share)) {
		rep.Replaced = append(rep.Replaced, nf.vanilla)
	}
	AppendCountedFeature(list, boom, g.Ratio, wg.FungusBudget)
	rep.Appended = append(rep.Appended, nf.boom)
	return rep, nil
}

// ModifyBiomes applies ModifyBiome to every biome and logs each change.
func ModifyBiomes(biomes []*Biome, wg tuning.WorldGen, reg *Registry, logger *log.Logger) ([]Report, error) {
	var out []Report
	for _, b := range biomes {
		rep, err := ModifyBiome(b, wg, reg)
		if err != nil {
			return out, err
		}
		if !rep.Changed() {
			continue
		}
		if logger != nil {
			logger.Printf("biome %s: replaced=%v appended=%v", rep.Biome, rep.Replaced, rep.Appended)
		}
		out = append(out, rep)
	}
	return out, nil
}
